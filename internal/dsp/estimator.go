// Package dsp implements the spectral processing chain of the waterfall:
// power spectrum estimation, Fourier resampling to the display width and
// the noise floor / range normalization applied before a row is drawn.
package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// MinFFTSize is the smallest transform used regardless of sample rate
const MinFFTSize = 1024

// dBFloor is added to magnitudes before the logarithm so empty bins stay finite
const dBFloor = 1e-15

// FFTSize returns the transform length for a sample rate: the largest power
// of two not exceeding rate/1000 (about 1 kHz resolution), but at least
// MinFFTSize.
func FFTSize(sampleRate float64) int {
	if sampleRate < 1000 {
		return MinFFTSize
	}
	n := 1 << uint(math.Floor(math.Log2(sampleRate/1000)))
	if n < MinFFTSize {
		return MinFFTSize
	}
	return n
}

// Estimator converts blocks of complex baseband samples into dB power rows
// of a fixed output width.
type Estimator struct {
	sampleRate float64
	fftSize    int
	width      int

	window    []float64         // Blackman-Harris window of fftSize
	fft       *fourier.CmplxFFT // plan for full blocks
	resampler *Resampler        // fftSize -> width
}

// NewEstimator creates an estimator for the given sample rate and display width
func NewEstimator(sampleRate float64, width int) *Estimator {
	e := &Estimator{width: width}
	e.SetSampleRate(sampleRate)
	return e
}

// SetSampleRate recomputes the FFT size, window and plans for a new rate
func (e *Estimator) SetSampleRate(sampleRate float64) {
	e.sampleRate = sampleRate
	e.fftSize = FFTSize(sampleRate)
	e.window = blackmanHarris(e.fftSize)
	e.fft = fourier.NewCmplxFFT(e.fftSize)
	e.resampler = NewResampler(e.fftSize, e.width)
}

// SampleRate returns the rate the estimator is configured for
func (e *Estimator) SampleRate() float64 { return e.sampleRate }

// FFTSize returns the number of samples consumed per estimate
func (e *Estimator) FFTSize() int { return e.fftSize }

// Width returns the length of rows produced by Estimate
func (e *Estimator) Width() int { return e.width }

// Estimate windows the block, transforms it, centers DC and returns the
// magnitude in dB resampled to the output width. Only the first FFTSize
// samples are used; a shorter block is weighted by the leading part of the
// full window and transformed at its own length.
func (e *Estimator) Estimate(block []complex64) []float64 {
	n := len(block)
	if n > e.fftSize {
		n = e.fftSize
	}
	if n == 0 {
		return make([]float64, e.width)
	}

	win := e.window
	plan := e.fft
	resampler := e.resampler
	if n < e.fftSize {
		win = e.window[:n]
		plan = fourier.NewCmplxFFT(n)
		resampler = NewResampler(n, e.width)
	}

	seq := make([]complex128, n)
	for i := 0; i < n; i++ {
		seq[i] = complex128(block[i]) * complex(win[i], 0)
	}
	coeff := plan.Coefficients(nil, seq)

	power := make([]float64, n)
	for i := range power {
		power[i] = 20 * math.Log10(cmplx.Abs(coeff[fftShiftIndex(i, n)])+dBFloor)
	}

	return resampler.Resample(power)
}

// fftShiftIndex maps an output position of a zero-centered spectrum to the
// index of the coefficient stored in natural DFT order.
func fftShiftIndex(i, n int) int {
	return (i + n - n/2) % n
}

// blackmanHarris returns a symmetric 4-term Blackman-Harris window
func blackmanHarris(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	if n == 1 {
		return w
	}
	return window.BlackmanHarris(w)
}
