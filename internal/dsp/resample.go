package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// KaiserBeta is the shape parameter of the spectral window used when
// resampling rows to the display width.
const KaiserBeta = 8.0

// Resampler changes the length of real rows by the Fourier method: the
// spectrum is weighted by a Kaiser window, truncated or zero padded, and
// transformed back. Plans and weights are computed once per length pair.
type Resampler struct {
	in, out int

	forward *fourier.FFT
	inverse *fourier.FFT
	weights []float64 // folded spectral window, len in/2+1
}

// NewResampler prepares a resampler from in samples to out samples
func NewResampler(in, out int) *Resampler {
	r := &Resampler{in: in, out: out}
	if in <= 0 || out <= 0 || in == out {
		return r
	}
	r.forward = fourier.NewFFT(in)
	r.inverse = fourier.NewFFT(out)
	r.weights = foldedKaiser(in, KaiserBeta)
	return r
}

// Resample returns x resampled to the output length. Inputs whose length
// differs from the prepared one are handled with a temporary resampler.
func (r *Resampler) Resample(x []float64) []float64 {
	if len(x) != r.in {
		return NewResampler(len(x), r.out).Resample(x)
	}
	if r.out <= 0 {
		return nil
	}
	if r.in == 0 {
		return make([]float64, r.out)
	}
	if r.in == r.out {
		y := make([]float64, r.out)
		copy(y, x)
		return y
	}

	coeff := r.forward.Coefficients(nil, x)
	for k := range coeff {
		coeff[k] *= complex(r.weights[k], 0)
	}

	n := r.in
	if r.out < n {
		n = r.out
	}
	y := make([]complex128, r.out/2+1)
	copy(y, coeff[:n/2+1])

	// An even common length leaves a shared Nyquist bin that has to be split
	// or combined to keep the result real and energy preserving.
	if n%2 == 0 {
		if r.out < r.in {
			y[n/2] *= 2
		} else {
			y[n/2] *= 0.5
		}
	}

	seq := r.inverse.Sequence(nil, y)
	scale := 1 / float64(r.in)
	for i := range seq {
		seq[i] *= scale
	}
	return seq
}

// Resample is a convenience wrapper for one-off resampling of x to num samples
func Resample(x []float64, num int) []float64 {
	return NewResampler(len(x), num).Resample(x)
}

// foldedKaiser returns the periodic Kaiser window of length n rearranged to
// DFT order and folded onto the non-negative frequencies of a real transform.
func foldedKaiser(n int, beta float64) []float64 {
	w := kaiser(n+1, beta)[:n]

	shifted := make([]float64, n)
	for k := range shifted {
		shifted[k] = w[(k+n/2)%n]
	}

	folded := make([]float64, n/2+1)
	folded[0] = shifted[0]
	for k := 1; k < len(folded); k++ {
		folded[k] = 0.5 * (shifted[k] + shifted[n-k])
	}
	return folded
}

// kaiser returns the symmetric Kaiser window of length m
func kaiser(m int, beta float64) []float64 {
	w := make([]float64, m)
	if m == 1 {
		w[0] = 1
		return w
	}
	denom := besselI0(beta)
	for i := range w {
		r := 2*float64(i)/float64(m-1) - 1
		w[i] = besselI0(beta*math.Sqrt(math.Max(0, 1-r*r))) / denom
	}
	return w
}

// besselI0 evaluates the zeroth order modified Bessel function of the first
// kind by its power series.
func besselI0(x float64) float64 {
	sum, term := 1.0, 1.0
	q := x * x / 4
	for k := 1; k < 500; k++ {
		term *= q / float64(k*k)
		sum += term
		if term < sum*1e-17 {
			break
		}
	}
	return sum
}
