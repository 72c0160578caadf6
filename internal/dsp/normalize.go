package dsp

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Normalizer defaults
const (
	DefaultNoiseAlpha  = 0.1 // noise floor smoothing factor
	DefaultCompression = 0.7 // power-law exponent above the floor
	DefaultRingLength  = 100 // rows kept for floor-compressed averaging

	// Auto-scale clip percentiles
	LowPercentile  = 0.05
	HighPercentile = 0.995

	// FixedScaleGain multiplies the distance from the row minimum in fixed scale mode
	FixedScaleGain = 3.0

	// MaxIntensity is the top of the display intensity range
	MaxIntensity = 255.0
)

// Normalizer tracks the noise floor across frames and compresses rows
// relative to it. It is not safe for concurrent use.
type Normalizer struct {
	Alpha    float64 // floor smoothing factor
	Exponent float64 // compression exponent

	floor       float64
	initialized bool

	ring    [][]float64
	ringCap int
}

// NewNormalizer creates a normalizer. ringCap bounds the averaging ring used
// when compression is run with averaging enabled.
func NewNormalizer(alpha, exponent float64, ringCap int) *Normalizer {
	if ringCap <= 0 {
		ringCap = DefaultRingLength
	}
	return &Normalizer{Alpha: alpha, Exponent: exponent, ringCap: ringCap}
}

// NoiseFloor returns the current floor estimate (zero before the first row)
func (n *Normalizer) NoiseFloor() float64 { return n.floor }

// Reset drops the averaging ring. The floor estimate is kept.
func (n *Normalizer) Reset() {
	n.ring = nil
}

// Compress updates the floor from the row median, subtracts it, clips at
// zero and raises the result to the compression exponent. With averaging
// the compressed row is pushed into the ring and the ring mean returned.
func (n *Normalizer) Compress(row []float64, averaging bool) []float64 {
	if len(row) == 0 {
		return nil
	}
	med := Median(row)
	if !n.initialized {
		n.floor = med
		n.initialized = true
	}
	n.floor = (1-n.Alpha)*n.floor + n.Alpha*med

	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = math.Pow(math.Max(v-n.floor, 0), n.Exponent)
	}

	if !averaging {
		return out
	}
	if len(n.ring) > 0 && len(n.ring[0]) != len(out) {
		n.ring = nil
	}
	n.ring = append(n.ring, out)
	if len(n.ring) > n.ringCap {
		n.ring = n.ring[1:]
	}
	return MeanRows(n.ring)
}

// Median returns the median of x without modifying it
func Median(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	m := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[m]
	}
	return (sorted[m-1] + sorted[m]) / 2
}

// Percentile returns the p-quantile (0..1) of x with linear interpolation
// between closest ranks.
func Percentile(x []float64, p float64) float64 {
	if len(x) == 0 {
		return 0
	}
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	return quantileSorted(sorted, p)
}

func quantileSorted(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// MedianFilter3 applies a 3-tap median filter with zero padding at the edges
func MedianFilter3(row []float64) []float64 {
	out := make([]float64, len(row))
	for i := range row {
		var left, right float64
		if i > 0 {
			left = row[i-1]
		}
		if i < len(row)-1 {
			right = row[i+1]
		}
		out[i] = median3(left, row[i], right)
	}
	return out
}

func median3(a, b, c float64) float64 {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b = c
	}
	if a > b {
		return a
	}
	return b
}

// MeanRows returns the element-wise mean of equally sized rows
func MeanRows(rows [][]float64) []float64 {
	if len(rows) == 0 {
		return nil
	}
	mean := make([]float64, len(rows[0]))
	for _, r := range rows {
		floats.Add(mean, r)
	}
	floats.Scale(1/float64(len(rows)), mean)
	return mean
}

// ScaleAuto clips the row to its 5th and 99.5th percentiles and maps that
// span linearly onto [0, 255]. A flat row maps to zero.
func ScaleAuto(row []float64) []float64 {
	out := make([]float64, len(row))
	if len(row) == 0 {
		return out
	}
	lo := Percentile(row, LowPercentile)
	hi := Percentile(row, HighPercentile)
	if hi <= lo {
		return out
	}
	span := hi - lo
	for i, v := range row {
		v = math.Min(math.Max(v, lo), hi)
		out[i] = (v - lo) / span * MaxIntensity
	}
	return out
}

// ScaleFixed maps the distance from the row minimum, times FixedScaleGain,
// onto [0, 255].
func ScaleFixed(row []float64) []float64 {
	out := make([]float64, len(row))
	if len(row) == 0 {
		return out
	}
	lo := floats.Min(row)
	for i, v := range row {
		out[i] = math.Min(math.Max((v-lo)*FixedScaleGain, 0), MaxIntensity)
	}
	return out
}

// Stats summarises a row for logs and metrics
type Stats struct {
	Min, Max, Mean, StdDev float64
}

// RowStats computes min, max, mean and standard deviation of a row
func RowStats(row []float64) Stats {
	if len(row) == 0 {
		return Stats{}
	}
	mean, std := stat.MeanStdDev(row, nil)
	if len(row) == 1 {
		std = 0
	}
	return Stats{Min: floats.Min(row), Max: floats.Max(row), Mean: mean, StdDev: std}
}
