package waterfall

import (
	"math"

	"heatwave/internal/dsp"
)

// Pre-processing defaults
const (
	DefaultAveragingLength = 5
	PeakDecay              = 0.99
)

// Preprocessor applies display averaging and peak hold to rows before they
// are scaled and inserted. Its state is separate from the buffer grid.
type Preprocessor struct {
	Averaging bool
	PeakHold  bool

	length int
	ring   [][]float64
	peak   []float64
}

// NewPreprocessor creates a preprocessor averaging over length rows
func NewPreprocessor(length int) *Preprocessor {
	if length <= 0 {
		length = DefaultAveragingLength
	}
	return &Preprocessor{length: length}
}

// Apply returns the averaged and/or peak-held version of row
func (p *Preprocessor) Apply(row []float64) []float64 {
	out := append([]float64(nil), row...)

	if p.Averaging {
		if len(p.ring) > 0 && len(p.ring[0]) != len(out) {
			p.ring = nil
		}
		p.ring = append(p.ring, out)
		if len(p.ring) > p.length {
			p.ring = p.ring[1:]
		}
		out = dsp.MeanRows(p.ring)
	}

	if p.PeakHold {
		if len(p.peak) != len(out) {
			p.peak = make([]float64, len(out))
		}
		for i, v := range out {
			p.peak[i] = math.Max(p.peak[i]*PeakDecay, v)
		}
		out = append(out[:0:0], p.peak...)
	}

	return out
}

// Reset drops the averaging ring and the held peaks
func (p *Preprocessor) Reset() {
	p.ring = nil
	p.peak = nil
}
