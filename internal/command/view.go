package command

import (
	"errors"
	"math"
)

// View limits
const (
	MinSpan           = 0.5e6  // narrowest zoom in Hz
	FineStep          = 1e3    // cursor fine step in Hz
	DefaultCursorStep = 0.1e6  // cursor step in Hz
	MinStartFreq      = 24e6   // lowest accepted start frequency
	MaxEndFreq        = 1766e6 // highest accepted end frequency
	MarkerSlots       = 5
)

// ErrZoomLimit is returned when zooming would leave the outer bounds
var ErrZoomLimit = errors.New("cannot zoom further: would exceed frequency bounds")

// View is the frequency geometry of the display: the outer bounds, the
// visible window inside them and the cursor.
type View struct {
	Start     float64 // outer lower bound in Hz
	End       float64 // outer upper bound in Hz
	ViewStart float64 // left edge of the visible window
	Span      float64 // width of the visible window
	Cursor    float64
}

// NewView shows the whole of [start, end] with the cursor at its center
func NewView(start, end float64) View {
	return View{
		Start:     start,
		End:       end,
		ViewStart: start,
		Span:      end - start,
		Cursor:    start + (end-start)/2,
	}
}

// ViewEnd is the right edge of the visible window
func (v View) ViewEnd() float64 { return v.ViewStart + v.Span }

// Center is the middle of the visible window, where the tuner is centered
func (v View) Center() float64 { return v.ViewStart + v.Span/2 }

// Bandwidth is the width of the outer bounds
func (v View) Bandwidth() float64 { return v.End - v.Start }

// MoveCursor shifts the cursor by delta, clamped to the visible window
func (v View) MoveCursor(delta float64) View {
	v.Cursor = clamp(v.Cursor+delta, v.ViewStart, v.ViewEnd())
	return v
}

// CursorRatio is the cursor position across the visible window in [0, 1]
func (v View) CursorRatio() float64 {
	if v.Span <= 0 {
		return 0
	}
	return (v.Cursor - v.ViewStart) / v.Span
}

// ZoomIn halves the span, no narrower than MinSpan, keeping the cursor at
// the same relative position. It fails when the result would leave the
// outer bounds.
func (v View) ZoomIn() (View, error) {
	newSpan := math.Max(MinSpan, v.Span*0.5)
	ratio := v.CursorRatio()
	newStart := v.ViewStart + (v.Span-newSpan)*ratio
	if newStart < v.Start || newStart+newSpan > v.End {
		return v, ErrZoomLimit
	}
	v.ViewStart = newStart
	v.Span = newSpan
	return v, nil
}

// ZoomOut doubles the span, no wider than the outer bounds, keeping the
// cursor at the same relative position where possible. The window is
// shifted back inside the outer bounds when it would leave them.
func (v View) ZoomOut() View {
	newSpan := math.Min(v.Bandwidth(), v.Span*2)
	ratio := v.CursorRatio()
	newStart := v.ViewStart - (newSpan-v.Span)*ratio
	v.ViewStart = clamp(newStart, v.Start, v.End-newSpan)
	v.Span = newSpan
	v.Cursor = clamp(v.Cursor, v.ViewStart, v.ViewEnd())
	return v
}

// WithBounds replaces the outer bounds and shows all of them. The cursor is
// kept when it still lies inside, otherwise it moves to the center.
func (v View) WithBounds(start, end float64) View {
	cursor := v.Cursor
	nv := NewView(start, end)
	if cursor >= start && cursor <= end {
		nv.Cursor = cursor
	}
	return nv
}

// MoveTo places the cursor at freq. When freq lies outside the visible
// window the window is recentered on it, kept inside the outer bounds, and
// moved reports true.
func (v View) MoveTo(freq float64) (nv View, moved bool) {
	v.Cursor = clamp(freq, v.Start, v.End)
	if v.Cursor >= v.ViewStart && v.Cursor <= v.ViewEnd() {
		return v, false
	}
	v.ViewStart = clamp(v.Cursor-v.Span/2, v.Start, v.End-v.Span)
	return v, true
}

// StepSpeed adjusts the waterfall speed within [MinSpeed, MaxSpeed]
func StepSpeed(speed, delta float64) float64 {
	return clamp(speed+delta, MinSpeed, MaxSpeed)
}

// StepGain adjusts the tuner gain within [MinGain, MaxGain]
func StepGain(gain, delta float64) float64 {
	return clamp(gain+delta, MinGain, MaxGain)
}

// StepPPM adjusts the frequency correction within [MinPPM, MaxPPM]
func StepPPM(ppm, delta int) int {
	ppm += delta
	if ppm < MinPPM {
		return MinPPM
	}
	if ppm > MaxPPM {
		return MaxPPM
	}
	return ppm
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
