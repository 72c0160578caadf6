package waterfall

import (
	"time"

	"github.com/google/uuid"
)

// FullScreenDuration is how much history one screen height represents at 1x speed
const FullScreenDuration = 600 * time.Second

// Annotation is a user note pinned to a frequency and a moment in time
type Annotation struct {
	ID             string    `json:"-"`
	Time           time.Time `json:"time"`
	Text           string    `json:"text"`
	Frequency      float64   `json:"frequency"`       // Hz
	SignalStrength float64   `json:"signal_strength"` // dB
}

// Placed is an annotation with its current screen row
type Placed struct {
	Annotation
	Y int
}

// Annotations tracks live annotations and their vertical screen positions.
// Positions move up with every buffer scroll and an annotation is dropped
// once it reaches the top margin.
type Annotations struct {
	height       int // full screen height
	topMargin    int
	bottomMargin int

	items     []Annotation
	positions map[string]int
}

// NewAnnotations creates an empty set for a screen of the given height
func NewAnnotations(height, topMargin, bottomMargin int) *Annotations {
	return &Annotations{
		height:       height,
		topMargin:    topMargin,
		bottomMargin: bottomMargin,
		positions:    make(map[string]int),
	}
}

// Seed is the starting row of new annotations, the bottom edge of the graph
func (a *Annotations) Seed() int {
	return a.height - a.bottomMargin
}

// Add records a new annotation seeded at the bottom of the graph
func (a *Annotations) Add(text string, frequency, strength float64, now time.Time) Annotation {
	ann := Annotation{
		ID:             uuid.New().String(),
		Time:           now,
		Text:           text,
		Frequency:      frequency,
		SignalStrength: strength,
	}
	a.items = append(a.items, ann)
	a.positions[ann.ID] = a.Seed()
	return ann
}

// Scroll moves every annotation up by shift rows. Annotations that have no
// position yet are seeded instead of moved. Annotations reaching the top
// margin are removed and returned.
func (a *Annotations) Scroll(shift int) []Annotation {
	if shift <= 0 {
		return nil
	}
	var removed []Annotation
	kept := a.items[:0]
	for _, ann := range a.items {
		y, ok := a.positions[ann.ID]
		if !ok {
			a.positions[ann.ID] = a.Seed()
			kept = append(kept, ann)
			continue
		}
		y -= shift
		if y <= a.topMargin {
			delete(a.positions, ann.ID)
			removed = append(removed, ann)
			continue
		}
		a.positions[ann.ID] = y
		kept = append(kept, ann)
	}
	a.items = kept
	return removed
}

// Position returns the current row of an annotation
func (a *Annotations) Position(id string) (int, bool) {
	y, ok := a.positions[id]
	return y, ok
}

// Visible returns annotations whose row lies inside the graph area
func (a *Annotations) Visible() []Placed {
	var out []Placed
	for _, ann := range a.items {
		y, ok := a.positions[ann.ID]
		if !ok || y < a.topMargin || y >= a.height-a.bottomMargin {
			continue
		}
		out = append(out, Placed{Annotation: ann, Y: y})
	}
	return out
}

// Timed places the live annotations by age rather than by scroll position,
// for frames composed outside the display loop. Rows outside the graph area
// are left out, as in Visible.
func (a *Annotations) Timed(now time.Time, speed float64) []Placed {
	graphHeight := a.height - a.topMargin - a.bottomMargin
	var out []Placed
	for _, ann := range a.items {
		y := TimePosition(now.Sub(ann.Time), graphHeight, a.topMargin, speed)
		if y < a.topMargin || y >= a.height-a.bottomMargin {
			continue
		}
		out = append(out, Placed{Annotation: ann, Y: y})
	}
	return out
}

// All returns a copy of the live annotations in insertion order
func (a *Annotations) All() []Annotation {
	return append([]Annotation(nil), a.items...)
}

// Len returns the number of live annotations
func (a *Annotations) Len() int { return len(a.items) }

// TimePosition estimates the screen row of an event dt ago from the scroll
// rate: one graph height spans FullScreenDuration at speed 1. At dt = 0 the
// result equals the annotation seed row.
func TimePosition(dt time.Duration, graphHeight, topMargin int, speed float64) int {
	scrolled := dt.Seconds() * float64(graphHeight) * speed / FullScreenDuration.Seconds()
	return graphHeight - int(scrolled) + topMargin
}
