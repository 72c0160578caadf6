package waterfall

import (
	"math"
	"testing"
	"time"
)

func filledRow(width int, v float64) []float64 {
	row := make([]float64, width)
	for i := range row {
		row[i] = v
	}
	return row
}

func TestInsertScrollsUp(t *testing.T) {
	b := NewBuffer(4, 6)
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		b.Insert(filledRow(4, float64(i+1)), 1, base.Add(time.Duration(i)*time.Second))
	}

	old, _ := b.Snapshot()
	b.Insert(filledRow(4, 99), 2, base.Add(time.Minute))

	if b.Height() != 6 || b.Width() != 4 {
		t.Fatalf("Buffer shape changed to %dx%d", b.Width(), b.Height())
	}
	for i := 0; i < 4; i++ {
		if b.Row(i)[0] != old[i+2][0] {
			t.Errorf("Row %d expected old row %d value %f, got %f", i, i+2, old[i+2][0], b.Row(i)[0])
		}
	}
	for i := 4; i < 6; i++ {
		for j, v := range b.Row(i) {
			if v != 99 {
				t.Fatalf("Row %d column %d expected new value 99, got %f", i, j, v)
			}
		}
	}
	if !b.Timestamps()[5].Equal(base.Add(time.Minute)) {
		t.Errorf("Newest row timestamp not recorded")
	}
}

func TestInsertEdgeShifts(t *testing.T) {
	b := NewBuffer(3, 4)
	now := time.Now()

	b.Insert(filledRow(3, 7), 0, now)
	b.Insert(filledRow(3, 7), -3, now)
	if _, _, ok := b.TimeRange(); ok {
		t.Fatalf("Non-positive shift must not modify the buffer")
	}

	b.Insert(filledRow(3, 5), 10, now)
	for i := 0; i < 4; i++ {
		if b.Row(i)[2] != 5 {
			t.Fatalf("Shift beyond height should overwrite row %d", i)
		}
	}

	// Short rows are zero padded
	b.Insert([]float64{1}, 1, now)
	if got := b.Row(3); got[0] != 1 || got[1] != 0 || got[2] != 0 {
		t.Fatalf("Expected zero padded row, got %v", got)
	}
}

func TestClear(t *testing.T) {
	b := NewBuffer(2, 2)
	b.Insert(filledRow(2, 3), 2, time.Now())
	b.Clear()
	for i := 0; i < 2; i++ {
		if b.Row(i)[0] != 0 || b.Row(i)[1] != 0 || !b.Timestamps()[i].IsZero() {
			t.Fatalf("Row %d not cleared", i)
		}
	}
}

func TestTimeRange(t *testing.T) {
	b := NewBuffer(1, 5)
	t0 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	b.Insert([]float64{1}, 1, t0)
	b.Insert([]float64{1}, 1, t0.Add(30*time.Second))

	start, end, ok := b.TimeRange()
	if !ok || !start.Equal(t0) || !end.Equal(t0.Add(30*time.Second)) {
		t.Fatalf("Unexpected time range %v - %v (ok=%v)", start, end, ok)
	}
}

func TestPreprocessorAveraging(t *testing.T) {
	p := NewPreprocessor(2)
	p.Averaging = true

	p.Apply([]float64{0, 10})
	out := p.Apply([]float64{10, 20})
	if out[0] != 5 || out[1] != 15 {
		t.Fatalf("Expected mean of last two rows, got %v", out)
	}
	out = p.Apply([]float64{20, 30})
	if out[0] != 15 || out[1] != 25 {
		t.Fatalf("Expected ring to drop the oldest row, got %v", out)
	}
}

func TestPreprocessorPeakHold(t *testing.T) {
	p := NewPreprocessor(5)
	p.PeakHold = true

	p.Apply([]float64{100, 0})
	out := p.Apply([]float64{0, 50})
	if math.Abs(out[0]-99) > 1e-9 || out[1] != 50 {
		t.Fatalf("Expected decayed peak 99 and new value 50, got %v", out)
	}

	p.Reset()
	out = p.Apply([]float64{1, 2})
	if out[0] != 1 || out[1] != 2 {
		t.Fatalf("Expected reset peaks, got %v", out)
	}
}

func TestAnnotationScrollAndRemoval(t *testing.T) {
	const height, top, bottom = 100, 30, 30
	a := NewAnnotations(height, top, bottom)
	ann := a.Add("beacon", 144.8e6, -42, time.Now())

	y, ok := a.Position(ann.ID)
	if !ok || y != height-bottom {
		t.Fatalf("Expected annotation seeded at %d, got %d", height-bottom, y)
	}
	if len(a.Visible()) != 0 {
		t.Fatalf("Annotation at the bottom edge must not be drawn")
	}

	a.Scroll(1)
	vis := a.Visible()
	if len(vis) != 1 || vis[0].Y != height-bottom-1 {
		t.Fatalf("Expected one visible annotation at %d, got %+v", height-bottom-1, vis)
	}

	// 69 -> 31 keeps it; the next step reaches the top margin
	if removed := a.Scroll(38); len(removed) != 0 {
		t.Fatalf("Annotation removed too early")
	}
	if y, _ := a.Position(ann.ID); y != top+1 {
		t.Fatalf("Expected position %d, got %d", top+1, y)
	}
	removed := a.Scroll(1)
	if len(removed) != 1 || removed[0].ID != ann.ID {
		t.Fatalf("Expected annotation to be removed at the top margin")
	}
	if _, ok := a.Position(ann.ID); ok || a.Len() != 0 {
		t.Fatalf("Removed annotation still tracked")
	}
}

func TestTimePositionMatchesSeed(t *testing.T) {
	const height, top, bottom = 480, 30, 30
	graph := height - top - bottom
	a := NewAnnotations(height, top, bottom)

	if got := TimePosition(0, graph, top, 1); got != a.Seed() {
		t.Fatalf("Time position at dt=0 is %d, seed is %d", got, a.Seed())
	}
	// Half of the full-screen duration moves half a graph height at 1x
	if got := TimePosition(FullScreenDuration/2, graph, top, 1); got != graph/2+top {
		t.Fatalf("Expected %d, got %d", graph/2+top, got)
	}
}

func TestTimedPlacesByAge(t *testing.T) {
	const height, top, bottom = 480, 30, 30
	graph := height - top - bottom
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	a := NewAnnotations(height, top, bottom)
	old := a.Add("old", 100e6, -40, start)
	recent := a.Add("recent", 101e6, -35, start.Add(4*time.Minute))
	a.Add("now", 102e6, -30, start.Add(5*time.Minute))

	now := start.Add(5 * time.Minute)
	placed := a.Timed(now, 1)
	if len(placed) != 2 {
		t.Fatalf("Expected 2 annotations inside the graph, got %d", len(placed))
	}
	if placed[0].ID != old.ID || placed[0].Y != TimePosition(5*time.Minute, graph, top, 1) {
		t.Errorf("Unexpected placement %+v", placed[0])
	}
	if placed[1].ID != recent.ID || placed[1].Y != TimePosition(time.Minute, graph, top, 1) {
		t.Errorf("Unexpected placement %+v", placed[1])
	}

	// Ten minutes at 1x scrolls a full graph height, past the top margin
	if got := a.Timed(start.Add(11*time.Minute), 1); len(got) != 2 || got[0].ID != recent.ID {
		t.Errorf("Expected the oldest annotation to scroll out, got %+v", got)
	}
}
