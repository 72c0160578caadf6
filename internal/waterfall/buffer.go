// Package waterfall holds the scrolling spectrum history shown on screen,
// the per-row pre-processing applied before insertion and the annotations
// that scroll together with it.
package waterfall

import (
	"time"
)

// Buffer is a fixed-shape grid of intensity rows. Row 0 is the oldest (top
// of the screen) and the last row the newest. Each row carries the time it
// was written; rows never written have a zero time.
type Buffer struct {
	width  int
	height int
	rows   [][]float64
	stamps []time.Time
}

// NewBuffer allocates a zeroed width x height grid
func NewBuffer(width, height int) *Buffer {
	b := &Buffer{width: width, height: height}
	b.rows = make([][]float64, height)
	for i := range b.rows {
		b.rows[i] = make([]float64, width)
	}
	b.stamps = make([]time.Time, height)
	return b
}

// Width returns the number of columns
func (b *Buffer) Width() int { return b.width }

// Height returns the number of rows
func (b *Buffer) Height() int { return b.height }

// Row returns row i. The slice is owned by the buffer and must not be modified.
func (b *Buffer) Row(i int) []float64 { return b.rows[i] }

// Rows returns all rows, oldest first. The slices are owned by the buffer.
func (b *Buffer) Rows() [][]float64 { return b.rows }

// Timestamps returns the insertion time of every row, oldest first
func (b *Buffer) Timestamps() []time.Time { return b.stamps }

// Insert scrolls the grid up by shift rows and writes row into the freed
// bottom rows. shift <= 0 leaves the grid untouched; shift >= height
// overwrites every row. Rows of the wrong width are truncated or zero
// padded.
func (b *Buffer) Insert(row []float64, shift int, now time.Time) {
	if shift <= 0 || b.height == 0 {
		return
	}
	if shift > b.height {
		shift = b.height
	}

	// Recycle the scrolled-out slices as the new bottom rows.
	recycled := make([][]float64, shift)
	copy(recycled, b.rows[:shift])
	copy(b.rows, b.rows[shift:])
	copy(b.rows[b.height-shift:], recycled)
	copy(b.stamps, b.stamps[shift:])

	for i := b.height - shift; i < b.height; i++ {
		dst := b.rows[i]
		n := copy(dst, row)
		for j := n; j < len(dst); j++ {
			dst[j] = 0
		}
		b.stamps[i] = now
	}
}

// Clear zeroes the grid and its timestamps
func (b *Buffer) Clear() {
	for i := range b.rows {
		clear(b.rows[i])
		b.stamps[i] = time.Time{}
	}
}

// Snapshot returns a deep copy of the grid and timestamps
func (b *Buffer) Snapshot() ([][]float64, []time.Time) {
	rows := make([][]float64, b.height)
	for i, r := range b.rows {
		rows[i] = append([]float64(nil), r...)
	}
	stamps := append([]time.Time(nil), b.stamps...)
	return rows, stamps
}

// TimeRange returns the oldest and newest non-zero row timestamps. ok is
// false when nothing has been written since the last Clear.
func (b *Buffer) TimeRange() (start, end time.Time, ok bool) {
	for _, ts := range b.stamps {
		if ts.IsZero() {
			continue
		}
		if !ok || ts.Before(start) {
			start = ts
		}
		if !ok || ts.After(end) {
			end = ts
		}
		ok = true
	}
	return start, end, ok
}
