// Package bands holds the frequency band table used for band switching and
// band information lookups.
package bands

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownBand is returned when a band name or number does not resolve
var ErrUnknownBand = errors.New("unknown band")

// NearbyWindow is the distance within which a band edge counts as nearby
const NearbyWindow = 10e6

// Band describes a named frequency range. Mode, Spacing and Description are
// optional details.
type Band struct {
	Name        string  `yaml:"name"`
	Start       float64 `yaml:"start"` // Hz
	End         float64 `yaml:"end"`   // Hz
	Category    string  `yaml:"category,omitempty"`
	Mode        Mode    `yaml:"mode,omitempty"`
	Spacing     float64 `yaml:"spacing,omitempty"` // channel spacing in Hz
	Description string  `yaml:"description,omitempty"`
}

// Center returns the middle of the band
func (b Band) Center() float64 { return (b.Start + b.End) / 2 }

// Contains reports whether freq lies within the band, edges included
func (b Band) Contains(freq float64) bool { return b.Start <= freq && freq <= b.End }

// HasDetails reports whether any optional detail is set
func (b Band) HasDetails() bool {
	return b.Mode != ModeNone || b.Spacing > 0 || b.Description != ""
}

// Validate checks the band's invariants
func (b Band) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("band name is empty")
	}
	if b.Start < 0 || b.End < 0 {
		return fmt.Errorf("band %s: negative frequency", b.Name)
	}
	if b.Start > b.End {
		return fmt.Errorf("band %s: start %.0f Hz above end %.0f Hz", b.Name, b.Start, b.End)
	}
	if b.Spacing < 0 {
		return fmt.Errorf("band %s: negative spacing", b.Name)
	}
	return nil
}

// Table is an ordered, read-only set of bands
type Table struct {
	bands      []Band
	index      map[string]int // upper-case name -> position
	categories []string       // category display order
}

// NewTable builds a table from bands, validating each. Later entries with
// the same name replace earlier ones in place.
func NewTable(bands []Band) (*Table, error) {
	t := &Table{index: make(map[string]int)}
	for _, b := range bands {
		if err := t.put(b); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) put(b Band) error {
	if err := b.Validate(); err != nil {
		return err
	}
	key := strings.ToUpper(b.Name)
	if i, ok := t.index[key]; ok {
		if b.Category == "" {
			b.Category = t.bands[i].Category
		}
		t.bands[i] = b
	} else {
		t.index[key] = len(t.bands)
		t.bands = append(t.bands, b)
	}
	if b.Category != "" && !containsString(t.categories, b.Category) {
		t.categories = append(t.categories, b.Category)
	}
	return nil
}

// Merge validates and applies overrides. Nothing is applied if any band is
// invalid.
func (t *Table) Merge(overrides []Band) error {
	for _, b := range overrides {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	for _, b := range overrides {
		if err := t.put(b); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of bands
func (t *Table) Len() int { return len(t.bands) }

// All returns the bands in table order
func (t *Table) All() []Band { return append([]Band(nil), t.bands...) }

// Lookup finds a band by name, ignoring case
func (t *Table) Lookup(name string) (Band, error) {
	i, ok := t.index[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Band{}, fmt.Errorf("%w: %s", ErrUnknownBand, name)
	}
	return t.bands[i], nil
}

// Containing returns the first band, in table order, that contains freq
func (t *Table) Containing(freq float64) (Band, bool) {
	for _, b := range t.bands {
		if b.Contains(freq) {
			return b, true
		}
	}
	return Band{}, false
}

// Nearby returns bands other than exclude with an edge closer than window to freq
func (t *Table) Nearby(freq, window float64, exclude string) []Band {
	var out []Band
	for _, b := range t.bands {
		if strings.EqualFold(b.Name, exclude) {
			continue
		}
		if math.Abs(b.Start-freq) < window || math.Abs(b.End-freq) < window {
			out = append(out, b)
		}
	}
	return out
}

// Nearest returns the n bands whose centers are closest to freq
func (t *Table) Nearest(freq float64, n int) []Band {
	sorted := t.All()
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := math.Abs(sorted[i].Center()-freq), math.Abs(sorted[j].Center()-freq)
		if di != dj {
			return di < dj
		}
		return sorted[i].Name < sorted[j].Name
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Selection returns the numbered band list grouped by category. Each band
// appears once; uncategorised bands come last. Entry i is number i+1.
func (t *Table) Selection() []Band {
	var out []Band
	seen := make(map[string]bool)
	for _, cat := range t.categories {
		for _, b := range t.bands {
			if b.Category == cat && !seen[b.Name] {
				seen[b.Name] = true
				out = append(out, b)
			}
		}
	}
	for _, b := range t.bands {
		if !seen[b.Name] {
			out = append(out, b)
		}
	}
	return out
}

// Select resolves user input that is either a band name or a 1-based
// number in the Selection list.
func (t *Table) Select(input string) (Band, error) {
	input = strings.TrimSpace(input)
	if n, err := strconv.Atoi(input); err == nil {
		list := t.Selection()
		if n < 1 || n > len(list) {
			return Band{}, fmt.Errorf("%w: number %d (expected 1-%d)", ErrUnknownBand, n, len(list))
		}
		return list[n-1], nil
	}
	return t.Lookup(input)
}

// SelectionLines formats the numbered band list, one band per line
func (t *Table) SelectionLines() []string {
	list := t.Selection()
	lines := make([]string, len(list))
	for i, b := range list {
		lines[i] = fmt.Sprintf("%2d %-11s %8.3f-%8.3f", i+1, b.Name, b.Start/1e6, b.End/1e6)
	}
	return lines
}

// Info describes the band at freq: the containing band with its details and
// nearby bands, or the three nearest bands when no band contains freq.
func (t *Table) Info(freq float64) string {
	b, ok := t.Containing(freq)
	if !ok {
		parts := make([]string, 0, 3)
		for _, n := range t.Nearest(freq, 3) {
			parts = append(parts, shortRange(n))
		}
		return fmt.Sprintf("No band at %.3f MHz | Nearest: %s", freq/1e6, strings.Join(parts, ", "))
	}

	parts := []string{
		"Band: " + b.Name,
		fmt.Sprintf("Range: %.3f-%.3f MHz", b.Start/1e6, b.End/1e6),
	}
	if b.Mode != ModeNone {
		parts = append(parts, "Mode: "+b.Mode.String())
	}
	if b.Spacing > 0 {
		parts = append(parts, fmt.Sprintf("Spacing: %.1f kHz", b.Spacing/1e3))
	}
	if b.Description != "" {
		parts = append(parts, "Use: "+b.Description)
	}

	nearby := t.Nearby(freq, NearbyWindow, b.Name)
	if len(nearby) > 0 {
		names := make([]string, len(nearby))
		for i, n := range nearby {
			names[i] = shortRange(n)
		}
		parts = append(parts, "Nearby: "+strings.Join(names, ", "))
	}
	return strings.Join(parts, " | ")
}

func shortRange(b Band) string {
	return fmt.Sprintf("%s (%.1f-%.1fMHz)", b.Name, b.Start/1e6, b.End/1e6)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
