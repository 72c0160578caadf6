// Package render turns the waterfall grid and the session's overlay state
// into a full-screen RGB frame and packs frames into framebuffer pixel
// formats.
package render

import (
	"fmt"
	"image/color"
	"math"
	"strings"
)

// Palette selects the intensity to color mapping
type Palette int

// Available palettes, in the order the cycle command steps through them
const (
	PaletteDefault Palette = iota
	PaletteHot
	PaletteViridis
	PalettePlasma
	PaletteMagma
	PaletteGray

	paletteCount
)

var paletteNames = [...]string{"Default", "Hot", "Viridis", "Plasma", "Magma", "Gray"}

// String returns the palette's display name
func (p Palette) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Palette(%d)", int(p))
	}
	return paletteNames[p]
}

// Valid reports whether p names a known palette
func (p Palette) Valid() bool {
	return p >= 0 && p < paletteCount
}

// Next returns the palette after p, wrapping around
func (p Palette) Next() Palette {
	return (p + 1) % paletteCount
}

// Palettes returns every palette in cycle order
func Palettes() []Palette {
	out := make([]Palette, paletteCount)
	for i := range out {
		out[i] = Palette(i)
	}
	return out
}

// ParsePalette accepts a palette name (case insensitive) or its index
func ParsePalette(s string) (Palette, error) {
	for i, name := range paletteNames {
		if strings.EqualFold(s, name) || s == fmt.Sprint(i) {
			return Palette(i), nil
		}
	}
	return 0, fmt.Errorf("unknown palette %q (expected one of %s)", s, strings.Join(paletteNames[:], ", "))
}

// Color maps an intensity in [0, 255] to RGB. Out of range intensities are
// clamped first; channel values are truncated to integers.
func (p Palette) Color(v float64) color.RGBA {
	if math.IsNaN(v) {
		v = 0
	}
	v = math.Min(math.Max(v, 0), 255)

	var r, g, b float64
	switch p {
	case PaletteHot:
		r = 3 * v
		g = above(v, 85, 3)
		b = above(v, 170, 3)
	case PaletteViridis:
		r = above(v, 170, 3)
		g = 2 * v
		b = fallingBlue(v)
	case PalettePlasma:
		r = above(v, 85, 3)
		g = above(v, 170, 3)
		b = fallingBlue(v)
	case PaletteMagma:
		r = 2 * v
		g = above(v, 127, 2)
		b = fallingBlue(v)
	case PaletteGray:
		r, g, b = v, v, v
	default:
		if v >= 85 {
			r = (v - 85) * 3
		}
		if v >= 170 {
			g = (v - 170) * 3
		}
		b = 3 * v
	}
	return color.RGBA{R: channel(r), G: channel(g), B: channel(b), A: 255}
}

// above ramps from zero once v exceeds knee
func above(v, knee, slope float64) float64 {
	if v > knee {
		return (v - knee) * slope
	}
	return 0
}

// fallingBlue rises to the middle of the range and falls back after it
func fallingBlue(v float64) float64 {
	if v < 127 {
		return 2 * v
	}
	return 255 - (v-127)*2
}

func channel(x float64) uint8 {
	return uint8(math.Min(math.Max(x, 0), 255))
}
