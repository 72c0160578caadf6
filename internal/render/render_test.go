package render

import (
	"encoding/binary"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"heatwave/internal/dsp"
	"heatwave/internal/waterfall"
)

func TestPaletteFormulas(t *testing.T) {
	cases := []struct {
		p    Palette
		v    float64
		want color.RGBA
	}{
		{PaletteDefault, 0, color.RGBA{0, 0, 0, 255}},
		{PaletteDefault, 100, color.RGBA{45, 0, 255, 255}},
		{PaletteDefault, 200, color.RGBA{255, 90, 255, 255}},
		{PaletteHot, 50, color.RGBA{150, 0, 0, 255}},
		{PaletteHot, 180, color.RGBA{255, 255, 30, 255}},
		{PaletteViridis, 100, color.RGBA{0, 200, 200, 255}},
		{PaletteViridis, 200, color.RGBA{90, 255, 109, 255}},
		{PalettePlasma, 127, color.RGBA{126, 0, 255, 255}},
		{PaletteMagma, 150, color.RGBA{255, 46, 209, 255}},
		{PaletteGray, 77.9, color.RGBA{77, 77, 77, 255}},
	}
	for _, c := range cases {
		if got := c.p.Color(c.v); got != c.want {
			t.Errorf("%s(%.1f) = %v, expected %v", c.p, c.v, got, c.want)
		}
	}
}

func TestPalettesAreDeterministic(t *testing.T) {
	for _, p := range Palettes() {
		for v := 0; v <= 255; v++ {
			a, b := p.Color(float64(v)), p.Color(float64(v))
			if a != b || a.A != 255 {
				t.Fatalf("%s not deterministic at %d: %v vs %v", p, v, a, b)
			}
		}
		// Out of range intensities are clamped
		if p.Color(-20) != p.Color(0) || p.Color(400) != p.Color(255) {
			t.Errorf("%s does not clamp its input", p)
		}
	}
}

func TestPaletteCycle(t *testing.T) {
	p := PaletteDefault
	seen := map[Palette]bool{}
	for i := 0; i < len(Palettes()); i++ {
		seen[p] = true
		p = p.Next()
	}
	if p != PaletteDefault || len(seen) != 6 {
		t.Fatalf("Cycle did not visit all palettes and wrap: ended at %s, saw %d", p, len(seen))
	}

	if got, err := ParsePalette("viridis"); err != nil || got != PaletteViridis {
		t.Errorf("ParsePalette(viridis) = %v, %v", got, err)
	}
	if got, err := ParsePalette("5"); err != nil || got != PaletteGray {
		t.Errorf("ParsePalette(5) = %v, %v", got, err)
	}
	if _, err := ParsePalette("rainbow"); err == nil {
		t.Errorf("Expected error for unknown palette")
	}
}

func TestPackBGRA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{10, 20, 30, 0})
	img.SetRGBA(1, 0, color.RGBA{40, 50, 60, 255})

	dst := make([]byte, 8)
	if n := Pack(dst, img, FormatBGRA32); n != 8 {
		t.Fatalf("Expected 8 bytes, got %d", n)
	}
	want := []byte{30, 20, 10, 255, 60, 50, 40, 255}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("Byte %d = %d, expected %d (%v)", i, dst[i], want[i], dst)
		}
	}
}

func TestPackRGB565Truncates(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 0, 255, 255})
		}
	}

	dst := make([]byte, 7) // room for three full pixels only
	if n := Pack(dst, img, FormatRGB565); n != 6 {
		t.Fatalf("Expected 6 bytes written, got %d", n)
	}
	if v := binary.LittleEndian.Uint16(dst); v != 0xF81F {
		t.Fatalf("Magenta packed as %#04x, expected 0xf81f", v)
	}
	if dst[6] != 0 {
		t.Fatalf("Partial pixel must not be written")
	}
	if RGB565(0, 255, 0) != 0x07E0 {
		t.Errorf("Green packed as %#04x", RGB565(0, 255, 0))
	}
}

func TestFormatForDepth(t *testing.T) {
	if f, err := FormatForDepth(4); err != nil || f != FormatBGRA32 {
		t.Errorf("Depth 4 -> %v, %v", f, err)
	}
	if f, err := FormatForDepth(2); err != nil || f != FormatRGB565 {
		t.Errorf("Depth 2 -> %v, %v", f, err)
	}
	if _, err := FormatForDepth(3); err == nil {
		t.Errorf("Expected error for 24-bit depth")
	}
}

func testScene() *Scene {
	s := &Scene{
		Width: 200, Height: 120,
		TopMargin: 30, BottomMargin: 30,
		Palette:   PaletteGray,
		ViewStart: 100e6, Span: 2e6,
		Cursor:    101e6,
		Now:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	s.Grid = make([][]float64, s.GraphHeight())
	for i := range s.Grid {
		s.Grid[i] = make([]float64, s.GraphWidth())
		for j := range s.Grid[i] {
			s.Grid[i][j] = 40
		}
	}
	return s
}

func TestComposeHeatmapAndCursor(t *testing.T) {
	s := testScene()
	img := Compose(s)

	if img.Rect.Dx() != 200 || img.Rect.Dy() != 120 {
		t.Fatalf("Unexpected frame size %v", img.Rect)
	}
	// Heatmap pixel away from overlays
	if c := img.RGBAAt(50, 80); c != (color.RGBA{40, 40, 40, 255}) {
		t.Errorf("Heatmap pixel = %v, expected gray 40", c)
	}
	// Cursor at the middle column with dim neighbours
	if c := img.RGBAAt(100, 80); c != green {
		t.Errorf("Cursor pixel = %v, expected green", c)
	}
	if c := img.RGBAAt(99, 80); c != dim {
		t.Errorf("Cursor neighbour = %v, expected dim green", c)
	}
	// Margins are black outside the boxes
	if c := img.RGBAAt(100, 118); c != black {
		t.Errorf("Bottom margin pixel = %v, expected black", c)
	}
}

func TestComposeOverlays(t *testing.T) {
	s := testScene()
	s.Signals = []dsp.Signal{{Frequency: 100.5e6, SNR: 12}}
	s.Annotations = []waterfall.Placed{{
		Annotation: waterfall.Annotation{Text: "x", Frequency: 100e6, Time: s.Now},
		Y:          70,
	}}
	s.Message = "hello"
	img := Compose(s)

	// Detected signal line at 25% of the width
	if c := img.RGBAAt(50, 85); c != yellow {
		t.Errorf("Signal marker pixel = %v, expected yellow", c)
	}
	// Dashed annotation line: on for 4 pixels, off for 4
	if c := img.RGBAAt(190, 70); c == yellow {
		t.Errorf("Annotation dash gap drawn at x=190")
	}
	if c := img.RGBAAt(193, 70); c != yellow {
		t.Errorf("Annotation dash missing at x=193, got %v", c)
	}
}

func TestStatusLines(t *testing.T) {
	lines := StatusLines(Status{
		Paused: true, Gain: 20, SampleRate: 2.4e6, Palette: PaletteMagma,
		ScrollSpeed: 1, PPM: -3, AGC: true,
	})
	want := map[int]string{
		0: "[||] PAUSED",
		1: "FIXED SCALE",
		2: "g:Gain: 20.0 dB",
		3: "r:Rate: 2.4MHz",
		6: "a:AGC: ON",
		7: "t:Magma",
		8: "w:Wtr.Spd: 1.0x",
		9: "p:PPM: -3",
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("Status line %d = %q, expected %q", i, lines[i], w)
		}
	}
	if lines[len(lines)-1] != "H:Help" {
		t.Errorf("Last status line should be the help hint")
	}
}

func TestInfoLines(t *testing.T) {
	lines := InfoLines(Info{
		Cursor: 145.5e6, Signal: 12.34, Now: time.Date(2025, 1, 1, 9, 5, 7, 0, time.UTC),
		Start: 144e6, End: 146e6, ScanMillis: 42,
	})
	got := strings.Join(lines, "|")
	want := "Frequency: 145.500 MHz|Signal: 12.3 dB|Time: 09:05:07|Range: 144.000-146.000 MHz|Scan: 42ms avg"
	if got != want {
		t.Fatalf("Info lines\n got: %s\nwant: %s", got, want)
	}
}

func TestAnnotationLabel(t *testing.T) {
	a := waterfall.Annotation{Text: "NOAA pass", Frequency: 137.1e6, Time: time.Date(2025, 1, 1, 13, 2, 3, 0, time.UTC)}
	if got := AnnotationLabel(a); got != "NOAA pass (137.100MHz | 13:02:03)" {
		t.Fatalf("Unexpected label %q", got)
	}
}

func TestSavePNG(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "render_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	path := filepath.Join(tempDir, "nested", "frame.png")
	if err := SavePNG(path, Compose(testScene())); err != nil {
		t.Fatalf("Failed to save PNG: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Fatalf("PNG file missing or empty: %v", err)
	}
}
