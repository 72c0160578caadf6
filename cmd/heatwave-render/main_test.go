package main

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"heatwave/internal/render"
	"heatwave/internal/snapshot"
)

func writeSnapshot(t *testing.T, path string, width, height int) *snapshot.Snapshot {
	t.Helper()
	capture := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := &snapshot.Snapshot{
		Metadata: snapshot.Metadata{
			Width:       width,
			Height:      height,
			SampleRate:  2.4e6,
			StartFreq:   144e6,
			EndFreq:     146e6,
			CaptureTime: capture,
		},
	}
	for r := 0; r < height; r++ {
		row := make([]float64, width)
		for c := range row {
			row[c] = float64(c * 255 / width)
		}
		s.Rows = append(s.Rows, row)
		s.Timestamps = append(s.Timestamps, capture.Add(time.Duration(r-height)*time.Second))
	}
	if err := snapshot.Write(path, s); err != nil {
		t.Fatalf("Failed to write snapshot: %v", err)
	}
	return s
}

func TestRenderSnapshotPlain(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "render_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	s := writeSnapshot(t, filepath.Join(tempDir, "a.hws"), 16, 8)
	img := renderSnapshot(s, render.PaletteGray, false)
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 8 {
		t.Fatalf("Unexpected size %v", img.Bounds())
	}
	for _, x := range []int{0, 7, 15} {
		want := render.PaletteGray.Color(s.Rows[3][x])
		if got := img.RGBAAt(x, 3); got != want {
			t.Errorf("Pixel %d = %v, want %v", x, got, want)
		}
	}

	withAxes := renderSnapshot(s, render.PaletteGray, true)
	if withAxes.Bounds().Dy() != 8+axisMargin {
		t.Errorf("Axis band missing: %v", withAxes.Bounds())
	}
}

func TestUpscale(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "render_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	s := writeSnapshot(t, filepath.Join(tempDir, "a.hws"), 16, 8)
	img := renderSnapshot(s, render.PaletteHot, false)
	big := upscale(img, 3, false)
	if big.Bounds().Dx() != 48 || big.Bounds().Dy() != 24 {
		t.Fatalf("Unexpected size %v", big.Bounds())
	}
	if big.RGBAAt(31, 13) != img.RGBAAt(10, 4) {
		t.Errorf("Nearest neighbour scaling changed pixel values")
	}
	if upscale(img, 1, true) != img {
		t.Error("Scale 1 should return the input")
	}
}

func TestRunRender(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "render_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	writeSnapshot(t, filepath.Join(tempDir, "one.hws"), 32, 12)
	writeSnapshot(t, filepath.Join(tempDir, "two.hws"), 32, 12)
	if err := os.WriteFile(filepath.Join(tempDir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	oldPalette, oldOut, oldScale, oldPlain := paletteName, outputDir, scale, plain
	defer func() { paletteName, outputDir, scale, plain = oldPalette, oldOut, oldScale, oldPlain }()

	paletteName, outputDir, scale, plain = "viridis", filepath.Join(tempDir, "png"), 2, false
	if err := runRender([]string{filepath.Join(tempDir, "*")}); err != nil {
		t.Fatalf("runRender failed: %v", err)
	}

	for _, name := range []string{"one.png", "two.png"} {
		f, err := os.Open(filepath.Join(tempDir, "png", name))
		if err != nil {
			t.Fatalf("Missing output %s: %v", name, err)
		}
		cfg, err := png.DecodeConfig(f)
		f.Close()
		if err != nil {
			t.Fatalf("Invalid PNG %s: %v", name, err)
		}
		if cfg.Width != 64 || cfg.Height != (12+axisMargin)*2 {
			t.Errorf("%s is %dx%d", name, cfg.Width, cfg.Height)
		}
	}
	if _, err := os.Stat(filepath.Join(tempDir, "png", "notes.png")); !os.IsNotExist(err) {
		t.Error("Non-snapshot input was rendered")
	}

	paletteName = "sepia"
	if err := runRender([]string{filepath.Join(tempDir, "one.hws")}); err == nil {
		t.Error("Expected an error for an unknown palette")
	}
	paletteName = "gray"
	if err := runRender([]string{filepath.Join(tempDir, "missing.hws")}); err == nil {
		t.Error("Expected an error for a missing file")
	}
}
