// heatwave-render - Render heatwave snapshots to PNG images
// This program draws one or more .hws snapshots with a chosen palette,
// optionally with the frequency and time axes of the live display.
package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"heatwave/internal/render"
	"heatwave/internal/snapshot"
	"heatwave/internal/version"

	"github.com/spf13/cobra"
	"golang.org/x/image/draw"
)

// Axis band below the heatmap, matching the live display
const axisMargin = 30

var (
	paletteName string // Palette name or index
	outputDir   string // Output directory, empty for next to the input
	scale       int    // Integer upscale factor
	smooth      bool   // Interpolate when scaling
	plain       bool   // Heatmap only, no axes or info box
	verbose     bool   // Print each rendered file
	showVersion bool   // Show version information
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "heatwave-render [file.hws|pattern]...",
	Short: "Render heatwave snapshots to PNG",
	Long: `heatwave-render draws waterfall snapshots written by heatwave as PNG images.

Each input produces <name>.png next to it, or in --output when given. Patterns
are expanded, so quoted globs such as 'exports/*.hws' work.

Example usage:
  heatwave-render exports/spectrum_20250601_120000.hws
  heatwave-render --palette viridis --scale 2 'exports/*.hws'
  heatwave-render --plain --output images exports/*.hws`,
	Args: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			return nil
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Println(version.Describe("heatwave-render"))
			return
		}

		if err := runRender(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "show version information")
	rootCmd.Flags().StringVarP(&paletteName, "palette", "p", "default", "palette name or index ("+paletteList()+")")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default next to each input)")
	rootCmd.Flags().IntVarP(&scale, "scale", "s", 1, "integer upscale factor")
	rootCmd.Flags().BoolVar(&smooth, "smooth", false, "interpolate when scaling instead of repeating pixels")
	rootCmd.Flags().BoolVar(&plain, "plain", false, "render the heatmap only, without axes")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print each rendered file")
}

func paletteList() string {
	var names []string
	for _, p := range render.Palettes() {
		names = append(names, strings.ToLower(p.String()))
	}
	return strings.Join(names, ", ")
}

// runRender renders every snapshot named by args
func runRender(args []string) error {
	palette, err := render.ParsePalette(paletteName)
	if err != nil {
		return err
	}
	if scale < 1 {
		return fmt.Errorf("scale must be at least 1, got %d", scale)
	}

	files, err := findSnapshots(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s files found in %s", snapshot.Extension, strings.Join(args, " "))
	}

	for _, file := range files {
		out, err := renderFile(file, palette)
		if err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(file), err)
		}
		if verbose {
			fmt.Printf("%s -> %s\n", file, out)
		}
	}
	fmt.Printf("Rendered %d snapshot(s) with the %s palette\n", len(files), palette)
	return nil
}

// findSnapshots expands patterns and keeps snapshot files only. Plain paths
// that do not exist are reported rather than silently skipped.
func findSnapshots(args []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
		}
		if len(matches) == 0 && !strings.ContainsAny(arg, "*?[") {
			return nil, fmt.Errorf("file does not exist: %s", arg)
		}
		for _, m := range matches {
			if !strings.EqualFold(filepath.Ext(m), snapshot.Extension) || seen[m] {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	return files, nil
}

// outputPath is the PNG path for a snapshot
func outputPath(file string) string {
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)) + ".png"
	if outputDir != "" {
		return filepath.Join(outputDir, name)
	}
	return filepath.Join(filepath.Dir(file), name)
}

// renderFile reads one snapshot and writes its PNG
func renderFile(file string, palette render.Palette) (string, error) {
	snap, err := snapshot.Read(file)
	if err != nil {
		return "", err
	}
	if snap.Width == 0 || snap.Height == 0 {
		return "", fmt.Errorf("snapshot is empty")
	}

	img := renderSnapshot(snap, palette, !plain)
	img = upscale(img, scale, smooth)

	out := outputPath(file)
	if err := render.SavePNG(out, img); err != nil {
		return "", err
	}
	return out, nil
}

// renderSnapshot draws the snapshot grid one pixel per cell. With axes the
// frequency ticks, time ticks and a summary box are added the way the live
// display draws them.
func renderSnapshot(snap *snapshot.Snapshot, palette render.Palette, axes bool) *image.RGBA {
	scene := &render.Scene{
		Width:      snap.Width,
		Height:     snap.Height,
		Grid:       snap.Rows,
		Timestamps: snap.Timestamps,
		Palette:    palette,
		ViewStart:  snap.StartFreq,
		Span:       snap.EndFreq - snap.StartFreq,
		Cursor:     snap.StartFreq - 1,
		Now:        snap.CaptureTime,
	}
	if !axes {
		scene.Timestamps = nil
		scene.Span = 0
		return render.Compose(scene)
	}

	scene.Height += axisMargin
	scene.BottomMargin = axisMargin
	// The summary box needs room above the ticks
	if snap.Height >= 100 && snap.Width >= 200 {
		scene.Info = []string{
			fmt.Sprintf("%.3f-%.3f MHz", snap.StartFreq/1e6, snap.EndFreq/1e6),
			fmt.Sprintf("Rate: %.3f MHz", snap.SampleRate/1e6),
			snap.CaptureTime.Format("2006-01-02 15:04:05"),
		}
		if snap.Station.Source != "" {
			scene.Info = append(scene.Info, fmt.Sprintf("%.4f, %.4f", snap.Station.Latitude, snap.Station.Longitude))
		}
	}
	return render.Compose(scene)
}

// upscale enlarges img by an integer factor
func upscale(img *image.RGBA, factor int, interpolate bool) *image.RGBA {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	var scaler draw.Scaler = draw.NearestNeighbor
	if interpolate {
		scaler = draw.CatmullRom
	}
	scaler.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// main is the entry point of the application
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
