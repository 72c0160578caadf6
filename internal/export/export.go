package export

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"heatwave/internal/render"
	"heatwave/internal/snapshot"
)

// TimestampLayout is the timestamp format used in file names
const TimestampLayout = "20060102_150405"

// Bundle is everything written by a full export
type Bundle struct {
	Snapshot *snapshot.Snapshot
	Report   Report
	Frame    image.Image
}

// Paths lists the files written by a full export
type Paths struct {
	Snapshot string
	Report   string
	Image    string
}

// Exporter writes files below a single directory. The auto-export counter
// lives here so numbering continues across fills.
type Exporter struct {
	dir   string
	count int
}

// NewExporter creates an exporter for dir. The directory is created on
// first use.
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: dir}
}

// Dir returns the export directory
func (e *Exporter) Dir() string { return e.dir }

// Count returns the number of auto-exported frames so far
func (e *Exporter) Count() int { return e.count }

func (e *Exporter) ensureDir() error {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	return nil
}

// BaseName is the common prefix of a full export's files
func BaseName(now time.Time) string {
	return "spectrum_export_" + now.Format(TimestampLayout)
}

// Export writes the snapshot, report and composited frame
func (e *Exporter) Export(b Bundle, now time.Time) (Paths, error) {
	if err := e.ensureDir(); err != nil {
		return Paths{}, err
	}
	base := filepath.Join(e.dir, BaseName(now))
	paths := Paths{
		Snapshot: base + snapshot.Extension,
		Report:   base + "_report.json",
		Image:    base + ".png",
	}

	if b.Snapshot != nil {
		b.Snapshot.SnapshotID = b.Report.ID
		if err := snapshot.Write(paths.Snapshot, b.Snapshot); err != nil {
			return paths, fmt.Errorf("failed to write snapshot: %w", err)
		}
	}
	if err := b.Report.WriteFile(paths.Report); err != nil {
		return paths, err
	}
	if b.Frame != nil {
		if err := render.SavePNG(paths.Image, b.Frame); err != nil {
			return paths, fmt.Errorf("failed to write image: %w", err)
		}
	}
	return paths, nil
}

// ScreenshotName is the file name of a screenshot of [start, end]
func ScreenshotName(now time.Time, start, end float64) string {
	return fmt.Sprintf("spectrum_%s_%.3f-%.3fMHz.png", now.Format(TimestampLayout), start/1e6, end/1e6)
}

// AutoExportName is the file name of the count'th auto-exported frame
func AutoExportName(now time.Time, start, end float64, count int) string {
	return fmt.Sprintf("spectrum_%s_%.3f-%.3fMHz_%d.png", now.Format(TimestampLayout), start/1e6, end/1e6, count)
}

// Screenshot saves frame showing [start, end] and returns its path
func (e *Exporter) Screenshot(frame image.Image, start, end float64, now time.Time) (string, error) {
	if err := e.ensureDir(); err != nil {
		return "", err
	}
	path := filepath.Join(e.dir, ScreenshotName(now, start, end))
	if err := render.SavePNG(path, frame); err != nil {
		return "", err
	}
	return path, nil
}

// AutoExport saves a numbered frame and returns its path and the new count
func (e *Exporter) AutoExport(frame image.Image, start, end float64, now time.Time) (string, int, error) {
	if err := e.ensureDir(); err != nil {
		return "", e.count, err
	}
	path := filepath.Join(e.dir, AutoExportName(now, start, end, e.count))
	if err := render.SavePNG(path, frame); err != nil {
		return "", e.count, err
	}
	e.count++
	return path, e.count, nil
}
