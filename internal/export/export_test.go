package export

import (
	"bytes"
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"heatwave/internal/snapshot"
	"heatwave/internal/waterfall"
)

func TestFileNames(t *testing.T) {
	now := time.Date(2025, 7, 8, 9, 10, 11, 0, time.Local)
	if got := BaseName(now); got != "spectrum_export_20250708_091011" {
		t.Errorf("BaseName = %q", got)
	}
	if got := ScreenshotName(now, 88e6, 108e6); got != "spectrum_20250708_091011_88.000-108.000MHz.png" {
		t.Errorf("ScreenshotName = %q", got)
	}
	if got := AutoExportName(now, 144e6, 146.5e6, 3); got != "spectrum_20250708_091011_144.000-146.500MHz_3.png" {
		t.Errorf("AutoExportName = %q", got)
	}
	if got := RecordingName(now); got != "spectrum_20250708_091011.iq" {
		t.Errorf("RecordingName = %q", got)
	}
}

func TestReportFields(t *testing.T) {
	start := time.Unix(1700000000, 0)
	now := start.Add(90 * time.Second)
	r := NewReport(ReportInput{
		Now:          now,
		SessionStart: start,
		Start:        144e6,
		End:          146e6,
		Annotations: []waterfall.Annotation{
			{Time: start.Add(30 * time.Second), Text: "beacon", Frequency: 144.8e6, SignalStrength: 180},
		},
		Settings: ReportSettings{SampleRate: 2.4e6, Gain: 20, AutoScale: true, PPM: 2},
		Station:  &snapshot.Station{Latitude: 1, Longitude: 2, Altitude: 3, Source: "manual"},
	})
	if r.ID == "" {
		t.Fatalf("Report needs an ID")
	}

	var buf bytes.Buffer
	if err := r.Encode(&buf); err != nil {
		t.Fatalf("Failed to encode report: %v", err)
	}
	if !strings.Contains(buf.String(), "\n    \"timestamp\"") {
		t.Errorf("Report should be indented with four spaces")
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Report is not valid JSON: %v", err)
	}
	for _, key := range []string{"timestamp", "time_range", "frequency_range", "annotations", "settings", "station"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("Report missing %q", key)
		}
	}
	tr := decoded["time_range"].(map[string]interface{})
	if tr["duration"].(float64) != 90 || tr["start"].(float64) != 1700000000 {
		t.Errorf("Unexpected time range %v", tr)
	}
	fr := decoded["frequency_range"].(map[string]interface{})
	if fr["bandwidth"].(float64) != 2e6 {
		t.Errorf("Unexpected bandwidth %v", fr["bandwidth"])
	}
	ann := decoded["annotations"].([]interface{})[0].(map[string]interface{})
	if ann["text"] != "beacon" || ann["signal_strength"].(float64) != 180 || ann["time"].(float64) != 1700000030 {
		t.Errorf("Unexpected annotation %v", ann)
	}
	settings := decoded["settings"].(map[string]interface{})
	for _, key := range []string{"sample_rate", "gain", "averaging", "peak_hold", "auto_scale", "ppm"} {
		if _, ok := settings[key]; !ok {
			t.Errorf("Settings missing %q", key)
		}
	}
}

func TestReportWithoutStation(t *testing.T) {
	now := time.Now()
	r := NewReport(ReportInput{Now: now, SessionStart: now})
	var buf bytes.Buffer
	if err := r.Encode(&buf); err != nil {
		t.Fatalf("Failed to encode report: %v", err)
	}
	if strings.Contains(buf.String(), "station") {
		t.Errorf("Station should be omitted when unknown")
	}
	if !strings.Contains(buf.String(), "\"annotations\": []") {
		t.Errorf("Empty annotations should encode as an empty list")
	}
}

func TestExportBundle(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "export_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local)
	e := NewExporter(filepath.Join(tempDir, "out"))
	snap := &snapshot.Snapshot{
		Metadata:   snapshot.Metadata{Width: 2, Height: 1, StartFreq: 1e6, EndFreq: 2e6},
		Rows:       [][]float64{{1, 2}},
		Timestamps: []time.Time{now},
	}
	report := NewReport(ReportInput{Now: now, SessionStart: now})
	frame := image.NewRGBA(image.Rect(0, 0, 4, 4))

	paths, err := e.Export(Bundle{Snapshot: snap, Report: report, Frame: frame}, now)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	for _, p := range []string{paths.Snapshot, paths.Report, paths.Image} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("Expected export file %s: %v", p, err)
		}
	}
	if !strings.HasSuffix(paths.Report, "spectrum_export_20250102_030405_report.json") {
		t.Errorf("Unexpected report path %s", paths.Report)
	}

	got, err := snapshot.Read(paths.Snapshot)
	if err != nil {
		t.Fatalf("Failed to read exported snapshot: %v", err)
	}
	if got.SnapshotID != report.ID {
		t.Errorf("Snapshot ID %q should match report ID %q", got.SnapshotID, report.ID)
	}
}

func TestAutoExportCounts(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "export_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	e := NewExporter(tempDir)
	frame := image.NewRGBA(image.Rect(0, 0, 2, 2))
	now := time.Now()
	path, count, err := e.AutoExport(frame, 1e6, 2e6, now)
	if err != nil {
		t.Fatalf("Auto export failed: %v", err)
	}
	if count != 1 || !strings.HasSuffix(path, "MHz_0.png") {
		t.Fatalf("First auto export: count %d path %s", count, path)
	}
	path, count, _ = e.AutoExport(frame, 1e6, 2e6, now)
	if count != 2 || !strings.HasSuffix(path, "MHz_1.png") {
		t.Fatalf("Second auto export: count %d path %s", count, path)
	}

	shot, err := e.Screenshot(frame, 1e6, 2e6, now)
	if err != nil {
		t.Fatalf("Screenshot failed: %v", err)
	}
	if _, err := os.Stat(shot); err != nil {
		t.Fatalf("Screenshot missing: %v", err)
	}
}

func TestRecorderRoundTrip(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "export_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	r, err := StartRecording(tempDir, time.Now())
	if err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}
	want := []complex64{complex(0.5, -0.25), complex(-1, 1), complex(0, 0.125)}
	if err := r.Write(want[:2]); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := r.Write(want[2:]); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if r.Samples() != 3 {
		t.Fatalf("Expected 3 samples, got %d", r.Samples())
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	info, _ := os.Stat(r.Path())
	if info.Size() != 24 {
		t.Fatalf("Expected 24 bytes, got %d", info.Size())
	}
	got, err := ReadIQ(r.Path())
	if err != nil {
		t.Fatalf("ReadIQ failed: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Sample %d = %v, expected %v", i, got[i], want[i])
		}
	}
}
