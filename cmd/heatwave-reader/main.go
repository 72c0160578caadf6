// heatwave-reader - Utility to inspect heatwave snapshots and IQ recordings
// This program prints the metadata, intensity statistics, strongest columns
// and an ASCII profile of a .hws snapshot, or a magnitude summary of a .iq
// recording.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"heatwave/internal/dsp"
	"heatwave/internal/export"
	"heatwave/internal/snapshot"
	"heatwave/internal/version"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	outputFormat string
	showStats    bool
	showGraph    bool
	peakCount    int
	graphWidth   int
	graphHeight  int
	iqRate       float64
	showVersion  bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "heatwave-reader [file]",
	Short: "Display contents of heatwave snapshots and recordings",
	Long: `heatwave-reader displays the header and data of heatwave .hws snapshots and
summarises .iq recordings.

Display modes:
  --stats      Show intensity statistics over the whole grid
  --peaks N    List the N strongest columns of the peak hold profile
  --graph      Draw an ASCII graph of the mean intensity across frequency
  --format     table (default) or json`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Println(version.Describe("heatwave-reader"))
			return
		}

		if len(args) == 0 {
			fmt.Fprintf(os.Stderr, "Error: filename required\n")
			cmd.Usage()
			os.Exit(1)
		}

		if err := displayFile(os.Stdout, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "show version information")
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "table", "output format (table, json)")
	rootCmd.Flags().BoolVar(&showStats, "stats", true, "show intensity statistics")
	rootCmd.Flags().BoolVarP(&showGraph, "graph", "g", false, "draw an ASCII intensity profile")
	rootCmd.Flags().IntVarP(&peakCount, "peaks", "p", 10, "number of peak columns to list (0 disables)")
	rootCmd.Flags().IntVar(&graphWidth, "graph-width", 80, "width of the ASCII graph in characters")
	rootCmd.Flags().IntVar(&graphHeight, "graph-height", 20, "height of the ASCII graph in lines")
	rootCmd.Flags().Float64Var(&iqRate, "sample-rate", 2.4, "sample rate of .iq recordings in MHz")
}

// GridStats summarises the intensities of a snapshot
type GridStats struct {
	Rows       int     `json:"rows"`
	FilledRows int     `json:"filled_rows"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Median     float64 `json:"median"`
	P90        float64 `json:"p90"`
	Span       string  `json:"time_span,omitempty"`
}

// Peak is one strong column of the peak hold profile
type Peak struct {
	Column    int     `json:"column"`
	Frequency float64 `json:"frequency_hz"`
	Level     float64 `json:"level"`
	SNR       float64 `json:"snr"`
}

// Summary is everything the reader reports about a snapshot
type Summary struct {
	File        string    `json:"file"`
	Version     uint16    `json:"format_version"`
	SnapshotID  string    `json:"snapshot_id"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	SampleRate  float64   `json:"sample_rate"`
	StartFreq   float64   `json:"start_freq"`
	EndFreq     float64   `json:"end_freq"`
	CaptureTime time.Time `json:"capture_time"`
	DeviceInfo  string    `json:"device_info"`
	Station     *Station  `json:"station,omitempty"`
	Stats       GridStats `json:"stats"`
	Peaks       []Peak    `json:"peaks,omitempty"`
	Profile     []float64 `json:"-"`
}

// Station is the position the snapshot was taken at
type Station struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
	Source    string  `json:"source"`
}

// IQSummary describes a raw recording
type IQSummary struct {
	File       string  `json:"file"`
	Samples    int     `json:"samples"`
	SampleRate float64 `json:"sample_rate"`
	Duration   float64 `json:"duration_seconds"`
	MeanI      float64 `json:"mean_i"`
	MeanQ      float64 `json:"mean_q"`
	MeanMag    float64 `json:"mean_magnitude"`
	MaxMag     float64 `json:"max_magnitude"`
	MeanPower  float64 `json:"mean_power_db"`
	NoiseFloor float64 `json:"noise_floor_db"`
}

// displayFile reads path and writes the report to w in the selected format
func displayFile(w io.Writer, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	}
	if outputFormat != "table" && outputFormat != "json" {
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}

	if strings.EqualFold(filepath.Ext(path), ".iq") {
		samples, err := export.ReadIQ(path)
		if err != nil {
			return err
		}
		sum := summarizeIQ(path, samples, iqRate*1e6)
		if outputFormat == "json" {
			return writeJSON(w, sum)
		}
		displayIQ(w, sum)
		return nil
	}

	snap, err := snapshot.Read(path)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	sum := summarize(path, snap, peakCount)
	if outputFormat == "json" {
		return writeJSON(w, sum)
	}

	fmt.Fprintf(w, "File: %s\n\n", filepath.Base(path))
	displayMetadata(w, sum)
	if showStats {
		displayStatistics(w, sum.Stats)
	}
	if len(sum.Peaks) > 0 {
		displayPeaks(w, sum.Peaks)
	}
	if showGraph {
		displayGraph(w, sum.Profile, sum.StartFreq, sum.EndFreq)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// summarize computes the statistics, peak list and mean profile of a snapshot.
// Rows that were never written (zero timestamp) are left out.
func summarize(path string, snap *snapshot.Snapshot, peaks int) Summary {
	sum := Summary{
		File:        path,
		Version:     snap.FormatVersion,
		SnapshotID:  snap.SnapshotID,
		Width:       snap.Width,
		Height:      snap.Height,
		SampleRate:  snap.SampleRate,
		StartFreq:   snap.StartFreq,
		EndFreq:     snap.EndFreq,
		CaptureTime: snap.CaptureTime,
		DeviceInfo:  snap.DeviceInfo,
	}
	if snap.Station.Source != "" {
		sum.Station = &Station{
			Latitude:  snap.Station.Latitude,
			Longitude: snap.Station.Longitude,
			Altitude:  snap.Station.Altitude,
			Source:    snap.Station.Source,
		}
	}

	var filled [][]float64
	var first, last time.Time
	for i, row := range snap.Rows {
		ts := snap.Timestamps[i]
		if ts.IsZero() {
			continue
		}
		filled = append(filled, row)
		if first.IsZero() || ts.Before(first) {
			first = ts
		}
		if ts.After(last) {
			last = ts
		}
	}
	sum.Stats.Rows = snap.Height
	sum.Stats.FilledRows = len(filled)
	if len(filled) == 0 || snap.Width == 0 {
		return sum
	}
	sum.Stats.Span = last.Sub(first).String()

	values := make([]float64, 0, len(filled)*snap.Width)
	peakHold := make([]float64, snap.Width)
	for c := range peakHold {
		peakHold[c] = math.Inf(-1)
	}
	for _, row := range filled {
		values = append(values, row...)
		for c, v := range row {
			peakHold[c] = math.Max(peakHold[c], v)
		}
	}
	sum.Stats.Min = floats.Min(values)
	sum.Stats.Max = floats.Max(values)
	sum.Stats.Mean, sum.Stats.StdDev = stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		sum.Stats.StdDev = 0
	}
	sum.Stats.Median = dsp.Median(values)
	sum.Stats.P90 = dsp.Percentile(values, 0.9)
	sum.Profile = dsp.MeanRows(filled)

	if peaks > 0 {
		sum.Peaks = strongestColumns(peakHold, snap.StartFreq, snap.EndFreq-snap.StartFreq, peaks)
	}
	return sum
}

// strongestColumns runs the signal detector over the peak hold profile and
// returns up to n detections, strongest first
func strongestColumns(peakHold []float64, startFreq, span float64, n int) []Peak {
	signals := dsp.DetectSignals(peakHold, 1, startFreq, span)
	sort.SliceStable(signals, func(i, j int) bool { return signals[i].SNR > signals[j].SNR })
	if len(signals) > n {
		signals = signals[:n]
	}
	out := make([]Peak, len(signals))
	for i, s := range signals {
		out[i] = Peak{Column: s.Bin, Frequency: s.Frequency, Level: peakHold[s.Bin], SNR: s.SNR}
	}
	return out
}

// displayMetadata shows the snapshot header
func displayMetadata(w io.Writer, sum Summary) {
	fmt.Fprintf(w, "Snapshot Metadata:\n")
	fmt.Fprintf(w, "Format Version: %d\n", sum.Version)
	fmt.Fprintf(w, "Snapshot ID: %s\n", sum.SnapshotID)
	fmt.Fprintf(w, "Grid: %d x %d\n", sum.Width, sum.Height)
	fmt.Fprintf(w, "Range: %.3f - %.3f MHz\n", sum.StartFreq/1e6, sum.EndFreq/1e6)
	fmt.Fprintf(w, "Sample Rate: %.3f MSps\n", sum.SampleRate/1e6)
	fmt.Fprintf(w, "Capture Time: %s\n", sum.CaptureTime.Format("2006-01-02 15:04:05.000"))
	fmt.Fprintf(w, "Device: %s\n", sum.DeviceInfo)
	if sum.Station != nil {
		fmt.Fprintf(w, "Station: %.6f, %.6f, %.1f m (%s)\n",
			sum.Station.Latitude, sum.Station.Longitude, sum.Station.Altitude, sum.Station.Source)
	} else {
		fmt.Fprintf(w, "Station: unknown\n")
	}
	fmt.Fprintln(w)
}

// displayStatistics shows the intensity statistics
func displayStatistics(w io.Writer, s GridStats) {
	fmt.Fprintf(w, "Statistics:\n")
	fmt.Fprintf(w, "Rows Filled: %12d / %d\n", s.FilledRows, s.Rows)
	if s.FilledRows == 0 {
		fmt.Fprintf(w, "No rows written\n\n")
		return
	}
	fmt.Fprintf(w, "Time Span: %12s\n", s.Span)
	fmt.Fprintf(w, "Min: %12.2f\n", s.Min)
	fmt.Fprintf(w, "Max: %12.2f\n", s.Max)
	fmt.Fprintf(w, "Mean: %12.2f\n", s.Mean)
	fmt.Fprintf(w, "Std Dev: %12.2f\n", s.StdDev)
	fmt.Fprintf(w, "Median: %12.2f\n", s.Median)
	fmt.Fprintf(w, "90th Percentile: %12.2f\n\n", s.P90)
}

// displayPeaks lists the strongest columns
func displayPeaks(w io.Writer, peaks []Peak) {
	fmt.Fprintf(w, "Peak Columns:\n")
	fmt.Fprintf(w, "%6s  %14s  %8s  %8s\n", "Column", "Frequency MHz", "Level", "SNR")
	for _, p := range peaks {
		fmt.Fprintf(w, "%6d  %14.4f  %8.2f  %8.2f\n", p.Column, p.Frequency/1e6, p.Level, p.SNR)
	}
	fmt.Fprintln(w)
}

// displayGraph draws the mean intensity across frequency as an ASCII graph
func displayGraph(w io.Writer, profile []float64, startFreq, endFreq float64) {
	if len(profile) == 0 || graphWidth < 2 || graphHeight < 2 {
		fmt.Fprintf(w, "Intensity Profile: nothing to display\n\n")
		return
	}

	lo, hi := floats.Min(profile), floats.Max(profile)
	if hi == lo {
		hi = lo + 1e-6
	}

	grid := make([][]rune, graphHeight)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", graphWidth))
	}
	for i, v := range profile {
		x := 0
		if len(profile) > 1 {
			x = i * (graphWidth - 1) / (len(profile) - 1)
		}
		y := int(float64(graphHeight-1) * (1 - (v-lo)/(hi-lo)))
		y = min(max(y, 0), graphHeight-1)
		if grid[y][x] == ' ' {
			grid[y][x] = '*'
		} else {
			grid[y][x] = '#'
		}
	}

	fmt.Fprintf(w, "Intensity Profile (mean of filled rows):\n")
	for i, row := range grid {
		level := lo + float64(graphHeight-1-i)/float64(graphHeight-1)*(hi-lo)
		fmt.Fprintf(w, "%8.2f |%s|\n", level, string(row))
	}
	fmt.Fprintf(w, "         +%s+\n", strings.Repeat("-", graphWidth))

	left := fmt.Sprintf("%.3f", startFreq/1e6)
	right := fmt.Sprintf("%.3f MHz", endFreq/1e6)
	gap := max(graphWidth+2-len(left)-len(right), 1)
	fmt.Fprintf(w, "         %s%s%s\n", left, strings.Repeat(" ", gap), right)
	fmt.Fprintf(w, "\nLegend: * = column, # = several columns, Frequency →\n\n")
}

// summarizeIQ computes magnitude statistics of a recording. The noise floor
// is the mean power of the weakest 10% of samples.
func summarizeIQ(path string, samples []complex64, sampleRate float64) IQSummary {
	sum := IQSummary{File: path, Samples: len(samples), SampleRate: sampleRate}
	if len(samples) == 0 {
		return sum
	}
	if sampleRate > 0 {
		sum.Duration = float64(len(samples)) / sampleRate
	}

	is := make([]float64, len(samples))
	qs := make([]float64, len(samples))
	mags := make([]float64, len(samples))
	powers := make([]float64, len(samples))
	for k, s := range samples {
		i, q := float64(real(s)), float64(imag(s))
		is[k], qs[k] = i, q
		powers[k] = i*i + q*q
		mags[k] = math.Sqrt(powers[k])
	}
	sum.MeanI = stat.Mean(is, nil)
	sum.MeanQ = stat.Mean(qs, nil)
	sum.MeanMag = stat.Mean(mags, nil)
	sum.MaxMag = floats.Max(mags)
	sum.MeanPower = 10 * math.Log10(stat.Mean(powers, nil)+1e-20)

	sort.Float64s(powers)
	n := max(len(powers)/10, 1)
	sum.NoiseFloor = 10 * math.Log10(stat.Mean(powers[:n], nil)+1e-20)
	return sum
}

// displayIQ shows the recording summary
func displayIQ(w io.Writer, sum IQSummary) {
	fmt.Fprintf(w, "File: %s\n\n", filepath.Base(sum.File))
	fmt.Fprintf(w, "IQ Recording:\n")
	fmt.Fprintf(w, "Samples: %d\n", sum.Samples)
	fmt.Fprintf(w, "Sample Rate: %.3f MSps (assumed)\n", sum.SampleRate/1e6)
	fmt.Fprintf(w, "Duration: %.3f seconds\n", sum.Duration)
	if sum.Samples == 0 {
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintf(w, "Mean I (Real): %12.6f\n", sum.MeanI)
	fmt.Fprintf(w, "Mean Q (Imaginary): %12.6f\n", sum.MeanQ)
	fmt.Fprintf(w, "Mean Magnitude: %12.6f\n", sum.MeanMag)
	fmt.Fprintf(w, "Max Magnitude: %12.6f\n", sum.MaxMag)
	fmt.Fprintf(w, "Mean Power (dB): %12.2f dB\n", sum.MeanPower)
	fmt.Fprintf(w, "Noise Floor (dB): %12.2f dB\n", sum.NoiseFloor)
	fmt.Fprintf(w, "Signal-to-Noise Ratio: %12.2f dB\n\n", sum.MeanPower-sum.NoiseFloor)
}

// main is the entry point of the application
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
