// Package export writes the session's export bundle, screenshots and raw
// IQ recordings.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"heatwave/internal/snapshot"
	"heatwave/internal/waterfall"
)

// Report summarises a session at export time
type Report struct {
	ID             string            `json:"id"`
	Timestamp      string            `json:"timestamp"`
	TimeRange      TimeRange         `json:"time_range"`
	FrequencyRange FrequencyRange    `json:"frequency_range"`
	Annotations    []AnnotationEntry `json:"annotations"`
	Settings       ReportSettings    `json:"settings"`
	Station        *StationEntry     `json:"station,omitempty"`
}

// TimeRange covers the session, in Unix seconds
type TimeRange struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"` // seconds
}

// FrequencyRange is the outer frequency bounds in Hz
type FrequencyRange struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Bandwidth float64 `json:"bandwidth"`
}

// AnnotationEntry is one annotation, Time in Unix seconds
type AnnotationEntry struct {
	Time           float64 `json:"time"`
	Text           string  `json:"text"`
	Frequency      float64 `json:"frequency"`
	SignalStrength float64 `json:"signal_strength"`
}

// ReportSettings is the receiver and display state at export time
type ReportSettings struct {
	SampleRate float64 `json:"sample_rate"`
	Gain       float64 `json:"gain"`
	Averaging  bool    `json:"averaging"`
	PeakHold   bool    `json:"peak_hold"`
	AutoScale  bool    `json:"auto_scale"`
	PPM        int     `json:"ppm"`
}

// StationEntry is the receiver position
type StationEntry struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
	Source    string  `json:"source"`
}

// ReportInput is the session state a report is built from
type ReportInput struct {
	Now          time.Time
	SessionStart time.Time
	Start, End   float64 // outer bounds in Hz
	Annotations  []waterfall.Annotation
	Settings     ReportSettings
	Station      *snapshot.Station // nil when the position is unknown
}

// NewReport builds a report with a fresh ID
func NewReport(in ReportInput) Report {
	r := Report{
		ID:        uuid.New().String(),
		Timestamp: in.Now.Format("2006-01-02T15:04:05.000000"),
		TimeRange: TimeRange{
			Start:    unixSeconds(in.SessionStart),
			End:      unixSeconds(in.Now),
			Duration: in.Now.Sub(in.SessionStart).Seconds(),
		},
		FrequencyRange: FrequencyRange{
			Start:     in.Start,
			End:       in.End,
			Bandwidth: in.End - in.Start,
		},
		Annotations: make([]AnnotationEntry, 0, len(in.Annotations)),
		Settings:    in.Settings,
	}
	for _, a := range in.Annotations {
		r.Annotations = append(r.Annotations, AnnotationEntry{
			Time:           unixSeconds(a.Time),
			Text:           a.Text,
			Frequency:      a.Frequency,
			SignalStrength: a.SignalStrength,
		})
	}
	if in.Station != nil {
		r.Station = &StationEntry{
			Latitude:  in.Station.Latitude,
			Longitude: in.Station.Longitude,
			Altitude:  in.Station.Altitude,
			Source:    in.Station.Source,
		}
	}
	return r
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// Encode writes the report as indented JSON
func (r *Report) Encode(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteFile writes the report to filename
func (r *Report) WriteFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := r.Encode(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
