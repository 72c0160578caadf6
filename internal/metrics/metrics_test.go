package metrics

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.SetGain(10)
	m.SetNoiseFloor(-60)
	m.ObserveScan(time.Millisecond)
	m.RecordFrame(1)
	m.RecordReadFailure("timeout")
	m.RecordAGCAdjustment()
	m.RecordAnnotation()
	m.RecordExport("bundle")
	if m.Registry() != nil {
		t.Fatalf("Nil metrics should have no registry")
	}
}

func TestCollectors(t *testing.T) {
	m := New()
	m.SetGain(33.8)
	m.RecordFrame(2)
	m.RecordReadFailure("timeout")
	m.RecordReadFailure("timeout")

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	found := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetGauge() != nil:
				found[f.GetName()] = metric.GetGauge().GetValue()
			case metric.GetCounter() != nil:
				found[f.GetName()] += metric.GetCounter().GetValue()
			}
		}
	}
	if found["heatwave_gain_db"] != 33.8 {
		t.Errorf("Gain gauge = %v", found["heatwave_gain_db"])
	}
	if found["heatwave_frames_total"] != 2 {
		t.Errorf("Frame counter = %v", found["heatwave_frames_total"])
	}
	if found["heatwave_read_failures_total"] != 2 {
		t.Errorf("Read failure counter = %v", found["heatwave_read_failures_total"])
	}
}

func TestServe(t *testing.T) {
	m := New()
	m.RecordAnnotation()
	srv, err := m.Serve("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Serve failed: %v", err)
	}
	defer srv.Close()

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "heatwave_annotations_total 1") {
		t.Fatalf("Scrape missing annotation counter:\n%s", body)
	}
}
