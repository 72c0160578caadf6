// Package metrics exposes session telemetry as Prometheus collectors.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the heatwave collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	gain           prometheus.Gauge     // applied tuner gain
	sampleRate     prometheus.Gauge     // device sample rate
	noiseFloor     prometheus.Gauge     // tracked noise floor in dB
	scanLatency    prometheus.Histogram // successful acquisition time
	frames         prometheus.Counter   // rows inserted into the waterfall
	readFailures   *prometheus.CounterVec
	agcAdjustments prometheus.Counter
	annotations    prometheus.Counter
	exports        *prometheus.CounterVec
}

// New creates the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		gain: factory.NewGauge(prometheus.GaugeOpts{
			Name: "heatwave_gain_db",
			Help: "Tuner gain currently applied in dB",
		}),
		sampleRate: factory.NewGauge(prometheus.GaugeOpts{
			Name: "heatwave_sample_rate_hz",
			Help: "Device sample rate in Hz",
		}),
		noiseFloor: factory.NewGauge(prometheus.GaugeOpts{
			Name: "heatwave_noise_floor_db",
			Help: "Tracked spectral noise floor in dB",
		}),
		scanLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "heatwave_scan_latency_seconds",
			Help:    "Time to acquire and estimate one spectrum row",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		frames: factory.NewCounter(prometheus.CounterOpts{
			Name: "heatwave_frames_total",
			Help: "Spectrum rows inserted into the waterfall",
		}),
		readFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "heatwave_read_failures_total",
			Help: "Failed device reads by kind (timeout, error, exhausted)",
		}, []string{"kind"}),
		agcAdjustments: factory.NewCounter(prometheus.CounterOpts{
			Name: "heatwave_agc_adjustments_total",
			Help: "Gain changes requested by the AGC loop",
		}),
		annotations: factory.NewCounter(prometheus.CounterOpts{
			Name: "heatwave_annotations_total",
			Help: "Annotations added by the user",
		}),
		exports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "heatwave_exports_total",
			Help: "Files exported by kind (bundle, screenshot, auto)",
		}, []string{"kind"}),
	}
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// SetGain records the applied gain
func (m *Metrics) SetGain(db float64) {
	if m == nil {
		return
	}
	m.gain.Set(db)
}

// SetSampleRate records the device sample rate
func (m *Metrics) SetSampleRate(hz float64) {
	if m == nil {
		return
	}
	m.sampleRate.Set(hz)
}

// SetNoiseFloor records the tracked noise floor
func (m *Metrics) SetNoiseFloor(db float64) {
	if m == nil {
		return
	}
	m.noiseFloor.Set(db)
}

// ObserveScan records one successful acquisition
func (m *Metrics) ObserveScan(d time.Duration) {
	if m == nil {
		return
	}
	m.scanLatency.Observe(d.Seconds())
}

// RecordFrame counts rows inserted into the waterfall
func (m *Metrics) RecordFrame(rows int) {
	if m == nil {
		return
	}
	m.frames.Add(float64(rows))
}

// RecordReadFailure counts a failed read of the given kind
func (m *Metrics) RecordReadFailure(kind string) {
	if m == nil {
		return
	}
	m.readFailures.WithLabelValues(kind).Inc()
}

// RecordAGCAdjustment counts a gain change made by the AGC loop
func (m *Metrics) RecordAGCAdjustment() {
	if m == nil {
		return
	}
	m.agcAdjustments.Inc()
}

// RecordAnnotation counts a new annotation
func (m *Metrics) RecordAnnotation() {
	if m == nil {
		return
	}
	m.annotations.Inc()
}

// RecordExport counts an exported file of the given kind
func (m *Metrics) RecordExport(kind string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(kind).Inc()
}

// Handler serves the collectors in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Server is the optional metrics HTTP endpoint
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Serve starts the endpoint on addr in its own goroutine
func (m *Metrics) Serve(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	s := &Server{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Metrics: server error: %v", err)
		}
	}()
	log.Printf("Metrics: serving on http://%s/metrics", ln.Addr())
	return s, nil
}

// Addr returns the listening address
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Close stops the endpoint
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
