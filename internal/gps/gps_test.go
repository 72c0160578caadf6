package gps

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stratoberry/go-gpsd"

	"heatwave/internal/config"
)

type nopPort struct {
	bytes.Buffer
}

func (p *nopPort) Close() error { return nil }

func TestNMEAFix(t *testing.T) {
	n := newNMEA(&nopPort{}, "/dev/ttyTEST")
	if _, err := n.CurrentPosition(); !errors.Is(err, ErrNoFix) {
		t.Fatalf("Expected ErrNoFix before any sentence, got %v", err)
	}

	input := strings.Join([]string{
		"garbage line",
		"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47",
		"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*00",
	}, "\n")
	n.readLoop(strings.NewReader(input))

	pos, err := n.CurrentPosition()
	if err != nil {
		t.Fatalf("Expected a fix: %v", err)
	}
	if math.Abs(pos.Latitude-48.1173) > 1e-4 || math.Abs(pos.Longitude-11.516667) > 1e-4 {
		t.Errorf("Unexpected position %.6f, %.6f", pos.Latitude, pos.Longitude)
	}
	if pos.Altitude != 545.4 || pos.Satellites != 8 || pos.FixQuality != 1 {
		t.Errorf("Unexpected fix details %+v", pos)
	}

	fix, err := n.WaitForFix(time.Second)
	if err != nil || fix.FixQuality != 1 {
		t.Fatalf("WaitForFix = %+v, %v", fix, err)
	}
}

func TestNMEAInvalidFixIgnored(t *testing.T) {
	n := newNMEA(&nopPort{}, "test")
	n.handleLine("$GPGGA,123519,4807.038,N,01131.000,E,0,00,0.9,545.4,M,46.9,M,,*4E")
	if _, err := n.CurrentPosition(); err == nil {
		t.Fatalf("Quality 0 sentence should not produce a fix")
	}
	if _, err := n.WaitForFix(10 * time.Millisecond); err == nil {
		t.Fatalf("Expected fix timeout")
	}
}

func TestGPSDSatelliteCountPreservation(t *testing.T) {
	g := NewGPSDClient("localhost", "2947")

	// SKY arrives before the first TPV
	g.handleSKY(&gpsd.SKYReport{Satellites: make([]gpsd.Satellite, 4)})
	g.handleTPV(&gpsd.TPVReport{
		Mode: 3,
		Lat:  33.349,
		Lon:  -111.758,
		Alt:  359.84,
		Time: time.Now(),
	})

	pos, err := g.CurrentPosition()
	if err != nil {
		t.Fatalf("Expected a fix: %v", err)
	}
	if pos.Satellites != 4 {
		t.Errorf("Expected 4 satellites to be preserved, got %d", pos.Satellites)
	}
	if pos.Latitude != 33.349 || pos.Longitude != -111.758 {
		t.Errorf("Unexpected position %f, %f", pos.Latitude, pos.Longitude)
	}

	g.handleSKY(&gpsd.SKYReport{Satellites: make([]gpsd.Satellite, 6)})
	pos, _ = g.CurrentPosition()
	if pos.Satellites != 6 || pos.Latitude != 33.349 {
		t.Errorf("SKY update should change only the satellite count: %+v", pos)
	}
}

func TestGPSDIgnoresNoFix(t *testing.T) {
	g := NewGPSDClient("", "")
	g.handleTPV(&gpsd.TPVReport{Mode: 1, Lat: 10, Lon: 10})
	if _, err := g.CurrentPosition(); !errors.Is(err, ErrNoFix) {
		t.Fatalf("Mode 1 report should not produce a fix, got %v", err)
	}
	if g.address() != gpsd.DefaultAddress {
		t.Errorf("Expected default address, got %s", g.address())
	}
}

func TestNewAndStation(t *testing.T) {
	p, err := New(config.GPSConfig{Mode: "none"})
	if err != nil || p != nil {
		t.Fatalf("Mode none = %v, %v", p, err)
	}
	if Station(nil) != nil {
		t.Fatalf("Station of nil provider should be nil")
	}
	if _, err := New(config.GPSConfig{Mode: "glonass"}); err == nil {
		t.Fatalf("Expected error for unknown mode")
	}

	p, err = New(config.GPSConfig{Mode: "manual", ManualLatitude: 51.5, ManualLongitude: -0.12, ManualAltitude: 20})
	if err != nil {
		t.Fatalf("Manual provider: %v", err)
	}
	if err := Start(p, time.Second); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	st := Station(p)
	if st == nil || st.Latitude != 51.5 || st.Longitude != -0.12 || st.Altitude != 20 || st.Source != "manual" {
		t.Fatalf("Unexpected station %+v", st)
	}
}

func TestFixQualityString(t *testing.T) {
	if FixQualityString(1) != "GPS fix (SPS)" || FixQualityString(42) != "Unknown" {
		t.Errorf("Unexpected fix quality strings")
	}
}
