// Package gps supplies the receiving station position recorded with exports.
// Positions come from a fixed configuration, an NMEA receiver on a serial port
// or a gpsd daemon.
package gps

import (
	"errors"
	"fmt"
	"log"
	"time"

	"heatwave/internal/config"
	"heatwave/internal/snapshot"
)

// ErrNoFix is returned when no valid position is available yet
var ErrNoFix = errors.New("no GPS fix available")

// Position is a station fix
type Position struct {
	Latitude   float64
	Longitude  float64
	Altitude   float64
	Timestamp  time.Time
	FixQuality int
	Satellites int
}

// Provider supplies the current station position
type Provider interface {
	Start() error
	WaitForFix(timeout time.Duration) (*Position, error)
	CurrentPosition() (*Position, error)
	Source() string
	Close() error
}

// New creates the provider selected by cfg.Mode. Mode "none" returns nil.
func New(cfg config.GPSConfig) (Provider, error) {
	switch cfg.Mode {
	case "", "none":
		return nil, nil
	case "manual":
		return NewManual(cfg.ManualLatitude, cfg.ManualLongitude, cfg.ManualAltitude), nil
	case "nmea":
		return NewNMEASerial(cfg.Port, cfg.BaudRate)
	case "gpsd":
		return NewGPSDClient(cfg.GPSDHost, cfg.GPSDPort), nil
	default:
		return nil, fmt.Errorf("invalid GPS mode %q (must be none, manual, nmea or gpsd)", cfg.Mode)
	}
}

// Station converts the provider's current fix to the station record stored in
// snapshots and reports. It returns nil when p is nil or has no fix.
func Station(p Provider) *snapshot.Station {
	if p == nil {
		return nil
	}
	pos, err := p.CurrentPosition()
	if err != nil {
		return nil
	}
	return &snapshot.Station{
		Latitude:  pos.Latitude,
		Longitude: pos.Longitude,
		Altitude:  pos.Altitude,
		Source:    p.Source(),
	}
}

// Start starts p and optionally waits for a first fix. A missing fix is
// logged rather than returned so the display can start without one.
func Start(p Provider, timeout time.Duration) error {
	if err := p.Start(); err != nil {
		return fmt.Errorf("failed to start GPS: %w", err)
	}
	if timeout <= 0 {
		return nil
	}
	log.Printf("GPS: waiting up to %v for a fix from %s", timeout, p.Source())
	pos, err := p.WaitForFix(timeout)
	if err != nil {
		log.Printf("GPS: %v", err)
		return nil
	}
	log.Printf("GPS: fix %.6f, %.6f alt %.1f m (%d satellites)", pos.Latitude, pos.Longitude, pos.Altitude, pos.Satellites)
	return nil
}

// FixQualityString describes an NMEA GGA fix quality value
func FixQualityString(quality int) string {
	switch quality {
	case 0:
		return "Invalid"
	case 1:
		return "GPS fix (SPS)"
	case 2:
		return "DGPS fix"
	case 3:
		return "PPS fix"
	case 4:
		return "Real Time Kinematic"
	case 5:
		return "Float RTK"
	case 6:
		return "estimated (dead reckoning)"
	case 7:
		return "Manual input mode"
	case 8:
		return "Simulation mode"
	default:
		return "Unknown"
	}
}

// Manual is a fixed, configured station position
type Manual struct {
	position Position
}

// NewManual creates a provider that always reports the given position
func NewManual(lat, lon, alt float64) *Manual {
	return &Manual{position: Position{
		Latitude:   lat,
		Longitude:  lon,
		Altitude:   alt,
		FixQuality: 7,
	}}
}

func (m *Manual) Start() error { return nil }

func (m *Manual) WaitForFix(time.Duration) (*Position, error) {
	return m.CurrentPosition()
}

func (m *Manual) CurrentPosition() (*Position, error) {
	pos := m.position
	pos.Timestamp = time.Now()
	return &pos, nil
}

func (m *Manual) Source() string { return "manual" }

func (m *Manual) Close() error { return nil }
