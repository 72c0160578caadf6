package session

import (
	"fmt"
	"log"

	"heatwave/internal/config"
	"heatwave/internal/gps"
	"heatwave/internal/rtlsdr"
)

var _ Receiver = (*rtlsdr.Device)(nil)

// OpenReceiver opens the configured device. The serial number is preferred
// when set, otherwise the device index is used.
func OpenReceiver(cfg config.DeviceConfig) (*rtlsdr.Device, error) {
	if cfg.Serial != "" {
		dev, err := rtlsdr.OpenBySerial(cfg.Serial)
		if err != nil {
			return nil, fmt.Errorf("failed to open RTL-SDR by serial %s: %w", cfg.Serial, err)
		}
		log.Printf("Receiver: %s", dev.Info())
		return dev, nil
	}

	dev, err := rtlsdr.Open(cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("failed to open RTL-SDR by index %d: %w", cfg.Index, err)
	}
	log.Printf("Receiver: %s", dev.Info())
	return dev, nil
}

// StartStation creates and starts the configured position source. It
// returns nil when positioning is disabled.
func StartStation(cfg config.GPSConfig, debug bool) (gps.Provider, error) {
	p, err := gps.New(cfg)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	if n, ok := p.(*gps.NMEASerial); ok && debug {
		n.SetDebug(true)
	}
	if err := gps.Start(p, cfg.Timeout); err != nil {
		p.Close()
		return nil, err
	}
	log.Printf("GPS: using %s", p.Source())
	return p, nil
}
