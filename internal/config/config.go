// Package config provides configuration structures and defaults for heatwave
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Device   DeviceConfig   `yaml:"device" mapstructure:"device"`     // SDR device settings
	Display  DisplayConfig  `yaml:"display" mapstructure:"display"`   // Framebuffer and waterfall settings
	Spectrum SpectrumConfig `yaml:"spectrum" mapstructure:"spectrum"` // Spectral processing settings
	AGC      AGCConfig      `yaml:"agc" mapstructure:"agc"`           // Automatic gain control settings
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`     // Export output settings
	Settings SettingsConfig `yaml:"settings" mapstructure:"settings"` // Persisted user settings
	Bands    BandsConfig    `yaml:"bands" mapstructure:"bands"`       // Band table override
	GPS      GPSConfig      `yaml:"gps" mapstructure:"gps"`           // Station position source
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`   // Prometheus endpoint
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`   // Logging configuration
}

// DeviceConfig contains RTL-SDR device configuration parameters
type DeviceConfig struct {
	Index        int           `yaml:"index" mapstructure:"index"`               // Device index (0-based, used if Serial is empty)
	Serial       string        `yaml:"serial" mapstructure:"serial"`             // Device serial number (preferred over index)
	SampleRate   float64       `yaml:"sample_rate" mapstructure:"sample_rate"`   // Sample rate in Hz
	Gain         float64       `yaml:"gain" mapstructure:"gain"`                 // Initial tuner gain in dB
	PPM          int           `yaml:"ppm" mapstructure:"ppm"`                   // Frequency correction in PPM
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"` // Timeout for a single block read
	ReadRetries  int           `yaml:"read_retries" mapstructure:"read_retries"` // Read attempts per frame
	RetryDelay   time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`   // Sleep between read attempts
	StartFreqMHz float64       `yaml:"start_mhz" mapstructure:"start_mhz"`       // Lower bound of the displayed range
	EndFreqMHz   float64       `yaml:"end_mhz" mapstructure:"end_mhz"`           // Upper bound of the displayed range
}

// DisplayConfig contains framebuffer and waterfall presentation parameters
type DisplayConfig struct {
	Framebuffer     string        `yaml:"framebuffer" mapstructure:"framebuffer"`           // Framebuffer device path
	TopMargin       int           `yaml:"top_margin" mapstructure:"top_margin"`             // Rows reserved for information boxes
	BottomMargin    int           `yaml:"bottom_margin" mapstructure:"bottom_margin"`       // Rows reserved for frequency labels
	LeftMargin      int           `yaml:"left_margin" mapstructure:"left_margin"`           // Columns reserved for time labels
	ScrollSpeed     float64       `yaml:"scroll_speed" mapstructure:"scroll_speed"`         // Rows per frame (truncated)
	ColorScheme     int           `yaml:"color_scheme" mapstructure:"color_scheme"`         // Palette index
	AveragingLength int           `yaml:"averaging_length" mapstructure:"averaging_length"` // Rows in the display averaging ring
	MessageDuration time.Duration `yaml:"message_duration" mapstructure:"message_duration"` // Status message lifetime
	FrameInterval   time.Duration `yaml:"frame_interval" mapstructure:"frame_interval"`     // Minimum time between frames (0 = free running)
}

// SpectrumConfig contains spectral processing parameters
type SpectrumConfig struct {
	NoiseAlpha      float64 `yaml:"noise_alpha" mapstructure:"noise_alpha"`             // Noise floor smoothing factor
	Compression     float64 `yaml:"compression" mapstructure:"compression"`             // Power-law exponent above the floor
	MedianFilter    bool    `yaml:"median_filter" mapstructure:"median_filter"`         // Apply 3-tap median before normalization
	Smoothing       bool    `yaml:"smoothing" mapstructure:"smoothing"`                 // Apply Savitzky-Golay before insert
	DetectSignals   bool    `yaml:"detect_signals" mapstructure:"detect_signals"`       // Draw detected signal markers at startup
	NoiseRingLength int     `yaml:"noise_ring_length" mapstructure:"noise_ring_length"` // Rows averaged after floor compression
}

// AGCConfig contains automatic gain control parameters
type AGCConfig struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`       // Start with AGC enabled
	Target     float64       `yaml:"target" mapstructure:"target"`         // Target mean power in dB
	Speed      float64       `yaml:"speed" mapstructure:"speed"`           // Proportional loop gain (0-1)
	MinGain    float64       `yaml:"min_gain" mapstructure:"min_gain"`     // Lower gain clamp in dB
	MaxGain    float64       `yaml:"max_gain" mapstructure:"max_gain"`     // Upper gain clamp in dB
	History    int           `yaml:"history" mapstructure:"history"`       // Power samples averaged per update
	Interval   time.Duration `yaml:"interval" mapstructure:"interval"`     // Minimum time between updates
	Hysteresis float64       `yaml:"hysteresis" mapstructure:"hysteresis"` // Minimum change applied to the device
}

// ExportConfig contains export output parameters
type ExportConfig struct {
	Directory string `yaml:"directory" mapstructure:"directory"` // Directory for snapshots, reports and images
}

// SettingsConfig locates the persisted user settings file
type SettingsConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // JSON settings file
}

// BandsConfig locates an optional band table override
type BandsConfig struct {
	File string `yaml:"file" mapstructure:"file"` // YAML file merged over the built-in table
}

// GPSConfig contains station position source parameters
type GPSConfig struct {
	Mode            string        `yaml:"mode" mapstructure:"mode"`                         // "none", "manual", "nmea" or "gpsd"
	Port            string        `yaml:"port" mapstructure:"port"`                         // Serial port device path (nmea)
	BaudRate        int           `yaml:"baud_rate" mapstructure:"baud_rate"`               // Serial baud rate (nmea)
	GPSDHost        string        `yaml:"gpsd_host" mapstructure:"gpsd_host"`               // gpsd host (gpsd)
	GPSDPort        string        `yaml:"gpsd_port" mapstructure:"gpsd_port"`               // gpsd port (gpsd)
	Timeout         time.Duration `yaml:"timeout" mapstructure:"timeout"`                   // Fix wait at startup (0 = do not wait)
	ManualLatitude  float64       `yaml:"manual_latitude" mapstructure:"manual_latitude"`   // Manual latitude in decimal degrees
	ManualLongitude float64       `yaml:"manual_longitude" mapstructure:"manual_longitude"` // Manual longitude in decimal degrees
	ManualAltitude  float64       `yaml:"manual_altitude" mapstructure:"manual_altitude"`   // Manual altitude in meters
}

// MetricsConfig contains Prometheus endpoint parameters
type MetricsConfig struct {
	Listen string `yaml:"listen" mapstructure:"listen"` // host:port, empty disables the endpoint
}

// LoggingConfig contains logging configuration parameters
type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"` // Log level (debug, info)
	File  string `yaml:"file" mapstructure:"file"`   // Log file path used while the display is active
}

// DefaultConfig returns a configuration with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Index:       0,
			Serial:      "",
			SampleRate:  2.4e6, // 2.4 MSps
			Gain:        20,    // 20 dB starting gain
			PPM:         0,
			ReadTimeout: time.Second,
			ReadRetries: 3,
			RetryDelay:  100 * time.Millisecond,
		},
		Display: DisplayConfig{
			Framebuffer:     "/dev/fb0",
			TopMargin:       30,
			BottomMargin:    30,
			LeftMargin:      0,
			ScrollSpeed:     1.0,
			ColorScheme:     0,
			AveragingLength: 5,
			MessageDuration: 3 * time.Second,
			FrameInterval:   0,
		},
		Spectrum: SpectrumConfig{
			NoiseAlpha:      0.1,
			Compression:     0.7,
			MedianFilter:    true,
			Smoothing:       true,
			DetectSignals:   false,
			NoiseRingLength: 100,
		},
		AGC: AGCConfig{
			Enabled:    false,
			Target:     -30,
			Speed:      0.3,
			MinGain:    0,
			MaxGain:    49.6,
			History:    10,
			Interval:   500 * time.Millisecond,
			Hysteresis: 0.5,
		},
		Export: ExportConfig{
			Directory: "./exports",
		},
		Settings: SettingsConfig{
			Path: DefaultSettingsPath(),
		},
		GPS: GPSConfig{
			Mode:     "none",
			Port:     "/dev/ttyUSB0",
			BaudRate: 9600,
			GPSDHost: "localhost",
			GPSDPort: "2947",
			Timeout:  0,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "heatwave.log",
		},
	}
}

// DefaultSettingsPath returns ~/.config/heatwave/settings.json, or a relative
// fallback when the home directory cannot be resolved.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".heatwave", "settings.json")
	}
	return filepath.Join(home, ".config", "heatwave", "settings.json")
}

// Validate checks the values the session cannot run without
func (c *Config) Validate() error {
	if c.Device.StartFreqMHz <= 0 || c.Device.EndFreqMHz <= 0 {
		return fmt.Errorf("frequency range not specified")
	}
	if c.Device.StartFreqMHz >= c.Device.EndFreqMHz {
		return fmt.Errorf("start frequency %.3f MHz must be below end frequency %.3f MHz",
			c.Device.StartFreqMHz, c.Device.EndFreqMHz)
	}
	if c.Device.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %.0f Hz", c.Device.SampleRate)
	}
	if c.Device.ReadRetries < 1 {
		return fmt.Errorf("read_retries must be at least 1")
	}
	if c.Display.TopMargin < 0 || c.Display.BottomMargin < 0 || c.Display.LeftMargin < 0 {
		return fmt.Errorf("display margins must not be negative")
	}
	if c.AGC.MinGain > c.AGC.MaxGain {
		return fmt.Errorf("agc min_gain %.1f exceeds max_gain %.1f", c.AGC.MinGain, c.AGC.MaxGain)
	}

	switch c.GPS.Mode {
	case "none", "":
	case "manual":
		if c.GPS.ManualLatitude < -90 || c.GPS.ManualLatitude > 90 {
			return fmt.Errorf("invalid latitude: %.8f (must be between -90 and 90 degrees)", c.GPS.ManualLatitude)
		}
		if c.GPS.ManualLongitude < -180 || c.GPS.ManualLongitude > 180 {
			return fmt.Errorf("invalid longitude: %.8f (must be between -180 and 180 degrees)", c.GPS.ManualLongitude)
		}
	case "nmea":
		if c.GPS.Port == "" {
			return fmt.Errorf("GPS port not specified for NMEA mode")
		}
	case "gpsd":
		if c.GPS.GPSDHost == "" || c.GPS.GPSDPort == "" {
			return fmt.Errorf("GPSD host and port must be specified for gpsd mode")
		}
	default:
		return fmt.Errorf("invalid GPS mode: %s (must be 'none', 'manual', 'nmea' or 'gpsd')", c.GPS.Mode)
	}

	return nil
}
