// Package settings persists the user adjustable display and receiver state
// between runs.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ErrNoSettings is returned by Load when no settings file exists yet
var ErrNoSettings = errors.New("no saved settings")

// Markers maps a marker slot (1-5) to a frequency in Hz. Slots are written
// as string keys in JSON.
type Markers map[int]float64

// Slots returns the set slots in ascending order
func (m Markers) Slots() []int {
	slots := make([]int, 0, len(m))
	for k := range m {
		slots = append(slots, k)
	}
	sort.Ints(slots)
	return slots
}

// Clone returns an independent copy
func (m Markers) Clone() Markers {
	out := make(Markers, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Settings is the persisted session state
type Settings struct {
	SampleRate  float64 `json:"sample_rate"`  // Hz
	ColorScheme int     `json:"color_scheme"` // palette index
	ScrollSpeed float64 `json:"scroll_speed"`
	CurrentGain float64 `json:"current_gain"` // dB
	AGCEnabled  bool    `json:"agc_enabled"`
	AGCTarget   float64 `json:"agc_target"` // dB
	AGCSpeed    float64 `json:"agc_speed"`
	PeakHold    bool    `json:"peak_hold"`
	Averaging   bool    `json:"averaging"`
	AutoScale   bool    `json:"auto_scale"`
	Markers     Markers `json:"markers"`
	CursorStep  float64 `json:"cursor_step"` // Hz
	PPM         int     `json:"ppm"`
}

// Defaults returns the settings used when nothing has been saved
func Defaults(sampleRate float64) Settings {
	return Settings{
		SampleRate:  sampleRate,
		ScrollSpeed: 1.0,
		CurrentGain: 20,
		AGCTarget:   -30,
		AGCSpeed:    0.3,
		AutoScale:   true,
		Markers:     Markers{},
		CursorStep:  0.1e6,
	}
}

// Store reads and writes settings at a fixed path
type Store struct {
	path string
}

// NewStore creates a store for the file at path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the settings file location
func (s *Store) Path() string { return s.path }

// Load reads the settings file. Fields missing from the file keep their
// value from base. A missing file yields base and ErrNoSettings.
func (s *Store) Load(base Settings) (Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return base, ErrNoSettings
		}
		return base, fmt.Errorf("failed to read settings: %w", err)
	}

	loaded := base
	loaded.Markers = nil
	if err := json.Unmarshal(data, &loaded); err != nil {
		return base, fmt.Errorf("failed to parse settings: %w", err)
	}
	if loaded.Markers == nil {
		loaded.Markers = Markers{}
	}
	return loaded, nil
}

// Save writes the settings file, creating parent directories as needed
func (s *Store) Save(st Settings) error {
	if st.Markers == nil {
		st.Markers = Markers{}
	}
	data, err := json.MarshalIndent(st, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
