// Package agc implements the software gain control loop that steers the
// tuner gain towards a target mean spectral power.
package agc

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Default loop parameters
const (
	DefaultTarget     = -30.0 // dB
	DefaultSpeed      = 0.3
	DefaultMinGain    = 0.0  // dB
	DefaultMaxGain    = 49.6 // dB
	DefaultHistory    = 10
	DefaultInterval   = 500 * time.Millisecond
	DefaultHysteresis = 0.5 // dB

	// Bounds accepted for user supplied target and speed
	MinTarget = -60.0
	MaxTarget = 0.0
	MinSpeed  = 0.1
	MaxSpeed  = 1.0
)

// Config holds the controller parameters
type Config struct {
	Target     float64       // target mean power in dB
	Speed      float64       // proportional gain of the loop
	MinGain    float64       // lower clamp in dB
	MaxGain    float64       // upper clamp in dB
	History    int           // power samples averaged per update
	Interval   time.Duration // minimum time between updates
	Hysteresis float64       // changes at or below this are not applied
}

// DefaultConfig returns the standard loop parameters
func DefaultConfig() Config {
	return Config{
		Target:     DefaultTarget,
		Speed:      DefaultSpeed,
		MinGain:    DefaultMinGain,
		MaxGain:    DefaultMaxGain,
		History:    DefaultHistory,
		Interval:   DefaultInterval,
		Hysteresis: DefaultHysteresis,
	}
}

// Controller is a rate limited proportional controller with a dead band
// and output clamp. It does not talk to the device; Update reports when
// the caller should apply a new gain.
type Controller struct {
	cfg     Config
	enabled bool
	gain    float64

	history    []float64
	lastUpdate time.Time
}

// New creates a disabled controller starting at the given gain
func New(cfg Config, gain float64) *Controller {
	if cfg.History <= 0 {
		cfg.History = DefaultHistory
	}
	c := &Controller{cfg: cfg}
	c.gain = c.clamp(gain)
	return c
}

// Enabled reports whether the loop is active
func (c *Controller) Enabled() bool { return c.enabled }

// SetEnabled switches the loop. Enabling clears the power history.
func (c *Controller) SetEnabled(on bool) {
	if on && !c.enabled {
		c.history = nil
		c.lastUpdate = time.Time{}
	}
	c.enabled = on
}

// Gain returns the controller's view of the current gain
func (c *Controller) Gain() float64 { return c.gain }

// SetGain records a gain applied outside the loop (manual change)
func (c *Controller) SetGain(gain float64) {
	c.gain = c.clamp(gain)
}

// Target returns the target power in dB
func (c *Controller) Target() float64 { return c.cfg.Target }

// SetTarget changes the target power
func (c *Controller) SetTarget(target float64) { c.cfg.Target = target }

// Speed returns the loop gain
func (c *Controller) Speed() float64 { return c.cfg.Speed }

// SetSpeed changes the loop gain
func (c *Controller) SetSpeed(speed float64) { c.cfg.Speed = speed }

// Update feeds one spectrum row (in dB) observed at now. It returns the new
// gain and true when the caller should apply it to the device.
func (c *Controller) Update(row []float64, now time.Time) (float64, bool) {
	if !c.enabled || len(row) == 0 {
		return c.gain, false
	}
	if !c.lastUpdate.IsZero() && now.Sub(c.lastUpdate) < c.cfg.Interval {
		return c.gain, false
	}

	c.history = append(c.history, stat.Mean(row, nil))
	if len(c.history) > c.cfg.History {
		c.history = c.history[1:]
	}
	smoothed := stat.Mean(c.history, nil)

	delta := (c.cfg.Target - smoothed) * c.cfg.Speed
	proposed := c.clamp(c.gain + delta)
	c.lastUpdate = now

	if math.Abs(proposed-c.gain) <= c.cfg.Hysteresis {
		return c.gain, false
	}
	c.gain = proposed
	return c.gain, true
}

func (c *Controller) clamp(g float64) float64 {
	return math.Min(math.Max(g, c.cfg.MinGain), c.cfg.MaxGain)
}
