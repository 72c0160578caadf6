package agc

import (
	"math"
	"testing"
	"time"
)

func constRow(v float64) []float64 {
	return []float64{v, v, v, v}
}

func TestSingleStepDelta(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Speed = 0.5
	c := New(cfg, 20)
	c.SetEnabled(true)

	gain, changed := c.Update(constRow(-50), time.Now())
	if !changed {
		t.Fatalf("Expected a gain change for a 20 dB error")
	}
	if math.Abs(gain-30) > 1e-9 {
		t.Fatalf("Expected gain 30 dB (+10), got %.2f", gain)
	}
}

func TestDisabledDoesNothing(t *testing.T) {
	c := New(DefaultConfig(), 20)
	if _, changed := c.Update(constRow(-90), time.Now()); changed {
		t.Fatalf("Disabled controller must not request changes")
	}
}

func TestRateLimit(t *testing.T) {
	c := New(DefaultConfig(), 20)
	c.SetEnabled(true)
	now := time.Now()

	if _, changed := c.Update(constRow(-60), now); !changed {
		t.Fatalf("First update should apply")
	}
	if _, changed := c.Update(constRow(-60), now.Add(100*time.Millisecond)); changed {
		t.Fatalf("Update inside the interval must be skipped")
	}
	if _, changed := c.Update(constRow(-60), now.Add(600*time.Millisecond)); !changed {
		t.Fatalf("Update after the interval should apply")
	}
}

func TestHysteresis(t *testing.T) {
	c := New(DefaultConfig(), 20)
	c.SetEnabled(true)

	// error 1 dB * 0.3 = 0.3 dB, below the dead band
	if gain, changed := c.Update(constRow(-31), time.Now()); changed || gain != 20 {
		t.Fatalf("Small correction should be suppressed, got %.2f (changed=%v)", gain, changed)
	}
}

func TestGainStaysClampedAndMonotonic(t *testing.T) {
	c := New(DefaultConfig(), 5)
	c.SetEnabled(true)
	now := time.Now()

	prev := c.Gain()
	for i := 0; i < 200; i++ {
		now = now.Add(time.Second)
		gain, _ := c.Update(constRow(-80), now)
		if gain < DefaultMinGain || gain > DefaultMaxGain {
			t.Fatalf("Gain %.2f left the [%.1f, %.1f] range", gain, DefaultMinGain, DefaultMaxGain)
		}
		if gain < prev {
			t.Fatalf("Gain decreased from %.2f to %.2f with input below target", prev, gain)
		}
		prev = gain
	}
	if prev != DefaultMaxGain {
		t.Fatalf("Expected gain to saturate at %.1f, got %.2f", DefaultMaxGain, prev)
	}

	// Strong input drives it back down without passing the floor
	for i := 0; i < 200; i++ {
		now = now.Add(time.Second)
		gain, _ := c.Update(constRow(40), now)
		if gain < DefaultMinGain {
			t.Fatalf("Gain %.2f below minimum", gain)
		}
	}
	if c.Gain() != DefaultMinGain {
		t.Fatalf("Expected gain to saturate at %.1f, got %.2f", DefaultMinGain, c.Gain())
	}
}

func TestEnableClearsHistory(t *testing.T) {
	c := New(DefaultConfig(), 20)
	c.SetEnabled(true)
	now := time.Now()
	c.Update(constRow(10), now)

	c.SetEnabled(false)
	c.SetEnabled(true)
	if len(c.history) != 0 {
		t.Fatalf("Expected empty history after enabling, got %d samples", len(c.history))
	}
}
