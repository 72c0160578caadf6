package command

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"heatwave/internal/agc"
)

// Value limits
const (
	MinGain       = agc.DefaultMinGain
	MaxGain       = agc.DefaultMaxGain
	MinSampleRate = 0.25e6
	MaxSampleRate = 3.2e6
	MinSpeed      = 0.05
	MaxSpeed      = 2.0
	SpeedStep     = 0.05
	MinPPM        = -100
	MaxPPM        = 100
	MinAGCTarget  = agc.MinTarget
	MaxAGCTarget  = agc.MaxTarget
	MinAGCSpeed   = agc.MinSpeed
	MaxAGCSpeed   = agc.MaxSpeed
)

var (
	// ErrOutOfRange is returned for a well formed value outside its limits
	ErrOutOfRange = errors.New("value out of range")
	// ErrInvalidNumber is returned when input does not parse as a number
	ErrInvalidNumber = errors.New("invalid number")
)

// InputError carries the message shown to the user for rejected input
type InputError struct {
	Msg string
	Err error // ErrOutOfRange or ErrInvalidNumber
}

func (e *InputError) Error() string { return e.Msg }

func (e *InputError) Unwrap() error { return e.Err }

func outOfRange(format string, args ...interface{}) error {
	return &InputError{Msg: fmt.Sprintf(format, args...), Err: ErrOutOfRange}
}

func invalid(msg string) error {
	return &InputError{Msg: msg, Err: ErrInvalidNumber}
}

// ParseFrequency reads a frequency in Hz. A trailing "M" (any case) marks
// the number as MHz.
func ParseFrequency(input string) (float64, error) {
	s := strings.ToUpper(strings.TrimSpace(input))
	scale := 1.0
	if strings.HasSuffix(s, "M") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "M"))
		scale = 1e6
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalid("Invalid frequency format")
	}
	return v * scale, nil
}

func parseNumber(input, msg string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalid(msg)
	}
	return v, nil
}

// ParseJump reads a jump target, which must lie inside the outer bounds
func ParseJump(input string, v View) (float64, error) {
	freq, err := ParseFrequency(input)
	if err != nil {
		return 0, err
	}
	if freq < v.Start || freq > v.End {
		return 0, outOfRange("Frequency must be between %.3f and %.3f MHz", v.Start/1e6, v.End/1e6)
	}
	return freq, nil
}

// ParseStart reads a new lower bound in MHz and returns it in Hz
func ParseStart(input string, end float64) (float64, error) {
	mhz, err := parseNumber(input, "Invalid frequency format. Please enter a number.")
	if err != nil {
		return 0, err
	}
	start := mhz * 1e6
	if start < MinStartFreq || start >= end {
		return 0, outOfRange("Start frequency must be between 24 MHz and end frequency")
	}
	return start, nil
}

// ParseEnd reads a new upper bound in MHz and returns it in Hz
func ParseEnd(input string, start float64) (float64, error) {
	mhz, err := parseNumber(input, "Invalid frequency format. Please enter a number.")
	if err != nil {
		return 0, err
	}
	end := mhz * 1e6
	if end <= start || end > MaxEndFreq {
		return 0, outOfRange("End frequency must be between start frequency and 1766 MHz")
	}
	return end, nil
}

// ParseGain reads a tuner gain in dB
func ParseGain(input string) (float64, error) {
	gain, err := parseNumber(input, "Invalid gain format")
	if err != nil {
		return 0, err
	}
	if gain < MinGain || gain > MaxGain {
		return 0, outOfRange("Gain must be between 0 and 49.6 dB")
	}
	return gain, nil
}

// ParseSampleRate reads a sample rate in MHz and returns it in Hz
func ParseSampleRate(input string) (float64, error) {
	mhz, err := parseNumber(input, "Invalid rate format. Please enter a number.")
	if err != nil {
		return 0, err
	}
	rate := mhz * 1e6
	if rate < MinSampleRate || rate > MaxSampleRate {
		return 0, outOfRange("Rate out of valid range (0.25-3.2 MHz)")
	}
	return rate, nil
}

// ParseAGCTarget reads an AGC target level in dB
func ParseAGCTarget(input string) (float64, error) {
	target, err := parseNumber(input, "Invalid target value")
	if err != nil {
		return 0, err
	}
	if target < MinAGCTarget || target > MaxAGCTarget {
		return 0, outOfRange("Target must be between -60 and 0 dB")
	}
	return target, nil
}

// ParseAGCSpeed reads an AGC loop speed
func ParseAGCSpeed(input string) (float64, error) {
	speed, err := parseNumber(input, "Invalid speed value")
	if err != nil {
		return 0, err
	}
	if speed < MinAGCSpeed || speed > MaxAGCSpeed {
		return 0, outOfRange("Speed must be between 0.1 and 1.0")
	}
	return speed, nil
}
