// Package rtlsdr opens RTL-SDR receivers and streams IQ sample blocks from them.
// The hardware driver is compiled in with the "rtlsdr" build tag; without it a
// synthetic receiver with the same API is used.
package rtlsdr

import (
	"errors"
	"fmt"
	"time"
)

// transferGrace is how long Deactivate waits for an in-flight transfer
const transferGrace = 2 * time.Second

var (
	// ErrTimeout is returned when a sample block does not arrive in time
	ErrTimeout = errors.New("stream read timed out")
	// ErrNotActive is returned by Read before Activate
	ErrNotActive = errors.New("stream not active")
	// ErrNoDevice is returned when no receiver is connected
	ErrNoDevice = errors.New("no RTL-SDR devices found")
	// ErrTransferPending is returned while a transfer outlives Deactivate
	ErrTransferPending = errors.New("sample transfer still in progress")
)

// DeviceInfo contains information about an RTL-SDR device
type DeviceInfo struct {
	Index        int    // Device index (0-based)
	Name         string // Device name
	Manufacturer string // USB manufacturer string
	Product      string // USB product string
	SerialNumber string // USB serial number string
}

func (i DeviceInfo) String() string {
	return fmt.Sprintf("%s (%s %s, SN: %s)", i.Name, i.Manufacturer, i.Product, i.SerialNumber)
}

// SampleRates lists rates every RTL2832U tuner accepts, in Hz
var SampleRates = []uint32{
	250000,  // 250 kHz
	1024000, // 1.024 MHz
	1536000, // 1.536 MHz
	1792000, // 1.792 MHz
	1920000, // 1.92 MHz
	2048000, // 2.048 MHz
	2160000, // 2.16 MHz
	2560000, // 2.56 MHz
	2880000, // 2.88 MHz
	3200000, // 3.2 MHz (maximum for most devices)
}

// NearestSampleRate returns the supported rate closest to the requested one
func NearestSampleRate(requested uint32) uint32 {
	best := SampleRates[0]
	minDiff := ^uint32(0)
	for _, rate := range SampleRates {
		var diff uint32
		if rate > requested {
			diff = rate - requested
		} else {
			diff = requested - rate
		}
		if diff < minDiff {
			minDiff = diff
			best = rate
		}
	}
	return best
}

// readLength is the USB transfer size for a block of samples. The driver
// requires multiples of 512 bytes.
func readLength(samples int) int {
	n := samples * 2
	if rem := n % 512; rem != 0 {
		n += 512 - rem
	}
	return n
}

// ConvertSamples converts interleaved unsigned 8-bit I/Q bytes to complex
// samples in [-1, 1] and returns the number of samples written to dst.
func ConvertSamples(dst []complex64, raw []byte) int {
	n := len(raw) / 2
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		iv := (float32(raw[2*i]) - 127.5) / 127.5
		qv := (float32(raw[2*i+1]) - 127.5) / 127.5
		dst[i] = complex(iv, qv)
	}
	return n
}

// tuning mirrors the last applied receiver settings. A getter reads the
// device when it can; a setter invalidates the mirror.
type tuning struct {
	frequency  uint32
	sampleRate uint32
	gain       float64 // dB
	ppm        int

	frequencyValid bool
	gainValid      bool
}

// waitStopped reports whether stopped is closed within timeout. A zero
// timeout only checks.
func waitStopped(stopped <-chan struct{}, timeout time.Duration) bool {
	if timeout <= 0 {
		select {
		case <-stopped:
			return true
		default:
			return false
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-stopped:
		return true
	case <-timer.C:
		return false
	}
}
