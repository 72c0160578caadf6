//go:build !rtlsdr

package rtlsdr

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Tone is a carrier produced by the synthetic receiver
type Tone struct {
	Frequency float64 // Hz
	Amplitude float64 // linear, full scale = 1 at 30 dB gain
}

// SyntheticTones are the carriers heard by the synthetic receiver
var SyntheticTones = []Tone{
	{Frequency: 88.5e6, Amplitude: 0.20},
	{Frequency: 100.1e6, Amplitude: 0.30},
	{Frequency: 101.7e6, Amplitude: 0.10},
	{Frequency: 121.5e6, Amplitude: 0.05},
	{Frequency: 145.5e6, Amplitude: 0.08},
	{Frequency: 162.55e6, Amplitude: 0.06},
	{Frequency: 433.92e6, Amplitude: 0.15},
}

var syntheticInfo = DeviceInfo{
	Index:        0,
	Name:         "Synthetic RTL-SDR",
	Manufacturer: "heatwave",
	Product:      "Synthetic receiver",
	SerialNumber: "00000001",
}

// Device is a synthetic receiver used when hardware support is not compiled in
type Device struct {
	info DeviceInfo
	tuning

	active bool
	sample uint64 // running sample index for phase continuity
	noise  *rand.Rand
}

// Open opens the synthetic receiver. Only index 0 exists.
func Open(index int) (*Device, error) {
	if index != 0 {
		return nil, fmt.Errorf("device index %d out of range (found 1 devices)", index)
	}
	return &Device{
		info:  syntheticInfo,
		noise: rand.New(rand.NewPCG(1, 2)),
		tuning: tuning{
			frequency:  100e6,
			sampleRate: 2048000,
			gain:       20,
		},
	}, nil
}

// OpenBySerial opens the synthetic receiver if the serial matches
func OpenBySerial(serialNumber string) (*Device, error) {
	if serialNumber != syntheticInfo.SerialNumber {
		return nil, fmt.Errorf("no RTL-SDR device found with serial number: %s", serialNumber)
	}
	return Open(0)
}

// ListDevices returns the synthetic receiver
func ListDevices() ([]DeviceInfo, error) {
	return []DeviceInfo{syntheticInfo}, nil
}

// Info describes the receiver
func (d *Device) Info() string {
	return d.info.String()
}

// SetSampleRate stores the nearest supported rate
func (d *Device) SetSampleRate(rate uint32) error {
	if rate == 0 {
		return fmt.Errorf("failed to set sample rate to %d Hz", rate)
	}
	d.sampleRate = NearestSampleRate(rate)
	return nil
}

// SampleRate returns the applied rate
func (d *Device) SampleRate() uint32 { return d.sampleRate }

// SetFrequency stores the tuned frequency
func (d *Device) SetFrequency(freq uint32) error {
	d.frequencyValid = false
	if freq == 0 {
		return fmt.Errorf("failed to set frequency to %d Hz", freq)
	}
	d.frequency = freq
	return nil
}

// Frequency returns the last applied frequency
func (d *Device) Frequency() uint32 { return d.frequency }

// SetGain stores the gain in dB
func (d *Device) SetGain(gain float64) error {
	d.gainValid = false
	if gain < 0 || gain > 49.6 {
		return fmt.Errorf("failed to set gain to %.1f dB", gain)
	}
	d.gain = gain
	return nil
}

// Gain returns the last applied gain in dB
func (d *Device) Gain() float64 { return d.gain }

// SetFrequencyCorrection stores the correction in ppm
func (d *Device) SetFrequencyCorrection(ppm int) error {
	d.ppm = ppm
	return nil
}

// Activate starts producing samples
func (d *Device) Activate() error {
	d.active = true
	return nil
}

// Read fills buf with noise plus every synthetic tone inside the passband
func (d *Device) Read(buf []complex64, timeout time.Duration) (int, error) {
	if !d.active {
		return 0, ErrNotActive
	}

	rate := float64(d.sampleRate)
	center := float64(d.frequency) * (1 + float64(d.ppm)*1e-6)
	scale := math.Pow(10, (d.gain-30)/20)
	const noiseSigma = 0.002

	for i := range buf {
		re := d.noise.NormFloat64() * noiseSigma * scale
		im := d.noise.NormFloat64() * noiseSigma * scale
		t := float64(d.sample+uint64(i)) / rate
		for _, tone := range SyntheticTones {
			offset := tone.Frequency - center
			if math.Abs(offset) >= rate/2 {
				continue
			}
			phase := 2 * math.Pi * offset * t
			re += tone.Amplitude * scale * math.Cos(phase)
			im += tone.Amplitude * scale * math.Sin(phase)
		}
		buf[i] = complex(float32(clip(re)), float32(clip(im)))
	}
	d.sample += uint64(len(buf))
	return len(buf), nil
}

// clip mimics the 8-bit converter saturating at full scale
func clip(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// Deactivate stops producing samples
func (d *Device) Deactivate() error {
	d.active = false
	return nil
}

// Close releases the receiver
func (d *Device) Close() error {
	d.active = false
	return nil
}
