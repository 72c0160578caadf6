//go:build rtlsdr

package rtlsdr

import (
	"fmt"
	"log"
	"time"

	rtl "github.com/jpoirier/gortlsdr"
)

// Device is an opened RTL-SDR receiver
type Device struct {
	dev  *rtl.Context
	info DeviceInfo
	tuning

	requests chan int
	results  chan readResult
	done     chan struct{}
	stopped  chan struct{}
}

type readResult struct {
	data []byte
	err  error
}

// Open opens the receiver at a 0-based index in manual gain mode
func Open(index int) (*Device, error) {
	count := rtl.GetDeviceCount()
	if count == 0 {
		return nil, ErrNoDevice
	}
	if index < 0 || index >= count {
		return nil, fmt.Errorf("device index %d out of range (found %d devices)", index, count)
	}

	dev, err := rtl.Open(index)
	if err != nil {
		return nil, fmt.Errorf("failed to open RTL-SDR device: %w", err)
	}
	if err := dev.SetTunerGainMode(true); err != nil {
		dev.Close()
		return nil, fmt.Errorf("failed to select manual gain mode: %w", err)
	}

	return &Device{dev: dev, info: describe(index)}, nil
}

// OpenBySerial opens the receiver with the given USB serial number
func OpenBySerial(serialNumber string) (*Device, error) {
	count := rtl.GetDeviceCount()
	if count == 0 {
		return nil, ErrNoDevice
	}
	for i := 0; i < count; i++ {
		_, _, serial, err := rtl.GetDeviceUsbStrings(i)
		if err != nil {
			continue
		}
		if serial == serialNumber {
			return Open(i)
		}
	}
	return nil, fmt.Errorf("no RTL-SDR device found with serial number: %s", serialNumber)
}

// ListDevices returns information about all connected receivers
func ListDevices() ([]DeviceInfo, error) {
	count := rtl.GetDeviceCount()
	if count == 0 {
		return nil, ErrNoDevice
	}
	devices := make([]DeviceInfo, 0, count)
	for i := 0; i < count; i++ {
		devices = append(devices, describe(i))
	}
	return devices, nil
}

func describe(index int) DeviceInfo {
	info := DeviceInfo{
		Index:        index,
		Name:         rtl.GetDeviceName(index),
		Manufacturer: "Unknown",
		Product:      "Unknown",
		SerialNumber: "Unknown",
	}
	if manufacturer, product, serial, err := rtl.GetDeviceUsbStrings(index); err == nil {
		info.Manufacturer = manufacturer
		info.Product = product
		info.SerialNumber = serial
	}
	return info
}

// Info describes the opened receiver
func (d *Device) Info() string {
	return d.info.String()
}

// SetSampleRate sets the sample rate in Hz, falling back to the nearest
// supported rate when the tuner rejects the request.
func (d *Device) SetSampleRate(rate uint32) error {
	if err := d.dev.SetSampleRate(int(rate)); err != nil {
		fallback := NearestSampleRate(rate)
		if fallback == rate {
			return fmt.Errorf("failed to set sample rate to %d Hz: %w", rate, err)
		}
		if err := d.dev.SetSampleRate(int(fallback)); err != nil {
			return fmt.Errorf("failed to set sample rate to %d Hz (tried fallback %d Hz): %w", rate, fallback, err)
		}
		log.Printf("Device: requested sample rate %d Hz not supported, using %d Hz instead", rate, fallback)
		rate = fallback
	}
	d.sampleRate = rate
	return nil
}

// SampleRate returns the rate reported by the tuner
func (d *Device) SampleRate() uint32 {
	if rate := d.dev.GetSampleRate(); rate > 0 {
		return uint32(rate)
	}
	return d.sampleRate
}

// SetFrequency tunes the receiver to freq Hz
func (d *Device) SetFrequency(freq uint32) error {
	d.frequencyValid = false
	if err := d.dev.SetCenterFreq(int(freq)); err != nil {
		return fmt.Errorf("failed to set frequency to %d Hz: %w", freq, err)
	}
	d.frequency = freq
	return nil
}

// Frequency returns the tuned frequency in Hz as reported by the device,
// or the last applied value when the device cannot report it.
func (d *Device) Frequency() uint32 {
	if !d.frequencyValid {
		if f := d.dev.GetCenterFreq(); f > 0 {
			d.frequency = uint32(f)
			d.frequencyValid = true
		}
	}
	return d.frequency
}

// SetGain sets the tuner gain in dB
func (d *Device) SetGain(gain float64) error {
	d.gainValid = false
	tenths := int(gain * 10)
	if err := d.dev.SetTunerGain(tenths); err != nil {
		return fmt.Errorf("failed to set gain to %.1f dB: %w", gain, err)
	}
	d.gain = gain
	return nil
}

// Gain returns the tuner gain in dB as reported by the device, or the last
// applied value when the device cannot report it.
func (d *Device) Gain() float64 {
	if !d.gainValid {
		if g := d.dev.GetTunerGain(); g > 0 {
			d.gain = float64(g) / 10
			d.gainValid = true
		}
	}
	return d.gain
}

// SetFrequencyCorrection applies a crystal correction in parts per million
func (d *Device) SetFrequencyCorrection(ppm int) error {
	if ppm == d.ppm {
		return nil
	}
	if err := d.dev.SetFreqCorrection(ppm); err != nil {
		return fmt.Errorf("failed to set frequency correction to %d ppm: %w", ppm, err)
	}
	d.ppm = ppm
	d.frequencyValid = false
	return nil
}

// Activate resets the USB buffer and starts the transfer goroutine.
// ReadSync has no timeout of its own, so transfers run off the caller's
// goroutine and Read waits on them with a deadline.
func (d *Device) Activate() error {
	if d.requests != nil {
		return nil
	}
	if d.stopped != nil && !waitStopped(d.stopped, 0) {
		return ErrTransferPending
	}
	if err := d.dev.ResetBuffer(); err != nil {
		return fmt.Errorf("failed to reset buffer: %w", err)
	}
	d.requests = make(chan int)
	d.results = make(chan readResult, 1)
	d.done = make(chan struct{})
	d.stopped = make(chan struct{})
	go d.stream(d.requests, d.results, d.done, d.stopped)
	return nil
}

func (d *Device) stream(requests <-chan int, results chan<- readResult, done, stopped chan struct{}) {
	defer close(stopped)
	for {
		select {
		case <-done:
			return
		case n := <-requests:
			buf := make([]byte, n)
			nRead, err := d.dev.ReadSync(buf, n)
			r := readResult{data: buf[:max(nRead, 0)], err: err}
			select {
			case results <- r:
			default:
			}
		}
	}
}

// Read fills buf with one block of samples and returns the count.
// It returns ErrTimeout when the transfer does not complete in time.
func (d *Device) Read(buf []complex64, timeout time.Duration) (int, error) {
	if d.requests == nil {
		return 0, ErrNotActive
	}

	// Discard a block that arrived after an earlier timeout
	select {
	case <-d.results:
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case d.requests <- readLength(len(buf)):
	case <-timer.C:
		return 0, ErrTimeout
	}

	select {
	case r := <-d.results:
		if r.err != nil {
			return 0, fmt.Errorf("failed to read samples: %w", r.err)
		}
		return ConvertSamples(buf, r.data), nil
	case <-timer.C:
		return 0, ErrTimeout
	}
}

// Deactivate stops the transfer goroutine
func (d *Device) Deactivate() error {
	if d.requests == nil {
		return nil
	}
	close(d.done)
	if !waitStopped(d.stopped, transferGrace) {
		log.Printf("Device: transfer still pending at deactivate")
	}
	d.requests = nil
	return nil
}

// Close stops streaming and releases the device. A transfer that never
// returned still owns the handle, so the device is left open in that case.
func (d *Device) Close() error {
	d.Deactivate()
	if d.stopped != nil && !waitStopped(d.stopped, 0) {
		log.Printf("Device: transfer still running, leaving the device open")
		return ErrTransferPending
	}
	if d.dev != nil {
		err := d.dev.Close()
		d.dev = nil
		return err
	}
	return nil
}
