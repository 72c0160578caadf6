//go:build !rtlsdr

package rtlsdr

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"
	"time"
)

func TestNearestSampleRate(t *testing.T) {
	cases := map[uint32]uint32{
		2048000: 2048000,
		2400000: 2560000,
		2000000: 2048000,
		100000:  250000,
		5000000: 3200000,
	}
	for in, want := range cases {
		if got := NearestSampleRate(in); got != want {
			t.Errorf("NearestSampleRate(%d) = %d, expected %d", in, got, want)
		}
	}
}

func TestReadLength(t *testing.T) {
	if n := readLength(1024); n != 2048 {
		t.Errorf("readLength(1024) = %d", n)
	}
	if n := readLength(300); n != 1024 {
		t.Errorf("readLength(300) = %d, expected a multiple of 512", n)
	}
}

func TestConvertSamples(t *testing.T) {
	raw := []byte{0, 255, 127, 128, 255}
	dst := make([]complex64, 4)
	n := ConvertSamples(dst, raw)
	if n != 2 {
		t.Fatalf("Converted %d samples, expected 2", n)
	}
	if real(dst[0]) != -1 || imag(dst[0]) != 1 {
		t.Errorf("Full scale sample = %v", dst[0])
	}
	if math.Abs(float64(real(dst[1]))+0.5/127.5) > 1e-6 || math.Abs(float64(imag(dst[1]))-0.5/127.5) > 1e-6 {
		t.Errorf("Midscale sample = %v", dst[1])
	}
}

func TestSyntheticDevice(t *testing.T) {
	devices, err := ListDevices()
	if err != nil || len(devices) != 1 {
		t.Fatalf("ListDevices = %v, %v", devices, err)
	}
	if _, err := Open(3); err == nil {
		t.Fatalf("Expected error for missing index")
	}

	dev, err := OpenBySerial(devices[0].SerialNumber)
	if err != nil {
		t.Fatalf("OpenBySerial failed: %v", err)
	}
	defer dev.Close()

	buf := make([]complex64, 1024)
	if _, err := dev.Read(buf, time.Second); !errors.Is(err, ErrNotActive) {
		t.Fatalf("Read before Activate returned %v", err)
	}

	dev.SetSampleRate(2400000)
	if dev.SampleRate() != 2560000 {
		t.Errorf("Sample rate = %d", dev.SampleRate())
	}
	if err := dev.SetFrequency(100100000); err != nil || dev.Frequency() != 100100000 {
		t.Fatalf("SetFrequency: %v, got %d", err, dev.Frequency())
	}
	if err := dev.SetGain(80); err == nil {
		t.Errorf("Expected error for gain above the tuner range")
	}
	dev.SetGain(30)
	if dev.Gain() != 30 {
		t.Errorf("Gain = %.1f", dev.Gain())
	}

	if err := dev.Activate(); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	n, err := dev.Read(buf, time.Second)
	if err != nil || n != len(buf) {
		t.Fatalf("Read = %d, %v", n, err)
	}

	// The 100.1 MHz carrier sits at DC and dominates the block mean
	var sum complex128
	for _, s := range buf {
		sum += complex128(s)
	}
	if mag := cmplx.Abs(sum / complex(float64(len(buf)), 0)); mag < 0.2 {
		t.Errorf("Expected the centered carrier in the block mean, got %.3f", mag)
	}

	dev.Deactivate()
	if _, err := dev.Read(buf, time.Second); !errors.Is(err, ErrNotActive) {
		t.Fatalf("Read after Deactivate returned %v", err)
	}
}
