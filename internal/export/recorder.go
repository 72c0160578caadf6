package export

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"
)

// RecordingName is the file name of an IQ recording started at now
func RecordingName(now time.Time) string {
	return "spectrum_" + now.Format(TimestampLayout) + ".iq"
}

// Recorder appends raw complex64 samples to a file as interleaved
// little-endian float32 I/Q pairs
type Recorder struct {
	file    *os.File
	w       *bufio.Writer
	path    string
	samples int64
	buf     []byte
}

// StartRecording creates a new recording in dir
func StartRecording(dir string, now time.Time) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, RecordingName(now))
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording: %w", err)
	}
	return &Recorder{
		file: file,
		w:    bufio.NewWriterSize(file, 1<<16),
		path: path,
	}, nil
}

// Path returns the recording file path
func (r *Recorder) Path() string { return r.path }

// Samples returns the number of samples written
func (r *Recorder) Samples() int64 { return r.samples }

// Write appends samples
func (r *Recorder) Write(samples []complex64) error {
	need := len(samples) * 8
	if cap(r.buf) < need {
		r.buf = make([]byte, need)
	}
	b := r.buf[:need]
	for i, s := range samples {
		binary.LittleEndian.PutUint32(b[i*8:], math.Float32bits(real(s)))
		binary.LittleEndian.PutUint32(b[i*8+4:], math.Float32bits(imag(s)))
	}
	if _, err := r.w.Write(b); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	r.samples += int64(len(samples))
	return nil
}

// Close flushes and closes the recording
func (r *Recorder) Close() error {
	flushErr := r.w.Flush()
	closeErr := r.file.Close()
	if flushErr != nil {
		return fmt.Errorf("failed to flush recording: %w", flushErr)
	}
	return closeErr
}

// ReadIQ reads a recording written by Recorder
func ReadIQ(path string) ([]complex64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat recording: %w", err)
	}
	if info.Size()%8 != 0 {
		return nil, fmt.Errorf("recording size %d is not a whole number of samples", info.Size())
	}

	data := make([]byte, info.Size())
	if _, err := io.ReadFull(file, data); err != nil {
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}
	samples := make([]complex64, len(data)/8)
	for i := range samples {
		re := math.Float32frombits(binary.LittleEndian.Uint32(data[i*8:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(data[i*8+4:]))
		samples[i] = complex(re, im)
	}
	return samples, nil
}
