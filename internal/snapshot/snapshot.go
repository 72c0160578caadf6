// Package snapshot reads and writes waterfall snapshots: the intensity grid
// with its frequency axis, row timestamps and capture metadata.
//
// Layout (little endian): magic "HWAVE", uint16 version, uint32 width,
// uint32 height, float64 sample rate, float64 start and end frequency,
// int64+int32 capture time, float64 latitude, longitude and altitude,
// three length prefixed strings (station source, device info, snapshot ID),
// uint32 payload length and a zstd compressed payload holding one int64
// UnixNano timestamp per row followed by the rows as float32.
package snapshot

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	magic = "HWAVE"

	// FormatVersion is the version written by Encode
	FormatVersion uint16 = 1

	// Extension is the file suffix used for snapshots
	Extension = ".hws"

	maxCells = 1 << 26
)

// ErrInvalidFormat is returned for data that is not a readable snapshot
var ErrInvalidFormat = errors.New("invalid snapshot format")

// Station is the receiver position at capture time
type Station struct {
	Latitude  float64
	Longitude float64
	Altitude  float64 // meters
	Source    string  // manual, nmea, gpsd or empty when unknown
}

// Metadata is the snapshot header
type Metadata struct {
	FormatVersion uint16
	Width         int
	Height        int
	SampleRate    float64 // Hz
	StartFreq     float64 // Hz at the left edge
	EndFreq       float64 // Hz at the right edge
	CaptureTime   time.Time
	Station       Station
	DeviceInfo    string
	SnapshotID    string
}

// Frequencies returns the frequency of each column's left edge
func (m *Metadata) Frequencies() []float64 {
	freqs := make([]float64, m.Width)
	if m.Width == 0 {
		return freqs
	}
	step := (m.EndFreq - m.StartFreq) / float64(m.Width)
	for i := range freqs {
		freqs[i] = m.StartFreq + float64(i)*step
	}
	return freqs
}

// Snapshot is a complete waterfall dump, oldest row first
type Snapshot struct {
	Metadata
	Rows       [][]float64
	Timestamps []time.Time // zero for rows never written
}

// Write stores the snapshot at path, creating parent directories
func Write(path string, s *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	w := bufio.NewWriter(file)
	if err := Encode(w, s); err != nil {
		file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return file.Close()
}

// Encode writes the snapshot to w
func Encode(w io.Writer, s *Snapshot) error {
	if len(s.Rows) != s.Height || len(s.Timestamps) != s.Height {
		return fmt.Errorf("snapshot has %d rows and %d timestamps, header says %d", len(s.Rows), len(s.Timestamps), s.Height)
	}
	for i, row := range s.Rows {
		if len(row) != s.Width {
			return fmt.Errorf("snapshot row %d has %d columns, header says %d", i, len(row), s.Width)
		}
	}

	payload, err := compressPayload(s)
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, magic); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	capture := s.CaptureTime
	fields := []interface{}{
		FormatVersion,
		uint32(s.Width),
		uint32(s.Height),
		s.SampleRate,
		s.StartFreq,
		s.EndFreq,
		capture.Unix(),
		int32(capture.Nanosecond()),
		s.Station.Latitude,
		s.Station.Longitude,
		s.Station.Altitude,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for _, str := range []string{s.Station.Source, s.DeviceInfo, s.SnapshotID} {
		if err := writeString(w, str); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(payload))); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}

func compressPayload(s *Snapshot) ([]byte, error) {
	raw := make([]byte, 0, s.Height*8+s.Width*s.Height*4)
	for _, ts := range s.Timestamps {
		var nanos int64
		if !ts.IsZero() {
			nanos = ts.UnixNano()
		}
		raw = binary.LittleEndian.AppendUint64(raw, uint64(nanos))
	}
	for _, row := range s.Rows {
		for _, v := range row {
			raw = binary.LittleEndian.AppendUint32(raw, math.Float32bits(float32(v)))
		}
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create compressor: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/4)), nil
}

func writeString(w io.Writer, s string) error {
	b := []byte(s)
	if len(b) > 255 {
		b = b[:255]
	}
	if _, err := w.Write([]byte{uint8(len(b))}); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// Read loads the complete snapshot at path
func Read(path string) (*Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return Decode(bufio.NewReader(file))
}

// ReadMetadata loads only the header of the snapshot at path
func ReadMetadata(path string) (*Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return decodeHeader(bufio.NewReader(file))
}

// Decode reads a snapshot from r
func Decode(r io.Reader) (*Snapshot, error) {
	meta, err := decodeHeader(r)
	if err != nil {
		return nil, err
	}

	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, fmt.Errorf("%w: missing payload: %v", ErrInvalidFormat, err)
	}
	compressed := make([]byte, size)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, fmt.Errorf("%w: truncated payload: %v", ErrInvalidFormat, err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create decompressor: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	want := meta.Height*8 + meta.Width*meta.Height*4
	if len(raw) != want {
		return nil, fmt.Errorf("%w: payload is %d bytes, expected %d", ErrInvalidFormat, len(raw), want)
	}

	s := &Snapshot{
		Metadata:   *meta,
		Rows:       make([][]float64, meta.Height),
		Timestamps: make([]time.Time, meta.Height),
	}
	off := 0
	for i := range s.Timestamps {
		if nanos := int64(binary.LittleEndian.Uint64(raw[off:])); nanos != 0 {
			s.Timestamps[i] = time.Unix(0, nanos)
		}
		off += 8
	}
	for i := range s.Rows {
		row := make([]float64, meta.Width)
		for j := range row {
			row[j] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[off:])))
			off += 4
		}
		s.Rows[i] = row
	}
	return s, nil
}

func decodeHeader(r io.Reader) (*Metadata, error) {
	head := make([]byte, len(magic))
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, fmt.Errorf("%w: failed to read magic: %v", ErrInvalidFormat, err)
	}
	if !bytes.Equal(head, []byte(magic)) {
		return nil, ErrInvalidFormat
	}

	var (
		meta          Metadata
		width, height uint32
		unix          int64
		nanos         int32
	)
	fields := []interface{}{
		&meta.FormatVersion,
		&width,
		&height,
		&meta.SampleRate,
		&meta.StartFreq,
		&meta.EndFreq,
		&unix,
		&nanos,
		&meta.Station.Latitude,
		&meta.Station.Longitude,
		&meta.Station.Altitude,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, fmt.Errorf("%w: truncated header: %v", ErrInvalidFormat, err)
		}
	}
	if meta.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, meta.FormatVersion)
	}
	if uint64(width)*uint64(height) > maxCells {
		return nil, fmt.Errorf("%w: grid %dx%d too large", ErrInvalidFormat, width, height)
	}
	meta.Width = int(width)
	meta.Height = int(height)
	meta.CaptureTime = time.Unix(unix, int64(nanos))

	for _, dst := range []*string{&meta.Station.Source, &meta.DeviceInfo, &meta.SnapshotID} {
		s, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("%w: truncated header: %v", ErrInvalidFormat, err)
		}
		*dst = s
	}
	return &meta, nil
}

func readString(r io.Reader) (string, error) {
	var n [1]byte
	if _, err := io.ReadFull(r, n[:]); err != nil {
		return "", err
	}
	b := make([]byte, n[0])
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
