// Package framebuffer discovers Linux framebuffer geometry and exposes the
// pixel memory as a writable byte buffer.
package framebuffer

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultDevice is the framebuffer used when none is configured
const DefaultDevice = "/dev/fb0"

// SysfsRoot is where the kernel publishes framebuffer attributes
var SysfsRoot = "/sys/class/graphics"

// Geometry is the visible size and pixel depth of a framebuffer
type Geometry struct {
	Width        int
	Height       int
	BitsPerPixel int
}

// BytesPerPixel returns the pixel size in bytes
func (g Geometry) BytesPerPixel() int { return g.BitsPerPixel / 8 }

// Size returns the buffer size in bytes
func (g Geometry) Size() int { return g.Width * g.Height * g.BytesPerPixel() }

// SysfsDir returns the attribute directory for a device path such as /dev/fb0
func SysfsDir(device string) string {
	return filepath.Join(SysfsRoot, filepath.Base(device))
}

// ReadGeometry reads virtual_size and bits_per_pixel from dir
func ReadGeometry(dir string) (Geometry, error) {
	size, err := os.ReadFile(filepath.Join(dir, "virtual_size"))
	if err != nil {
		return Geometry{}, fmt.Errorf("failed to read framebuffer size: %w", err)
	}
	depth, err := os.ReadFile(filepath.Join(dir, "bits_per_pixel"))
	if err != nil {
		return Geometry{}, fmt.Errorf("failed to read framebuffer depth: %w", err)
	}

	w, h, err := ParseVirtualSize(string(size))
	if err != nil {
		return Geometry{}, err
	}
	bpp, err := ParseBitsPerPixel(string(depth))
	if err != nil {
		return Geometry{}, err
	}
	return Geometry{Width: w, Height: h, BitsPerPixel: bpp}, nil
}

// ParseVirtualSize parses the "width,height" sysfs attribute
func ParseVirtualSize(s string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed virtual_size %q", strings.TrimSpace(s))
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("malformed framebuffer width: %w", err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("malformed framebuffer height: %w", err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid framebuffer size %dx%d", w, h)
	}
	return w, h, nil
}

// ParseBitsPerPixel parses the bits_per_pixel sysfs attribute
func ParseBitsPerPixel(s string) (int, error) {
	bpp, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("malformed bits_per_pixel: %w", err)
	}
	if bpp <= 0 || bpp%8 != 0 {
		return 0, fmt.Errorf("unsupported pixel depth %d bits", bpp)
	}
	return bpp, nil
}

// Memory is an in-memory framebuffer, used for headless runs and tests
type Memory struct {
	geom Geometry
	buf  []byte
}

// NewMemory allocates a framebuffer of the given geometry
func NewMemory(g Geometry) *Memory {
	return &Memory{geom: g, buf: make([]byte, g.Size())}
}

func (m *Memory) Width() int         { return m.geom.Width }
func (m *Memory) Height() int        { return m.geom.Height }
func (m *Memory) BytesPerPixel() int { return m.geom.BytesPerPixel() }
func (m *Memory) Buffer() []byte     { return m.buf }
func (m *Memory) Close() error       { return nil }
