//go:build linux

package framebuffer

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Device is a memory mapped Linux framebuffer
type Device struct {
	geom Geometry
	fd   int
	mem  []byte

	closeOnce sync.Once
	closeErr  error
}

// Open maps the framebuffer at path. Geometry comes from sysfs.
func Open(path string) (*Device, error) {
	geom, err := ReadGeometry(SysfsDir(path))
	if err != nil {
		return nil, err
	}

	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open framebuffer %s: %w", path, err)
	}
	mem, err := unix.Mmap(fd, 0, geom.Size(), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to map framebuffer %s: %w", path, err)
	}
	return &Device{geom: geom, fd: fd, mem: mem}, nil
}

func (d *Device) Width() int         { return d.geom.Width }
func (d *Device) Height() int        { return d.geom.Height }
func (d *Device) BytesPerPixel() int { return d.geom.BytesPerPixel() }
func (d *Device) Buffer() []byte     { return d.mem }

// Close unmaps the framebuffer. It is safe to call more than once.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		if err := unix.Munmap(d.mem); err != nil {
			d.closeErr = fmt.Errorf("failed to unmap framebuffer: %w", err)
		}
		d.mem = nil
		if err := unix.Close(d.fd); err != nil && d.closeErr == nil {
			d.closeErr = fmt.Errorf("failed to close framebuffer: %w", err)
		}
	})
	return d.closeErr
}
