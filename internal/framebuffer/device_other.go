//go:build !linux

package framebuffer

import "errors"

// Device is unavailable on this platform
type Device struct {
	Memory
}

// Open always fails: framebuffer devices are Linux only
func Open(path string) (*Device, error) {
	return nil, errors.New("framebuffer output requires Linux")
}
