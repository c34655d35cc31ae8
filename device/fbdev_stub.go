//go:build !linux

package device

import "fmt"

func openPlatform(path string, mode Mode) (Device, error) {
	return nil, fmt.Errorf("%w: no platform framebuffer backend for %q", ErrUnsupported, path)
}
