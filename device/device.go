// Package device abstracts framebuffer display devices. A Device owns a
// mapped pixel memory region and knows how to change video modes, select the
// scanout buffer and push dirty regions to the hardware. Backends exist for
// Linux fbdev, plain host memory and a terminal-cell preview.
package device

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lumenwm/lumen/gfx"
)

// BytesPerPixel is the only pixel format the core writes: 32-bit RGBA.
const BytesPerPixel = 4

var (
	ErrClosed          = errors.New("device: device is closed")
	ErrUnsupported     = errors.New("device: operation not supported")
	ErrInvalidMode     = errors.New("device: invalid video mode")
	ErrUnknownBackend  = errors.New("device: unknown backend")
	ErrBadBufferIndex  = errors.New("device: buffer index out of range")
	ErrModeRejected    = errors.New("device: mode rejected by device")
	ErrFlushFailed     = errors.New("device: flush failed")
	ErrDeviceBusy      = errors.New("device: device busy")
	ErrNotDoubleBuffer = errors.New("device: device is not double buffered")
)

// Mode describes a video mode in physical pixels plus the scale factor the
// compositor renders at.
type Mode struct {
	Width       int
	Height      int
	ScaleFactor int
}

func (m Mode) Validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("%w: resolution %dx%d", ErrInvalidMode, m.Width, m.Height)
	}
	if m.ScaleFactor < 1 {
		return fmt.Errorf("%w: scale factor %d", ErrInvalidMode, m.ScaleFactor)
	}
	return nil
}

func (m Mode) String() string {
	return fmt.Sprintf("%dx%d@%dx", m.Width, m.Height, m.ScaleFactor)
}

// Caps reports what the underlying hardware can do. The compositor adapts
// its strategy to these flags rather than probing the device itself.
type Caps struct {
	// CanSetBuffer is true when the device exposes two scanout buffers and
	// supports switching between them.
	CanSetBuffer bool
	// CanFlushBuffers is true when the device accepts partial flushes of
	// dirty regions. When false the caller must recompose full frames.
	CanFlushBuffers bool
}

// Device is one open display device. All coordinates passed to flush calls
// are device-local physical pixels.
type Device interface {
	// Path returns the identifier the device was opened with. Two layout
	// descriptors naming the same path refer to the same device.
	Path() string

	// SetMode switches the video mode. On failure the previous mode stays
	// in effect and the framebuffer mapping is unchanged.
	SetMode(Mode) error
	CurrentMode() Mode

	// Framebuffer returns the mapped pixel memory covering every buffer
	// the device exposes. The mapping is invalidated by SetMode and Close.
	Framebuffer() []byte

	// Pitch returns the byte length of one scanline.
	Pitch() int

	// BufferOffset returns the byte offset of the named buffer within the
	// framebuffer mapping.
	BufferOffset(index int) int

	// SetBuffer selects the scanout buffer. Only valid when the device
	// reports CanSetBuffer.
	SetBuffer(index int) error

	// FlushRects pushes the given dirty regions of the named buffer to the
	// display in a single device operation.
	FlushRects(bufferIndex int, rects []gfx.Rect) error

	// FlushFrontBuffer pushes one region of the front buffer, for
	// configurations compositing without a back-buffer swap.
	FlushFrontBuffer(frontBufferIndex int, rect gfx.Rect) error

	Caps() Caps
	Close() error
}

// Open opens the device named by path. The backend is selected by prefix:
// "mem:" for a host-memory device, "term:" for the terminal preview, and
// anything else is handed to the platform framebuffer backend.
func Open(path string, mode Mode) (Device, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	switch {
	case strings.HasPrefix(path, "mem:"):
		return OpenMemory(path, mode)
	case strings.HasPrefix(path, "term:"):
		return OpenTerminal(path, mode)
	case strings.HasPrefix(path, "/dev/"):
		return openPlatform(path, mode)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, path)
	}
}
