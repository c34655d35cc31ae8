package device

import (
	"fmt"

	"github.com/lumenwm/lumen/gfx"
)

// MemoryDevice is a double-buffered device backed by ordinary host memory.
// It behaves like cooperative hardware that accepts every mode and flush,
// which makes it the backend for headless operation and tests.
type MemoryDevice struct {
	path       string
	mode       Mode
	buf        []byte
	pitch      int
	frontIndex int
	flushCount int
	closed     bool
}

// OpenMemory creates a memory device. The path is kept only as identity.
func OpenMemory(path string, mode Mode) (*MemoryDevice, error) {
	d := &MemoryDevice{path: path}
	if err := d.SetMode(mode); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *MemoryDevice) Path() string { return d.path }

func (d *MemoryDevice) SetMode(mode Mode) error {
	if d.closed {
		return ErrClosed
	}
	if err := mode.Validate(); err != nil {
		return err
	}
	pitch := mode.Width * BytesPerPixel
	d.buf = make([]byte, pitch*mode.Height*2)
	d.pitch = pitch
	d.mode = mode
	d.frontIndex = 0
	return nil
}

func (d *MemoryDevice) CurrentMode() Mode { return d.mode }

func (d *MemoryDevice) Framebuffer() []byte { return d.buf }

func (d *MemoryDevice) Pitch() int { return d.pitch }

func (d *MemoryDevice) BufferOffset(index int) int {
	return index * d.pitch * d.mode.Height
}

func (d *MemoryDevice) SetBuffer(index int) error {
	if d.closed {
		return ErrClosed
	}
	if index < 0 || index > 1 {
		return fmt.Errorf("%w: %d", ErrBadBufferIndex, index)
	}
	d.frontIndex = index
	return nil
}

// FrontBuffer returns the currently scanned-out buffer index.
func (d *MemoryDevice) FrontBuffer() int { return d.frontIndex }

func (d *MemoryDevice) FlushRects(bufferIndex int, rects []gfx.Rect) error {
	if d.closed {
		return ErrClosed
	}
	if bufferIndex < 0 || bufferIndex > 1 {
		return fmt.Errorf("%w: %d", ErrBadBufferIndex, bufferIndex)
	}
	d.flushCount++
	return nil
}

func (d *MemoryDevice) FlushFrontBuffer(frontBufferIndex int, rect gfx.Rect) error {
	return d.FlushRects(frontBufferIndex, []gfx.Rect{rect})
}

// FlushCount reports how many flush device calls were issued, one per
// FlushRects invocation regardless of rectangle count.
func (d *MemoryDevice) FlushCount() int { return d.flushCount }

func (d *MemoryDevice) Caps() Caps {
	return Caps{CanSetBuffer: true, CanFlushBuffers: true}
}

func (d *MemoryDevice) Close() error {
	d.closed = true
	d.buf = nil
	return nil
}
