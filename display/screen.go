package display

import (
	"fmt"

	"github.com/lumenwm/lumen/device"
	"github.com/lumenwm/lumen/gfx"
)

// Past this many disjoint pending rects the queue collapses into a single
// bounding rectangle; flushing a few extra rows is cheaper than tracking an
// unbounded dirty set.
const maxPendingFlushRects = 32

// Screen is one open display device placed in the global coordinate space.
// It exists only while its device is open; screens are created and destroyed
// exclusively by Registry.ApplyLayout.
type Screen struct {
	index       int
	dev         device.Device
	descriptor  ScreenDescriptor
	virtualRect gfx.Rect
	pitch       int
	caps        device.Caps

	// pendingFlushRects holds dirty regions in screen-local physical
	// pixels, awaiting the next FlushDisplay call.
	pendingFlushRects []gfx.Rect
}

func newScreen(dev device.Device, desc ScreenDescriptor) *Screen {
	s := &Screen{dev: dev, descriptor: desc}
	s.refreshFromDevice()
	return s
}

func (s *Screen) refreshFromDevice() {
	s.pitch = s.dev.Pitch()
	s.caps = s.dev.Caps()
	s.virtualRect = s.descriptor.VirtualRect()
}

// Index is the screen's stable position in the registry's ordered
// collection.
func (s *Screen) Index() int { return s.index }

// Rect is the screen's rectangle in the global virtual coordinate space.
func (s *Screen) Rect() gfx.Rect { return s.virtualRect }

func (s *Screen) Size() gfx.Size { return s.virtualRect.Size() }

func (s *Screen) Width() int { return s.virtualRect.W }

func (s *Screen) Height() int { return s.virtualRect.H }

func (s *Screen) ScaleFactor() int { return s.descriptor.ScaleFactor }

func (s *Screen) PhysicalWidth() int { return s.Width() * s.ScaleFactor() }

func (s *Screen) PhysicalHeight() int { return s.Height() * s.ScaleFactor() }

func (s *Screen) PhysicalSize() gfx.Size {
	return gfx.Size{W: s.PhysicalWidth(), H: s.PhysicalHeight()}
}

// Pitch is the byte length of one physical scanline.
func (s *Screen) Pitch() int { return s.pitch }

// DevicePath identifies the device backing this screen.
func (s *Screen) DevicePath() string { return s.dev.Path() }

// Descriptor returns the layout descriptor the screen currently realizes.
func (s *Screen) Descriptor() ScreenDescriptor { return s.descriptor }

func (s *Screen) CanSetBuffer() bool { return s.caps.CanSetBuffer }

// CanDeviceFlushBuffers reports whether the device accepts partial flushes.
// When false the compositor must recompose full frames instead of calling
// FlushDisplay.
func (s *Screen) CanDeviceFlushBuffers() bool { return s.caps.CanFlushBuffers }

// Framebuffer exposes the device's mapped pixel memory. The slice covers
// every buffer the device exposes and is invalidated by resolution changes.
func (s *Screen) Framebuffer() []byte { return s.dev.Framebuffer() }

// BufferOffset returns the byte offset of the named buffer within the
// framebuffer mapping.
func (s *Screen) BufferOffset(index int) int { return s.dev.BufferOffset(index) }

// SetBuffer selects which buffer the device scans out. A no-op unless the
// device reports CanSetBuffer; the caller keeps writing through the active
// buffer either way.
func (s *Screen) SetBuffer(index int) error {
	if !s.caps.CanSetBuffer {
		return nil
	}
	return s.dev.SetBuffer(index)
}

// Scanline returns the framebuffer memory starting at row y of the named
// buffer. The caller must keep y within [0, PhysicalHeight) and stay inside
// the row; this is the raw pixel-access primitive used by the compositor and
// is deliberately not bounds-checked.
func (s *Screen) Scanline(bufferIndex, y int) []byte {
	return s.dev.Framebuffer()[s.dev.BufferOffset(bufferIndex)+y*s.pitch:]
}

// QueueFlushRect records a dirty region, in screen-local physical pixels,
// for the next FlushDisplay call. No device I/O happens here. Overlapping
// and adjacent regions are coalesced to bound per-flush overhead.
func (s *Screen) QueueFlushRect(rect gfx.Rect) {
	rect = rect.Intersected(gfx.NewRect(0, 0, s.PhysicalWidth(), s.PhysicalHeight()))
	if rect.IsEmpty() {
		return
	}
	for i, pending := range s.pendingFlushRects {
		if pending.Adjacent(rect) {
			s.pendingFlushRects[i] = pending.United(rect)
			return
		}
	}
	if len(s.pendingFlushRects) >= maxPendingFlushRects {
		union := rect
		for _, pending := range s.pendingFlushRects {
			union = union.United(pending)
		}
		s.pendingFlushRects = s.pendingFlushRects[:0]
		s.pendingFlushRects = append(s.pendingFlushRects, union)
		return
	}
	s.pendingFlushRects = append(s.pendingFlushRects, rect)
}

// PendingFlushRects returns the queued dirty regions. The slice is owned by
// the screen and valid until the next queue or flush call.
func (s *Screen) PendingFlushRects() []gfx.Rect { return s.pendingFlushRects }

// FlushDisplay pushes every queued dirty region of the named buffer to the
// device in one device call and clears the queue. Callers must check
// CanDeviceFlushBuffers first; a screen that cannot flush reports
// device.ErrUnsupported and keeps its queue.
func (s *Screen) FlushDisplay(bufferIndex int) error {
	if !s.caps.CanFlushBuffers {
		return device.ErrUnsupported
	}
	if len(s.pendingFlushRects) == 0 {
		return nil
	}
	err := s.dev.FlushRects(bufferIndex, s.pendingFlushRects)
	s.pendingFlushRects = s.pendingFlushRects[:0]
	if err != nil {
		return fmt.Errorf("display: screen %d: %w", s.index, err)
	}
	return nil
}

// FlushDisplayFrontBuffer pushes one region of the front buffer directly,
// for devices composited without a back-buffer swap.
func (s *Screen) FlushDisplayFrontBuffer(frontBufferIndex int, rect gfx.Rect) error {
	rect = rect.Intersected(gfx.NewRect(0, 0, s.PhysicalWidth(), s.PhysicalHeight()))
	if rect.IsEmpty() {
		return nil
	}
	if err := s.dev.FlushFrontBuffer(frontBufferIndex, rect); err != nil {
		return fmt.Errorf("display: screen %d: %w", s.index, err)
	}
	return nil
}

// setResolution pushes the descriptor's mode to the device. On failure
// during initial bring-up the screen is unusable and the error is fatal to
// its creation; on a live change the device keeps its previous mode and the
// screen's previous geometry stays fully in effect.
func (s *Screen) setResolution(desc ScreenDescriptor, initial bool) error {
	prev := s.descriptor
	if err := s.dev.SetMode(desc.Mode()); err != nil {
		if initial {
			return fmt.Errorf("display: %s: initial mode %s: %w", desc.Device, desc.Mode(), err)
		}
		s.descriptor = prev
		return fmt.Errorf("display: %s: mode change to %s rejected: %w", desc.Device, desc.Mode(), err)
	}
	s.descriptor = desc
	s.refreshFromDevice()
	s.constrainPendingFlushRects()
	return nil
}

// relocate updates only the screen's placement in the global space; the
// device mode is untouched.
func (s *Screen) relocate(desc ScreenDescriptor) {
	s.descriptor = desc
	s.virtualRect = desc.VirtualRect()
}

// constrainPendingFlushRects clips queued dirty regions to the current
// physical size so a shrink never flushes rows the device no longer has.
func (s *Screen) constrainPendingFlushRects() {
	bounds := gfx.NewRect(0, 0, s.PhysicalWidth(), s.PhysicalHeight())
	kept := s.pendingFlushRects[:0]
	for _, r := range s.pendingFlushRects {
		if clipped := r.Intersected(bounds); !clipped.IsEmpty() {
			kept = append(kept, clipped)
		}
	}
	s.pendingFlushRects = kept
}

func (s *Screen) close() {
	_ = s.dev.Close()
}
