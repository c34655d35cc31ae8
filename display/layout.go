// Package display implements the display-management core: the ordered set of
// open screens, the unified virtual coordinate space spanning them, per-screen
// framebuffer and flush bookkeeping, and pointer/keyboard ingestion.
package display

import (
	"errors"
	"fmt"

	"github.com/lumenwm/lumen/device"
	"github.com/lumenwm/lumen/gfx"
)

var ErrInvalidLayout = errors.New("display: invalid layout")

// ScreenDescriptor describes one screen in a layout: which device backs it,
// where it sits in the global coordinate space, its physical resolution and
// its scale factor.
type ScreenDescriptor struct {
	Device      string `yaml:"device" json:"device"`
	X           int    `yaml:"x" json:"x"`
	Y           int    `yaml:"y" json:"y"`
	Width       int    `yaml:"width" json:"width"`
	Height      int    `yaml:"height" json:"height"`
	ScaleFactor int    `yaml:"scale_factor" json:"scale_factor"`
}

// Mode returns the video mode this descriptor asks of its device.
func (d ScreenDescriptor) Mode() device.Mode {
	return device.Mode{Width: d.Width, Height: d.Height, ScaleFactor: d.ScaleFactor}
}

// VirtualRect returns the rectangle the screen occupies in the global
// coordinate space. Virtual size is the physical resolution divided by the
// scale factor.
func (d ScreenDescriptor) VirtualRect() gfx.Rect {
	return gfx.NewRect(d.X, d.Y, d.Width/d.ScaleFactor, d.Height/d.ScaleFactor)
}

func (d ScreenDescriptor) String() string {
	return fmt.Sprintf("%s@%d,%d %dx%d@%dx", d.Device, d.X, d.Y, d.Width, d.Height, d.ScaleFactor)
}

// ScreenLayout is the desired screen configuration. It is a plain value:
// applying it never mutates it, and a new layout fully replaces the old one.
type ScreenLayout struct {
	Screens []ScreenDescriptor `yaml:"screens" json:"screens"`
}

// Validate rejects malformed layouts before any device is touched.
func (l ScreenLayout) Validate() error {
	seen := make(map[string]int, len(l.Screens))
	for i, d := range l.Screens {
		if d.Device == "" {
			return fmt.Errorf("%w: screen %d has no device", ErrInvalidLayout, i)
		}
		if d.Width <= 0 || d.Height <= 0 {
			return fmt.Errorf("%w: screen %d has resolution %dx%d", ErrInvalidLayout, i, d.Width, d.Height)
		}
		if d.ScaleFactor < 1 {
			return fmt.Errorf("%w: screen %d has scale factor %d", ErrInvalidLayout, i, d.ScaleFactor)
		}
		if prev, dup := seen[d.Device]; dup {
			return fmt.Errorf("%w: screens %d and %d share device %q", ErrInvalidLayout, prev, i, d.Device)
		}
		seen[d.Device] = i
	}
	return nil
}

// Clone returns a deep copy so a stored layout cannot alias the caller's
// slice.
func (l ScreenLayout) Clone() ScreenLayout {
	screens := make([]ScreenDescriptor, len(l.Screens))
	copy(screens, l.Screens)
	return ScreenLayout{Screens: screens}
}
