package device

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/lumenwm/lumen/gfx"
)

// TerminalDevice presents a framebuffer on a terminal cell grid for
// development and demos: every flush downsamples the dirty regions to cells
// and paints them as background colors. One framebuffer pixel block maps to
// one terminal cell, so "resolution" here is modest.
type TerminalDevice struct {
	path   string
	screen tcell.Screen
	mode   Mode
	buf    []byte
	pitch  int
	label  string
	closed bool
}

// OpenTerminal opens a terminal preview device on the calling terminal.
func OpenTerminal(path string, mode Mode) (*TerminalDevice, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("device: terminal backend: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("device: terminal init: %w", err)
	}
	return NewTerminalDevice(path, mode, screen)
}

// NewTerminalDevice wraps an already-initialized tcell screen. Tests pass a
// simulation screen here.
func NewTerminalDevice(path string, mode Mode, screen tcell.Screen) (*TerminalDevice, error) {
	d := &TerminalDevice{path: path, screen: screen, label: path}
	screen.HideCursor()
	if err := d.SetMode(mode); err != nil {
		screen.Fini()
		return nil, err
	}
	return d, nil
}

func (d *TerminalDevice) Path() string { return d.path }

func (d *TerminalDevice) SetMode(mode Mode) error {
	if d.closed {
		return ErrClosed
	}
	if err := mode.Validate(); err != nil {
		return err
	}
	cols, rows := d.screen.Size()
	if mode.Width > cols || mode.Height > rows {
		return fmt.Errorf("%w: terminal is %dx%d cells, wanted %s",
			ErrModeRejected, cols, rows, mode)
	}
	pitch := mode.Width * BytesPerPixel
	d.buf = make([]byte, pitch*mode.Height)
	d.pitch = pitch
	d.mode = mode
	return nil
}

func (d *TerminalDevice) CurrentMode() Mode { return d.mode }

func (d *TerminalDevice) Framebuffer() []byte { return d.buf }

func (d *TerminalDevice) Pitch() int { return d.pitch }

func (d *TerminalDevice) BufferOffset(index int) int { return 0 }

func (d *TerminalDevice) SetBuffer(index int) error { return ErrNotDoubleBuffer }

func (d *TerminalDevice) FlushRects(bufferIndex int, rects []gfx.Rect) error {
	if d.closed {
		return ErrClosed
	}
	for _, r := range rects {
		r = r.Intersected(gfx.NewRect(0, 0, d.mode.Width, d.mode.Height))
		for y := r.Y; y < r.Bottom(); y++ {
			row := d.buf[y*d.pitch:]
			for x := r.X; x < r.Right(); x++ {
				px := row[x*BytesPerPixel : x*BytesPerPixel+3]
				color := tcell.NewRGBColor(int32(px[0]), int32(px[1]), int32(px[2]))
				d.screen.SetContent(x, y, ' ', nil, tcell.StyleDefault.Background(color))
			}
		}
	}
	d.drawLabel()
	d.screen.Show()
	return nil
}

func (d *TerminalDevice) FlushFrontBuffer(frontBufferIndex int, rect gfx.Rect) error {
	return d.FlushRects(frontBufferIndex, []gfx.Rect{rect})
}

// drawLabel paints the device name in the top-left corner so multiple
// preview devices can be told apart.
func (d *TerminalDevice) drawLabel() {
	text := runewidth.Truncate(d.label, d.mode.Width, "…")
	style := tcell.StyleDefault.Reverse(true)
	col := 0
	for _, ch := range text {
		d.screen.SetContent(col, 0, ch, nil, style)
		col += runewidth.RuneWidth(ch)
	}
}

func (d *TerminalDevice) Caps() Caps {
	return Caps{CanSetBuffer: false, CanFlushBuffers: true}
}

func (d *TerminalDevice) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.screen.Fini()
	return nil
}
