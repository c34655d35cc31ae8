package display

import "github.com/lumenwm/lumen/gfx"

// Mouse button bits as delivered in raw packets.
const (
	MouseButtonLeft uint32 = 1 << iota
	MouseButtonRight
	MouseButtonMiddle
	MouseButtonBackward
	MouseButtonForward
)

// Keyboard modifier bits.
const (
	ModAlt uint32 = 1 << iota
	ModCtrl
	ModShift
	ModSuper
)

// MousePacket is one raw mouse report from the input source. Motion is
// either relative (DX/DY) or absolute (X/Y), never both.
type MousePacket struct {
	Relative bool
	DX, DY   int
	X, Y     int
	Buttons  uint32
	// Wheel is the raw vertical wheel delta, positive away from the user.
	Wheel int
	// WheelH is the horizontal wheel delta.
	WheelH int
}

// MouseEvent is a mouse packet resolved into the global coordinate space,
// ready for the dispatch layer.
type MouseEvent struct {
	Location  gfx.Point
	Buttons   uint32
	Modifiers uint32
	// Scroll deltas scaled by the configured scroll step size.
	Scroll  int
	ScrollH int
}

// KeyEvent is one already-decoded keyboard event.
type KeyEvent struct {
	Code      uint32
	Modifiers uint32
	Pressed   bool
}
