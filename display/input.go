package display

import (
	"math"

	"github.com/lumenwm/lumen/gfx"
)

// Bounds for the tunable input parameters.
const (
	MouseAccelMin     = 0.5
	MouseAccelMax     = 3.5
	ScrollStepSizeMin = 1
)

// Input is the single pointer/keyboard state of the service: cursor
// location in the global coordinate space, pressed buttons, tracked
// modifiers and the motion tunables. It ingests raw packets and resolves
// them against the registry's coordinate space; the cursor never leaves the
// registry's bounding rectangle.
type Input struct {
	registry *Registry

	cursor     gfx.Point
	buttons    uint32
	modifiers  uint32
	accel      float64
	scrollStep int
}

// NewInput creates the input state bound to a registry and registers it for
// re-clamping on layout changes.
func NewInput(registry *Registry) *Input {
	in := &Input{
		registry:   registry,
		accel:      1.0,
		scrollStep: ScrollStepSizeMin,
	}
	registry.attachInput(in)
	return in
}

// OnReceiveMouseData ingests one raw mouse packet: motion is scaled by the
// acceleration factor, button state replaced, and the cursor clamped into
// the bounding rectangle. The returned event carries the resolved global
// location and scroll deltas scaled by the scroll step size.
func (in *Input) OnReceiveMouseData(packet MousePacket) MouseEvent {
	target := in.cursor
	if packet.Relative {
		target.X += int(math.Round(float64(packet.DX) * in.accel))
		target.Y += int(math.Round(float64(packet.DY) * in.accel))
	} else {
		target = gfx.Pt(packet.X, packet.Y)
	}
	in.setCursorClamped(target)
	in.buttons = packet.Buttons

	return MouseEvent{
		Location:  in.cursor,
		Buttons:   in.buttons,
		Modifiers: in.modifiers,
		Scroll:    packet.Wheel * in.scrollStep,
		ScrollH:   packet.WheelH * in.scrollStep,
	}
}

// OnReceiveKeyboardData ingests one decoded key event, tracking the modifier
// state needed for pointer gestures, and returns it for the external
// focus/dispatch layer.
func (in *Input) OnReceiveKeyboardData(ev KeyEvent) KeyEvent {
	in.modifiers = ev.Modifiers
	return ev
}

// CursorLocation is the cursor position in the global coordinate space.
func (in *Input) CursorLocation() gfx.Point { return in.cursor }

// SetCursorLocation warps the cursor, clamped into the bounding rectangle.
func (in *Input) SetCursorLocation(p gfx.Point) {
	in.setCursorClamped(p)
}

// CursorLocationScreen resolves the screen under the cursor, falling back to
// the nearest screen when the cursor transiently lies on none. Must not be
// called while the registry is empty.
func (in *Input) CursorLocationScreen() *Screen {
	if s := in.registry.FindByLocation(in.cursor); s != nil {
		return s
	}
	return in.registry.ClosestToLocation(in.cursor)
}

// MouseButtonState is the bitmask of currently-pressed buttons.
func (in *Input) MouseButtonState() uint32 { return in.buttons }

// Modifiers is the tracked keyboard modifier bitmask.
func (in *Input) Modifiers() uint32 { return in.modifiers }

func (in *Input) AccelerationFactor() float64 { return in.accel }

// SetAccelerationFactor stores the factor clamped into
// [MouseAccelMin, MouseAccelMax].
func (in *Input) SetAccelerationFactor(factor float64) {
	in.accel = math.Min(math.Max(factor, MouseAccelMin), MouseAccelMax)
}

func (in *Input) ScrollStepSize() int { return in.scrollStep }

// SetScrollStepSize stores the step size, raised to ScrollStepSizeMin when
// smaller.
func (in *Input) SetScrollStepSize(step int) {
	in.scrollStep = max(step, ScrollStepSizeMin)
}

func (in *Input) setCursorClamped(p gfx.Point) {
	bounds := in.registry.BoundingRect()
	if bounds.IsEmpty() {
		in.cursor = p
		return
	}
	in.cursor = bounds.ClampedPoint(p)
}

// reclamp pulls the cursor back inside the bounding rectangle after a
// layout change shrank it.
func (in *Input) reclamp() {
	in.setCursorClamped(in.cursor)
}
