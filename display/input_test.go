package display

import (
	"testing"

	"github.com/lumenwm/lumen/gfx"
)

func newTestInput(t *testing.T) (*Registry, *Input) {
	t.Helper()
	r := newTestRegistry(t, threeScreenLayout())
	return r, NewInput(r)
}

func TestMouseMotionAcrossScreens(t *testing.T) {
	_, in := newTestInput(t)
	in.SetCursorLocation(gfx.Pt(799, 10))

	ev := in.OnReceiveMouseData(MousePacket{Relative: true, DX: 50})
	if ev.Location != gfx.Pt(849, 10) {
		t.Fatalf("cursor at %v, want (849,10)", ev.Location)
	}
	if s := in.CursorLocationScreen(); s.Index() != 1 {
		t.Fatalf("cursor should resolve to screen 1, got %d", s.Index())
	}
}

func TestMouseMotionClampedToBoundingRect(t *testing.T) {
	_, in := newTestInput(t)
	in.SetCursorLocation(gfx.Pt(2460, 5))

	ev := in.OnReceiveMouseData(MousePacket{Relative: true, DX: 100})
	if ev.Location != gfx.Pt(2463, 5) {
		t.Fatalf("cursor at %v, want clamped (2463,5)", ev.Location)
	}

	ev = in.OnReceiveMouseData(MousePacket{Relative: true, DX: -5000, DY: -5000})
	if ev.Location != gfx.Pt(0, 0) {
		t.Fatalf("cursor at %v, want clamped origin", ev.Location)
	}
}

func TestAbsoluteMousePacket(t *testing.T) {
	_, in := newTestInput(t)
	ev := in.OnReceiveMouseData(MousePacket{X: 1900, Y: 100, Buttons: MouseButtonLeft})
	if ev.Location != gfx.Pt(1900, 100) {
		t.Fatalf("cursor at %v", ev.Location)
	}
	if in.MouseButtonState() != MouseButtonLeft {
		t.Fatalf("button state %#x", in.MouseButtonState())
	}

	// Absolute positions clamp too.
	ev = in.OnReceiveMouseData(MousePacket{X: 9999, Y: 9999})
	if ev.Location != gfx.Pt(2463, 767) {
		t.Fatalf("cursor at %v, want bottom-right corner", ev.Location)
	}
	if in.MouseButtonState() != 0 {
		t.Fatalf("buttons should be released")
	}
}

func TestAccelerationFactorApplied(t *testing.T) {
	_, in := newTestInput(t)
	in.SetAccelerationFactor(2.0)
	in.SetCursorLocation(gfx.Pt(100, 100))

	ev := in.OnReceiveMouseData(MousePacket{Relative: true, DX: 10, DY: -5})
	if ev.Location != gfx.Pt(120, 90) {
		t.Fatalf("cursor at %v, want (120,90)", ev.Location)
	}
}

func TestAccelerationFactorClamped(t *testing.T) {
	_, in := newTestInput(t)
	in.SetAccelerationFactor(10.0)
	if in.AccelerationFactor() != 3.5 {
		t.Fatalf("acceleration %v, want 3.5", in.AccelerationFactor())
	}
	in.SetAccelerationFactor(0.01)
	if in.AccelerationFactor() != 0.5 {
		t.Fatalf("acceleration %v, want 0.5", in.AccelerationFactor())
	}
}

func TestScrollStepSize(t *testing.T) {
	_, in := newTestInput(t)
	in.SetScrollStepSize(0)
	if in.ScrollStepSize() != 1 {
		t.Fatalf("scroll step %d, want minimum 1", in.ScrollStepSize())
	}
	in.SetScrollStepSize(4)
	ev := in.OnReceiveMouseData(MousePacket{Relative: true, Wheel: -2})
	if ev.Scroll != -8 {
		t.Fatalf("scroll delta %d, want -8", ev.Scroll)
	}
}

func TestKeyboardModifierTracking(t *testing.T) {
	_, in := newTestInput(t)
	ret := in.OnReceiveKeyboardData(KeyEvent{Code: 56, Modifiers: ModAlt, Pressed: true})
	if in.Modifiers() != ModAlt {
		t.Fatalf("modifiers %#x", in.Modifiers())
	}
	if ret.Modifiers != ModAlt || !ret.Pressed {
		t.Fatalf("key event mangled on ingestion: %+v", ret)
	}
	ev := in.OnReceiveMouseData(MousePacket{Relative: true, DX: 1})
	if ev.Modifiers != ModAlt {
		t.Fatalf("mouse event should carry tracked modifiers")
	}
	in.OnReceiveKeyboardData(KeyEvent{Code: 56, Modifiers: 0, Pressed: false})
	if in.Modifiers() != 0 {
		t.Fatalf("modifiers should clear on release")
	}
}

func TestCursorReclampedAfterLayoutShrink(t *testing.T) {
	r, in := newTestInput(t)
	in.SetCursorLocation(gfx.Pt(2400, 700))

	if err := r.ApplyLayout(ScreenLayout{Screens: []ScreenDescriptor{
		{Device: "mem:a", X: 0, Y: 0, Width: 800, Height: 600, ScaleFactor: 1},
	}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := in.CursorLocation(); got != gfx.Pt(799, 599) {
		t.Fatalf("cursor at %v after shrink, want (799,599)", got)
	}
	if !r.BoundingRect().Contains(in.CursorLocation()) {
		t.Fatalf("cursor escaped bounding rect")
	}
}

func TestCursorLocationScreenFallsBackToClosest(t *testing.T) {
	r := newTestRegistry(t, ScreenLayout{Screens: []ScreenDescriptor{
		{Device: "mem:a", X: 0, Y: 0, Width: 800, Height: 600, ScaleFactor: 1},
		{Device: "mem:b", X: 800, Y: 0, Width: 1024, Height: 768, ScaleFactor: 1},
	}})
	in := NewInput(r)

	// The strip below the first screen is inside the bounding rect but on
	// no screen; resolution falls back to the nearest one.
	in.SetCursorLocation(gfx.Pt(100, 700))
	if in.CursorLocation() != gfx.Pt(100, 700) {
		t.Fatalf("cursor %v should be inside bounding rect", in.CursorLocation())
	}
	if s := in.CursorLocationScreen(); s == nil || s.Index() != 0 {
		t.Fatalf("expected fallback to nearest screen 0")
	}
}
