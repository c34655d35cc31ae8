package display

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/lumenwm/lumen/device"
	"github.com/lumenwm/lumen/gfx"
)

func threeScreenLayout() ScreenLayout {
	return ScreenLayout{Screens: []ScreenDescriptor{
		{Device: "mem:a", X: 0, Y: 0, Width: 800, Height: 600, ScaleFactor: 1},
		{Device: "mem:b", X: 800, Y: 0, Width: 1024, Height: 768, ScaleFactor: 1},
		{Device: "mem:c", X: 1824, Y: 0, Width: 640, Height: 480, ScaleFactor: 1},
	}}
}

func newTestRegistry(t *testing.T, layout ScreenLayout) *Registry {
	t.Helper()
	r := NewRegistry()
	t.Cleanup(r.Close)
	if err := r.ApplyLayout(layout); err != nil {
		t.Fatalf("apply layout: %v", err)
	}
	return r
}

func TestApplyLayoutThreeScreens(t *testing.T) {
	r := newTestRegistry(t, threeScreenLayout())

	if r.Count() != 3 {
		t.Fatalf("expected 3 screens, got %d", r.Count())
	}
	for i := 0; i < 3; i++ {
		s := r.FindByIndex(i)
		if s == nil || s.Index() != i {
			t.Fatalf("screen %d has wrong index", i)
		}
	}
	if got := r.BoundingRect(); got != gfx.NewRect(0, 0, 2464, 768) {
		t.Fatalf("bounding rect %v", got)
	}
	if s := r.ClosestToLocation(gfx.Pt(1850, 10)); s.Index() != 2 {
		t.Fatalf("closest to (1850,10) should be screen 2, got %d", s.Index())
	}
	if s := r.FindByIndex(1); s.Rect() != gfx.NewRect(800, 0, 1024, 768) {
		t.Fatalf("middle screen rect %v", s.Rect())
	}
	if r.Main() == nil || r.Main().Index() != 0 {
		t.Fatalf("first screen should become main")
	}
}

func TestBoundingRectIsUnionOfScreens(t *testing.T) {
	r := newTestRegistry(t, threeScreenLayout())
	union := gfx.Rect{}
	r.ForEachScreen(func(s *Screen) bool {
		union = union.United(s.Rect())
		return true
	})
	if r.BoundingRect() != union {
		t.Fatalf("bounding rect %v != union %v", r.BoundingRect(), union)
	}
}

func registrySnapshot(r *Registry) string {
	return fmt.Sprintf("%v|%v|%v|%v", r.Rects(), r.BoundingRect(), r.Layout(), r.ScaleFactorsInUse())
}

func TestInvalidLayoutLeavesRegistryUntouched(t *testing.T) {
	r := newTestRegistry(t, threeScreenLayout())
	before := registrySnapshot(r)

	bad := threeScreenLayout()
	bad.Screens[1].Width = 0
	if err := r.ApplyLayout(bad); !errors.Is(err, ErrInvalidLayout) {
		t.Fatalf("expected ErrInvalidLayout, got %v", err)
	}
	if got := registrySnapshot(r); got != before {
		t.Fatalf("registry changed after rejected layout:\nbefore %s\nafter  %s", before, got)
	}
}

func TestDuplicateDeviceRejected(t *testing.T) {
	r := NewRegistry()
	defer r.Close()
	layout := threeScreenLayout()
	layout.Screens[2].Device = "mem:a"
	if err := r.ApplyLayout(layout); !errors.Is(err, ErrInvalidLayout) {
		t.Fatalf("expected ErrInvalidLayout, got %v", err)
	}
}

func TestOpenFailureIsAtomic(t *testing.T) {
	var opened []*device.MemoryDevice
	r := NewRegistry()
	defer r.Close()
	r.OpenDevice = func(path string, mode device.Mode) (device.Device, error) {
		if path == "mem:missing" {
			return nil, errors.New("no such device")
		}
		d, err := device.OpenMemory(path, mode)
		if err == nil {
			opened = append(opened, d)
		}
		return d, err
	}

	if err := r.ApplyLayout(threeScreenLayout()); err != nil {
		t.Fatalf("apply layout: %v", err)
	}
	before := registrySnapshot(r)
	openedBefore := len(opened)

	next := threeScreenLayout()
	next.Screens = append(next.Screens, ScreenDescriptor{
		Device: "mem:d", X: 2464, Y: 0, Width: 100, Height: 100, ScaleFactor: 1,
	}, ScreenDescriptor{
		Device: "mem:missing", X: 2564, Y: 0, Width: 100, Height: 100, ScaleFactor: 1,
	})
	if err := r.ApplyLayout(next); err == nil {
		t.Fatalf("expected open failure to fail the layout")
	}

	if got := registrySnapshot(r); got != before {
		t.Fatalf("registry changed after failed apply")
	}
	// The device that did open for the aborted layout must be closed again.
	for _, d := range opened[openedBefore:] {
		if err := d.SetBuffer(0); !errors.Is(err, device.ErrClosed) {
			t.Fatalf("device %s leaked from aborted layout", d.Path())
		}
	}
}

func TestApplyLayoutReusesScreensByDevice(t *testing.T) {
	r := newTestRegistry(t, threeScreenLayout())
	a, b := r.FindByIndex(0), r.FindByIndex(1)

	moved := ScreenLayout{Screens: []ScreenDescriptor{
		{Device: "mem:b", X: 0, Y: 0, Width: 1024, Height: 768, ScaleFactor: 1},
		{Device: "mem:a", X: 1024, Y: 0, Width: 800, Height: 600, ScaleFactor: 1},
	}}
	if err := r.ApplyLayout(moved); err != nil {
		t.Fatalf("apply moved layout: %v", err)
	}

	if r.Count() != 2 {
		t.Fatalf("expected 2 screens, got %d", r.Count())
	}
	if r.FindByIndex(0) != b || r.FindByIndex(1) != a {
		t.Fatalf("screens were reopened instead of reused")
	}
	if a.Index() != 1 || b.Index() != 0 {
		t.Fatalf("indices not reassigned: a=%d b=%d", a.Index(), b.Index())
	}
	if a.Rect() != gfx.NewRect(1024, 0, 800, 600) {
		t.Fatalf("reused screen not relocated: %v", a.Rect())
	}
}

func TestApplyLayoutModeChangeOnReusedScreen(t *testing.T) {
	r := newTestRegistry(t, ScreenLayout{Screens: []ScreenDescriptor{
		{Device: "mem:a", X: 0, Y: 0, Width: 800, Height: 600, ScaleFactor: 1},
	}})
	a := r.FindByIndex(0)

	if err := r.ApplyLayout(ScreenLayout{Screens: []ScreenDescriptor{
		{Device: "mem:a", X: 0, Y: 0, Width: 1600, Height: 1200, ScaleFactor: 2},
	}}); err != nil {
		t.Fatalf("apply mode change: %v", err)
	}
	if r.FindByIndex(0) != a {
		t.Fatalf("mode change must not reopen the device")
	}
	if a.Rect() != gfx.NewRect(0, 0, 800, 600) {
		t.Fatalf("virtual rect should be resolution/scale, got %v", a.Rect())
	}
	if a.PhysicalWidth() != 1600 || a.PhysicalHeight() != 1200 {
		t.Fatalf("physical size %dx%d", a.PhysicalWidth(), a.PhysicalHeight())
	}
	if got := r.ScaleFactorsInUse(); !reflect.DeepEqual(got, []int{2}) {
		t.Fatalf("scale factors %v", got)
	}
}

func TestMainScreenReassignedWhenRemoved(t *testing.T) {
	r := newTestRegistry(t, threeScreenLayout())
	if err := r.SetMainScreen(1); err != nil {
		t.Fatalf("set main: %v", err)
	}

	// Removing an unrelated screen keeps the designation.
	twoOf := threeScreenLayout()
	twoOf.Screens = twoOf.Screens[:2]
	if err := r.ApplyLayout(twoOf); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if r.Main().DevicePath() != "mem:b" {
		t.Fatalf("main screen should survive when still present")
	}

	// Removing the main screen falls back to index 0.
	onlyFirst := threeScreenLayout()
	onlyFirst.Screens = onlyFirst.Screens[:1]
	if err := r.ApplyLayout(onlyFirst); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if r.Main() == nil || r.Main().Index() != 0 || r.Main().DevicePath() != "mem:a" {
		t.Fatalf("main screen not reassigned to index 0")
	}
}

func TestEmptyLayoutIsDegenerateButSafe(t *testing.T) {
	r := newTestRegistry(t, threeScreenLayout())
	if err := r.ApplyLayout(ScreenLayout{}); err != nil {
		t.Fatalf("apply empty layout: %v", err)
	}
	if r.Count() != 0 {
		t.Fatalf("expected empty registry")
	}
	if r.Main() != nil {
		t.Fatalf("main screen must be unset when empty")
	}
	if !r.BoundingRect().IsEmpty() {
		t.Fatalf("bounding rect should be empty")
	}
	if len(r.ScaleFactorsInUse()) != 0 {
		t.Fatalf("scale factor set should be empty")
	}
}

func TestScaleFactorsInUse(t *testing.T) {
	r := newTestRegistry(t, ScreenLayout{Screens: []ScreenDescriptor{
		{Device: "mem:a", X: 0, Y: 0, Width: 800, Height: 600, ScaleFactor: 1},
		{Device: "mem:b", X: 800, Y: 0, Width: 1600, Height: 1200, ScaleFactor: 2},
		{Device: "mem:c", X: 1600, Y: 0, Width: 640, Height: 480, ScaleFactor: 1},
	}})
	if got := r.ScaleFactorsInUse(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("scale factors %v", got)
	}
}

func TestClosestToRectPrefersLargestOverlap(t *testing.T) {
	r := newTestRegistry(t, threeScreenLayout())

	// Mostly on the middle screen.
	query := gfx.NewRect(700, 100, 300, 100)
	if s := r.ClosestToRect(query); s.Index() != 1 {
		t.Fatalf("expected screen 1, got %d", s.Index())
	}
	// No overlap at all: nearest center wins.
	if s := r.ClosestToRect(gfx.NewRect(3000, 2000, 10, 10)); s.Index() != 2 {
		t.Fatalf("expected screen 2 for far-away rect, got %d", s.Index())
	}
}

func TestRectsMatchesScreens(t *testing.T) {
	r := newTestRegistry(t, threeScreenLayout())
	want := []gfx.Rect{
		gfx.NewRect(0, 0, 800, 600),
		gfx.NewRect(800, 0, 1024, 768),
		gfx.NewRect(1824, 0, 640, 480),
	}
	if got := r.Rects(); !reflect.DeepEqual(got, want) {
		t.Fatalf("rects %v", got)
	}
}
