package display

import (
	"fmt"
	"log"
	"sort"

	"github.com/lumenwm/lumen/device"
	"github.com/lumenwm/lumen/gfx"
)

// Registry owns the ordered collection of open screens and every piece of
// global state derived from it: the applied layout, the main screen, the
// bounding rectangle of the virtual coordinate space and the set of scale
// factors in use.
//
// All mutation happens inside ApplyLayout; every other method is a read.
// The registry expects to live on a single control goroutine.
type Registry struct {
	// OpenDevice opens the device backing a layout descriptor. It defaults
	// to device.Open; tests substitute their own backends.
	OpenDevice func(path string, mode device.Mode) (device.Device, error)

	screens      []*Screen
	layout       ScreenLayout
	mainIndex    int
	boundingRect gfx.Rect
	scaleFactors []int
	input        *Input
}

// NewRegistry creates an empty registry. Screens appear once a layout is
// applied.
func NewRegistry() *Registry {
	return &Registry{
		OpenDevice: device.Open,
		mainIndex:  -1,
	}
}

type layoutEntry struct {
	desc   ScreenDescriptor
	reuse  *Screen
	newDev device.Device
}

// ApplyLayout atomically replaces the screen configuration. Devices for new
// descriptors are opened and live mode changes applied before anything
// observable changes; on any failure every side effect is rolled back and
// the previous configuration stays fully in effect.
func (r *Registry) ApplyLayout(newLayout ScreenLayout) error {
	if err := newLayout.Validate(); err != nil {
		return err
	}
	newLayout = newLayout.Clone()

	existing := make(map[string]*Screen, len(r.screens))
	for _, s := range r.screens {
		existing[s.DevicePath()] = s
	}

	entries := make([]layoutEntry, 0, len(newLayout.Screens))
	var opened []device.Device
	abort := func() {
		for _, dev := range opened {
			_ = dev.Close()
		}
	}

	for _, desc := range newLayout.Screens {
		if s, ok := existing[desc.Device]; ok {
			entries = append(entries, layoutEntry{desc: desc, reuse: s})
			continue
		}
		dev, err := r.OpenDevice(desc.Device, desc.Mode())
		if err != nil {
			abort()
			return fmt.Errorf("display: open device %s: %w", desc.Device, err)
		}
		opened = append(opened, dev)
		entries = append(entries, layoutEntry{desc: desc, newDev: dev})
	}

	// Live mode changes on reused screens come next; they are the last step
	// that can fail, and each left-behind device keeps its previous mode on
	// failure, so earlier changes can be reverted.
	type modeChange struct {
		screen *Screen
		prev   ScreenDescriptor
	}
	var applied []modeChange
	for _, e := range entries {
		if e.reuse == nil || e.reuse.descriptor.Mode() == e.desc.Mode() {
			continue
		}
		prev := e.reuse.descriptor
		if err := e.reuse.setResolution(e.desc, false); err != nil {
			for _, c := range applied {
				if revertErr := c.screen.setResolution(c.prev, false); revertErr != nil {
					log.Printf("display: revert mode on %s failed: %v", c.prev.Device, revertErr)
				}
			}
			abort()
			return err
		}
		applied = append(applied, modeChange{screen: e.reuse, prev: prev})
	}

	// Commit. Nothing below can fail.
	var prevMainDevice string
	if r.mainIndex >= 0 && r.mainIndex < len(r.screens) {
		prevMainDevice = r.screens[r.mainIndex].DevicePath()
	}

	reused := make(map[*Screen]bool, len(entries))
	screens := make([]*Screen, 0, len(entries))
	for _, e := range entries {
		if e.reuse != nil {
			e.reuse.relocate(e.desc)
			reused[e.reuse] = true
			screens = append(screens, e.reuse)
			continue
		}
		screens = append(screens, newScreen(e.newDev, e.desc))
	}
	for _, s := range r.screens {
		if !reused[s] {
			s.close()
		}
	}

	r.screens = screens
	r.layout = newLayout
	r.updateIndices()
	r.updateBoundingRect()
	r.updateScaleFactorsInUse()
	r.updateMainScreen(prevMainDevice)

	if r.input != nil {
		r.input.reclamp()
	}
	return nil
}

func (r *Registry) updateIndices() {
	for i, s := range r.screens {
		s.index = i
	}
}

func (r *Registry) updateBoundingRect() {
	var bounds gfx.Rect
	for _, s := range r.screens {
		bounds = bounds.United(s.Rect())
	}
	r.boundingRect = bounds
}

func (r *Registry) updateScaleFactorsInUse() {
	set := make(map[int]bool, 2)
	for _, s := range r.screens {
		set[s.ScaleFactor()] = true
	}
	factors := make([]int, 0, len(set))
	for f := range set {
		factors = append(factors, f)
	}
	sort.Ints(factors)
	r.scaleFactors = factors
}

func (r *Registry) updateMainScreen(prevMainDevice string) {
	if len(r.screens) == 0 {
		r.mainIndex = -1
		return
	}
	for i, s := range r.screens {
		if s.DevicePath() == prevMainDevice {
			r.mainIndex = i
			return
		}
	}
	r.mainIndex = 0
}

// attachInput registers the input state whose cursor must stay inside the
// bounding rectangle across layout changes.
func (r *Registry) attachInput(in *Input) { r.input = in }

// Main returns the designated main screen, or nil when no screens exist.
func (r *Registry) Main() *Screen {
	if r.mainIndex < 0 {
		return nil
	}
	return r.screens[r.mainIndex]
}

// SetMainScreen designates an existing screen as the main screen.
func (r *Registry) SetMainScreen(index int) error {
	if index < 0 || index >= len(r.screens) {
		return fmt.Errorf("display: no screen with index %d", index)
	}
	r.mainIndex = index
	return nil
}

func (r *Registry) Count() int { return len(r.screens) }

// FindByIndex returns the screen at the given index, or nil.
func (r *Registry) FindByIndex(index int) *Screen {
	if index < 0 || index >= len(r.screens) {
		return nil
	}
	return r.screens[index]
}

// FindByLocation returns the screen whose rectangle contains the point, or
// nil when the point lies on no screen.
func (r *Registry) FindByLocation(p gfx.Point) *Screen {
	for _, s := range r.screens {
		if s.Rect().Contains(p) {
			return s
		}
	}
	return nil
}

// ClosestToLocation returns the screen containing the point, falling back to
// the screen nearest to it. Always non-nil while screens exist.
func (r *Registry) ClosestToLocation(p gfx.Point) *Screen {
	return r.ClosestToRect(gfx.NewRect(p.X, p.Y, 1, 1))
}

// ClosestToRect returns the screen whose rectangle overlaps the query most,
// falling back to the nearest screen by center distance when nothing
// overlaps. Ties go to the lower index, so the result is deterministic.
func (r *Registry) ClosestToRect(rect gfx.Rect) *Screen {
	var best *Screen
	bestArea := 0
	for _, s := range r.screens {
		if area := s.Rect().Intersected(rect).Area(); area > bestArea {
			best, bestArea = s, area
		}
	}
	if best != nil {
		return best
	}
	bestDist := 0
	for _, s := range r.screens {
		dist := s.Rect().CenterDistanceSquared(rect)
		if best == nil || dist < bestDist {
			best, bestDist = s, dist
		}
	}
	return best
}

// BoundingRect is the union of every screen's virtual rectangle.
func (r *Registry) BoundingRect() gfx.Rect { return r.boundingRect }

// Rects returns one rectangle per screen in index order.
func (r *Registry) Rects() []gfx.Rect {
	rects := make([]gfx.Rect, len(r.screens))
	for i, s := range r.screens {
		rects[i] = s.Rect()
	}
	return rects
}

// ScaleFactorsInUse returns the distinct scale factors of the current
// screens, ascending.
func (r *Registry) ScaleFactorsInUse() []int {
	factors := make([]int, len(r.scaleFactors))
	copy(factors, r.scaleFactors)
	return factors
}

// Layout returns a copy of the currently-applied layout.
func (r *Registry) Layout() ScreenLayout { return r.layout.Clone() }

// ForEachScreen calls f for every screen in index order until f returns
// false.
func (r *Registry) ForEachScreen(f func(*Screen) bool) {
	for _, s := range r.screens {
		if !f(s) {
			return
		}
	}
}

// Close shuts every screen's device down and empties the registry.
func (r *Registry) Close() {
	for _, s := range r.screens {
		s.close()
	}
	r.screens = nil
	r.layout = ScreenLayout{}
	r.mainIndex = -1
	r.boundingRect = gfx.Rect{}
	r.scaleFactors = nil
}
