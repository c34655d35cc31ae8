// Package gfx provides the integer geometry primitives shared by the display
// core: points, sizes and rectangles in the global virtual coordinate space.
package gfx

import "fmt"

// Point is a location in the global coordinate space.
type Point struct {
	X, Y int
}

func Pt(x, y int) Point { return Point{X: x, Y: y} }

func (p Point) Translated(dx, dy int) Point { return Point{X: p.X + dx, Y: p.Y + dy} }

func (p Point) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Size is a width/height pair in pixels.
type Size struct {
	W, H int
}

func (s Size) IsEmpty() bool { return s.W <= 0 || s.H <= 0 }

// Scaled multiplies both dimensions by factor.
func (s Size) Scaled(factor int) Size { return Size{W: s.W * factor, H: s.H * factor} }

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.W, s.H) }

// Rect is an axis-aligned rectangle. X/Y is the top-left corner; the right
// and bottom edges are exclusive, so the last contained column is X+W-1.
type Rect struct {
	X, Y, W, H int
}

func NewRect(x, y, w, h int) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) IsEmpty() bool { return r.W <= 0 || r.H <= 0 }

func (r Rect) Location() Point { return Point{X: r.X, Y: r.Y} }

func (r Rect) Size() Size { return Size{W: r.W, H: r.H} }

// Right returns the exclusive right edge.
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Y + r.H }

func (r Rect) Area() int {
	if r.IsEmpty() {
		return 0
	}
	return r.W * r.H
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.Right() && p.Y >= r.Y && p.Y < r.Bottom()
}

// ContainsRect reports whether other lies fully inside r.
func (r Rect) ContainsRect(other Rect) bool {
	if other.IsEmpty() {
		return false
	}
	return other.X >= r.X && other.Right() <= r.Right() &&
		other.Y >= r.Y && other.Bottom() <= r.Bottom()
}

func (r Rect) Intersects(other Rect) bool {
	return !r.Intersected(other).IsEmpty()
}

// Intersected returns the overlap of r and other; empty when they are
// disjoint.
func (r Rect) Intersected(other Rect) Rect {
	x0 := max(r.X, other.X)
	y0 := max(r.Y, other.Y)
	x1 := min(r.Right(), other.Right())
	y1 := min(r.Bottom(), other.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// United returns the smallest rectangle covering both r and other. Empty
// rectangles do not contribute.
func (r Rect) United(other Rect) Rect {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	x0 := min(r.X, other.X)
	y0 := min(r.Y, other.Y)
	x1 := max(r.Right(), other.Right())
	y1 := max(r.Bottom(), other.Bottom())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Adjacent reports whether other shares an edge or overlaps r, i.e. whether
// the two rectangles can be merged without covering unrelated area.
func (r Rect) Adjacent(other Rect) bool {
	grown := Rect{X: r.X - 1, Y: r.Y - 1, W: r.W + 2, H: r.H + 2}
	return grown.Intersects(other)
}

// ClampedPoint returns the point inside r closest to p. The result is
// undefined for an empty rectangle.
func (r Rect) ClampedPoint(p Point) Point {
	if p.X < r.X {
		p.X = r.X
	} else if p.X >= r.Right() {
		p.X = r.Right() - 1
	}
	if p.Y < r.Y {
		p.Y = r.Y
	} else if p.Y >= r.Bottom() {
		p.Y = r.Bottom() - 1
	}
	return p
}

// CenterDistanceSquared returns the squared distance between the centers of
// r and other, for nearest-screen selection without float math.
func (r Rect) CenterDistanceSquared(other Rect) int {
	a, b := r.Center(), other.Center()
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

func (r Rect) String() string {
	return fmt.Sprintf("[%d,%d %dx%d]", r.X, r.Y, r.W, r.H)
}
