package gfx

import "testing"

func TestRectUnited(t *testing.T) {
	a := NewRect(0, 0, 800, 600)
	b := NewRect(800, 0, 1024, 768)
	u := a.United(b)
	if u != (Rect{X: 0, Y: 0, W: 1824, H: 768}) {
		t.Fatalf("unexpected union %v", u)
	}

	if got := (Rect{}).United(a); got != a {
		t.Fatalf("empty union should return other rect, got %v", got)
	}
	if got := a.United(Rect{}); got != a {
		t.Fatalf("union with empty should return receiver, got %v", got)
	}
}

func TestRectIntersected(t *testing.T) {
	a := NewRect(0, 0, 100, 100)
	b := NewRect(50, 50, 100, 100)
	got := a.Intersected(b)
	if got != (Rect{X: 50, Y: 50, W: 50, H: 50}) {
		t.Fatalf("unexpected intersection %v", got)
	}
	if !a.Intersects(b) {
		t.Fatalf("expected overlap")
	}
	if a.Intersects(NewRect(200, 200, 10, 10)) {
		t.Fatalf("expected no overlap with disjoint rect")
	}
}

func TestRectContains(t *testing.T) {
	r := NewRect(800, 0, 1024, 768)
	if !r.Contains(Pt(800, 0)) {
		t.Fatalf("top-left corner should be contained")
	}
	if r.Contains(Pt(1824, 0)) {
		t.Fatalf("exclusive right edge should not be contained")
	}
	if !r.Contains(Pt(1823, 767)) {
		t.Fatalf("last pixel should be contained")
	}
}

func TestRectClampedPoint(t *testing.T) {
	r := NewRect(0, 0, 2464, 768)
	tests := []struct {
		in, want Point
	}{
		{Pt(2560, 5), Pt(2463, 5)},
		{Pt(-10, -10), Pt(0, 0)},
		{Pt(100, 900), Pt(100, 767)},
		{Pt(849, 10), Pt(849, 10)},
	}
	for _, tc := range tests {
		if got := r.ClampedPoint(tc.in); got != tc.want {
			t.Fatalf("clamp %v: got %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestRectAdjacent(t *testing.T) {
	a := NewRect(0, 0, 10, 10)
	if !a.Adjacent(NewRect(10, 0, 10, 10)) {
		t.Fatalf("edge-sharing rects should be adjacent")
	}
	if !a.Adjacent(NewRect(5, 5, 10, 10)) {
		t.Fatalf("overlapping rects should be adjacent")
	}
	if a.Adjacent(NewRect(12, 0, 10, 10)) {
		t.Fatalf("rects with a gap should not be adjacent")
	}
}
