package main

import "testing"

func TestRectOverlaps(t *testing.T) {
	a := Rect{X: 0, Y: 0, W: 10, H: 10}

	if !a.Overlaps(Rect{X: 5, Y: 5, W: 10, H: 10}) {
		t.Error("boxes should overlap")
	}
	// Touching edges
	if a.Overlaps(Rect{X: 10, Y: 0, W: 10, H: 10}) {
		t.Error("touching boxes should not overlap")
	}
	if a.Overlaps(Rect{X: 0, Y: 20, W: 10, H: 10}) {
		t.Error("separate boxes should not overlap")
	}
	// Containment
	if !a.Overlaps(Rect{X: 2, Y: 2, W: 1, H: 1}) {
		t.Error("contained box should overlap")
	}
}

func TestCellGeometry(t *testing.T) {
	c := cellAt(85, 39.9, 40)
	if c != (Cell{Col: 2, Row: 0}) {
		t.Errorf("expected cell (2,0), got %+v", c)
	}

	r := centeredRect(Cell{Col: 1, Row: 1}, 40, 32)
	if r.X != 44 || r.Y != 44 || r.W != 32 {
		t.Errorf("unexpected centered rect %+v", r)
	}

	minC, minR, maxC, maxR := cellsCovering(Rect{X: 39, Y: 41, W: 32, H: 32}, 40)
	if minC != 0 || maxC != 1 || minR != 1 || maxR != 1 {
		t.Errorf("unexpected covering range %d,%d..%d,%d", minC, minR, maxC, maxR)
	}
}
