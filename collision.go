package main

import "math"

// Rect is an axis-aligned box in world pixels, origin top-left
type Rect struct {
	X, Y float64
	W, H float64
}

// Overlaps reports strict overlap; touching edges do not count
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.W &&
		r.X+r.W > o.X &&
		r.Y < o.Y+o.H &&
		r.Y+r.H > o.Y
}

// Center returns the box midpoint
func (r Rect) Center() (float64, float64) {
	return r.X + r.W/2, r.Y + r.H/2
}

// Cell identifies one grid tile
type Cell struct {
	Col int `json:"col" msgpack:"col"`
	Row int `json:"row" msgpack:"row"`
}

// cellRect returns the full tile box for a cell
func cellRect(c Cell, tile float64) Rect {
	return Rect{X: float64(c.Col) * tile, Y: float64(c.Row) * tile, W: tile, H: tile}
}

// centeredRect returns a square of the given side centered inside a cell
func centeredRect(c Cell, tile, side float64) Rect {
	cx := float64(c.Col)*tile + tile/2
	cy := float64(c.Row)*tile + tile/2
	return Rect{X: cx - side/2, Y: cy - side/2, W: side, H: side}
}

// cellAt converts a world point to the cell containing it
func cellAt(x, y, tile float64) Cell {
	return Cell{Col: int(math.Floor(x / tile)), Row: int(math.Floor(y / tile))}
}

// cellsCovering returns the inclusive cell range a box touches
func cellsCovering(r Rect, tile float64) (minCol, minRow, maxCol, maxRow int) {
	minCol = int(math.Floor(r.X / tile))
	minRow = int(math.Floor(r.Y / tile))
	maxCol = int(math.Floor((r.X + r.W) / tile))
	maxRow = int(math.Floor((r.Y + r.H) / tile))
	return
}
