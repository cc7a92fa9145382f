package main

import "math/rand/v2"

// TileKind is the content of one grid cell. Values are part of the wire format.
type TileKind int8

const (
	TileOutOfBounds    TileKind = -1
	TileFloor          TileKind = 0
	TileSoftWall       TileKind = 1
	TileHardWall       TileKind = 2
	TileDeathmatchWall TileKind = 3
)

// Grid owns the arena tiles
type Grid struct {
	cfg   *GameConfig
	rng   *rand.Rand
	tiles [][]TileKind // [row][col]
}

// NewGrid creates a grid and generates its first layout
func NewGrid(cfg *GameConfig, rng *rand.Rand) *Grid {
	g := &Grid{cfg: cfg, rng: rng}
	g.Generate()
	return g
}

// spawnCells returns the four fixed starting cells, indexed by display index
func spawnCells(cfg *GameConfig) [4]Cell {
	return [4]Cell{
		{Col: 1, Row: 1},
		{Col: cfg.Cols - 2, Row: 1},
		{Col: 1, Row: cfg.Rows - 2},
		{Col: cfg.Cols - 2, Row: cfg.Rows - 2},
	}
}

// Generate rebuilds the layout: bordered hard-wall lattice, random soft walls
// outside the spawn zones, and cleared spawn openings.
func (g *Grid) Generate() {
	cols, rows := g.cfg.Cols, g.cfg.Rows
	g.tiles = make([][]TileKind, rows)
	for row := 0; row < rows; row++ {
		g.tiles[row] = make([]TileKind, cols)
		for col := 0; col < cols; col++ {
			border := row == 0 || row == rows-1 || col == 0 || col == cols-1
			if border || (row%2 == 0 && col%2 == 0) {
				g.tiles[row][col] = TileHardWall
			} else {
				g.tiles[row][col] = TileFloor
			}
		}
	}

	spawns := spawnCells(g.cfg)
	protected := make(map[Cell]bool, len(spawns)*9)
	for _, s := range spawns {
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				protected[Cell{Col: s.Col + dc, Row: s.Row + dr}] = true
			}
		}
	}

	for row := 1; row < rows-1; row++ {
		for col := 1; col < cols-1; col++ {
			if g.tiles[row][col] != TileFloor || protected[Cell{Col: col, Row: row}] {
				continue
			}
			if g.rng.Float64() < g.cfg.SoftWallChance {
				g.tiles[row][col] = TileSoftWall
			}
		}
	}

	for _, s := range spawns {
		g.tiles[s.Row][s.Col] = TileFloor
		for _, n := range [4]Cell{{s.Col, s.Row - 1}, {s.Col, s.Row + 1}, {s.Col - 1, s.Row}, {s.Col + 1, s.Row}} {
			if g.TileAt(n.Col, n.Row) == TileSoftWall {
				g.tiles[n.Row][n.Col] = TileFloor
			}
		}
	}
}

func (g *Grid) inBounds(col, row int) bool {
	return row >= 0 && row < len(g.tiles) && col >= 0 && col < len(g.tiles[row])
}

// TileAt returns the tile kind, or TileOutOfBounds outside the grid
func (g *Grid) TileAt(col, row int) TileKind {
	if !g.inBounds(col, row) {
		return TileOutOfBounds
	}
	return g.tiles[row][col]
}

// DestroySoftWall turns a soft wall into floor. The second result is an
// independent roll on whether a powerup should appear there.
func (g *Grid) DestroySoftWall(col, row int) (destroyed, spawnPowerup bool) {
	if g.TileAt(col, row) != TileSoftWall {
		return false, false
	}
	g.tiles[row][col] = TileFloor
	return true, g.rng.Float64() < g.cfg.PowerupChance
}

// PlaceWall converts a cell to a deathmatch wall. Returns false if it already was one.
func (g *Grid) PlaceWall(col, row int) bool {
	if !g.inBounds(col, row) || g.tiles[row][col] == TileDeathmatchWall {
		return false
	}
	g.tiles[row][col] = TileDeathmatchWall
	return true
}

// IsBlocking reports whether the cell stops movement
func (g *Grid) IsBlocking(col, row int) bool {
	switch g.TileAt(col, row) {
	case TileSoftWall, TileHardWall, TileDeathmatchWall:
		return true
	}
	return false
}

// Snapshot returns a copy of the tiles for serialization
func (g *Grid) Snapshot() [][]TileKind {
	out := make([][]TileKind, len(g.tiles))
	for i, row := range g.tiles {
		out[i] = append([]TileKind(nil), row...)
	}
	return out
}

// setTile is used by tests to build fixed layouts
func (g *Grid) setTile(col, row int, kind TileKind) {
	if g.inBounds(col, row) {
		g.tiles[row][col] = kind
	}
}
