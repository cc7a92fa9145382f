package main

import (
	"log"
	"time"
)

// Spiral edge directions, clockwise from the top edge
const (
	shrinkTop = iota
	shrinkRight
	shrinkBottom
	shrinkLeft
)

// ArenaShrink is the sudden-death controller. After a countdown it walls the
// arena in, one cell per interval, along a clockwise inward spiral.
type ArenaShrink struct {
	cfg      *GameConfig
	grid     *Grid
	roster   *Roster
	bombs    *BombSystem
	powerups *PowerupRegistry

	active    bool
	complete  bool
	countdown time.Duration
	accum     time.Duration

	layer int
	dir   int
	index int

	minCol, maxCol int
	minRow, maxRow int

	WallsPlaced int
}

// ShrinkPlacement is the outcome of one spiral step
type ShrinkPlacement struct {
	Placed bool
	Cell   Cell
	Hit    []string
}

// NewArenaShrink creates a controller in its countdown phase
func NewArenaShrink(cfg *GameConfig, grid *Grid, roster *Roster, bombs *BombSystem, powerups *PowerupRegistry) *ArenaShrink {
	s := &ArenaShrink{cfg: cfg, grid: grid, roster: roster, bombs: bombs, powerups: powerups}
	s.Reset()
	return s
}

// Reset returns to the start of the countdown with a fresh spiral cursor
func (s *ArenaShrink) Reset() {
	s.active = false
	s.complete = false
	s.countdown = s.cfg.DeathmatchDelay
	s.accum = 0
	s.layer, s.dir, s.index = 0, shrinkTop, 0
	s.minCol, s.maxCol = 1, s.cfg.Cols-2
	s.minRow, s.maxRow = 1, s.cfg.Rows-2
	s.WallsPlaced = 0
}

// Active reports whether shrinking has started
func (s *ArenaShrink) Active() bool { return s.active }

// Complete reports whether the spiral has collapsed the arena
func (s *ArenaShrink) Complete() bool { return s.complete }

// Update advances the countdown or the spiral and returns the ids of entities
// caught under newly placed walls, without duplicates.
func (s *ArenaShrink) Update(dt time.Duration) []string {
	if !s.active {
		if s.countdown > 0 {
			s.countdown -= dt
			if s.countdown <= 0 {
				s.countdown = 0
				s.activate()
			}
		}
		return nil
	}
	if s.complete {
		return nil
	}

	hits := newHitSet()
	s.accum += dt
	for s.accum >= s.cfg.ShrinkInterval && !s.complete {
		p := s.placeNext()
		for _, id := range p.Hit {
			hits.add(id)
		}
		s.accum -= s.cfg.ShrinkInterval
	}
	return hits.ids
}

// activate starts shrinking. Anyone mid-respawn is out for good.
func (s *ArenaShrink) activate() {
	if s.active {
		return
	}
	s.active = true
	s.accum = 0
	for _, e := range s.roster.All() {
		if e.Status == StatusRespawning {
			log.Printf("shrink: %s was respawning at deathmatch start, eliminated", e.ID)
			e.Eliminate()
		}
	}
}

// placeNext converts the cell under the spiral cursor and advances the cursor
func (s *ArenaShrink) placeNext() ShrinkPlacement {
	var res ShrinkPlacement
	if s.complete {
		return res
	}

	minCol, maxCol := s.minCol+s.layer, s.maxCol-s.layer
	minRow, maxRow := s.minRow+s.layer, s.maxRow-s.layer
	if minCol > maxCol || minRow > maxRow {
		s.complete = true
		return res
	}

	col, row := -1, -1
	nextDir, nextLayer, nextIndex := s.dir, s.layer, s.index+1

	switch s.dir {
	case shrinkTop:
		col, row = minCol+s.index, minRow
		if col >= maxCol {
			col = maxCol
			nextDir, nextIndex = shrinkRight, 1
		}
	case shrinkRight:
		col, row = maxCol, minRow+s.index
		if row >= maxRow {
			row = maxRow
			nextDir, nextIndex = shrinkBottom, 1
		}
	case shrinkBottom:
		col, row = maxCol-s.index, maxRow
		if col <= minCol {
			col = minCol
			nextDir, nextIndex = shrinkLeft, 1
		}
	case shrinkLeft:
		col, row = minCol, maxRow-s.index
		if row <= minRow {
			row = minRow
			nextDir, nextLayer, nextIndex = shrinkTop, s.layer+1, 0
		}
	}

	if col < s.minCol || col > s.maxCol || row < s.minRow || row > s.maxRow {
		s.complete = true
	} else if s.grid.TileAt(col, row) != TileDeathmatchWall {
		res = s.wallIn(Cell{Col: col, Row: row})
	}

	s.dir, s.layer, s.index = nextDir, nextLayer, nextIndex
	return res
}

// wallIn clears a cell, reports who stands on it, and makes it a deathmatch wall
func (s *ArenaShrink) wallIn(c Cell) ShrinkPlacement {
	s.powerups.RemoveAt(c.Col, c.Row)
	s.bombs.RemoveBombAt(c.Col, c.Row, true)

	res := ShrinkPlacement{Cell: c}
	box := cellRect(c, s.cfg.TileSize)
	for _, e := range s.roster.All() {
		if e.Status == StatusAlive && e.Box().Overlaps(box) {
			res.Hit = append(res.Hit, e.ID)
		}
	}
	if s.grid.PlaceWall(c.Col, c.Row) {
		res.Placed = true
		s.WallsPlaced++
	}
	return res
}

// State converts to protocol state
func (s *ArenaShrink) State() ShrinkState {
	return ShrinkState{
		Active:    s.active,
		Countdown: round1(s.countdown.Seconds()),
		Complete:  s.complete,
	}
}
