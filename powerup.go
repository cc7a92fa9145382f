package main

import (
	"fmt"
	"math/rand/v2"
)

// PowerupKind names a pickup effect. Values are part of the wire format.
type PowerupKind string

const (
	PowerupRange  PowerupKind = "bomb_range"
	PowerupCount  PowerupKind = "extra_bomb"
	PowerupSpeed  PowerupKind = "speed_boost"
	PowerupShield PowerupKind = "shield"
	PowerupPierce PowerupKind = "piercing_bomb"
)

var powerupKinds = [...]PowerupKind{PowerupRange, PowerupCount, PowerupSpeed, PowerupShield, PowerupPierce}

// Powerup is a pickup lying on one cell
type Powerup struct {
	ID   string
	Kind PowerupKind
	Cell Cell
	Box  Rect
}

// PowerupRegistry owns the pickups of one room, in spawn order
type PowerupRegistry struct {
	cfg    *GameConfig
	rng    *rand.Rand
	items  []*Powerup
	nextID int
}

// NewPowerupRegistry creates an empty registry
func NewPowerupRegistry(cfg *GameConfig, rng *rand.Rand) *PowerupRegistry {
	return &PowerupRegistry{cfg: cfg, rng: rng}
}

// Reset clears all pickups
func (pr *PowerupRegistry) Reset() {
	pr.items = nil
	pr.nextID = 0
}

// At returns the pickup on a cell, if any
func (pr *PowerupRegistry) At(col, row int) *Powerup {
	for _, p := range pr.items {
		if p.Cell.Col == col && p.Cell.Row == row {
			return p
		}
	}
	return nil
}

// Spawn places a random pickup on a free cell. Returns nil if the cell is taken.
func (pr *PowerupRegistry) Spawn(col, row int) *Powerup {
	kind := powerupKinds[pr.rng.IntN(len(powerupKinds))]
	return pr.spawnKind(col, row, kind)
}

func (pr *PowerupRegistry) spawnKind(col, row int, kind PowerupKind) *Powerup {
	if pr.At(col, row) != nil {
		return nil
	}
	c := Cell{Col: col, Row: row}
	p := &Powerup{
		ID:   fmt.Sprintf("p-%d", pr.nextID),
		Kind: kind,
		Cell: c,
		Box:  cellRect(c, pr.cfg.TileSize),
	}
	pr.nextID++
	pr.items = append(pr.items, p)
	return p
}

// Collect hands the first pickup overlapping a living entity to it.
// At most one pickup is collected per call.
func (pr *PowerupRegistry) Collect(e *Entity) *Powerup {
	if e == nil || e.Status != StatusAlive {
		return nil
	}
	box := e.Box()
	for i, p := range pr.items {
		if p.Box.Overlaps(box) {
			pr.removeIndex(i)
			e.ApplyPowerup(p.Kind)
			return p
		}
	}
	return nil
}

// DestroyOverlapping removes and returns the first pickup overlapping box
func (pr *PowerupRegistry) DestroyOverlapping(box Rect) *Powerup {
	for i, p := range pr.items {
		if p.Box.Overlaps(box) {
			pr.removeIndex(i)
			return p
		}
	}
	return nil
}

// RemoveAt unconditionally removes the pickup on a cell
func (pr *PowerupRegistry) RemoveAt(col, row int) *Powerup {
	for i, p := range pr.items {
		if p.Cell.Col == col && p.Cell.Row == row {
			pr.removeIndex(i)
			return p
		}
	}
	return nil
}

// Count returns the number of pickups on the grid
func (pr *PowerupRegistry) Count() int {
	return len(pr.items)
}

func (pr *PowerupRegistry) removeIndex(i int) {
	pr.items = append(pr.items[:i], pr.items[i+1:]...)
}

// Snapshot converts pickups to protocol state
func (pr *PowerupRegistry) Snapshot() []PowerupState {
	out := make([]PowerupState, 0, len(pr.items))
	for _, p := range pr.items {
		out = append(out, PowerupState{ID: p.ID, Kind: p.Kind, X: p.Box.X, Y: p.Box.Y})
	}
	return out
}
