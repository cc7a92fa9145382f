package main

import (
	"math"
	"time"
)

// EntityStatus is the life state of a participant during play
type EntityStatus int

const (
	StatusAlive EntityStatus = iota
	StatusRespawning
	StatusEliminated
)

func (s EntityStatus) String() string {
	switch s {
	case StatusAlive:
		return "alive"
	case StatusRespawning:
		return "respawning"
	case StatusEliminated:
		return "eliminated"
	}
	return "unknown"
}

// debugTimer stands in for "effectively forever" on debug powerups
const debugTimer = 999999 * time.Millisecond

// InputState is the latest directional and bomb intent from a client
type InputState struct {
	Up        bool `json:"up"`
	Down      bool `json:"down"`
	Left      bool `json:"left"`
	Right     bool `json:"right"`
	PlaceBomb bool `json:"placeBomb"`
}

// Direction is a unit axis step
type Direction struct {
	DX int `json:"dx" msgpack:"dx"`
	DY int `json:"dy" msgpack:"dy"`
}

// Entity is one participant in a room
type Entity struct {
	ID             string
	Nickname       string
	PreferredColor string
	Color          string
	Index          int // display index, fixed at game start

	X, Y float64 // top-left of the hitbox
	W, H float64

	Lives    int
	MaxBombs int
	Range    int
	Piercing bool
	Speed    float64 // pixels/s
	Status   EntityStatus
	Facing   Direction

	speedTimer   time.Duration
	shieldTimer  time.Duration
	respawnTimer time.Duration
	exiting      *Cell // own bomb cell the entity may still overlap

	input          InputState
	prevInput      InputState
	placeRequested bool

	BombsPlaced       int
	PowerupsCollected int

	cfg    *GameConfig
	grid   *Grid
	bombs  *BombSystem
	roster *Roster
}

// NewEntity creates a participant bound to its room's subsystems
func NewEntity(id, nickname, preferredColor string, cfg *GameConfig, grid *Grid, bombs *BombSystem, roster *Roster) *Entity {
	e := &Entity{
		ID:             id,
		Nickname:       nickname,
		PreferredColor: preferredColor,
		W:              cfg.TileSize * cfg.PlayerRatio,
		H:              cfg.TileSize * cfg.PlayerRatio,
		cfg:            cfg,
		grid:           grid,
		bombs:          bombs,
		roster:         roster,
	}
	e.ResetForNewGame()
	return e
}

// ResetForNewGame restores starting lives and stats at the spawn for the current index
func (e *Entity) ResetForNewGame() {
	e.Lives = e.cfg.StartLives
	e.BombsPlaced = 0
	e.PowerupsCollected = 0
	e.reset()
}

// reset puts the entity on its spawn with starting stats. Lives are untouched.
func (e *Entity) reset() {
	spawns := spawnCells(e.cfg)
	idx := e.Index
	if idx < 0 || idx >= len(spawns) {
		idx = 0
	}
	s := spawns[idx]
	e.X = float64(s.Col)*e.cfg.TileSize + (e.cfg.TileSize-e.W)/2
	e.Y = float64(s.Row)*e.cfg.TileSize + (e.cfg.TileSize-e.H)/2

	e.Status = StatusAlive
	e.respawnTimer = 0
	e.MaxBombs = e.cfg.StartMaxBombs
	e.Range = e.cfg.StartRange
	e.Piercing = false
	e.Speed = e.cfg.BaseSpeed
	e.speedTimer = 0
	e.shieldTimer = 0
	e.exiting = nil
	e.Facing = Direction{DX: 1}
	e.clearInput()
}

func (e *Entity) clearInput() {
	e.input = InputState{}
	e.prevInput = InputState{}
	e.placeRequested = false
}

// Box returns the current hitbox
func (e *Entity) Box() Rect {
	return Rect{X: e.X, Y: e.Y, W: e.W, H: e.H}
}

// CenterCell returns the cell under the hitbox center
func (e *Entity) CenterCell() Cell {
	cx, cy := e.Box().Center()
	return cellAt(cx, cy, e.cfg.TileSize)
}

// ShieldActive reports whether a shield would absorb the next hit
func (e *Entity) ShieldActive() bool { return e.shieldTimer > 0 }

// SpeedBoostActive reports whether the speed powerup is running
func (e *Entity) SpeedBoostActive() bool { return e.speedTimer > 0 }

// LatchInput stores the newest input. A rising edge on PlaceBomb requests one
// placement on the next update.
func (e *Entity) LatchInput(in InputState) {
	e.prevInput = e.input
	e.input = in
	if in.PlaceBomb && !e.prevInput.PlaceBomb {
		e.placeRequested = true
	}
}

// Update advances the entity by dt. Arena shrink overrides any pending respawn.
func (e *Entity) Update(dt time.Duration, shrinkActive bool) {
	if e.Status == StatusRespawning {
		if shrinkActive {
			e.Eliminate()
			return
		}
		e.respawnTimer -= dt
		if e.respawnTimer > 0 {
			return
		}
		e.finishRespawn()
	}
	if e.Status != StatusAlive {
		return
	}

	e.updateTimers(dt)
	e.checkExitingTile()
	e.move(dt)
	e.tryPlaceBomb()
	e.clampPosition()
	e.placeRequested = false
}

func (e *Entity) updateTimers(dt time.Duration) {
	if e.speedTimer > 0 {
		e.speedTimer -= dt
		if e.speedTimer <= 0 {
			e.speedTimer = 0
			e.Speed = e.cfg.BaseSpeed
		}
	}
	if e.shieldTimer > 0 {
		e.shieldTimer -= dt
		if e.shieldTimer <= 0 {
			e.shieldTimer = 0
		}
	}
}

func (e *Entity) checkExitingTile() {
	if e.exiting == nil {
		return
	}
	if !e.Box().Overlaps(cellRect(*e.exiting, e.cfg.TileSize)) {
		e.exiting = nil
	}
}

// move tries the combined step first, then each axis alone so the entity slides along walls
func (e *Entity) move(dt time.Duration) {
	dx, dy := 0, 0
	if e.input.Up {
		dy--
	}
	if e.input.Down {
		dy++
	}
	if e.input.Left {
		dx--
	}
	if e.input.Right {
		dx++
	}
	if dx == 0 && dy == 0 {
		return
	}
	if dy == 0 {
		e.Facing = Direction{DX: dx}
	} else if dx == 0 {
		e.Facing = Direction{DY: dy}
	}

	mag := math.Hypot(float64(dx), float64(dy))
	step := e.Speed * dt.Seconds()
	mx := float64(dx) / mag * step
	my := float64(dy) / mag * step

	if !e.blocked(e.X+mx, e.Y+my) {
		e.X += mx
		e.Y += my
		return
	}
	if mx != 0 && !e.blocked(e.X+mx, e.Y) {
		e.X += mx
	}
	if my != 0 && !e.blocked(e.X, e.Y+my) {
		e.Y += my
	}
}

// blocked reports whether the hitbox at (x,y) hits a wall, a bomb or another living entity
func (e *Entity) blocked(x, y float64) bool {
	box := Rect{X: x, Y: y, W: e.W, H: e.H}
	tile := e.cfg.TileSize

	minCol, minRow, maxCol, maxRow := cellsCovering(box, tile)
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			c := Cell{Col: col, Row: row}
			if e.grid.IsBlocking(col, row) && box.Overlaps(cellRect(c, tile)) {
				return true
			}
		}
	}

	for _, b := range e.bombs.Bombs() {
		if e.exiting != nil && b.Cell == *e.exiting {
			continue
		}
		if box.Overlaps(cellRect(b.Cell, tile)) {
			return true
		}
	}

	for _, other := range e.roster.All() {
		if other == e || other.Status != StatusAlive {
			continue
		}
		if box.Overlaps(other.Box()) {
			return true
		}
	}
	return false
}

func (e *Entity) tryPlaceBomb() {
	if !e.placeRequested || e.exiting != nil {
		return
	}
	c := e.CenterCell()
	if e.grid.TileAt(c.Col, c.Row) != TileFloor {
		return
	}
	if e.bombs.AddBomb(c.Col, c.Row, e.Range, e.Piercing, e.ID) {
		e.exiting = &c
		e.BombsPlaced++
	}
}

func (e *Entity) clampPosition() {
	maxX := float64(e.cfg.Cols)*e.cfg.TileSize - e.W
	maxY := float64(e.cfg.Rows)*e.cfg.TileSize - e.H
	e.X = Clamp(e.X, 0, maxX)
	e.Y = Clamp(e.Y, 0, maxY)
}

// TakeHit applies one blast or shrink-wall hit. Returns true if a life was lost.
func (e *Entity) TakeHit(duringShrink bool) bool {
	if e.Status != StatusAlive {
		return false
	}
	if !duringShrink && e.shieldTimer > 0 {
		e.shieldTimer = 0
		return false
	}

	if duringShrink {
		e.Lives = 0
	} else {
		e.Lives--
	}
	e.exiting = nil
	e.speedTimer = 0
	e.Speed = e.cfg.BaseSpeed
	e.clearInput()

	if e.Lives > 0 {
		e.Status = StatusRespawning
		e.respawnTimer = e.cfg.RespawnDelay
	} else {
		e.Lives = 0
		e.Status = StatusEliminated
	}
	return true
}

// Eliminate ends the entity's game regardless of remaining lives
func (e *Entity) Eliminate() {
	e.Status = StatusEliminated
	e.Lives = 0
	e.respawnTimer = 0
	e.exiting = nil
	e.clearInput()
}

func (e *Entity) finishRespawn() {
	lives := e.Lives
	e.reset()
	e.Lives = lives
	e.shieldTimer = e.cfg.ShieldDuration / 2
}

// ApplyPowerup applies a pickup effect to a living entity
func (e *Entity) ApplyPowerup(kind PowerupKind) {
	if e.Status != StatusAlive {
		return
	}
	switch kind {
	case PowerupRange:
		e.Range = min(e.Range+1, e.cfg.MaxRange)
	case PowerupCount:
		e.MaxBombs = min(e.MaxBombs+1, e.cfg.MaxBombsCap)
	case PowerupSpeed:
		e.Speed = e.cfg.BaseSpeed * e.cfg.SpeedMul
		e.speedTimer = e.cfg.SpeedDuration
	case PowerupShield:
		e.shieldTimer = e.cfg.ShieldDuration
	case PowerupPierce:
		e.Piercing = true
	default:
		return
	}
	e.PowerupsCollected++
}

// ApplyMaxPowerups is the debug shortcut: every stat at its cap
func (e *Entity) ApplyMaxPowerups() {
	if e.Status != StatusAlive {
		return
	}
	e.Range = e.cfg.MaxRange
	e.MaxBombs = e.cfg.MaxBombsCap
	e.Speed = e.cfg.BaseSpeed * e.cfg.SpeedMul
	e.speedTimer = debugTimer
	e.shieldTimer = debugTimer
	e.Piercing = true
}

// ToState converts to protocol state
func (e *Entity) ToState() PlayerState {
	return PlayerState{
		ID:         e.ID,
		Index:      e.Index,
		Nickname:   e.Nickname,
		X:          round1(e.X),
		Y:          round1(e.Y),
		Color:      e.Color,
		Lives:      e.Lives,
		MaxBombs:   e.MaxBombs,
		BombRange:  e.Range,
		Piercing:   e.Piercing,
		Alive:      e.Status == StatusAlive,
		Respawning: e.Status == StatusRespawning,
		Shield:     e.ShieldActive(),
		SpeedBoost: e.SpeedBoostActive(),
		Facing:     e.Facing,
	}
}
