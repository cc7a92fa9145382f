package main

import (
	"fmt"
	"time"
)

// chainFuse is the fuse a bomb is forced to when a blast reaches it
const chainFuse = time.Millisecond

// Bomb is an armed device on one cell
type Bomb struct {
	ID       string
	OwnerID  string
	Cell     Cell
	Fuse     time.Duration
	Range    int
	Piercing bool
}

// Blast is one cell's worth of a live explosion
type Blast struct {
	ID        string
	BombID    string
	OwnerID   string
	Cell      Cell
	Box       Rect
	Remaining time.Duration
	Terminal  bool // tip of an arm
}

// BombResult reports what one BombSystem step did
type BombResult struct {
	Hit             []string // entity ids, first-hit order, no duplicates
	Detonated       []*Bomb
	WallsDestroyed  []Cell
	PowerupsSpawned []*Powerup
}

type destroyedWall struct {
	cell  Cell
	spawn bool
}

// BombSystem owns armed bombs and live blasts for one room
type BombSystem struct {
	cfg      *GameConfig
	grid     *Grid
	roster   *Roster
	powerups *PowerupRegistry

	bombs       []*Bomb
	blasts      []*Blast
	nextBombID  int
	nextBlastID int
}

// NewBombSystem creates an empty bomb system over the room's shared state
func NewBombSystem(cfg *GameConfig, grid *Grid, roster *Roster, powerups *PowerupRegistry) *BombSystem {
	return &BombSystem{cfg: cfg, grid: grid, roster: roster, powerups: powerups}
}

// Reset clears bombs and blasts
func (bs *BombSystem) Reset() {
	bs.bombs = nil
	bs.blasts = nil
	bs.nextBombID = 0
	bs.nextBlastID = 0
}

// Bombs returns the armed bombs. Callers must not modify the slice.
func (bs *BombSystem) Bombs() []*Bomb {
	return bs.bombs
}

// Blasts returns the live blast components. Callers must not modify the slice.
func (bs *BombSystem) Blasts() []*Blast {
	return bs.blasts
}

// BombAt returns the bomb on a cell, if any
func (bs *BombSystem) BombAt(col, row int) *Bomb {
	for _, b := range bs.bombs {
		if b.Cell.Col == col && b.Cell.Row == row {
			return b
		}
	}
	return nil
}

// ActiveCount returns how many bombs an owner has armed
func (bs *BombSystem) ActiveCount(ownerID string) int {
	n := 0
	for _, b := range bs.bombs {
		if b.OwnerID == ownerID {
			n++
		}
	}
	return n
}

// AddBomb arms a bomb for ownerID. Returns false and changes nothing when the
// owner is not alive, is at its bomb limit, the cell is not free floor, or a
// living opponent stands on it.
func (bs *BombSystem) AddBomb(col, row, rng int, piercing bool, ownerID string) bool {
	owner := bs.roster.Get(ownerID)
	if owner == nil || owner.Status != StatusAlive {
		return false
	}
	if bs.ActiveCount(ownerID) >= owner.MaxBombs {
		return false
	}
	if bs.grid.TileAt(col, row) != TileFloor || bs.BombAt(col, row) != nil {
		return false
	}
	c := Cell{Col: col, Row: row}
	cellBox := cellRect(c, bs.cfg.TileSize)
	for _, e := range bs.roster.All() {
		if e.ID != ownerID && e.Status == StatusAlive && e.Box().Overlaps(cellBox) {
			return false
		}
	}

	bs.bombs = append(bs.bombs, &Bomb{
		ID:       fmt.Sprintf("b-%d", bs.nextBombID),
		OwnerID:  ownerID,
		Cell:     c,
		Fuse:     bs.cfg.FuseTime,
		Range:    rng,
		Piercing: piercing,
	})
	bs.nextBombID++
	return true
}

// RemoveBombAt evicts a bomb without detonating it. Unless skipOwnerCheck is
// set, the owner's exiting-tile marker is cleared when it pointed at this cell.
func (bs *BombSystem) RemoveBombAt(col, row int, skipOwnerCheck bool) bool {
	for i, b := range bs.bombs {
		if b.Cell.Col != col || b.Cell.Row != row {
			continue
		}
		bs.bombs = append(bs.bombs[:i], bs.bombs[i+1:]...)
		if !skipOwnerCheck {
			if owner := bs.roster.Get(b.OwnerID); owner != nil && owner.exiting != nil && *owner.exiting == b.Cell {
				owner.exiting = nil
			}
		}
		return true
	}
	return false
}

// detonation tracks the bombs going off in one step, breadth first
type detonation struct {
	queue  []*Bomb
	queued map[*Bomb]bool
}

func (d *detonation) push(b *Bomb) {
	if d.queued[b] {
		return
	}
	d.queued[b] = true
	d.queue = append(d.queue, b)
}

// hitSet keeps hit ids unique while preserving first-hit order
type hitSet struct {
	ids  []string
	seen map[string]bool
}

func newHitSet() *hitSet {
	return &hitSet{seen: make(map[string]bool)}
}

func (h *hitSet) add(id string) {
	if h.seen[id] {
		return
	}
	h.seen[id] = true
	h.ids = append(h.ids, id)
}

// Update runs fuses, ages blasts, detonates due bombs with chain reactions,
// and spawns powerups from destroyed soft walls.
func (bs *BombSystem) Update(dt time.Duration) BombResult {
	det := &detonation{queued: make(map[*Bomb]bool)}
	hits := newHitSet()
	var walls []destroyedWall

	for _, b := range bs.bombs {
		b.Fuse -= dt
		if b.Fuse <= 0 {
			b.Fuse = 0
			det.push(b)
		}
	}

	// Live blasts keep hitting entities and arming bombs for their whole lifetime.
	alive := bs.blasts[:0]
	for _, bl := range bs.blasts {
		bl.Remaining -= dt
		if bl.Remaining <= 0 {
			continue
		}
		alive = append(alive, bl)
		for _, e := range bs.roster.All() {
			if e.Status == StatusAlive && e.Box().Overlaps(bl.Box) {
				hits.add(e.ID)
			}
		}
		for _, b := range bs.bombs {
			if b.Cell == bl.Cell && b.Fuse > chainFuse {
				b.Fuse = chainFuse
				det.push(b)
			}
		}
	}
	for i := len(alive); i < len(bs.blasts); i++ {
		bs.blasts[i] = nil
	}
	bs.blasts = alive

	for i := 0; i < len(det.queue); i++ {
		b := det.queue[i]
		triggered := bs.explode(b, hits, &walls)
		for _, t := range triggered {
			t.Fuse = chainFuse
			det.push(t)
		}
	}

	res := BombResult{Hit: hits.ids, Detonated: det.queue}
	for _, w := range walls {
		res.WallsDestroyed = append(res.WallsDestroyed, w.cell)
		if !w.spawn {
			continue
		}
		if p := bs.powerups.Spawn(w.cell.Col, w.cell.Row); p != nil {
			res.PowerupsSpawned = append(res.PowerupsSpawned, p)
		}
	}

	if len(det.queue) > 0 {
		kept := bs.bombs[:0]
		for _, b := range bs.bombs {
			if !det.queued[b] {
				kept = append(kept, b)
			}
		}
		for i := len(kept); i < len(bs.bombs); i++ {
			bs.bombs[i] = nil
		}
		bs.bombs = kept
	}
	return res
}

var blastDirections = [4]Direction{{DY: -1}, {DY: 1}, {DX: -1}, {DX: 1}}

// explode propagates one bomb's blast and returns the armed bombs it reached
func (bs *BombSystem) explode(b *Bomb, hits *hitSet, walls *[]destroyedWall) []*Bomb {
	var triggered []*Bomb

	// process examines one cell; stop ends the arm, drawn means a blast goes here
	process := func(c Cell, pierceLeft *int) (stop, drawn bool) {
		kind := bs.grid.TileAt(c.Col, c.Row)
		if kind != TileOutOfBounds {
			box := cellRect(c, bs.cfg.TileSize)
			for _, e := range bs.roster.All() {
				if e.Status == StatusAlive && e.Box().Overlaps(box) {
					hits.add(e.ID)
				}
			}
			for _, other := range bs.bombs {
				if other != b && other.Cell == c && other.Fuse > chainFuse {
					triggered = append(triggered, other)
				}
			}
		}

		switch kind {
		case TileSoftWall:
			destroyed, spawn := bs.grid.DestroySoftWall(c.Col, c.Row)
			if !destroyed {
				return false, true
			}
			*walls = append(*walls, destroyedWall{cell: c, spawn: spawn})
			if *pierceLeft > 0 {
				*pierceLeft--
				return false, true
			}
			return true, true
		case TileHardWall, TileDeathmatchWall, TileOutOfBounds:
			return true, false
		default:
			return false, true
		}
	}

	noPierce := 0
	center := b.Cell
	stop, drawn := process(center, &noPierce)
	if drawn {
		bs.addBlast(b, center, b.Range == 0)
	}
	if stop && b.Range > 0 {
		return triggered
	}

	for _, dir := range blastDirections {
		pierceLeft := 0
		if b.Piercing {
			pierceLeft = 1
		}
		for i := 1; i <= b.Range; i++ {
			c := Cell{Col: center.Col + dir.DX*i, Row: center.Row + dir.DY*i}
			stop, drawn := process(c, &pierceLeft)
			if drawn {
				bs.addBlast(b, c, i == b.Range || stop)
			}
			if stop {
				break
			}
		}
	}
	return triggered
}

func (bs *BombSystem) addBlast(b *Bomb, c Cell, terminal bool) {
	side := bs.cfg.TileSize * bs.cfg.BlastRatio
	bl := &Blast{
		ID:        fmt.Sprintf("e-%d", bs.nextBlastID),
		BombID:    b.ID,
		OwnerID:   b.OwnerID,
		Cell:      c,
		Box:       centeredRect(c, bs.cfg.TileSize, side),
		Remaining: bs.cfg.BlastDuration,
		Terminal:  terminal,
	}
	bs.nextBlastID++
	bs.blasts = append(bs.blasts, bl)
	// Pickups already lying under a fresh blast burn; ones spawned this step survive.
	bs.powerups.DestroyOverlapping(bl.Box)
}

// Snapshot converts bombs and blasts to protocol state
func (bs *BombSystem) Snapshot() ([]BombState, []BlastState) {
	tile := bs.cfg.TileSize
	bombs := make([]BombState, 0, len(bs.bombs))
	for _, b := range bs.bombs {
		bombs = append(bombs, BombState{
			ID:      b.ID,
			OwnerID: b.OwnerID,
			X:       float64(b.Cell.Col) * tile,
			Y:       float64(b.Cell.Row) * tile,
			Col:     b.Cell.Col,
			Row:     b.Cell.Row,
		})
	}
	blasts := make([]BlastState, 0, len(bs.blasts))
	for _, bl := range bs.blasts {
		blasts = append(blasts, BlastState{
			ID:       bl.ID,
			BombID:   bl.BombID,
			X:        bl.Box.X,
			Y:        bl.Box.Y,
			W:        bl.Box.W,
			H:        bl.Box.H,
			Col:      bl.Cell.Col,
			Row:      bl.Cell.Row,
			Terminal: bl.Terminal,
		})
	}
	return bombs, blasts
}
