package main

import (
	"math"
	"testing"
	"time"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestNewEntityAtSpawn(t *testing.T) {
	w := newTestWorld(testGameConfig())
	e := NewEntity("p1", "Pilot", colorRandom, w.cfg, w.grid, w.bombs, w.roster)

	if e.Lives != w.cfg.StartLives || e.MaxBombs != w.cfg.StartMaxBombs || e.Range != w.cfg.StartRange {
		t.Errorf("unexpected starting stats: lives=%d bombs=%d range=%d", e.Lives, e.MaxBombs, e.Range)
	}
	if e.Status != StatusAlive {
		t.Errorf("expected alive, got %v", e.Status)
	}
	if !approx(e.X, 44) || !approx(e.Y, 44) {
		t.Errorf("expected centered on (1,1), got (%v,%v)", e.X, e.Y)
	}
	if e.W != 32 || e.H != 32 {
		t.Errorf("expected 32px hitbox, got %vx%v", e.W, e.H)
	}
}

func TestShieldAbsorbsOneHit(t *testing.T) {
	w := newTestWorld(testGameConfig())
	e := w.addEntity("a", 1, 1)
	e.ApplyPowerup(PowerupShield)

	if e.TakeHit(false) {
		t.Error("shielded hit should not cost a life")
	}
	if e.ShieldActive() || e.Lives != w.cfg.StartLives {
		t.Errorf("shield should be consumed with lives intact, lives=%d", e.Lives)
	}
	if !e.TakeHit(false) {
		t.Fatal("unshielded hit should cost a life")
	}
	if e.Lives != w.cfg.StartLives-1 || e.Status != StatusRespawning {
		t.Errorf("expected respawning with %d lives, got %v with %d", w.cfg.StartLives-1, e.Status, e.Lives)
	}
	if e.TakeHit(false) {
		t.Error("respawning entity should ignore hits")
	}
}

func TestShrinkHitIgnoresShield(t *testing.T) {
	w := newTestWorld(testGameConfig())
	e := w.addEntity("a", 1, 1)
	e.ApplyPowerup(PowerupShield)

	if !e.TakeHit(true) {
		t.Fatal("shrink hit should always land")
	}
	if e.Lives != 0 || e.Status != StatusEliminated {
		t.Errorf("expected eliminated with 0 lives, got %v with %d", e.Status, e.Lives)
	}
}

func TestLastLifeEliminates(t *testing.T) {
	w := newTestWorld(testGameConfig())
	e := w.addEntity("a", 1, 1)
	e.Lives = 1

	e.TakeHit(false)
	if e.Status != StatusEliminated || e.Lives != 0 {
		t.Errorf("expected elimination, got %v with %d lives", e.Status, e.Lives)
	}
}

func TestRespawnAfterDelay(t *testing.T) {
	w := newTestWorld(testGameConfig())
	e := w.addEntity("a", 5, 5)
	e.Index = 1
	e.ApplyPowerup(PowerupRange)
	e.TakeHit(false)

	e.Update(w.cfg.RespawnDelay-time.Millisecond, false)
	if e.Status != StatusRespawning {
		t.Fatal("respawned too early")
	}

	e.Update(time.Millisecond, false)
	if e.Status != StatusAlive {
		t.Fatalf("expected alive after delay, got %v", e.Status)
	}
	if !approx(e.X, 444) || !approx(e.Y, 44) {
		t.Errorf("expected spawn for index 1 at (444,44), got (%v,%v)", e.X, e.Y)
	}
	if !e.ShieldActive() {
		t.Error("respawn should grant a shield")
	}
	if e.Lives != w.cfg.StartLives-1 {
		t.Errorf("lives should survive respawn, got %d", e.Lives)
	}
	if e.Range != w.cfg.StartRange {
		t.Errorf("stats should reset on respawn, range=%d", e.Range)
	}
}

func TestRespawningEliminatedDuringShrink(t *testing.T) {
	w := newTestWorld(testGameConfig())
	e := w.addEntity("a", 1, 1)
	e.TakeHit(false)

	e.Update(16*time.Millisecond, true)
	if e.Status != StatusEliminated || e.Lives != 0 {
		t.Errorf("expected elimination, got %v with %d lives", e.Status, e.Lives)
	}
}

func TestMovementBlockedByWall(t *testing.T) {
	w := newTestWorld(testGameConfig())
	e := w.addEntity("a", 1, 1)

	e.LatchInput(InputState{Up: true})
	e.Update(100*time.Millisecond, false)
	if !approx(e.Y, 44) || !approx(e.X, 44) {
		t.Errorf("border should block, got (%v,%v)", e.X, e.Y)
	}
	if e.Facing != (Direction{DY: -1}) {
		t.Errorf("facing should follow input, got %+v", e.Facing)
	}
}

func TestMovementSlidesAlongWall(t *testing.T) {
	w := newTestWorld(testGameConfig())
	e := w.addEntity("a", 1, 1)

	e.LatchInput(InputState{Up: true, Right: true})
	e.Update(100*time.Millisecond, false)
	if !approx(e.Y, 44) {
		t.Errorf("vertical component should be blocked, Y=%v", e.Y)
	}
	if e.X <= 44 {
		t.Errorf("horizontal component should slide, X=%v", e.X)
	}
}

func TestMovementSpeed(t *testing.T) {
	w := newTestWorld(testGameConfig())
	e := w.addEntity("a", 1, 1)

	e.LatchInput(InputState{Down: true})
	e.Update(100*time.Millisecond, false)
	if !approx(e.Y, 56) {
		t.Errorf("expected 12px step at 120px/s, got Y=%v", e.Y)
	}
}

func TestDiagonalMovementNormalized(t *testing.T) {
	w := newTestWorld(testGameConfig())
	for row := 1; row < w.cfg.Rows-1; row++ {
		for col := 1; col < w.cfg.Cols-1; col++ {
			w.grid.setTile(col, row, TileFloor)
		}
	}
	e := w.addEntity("a", 5, 5)
	x0, y0 := e.X, e.Y

	e.LatchInput(InputState{Down: true, Right: true})
	e.Update(100*time.Millisecond, false)
	if d := math.Hypot(e.X-x0, e.Y-y0); !approx(d, 12) {
		t.Errorf("diagonal step should equal axis step, got %v", d)
	}
}

func TestEntitiesBlockEachOther(t *testing.T) {
	w := newTestWorld(testGameConfig())
	e := w.addEntity("a", 1, 1)
	other := w.addEntity("b", 2, 1)
	other.X = e.X + e.W + 2

	e.LatchInput(InputState{Right: true})
	e.Update(100*time.Millisecond, false)
	if !approx(e.X, 44) {
		t.Errorf("living entity should block movement, X=%v", e.X)
	}

	other.Status = StatusRespawning
	e.Update(100*time.Millisecond, false)
	if e.X <= 44 {
		t.Error("respawning entity should not block")
	}
}

func TestBombPlacementEdgeTriggered(t *testing.T) {
	w := newTestWorld(testGameConfig())
	e := w.addEntity("a", 1, 1)
	e.MaxBombs = 2

	e.LatchInput(InputState{PlaceBomb: true})
	e.Update(16*time.Millisecond, false)
	if len(w.bombs.Bombs()) != 1 || e.BombsPlaced != 1 {
		t.Fatalf("expected one bomb, got %d", len(w.bombs.Bombs()))
	}

	placeAt(e, 1, 3)
	e.LatchInput(InputState{PlaceBomb: true})
	e.Update(16*time.Millisecond, false)
	if len(w.bombs.Bombs()) != 1 {
		t.Error("holding the key should not place again")
	}

	e.LatchInput(InputState{})
	e.LatchInput(InputState{PlaceBomb: true})
	e.Update(16*time.Millisecond, false)
	if len(w.bombs.Bombs()) != 2 {
		t.Errorf("release and press should place again, got %d bombs", len(w.bombs.Bombs()))
	}
	if w.bombs.BombAt(1, 3) == nil {
		t.Error("bomb should be on the entity's center cell")
	}
}

func TestOwnBombBlocksAfterExit(t *testing.T) {
	w := newTestWorld(testGameConfig())
	e := w.addEntity("a", 1, 1)

	e.LatchInput(InputState{PlaceBomb: true})
	e.Update(16*time.Millisecond, false)
	if e.exiting == nil {
		t.Fatal("expected exiting marker on own bomb")
	}

	e.LatchInput(InputState{Down: true})
	for i := 0; i < 4; i++ {
		e.Update(100*time.Millisecond, false)
	}
	if e.Y <= 80 {
		t.Fatalf("entity should have walked off its bomb, Y=%v", e.Y)
	}

	y := e.Y
	e.LatchInput(InputState{Up: true})
	e.Update(200*time.Millisecond, false)
	if e.exiting != nil {
		t.Error("marker should clear once the hitbox leaves the tile")
	}
	if !approx(e.Y, y) {
		t.Errorf("own bomb should block after exit, Y moved %v -> %v", y, e.Y)
	}
}

func TestPowerupCaps(t *testing.T) {
	w := newTestWorld(testGameConfig())
	e := w.addEntity("a", 1, 1)

	for i := 0; i < 20; i++ {
		e.ApplyPowerup(PowerupRange)
		e.ApplyPowerup(PowerupCount)
	}
	if e.Range != w.cfg.MaxRange || e.MaxBombs != w.cfg.MaxBombsCap {
		t.Errorf("stats should clamp at caps, range=%d bombs=%d", e.Range, e.MaxBombs)
	}

	e.ApplyPowerup(PowerupPierce)
	if !e.Piercing {
		t.Error("pierce powerup should enable piercing")
	}

	e.ApplyPowerup(PowerupSpeed)
	if !approx(e.Speed, w.cfg.BaseSpeed*w.cfg.SpeedMul) || !e.SpeedBoostActive() {
		t.Errorf("speed boost not applied, speed=%v", e.Speed)
	}
	e.Update(w.cfg.SpeedDuration, false)
	if !approx(e.Speed, w.cfg.BaseSpeed) || e.SpeedBoostActive() {
		t.Errorf("speed boost should expire, speed=%v", e.Speed)
	}
}

func TestPowerupIgnoredWhenNotAlive(t *testing.T) {
	w := newTestWorld(testGameConfig())
	e := w.addEntity("a", 1, 1)
	e.TakeHit(false)

	e.ApplyPowerup(PowerupRange)
	e.ApplyMaxPowerups()
	if e.Range != w.cfg.StartRange || e.PowerupsCollected != 0 {
		t.Errorf("respawning entity should not gain powerups, range=%d", e.Range)
	}
}

func TestApplyMaxPowerups(t *testing.T) {
	w := newTestWorld(testGameConfig())
	e := w.addEntity("a", 1, 1)
	e.ApplyMaxPowerups()

	if e.Range != w.cfg.MaxRange || e.MaxBombs != w.cfg.MaxBombsCap || !e.Piercing {
		t.Errorf("expected capped stats, got range=%d bombs=%d piercing=%v", e.Range, e.MaxBombs, e.Piercing)
	}
	if !e.ShieldActive() || !e.SpeedBoostActive() {
		t.Error("expected long-running shield and speed boost")
	}
}

func TestEntityToState(t *testing.T) {
	w := newTestWorld(testGameConfig())
	e := w.addEntity("a", 1, 1)
	e.Color = "#3498db"
	e.TakeHit(false)

	s := e.ToState()
	if s.ID != "a" || s.Color != "#3498db" || s.Lives != w.cfg.StartLives-1 {
		t.Errorf("unexpected state %+v", s)
	}
	if s.Alive || !s.Respawning {
		t.Errorf("expected respawning flags, got alive=%v respawning=%v", s.Alive, s.Respawning)
	}
}
