package main

import "testing"

func TestPowerupSpawnOnePerCell(t *testing.T) {
	cfg := testGameConfig()
	pr := NewPowerupRegistry(cfg, testRNG())

	p := pr.Spawn(3, 3)
	if p == nil {
		t.Fatal("expected spawn on empty cell")
	}
	if pr.Spawn(3, 3) != nil {
		t.Error("second pickup on the same cell")
	}
	if p.Box != cellRect(Cell{Col: 3, Row: 3}, cfg.TileSize) {
		t.Errorf("pickup box should cover its tile, got %+v", p.Box)
	}

	valid := false
	for _, k := range powerupKinds {
		if p.Kind == k {
			valid = true
		}
	}
	if !valid {
		t.Errorf("unknown kind %q", p.Kind)
	}
}

func TestPowerupCollect(t *testing.T) {
	w := newTestWorld(testGameConfig())
	e := w.addEntity("a", 3, 3)
	w.powerups.spawnKind(3, 3, PowerupRange)
	w.powerups.spawnKind(5, 5, PowerupCount)

	p := w.powerups.Collect(e)
	if p == nil || p.Kind != PowerupRange {
		t.Fatalf("expected to collect the range pickup, got %+v", p)
	}
	if e.Range != w.cfg.StartRange+1 || e.PowerupsCollected != 1 {
		t.Errorf("effect not applied: range=%d collected=%d", e.Range, e.PowerupsCollected)
	}
	if w.powerups.Count() != 1 || w.powerups.At(3, 3) != nil {
		t.Error("collected pickup should leave the registry")
	}
	if w.powerups.Collect(e) != nil {
		t.Error("nothing left under the entity")
	}
}

func TestPowerupCollectOnlyWhenAlive(t *testing.T) {
	w := newTestWorld(testGameConfig())
	e := w.addEntity("a", 3, 3)
	w.powerups.spawnKind(3, 3, PowerupShield)
	e.TakeHit(false)

	if w.powerups.Collect(e) != nil {
		t.Error("respawning entity collected a pickup")
	}
	if w.powerups.Count() != 1 {
		t.Error("pickup should remain")
	}
}

func TestPowerupCollectOnePerCall(t *testing.T) {
	w := newTestWorld(testGameConfig())
	e := w.addEntity("a", 3, 3)
	e.X += 20 // straddles (3,3) and (4,3)
	w.powerups.spawnKind(3, 3, PowerupRange)
	w.powerups.spawnKind(4, 3, PowerupCount)

	w.powerups.Collect(e)
	if w.powerups.Count() != 1 {
		t.Errorf("expected one pickup collected per call, %d left", w.powerups.Count())
	}
}

func TestPowerupRemoval(t *testing.T) {
	cfg := testGameConfig()
	pr := NewPowerupRegistry(cfg, testRNG())
	pr.spawnKind(1, 1, PowerupSpeed)
	pr.spawnKind(3, 1, PowerupPierce)

	if pr.RemoveAt(1, 1) == nil || pr.RemoveAt(1, 1) != nil {
		t.Error("RemoveAt should remove exactly once")
	}
	if pr.DestroyOverlapping(centeredRect(Cell{Col: 3, Row: 1}, cfg.TileSize, 32)) == nil {
		t.Error("overlapping pickup should be destroyed")
	}
	if pr.DestroyOverlapping(cellRect(Cell{Col: 5, Row: 5}, cfg.TileSize)) != nil {
		t.Error("nothing overlaps (5,5)")
	}

	pr.spawnKind(1, 1, PowerupSpeed)
	pr.Reset()
	if pr.Count() != 0 || len(pr.Snapshot()) != 0 {
		t.Error("reset should clear pickups")
	}
}

func TestPowerupSnapshot(t *testing.T) {
	cfg := testGameConfig()
	pr := NewPowerupRegistry(cfg, testRNG())
	pr.spawnKind(2, 1, PowerupShield)

	snap := pr.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 pickup, got %d", len(snap))
	}
	if snap[0].Kind != PowerupShield || snap[0].X != 80 || snap[0].Y != 40 {
		t.Errorf("unexpected snapshot %+v", snap[0])
	}
}
