package main

// resolveHits applies one hit to every entity caught by a blast or a shrink
// wall this tick. An entity hit by both still takes a single hit.
func (r *Room) resolveHits(blastHits, wallHits []string, shrinkActive bool) {
	hits := newHitSet()
	for _, id := range blastHits {
		hits.add(id)
	}
	for _, id := range wallHits {
		hits.add(id)
	}
	for _, id := range hits.ids {
		e := r.roster.Get(id)
		if e == nil || e.Status != StatusAlive {
			continue
		}
		e.TakeHit(shrinkActive)
	}
}

// collectPowerups runs after hits so a lethal hit forfeits that tick's pickup
func (r *Room) collectPowerups() {
	for _, e := range r.roster.All() {
		if e.Status == StatusAlive {
			r.powerups.Collect(e)
		}
	}
}
