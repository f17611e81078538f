package engine

// pelletEvent records a consumed pellet slot and the pellet that replaced it.
type pelletEvent struct {
	Index  int
	Pellet Pellet
	By     PlayerID
}

// collision records a head that touched a body.
type collision struct {
	Victim *Player
	By     *Player
}

// ---------------------------------------------------------------------------
// Pellets
// ---------------------------------------------------------------------------

// consumePellets lets every player in order eat the pellets under its head.
// A consumed slot is refilled at once, so the pellet count never changes.
func (w *World) consumePellets(players []*Player) []pelletEvent {
	var events []pelletEvent
	r2 := w.cfg.EatRadius * w.cfg.EatRadius
	for _, p := range players {
		if !p.Alive {
			continue
		}
		for i, f := range w.Pellets {
			if w.distSq(p.Pos, Vec2{f.X, f.Y}) < r2 {
				p.Length++
				events = append(events, pelletEvent{Index: i, Pellet: w.respawnPellet(i), By: p.ID})
			}
		}
	}
	return events
}

// ---------------------------------------------------------------------------
// Snake-snake collision
// ---------------------------------------------------------------------------

// detectCollisions is a read-only pass over motion-settled state. Every head
// is tested against the bodies as they stand, so when two heads hit each
// other's bodies in the same tick both are reported.
func (w *World) detectCollisions(players []*Player) []collision {
	var hits []collision
	r2 := w.cfg.CollisionRadius * w.cfg.CollisionRadius
	for _, a := range players {
		if !a.Alive {
			continue
		}
		if by := w.hitBy(a, players, r2); by != nil {
			hits = append(hits, collision{Victim: a, By: by})
		}
	}
	return hits
}

func (w *World) hitBy(a *Player, players []*Player, r2 float64) *Player {
	for _, b := range players {
		if !b.Alive {
			continue
		}
		start := w.cfg.HeadExclusion
		if b == a {
			start = w.cfg.SelfExclusion
		}
		for k := start; k < len(b.Segments); k++ {
			if w.distSq(a.Pos, b.Segments[k]) < r2 {
				return b
			}
		}
	}
	return nil
}

// kill applies a batch of deaths and removes the victims from the world.
func (w *World) kill(hits []collision) {
	for _, h := range hits {
		h.Victim.Alive = false
	}
	for _, h := range hits {
		delete(w.Players, h.Victim.ID)
	}
}
