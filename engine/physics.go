package engine

import "math"

// move advances one living player by a single tick. It only reads the
// player's own state, so players can be moved in any order.
func (w *World) move(p *Player) {
	if !p.Alive {
		return
	}
	p.Heading = p.DesiredHeading

	boosting := p.Boosting && p.Length > w.cfg.MinLength
	speed := w.cfg.BaseSpeed
	if boosting {
		speed = w.cfg.BoostSpeed
	}

	ws := w.cfg.WorldSize
	p.Pos = Vec2{
		X: wrap(p.Pos.X+math.Cos(p.Heading)*speed, ws),
		Y: wrap(p.Pos.Y+math.Sin(p.Heading)*speed, ws),
	}

	// Boosting trades length for speed. The cost lands before the trim so the
	// segment chain never outgrows ceil(Length) between ticks.
	if boosting {
		p.Length = math.Max(w.cfg.MinLength, p.Length-w.cfg.BoostCost)
	}

	p.Segments = append([]Vec2{p.Pos}, p.Segments...)
	limit := segmentLimit(p.Length)
	for len(p.Segments) > limit {
		p.Segments = p.Segments[:len(p.Segments)-1]
	}
}

type stepResult struct {
	Eaten []pelletEvent
	Hits  []collision
}

// step runs one authoritative tick: motion for everyone, then pellets, then
// collisions. Victims are gone from w.Players when step returns.
func (w *World) step() stepResult {
	players := w.alive()
	for _, p := range players {
		w.move(p)
	}
	res := stepResult{Eaten: w.consumePellets(players)}
	res.Hits = w.detectCollisions(players)
	w.kill(res.Hits)
	return res
}
