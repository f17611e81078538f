package engine

import (
	"fmt"
	"log"
	"math"

	"neonsnake.io/protocol"
)

var botNames = [...]string{
	"Viper", "Cobra", "Mamba", "Python", "Anaconda",
	"Rattler", "Boa", "Adder", "Krait", "Taipan",
	"Sidewinder", "Copperhead", "Noodle", "Slinky", "Nope Rope",
}

type botState uint8

const (
	botWander botState = iota
	botFood
)

const (
	botFoodRange  = 400.0
	botAvoidRange = 40.0
	botAvoidDepth = 40
)

// botBrain is the scripted input source of a bot. It never moves the snake
// itself; it only produces the same angle/boost intent a client would send.
type botBrain struct {
	state  botState
	timer  int
	wander float64
}

func (g *Game) spawnBot() *Player {
	rng := g.world.rng
	name := botNames[rng.Intn(len(botNames))]
	if rng.Intn(2) == 0 {
		name = fmt.Sprintf("%s %d", name, rng.Intn(100))
	}
	p := g.world.Spawn(name, nil, "")
	p.IsBot = true
	g.bots[p.ID] = &botBrain{state: botWander, wander: p.Heading}
	g.broadcast(protocol.PlayerJoined{Player: p.state()}, 0, true)
	return p
}

// updateBots runs bot brains and due respawns. Called at the top of a tick,
// before motion, like network input staged between ticks.
func (g *Game) updateBots() {
	pending := g.botRespawn[:0]
	for _, t := range g.botRespawn {
		t--
		if t <= 0 {
			p := g.spawnBot()
			log.Printf("[RESPAWN] bot '%s' rejoined as %s", p.Name, p.ID)
			continue
		}
		pending = append(pending, t)
	}
	g.botRespawn = pending

	players := g.world.alive()
	for _, p := range players {
		b, ok := g.bots[p.ID]
		if !ok {
			continue
		}
		angle, boost := g.think(p, b, players)
		g.applyInput(p.ID, &angle, &boost)
	}
}

func (g *Game) think(s *Player, b *botBrain, players []*Player) (float64, bool) {
	rng := g.world.rng
	b.timer--
	if b.timer <= 0 {
		if rng.Float64() < 0.6 {
			b.state = botFood
			b.timer = 40 + rng.Intn(80)
		} else {
			b.state = botWander
			b.timer = 40 + rng.Intn(60)
			b.wander = rng.Float64() * 2 * math.Pi
		}
	}

	// Collision avoidance wins over everything else.
	for _, o := range players {
		if o == s {
			continue
		}
		lim := len(o.Segments)
		if lim > botAvoidDepth {
			lim = botAvoidDepth
		}
		for k := 0; k < lim; k += 2 {
			d := g.world.delta(s.Pos, o.Segments[k])
			dist := math.Hypot(d.X, d.Y)
			if dist < g.cfg.CollisionRadius+botAvoidRange {
				return math.Atan2(-d.Y, -d.X), dist < g.cfg.CollisionRadius*2
			}
		}
	}

	switch b.state {
	case botFood:
		best := botFoodRange * botFoodRange
		var target *Vec2
		for i := range g.world.Pellets {
			f := g.world.Pellets[i]
			pos := Vec2{f.X, f.Y}
			if d := g.world.distSq(s.Pos, pos); d < best {
				best = d
				target = &pos
			}
		}
		if target != nil {
			d := g.world.delta(s.Pos, *target)
			return math.Atan2(d.Y, d.X), false
		}
		b.state = botWander
		b.timer = 30 + rng.Intn(60)
	}

	if g.frame%20 == 0 {
		b.wander += rng.Float64()*1.6 - 0.8
	}
	return b.wander, false
}
