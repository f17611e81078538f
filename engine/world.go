package engine

import (
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"neonsnake.io/protocol"
)

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

type Vec2 struct{ X, Y float64 }

type PlayerID string

type Player struct {
	ID             PlayerID
	Name           string
	Pos            Vec2
	Heading        float64
	DesiredHeading float64
	Boosting       bool
	Hue            float64
	Skin           string
	Length         float64
	Segments       []Vec2 // head first
	Alive          bool
	IsBot          bool
}

type Pellet struct {
	X, Y   float64
	Hue    float64
	Radius float64
}

// World is the canonical simulation state. It is owned by the game loop
// goroutine and never touched from anywhere else.
type World struct {
	cfg     GameConfig
	Players map[PlayerID]*Player
	Pellets []Pellet
	rng     *rand.Rand
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// wrap maps v into [0, size).
func wrap(v, size float64) float64 {
	v = math.Mod(v, size)
	if v < 0 {
		v += size
	}
	if v >= size {
		// -tiny + size rounds up to size
		v = 0
	}
	return v
}

// delta returns the shortest vector from a to b on the torus.
func (w *World) delta(a, b Vec2) Vec2 {
	ws := w.cfg.WorldSize
	dx := math.Mod(b.X-a.X, ws)
	dy := math.Mod(b.Y-a.Y, ws)
	if dx > ws/2 {
		dx -= ws
	} else if dx < -ws/2 {
		dx += ws
	}
	if dy > ws/2 {
		dy -= ws
	} else if dy < -ws/2 {
		dy += ws
	}
	return Vec2{dx, dy}
}

func (w *World) distSq(a, b Vec2) float64 {
	d := w.delta(a, b)
	return d.X*d.X + d.Y*d.Y
}

// segmentLimit is the number of segments a snake of the given length keeps.
func segmentLimit(length float64) int {
	n := int(math.Ceil(length))
	if n < 1 {
		n = 1
	}
	return n
}

func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		r := []rune(name)
		name = string(r[:MaxNameLength])
	}
	return name
}

// ---------------------------------------------------------------------------
// World
// ---------------------------------------------------------------------------

func NewWorld(cfg GameConfig) *World {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	w := &World{
		cfg:     cfg,
		Players: make(map[PlayerID]*Player),
		Pellets: make([]Pellet, 0, cfg.PelletCount),
		rng:     rand.New(rand.NewSource(seed)),
	}
	for i := 0; i < cfg.PelletCount; i++ {
		w.Pellets = append(w.Pellets, w.newPellet())
	}
	return w
}

func (w *World) randPos() Vec2 {
	return Vec2{
		X: w.rng.Float64() * w.cfg.WorldSize,
		Y: w.rng.Float64() * w.cfg.WorldSize,
	}
}

func (w *World) newPellet() Pellet {
	pos := w.randPos()
	return Pellet{
		X:      pos.X,
		Y:      pos.Y,
		Hue:    w.rng.Float64() * 360,
		Radius: w.cfg.PelletRadius,
	}
}

// respawnPellet replaces the pellet in slot i and returns the new one.
func (w *World) respawnPellet(i int) Pellet {
	w.Pellets[i] = w.newPellet()
	return w.Pellets[i]
}

// Spawn creates a live player at a random position and adds it to the world.
// A nil hue picks a random one.
func (w *World) Spawn(name string, hue *float64, skin string) *Player {
	pos := w.randPos()
	angle := w.rng.Float64() * 2 * math.Pi
	h := w.rng.Float64() * 360
	if hue != nil {
		h = *hue
	}
	if skin == "" {
		skin = DefaultSkin
	}

	// The tail trails behind the head at cruising spacing, so a fresh snake
	// cannot collide with stacked copies of its own head.
	segs := make([]Vec2, segmentLimit(w.cfg.InitialLength))
	for i := range segs {
		back := float64(i) * w.cfg.BaseSpeed
		segs[i] = Vec2{
			X: wrap(pos.X-math.Cos(angle)*back, w.cfg.WorldSize),
			Y: wrap(pos.Y-math.Sin(angle)*back, w.cfg.WorldSize),
		}
	}
	p := &Player{
		ID:             PlayerID(uuid.NewString()),
		Name:           normalizeName(name),
		Pos:            pos,
		Heading:        angle,
		DesiredHeading: angle,
		Hue:            h,
		Skin:           skin,
		Length:         w.cfg.InitialLength,
		Segments:       segs,
		Alive:          true,
	}
	w.Players[p.ID] = p
	return p
}

func (w *World) Remove(id PlayerID) bool {
	if _, ok := w.Players[id]; !ok {
		return false
	}
	delete(w.Players, id)
	return true
}

// alive returns the living players ordered by id.
func (w *World) alive() []*Player {
	out := make([]*Player, 0, len(w.Players))
	for _, p := range w.Players {
		if p.Alive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

func (p *Player) Score() int {
	return int(math.Floor(p.Length)) * ScorePerUnit
}

func (p *Player) state() protocol.PlayerState {
	segs := make([]protocol.Point, len(p.Segments))
	for i, s := range p.Segments {
		segs[i] = protocol.Point{X: s.X, Y: s.Y}
	}
	return protocol.PlayerState{
		ID:       string(p.ID),
		Name:     p.Name,
		X:        p.Pos.X,
		Y:        p.Pos.Y,
		Angle:    p.Heading,
		Hue:      p.Hue,
		Skin:     p.Skin,
		Length:   p.Length,
		Segments: segs,
		Alive:    p.Alive,
	}
}

func (f Pellet) state() protocol.PelletState {
	return protocol.PelletState{X: f.X, Y: f.Y, Hue: f.Hue, Radius: f.Radius}
}

func (w *World) playerStates() []protocol.PlayerState {
	players := w.alive()
	out := make([]protocol.PlayerState, 0, len(players))
	for _, p := range players {
		out = append(out, p.state())
	}
	return out
}

func (w *World) pelletStates() []protocol.PelletState {
	out := make([]protocol.PelletState, len(w.Pellets))
	for i, f := range w.Pellets {
		out[i] = f.state()
	}
	return out
}
