package engine

import (
	"encoding/json"
	"math"
	"testing"

	"neonsnake.io/protocol"
)

// testConfig is a small deterministic world with a single pellet.
func testConfig() GameConfig {
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.PelletCount = 1
	cfg.SendQueue = 256
	return cfg
}

// wireMsg is a union of every server message field, good enough to inspect
// what a connection was sent.
type wireMsg struct {
	Type        string                 `json:"type"`
	PlayerID    string                 `json:"playerId"`
	Player      protocol.PlayerState   `json:"player"`
	Players     []protocol.PlayerState `json:"players"`
	GameState   protocol.WorldState    `json:"gameState"`
	PelletIndex int                    `json:"pelletIndex"`
	NewPellet   protocol.PelletState   `json:"newPellet"`
}

// drain returns everything queued for c so far without blocking.
func drain(t *testing.T, c *Client) []wireMsg {
	t.Helper()
	var out []wireMsg
	for {
		select {
		case f := <-c.sendCh:
			var m wireMsg
			if err := json.Unmarshal(f.data, &m); err != nil {
				t.Fatalf("decode frame %q: %v", f.data, err)
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func ofType(msgs []wireMsg, typ string) []wireMsg {
	var out []wireMsg
	for _, m := range msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

// connect registers a JSON connection directly with the loop state.
func connect(g *Game) *Client {
	c := newClient(ConnID(g.nextConn.Add(1)), "test", protocol.JSON, g.cfg.SendQueue)
	g.handle(connectCmd{c})
	return c
}

func join(g *Game, c *Client, name string) *Player {
	g.handle(messageCmd{c: c, msg: protocol.Join{Type: protocol.TypeJoin, Name: name}})
	return g.world.Players[c.playerID]
}

// park moves the pellets out of the way of anything a test steers.
func park(w *World) {
	for i := range w.Pellets {
		w.Pellets[i].X, w.Pellets[i].Y = 3500, 3500
	}
}

// place puts p at head, facing heading, with a straight tail of n segments
// trailing behind at spacing.
func place(p *Player, head Vec2, heading float64, n int, spacing float64, size float64) {
	p.Pos = head
	p.Heading = heading
	p.DesiredHeading = heading
	p.Length = float64(n)
	p.Segments = make([]Vec2, n)
	for k := range p.Segments {
		p.Segments[k] = Vec2{
			X: wrap(head.X-math.Cos(heading)*spacing*float64(k), size),
			Y: wrap(head.Y-math.Sin(heading)*spacing*float64(k), size),
		}
	}
}

func ptrF(v float64) *float64 { return &v }
func ptrB(v bool) *bool       { return &v }
