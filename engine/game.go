package engine

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"neonsnake.io/highscore"
	"neonsnake.io/protocol"
)

// Commands funneled through Game.inbox. A single channel keeps every
// connection's connect, messages and leave in the order they happened.
type connectCmd struct{ c *Client }

type messageCmd struct {
	c   *Client
	msg protocol.ClientMessage
}

type leaveCmd struct{ id ConnID }

type statsCmd struct{ reply chan StatsSnapshot }

// Game owns the world. Run is the only goroutine that touches world, reg or
// bots; everything else talks to it through the inbox.
type Game struct {
	cfg    GameConfig
	world  *World
	reg    *registry
	scores highscore.Store

	frame int
	inbox chan any
	done  chan struct{}

	nextConn  atomic.Uint64
	bytesRecv atomic.Int64 // added to by the read pumps

	bots       map[PlayerID]*botBrain
	botRespawn []int

	stats gameStats
}

func NewGame(cfg GameConfig, scores highscore.Store) *Game {
	g := &Game{
		cfg:    cfg,
		world:  NewWorld(cfg),
		reg:    newRegistry(),
		scores: scores,
		inbox:  make(chan any, 1024),
		done:   make(chan struct{}),
		bots:   make(map[PlayerID]*botBrain),
		stats:  gameStats{startTime: time.Now()},
	}
	for i := 0; i < cfg.BotCount; i++ {
		g.spawnBot()
	}
	return g
}

func (g *Game) Config() GameConfig { return g.cfg }

// ---------------------------------------------------------------------------
// Entry points used by the network goroutines
// ---------------------------------------------------------------------------

func (g *Game) submit(cmd any) bool {
	// The inbox is buffered, so a stopped loop has to be checked first.
	select {
	case <-g.done:
		return false
	default:
	}
	select {
	case g.inbox <- cmd:
		return true
	case <-g.done:
		return false
	}
}

// Connect registers a new connection handle. It returns nil once the game
// has stopped.
func (g *Game) Connect(addr string, codec protocol.Codec) *Client {
	c := newClient(ConnID(g.nextConn.Add(1)), addr, codec, g.cfg.SendQueue)
	if !g.submit(connectCmd{c}) {
		return nil
	}
	return c
}

// Deliver hands a decoded client message to the loop.
func (g *Game) Deliver(c *Client, msg protocol.ClientMessage) bool {
	return g.submit(messageCmd{c: c, msg: msg})
}

func (g *Game) Disconnect(c *Client) {
	g.submit(leaveCmd{id: c.id})
}

// ---------------------------------------------------------------------------
// Command handling (called from game loop only)
// ---------------------------------------------------------------------------

func (g *Game) handle(cmd any) {
	switch c := cmd.(type) {
	case connectCmd:
		g.reg.add(c.c)
		log.Printf("[WS] connection %d from %s registered (connections: %d)", c.c.id, c.c.addr, g.reg.len())
	case messageCmd:
		if g.reg.get(c.c.id) == nil {
			return
		}
		switch m := c.msg.(type) {
		case protocol.Join:
			g.handleJoin(c.c, m)
		case protocol.Input:
			g.applyInput(c.c.playerID, m.Angle, m.Boosting)
		default:
			log.Printf("[PROTO] connection %d: dropping unhandled %T", c.c.id, m)
		}
	case leaveCmd:
		g.handleLeave(c.id)
	case statsCmd:
		c.reply <- g.buildSnapshot()
	default:
		log.Printf("[GAME] unknown command %T", cmd)
	}
}

func (g *Game) handleJoin(c *Client, m protocol.Join) {
	if p, ok := g.world.Players[c.playerID]; ok && p.Alive {
		log.Printf("[JOIN] connection %d already plays as %s, ignoring join", c.id, p.ID)
		return
	}

	p := g.world.Spawn(m.Name, m.Hue, m.Skin)
	g.reg.bind(c, p.ID)
	g.stats.totalJoins++
	current := len(g.world.Players)
	if current > g.stats.peakPlayers {
		g.stats.peakPlayers = current
	}
	log.Printf("[JOIN] Player %s '%s' joined on connection %d (players: %d, peak: %d)",
		p.ID, p.Name, c.id, current, g.stats.peakPlayers)

	g.sendTo(c, protocol.Init{
		PlayerID: string(p.ID),
		GameState: protocol.WorldState{
			Players: g.world.playerStates(),
			Pellets: g.world.pelletStates(),
		},
	})
	g.broadcast(protocol.PlayerJoined{Player: p.state()}, c.id, true)
}

func (g *Game) handleLeave(id ConnID) {
	c := g.reg.remove(id)
	if c == nil {
		return
	}
	c.kick()
	if c.playerID == "" {
		log.Printf("[LEAVE] connection %d closed before joining", id)
		return
	}
	g.world.Remove(c.playerID)
	g.stats.totalLeaves++
	log.Printf("[LEAVE] Player %s left (players: %d)", c.playerID, len(g.world.Players))
	g.broadcast(protocol.PlayerLeft{PlayerID: string(c.playerID)}, 0, true)
}

// applyInput stages steering intent for the next tick. Missing fields keep
// their previous value; unknown or dead players are ignored.
func (g *Game) applyInput(id PlayerID, angle *float64, boosting *bool) {
	p, ok := g.world.Players[id]
	if !ok || !p.Alive {
		return
	}
	if angle != nil {
		p.DesiredHeading = *angle
	}
	if boosting != nil {
		p.Boosting = *boosting
	}
}

// ---------------------------------------------------------------------------
// Tick + Run
// ---------------------------------------------------------------------------

func (g *Game) tick() {
	start := time.Now()
	g.frame++

	g.updateBots()
	res := g.world.step()

	for _, e := range res.Eaten {
		g.broadcast(protocol.PelletEaten{PelletIndex: e.Index, NewPellet: e.Pellet.state()}, 0, true)
	}
	for _, h := range res.Hits {
		g.onDeath(h)
	}

	if g.frame%g.cfg.SnapshotEvery == 0 && len(g.world.Players) > 0 {
		g.broadcast(protocol.GameState{Players: g.world.playerStates()}, 0, false)
	}

	g.stats.trackTick(time.Since(start))

	if every := int(StatsEvery / g.cfg.tickInterval()); every > 0 && g.frame%every == 0 {
		snap := g.buildSnapshot()
		log.Printf("[STATS] uptime=%s players=%d peak=%d bots=%d kills=%d pellets=%d avgTick=%.2fms maxTick=%.2fms sent=%dB",
			snap.Uptime, snap.CurrentPlayers, snap.PeakPlayers, snap.BotCount,
			snap.TotalKills, snap.PelletCount, snap.AvgTickMs, snap.MaxTickMs, snap.TotalBytesSent)
	}
}

func (g *Game) onDeath(h collision) {
	v := h.Victim
	if h.By == v {
		log.Printf("[DEATH] '%s' ran into itself (score: %d)", v.Name, v.Score())
	} else {
		g.stats.totalKills++
		log.Printf("[KILL] '%s' killed by '%s' (score: %d)", v.Name, h.By.Name, v.Score())
	}
	g.broadcast(protocol.PlayerDied{PlayerID: string(v.ID)}, 0, true)

	if v.IsBot {
		delete(g.bots, v.ID)
		g.botRespawn = append(g.botRespawn, g.cfg.BotRespawnTicks)
		return
	}
	g.recordScore(v.Name, v.Score())
}

// recordScore reports a final score without holding up the tick.
func (g *Game) recordScore(name string, score int) {
	if g.scores == nil {
		return
	}
	store, timeout := g.scores, g.cfg.ScoreTimeout
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := store.Create(ctx, highscore.InsertScore{PlayerName: name, Score: score}); err != nil {
			log.Printf("[SCORES] could not record %d for '%s': %v", score, name, err)
		}
	}()
}

// Run drives the game until ctx is cancelled. It must be called once.
func (g *Game) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.cfg.tickInterval())
	defer ticker.Stop()
	defer close(g.done)

	log.Printf("[GAME] loop started at %d Hz (world %.0f, pellets %d, bots %d)",
		g.cfg.TickRate, g.cfg.WorldSize, len(g.world.Pellets), len(g.bots))
	for {
		select {
		case <-ctx.Done():
			for _, c := range g.reg.ordered() {
				c.kick()
			}
			log.Printf("[GAME] loop stopped after %d ticks", g.frame)
			return nil
		case cmd := <-g.inbox:
			g.handle(cmd)
		case <-ticker.C:
			g.tick()
		}
	}
}
