package engine

import (
	"context"
	"math"
	"testing"
	"time"

	"neonsnake.io/highscore"
	"neonsnake.io/protocol"
)

func TestJoinSendsInitAndNotifiesOthers(t *testing.T) {
	g := NewGame(testConfig(), nil)
	c1, c2 := connect(g), connect(g)

	p1 := join(g, c1, "first")
	if p1 == nil {
		t.Fatalf("join did not create a player")
	}
	init1 := ofType(drain(t, c1), "init")
	if len(init1) != 1 || init1[0].PlayerID != string(p1.ID) {
		t.Fatalf("c1 init = %+v", init1)
	}
	if len(init1[0].GameState.Pellets) != g.cfg.PelletCount {
		t.Fatalf("init pellets = %d, want %d", len(init1[0].GameState.Pellets), g.cfg.PelletCount)
	}
	if got := drain(t, c2); len(ofType(got, "playerJoined")) != 1 {
		t.Fatalf("c2 should hear about first: %+v", got)
	}

	p2 := join(g, c2, "second")
	msgs2 := drain(t, c2)
	if len(ofType(msgs2, "playerJoined")) != 0 {
		t.Fatalf("joiner got its own playerJoined")
	}
	init2 := ofType(msgs2, "init")
	if len(init2) != 1 || len(init2[0].GameState.Players) != 2 {
		t.Fatalf("c2 init = %+v, want both players", init2)
	}

	joined := ofType(drain(t, c1), "playerJoined")
	if len(joined) != 1 || joined[0].Player.ID != string(p2.ID) || joined[0].Player.Name != "second" {
		t.Fatalf("c1 playerJoined = %+v", joined)
	}
	if g.stats.totalJoins != 2 || g.stats.peakPlayers != 2 {
		t.Fatalf("stats joins=%d peak=%d", g.stats.totalJoins, g.stats.peakPlayers)
	}
}

func TestJoinWhileAliveIsIgnored(t *testing.T) {
	g := NewGame(testConfig(), nil)
	c := connect(g)
	p := join(g, c, "once")
	drain(t, c)

	again := join(g, c, "twice")
	if again != p || len(g.world.Players) != 1 {
		t.Fatalf("second join replaced the player")
	}
	if msgs := drain(t, c); len(msgs) != 0 {
		t.Fatalf("second join produced %+v", msgs)
	}
}

func TestRejoinAfterDeathGetsNewID(t *testing.T) {
	g := NewGame(testConfig(), nil)
	c := connect(g)
	first := join(g, c, "phoenix")
	g.world.kill([]collision{{Victim: first, By: first}})

	second := join(g, c, "phoenix")
	if second == nil || second.ID == first.ID {
		t.Fatalf("rejoin id = %v, first = %s", second, first.ID)
	}
	if !second.Alive || first.Alive {
		t.Fatalf("alive: first=%v second=%v", first.Alive, second.Alive)
	}
	if c.playerID != second.ID {
		t.Fatalf("connection bound to %s, want %s", c.playerID, second.ID)
	}
}

func TestInputLastWriteWinsPerField(t *testing.T) {
	g := NewGame(testConfig(), nil)
	park(g.world)
	c := connect(g)
	p := join(g, c, "steer")
	place(p, Vec2{1000, 1000}, 0, 12, 5, g.cfg.WorldSize)

	deliver := func(in protocol.Input) {
		in.Type = protocol.TypeInput
		g.handle(messageCmd{c: c, msg: in})
	}
	deliver(protocol.Input{Angle: ptrF(math.Pi), Boosting: ptrB(true)})
	deliver(protocol.Input{Angle: ptrF(math.Pi / 2)})

	g.tick()
	if p.Heading != math.Pi/2 {
		t.Fatalf("heading = %v, want pi/2", p.Heading)
	}
	if !p.Boosting {
		t.Fatalf("boost flag lost by an angle-only input")
	}
	if math.Abs(p.Pos.Y-(1000+g.cfg.BoostSpeed)) > 1e-9 {
		t.Fatalf("y = %v, want boosted move straight up", p.Pos.Y)
	}

	deliver(protocol.Input{Boosting: ptrB(false)})
	g.tick()
	if p.Heading != math.Pi/2 || p.Boosting {
		t.Fatalf("heading=%v boosting=%v after boost-only input", p.Heading, p.Boosting)
	}
}

func TestInputForUnknownOrDeadPlayerIsIgnored(t *testing.T) {
	g := NewGame(testConfig(), nil)
	c := connect(g)

	// Not joined yet.
	g.handle(messageCmd{c: c, msg: protocol.Input{Type: protocol.TypeInput, Angle: ptrF(1)}})
	g.applyInput("nobody", ptrF(1), ptrB(true))

	p := join(g, c, "ghost")
	g.world.kill([]collision{{Victim: p, By: p}})
	heading := p.DesiredHeading
	g.handle(messageCmd{c: c, msg: protocol.Input{Type: protocol.TypeInput, Angle: ptrF(heading + 1), Boosting: ptrB(true)}})
	if p.DesiredHeading != heading || p.Boosting {
		t.Fatalf("input reached a dead player")
	}
}

func TestDisconnectBroadcastsOnePlayerLeft(t *testing.T) {
	g := NewGame(testConfig(), nil)
	c1, c2 := connect(g), connect(g)
	p1 := join(g, c1, "leaver")
	join(g, c2, "stayer")
	drain(t, c2)

	g.handle(leaveCmd{id: c1.id})
	g.handle(leaveCmd{id: c1.id})
	g.tick()

	if _, ok := g.world.Players[p1.ID]; ok {
		t.Fatalf("departed player still in world")
	}
	msgs := drain(t, c2)
	left := ofType(msgs, "playerLeft")
	if len(left) != 1 || left[0].PlayerID != string(p1.ID) {
		t.Fatalf("playerLeft = %+v, want exactly one for %s", left, p1.ID)
	}
	for _, s := range ofType(msgs, "gameState") {
		for _, p := range s.Players {
			if p.ID == string(p1.ID) {
				t.Fatalf("departed player in snapshot")
			}
		}
	}
	if !c1.closed() {
		t.Fatalf("departed connection was not closed")
	}
	if g.reg.len() != 1 {
		t.Fatalf("connections = %d, want 1", g.reg.len())
	}
}

func TestDisconnectBeforeJoinIsSilent(t *testing.T) {
	g := NewGame(testConfig(), nil)
	lurker, other := connect(g), connect(g)
	g.handle(leaveCmd{id: lurker.id})
	if msgs := drain(t, other); len(msgs) != 0 {
		t.Fatalf("unexpected broadcast %+v", msgs)
	}
}

func TestEventOverflowDropsConnection(t *testing.T) {
	cfg := testConfig()
	cfg.SendQueue = 1
	g := NewGame(cfg, nil)
	slow, fast := connect(g), connect(g)

	join(g, slow, "slow") // init fills slow's queue
	if slow.closed() {
		t.Fatalf("slow closed too early")
	}
	drain(t, fast)
	join(g, fast, "fast") // playerJoined cannot fit
	if !slow.closed() {
		t.Fatalf("connection that missed an event was kept")
	}
}

func TestSnapshotDroppedWhenQueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.SendQueue = 1
	g := NewGame(cfg, nil)
	park(g.world)
	c := connect(g)
	p := join(g, c, "busy")
	place(p, Vec2{1000, 1000}, 0, 10, 5, cfg.WorldSize)

	g.tick()
	if c.closed() {
		t.Fatalf("missing a snapshot closed the connection")
	}
	if g.stats.droppedSnapshots != 1 {
		t.Fatalf("dropped = %d, want 1", g.stats.droppedSnapshots)
	}
	if msgs := drain(t, c); len(msgs) != 1 || msgs[0].Type != "init" {
		t.Fatalf("queue = %+v, want only init", msgs)
	}

	g.tick()
	if msgs := drain(t, c); len(msgs) != 1 || msgs[0].Type != "gameState" {
		t.Fatalf("queue = %+v, want the next snapshot", msgs)
	}
}

func TestNoSnapshotWithoutPlayers(t *testing.T) {
	g := NewGame(testConfig(), nil)
	c := connect(g)
	g.tick()
	if msgs := drain(t, c); len(msgs) != 0 {
		t.Fatalf("empty world broadcast %+v", msgs)
	}
}

func TestDeathRecordsScore(t *testing.T) {
	store := highscore.NewMemoryStore()
	g := NewGame(testConfig(), store)
	c := connect(g)
	p := join(g, c, "scorer")
	p.Length = 23.7
	g.world.kill([]collision{{Victim: p, By: p}})
	g.onDeath(collision{Victim: p, By: p})

	deadline := time.After(2 * time.Second)
	for {
		list, err := store.List(context.Background())
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) == 1 {
			if list[0].PlayerName != "scorer" || list[0].Score != 230 {
				t.Fatalf("recorded %+v, want scorer/230", list[0])
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("score was never recorded")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRunServesStatsAndStops(t *testing.T) {
	g := NewGame(testConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- g.Run(ctx) }()

	c := g.Connect("127.0.0.1:1", protocol.JSON)
	if c == nil {
		t.Fatalf("connect on a running game returned nil")
	}
	if !g.Deliver(c, protocol.Join{Type: protocol.TypeJoin, Name: "live"}) {
		t.Fatalf("deliver failed")
	}

	snap, ok := g.GetStats()
	if !ok {
		t.Fatalf("stats unavailable")
	}
	if snap.CurrentPlayers != 1 || snap.Connections != 1 || snap.PelletCount != 1 {
		t.Fatalf("stats = %+v", snap)
	}
	if len(snap.Leaderboard) != 1 || snap.Leaderboard[0].Name != "live" || snap.Leaderboard[0].Score != 100 {
		t.Fatalf("leaderboard = %+v", snap.Leaderboard)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("game loop did not stop")
	}
	if !c.closed() {
		t.Fatalf("connection not closed on shutdown")
	}
	if g.Connect("127.0.0.1:2", protocol.JSON) != nil {
		t.Fatalf("connect after stop should return nil")
	}
	if _, ok := g.GetStats(); ok {
		t.Fatalf("stats after stop should be unavailable")
	}
}
