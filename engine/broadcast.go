package engine

import (
	"log"

	"neonsnake.io/protocol"
)

// ---------------------------------------------------------------------------
// Broadcast (called from game loop goroutine)
//
// Snapshots are level state: a connection whose queue is full simply misses
// one and catches up on the next. Discrete events are edges and must arrive,
// so a connection that cannot take one is dropped instead.
// ---------------------------------------------------------------------------

func encodeFrame(codec protocol.Codec, m protocol.ServerMessage) (frame, error) {
	b, err := codec.Encode(m)
	if err != nil {
		return frame{}, err
	}
	return frame{binary: codec.Binary(), data: b}, nil
}

// broadcast sends m to every connection except exclude (0 excludes nobody).
// Each codec encodes the message once.
func (g *Game) broadcast(m protocol.ServerMessage, exclude ConnID, event bool) {
	frames := make(map[string]frame, 2)
	for _, c := range g.reg.ordered() {
		if c.id == exclude {
			continue
		}
		f, ok := frames[c.codec.Name()]
		if !ok {
			var err error
			f, err = encodeFrame(c.codec, m)
			if err != nil {
				log.Printf("[PROTO] encode %s as %s: %v", protocol.TypeOf(m), c.codec.Name(), err)
				return
			}
			frames[c.codec.Name()] = f
		}
		g.deliver(c, f, event)
	}
}

// sendTo sends a discrete message to a single connection.
func (g *Game) sendTo(c *Client, m protocol.ServerMessage) {
	f, err := encodeFrame(c.codec, m)
	if err != nil {
		log.Printf("[PROTO] encode %s as %s: %v", protocol.TypeOf(m), c.codec.Name(), err)
		return
	}
	g.deliver(c, f, true)
}

func (g *Game) deliver(c *Client, f frame, event bool) {
	if c.closed() {
		return
	}
	if c.enqueue(f) {
		g.stats.totalBytesSent += int64(len(f.data))
		return
	}
	if event {
		log.Printf("[WS] connection %d cannot keep up, dropping it", c.id)
		c.kick()
		return
	}
	g.stats.droppedSnapshots++
}
