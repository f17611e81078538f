package engine

import (
	"sort"
	"sync"

	"github.com/gorilla/websocket"

	"neonsnake.io/protocol"
)

// ConnID identifies one live connection. Zero is never assigned.
type ConnID uint64

type frame struct {
	binary bool
	data   []byte
}

// Client is the connection handle. The network goroutines own conn and the
// channels; playerID is only read and written by the game loop.
type Client struct {
	id     ConnID
	addr   string
	conn   *websocket.Conn
	codec  protocol.Codec
	sendCh chan frame
	done   chan struct{}
	once   sync.Once

	playerID PlayerID // latest player materialized for this connection
}

func newClient(id ConnID, addr string, codec protocol.Codec, queue int) *Client {
	if codec == nil {
		codec = protocol.JSON
	}
	return &Client{
		id:     id,
		addr:   addr,
		codec:  codec,
		sendCh: make(chan frame, queue),
		done:   make(chan struct{}),
	}
}

func (c *Client) ID() ConnID { return c.id }

// kick asks the write pump to close the connection. Safe to call repeatedly.
func (c *Client) kick() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// enqueue queues f without blocking and reports whether it fit.
func (c *Client) enqueue(f frame) bool {
	select {
	case c.sendCh <- f:
		return true
	default:
		return false
	}
}

// registry tracks live connections. Each Client carries its own player binding.
type registry struct {
	clients map[ConnID]*Client
}

func newRegistry() *registry {
	return &registry{clients: make(map[ConnID]*Client)}
}

func (r *registry) add(c *Client) {
	r.clients[c.id] = c
}

// remove forgets the connection and returns it, or nil if it was unknown.
func (r *registry) remove(id ConnID) *Client {
	c, ok := r.clients[id]
	if !ok {
		return nil
	}
	delete(r.clients, id)
	return c
}

// bind points the connection at its newest player, replacing a dead one.
func (r *registry) bind(c *Client, pid PlayerID) {
	c.playerID = pid
}

func (r *registry) get(id ConnID) *Client {
	return r.clients[id]
}

func (r *registry) len() int {
	return len(r.clients)
}

// ordered returns the connections by id so fan-out order is stable.
func (r *registry) ordered() []*Client {
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
