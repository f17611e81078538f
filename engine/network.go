package engine

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"neonsnake.io/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	Subprotocols:    []string{protocol.CodecJSON, protocol.CodecMsgpack},
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ---------------------------------------------------------------------------
// WebSocket handler
// ---------------------------------------------------------------------------

// HandleWS upgrades the request and serves the connection until it drops.
// The outbound codec follows the negotiated subprotocol (or ?codec=).
func HandleWS(game *Game, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade error from %s: %v", r.RemoteAddr, err)
		return
	}

	codec, _ := protocol.Lookup(conn.Subprotocol())
	if name := r.URL.Query().Get("codec"); name != "" {
		if c, ok := protocol.Lookup(name); ok {
			codec = c
		}
	}

	c := game.Connect(r.RemoteAddr, codec)
	if c == nil {
		conn.Close()
		return
	}
	c.conn = conn

	// Start writer
	go c.writePump(game.cfg.WriteTimeout)

	// Reader blocks here until disconnect
	c.readPump(game)

	// Cleanup
	c.kick()
	game.Disconnect(c)
	conn.Close()
	log.Printf("[WS] connection %d (%s) disconnected", c.id, c.addr)
}

// ---------------------------------------------------------------------------
// Read pump - one goroutine per connection, reads client messages
// ---------------------------------------------------------------------------

func (c *Client) readPump(game *Game) {
	c.conn.SetReadLimit(readLimit)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] connection %d read error: %v", c.id, err)
			}
			return
		}
		game.bytesRecv.Add(int64(len(data)))
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var codec protocol.Codec
		switch msgType {
		case websocket.TextMessage:
			codec = protocol.JSON
		case websocket.BinaryMessage:
			codec = protocol.Msgpack
		default:
			continue
		}

		msg, err := codec.Decode(data)
		if err != nil {
			// Bad frames never cost the connection.
			log.Printf("[PROTO] connection %d: dropped frame: %v", c.id, err)
			continue
		}
		if !game.Deliver(c, msg) {
			return
		}
	}
}

// ---------------------------------------------------------------------------
// Write pump - one goroutine per connection, sends messages to client
// ---------------------------------------------------------------------------

func (c *Client) writePump(writeTimeout time.Duration) {
	pingTicker := time.NewTicker(pingPeriod)
	defer func() {
		pingTicker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case f := <-c.sendCh:
			kind := websocket.TextMessage
			if f.binary {
				kind = websocket.BinaryMessage
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(kind, f.data); err != nil {
				return
			}
		case <-pingTicker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
