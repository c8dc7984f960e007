package ws

import (
	"encoding/json"
	"time"

	"lingo_xp/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

type Client struct {
	Conn        *websocket.Conn
	Send        chan []byte
	Hub         *Hub
	connectedAt time.Time

	// closed is guarded by Hub.mu; Send is closed exactly once, by the hub
	closed bool
}

func NewClient(conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		Conn:        conn,
		Send:        make(chan []byte, 64),
		Hub:         hub,
		connectedAt: time.Now(),
	}
}

// Run registers the client and blocks until the connection closes
func (c *Client) Run() {
	c.Hub.register(c)
	go c.writePump()

	// explicit ready handshake so clients can wait for it
	c.trySend([]byte(`{"type":"` + MsgReady + `"}`))

	c.readPump()
}

// trySend queues a direct reply without blocking. Replies to a client the hub
// already dropped are discarded.
func (c *Client) trySend(msg []byte) {
	c.Hub.mu.RLock()
	defer c.Hub.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- msg:
	default:
	}
}

// closeSend must be called with Hub.mu held for writing
func (c *Client) closeSend() {
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

//read
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws: read error", "error", err)
			}
			return
		}

		var in inbound
		if err := json.Unmarshal(msg, &in); err != nil || in.Type != MsgPing {
			c.trySend([]byte(`{"type":"` + MsgError + `","message":"unsupported message"}`))
			continue
		}
		c.trySend([]byte(`{"type":"` + MsgPong + `"}`))
	}
}

//write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws: write error", "error", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
