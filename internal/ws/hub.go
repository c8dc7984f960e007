package ws

import (
	"encoding/json"
	"sync"
	"time"

	"lingo_xp/internal/dto"
	"lingo_xp/internal/logger"
)

// Hub fans live leaderboard events out to every connected client
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	broadcast chan []byte
	stop      chan struct{}
	stopOnce  sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]struct{}),
		broadcast: make(chan []byte, 256),
		stop:      make(chan struct{}),
	}
}

// Run delivers broadcasts until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case msg := <-h.broadcast:
			h.fanOut(msg)
		case <-h.stop:
			h.closeAll()
			return
		}
	}
}

// Stop disconnects all clients and ends Run
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Publish queues a rank event. A full queue drops the event; clients resync
// from the leaderboard endpoint.
func (h *Hub) Publish(ev dto.RankEvent) {
	msg, err := json.Marshal(ev)
	if err != nil {
		logger.Error("ws: marshal event", "error", err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		logger.Warn("ws: broadcast queue full, dropping event", "type", ev.Type, "user_id", ev.UserID)
	}
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	logger.Debug("ws: client connected", "clients", h.Count())
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.closeSend()
	}
	h.mu.Unlock()
}

// fanOut drops clients whose send buffer is full instead of blocking the hub
func (h *Hub) fanOut(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.Send <- msg:
		default:
			logger.Warn("ws: slow client dropped", "since", time.Since(c.connectedAt).Round(time.Second).String())
			delete(h.clients, c)
			c.closeSend()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		c.closeSend()
	}
}
