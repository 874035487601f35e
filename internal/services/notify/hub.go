package notify

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/chorehub/client/internal/infrastructure/queue"
	"github.com/chorehub/client/internal/services/reconciler"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Event is pushed to connected UI clients whenever reconciled state changes
// or sync health moves. Clients re-read through the regular API.
type Event struct {
	Type   string `json:"type"`
	Entity string `json:"entity,omitempty"`
	IDs    []int  `json:"ids,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// Hub broadcasts change events to websocket clients. The feed is one-way:
// inbound frames beyond ping/pong control are discarded.
type Hub struct {
	upgrader websocket.FastHTTPUpgrader
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[*client]bool
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		upgrader: websocket.FastHTTPUpgrader{
			CheckOrigin: func(ctx *fasthttp.RequestCtx) bool { return true },
		},
		logger:  logger,
		clients: make(map[*client]bool),
	}
}

// Serve upgrades the request and attaches the peer to the feed.
func (h *Hub) Serve(ctx *fasthttp.RequestCtx) {
	err := h.upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
		c := &client{
			conn: conn,
			send: make(chan []byte, 32),
		}
		h.register(c)
		defer h.unregister(c)

		go c.readPump()
		c.writePump()
	})
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
	}
}

// Broadcast sends an event to every connected client. Slow clients drop the
// event instead of stalling the sender.
func (h *Hub) Broadcast(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("failed to encode event", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
		}
	}
}

// EntityChanged implements the reconciler Notifier contract.
func (h *Hub) EntityChanged(entity queue.Entity, ids []int) {
	h.Broadcast(Event{Type: "entity_changed", Entity: string(entity), IDs: ids})
}

// SyncStateChanged implements the reconciler Notifier contract.
func (h *Hub) SyncStateChanged(snap reconciler.Snapshot) {
	h.Broadcast(Event{Type: "sync_status", Entity: string(snap.Entity), Data: snap})
}

// Close disconnects every client.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	return nil
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(c.send)
		return
	}
	h.clients[c] = true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
	c.conn.Close()
}

func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(1024)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
