package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"oscbot/bot"
	"oscbot/logger"
)

const wsWriteTimeout = 5 * time.Second

// Hub broadcasts domain events to connected websocket clients. It
// implements bot.EventSink, so it can be handed directly to the bots.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	closed   bool

	// writeMu serializes broadcasts; gorilla permits one writer per
	// connection and multiple bots publish concurrently
	writeMu sync.Mutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// Dashboard may be served from any origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// HandleWS upgrades the connection and registers the client. Inbound
// messages are discarded; the socket exists only to push events out.
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("[WS] upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	logger.Infof("[WS] client connected (%d total)", count)

	// Read loop drains control frames and detects disconnect
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Publish implements bot.EventSink. Clients that fail a write are
// dropped.
func (h *Hub) Publish(ev bot.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Errorf("[WS] encode event: %v", err)
		return
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(conn)
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
	}
	h.mu.Unlock()

	if ok {
		conn.Close()
		logger.Info("[WS] client disconnected")
	}
}

// Close disconnects all clients and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}
