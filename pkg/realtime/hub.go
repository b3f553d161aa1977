package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 4096
	sendBuffer     = 32
)

// Envelope is the JSON frame pushed to clients.
type Envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub fans messages out to every websocket a user has open. Safe for concurrent use.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*client]struct{}
	logger   *zap.Logger
	onChange func(delta int)
	closed   bool
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
	once   sync.Once
}

// NewHub constructs an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{clients: make(map[string]map[*client]struct{}), logger: logger}
}

// OnConnectionChange registers a callback invoked with +1/-1 as connections come and go.
func (h *Hub) OnConnectionChange(fn func(delta int)) {
	h.mu.Lock()
	h.onChange = fn
	h.mu.Unlock()
}

// Serve registers conn for userID and pumps it until the peer disconnects. It returns immediately.
func (h *Hub) Serve(conn *websocket.Conn, userID string) {
	c := &client{hub: h, conn: conn, userID: userID, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][c] = struct{}{}
	notify := h.onChange
	h.mu.Unlock()

	if notify != nil {
		notify(1)
	}
	h.logger.Debug("websocket connected", zap.String("user_id", userID))

	go c.writePump()
	go c.readPump()
}

// Publish sends msg to all connections of userID and reports how many were reached.
// Slow connections whose buffer is full are dropped.
func (h *Hub) Publish(userID string, msg Envelope) int {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("websocket payload not encodable", zap.String("type", msg.Type), zap.Error(err))
		return 0
	}

	delivered := 0
	var dropped []*client
	h.mu.RLock()
	for c := range h.clients[userID] {
		select {
		case c.send <- data:
			delivered++
		default:
			dropped = append(dropped, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range dropped {
		h.logger.Warn("websocket send buffer full, dropping connection", zap.String("user_id", userID))
		h.remove(c)
	}
	return delivered
}

// Connections reports how many sockets userID has open.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.Unlock()
	for _, c := range all {
		h.remove(c)
	}
}

func (h *Hub) remove(c *client) {
	c.once.Do(func() {
		h.mu.Lock()
		if set, ok := h.clients[c.userID]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.clients, c.userID)
			}
		}
		// send is closed under the lock; Publish only writes while holding it.
		close(c.send)
		notify := h.onChange
		h.mu.Unlock()

		if notify != nil {
			notify(-1)
		}
		h.logger.Debug("websocket disconnected", zap.String("user_id", c.userID))
	})
}

// readPump only keeps the connection alive; clients send messages over HTTP.
func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("unexpected websocket close", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.hub.remove(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.remove(c)
				return
			}
		}
	}
}
