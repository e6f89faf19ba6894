package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quantumlife/lifedesk/internal/calendar"
	"github.com/quantumlife/lifedesk/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// WebSocketMessage is the envelope pushed to clients
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// NowTick is the payload of "now.tick" messages.
type NowTick struct {
	Time   time.Time `json:"time"`
	Hour   int       `json:"hour"`
	Minute int       `json:"minute"`
	Px     float64   `json:"px"`
}

// WebSocketHub fans messages out to connected clients
type WebSocketHub struct {
	upgrader websocket.Upgrader

	clients   map[*wsClient]bool
	broadcast chan []byte

	mu sync.RWMutex
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewWebSocketHub creates a new hub
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local UI on any port
			},
		},
		clients:   make(map[*wsClient]bool),
		broadcast: make(chan []byte, 64),
	}
}

// Run delivers broadcasts until ctx is cancelled, then closes all clients.
func (h *WebSocketHub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return
		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Client too slow; drop it.
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a message for every client. Messages are dropped when the
// queue is full.
func (h *WebSocketHub) Broadcast(msg WebSocketMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		logging.Error("encode websocket message: %v", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		logging.WithField("type", msg.Type).Warn("websocket broadcast queue full")
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and registers the client.
func (h *WebSocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an error response.
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	go c.writePump()
	go c.readPump(h)
}

func (h *WebSocketHub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump discards client input and detects disconnects.
func (c *wsClient) readPump(h *WebSocketHub) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// forwardNow pushes every new now-line value to websocket clients.
func (s *Server) forwardNow(ctx context.Context) {
	ch, cancel := s.nowIndicator.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ch:
			s.Broadcast("now.tick", s.nowTick(t))
		}
	}
}

func (s *Server) nowTick(t time.Time) NowTick {
	tod := calendar.TimeOf(t)
	return NowTick{
		Time:   t,
		Hour:   tod.Hour,
		Minute: tod.Minute,
		Px:     s.grid.PxAt(tod),
	}
}
