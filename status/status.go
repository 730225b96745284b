// Package status broadcasts load progress and diagnostics to websocket
// clients.
package status

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mogaika/gltf_browser/diag"
)

const (
	INFO = iota
	ERROR
	PROGRESS
	DIAGNOSTIC
)

const (
	pingPeriod   = 30 * time.Second
	writeTimeout = 40 * time.Second
	clientQueue  = 32
)

type Status struct {
	Message    string
	Time       time.Time
	Type       int
	Progress   float32
	Diagnostic *diag.Entry `json:",omitempty"`
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.unregister(c)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				diag.Logger().Debug("status ws write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				diag.Logger().Debug("status ws ping failed", zap.Error(err))
				return
			}
		}
	}
}

// readPump drains control frames so pongs and close are handled.
func (c *client) readPump() {
	defer c.hub.unregister(c)
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

// Hub fans status messages out to every connected client. A new client
// first receives the last message sent.
type Hub struct {
	mu          sync.Mutex
	clients     map[*client]bool
	lastMessage []byte
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]bool)}
}

// Attach takes ownership of conn until the client goes away.
func (h *Hub) Attach(conn *websocket.Conn) {
	c := &client{hub: h, conn: conn, send: make(chan []byte, clientQueue)}

	h.mu.Lock()
	h.clients[c] = true
	if h.lastMessage != nil {
		c.send <- h.lastMessage
	}
	h.mu.Unlock()

	go c.writePump()
	go c.readPump()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Send(s Status) {
	if math.IsNaN(float64(s.Progress)) || math.IsInf(float64(s.Progress), 0) {
		s.Progress = 0
	}
	if s.Time.IsZero() {
		s.Time = time.Now()
	}
	data, err := json.Marshal(&s)
	if err != nil {
		diag.Logger().Error("status marshal failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastMessage = data
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// slow client, it will catch up with the next message
		}
	}
}

func (h *Hub) Info(format string, a ...interface{}) {
	h.Send(Status{Message: fmt.Sprintf(format, a...), Type: INFO})
}

func (h *Hub) Error(format string, a ...interface{}) {
	h.Send(Status{Message: fmt.Sprintf(format, a...), Type: ERROR})
}

func (h *Hub) Progress(progress float32, format string, a ...interface{}) {
	h.Send(Status{Message: fmt.Sprintf(format, a...), Type: PROGRESS, Progress: progress})
}

// Report makes the hub a diag.Reporter.
func (h *Hub) Report(e diag.Entry) {
	h.Send(Status{Message: e.String(), Type: DIAGNOSTIC, Diagnostic: &e})
}
