// Package publisher fans out book notifications to downstream subscribers
// over WebSocket and exposes a small HTTP surface for operational
// visibility. Grounded on the example corpus's dashboard Hub/Client
// pattern: a central goroutine owns the client set, clients get a
// buffered send channel, and a slow client is dropped rather than
// allowed to back-pressure the broadcaster.
package publisher

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferLen  = 256
)

// Hub owns the set of connected subscribers and broadcasts notification
// frames to all of them. The zero value is not usable; construct with
// NewHub and start Run in its own goroutine.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mu         sync.RWMutex
	logger     *slog.Logger
}

// Client is one connected WebSocket subscriber.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub. Call Run in a goroutine before accepting clients.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, sendBufferLen),
		logger:     logger.With("component", "publisher-hub"),
	}
}

// Run is the hub's event loop. Blocks until the hub is discarded; callers
// run it in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("subscriber connected", "count", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("subscriber disconnected", "count", n)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish marshals v as a JSON frame and broadcasts it to every connected
// subscriber. Notification is satisfied by book.NBBOImprovement and
// book.Execution.
func (h *Hub) Publish(kind string, v interface{}) {
	frame := struct {
		Type string      `json:"type"`
		Data interface{} `json:"data"`
	}{Type: kind, Data: v}

	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("failed to marshal notification", "error", err, "type", kind)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("broadcast buffer full, dropping notification", "type", kind)
	}
}

// NewClient registers conn with the hub and starts its read/write pumps.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	c := &Client{hub: hub, conn: conn, send: make(chan []byte, sendBufferLen)}
	hub.register <- c
	go c.writePump()
	go c.readPump()
	return c
}

func (c *Client) writePump() {
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

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
		// subscribers are read-only; any inbound message is discarded
	}
}
