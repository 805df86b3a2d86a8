// Package live pushes inventory events to connected dashboard
// browsers over WebSocket so open pages refresh without polling.
package live

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"stocklens/internal/events"
)

// Frame is the wire format for messages sent to dashboard clients.
type Frame struct {
	Type    string          `json:"type"` // event, heartbeat
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	writeWait      = 10 * time.Second
	pingInterval   = 30 * time.Second
	sendBufferSize = 32
)

// Hub manages active dashboard WebSocket connections and fans bus
// events out to all of them.
type Hub struct {
	upgrader websocket.Upgrader

	mu     sync.Mutex
	nextID int64
	conns  map[int64]chan Frame
}

// NewHub creates a hub and subscribes it to every event on the bus.
func NewHub(bus *events.Bus) *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns: make(map[int64]chan Frame),
	}

	bus.Subscribe(func(e events.Event) {
		payload, err := json.Marshal(e)
		if err != nil {
			return
		}
		h.Broadcast(Frame{Type: "event", Payload: payload})
	})

	return h
}

// Broadcast queues a frame for every connected client. Slow clients
// drop frames instead of blocking the publisher.
func (h *Hub) Broadcast(frame Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.conns {
		select {
		case ch <- frame:
		default:
			log.Printf("[WS] Client %d too slow, dropping frame", id)
		}
	}
}

// ClientCount returns the number of connected dashboard clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// HandleConnection is the HTTP handler that upgrades to WebSocket.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed: %v", err)
		return
	}

	send := make(chan Frame, sendBufferSize)

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.conns[id] = send
	h.mu.Unlock()

	log.Printf("[WS] Dashboard client %d connected", id)

	go h.writeLoop(conn, send)
	h.readLoop(conn, id, send)
}

// readLoop discards inbound messages and tears the connection down
// when the client goes away.
func (h *Hub) readLoop(conn *websocket.Conn, id int64, send chan Frame) {
	defer func() {
		h.mu.Lock()
		delete(h.conns, id)
		h.mu.Unlock()
		close(send)
		conn.Close()
		log.Printf("[WS] Dashboard client %d disconnected", id)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop serializes frames to the socket and keeps it alive with
// periodic pings.
func (h *Hub) writeLoop(conn *websocket.Conn, send chan Frame) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case frame, ok := <-send:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
