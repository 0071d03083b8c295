package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// clientBufferSize is the per-client outbound message buffer.
const clientBufferSize = 256

// Message is the envelope for every event sent to clients.
type Message struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	Event     string `json:"event,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// Message types.
const (
	MsgEvent    = "event"
	MsgResponse = "response"
	MsgError    = "error"
	MsgPong     = "pong"
)

// frame is an encoded message ready to write.
type frame struct {
	event string
	data  []byte
}

// Hub fans events out to connected SSE and WebSocket clients.
type Hub struct {
	logger  *log.Logger
	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	id   string
	kind string
	send chan frame
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{logger: logger, clients: make(map[*client]struct{})}
}

func (h *Hub) register(kind string) *client {
	c := &client{id: uuid.NewString(), kind: kind, send: make(chan frame, clientBufferSize)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("client connected", "id", c.id, "kind", kind, "clients", h.ClientCount())
	return c
}

// unregister removes c and closes its send channel. Only the call that
// actually removes the client closes the channel.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		close(c.send)
		h.logger.Debug("client disconnected", "id", c.id, "kind", c.kind, "clients", h.ClientCount())
	}
}

// Broadcast sends an event to every client. Clients whose buffer is full
// miss the event.
func (h *Hub) Broadcast(event string, payload any) {
	data, err := json.Marshal(Message{
		Type:      MsgEvent,
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("encode event", "event", event, "err", err)
		return
	}
	f := frame{event: event, data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- f:
		default:
			h.logger.Warn("client buffer full, dropping event", "id", c.id, "event", event)
		}
	}
}

// sendTo queues f for a single client. It reports false when the client is
// gone or its buffer is full.
func (h *Hub) sendTo(c *client, f frame) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	select {
	case c.send <- f:
		return true
	default:
		return false
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}
