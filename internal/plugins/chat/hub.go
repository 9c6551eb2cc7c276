// Package chat is the live chat relay behind /ws/chat. Messages exist only
// in memory: a bounded history is replayed to newcomers and nothing is
// persisted.
package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// historyLimit caps the replay buffer. Older messages are dropped.
const historyLimit = 100

// Message is a single chat line as sent over the wire.
type Message struct {
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatarUrl"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sentAt"`
}

// Hub fans messages out to every connected client and keeps the bounded
// history. All state is owned by the Run goroutine; clients talk to it
// through channels only.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan Message
	history    []Message
}

// NewHub creates a hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Message, 64),
	}
}

// Run owns the hub state until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			for _, msg := range h.history {
				// Stop replaying once the client is dropped; its send
				// channel is closed at that point.
				if !h.deliver(c, msg) {
					break
				}
			}
			slog.Debug("chat client joined", slog.String("username", c.username))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

		case msg := <-h.broadcast:
			h.remember(msg)
			for c := range h.clients {
				h.deliver(c, msg)
			}
		}
	}
}

// remember appends to the history, evicting the oldest line past the cap.
func (h *Hub) remember(msg Message) {
	h.history = append(h.history, msg)
	if len(h.history) > historyLimit {
		h.history = h.history[len(h.history)-historyLimit:]
	}
}

// deliver sends to one client, dropping it if its buffer is full. A stalled
// reader must not block the whole room. Returns false when the client was
// dropped; its send channel is closed then and must not be written again.
func (h *Hub) deliver(c *client, msg Message) bool {
	payload, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshaling chat message", slog.String("error", err.Error()))
		return true
	}
	select {
	case c.send <- payload:
		return true
	default:
		delete(h.clients, c)
		close(c.send)
		return false
	}
}
