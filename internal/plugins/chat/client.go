package chat

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arenahub/arena/internal/sanitize"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024

	// sendQueueSize must cover a full history replay plus live traffic:
	// the hub replays into this queue at registration, before writePump
	// has started draining it. A queue smaller than historyLimit would
	// get every newcomer to a busy room dropped mid-replay.
	sendQueueSize = historyLimit + 64
)

// client is one websocket connection. The hub never touches conn; it only
// feeds the send channel.
type client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	username  string
	avatarURL string
}

// inbound is the shape clients send; everything but the body comes from the
// session, never from the wire.
type inbound struct {
	Body string `json:"body"`
}

// readPump relays inbound messages to the hub until the connection drops.
func (c *client) readPump() {
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
		var in inbound
		if err := c.conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("chat read error", slog.String("error", err.Error()))
			}
			return
		}

		body := sanitize.Text(in.Body)
		if body == "" {
			continue
		}

		c.hub.broadcast <- Message{
			Username:  c.username,
			AvatarURL: c.avatarURL,
			Body:      body,
			SentAt:    time.Now().UTC(),
		}
	}
}

// writePump drains the send channel onto the connection and keeps the
// connection alive with pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
