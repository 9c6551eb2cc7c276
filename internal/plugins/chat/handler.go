package chat

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/arenahub/arena/internal/plugins/auth"
)

// Handler upgrades gated requests onto the chat hub.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler creates a chat handler bound to the given hub.
func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The chat panel lives on our own pages; cross-origin
			// connects are refused.
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
			},
		},
	}
}

// ServeWS joins the session's user to the room. The route sits behind the
// auth gate, so the user here is always complete.
func (h *Handler) ServeWS(c echo.Context) error {
	user := auth.GetUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written its own error response.
		slog.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return nil
	}

	client := &client{
		hub:       h.hub,
		conn:      conn,
		send:      make(chan []byte, sendQueueSize),
		username:  user.DisplayName(),
		avatarURL: user.AvatarURL,
	}
	h.hub.register <- client

	go client.writePump()
	go client.readPump()

	return nil
}
