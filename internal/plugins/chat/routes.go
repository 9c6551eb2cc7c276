package chat

import "github.com/labstack/echo/v4"

// RegisterRoutes wires the chat websocket onto the session-gated group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/ws/chat", h.ServeWS)
}
