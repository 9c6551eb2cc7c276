package pages

import "github.com/labstack/echo/v4"

// RegisterRoutes wires the portal pages onto the session-gated group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/main", h.Home)
	g.GET("/main/:page", h.ServeMain)
}
