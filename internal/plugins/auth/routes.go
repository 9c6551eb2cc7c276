package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arenahub/arena/internal/middleware"
)

// RegisterRoutes sets up the public auth routes on the given Echo instance.
// The gate middleware is exported separately (RequireAuth) for the protected
// route groups to use.
//
// POST endpoints are rate-limited to slow down brute-force and credential
// stuffing attacks: 10 attempts per IP per minute for login, 5 for register.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/login", h.LoginForm)
	e.POST("/login", h.Login, middleware.RateLimit(10, time.Minute))
	e.GET("/register", h.RegisterForm)
	e.POST("/register", h.Register, middleware.RateLimit(5, time.Minute))

	e.GET("/auth/google", h.GoogleLogin)
	e.GET("/auth/google/callback", h.GoogleCallback)

	e.GET("/logout", h.Logout)
}

// RegisterProtectedRoutes sets up the completion flow on the gated group.
// The gate admits incomplete principals to these two routes only.
func RegisterProtectedRoutes(g *echo.Group, h *Handler) {
	g.GET(CompletionPath, h.CompleteProfileForm)
	g.POST(CompletionPath, h.CompleteProfile, middleware.RateLimit(10, time.Minute))
}
