package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arenahub/arena/internal/middleware"
	"github.com/arenahub/arena/internal/plugins/auth"
	"github.com/arenahub/arena/internal/plugins/chat"
	pagesplugin "github.com/arenahub/arena/internal/plugins/pages"
	"github.com/arenahub/arena/internal/templates/layouts"
)

// RegisterRoutes sets up all application routes. It registers public routes
// directly and delegates to each plugin's route registration function.
//
// This is the single place where all routes are aggregated. When a new
// plugin is added, its routes are registered here.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Templates read session data from the request context; this copies it
	// over from the Echo context on every render.
	middleware.LayoutInjector = injectLayoutData

	// --- Auth plugin ---
	userRepo := auth.NewUserRepository(a.DB)
	sessions := auth.NewSessionManager(a.Redis, a.Config.Auth.SessionTTL)
	authService := auth.NewAuthService(userRepo, sessions)
	var googleProvider auth.IdentityProvider
	if a.Config.Auth.GoogleEnabled() {
		googleProvider = auth.NewGoogleProvider(a.Config.Auth)
	}
	authHandler := auth.NewHandler(authService, googleProvider, a.Config.Auth.SessionTTL)

	// --- Public routes (no session required) ---

	// The portal has no separate landing page; the gate sends anonymous
	// visitors to /login from here.
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, "/main/home")
	})

	// Health check endpoint for Docker health monitoring.
	e.GET("/healthz", a.healthz)

	auth.RegisterRoutes(e, authHandler)

	// --- Gated routes: everything below requires a session, and all but
	// the completion form require a complete profile. ---
	gated := e.Group("", auth.RequireAuth(authService))

	auth.RegisterProtectedRoutes(gated, authHandler)

	pagesHandler := pagesplugin.NewHandler(pagesplugin.NewContentRepository(a.DB))
	pagesplugin.RegisterRoutes(gated, pagesHandler)

	chat.RegisterRoutes(gated, chat.NewHandler(a.chatHub))
}

// healthz reports whether the process can reach its backing stores.
func (a *App) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := map[string]string{"database": "ok", "redis": "ok"}

	if err := a.DB.PingContext(ctx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	return c.JSON(status, checks)
}

// injectLayoutData copies per-request session state into the Go context so
// the base layout can render the nav, avatar, and CSRF fields.
func injectLayoutData(c echo.Context, ctx context.Context) context.Context {
	ctx = layouts.SetCSRFToken(ctx, middleware.GetCSRFToken(c))
	ctx = layouts.SetActivePath(ctx, c.Request().URL.Path)

	if user := auth.GetUser(c); user != nil {
		ctx = layouts.SetIsAuthenticated(ctx, true)
		ctx = layouts.SetUserID(ctx, user.ID)
		ctx = layouts.SetUsername(ctx, user.DisplayName())
		ctx = layouts.SetAvatarURL(ctx, user.AvatarURL)
	}

	return ctx
}
