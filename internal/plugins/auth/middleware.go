package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Context keys for storing the resolved principal in Echo context. Other
// plugins use these keys (via the exported getter functions below) to
// access the authenticated user.
const (
	contextKeyUser  = "auth_user"
	contextKeyToken = "auth_session_token"
)

// RequireAuth returns middleware enforcing the profile-completion gate on
// every protected request: a valid session is required, the principal must
// exist, and an incomplete profile is bounced to the completion flow. On
// admit, the principal is attached to the request context for downstream
// handlers.
func RequireAuth(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := getSessionToken(c)
			user, ok := service.RestoreSession(c.Request().Context(), token)

			switch Decide(GateState{
				HasSession: ok,
				Principal:  user,
				Path:       c.Request().URL.Path,
			}) {
			case DecisionRedirectLogin:
				// Invalid or expired session -- clear the stale cookie.
				if token != "" {
					clearSessionCookie(c)
				}
				return c.Redirect(http.StatusSeeOther, "/login")

			case DecisionRedirectComplete:
				return c.Redirect(http.StatusSeeOther, CompletionPath)
			}

			c.Set(contextKeyUser, user)
			c.Set(contextKeyToken, token)

			return next(c)
		}
	}
}

// --- Exported getters for other plugins ---

// GetUser retrieves the authenticated principal from the Echo context.
// Returns nil if the request did not pass through RequireAuth.
func GetUser(c echo.Context) *User {
	user, ok := c.Get(contextKeyUser).(*User)
	if !ok {
		return nil
	}
	return user
}

// GetToken retrieves the session token for the current request.
// Returns empty string if the request did not pass through RequireAuth.
func GetToken(c echo.Context) string {
	token, ok := c.Get(contextKeyToken).(string)
	if !ok {
		return ""
	}
	return token
}
