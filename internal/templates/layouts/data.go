// data.go provides typed context helpers for passing layout data from
// handlers/middleware to page templates. This avoids importing plugin
// types in the layouts package -- only simple types are stored.
//
// Data flow: Handler/Middleware -> Echo Context -> LayoutInjector -> Go Context -> Template
package layouts

import "context"

// ctxKey is a private type for context keys to prevent collisions.
type ctxKey string

const (
	keyIsAuthenticated ctxKey = "layout_is_authenticated"
	keyUserID          ctxKey = "layout_user_id"
	keyUsername        ctxKey = "layout_username"
	keyAvatarURL       ctxKey = "layout_avatar_url"
	keyCSRFToken       ctxKey = "layout_csrf_token"
	keyActivePath      ctxKey = "layout_active_path"
)

// --- Setters (called by the layout injector in app/routes.go) ---

// SetIsAuthenticated marks whether the current request has a valid session.
func SetIsAuthenticated(ctx context.Context, authed bool) context.Context {
	return context.WithValue(ctx, keyIsAuthenticated, authed)
}

// SetUserID stores the authenticated user's ID in context.
func SetUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyUserID, id)
}

// SetUsername stores the authenticated user's username in context.
// Empty for principals that have not completed their profile yet.
func SetUsername(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyUsername, name)
}

// SetAvatarURL stores the authenticated user's avatar URL in context.
func SetAvatarURL(ctx context.Context, url string) context.Context {
	return context.WithValue(ctx, keyAvatarURL, url)
}

// SetCSRFToken stores the CSRF token for forms.
func SetCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, keyCSRFToken, token)
}

// SetActivePath stores the current request path for nav highlighting.
func SetActivePath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, keyActivePath, path)
}

// --- Getters (called by templates) ---

// IsAuthenticated returns true if the current request has a valid session.
func IsAuthenticated(ctx context.Context) bool {
	authed, _ := ctx.Value(keyIsAuthenticated).(bool)
	return authed
}

// GetUserID returns the authenticated user's ID, or "".
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(keyUserID).(string)
	return id
}

// GetUsername returns the authenticated user's username, or "".
func GetUsername(ctx context.Context) string {
	name, _ := ctx.Value(keyUsername).(string)
	return name
}

// GetAvatarURL returns the authenticated user's avatar URL, or "".
func GetAvatarURL(ctx context.Context) string {
	url, _ := ctx.Value(keyAvatarURL).(string)
	return url
}

// GetCSRFToken returns the CSRF token for the current request, or "".
func GetCSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(keyCSRFToken).(string)
	return token
}

// GetActivePath returns the current request path, or "".
func GetActivePath(ctx context.Context) string {
	path, _ := ctx.Value(keyActivePath).(string)
	return path
}
