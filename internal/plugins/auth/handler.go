package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arenahub/arena/internal/apperror"
	"github.com/arenahub/arena/internal/middleware"
	"github.com/arenahub/arena/internal/templates/pages"
)

// sessionCookieName is the HTTP cookie used to store the session token.
const sessionCookieName = "arena_session"

// oauthStateCookieName holds the anti-forgery state value during the
// Google sign-in round trip.
const oauthStateCookieName = "arena_oauth_state"

// Handler handles HTTP requests for authentication (login, register, Google
// sign-in, logout, profile completion). Handlers are thin: they bind the
// request, call the service, and render the response. No business logic
// lives here.
type Handler struct {
	service    AuthService
	provider   IdentityProvider
	sessionTTL time.Duration
}

// NewHandler creates a new auth handler. provider may be nil when Google
// sign-in is not configured; the /auth/google routes then bounce to /login.
func NewHandler(service AuthService, provider IdentityProvider, sessionTTL time.Duration) *Handler {
	return &Handler{service: service, provider: provider, sessionTTL: sessionTTL}
}

// LoginForm renders the login page (GET /login). A visitor who is already
// signed in with a complete profile is sent home instead.
func (h *Handler) LoginForm(c echo.Context) error {
	if h.redirectAuthenticated(c) {
		return nil
	}
	return middleware.Render(c, http.StatusOK, pages.LoginPage("", ""))
}

// Login processes the login form submission (POST /login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	token, user, err := h.service.Login(c.Request().Context(), LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		// Bad credentials re-render the form inline; infrastructure
		// failures propagate to the generic error page.
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == http.StatusUnauthorized {
			return middleware.Render(c, http.StatusOK, pages.LoginPage(req.Username, appErr.Message))
		}
		return err
	}

	h.setSessionCookie(c, token)
	return redirectAfterLogin(c, user)
}

// RegisterForm renders the registration page (GET /register).
func (h *Handler) RegisterForm(c echo.Context) error {
	if h.redirectAuthenticated(c) {
		return nil
	}
	return middleware.Render(c, http.StatusOK, pages.RegisterPage(pages.RegisterForm{}, ""))
}

// Register processes the registration form submission (POST /register).
// A local registration supplies username, password, and phone up front, so
// the account is profile-complete from its first moment.
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	form := pages.RegisterForm{Username: req.Username, Phone: req.Phone}

	if msg := validateRegisterRequest(&req); msg != "" {
		return middleware.Render(c, http.StatusOK, pages.RegisterPage(form, msg))
	}

	token, user, err := h.service.Register(c.Request().Context(), RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == http.StatusConflict {
			return middleware.Render(c, http.StatusOK, pages.RegisterPage(form, appErr.Message))
		}
		return err
	}

	h.setSessionCookie(c, token)
	return redirectAfterLogin(c, user)
}

// GoogleLogin starts the Google sign-in flow (GET /auth/google). It plants
// the anti-forgery state cookie and redirects to Google's consent screen.
func (h *Handler) GoogleLogin(c echo.Context) error {
	if h.provider == nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	state, err := generateStateToken()
	if err != nil {
		return apperror.NewInternal(err)
	}

	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     "/auth/google",
		HttpOnly: true,
		Secure:   c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes covers the consent round trip.
	})

	return c.Redirect(http.StatusSeeOther, h.provider.AuthURL(state))
}

// GoogleCallback finishes the Google sign-in flow (GET /auth/google/callback).
// Every provider-side failure recovers by sending the user back to the local
// login page; only our own store failures surface as errors.
func (h *Handler) GoogleCallback(c echo.Context) error {
	if h.provider == nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	stateCookie, err := c.Cookie(oauthStateCookieName)
	clearOAuthStateCookie(c)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != c.QueryParam("state") {
		slog.Warn("google callback state mismatch", slog.String("remote_ip", c.RealIP()))
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	if errParam := c.QueryParam("error"); errParam != "" {
		// User denied consent or Google reported a failure.
		slog.Info("google sign-in declined", slog.String("error", errParam))
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	code := c.QueryParam("code")
	if code == "" {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	identity, err := h.provider.Exchange(c.Request().Context(), code)
	if err != nil {
		slog.Warn("google code exchange failed", slog.Any("error", err))
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	token, user, err := h.service.LoginWithGoogle(c.Request().Context(), *identity)
	if err != nil {
		return err
	}

	h.setSessionCookie(c, token)
	return redirectAfterLogin(c, user)
}

// Logout destroys the session and clears the cookie (GET /logout).
func (h *Handler) Logout(c echo.Context) error {
	token := getSessionToken(c)
	if token != "" {
		// Destroy the session in Redis. Ignore errors -- the cookie
		// will be cleared regardless.
		_ = h.service.Logout(c.Request().Context(), token)
	}

	clearSessionCookie(c)
	return c.Redirect(http.StatusSeeOther, "/login")
}

// CompleteProfileForm renders the completion page (GET /complete-profile).
// Registered behind RequireAuth: the principal is always present here. A
// complete principal has nothing to complete and is sent home.
func (h *Handler) CompleteProfileForm(c echo.Context) error {
	user := GetUser(c)
	if user == nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}
	if user.ProfileComplete() {
		return c.Redirect(http.StatusSeeOther, "/main/home")
	}

	return middleware.Render(c, http.StatusOK,
		pages.CompleteProfilePage(user.DisplayName(), strOrEmpty(user.Phone), ""))
}

// CompleteProfile processes the completion form (POST /complete-profile).
func (h *Handler) CompleteProfile(c echo.Context) error {
	user := GetUser(c)
	if user == nil {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	var req CompleteProfileRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	_, err := h.service.CompleteProfile(c.Request().Context(), GetToken(c), user.ID, CompleteProfileInput{
		Username: req.Username,
		Phone:    req.Phone,
	})
	if err != nil {
		// Validation and conflict errors re-render the form with the
		// submitted input preserved; anything else is infrastructure.
		var appErr *apperror.AppError
		if errors.As(err, &appErr) &&
			(appErr.Code == http.StatusConflict || appErr.Code == http.StatusUnprocessableEntity) {
			return middleware.Render(c, http.StatusOK,
				pages.CompleteProfilePage(req.Username, req.Phone, appErr.Message))
		}
		return err
	}

	return c.Redirect(http.StatusSeeOther, "/main/home")
}

// --- Helpers ---

// redirectAuthenticated sends an already signed-in, profile-complete
// visitor to /main/home. Returns true when a redirect was written.
func (h *Handler) redirectAuthenticated(c echo.Context) bool {
	token := getSessionToken(c)
	if token == "" {
		return false
	}
	user, ok := h.service.RestoreSession(c.Request().Context(), token)
	if !ok || !user.ProfileComplete() {
		return false
	}
	_ = c.Redirect(http.StatusSeeOther, "/main/home")
	return true
}

// redirectAfterLogin routes a freshly authenticated user: home when the
// profile is complete, otherwise straight to the completion flow.
func redirectAfterLogin(c echo.Context, user *User) error {
	if !user.ProfileComplete() {
		return c.Redirect(http.StatusSeeOther, CompletionPath)
	}
	return c.Redirect(http.StatusSeeOther, "/main/home")
}

// --- Cookie helpers ---

// getSessionToken reads the session token from the cookie.
func getSessionToken(c echo.Context) string {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

// setSessionCookie sets the session cookie on the response. The cookie is
// HttpOnly (JS can't read it), Secure if behind TLS, and SameSite=Lax.
func (h *Handler) setSessionCookie(c echo.Context, token string) {
	req := c.Request()
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessionTTL.Seconds()),
	})
}

// clearSessionCookie removes the session cookie by setting MaxAge to -1.
func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// clearOAuthStateCookie removes the one-shot OAuth state cookie.
func clearOAuthStateCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookieName,
		Value:    "",
		Path:     "/auth/google",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// generateStateToken creates a random hex token for the OAuth state check.
func generateStateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// --- Validation helpers ---

// usernameRe restricts usernames to letters, numbers, and underscores.
var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// validateRegisterRequest performs basic server-side validation on the
// registration form. Returns an error message or empty string.
func validateRegisterRequest(req *RegisterRequest) string {
	if req.Username == "" {
		return "username is required"
	}
	if len(req.Username) < 3 {
		return "username must be at least 3 characters"
	}
	if len(req.Username) > 100 {
		return "username must be at most 100 characters"
	}
	if !usernameRe.MatchString(req.Username) {
		return "username may only contain letters, numbers, and underscores"
	}
	if req.Password == "" {
		return "password is required"
	}
	if len(req.Password) < 8 {
		return "password must be at least 8 characters"
	}
	if len(req.Password) > 128 {
		return "password must be at most 128 characters"
	}
	if req.Phone == "" {
		return "phone number is required"
	}
	return ""
}
