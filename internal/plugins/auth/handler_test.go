package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

type mockProvider struct {
	exchangeFn func(ctx context.Context, code string) (*ExternalIdentity, error)
}

func (m *mockProvider) AuthURL(state string) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + state
}

func (m *mockProvider) Exchange(ctx context.Context, code string) (*ExternalIdentity, error) {
	return m.exchangeFn(ctx, code)
}

func newTestHandler(t *testing.T) (*Handler, AuthService) {
	t.Helper()
	svc := newTestService(t, newMemUserRepo())
	provider := &mockProvider{
		exchangeFn: func(ctx context.Context, code string) (*ExternalIdentity, error) {
			return &ExternalIdentity{SubjectID: "sub-1", Email: "ana@example.com"}, nil
		},
	}
	return NewHandler(svc, provider, 24*time.Hour), svc
}

func postForm(t *testing.T, path string, form url.Values, handle echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	if err := handle(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handling POST %s: %v", path, err)
	}
	return rec
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	return nil
}

func registerTestUser(t *testing.T, h *Handler, username, password, phone string) {
	t.Helper()
	rec := postForm(t, "/register", url.Values{
		"username": {username},
		"password": {password},
		"phone":    {phone},
	}, h.Register)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("registering %s: got %d: %s", username, rec.Code, rec.Body.String())
	}
}

func TestRegisterHandler(t *testing.T) {
	t.Run("success sets cookie and redirects home", func(t *testing.T) {
		h, _ := newTestHandler(t)
		rec := postForm(t, "/register", url.Values{
			"username": {"ana"},
			"password": {"longenoughpw"},
			"phone":    {"+15550001"},
		}, h.Register)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/main/home" {
			t.Errorf("expected redirect to /main/home, got %s", loc)
		}
		cookie := sessionCookie(rec)
		if cookie == nil || cookie.Value == "" {
			t.Fatal("expected a session cookie")
		}
		if !cookie.HttpOnly {
			t.Error("session cookie must be HttpOnly")
		}
		if cookie.MaxAge != int((24 * time.Hour).Seconds()) {
			t.Errorf("expected 24h cookie lifetime, got %d", cookie.MaxAge)
		}
	})

	t.Run("validation errors re-render the form", func(t *testing.T) {
		h, _ := newTestHandler(t)
		tests := []struct {
			name string
			form url.Values
			want string
		}{
			{"short username", url.Values{"username": {"ab"}, "password": {"longenoughpw"}, "phone": {"+15550001"}},
				"username must be at least 3 characters"},
			{"bad characters", url.Values{"username": {"an a!"}, "password": {"longenoughpw"}, "phone": {"+15550001"}},
				"letters, numbers, and underscores"},
			{"short password", url.Values{"username": {"ana"}, "password": {"short"}, "phone": {"+15550001"}},
				"password must be at least 8 characters"},
			{"missing phone", url.Values{"username": {"ana"}, "password": {"longenoughpw"}},
				"phone number is required"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := postForm(t, "/register", tt.form, h.Register)
				if rec.Code != http.StatusOK {
					t.Fatalf("expected 200 re-render, got %d", rec.Code)
				}
				if !strings.Contains(rec.Body.String(), tt.want) {
					t.Errorf("expected message %q in body", tt.want)
				}
				if sessionCookie(rec) != nil {
					t.Error("no session must be issued on validation failure")
				}
			})
		}
	})

	t.Run("duplicate username re-renders with conflict", func(t *testing.T) {
		h, _ := newTestHandler(t)
		registerTestUser(t, h, "ana", "longenoughpw", "+15550001")

		rec := postForm(t, "/register", url.Values{
			"username": {"ana"},
			"password": {"otherlongpw"},
			"phone":    {"+15550002"},
		}, h.Register)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 re-render, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Username is already taken") {
			t.Error("expected the conflict message in the body")
		}
	})
}

func TestLoginHandler(t *testing.T) {
	t.Run("success redirects home", func(t *testing.T) {
		h, _ := newTestHandler(t)
		registerTestUser(t, h, "ana", "longenoughpw", "+15550001")

		rec := postForm(t, "/login", url.Values{
			"username": {"ana"},
			"password": {"longenoughpw"},
		}, h.Login)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/main/home" {
			t.Errorf("expected redirect to /main/home, got %s", loc)
		}
		if sessionCookie(rec) == nil {
			t.Error("expected a session cookie")
		}
	})

	t.Run("bad credentials re-render with preserved username", func(t *testing.T) {
		h, _ := newTestHandler(t)
		registerTestUser(t, h, "ana", "longenoughpw", "+15550001")

		rec := postForm(t, "/login", url.Values{
			"username": {"ana"},
			"password": {"wrong"},
		}, h.Login)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 re-render, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "Invalid username or password") {
			t.Error("expected the generic failure message")
		}
		if !strings.Contains(body, `value="ana"`) {
			t.Error("expected the username to be preserved in the form")
		}
		if sessionCookie(rec) != nil {
			t.Error("no session must be issued on failure")
		}
	})
}

func TestGoogleCallbackHandler(t *testing.T) {
	callback := func(t *testing.T, h *Handler, cookieState, queryState, code string) *httptest.ResponseRecorder {
		t.Helper()
		e := echo.New()
		q := url.Values{}
		if queryState != "" {
			q.Set("state", queryState)
		}
		if code != "" {
			q.Set("code", code)
		}
		req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?"+q.Encode(), nil)
		if cookieState != "" {
			req.AddCookie(&http.Cookie{Name: oauthStateCookieName, Value: cookieState})
		}
		rec := httptest.NewRecorder()
		if err := h.GoogleCallback(e.NewContext(req, rec)); err != nil {
			t.Fatalf("handling callback: %v", err)
		}
		return rec
	}

	t.Run("first sign-in lands on the completion flow", func(t *testing.T) {
		h, _ := newTestHandler(t)
		rec := callback(t, h, "state-1", "state-1", "auth-code")
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != CompletionPath {
			t.Errorf("expected redirect to %s, got %s", CompletionPath, loc)
		}
		if sessionCookie(rec) == nil {
			t.Error("expected a session cookie even before completion")
		}
	})

	t.Run("state mismatch bounces to login", func(t *testing.T) {
		h, _ := newTestHandler(t)
		for _, tc := range []struct{ cookie, query string }{
			{"state-1", "state-2"},
			{"", "state-1"},
			{"state-1", ""},
		} {
			rec := callback(t, h, tc.cookie, tc.query, "auth-code")
			if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
				t.Errorf("cookie=%q query=%q: expected bounce to /login, got %d %s",
					tc.cookie, tc.query, rec.Code, rec.Header().Get("Location"))
			}
			if sessionCookie(rec) != nil {
				t.Error("no session must be issued on state mismatch")
			}
		}
	})

	t.Run("missing code bounces to login", func(t *testing.T) {
		h, _ := newTestHandler(t)
		rec := callback(t, h, "state-1", "state-1", "")
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
			t.Errorf("expected bounce to /login, got %d", rec.Code)
		}
	})
}

func TestLogoutHandler(t *testing.T) {
	h, svc := newTestHandler(t)
	registerTestUser(t, h, "ana", "longenoughpw", "+15550001")

	login := postForm(t, "/login", url.Values{
		"username": {"ana"},
		"password": {"longenoughpw"},
	}, h.Login)
	token := sessionCookie(login).Value

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	if err := h.Logout(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handling logout: %v", err)
	}

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Errorf("expected redirect to /login, got %d", rec.Code)
	}
	cookie := sessionCookie(rec)
	if cookie == nil || cookie.MaxAge != -1 {
		t.Error("expected the session cookie to be cleared")
	}
	if _, ok := svc.RestoreSession(context.Background(), token); ok {
		t.Error("expected the session to be destroyed server-side")
	}
}

func TestRequireAuth(t *testing.T) {
	next := func(c echo.Context) error {
		user := GetUser(c)
		if user == nil {
			t.Error("expected the principal in context after admit")
		}
		return c.String(http.StatusOK, "admitted")
	}

	request := func(t *testing.T, svc AuthService, token, path string) *httptest.ResponseRecorder {
		t.Helper()
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
		}
		rec := httptest.NewRecorder()
		if err := RequireAuth(svc)(next)(e.NewContext(req, rec)); err != nil {
			t.Fatalf("middleware: %v", err)
		}
		return rec
	}

	t.Run("anonymous request redirects to login", func(t *testing.T) {
		_, svc := newTestHandler(t)
		rec := request(t, svc, "", "/main/home")
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
			t.Errorf("expected redirect to /login, got %d %s", rec.Code, rec.Header().Get("Location"))
		}
	})

	t.Run("stale token redirects to login and clears the cookie", func(t *testing.T) {
		_, svc := newTestHandler(t)
		rec := request(t, svc, "not-a-real-token", "/main/home")
		if rec.Header().Get("Location") != "/login" {
			t.Errorf("expected redirect to /login, got %s", rec.Header().Get("Location"))
		}
		cookie := sessionCookie(rec)
		if cookie == nil || cookie.MaxAge != -1 {
			t.Error("expected the stale cookie to be cleared")
		}
	})

	t.Run("incomplete profile is diverted to completion", func(t *testing.T) {
		_, svc := newTestHandler(t)
		token, _, err := svc.LoginWithGoogle(context.Background(), ExternalIdentity{SubjectID: "sub-1"})
		if err != nil {
			t.Fatalf("signing in: %v", err)
		}

		rec := request(t, svc, token, "/main/home")
		if rec.Header().Get("Location") != CompletionPath {
			t.Errorf("expected divert to %s, got %s", CompletionPath, rec.Header().Get("Location"))
		}
	})

	t.Run("complete profile is admitted", func(t *testing.T) {
		h, svc := newTestHandler(t)
		registerTestUser(t, h, "ana", "longenoughpw", "+15550001")
		login := postForm(t, "/login", url.Values{
			"username": {"ana"},
			"password": {"longenoughpw"},
		}, h.Login)

		rec := request(t, svc, sessionCookie(login).Value, "/main/home")
		if rec.Code != http.StatusOK || rec.Body.String() != "admitted" {
			t.Errorf("expected admit, got %d %s", rec.Code, rec.Body.String())
		}
	})
}
