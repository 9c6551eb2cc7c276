package pages

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/arenahub/arena/internal/plugins/auth"
)

type mockContentRepo struct {
	listTournamentsFn func(ctx context.Context) ([]Tournament, error)
	listStoreItemsFn  func(ctx context.Context) ([]StoreItem, error)
}

func (m *mockContentRepo) ListTournaments(ctx context.Context) ([]Tournament, error) {
	return m.listTournamentsFn(ctx)
}

func (m *mockContentRepo) ListStoreItems(ctx context.Context) ([]StoreItem, error) {
	return m.listStoreItemsFn(ctx)
}

func serveMain(t *testing.T, h *Handler, page string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/main/"+page, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/main/:page")
	c.SetParamNames("page")
	c.SetParamValues(page)
	if err := h.ServeMain(c); err != nil {
		t.Fatalf("serving %s: %v", page, err)
	}
	return rec
}

func TestServeMain_UnknownPageRedirectsHome(t *testing.T) {
	h := NewHandler(&mockContentRepo{})

	for _, page := range []string{"admin", "..", "HOME", ""} {
		rec := serveMain(t, h, page)
		if rec.Code != http.StatusSeeOther {
			t.Errorf("page %q: expected 303, got %d", page, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/main/home" {
			t.Errorf("page %q: expected redirect to /main/home, got %s", page, loc)
		}
	}
}

func TestServeMain_TournamentsListed(t *testing.T) {
	h := NewHandler(&mockContentRepo{
		listTournamentsFn: func(ctx context.Context) ([]Tournament, error) {
			return []Tournament{{
				Name:      "Spring Clash",
				Game:      "StarCraft II",
				PrizePool: "$5,000",
				StartsAt:  time.Date(2026, 4, 10, 18, 0, 0, 0, time.UTC),
			}}, nil
		},
	})

	rec := serveMain(t, h, "tournaments")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Spring Clash", "StarCraft II", "$5,000"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected body to contain %q", want)
		}
	}
}

func TestServeMain_StorePricesFormatted(t *testing.T) {
	h := NewHandler(&mockContentRepo{
		listStoreItemsFn: func(ctx context.Context) ([]StoreItem, error) {
			return []StoreItem{{Name: "Team Jersey", Description: "Home colors", PriceCents: 4599}}, nil
		},
	})

	rec := serveMain(t, h, "store")
	if !strings.Contains(rec.Body.String(), "$45.99") {
		t.Error("expected formatted price $45.99 in body")
	}
}

func TestServeMain_ProfileFromSessionUser(t *testing.T) {
	h := NewHandler(&mockContentRepo{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/main/profile", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/main/:page")
	c.SetParamNames("page")
	c.SetParamValues("profile")
	c.Set("auth_user", &auth.User{
		Email:     "ana@example.com",
		AvatarURL: auth.DefaultAvatarURL,
	})

	if err := h.ServeMain(c); err != nil {
		t.Fatalf("serving profile: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "ana@example.com") {
		t.Error("expected profile page to show the user's email")
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		cents int
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{100, "$1.00"},
		{4599, "$45.99"},
	}
	for _, tt := range tests {
		if got := formatPrice(tt.cents); got != tt.want {
			t.Errorf("formatPrice(%d) = %s, want %s", tt.cents, got, tt.want)
		}
	}
}
