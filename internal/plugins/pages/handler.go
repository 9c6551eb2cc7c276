package pages

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arenahub/arena/internal/middleware"
	"github.com/arenahub/arena/internal/plugins/auth"
	"github.com/arenahub/arena/internal/templates/pages"
)

// validPages enumerates the /main/:page sections. Anything else bounces
// to home rather than 404ing, so stale links degrade gracefully.
var validPages = map[string]bool{
	"home":        true,
	"tournaments": true,
	"store":       true,
	"profile":     true,
	"about":       true,
}

// Handler serves the gated portal pages.
type Handler struct {
	repo ContentRepository
}

// NewHandler creates a new pages handler.
func NewHandler(repo ContentRepository) *Handler {
	return &Handler{repo: repo}
}

// Home redirects the bare portal roots to the home page.
func (h *Handler) Home(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/main/home")
}

// ServeMain renders one of the portal sections.
func (h *Handler) ServeMain(c echo.Context) error {
	page := c.Param("page")
	if !validPages[page] {
		return c.Redirect(http.StatusSeeOther, "/main/home")
	}

	data := pages.MainData{CurrentPage: page}

	switch page {
	case "tournaments":
		tournaments, err := h.repo.ListTournaments(c.Request().Context())
		if err != nil {
			return err
		}
		data.Tournaments = toTournamentViews(tournaments)
	case "store":
		items, err := h.repo.ListStoreItems(c.Request().Context())
		if err != nil {
			return err
		}
		data.Items = toStoreItemViews(items)
	case "profile":
		data.Profile = toProfileView(auth.GetUser(c))
	}

	return middleware.Render(c, http.StatusOK, pages.MainPage(data))
}

func toTournamentViews(tournaments []Tournament) []pages.Tournament {
	views := make([]pages.Tournament, 0, len(tournaments))
	for _, t := range tournaments {
		views = append(views, pages.Tournament{
			Name:      t.Name,
			Game:      t.Game,
			PrizePool: t.PrizePool,
			StartsAt:  t.StartsAt.Format("Jan 2, 2006 15:04 MST"),
		})
	}
	return views
}

func toStoreItemViews(items []StoreItem) []pages.StoreItem {
	views := make([]pages.StoreItem, 0, len(items))
	for _, item := range items {
		views = append(views, pages.StoreItem{
			Name:        item.Name,
			Description: item.Description,
			Price:       formatPrice(item.PriceCents),
			ImageURL:    item.ImageURL,
		})
	}
	return views
}

func toProfileView(user *auth.User) *pages.Profile {
	if user == nil {
		return nil
	}
	return &pages.Profile{
		Username:  user.DisplayName(),
		Phone:     user.PhoneOrEmpty(),
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
	}
}

func formatPrice(cents int) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
