// Package pages serves the gated /main/:page views: home, tournaments,
// store, profile, and about.
package pages

import "time"

// Tournament is an upcoming or running tournament listing.
type Tournament struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Game      string    `json:"game"`
	PrizePool string    `json:"prizePool"`
	StartsAt  time.Time `json:"startsAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// StoreItem is a purchasable listing in the store.
type StoreItem struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int       `json:"priceCents"`
	ImageURL    string    `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}
