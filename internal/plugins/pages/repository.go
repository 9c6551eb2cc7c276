package pages

import (
	"context"
	"database/sql"
	"fmt"
)

// ContentRepository reads the display content behind the gated pages.
type ContentRepository interface {
	ListTournaments(ctx context.Context) ([]Tournament, error)
	ListStoreItems(ctx context.Context) ([]StoreItem, error)
}

type contentRepository struct {
	db *sql.DB
}

// NewContentRepository creates a MariaDB-backed content repository.
func NewContentRepository(db *sql.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) ListTournaments(ctx context.Context) ([]Tournament, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, game, prize_pool, starts_at, created_at
		FROM tournaments
		ORDER BY starts_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []Tournament
	for rows.Next() {
		var t Tournament
		if err := rows.Scan(&t.ID, &t.Name, &t.Game, &t.PrizePool, &t.StartsAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning tournament: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tournaments: %w", err)
	}

	return tournaments, nil
}

func (r *contentRepository) ListStoreItems(ctx context.Context) ([]StoreItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, price_cents, image_url, created_at
		FROM store_items
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing store items: %w", err)
	}
	defer rows.Close()

	var items []StoreItem
	for rows.Next() {
		var item StoreItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.PriceCents, &item.ImageURL, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning store item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating store items: %w", err)
	}

	return items, nil
}
