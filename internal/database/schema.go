package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CreateSchema sets up the listings table if it does not exist yet.
// Safe to run on every startup.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS listings (
			id BIGSERIAL PRIMARY KEY,
			offer_quantity INT NOT NULL,
			offer_item TEXT NOT NULL,
			request_quantity INT NOT NULL,
			request_item TEXT NOT NULL,
			location_north INT NOT NULL,
			location_east INT NOT NULL,
			owner TEXT NOT NULL,
			offer_count INT NOT NULL DEFAULT 1,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_owner ON listings (owner)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_location ON listings (location_north, location_east)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_created_at ON listings (created_at)`,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
