package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ejjonny/bort/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const listingColumns = `id, offer_quantity, offer_item, request_quantity, request_item,
	location_north, location_east, owner, offer_count, description, created_at`

type ListingRepository struct {
	pool *pgxpool.Pool
}

func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{pool: pool}
}

// Create persists a new listing. The id and creation timestamp are
// assigned by the database and written back into the listing.
func (r *ListingRepository) Create(ctx context.Context, l *model.Listing) (*model.Listing, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO listings (
			offer_quantity, offer_item, request_quantity, request_item,
			location_north, location_east, owner, offer_count, description
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`,
		l.OfferQuantity, l.OfferItem, l.RequestQuantity, l.RequestItem,
		l.LocationNorth, l.LocationEast, l.Owner, l.OfferCount, l.Description,
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// DeleteOwned removes the listing only when it exists and belongs to
// owner. Not-found and not-owned both report false; callers cannot tell
// them apart, which keeps other users' listing ids unprobeable.
func (r *ListingRepository) DeleteOwned(ctx context.Context, id int64, owner string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM listings WHERE id = $1 AND owner = $2
	`, id, owner)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// GetByID returns the listing or nil when no such row exists.
func (r *ListingRepository) GetByID(ctx context.Context, id int64) (*model.Listing, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+listingColumns+`
		FROM listings WHERE id = $1
	`, id)
	l, err := scanListing(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *ListingRepository) ListByOwner(ctx context.Context, owner string) ([]model.Listing, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+listingColumns+`
		FROM listings WHERE owner = $1
	`, owner)
	if err != nil {
		return nil, err
	}
	return collectListings(rows)
}

func (r *ListingRepository) CountByOwner(ctx context.Context, owner string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM listings WHERE owner = $1
	`, owner).Scan(&count)
	return count, err
}

// SearchNearby returns every listing inside the square window of the
// given radius around the center. The window is Chebyshev, not
// euclidean, and stays that way.
func (r *ListingRepository) SearchNearby(ctx context.Context, north, east, radius int) ([]model.Listing, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+listingColumns+`
		FROM listings
		WHERE ABS(location_north - $1) <= $3 AND ABS(location_east - $2) <= $3
	`, north, east, radius)
	if err != nil {
		return nil, err
	}
	return collectListings(rows)
}

// SearchByRole narrows SearchNearby to listings where the item appears
// on the side the role selects.
func (r *ListingRepository) SearchByRole(ctx context.Context, item string, north, east, radius int, role model.Role) ([]model.Listing, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+listingColumns+`
		FROM listings
		WHERE `+roleColumn(role)+` = $4
		AND ABS(location_north - $1) <= $3 AND ABS(location_east - $2) <= $3
	`, north, east, radius, item)
	if err != nil {
		return nil, err
	}
	return collectListings(rows)
}

// PurgeOlderThan deletes listings strictly older than age and reports
// how many rows went. Rows exactly at the boundary are retained.
func (r *ListingRepository) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM listings WHERE created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// roleColumn maps a search role to the column the item filter applies
// to. Sellers offer the item, buyers request it.
func roleColumn(role model.Role) string {
	if role == model.RoleBuying {
		return "request_item"
	}
	return "offer_item"
}

func scanListing(row pgx.Row) (*model.Listing, error) {
	l := &model.Listing{}
	err := row.Scan(
		&l.ID, &l.OfferQuantity, &l.OfferItem, &l.RequestQuantity, &l.RequestItem,
		&l.LocationNorth, &l.LocationEast, &l.Owner, &l.OfferCount, &l.Description, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func collectListings(rows pgx.Rows) ([]model.Listing, error) {
	defer rows.Close()
	var listings []model.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if listings == nil {
		listings = []model.Listing{}
	}
	return listings, nil
}
