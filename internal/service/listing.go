package service

import (
	"context"
	"errors"
	"time"

	"github.com/ejjonny/bort/internal/catalog"
	"github.com/ejjonny/bort/internal/model"
)

var (
	ErrDuplicateItem      = errors.New("offered item cannot be the same as the requested item")
	ErrZeroQuantity       = errors.New("request quantity and offer quantity must be non-zero")
	ErrDescriptionTooLong = errors.New("description must be 300 characters or less")
	ErrUnknownItem        = errors.New("item not found")
	ErrQuotaExceeded      = errors.New("maximum number of listings reached")
)

// IsValidationError reports whether err is a rejected-input outcome
// rather than a storage fault. These are shown to the user verbatim and
// never logged as system errors.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrDuplicateItem) ||
		errors.Is(err, ErrZeroQuantity) ||
		errors.Is(err, ErrDescriptionTooLong) ||
		errors.Is(err, ErrUnknownItem) ||
		errors.Is(err, ErrQuotaExceeded)
}

// ListingStore is the persistence surface the service needs.
// *repository.ListingRepository satisfies it.
type ListingStore interface {
	Create(ctx context.Context, l *model.Listing) (*model.Listing, error)
	DeleteOwned(ctx context.Context, id int64, owner string) (bool, error)
	GetByID(ctx context.Context, id int64) (*model.Listing, error)
	ListByOwner(ctx context.Context, owner string) ([]model.Listing, error)
	CountByOwner(ctx context.Context, owner string) (int, error)
	SearchNearby(ctx context.Context, north, east, radius int) ([]model.Listing, error)
	SearchByRole(ctx context.Context, item string, north, east, radius int, role model.Role) ([]model.Listing, error)
	PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

type ListingService struct {
	store ListingStore
	items *catalog.Catalog
}

func NewListingService(store ListingStore, items *catalog.Catalog) *ListingService {
	return &ListingService{store: store, items: items}
}

// Create validates and persists a new listing. Validation failures are
// the sentinel errors above and leave the store untouched. An
// unspecified offer count defaults to 1.
//
// The quota check and the insert are two statements; two concurrent
// creates from one owner can both pass the check, overrunning the quota
// by at most the number of in-flight requests minus one. Accepted, not
// corrected.
func (s *ListingService) Create(ctx context.Context, l *model.Listing) (*model.Listing, error) {
	if len(l.Description) > model.MaxDescriptionLen {
		return nil, ErrDescriptionTooLong
	}
	if l.OfferItem == l.RequestItem {
		return nil, ErrDuplicateItem
	}
	if l.OfferQuantity == 0 || l.RequestQuantity == 0 {
		return nil, ErrZeroQuantity
	}
	if !s.items.Contains(l.OfferItem) || !s.items.Contains(l.RequestItem) {
		return nil, ErrUnknownItem
	}

	count, err := s.store.CountByOwner(ctx, l.Owner)
	if err != nil {
		return nil, err
	}
	if count >= model.MaxListingsPerOwner {
		return nil, ErrQuotaExceeded
	}

	if l.OfferCount <= 0 {
		l.OfferCount = 1
	}
	return s.store.Create(ctx, l)
}

// Remove deletes the listing if it belongs to owner. False means
// not-found or not-owned, indistinguishably.
func (s *ListingService) Remove(ctx context.Context, id int64, owner string) (bool, error) {
	return s.store.DeleteOwned(ctx, id, owner)
}

// Get returns the listing or nil when absent.
func (s *ListingService) Get(ctx context.Context, id int64) (*model.Listing, error) {
	return s.store.GetByID(ctx, id)
}

// Own returns all of owner's live listings.
func (s *ListingService) Own(ctx context.Context, owner string) ([]model.Listing, error) {
	return s.store.ListByOwner(ctx, owner)
}

// SearchNearby returns listings inside the square window of the given
// radius around (north, east).
func (s *ListingService) SearchNearby(ctx context.Context, north, east, radius int) ([]model.Listing, error) {
	return s.store.SearchNearby(ctx, north, east, radius)
}

// SearchByRole narrows the window to listings offering (Selling) or
// requesting (Buying) the item. The item must exist in the catalog.
func (s *ListingService) SearchByRole(ctx context.Context, item string, north, east, radius int, role model.Role) ([]model.Listing, error) {
	if !s.items.Contains(item) {
		return nil, ErrUnknownItem
	}
	return s.store.SearchByRole(ctx, item, north, east, radius, role)
}
