package service_test

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ejjonny/bort/internal/catalog"
	"github.com/ejjonny/bort/internal/model"
	"github.com/ejjonny/bort/internal/service"

	"golang.org/x/text/encoding/unicode"
)

// fakeStore is an in-memory ListingStore mirroring the SQL predicates.
type fakeStore struct {
	listings    []model.Listing
	nextID      int64
	createCalls int
	failAll     bool
}

var errStoreDown = errors.New("store down")

func (f *fakeStore) Create(_ context.Context, l *model.Listing) (*model.Listing, error) {
	f.createCalls++
	if f.failAll {
		return nil, errStoreDown
	}
	f.nextID++
	l.ID = f.nextID
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	f.listings = append(f.listings, *l)
	return l, nil
}

func (f *fakeStore) DeleteOwned(_ context.Context, id int64, owner string) (bool, error) {
	if f.failAll {
		return false, errStoreDown
	}
	for i, l := range f.listings {
		if l.ID == id && l.Owner == owner {
			f.listings = append(f.listings[:i], f.listings[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*model.Listing, error) {
	if f.failAll {
		return nil, errStoreDown
	}
	for _, l := range f.listings {
		if l.ID == id {
			out := l
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListByOwner(_ context.Context, owner string) ([]model.Listing, error) {
	if f.failAll {
		return nil, errStoreDown
	}
	out := []model.Listing{}
	for _, l := range f.listings {
		if l.Owner == owner {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) CountByOwner(ctx context.Context, owner string) (int, error) {
	if f.failAll {
		return 0, errStoreDown
	}
	own, _ := f.ListByOwner(ctx, owner)
	return len(own), nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func (f *fakeStore) SearchNearby(_ context.Context, north, east, radius int) ([]model.Listing, error) {
	if f.failAll {
		return nil, errStoreDown
	}
	out := []model.Listing{}
	for _, l := range f.listings {
		if abs(l.LocationNorth-north) <= radius && abs(l.LocationEast-east) <= radius {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) SearchByRole(ctx context.Context, item string, north, east, radius int, role model.Role) ([]model.Listing, error) {
	nearby, err := f.SearchNearby(ctx, north, east, radius)
	if err != nil {
		return nil, err
	}
	out := []model.Listing{}
	for _, l := range nearby {
		if (role == model.RoleSelling && l.OfferItem == item) ||
			(role == model.RoleBuying && l.RequestItem == item) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) PurgeOlderThan(_ context.Context, age time.Duration) (int64, error) {
	if f.failAll {
		return 0, errStoreDown
	}
	cutoff := time.Now().Add(-age)
	kept := f.listings[:0]
	var deleted int64
	for _, l := range f.listings {
		if l.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, l)
	}
	f.listings = kept
	return deleted, nil
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	content := "name|tier\nRough Cloth|1\nHex Coin|-1\nCopper Ore|2\nIron Ore|2\n"
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.Bytes([]byte(content))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "items.txt")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := catalog.Load(path)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return c
}

func validListing(owner string) *model.Listing {
	return &model.Listing{
		OfferQuantity:   1,
		OfferItem:       "Rough Cloth (T1)",
		RequestQuantity: 100,
		RequestItem:     "Hex Coin",
		LocationNorth:   1000,
		LocationEast:    1000,
		Owner:           owner,
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.Listing)
		wantErr error
	}{
		{
			name:    "duplicate item",
			mutate:  func(l *model.Listing) { l.RequestItem = l.OfferItem },
			wantErr: service.ErrDuplicateItem,
		},
		{
			name:    "zero offer quantity",
			mutate:  func(l *model.Listing) { l.OfferQuantity = 0 },
			wantErr: service.ErrZeroQuantity,
		},
		{
			name:    "zero request quantity",
			mutate:  func(l *model.Listing) { l.RequestQuantity = 0 },
			wantErr: service.ErrZeroQuantity,
		},
		{
			name:    "oversize description",
			mutate:  func(l *model.Listing) { l.Description = strings.Repeat("a", 301) },
			wantErr: service.ErrDescriptionTooLong,
		},
		{
			name:    "unknown offer item",
			mutate:  func(l *model.Listing) { l.OfferItem = "Moon Dust" },
			wantErr: service.ErrUnknownItem,
		},
		{
			name:    "unknown request item",
			mutate:  func(l *model.Listing) { l.RequestItem = "Moon Dust" },
			wantErr: service.ErrUnknownItem,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			svc := service.NewListingService(store, testCatalog(t))

			l := validListing("trader")
			tt.mutate(l)

			_, err := svc.Create(context.Background(), l)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
			}
			if !service.IsValidationError(err) {
				t.Errorf("error should classify as a validation error")
			}
			if store.createCalls != 0 {
				t.Errorf("rejected create must not touch the store")
			}
		})
	}
}

func TestCreateStorageErrorIsNotValidation(t *testing.T) {
	store := &fakeStore{failAll: true}
	svc := service.NewListingService(store, testCatalog(t))

	_, err := svc.Create(context.Background(), validListing("trader"))
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("Create() error = %v, want the storage error", err)
	}
	if service.IsValidationError(err) {
		t.Errorf("storage failure must not classify as a validation error")
	}
}

func TestCreateBoundaryDescription(t *testing.T) {
	store := &fakeStore{}
	svc := service.NewListingService(store, testCatalog(t))

	l := validListing("trader")
	l.Description = strings.Repeat("a", 300)
	if _, err := svc.Create(context.Background(), l); err != nil {
		t.Fatalf("300-char description should be accepted: %v", err)
	}
}

func TestCreateQuota(t *testing.T) {
	store := &fakeStore{}
	svc := service.NewListingService(store, testCatalog(t))
	ctx := context.Background()

	for i := 0; i < model.MaxListingsPerOwner; i++ {
		if _, err := svc.Create(ctx, validListing("hoarder")); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	_, err := svc.Create(ctx, validListing("hoarder"))
	if !errors.Is(err, service.ErrQuotaExceeded) {
		t.Fatalf("Create() error = %v, want ErrQuotaExceeded", err)
	}

	// Other owners are unaffected.
	if _, err := svc.Create(ctx, validListing("someone-else")); err != nil {
		t.Fatalf("quota must be per owner: %v", err)
	}
}

func TestCreateAssignsMonotonicIDs(t *testing.T) {
	store := &fakeStore{}
	svc := service.NewListingService(store, testCatalog(t))
	ctx := context.Background()

	var last int64
	for i := 0; i < 5; i++ {
		created, err := svc.Create(ctx, validListing("trader"))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if created.ID <= last {
			t.Errorf("id %d not greater than previous %d", created.ID, last)
		}
		last = created.ID
	}
}

func TestCreateDefaultsOfferCount(t *testing.T) {
	store := &fakeStore{}
	svc := service.NewListingService(store, testCatalog(t))

	created, err := svc.Create(context.Background(), validListing("trader"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.OfferCount != 1 {
		t.Errorf("OfferCount = %d, want default 1", created.OfferCount)
	}

	l := validListing("trader")
	l.OfferCount = 4
	created, err = svc.Create(context.Background(), l)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.OfferCount != 4 {
		t.Errorf("OfferCount = %d, want 4", created.OfferCount)
	}
}

func TestCreateGetRoundTrip(t *testing.T) {
	store := &fakeStore{}
	svc := service.NewListingService(store, testCatalog(t))
	ctx := context.Background()

	in := validListing("trader")
	in.Description = "weekends only"
	created, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatalf("created listing not found")
	}
	if *got != *created {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, created)
	}
}

func TestRemoveCollapsesNotFoundAndNotOwned(t *testing.T) {
	store := &fakeStore{}
	svc := service.NewListingService(store, testCatalog(t))
	ctx := context.Background()

	created, err := svc.Create(ctx, validListing("alice"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if ok, err := svc.Remove(ctx, created.ID, "mallory"); err != nil || ok {
		t.Errorf("Remove by non-owner = (%v, %v), want (false, nil)", ok, err)
	}
	if ok, err := svc.Remove(ctx, 99999, "alice"); err != nil || ok {
		t.Errorf("Remove of missing id = (%v, %v), want (false, nil)", ok, err)
	}
	if ok, err := svc.Remove(ctx, created.ID, "alice"); err != nil || !ok {
		t.Errorf("Remove by owner = (%v, %v), want (true, nil)", ok, err)
	}
	if got, _ := svc.Get(ctx, created.ID); got != nil {
		t.Errorf("listing still present after removal")
	}
}

func TestSearchNearbyChebyshevWindow(t *testing.T) {
	store := &fakeStore{}
	svc := service.NewListingService(store, testCatalog(t))
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	// Seed through the store directly; the per-owner quota is not what
	// is under test here.
	for i := 0; i < 200; i++ {
		l := validListing("trader")
		l.LocationNorth = rng.Intn(2001) - 1000
		l.LocationEast = rng.Intn(2001) - 1000
		if _, err := store.Create(ctx, l); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	for trial := 0; trial < 20; trial++ {
		north := rng.Intn(2001) - 1000
		east := rng.Intn(2001) - 1000
		radius := rng.Intn(500)

		got, err := svc.SearchNearby(ctx, north, east, radius)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		seen := map[int64]bool{}
		for _, l := range got {
			seen[l.ID] = true
			if max(abs(l.LocationNorth-north), abs(l.LocationEast-east)) > radius {
				t.Errorf("listing %d outside window r=%d around (%d,%d)", l.ID, radius, north, east)
			}
		}
		for _, l := range store.listings {
			inWindow := max(abs(l.LocationNorth-north), abs(l.LocationEast-east)) <= radius
			if inWindow && !seen[l.ID] {
				t.Errorf("listing %d inside window but not returned", l.ID)
			}
		}
	}
}

func TestSearchByRole(t *testing.T) {
	store := &fakeStore{}
	svc := service.NewListingService(store, testCatalog(t))
	ctx := context.Background()

	offer := validListing("alice") // offers Rough Cloth (T1), requests Hex Coin
	if _, err := svc.Create(ctx, offer); err != nil {
		t.Fatalf("create: %v", err)
	}
	reverse := validListing("bob")
	reverse.OfferItem = "Hex Coin"
	reverse.RequestItem = "Rough Cloth (T1)"
	if _, err := svc.Create(ctx, reverse); err != nil {
		t.Fatalf("create: %v", err)
	}

	sellers, err := svc.SearchByRole(ctx, "Rough Cloth (T1)", 1000, 1000, 10, model.RoleSelling)
	if err != nil {
		t.Fatalf("search sellers: %v", err)
	}
	if len(sellers) != 1 || sellers[0].Owner != "alice" {
		t.Errorf("sellers = %+v, want alice's listing only", sellers)
	}

	buyers, err := svc.SearchByRole(ctx, "Rough Cloth (T1)", 1000, 1000, 10, model.RoleBuying)
	if err != nil {
		t.Fatalf("search buyers: %v", err)
	}
	if len(buyers) != 1 || buyers[0].Owner != "bob" {
		t.Errorf("buyers = %+v, want bob's listing only", buyers)
	}

	// Distinct-items invariant keeps the two result sets disjoint.
	for _, s := range sellers {
		for _, b := range buyers {
			if s.ID == b.ID {
				t.Errorf("listing %d matched both roles", s.ID)
			}
		}
	}

	if _, err := svc.SearchByRole(ctx, "Moon Dust", 1000, 1000, 10, model.RoleSelling); !errors.Is(err, service.ErrUnknownItem) {
		t.Errorf("unknown item error = %v, want ErrUnknownItem", err)
	}
}

func TestPurgeStrictBoundary(t *testing.T) {
	store := &fakeStore{}
	now := time.Now()
	store.listings = []model.Listing{
		{ID: 1, CreatedAt: now.Add(-6 * 24 * time.Hour)},
		{ID: 2, CreatedAt: now.Add(-4 * 24 * time.Hour)},
		{ID: 3, CreatedAt: now},
	}
	store.nextID = 3

	deleted, err := store.PurgeOlderThan(context.Background(), 5*24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if len(store.listings) != 2 {
		t.Errorf("%d listings remain, want 2", len(store.listings))
	}
}
