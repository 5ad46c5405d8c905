package model

import (
	"fmt"
	"strings"
	"time"
)

// MaxDescriptionLen is the longest description a listing may carry.
const MaxDescriptionLen = 300

// MaxListingsPerOwner is how many live listings a single owner may hold.
// Checked at creation time; pre-existing excess is never trimmed.
const MaxListingsPerOwner = 15

// Listing is a persisted offer to trade a quantity of one item for a
// quantity of another, anchored at a map coordinate. Listings are
// immutable after creation and expire via the background sweeper.
type Listing struct {
	ID              int64     `json:"id"`
	OfferQuantity   int       `json:"offer_quantity"`
	OfferItem       string    `json:"offer_item"`
	RequestQuantity int       `json:"request_quantity"`
	RequestItem     string    `json:"request_item"`
	LocationNorth   int       `json:"location_north"`
	LocationEast    int       `json:"location_east"`
	Owner           string    `json:"owner"`
	OfferCount      int       `json:"offer_count"`
	Description     string    `json:"description"`
	CreatedAt       time.Time `json:"created_at"`
}

// Role selects which side of a listing a proximity search matches:
// sellers offer the item, buyers request it.
type Role int

const (
	RoleSelling Role = iota
	RoleBuying
)

func (r Role) String() string {
	switch r {
	case RoleSelling:
		return "selling"
	case RoleBuying:
		return "buying"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// ParseRole maps a user-supplied role argument to a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "selling":
		return RoleSelling, nil
	case "buying":
		return RoleBuying, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}
