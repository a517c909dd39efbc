package model

import "time"

// Item statuses. An item moves to BORROWED only when a transaction on it is
// approved, and back to AVAILABLE only when that transaction is returned.
const (
	ItemAvailable   = "AVAILABLE"
	ItemBorrowed    = "BORROWED"
	ItemUnavailable = "UNAVAILABLE"
)

// MaxItemValue caps the declared value of a listed item (in currency units).
const MaxItemValue = 100000

// Item categories accepted on listing.
const (
	CategoryTools       = "Tools"
	CategoryElectronics = "Electronics"
	CategoryOutdoor     = "Outdoor"
	CategoryHomeKitchen = "Home & Kitchen"
	CategoryBooks       = "Books & Stationery"
	CategorySports      = "Sports & Fitness"
	CategoryEventGear   = "Event Gear"
	CategoryMisc        = "Miscellaneous"
)

// Item is a physical asset listed for lending by exactly one owner. The
// daily rate in tokens is fixed by the owner; a transaction's total cost is
// computed from the rate at creation time and never recomputed afterwards.
type Item struct {
	ID             uint64    // items.id
	OwnerID        uint64    // items.owner_id
	Title          string    // items.title
	Description    string    // items.description
	Category       string    // items.category
	Value          float64   // items.value (> 0, <= MaxItemValue)
	TokensPerDay   int       // items.tokens_per_day
	Status         string    // items.status (AVAILABLE, BORROWED, UNAVAILABLE)
	AvailableFrom  time.Time // items.available_from
	AvailableUntil time.Time // items.available_until
	Location       string    // items.location
	Images         []string  // items.images (JSON array of media refs)
	TotalBorrows   int       // items.total_borrows
	CreatedAt      time.Time // items.created_at
}

// ValidCategory reports whether s is one of the listing categories.
func ValidCategory(s string) bool {
	switch s {
	case CategoryTools, CategoryElectronics, CategoryOutdoor, CategoryHomeKitchen,
		CategoryBooks, CategorySports, CategoryEventGear, CategoryMisc:
		return true
	}
	return false
}

// SuggestTokensPerDay proposes a daily token rate for an item given its
// declared value and category, as a percentage of value per day clamped to
// [1, 500]. Coarse heuristics only; owners may override freely.
func SuggestTokensPerDay(value float64, category string) int {
	pct := 0.03
	switch category {
	case CategoryElectronics:
		pct = 0.05
	case CategoryTools:
		pct = 0.03
	case CategoryOutdoor:
		pct = 0.04
	case CategoryHomeKitchen:
		pct = 0.02
	case CategoryBooks:
		pct = 0.01
	case CategorySports:
		pct = 0.03
	case CategoryEventGear:
		pct = 0.06
	case CategoryMisc:
		pct = 0.025
	}
	suggested := int(value * pct)
	if suggested < 1 {
		return 1
	}
	if suggested > 500 {
		return 500
	}
	return suggested
}
