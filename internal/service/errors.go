// Package service implements the lending core: the token ledger, the
// penalty engine, the transaction lifecycle state machine and the
// reputation aggregator. Services operate on narrow store interfaces so
// the persistence layer can be swapped for test doubles; the MySQL
// repositories in internal/repository satisfy them.
package service

import "errors"

// Domain errors returned by the core services. Handlers map each sentinel
// to a stable HTTP status; messages never leak internal state. All guard
// checks run before any mutation, so a returned error means nothing was
// written.
var (
	ErrItemUnavailable       = errors.New("item is not available")
	ErrSelfBorrow            = errors.New("cannot borrow your own item")
	ErrInvalidDateRange      = errors.New("invalid date range")
	ErrInsufficientBalance   = errors.New("insufficient token balance")
	ErrInvalidState          = errors.New("operation not allowed in current state")
	ErrNotParty              = errors.New("caller is not a party to this transaction")
	ErrNotOwner              = errors.New("only the item owner may perform this operation")
	ErrAlreadyReviewed       = errors.New("transaction already reviewed by this user")
	ErrDamageAlreadyReported = errors.New("damage already reported for this transaction")
	ErrInvalidSeverity       = errors.New("unknown damage severity")
	ErrInvalidRating         = errors.New("rating must be between 1 and 5")
	ErrPenaltyNotFound       = errors.New("pending penalty not found")
)
