package service

import (
	"context"

	"github.com/adimehta/sharesphere/internal/model"
)

// UserStore is the per-user economic and reputation state the core
// mutates. Balance-changing methods are single conditional UPDATEs in the
// MySQL implementation, which is what makes the ledger's guarantees hold
// under concurrent requests.
type UserStore interface {
	GetUser(ctx context.Context, id uint64) (*model.User, error)

	// CreditTokens unconditionally adds amount (> 0) to the balance.
	CreditTokens(ctx context.Context, id uint64, amount int) error

	// DebitTokensIf subtracts amount from the balance only when the
	// current balance covers it, reporting whether the debit happened.
	DebitTokensIf(ctx context.Context, id uint64, amount int) (bool, error)

	// AddPendingPenalties adjusts the unpaid-penalty sum by delta
	// (positive on deferral, negative on settlement).
	AddPendingPenalties(ctx context.Context, id uint64, delta int) error

	// SetRating stores a recomputed star rating and review count.
	SetRating(ctx context.Context, id uint64, rating float64, totalReviews int) error

	// ApplyComplaint folds one complaint into the user's reputation in a
	// single atomic update (halve the rating, bump the count, ban at the
	// threshold), reporting whether the account is now banned.
	ApplyComplaint(ctx context.Context, id uint64) (banned bool, err error)

	// SetSuccessRate stores a recomputed success rate and its counters.
	SetSuccessRate(ctx context.Context, id uint64, rate float64, completed, failed int) error
}

// ItemStore is the item state the lifecycle consults and transitions.
type ItemStore interface {
	GetItem(ctx context.Context, id uint64) (*model.Item, error)

	// SetItemStatusIf transitions status from -> to atomically, reporting
	// whether the row was in the expected state. This is the guard that
	// keeps an item from carrying two concurrent active transactions.
	SetItemStatusIf(ctx context.Context, id uint64, from, to string) (bool, error)

	// SetItemStatus forces a status without a precondition (return path).
	SetItemStatus(ctx context.Context, id uint64, status string) error

	// IncrementBorrows bumps the item's lifetime borrow counter.
	IncrementBorrows(ctx context.Context, id uint64) error
}

// TransactionStore persists lending transactions. UpdateTransaction writes
// the full mutable portion of the row; SetStatusIf is the compare-and-set
// used on every state edge.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t *model.Transaction) error
	GetTransaction(ctx context.Context, id uint64) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, t *model.Transaction) error

	// SetStatusIf moves the transaction from one status to another
	// atomically, reporting whether it was in the expected status.
	SetStatusIf(ctx context.Context, id uint64, from, to string) (bool, error)

	// CompletionCounts returns how many of the user's transactions (as
	// either party) ended COMPLETED and how many CANCELLED.
	CompletionCounts(ctx context.Context, userID uint64) (completed, cancelled int, err error)
}

// LedgerStore appends immutable ledger entries.
type LedgerStore interface {
	AppendEntry(ctx context.Context, e *model.LedgerEntry) error
}

// PenaltyStore persists pending penalties. UnpaidByUser must return rows
// oldest-first (created_at, then id); settlement order depends on it.
type PenaltyStore interface {
	CreatePending(ctx context.Context, p *model.PendingPenalty) error
	UnpaidByUser(ctx context.Context, userID uint64) ([]model.PendingPenalty, error)
	GetUnpaid(ctx context.Context, id, userID uint64) (*model.PendingPenalty, error)
	MarkPaid(ctx context.Context, id uint64) error
}

// ReviewStore persists reviews and answers the aggregation queries the
// reputation service needs.
type ReviewStore interface {
	CreateReview(ctx context.Context, r *model.Review) error
	ReviewExists(ctx context.Context, transactionID, reviewerID uint64) (bool, error)
	CountByTransaction(ctx context.Context, transactionID uint64) (int, error)

	// RatingStats returns the sum and count of all ratings the user has
	// ever received.
	RatingStats(ctx context.Context, revieweeID uint64) (sum, count int, err error)
}

// ComplaintStore persists complaints.
type ComplaintStore interface {
	CreateComplaint(ctx context.Context, c *model.Complaint) error
}

// DamageStore persists damage report audit records.
type DamageStore interface {
	CreateDamageReport(ctx context.Context, r *model.DamageReport) error
}

// EconomyTx is a transaction-scoped view of the stores an economic edge
// writes. The debit, the credit, their ledger entries, the item release
// and the transaction row update commit or roll back as one unit.
type EconomyTx interface {
	CreditTokens(ctx context.Context, id uint64, amount int) error
	DebitTokensIf(ctx context.Context, id uint64, amount int) (bool, error)
	AddPendingPenalties(ctx context.Context, id uint64, delta int) error
	AppendEntry(ctx context.Context, e *model.LedgerEntry) error
	CreatePending(ctx context.Context, p *model.PendingPenalty) error
	SetItemStatus(ctx context.Context, id uint64, status string) error
	UpdateTransaction(ctx context.Context, t *model.Transaction) error

	Commit() error
	Rollback() error
}

// BeginTxFunc opens an EconomyTx. The caller must Commit or Rollback;
// the view is single-use.
type BeginTxFunc func(ctx context.Context) (EconomyTx, error)

// Notifier delivers lifecycle notifications. Implementations must be
// fire-and-forget: failures are logged, never returned, and never roll
// back the economic state change that preceded them.
type Notifier interface {
	Notify(ctx context.Context, userID uint64, category, title, message string, relatedID uint64)
}
