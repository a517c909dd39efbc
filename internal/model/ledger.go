package model

import "time"

// Ledger entry types. EARNED and SPENT are the two sides of the delivery
// exchange, PENALTY records damage/late/pending-settlement charges, REFUND
// is reserved for reversals.
const (
	LedgerEarned  = "EARNED"
	LedgerSpent   = "SPENT"
	LedgerPenalty = "PENALTY"
	LedgerRefund  = "REFUND"
)

// LedgerEntry is one immutable balance-affecting event. Amount is signed:
// positive for credits, negative for debits. Entries are append-only and
// never mutated or deleted; they are the audit trail for every token
// movement.
type LedgerEntry struct {
	ID            uint64    // ledger_entries.id
	UserID        uint64    // ledger_entries.user_id
	Amount        int       // ledger_entries.amount (signed)
	Type          string    // ledger_entries.entry_type
	Description   string    // ledger_entries.description
	TransactionID uint64    // ledger_entries.transaction_id (0 when unrelated)
	CreatedAt     time.Time // ledger_entries.created_at
}

// PendingPenalty is a penalty that could not be deducted when assessed
// because the debtor's balance was insufficient. Each entry is settled
// atomically (never partially), either by the post-credit sweep or by an
// explicit payment. No ledger entry exists for it until it is paid.
type PendingPenalty struct {
	ID            uint64    // pending_penalties.id
	UserID        uint64    // pending_penalties.user_id
	TransactionID uint64    // pending_penalties.transaction_id
	Amount        int       // pending_penalties.amount
	Reason        string    // pending_penalties.reason
	IsPaid        bool      // pending_penalties.is_paid
	CreatedAt     time.Time // pending_penalties.created_at (FIFO settlement order)
}
