package model

import "time"

// Transaction statuses. PENDING -> APPROVED -> DELIVERED -> RETURNED ->
// COMPLETED is the happy path; CANCELLED is reachable only from PENDING
// (rejection or withdrawal). DELIVERED and RETURNED are transient,
// COMPLETED and CANCELLED are terminal.
const (
	TxPending   = "PENDING"
	TxApproved  = "APPROVED"
	TxDelivered = "DELIVERED"
	TxReturned  = "RETURNED"
	TxCompleted = "COMPLETED"
	TxCancelled = "CANCELLED"
)

// Party identifies which side of a transaction a user is on.
type Party uint8

const (
	PartyOwner Party = iota + 1
	PartyBorrower
)

// ConfirmState is the tagged dual-confirmation state of one physical phase
// (delivery or return). The phase completes only on the edge into
// ConfirmBoth, and that edge carries the phase's side effects exactly once.
type ConfirmState uint8

const (
	ConfirmNone ConfirmState = iota
	ConfirmOwnerOnly
	ConfirmBorrowerOnly
	ConfirmBoth
)

// With returns the state after the given party confirms. Confirming twice
// from the same party is a no-op.
func (s ConfirmState) With(p Party) ConfirmState {
	switch s {
	case ConfirmNone:
		if p == PartyOwner {
			return ConfirmOwnerOnly
		}
		return ConfirmBorrowerOnly
	case ConfirmOwnerOnly:
		if p == PartyBorrower {
			return ConfirmBoth
		}
	case ConfirmBorrowerOnly:
		if p == PartyOwner {
			return ConfirmBoth
		}
	}
	return s
}

// ConfirmStateOf rebuilds the tagged state from the two persisted flags.
func ConfirmStateOf(owner, borrower bool) ConfirmState {
	switch {
	case owner && borrower:
		return ConfirmBoth
	case owner:
		return ConfirmOwnerOnly
	case borrower:
		return ConfirmBorrowerOnly
	}
	return ConfirmNone
}

// Flags decomposes the state back into the persisted boolean columns.
func (s ConfirmState) Flags() (owner, borrower bool) {
	return s == ConfirmOwnerOnly || s == ConfirmBoth,
		s == ConfirmBorrowerOnly || s == ConfirmBoth
}

// Damage severities and their share of the item's declared value.
const (
	SeverityLight  = "LIGHT"  // quarter of item value
	SeverityMedium = "MEDIUM" // third of item value
	SeverityHigh   = "HIGH"   // half of item value
	SeveritySevere = "SEVERE" // full item value
)

// ValidSeverity reports whether s names a known damage severity.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityLight, SeverityMedium, SeverityHigh, SeveritySevere:
		return true
	}
	return false
}

// Transaction is a single borrow of one item by one borrower from its
// owner. TotalTokens is fixed at creation from the item's daily rate and
// the inclusive day count and is immutable thereafter, even if the item's
// rate changes. The four confirmation flags implement the two
// dual-confirmation phases; see ConfirmState.
type Transaction struct {
	ID            uint64    // lending_transactions.id
	ItemID        uint64    // lending_transactions.item_id
	OwnerID       uint64    // lending_transactions.owner_id
	BorrowerID    uint64    // lending_transactions.borrower_id
	Status        string    // lending_transactions.status
	DaysRequested int       // lending_transactions.days_requested (inclusive day count)
	StartDate     time.Time // lending_transactions.start_date
	EndDate       time.Time // lending_transactions.end_date
	TotalTokens   int       // lending_transactions.total_tokens (immutable after create)

	OwnerDeliveryConfirmed    bool // lending_transactions.owner_delivery_confirmed
	BorrowerDeliveryConfirmed bool // lending_transactions.borrower_delivery_confirmed
	OwnerReturnConfirmed      bool // lending_transactions.owner_return_confirmed
	BorrowerReturnConfirmed   bool // lending_transactions.borrower_return_confirmed

	DeliveryProofImages []string // before-lending photos (media refs)
	ReturnProofImages   []string // after-return photos (media refs)

	DamageReported bool     // lending_transactions.damage_reported
	DamageSeverity string   // lending_transactions.damage_severity ("" when none)
	DamageImages   []string // lending_transactions.damage_images
	DamagePenalty  int      // lending_transactions.damage_penalty

	PenaltyTokens int  // late-return penalty charged at return time
	IsReviewed    bool // both parties have reviewed

	CreatedAt   time.Time  // lending_transactions.created_at
	ApprovedAt  *time.Time // set on PENDING -> APPROVED
	DeliveredAt *time.Time // set on the both-confirmed delivery edge
	ReturnedAt  *time.Time // set on the both-confirmed return edge
}

// PartyOf returns which side of the transaction userID is on, or 0 when
// the user is not a party to it.
func (t *Transaction) PartyOf(userID uint64) Party {
	switch userID {
	case t.OwnerID:
		return PartyOwner
	case t.BorrowerID:
		return PartyBorrower
	}
	return 0
}

// Counterpart returns the other party's user ID.
func (t *Transaction) Counterpart(userID uint64) uint64 {
	if userID == t.OwnerID {
		return t.BorrowerID
	}
	return t.OwnerID
}

// DeliveryState returns the tagged delivery confirmation state.
func (t *Transaction) DeliveryState() ConfirmState {
	return ConfirmStateOf(t.OwnerDeliveryConfirmed, t.BorrowerDeliveryConfirmed)
}

// ReturnState returns the tagged return confirmation state.
func (t *Transaction) ReturnState() ConfirmState {
	return ConfirmStateOf(t.OwnerReturnConfirmed, t.BorrowerReturnConfirmed)
}

// InclusiveDays counts the calendar days between start and end with both
// endpoints included, so a same-day loan costs one day's rate. Only the
// date parts matter; times within the day are ignored.
func InclusiveDays(start, end time.Time) int {
	s := start.UTC().Truncate(24 * time.Hour)
	e := end.UTC().Truncate(24 * time.Hour)
	return int(e.Sub(s).Hours()/24) + 1
}
