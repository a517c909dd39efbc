package model

import "time"

// Review is one party's rating of the other for a finished loan. At most
// one review per (transaction, reviewer); the second review completes the
// transaction.
type Review struct {
	ID            uint64    // reviews.id
	TransactionID uint64    // reviews.transaction_id
	ReviewerID    uint64    // reviews.reviewer_id
	RevieweeID    uint64    // reviews.reviewee_id
	ItemID        uint64    // reviews.item_id
	Rating        int       // reviews.rating (1-5)
	Comment       string    // reviews.comment
	CreatedAt     time.Time // reviews.created_at
}

// Complaint is filed by one party of a transaction against the other.
// Complaints are validated immediately on creation: the defendant's star
// rating is halved and their complaint count incremented at filing time.
// The resolution fields exist for a future moderation step and are not
// acted on today.
type Complaint struct {
	ID            uint64     // complaints.id
	TransactionID uint64     // complaints.transaction_id
	ComplainantID uint64     // complaints.complainant_id
	DefendantID   uint64     // complaints.defendant_id
	Title         string     // complaints.title
	Description   string     // complaints.description
	Severity      string     // complaints.severity
	ProofImages   []string   // complaints.proof_images
	IsValid       bool       // complaints.is_valid (always true at insert)
	IsResolved    bool       // complaints.is_resolved
	CreatedAt     time.Time  // complaints.created_at
	ResolvedAt    *time.Time // complaints.resolved_at
}

// DamageReport is the owner-only audit record of a damage claim. The same
// facts are denormalised onto the transaction's damage_* columns; the
// report row is kept as the trail even though it duplicates them.
type DamageReport struct {
	ID            uint64    // damage_reports.id
	TransactionID uint64    // damage_reports.transaction_id
	ReporterID    uint64    // damage_reports.reporter_id (always the owner)
	Severity      string    // damage_reports.severity
	Description   string    // damage_reports.description
	ProofImages   []string  // damage_reports.proof_images
	PenaltyTokens int       // damage_reports.penalty_tokens
	CreatedAt     time.Time // damage_reports.created_at
}

// Notification is one user-facing message produced by a lifecycle
// transition. Delivery to the broker is fire-and-forget; the row is the
// durable copy.
type Notification struct {
	ID        uint64    // notifications.id
	UserID    uint64    // notifications.user_id
	Title     string    // notifications.title
	Message   string    // notifications.message
	Category  string    // notifications.category
	RelatedID uint64    // notifications.related_id (transaction or item, 0 when none)
	IsRead    bool      // notifications.is_read
	CreatedAt time.Time // notifications.created_at
}

// Notification categories, one per lifecycle transition that notifies.
const (
	NotifyRequest          = "request"
	NotifyApproval         = "approval"
	NotifyRejection        = "rejection"
	NotifyDelivery         = "delivery"
	NotifyDeliveryComplete = "delivery_complete"
	NotifyReturn           = "return"
	NotifyReturnComplete   = "return_complete"
	NotifyPenalty          = "penalty"
	NotifyDamage           = "damage"
	NotifyComplaint        = "complaint"
	NotifyBan              = "ban"
)
