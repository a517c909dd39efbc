package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/adimehta/sharesphere/internal/model"
)

// Lifecycle owns the borrow-request state machine: creation, approval or
// rejection, the two dual-confirmation phases, damage reporting, and the
// review-driven completion. All economic side effects go through the
// ledger and penalty engine; every transition emits fire-and-forget
// notifications after the state change has been persisted.
//
// Mutations on a given transaction are serialized by a per-ID lock, which
// together with the store's conditional updates guarantees the token
// transfer and the late-penalty assessment run at most once per phase.
// The writes on a both-confirmed edge go through one store transaction.
// There is no background expiry of stale PENDING requests; a request stays
// open until the owner acts on it.
type Lifecycle struct {
	users      UserStore
	items      ItemStore
	txs        TransactionStore
	reviews    ReviewStore
	complaints ComplaintStore
	damage     DamageStore

	ledger     *Ledger
	penalties  *PenaltyEngine
	reputation *Reputation
	notifier   Notifier
	begin      BeginTxFunc

	locks *txLocks
	now   func() time.Time
}

func NewLifecycle(
	users UserStore, items ItemStore, txs TransactionStore,
	reviews ReviewStore, complaints ComplaintStore, damage DamageStore,
	ledger *Ledger, penalties *PenaltyEngine, reputation *Reputation,
	notifier Notifier, begin BeginTxFunc,
) *Lifecycle {
	return &Lifecycle{
		users:      users,
		items:      items,
		txs:        txs,
		reviews:    reviews,
		complaints: complaints,
		damage:     damage,
		ledger:     ledger,
		penalties:  penalties,
		reputation: reputation,
		notifier:   notifier,
		begin:      begin,
		locks:      newTxLocks(),
		now:        time.Now,
	}
}

// CreateRequest opens a PENDING borrow request for an item. The total cost
// is fixed here from the item's current daily rate and the inclusive day
// count; the borrower must already hold that many tokens, though nothing
// is charged until delivery is mutually confirmed.
func (l *Lifecycle) CreateRequest(ctx context.Context, borrowerID, itemID uint64, start, end time.Time) (*model.Transaction, error) {
	item, err := l.items.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID == borrowerID {
		return nil, ErrSelfBorrow
	}
	if item.Status != model.ItemAvailable {
		return nil, ErrItemUnavailable
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: end date must be after start date", ErrInvalidDateRange)
	}
	if start.Before(l.now()) {
		return nil, fmt.Errorf("%w: start date cannot be in the past", ErrInvalidDateRange)
	}

	days := model.InclusiveDays(start, end)
	total := item.TokensPerDay * days

	borrower, err := l.users.GetUser(ctx, borrowerID)
	if err != nil {
		return nil, err
	}
	if borrower.Tokens < total {
		return nil, ErrInsufficientBalance
	}

	t := &model.Transaction{
		ItemID:        itemID,
		OwnerID:       item.OwnerID,
		BorrowerID:    borrowerID,
		Status:        model.TxPending,
		DaysRequested: days,
		StartDate:     start,
		EndDate:       end,
		TotalTokens:   total,
	}
	if err := l.txs.CreateTransaction(ctx, t); err != nil {
		return nil, err
	}

	l.notifier.Notify(ctx, item.OwnerID, model.NotifyRequest, "New Borrow Request",
		fmt.Sprintf("%s wants to borrow your %s", borrower.FullName, item.Title), t.ID)
	return t, nil
}

// Approve moves a PENDING request to APPROVED and flips the item to
// BORROWED. Owner-only. The item transition is a compare-and-set, so a
// second request for the same item cannot be approved while the first loan
// is out.
func (l *Lifecycle) Approve(ctx context.Context, txID, callerID uint64) error {
	unlock := l.locks.lock(txID)
	defer unlock()

	t, err := l.txs.GetTransaction(ctx, txID)
	if err != nil {
		return err
	}
	if t.OwnerID != callerID {
		return ErrNotOwner
	}
	if t.Status != model.TxPending {
		return ErrInvalidState
	}

	ok, err := l.items.SetItemStatusIf(ctx, t.ItemID, model.ItemAvailable, model.ItemBorrowed)
	if err != nil {
		return err
	}
	if !ok {
		return ErrItemUnavailable
	}
	ok, err = l.txs.SetStatusIf(ctx, txID, model.TxPending, model.TxApproved)
	if err != nil {
		return err
	}
	if !ok {
		// Lost the race to another mutation; release the item again.
		_ = l.items.SetItemStatus(ctx, t.ItemID, model.ItemAvailable)
		return ErrInvalidState
	}
	now := l.now()
	t.Status = model.TxApproved
	t.ApprovedAt = &now
	if err := l.txs.UpdateTransaction(ctx, t); err != nil {
		return err
	}

	title := l.itemTitle(ctx, t.ItemID)
	l.notifier.Notify(ctx, t.BorrowerID, model.NotifyApproval, "Request Approved!",
		fmt.Sprintf("Your request to borrow %s has been approved. Arrange the handoff with the owner.", title), txID)
	return nil
}

// Reject moves a PENDING request to CANCELLED. Owner-only. No tokens have
// moved at this point, so there is nothing to unwind.
func (l *Lifecycle) Reject(ctx context.Context, txID, callerID uint64) error {
	unlock := l.locks.lock(txID)
	defer unlock()

	t, err := l.txs.GetTransaction(ctx, txID)
	if err != nil {
		return err
	}
	if t.OwnerID != callerID {
		return ErrNotOwner
	}
	ok, err := l.txs.SetStatusIf(ctx, txID, model.TxPending, model.TxCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidState
	}

	title := l.itemTitle(ctx, t.ItemID)
	l.notifier.Notify(ctx, t.BorrowerID, model.NotifyRejection, "Request Rejected",
		fmt.Sprintf("Your request to borrow %s has been rejected", title), txID)
	return nil
}

// ConfirmDelivery records the caller's delivery confirmation. Each party
// confirms independently and re-confirming is a no-op; only on the edge
// where both have confirmed does the transaction move to DELIVERED and the
// token transfer execute: debit the borrower, credit the owner, then
// sweep the owner's pending penalties. Charging at mutual handoff rather
// than at approval means a loan that never happens never costs anything.
func (l *Lifecycle) ConfirmDelivery(ctx context.Context, txID, callerID uint64, proofs []string) (*model.Transaction, error) {
	unlock := l.locks.lock(txID)
	defer unlock()

	t, err := l.txs.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	party := t.PartyOf(callerID)
	if party == 0 {
		return nil, ErrNotParty
	}
	if t.Status != model.TxApproved {
		return nil, ErrInvalidState
	}

	cur := t.DeliveryState()
	next := cur.With(party)
	t.OwnerDeliveryConfirmed, t.BorrowerDeliveryConfirmed = next.Flags()
	if party == model.PartyOwner && len(proofs) > 0 {
		t.DeliveryProofImages = proofs
	}

	item, err := l.items.GetItem(ctx, t.ItemID)
	if err != nil {
		return nil, err
	}

	completed := next == model.ConfirmBoth && cur != model.ConfirmBoth
	if completed {
		now := l.now()
		t.Status = model.TxDelivered
		t.DeliveredAt = &now

		// The debit, credit and status flip commit as one unit; the lock
		// prevents a concurrent confirmation from re-reaching this edge.
		s, err := l.begin(ctx)
		if err != nil {
			return nil, err
		}
		committed := false
		defer func() {
			if !committed {
				_ = s.Rollback()
			}
		}()
		if err := l.ledger.DebitTx(ctx, s, t.BorrowerID, t.TotalTokens, model.LedgerSpent,
			fmt.Sprintf("Borrowed %s", item.Title), txID); err != nil {
			return nil, err
		}
		if err := l.ledger.CreditTx(ctx, s, t.OwnerID, t.TotalTokens, model.LedgerEarned,
			fmt.Sprintf("Lent %s", item.Title), txID); err != nil {
			return nil, err
		}
		if err := s.UpdateTransaction(ctx, t); err != nil {
			return nil, err
		}
		if err := s.Commit(); err != nil {
			return nil, err
		}
		committed = true

		// The sweep and the counter bump run against committed state; a
		// failure here must not report the exchange itself as failed.
		if err := l.penalties.SettlePending(ctx, t.OwnerID); err != nil {
			log.Printf("pending sweep for user %d: %v", t.OwnerID, err)
		}
		if err := l.items.IncrementBorrows(ctx, t.ItemID); err != nil {
			log.Printf("borrow counter for item %d: %v", t.ItemID, err)
		}
	} else {
		if err := l.txs.UpdateTransaction(ctx, t); err != nil {
			return nil, err
		}
	}

	l.notifyConfirmation(ctx, t, party, model.NotifyDelivery, "Delivery Confirmation",
		"has confirmed delivery")
	if completed {
		l.notifier.Notify(ctx, t.BorrowerID, model.NotifyDeliveryComplete, "Delivery Complete",
			fmt.Sprintf("Tokens deducted for borrowing %s. Enjoy!", item.Title), txID)
		l.notifier.Notify(ctx, t.OwnerID, model.NotifyDeliveryComplete, "Delivery Complete",
			fmt.Sprintf("Tokens credited for lending %s.", item.Title), txID)
	}
	return t, nil
}

// ConfirmReturn mirrors ConfirmDelivery for the return phase. On the
// both-confirmed edge the item becomes AVAILABLE again and, when the
// return is past the agreed end date, the late penalty is assessed against
// the borrower as part of this transition; there is no separate call and
// no background job.
func (l *Lifecycle) ConfirmReturn(ctx context.Context, txID, callerID uint64, proofs []string) (*model.Transaction, error) {
	unlock := l.locks.lock(txID)
	defer unlock()

	t, err := l.txs.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	party := t.PartyOf(callerID)
	if party == 0 {
		return nil, ErrNotParty
	}
	if t.Status != model.TxDelivered {
		return nil, ErrInvalidState
	}

	cur := t.ReturnState()
	next := cur.With(party)
	t.OwnerReturnConfirmed, t.BorrowerReturnConfirmed = next.Flags()
	if party == model.PartyBorrower && len(proofs) > 0 {
		t.ReturnProofImages = proofs
	}

	item, err := l.items.GetItem(ctx, t.ItemID)
	if err != nil {
		return nil, err
	}

	completed := next == model.ConfirmBoth && cur != model.ConfirmBoth
	var penalty, lateDays int
	if completed {
		now := l.now()
		t.Status = model.TxReturned
		t.ReturnedAt = &now
		if now.After(t.EndDate) {
			lateDays = int(now.Sub(t.EndDate).Hours() / 24)
			penalty = LatePenalty(item.TokensPerDay, lateDays)
		}

		// The item release, the late penalty and the status flip commit
		// as one unit.
		s, err := l.begin(ctx)
		if err != nil {
			return nil, err
		}
		committed := false
		defer func() {
			if !committed {
				_ = s.Rollback()
			}
		}()
		if err := s.SetItemStatus(ctx, t.ItemID, model.ItemAvailable); err != nil {
			return nil, err
		}
		if penalty > 0 {
			reason := fmt.Sprintf("Late return penalty: %d days late", lateDays)
			if err := l.penalties.ApplyTx(ctx, s, t.BorrowerID, penalty, reason, txID); err != nil {
				return nil, err
			}
			t.PenaltyTokens = penalty
		}
		if err := s.UpdateTransaction(ctx, t); err != nil {
			return nil, err
		}
		if err := s.Commit(); err != nil {
			return nil, err
		}
		committed = true
	} else {
		if err := l.txs.UpdateTransaction(ctx, t); err != nil {
			return nil, err
		}
	}
	if penalty > 0 {
		l.notifier.Notify(ctx, t.BorrowerID, model.NotifyPenalty, "Late Return Penalty",
			fmt.Sprintf("Penalty of %d tokens applied for returning %s %d days late", penalty, item.Title, lateDays), txID)
	}

	l.notifyConfirmation(ctx, t, party, model.NotifyReturn, "Return Confirmation",
		"has confirmed return")
	if completed {
		l.notifier.Notify(ctx, t.BorrowerID, model.NotifyReturnComplete, "Return Complete",
			fmt.Sprintf("Successfully returned %s. Please leave a review!", item.Title), txID)
		l.notifier.Notify(ctx, t.OwnerID, model.NotifyReturnComplete, "Return Complete",
			fmt.Sprintf("%s has been returned. Please leave a review!", item.Title), txID)
	}
	return t, nil
}

// ReportDamage assesses a damage penalty against the borrower. Owner-only,
// allowed once the item is in the borrower's hands (DELIVERED) or back
// (RETURNED), and single-use: a transaction carries at most one damage
// report, so repeated reports cannot stack penalties. The returned amount
// is what was charged (or deferred) against the borrower.
func (l *Lifecycle) ReportDamage(ctx context.Context, txID, callerID uint64, severity, description string, proofs []string) (int, error) {
	unlock := l.locks.lock(txID)
	defer unlock()

	t, err := l.txs.GetTransaction(ctx, txID)
	if err != nil {
		return 0, err
	}
	if t.OwnerID != callerID {
		return 0, ErrNotOwner
	}
	if t.Status != model.TxDelivered && t.Status != model.TxReturned {
		return 0, ErrInvalidState
	}
	if t.DamageReported {
		return 0, ErrDamageAlreadyReported
	}

	item, err := l.items.GetItem(ctx, t.ItemID)
	if err != nil {
		return 0, err
	}
	penalty, err := DamagePenalty(item.Value, severity)
	if err != nil {
		return 0, err
	}

	reason := fmt.Sprintf("Damage penalty for %s: %s damage", item.Title, strings.ToLower(severity))
	if err := l.penalties.Apply(ctx, t.BorrowerID, penalty, reason, txID); err != nil {
		return 0, err
	}

	t.DamageReported = true
	t.DamageSeverity = severity
	t.DamageImages = proofs
	t.DamagePenalty = penalty
	if err := l.txs.UpdateTransaction(ctx, t); err != nil {
		return 0, err
	}
	if err := l.damage.CreateDamageReport(ctx, &model.DamageReport{
		TransactionID: txID,
		ReporterID:    callerID,
		Severity:      severity,
		Description:   description,
		ProofImages:   proofs,
		PenaltyTokens: penalty,
	}); err != nil {
		return 0, err
	}

	l.notifier.Notify(ctx, t.BorrowerID, model.NotifyDamage, "Damage Reported",
		fmt.Sprintf("Damage reported on %s. Penalty: %d tokens", item.Title, penalty), txID)
	return penalty, nil
}

// SubmitReview records a party's review of the other. Allowed only while
// the transaction is RETURNED, once per party. The second review advances
// the transaction to COMPLETED and recomputes both parties' success rates.
// The reviewee's star rating is recomputed on every review.
func (l *Lifecycle) SubmitReview(ctx context.Context, txID, reviewerID uint64, rating int, comment string) error {
	unlock := l.locks.lock(txID)
	defer unlock()

	t, err := l.txs.GetTransaction(ctx, txID)
	if err != nil {
		return err
	}
	if t.PartyOf(reviewerID) == 0 {
		return ErrNotParty
	}
	if t.Status != model.TxReturned {
		return ErrInvalidState
	}
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	exists, err := l.reviews.ReviewExists(ctx, txID, reviewerID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyReviewed
	}

	revieweeID := t.Counterpart(reviewerID)
	if err := l.reviews.CreateReview(ctx, &model.Review{
		TransactionID: txID,
		ReviewerID:    reviewerID,
		RevieweeID:    revieweeID,
		ItemID:        t.ItemID,
		Rating:        rating,
		Comment:       comment,
	}); err != nil {
		return err
	}
	if err := l.reputation.OnReview(ctx, revieweeID); err != nil {
		return err
	}

	count, err := l.reviews.CountByTransaction(ctx, txID)
	if err != nil {
		return err
	}
	if count < 2 {
		return nil
	}

	ok, err := l.txs.SetStatusIf(ctx, txID, model.TxReturned, model.TxCompleted)
	if err != nil {
		return err
	}
	if ok {
		t.Status = model.TxCompleted
		t.IsReviewed = true
		if err := l.txs.UpdateTransaction(ctx, t); err != nil {
			return err
		}
		for _, uid := range []uint64{t.OwnerID, t.BorrowerID} {
			if err := l.reputation.OnCompletion(ctx, uid); err != nil {
				return err
			}
		}
	}
	return nil
}

// FileComplaint records a complaint by one party against the other and
// immediately applies its reputation effects: complaints are validated at
// creation (there is no moderation step today), so the defendant's rating
// is halved and the ban threshold checked right away.
func (l *Lifecycle) FileComplaint(ctx context.Context, txID, complainantID uint64, title, description, severity string, proofs []string) error {
	t, err := l.txs.GetTransaction(ctx, txID)
	if err != nil {
		return err
	}
	if t.PartyOf(complainantID) == 0 {
		return ErrNotParty
	}

	defendantID := t.Counterpart(complainantID)
	if err := l.complaints.CreateComplaint(ctx, &model.Complaint{
		TransactionID: txID,
		ComplainantID: complainantID,
		DefendantID:   defendantID,
		Title:         title,
		Description:   description,
		Severity:      severity,
		ProofImages:   proofs,
		IsValid:       true,
	}); err != nil {
		return err
	}

	banned, err := l.reputation.OnComplaint(ctx, defendantID)
	if err != nil {
		return err
	}
	l.notifier.Notify(ctx, defendantID, model.NotifyComplaint, "Complaint Filed Against You",
		"A complaint has been filed against you. Your rating has been affected.", txID)
	if banned {
		l.notifier.Notify(ctx, defendantID, model.NotifyBan, "Account Banned",
			"Your account has been banned due to multiple complaints. Contact support for assistance.", 0)
	}
	return nil
}

// notifyConfirmation tells the other party that the caller confirmed a
// phase and asks them to do the same.
func (l *Lifecycle) notifyConfirmation(ctx context.Context, t *model.Transaction, party model.Party, category, title, verb string) {
	role := "borrower"
	if party == model.PartyOwner {
		role = "owner"
	}
	l.notifier.Notify(ctx, t.Counterpart(partyUserID(t, party)), category, title,
		fmt.Sprintf("The %s %s. Please confirm on your end.", role, verb), t.ID)
}

func partyUserID(t *model.Transaction, p model.Party) uint64 {
	if p == model.PartyOwner {
		return t.OwnerID
	}
	return t.BorrowerID
}

func (l *Lifecycle) itemTitle(ctx context.Context, itemID uint64) string {
	item, err := l.items.GetItem(ctx, itemID)
	if err != nil {
		return "item"
	}
	return item.Title
}
