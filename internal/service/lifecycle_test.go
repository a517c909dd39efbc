package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adimehta/sharesphere/internal/model"
)

var (
	clock     = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	loanStart = time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	loanEnd   = time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
)

// setupLoan builds owner (1), borrower (2) and an available item with a
// 10 tokens/day rate. The Jan 2 - Jan 4 window is 3 inclusive days, so a
// request costs 30 tokens.
func setupLoan(t *testing.T) (*memStore, *Lifecycle) {
	t.Helper()
	m, lc, _, _ := newTestCore(t, clock)
	addUser(m, 1, 100)
	addUser(m, 2, 100)
	addItem(m, 1, 1, 10, 1000)
	return m, lc
}

func mustRequest(t *testing.T, lc *Lifecycle) *model.Transaction {
	t.Helper()
	tx, err := lc.CreateRequest(context.Background(), 2, 1, loanStart, loanEnd)
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	return tx
}

func mustDeliver(t *testing.T, lc *Lifecycle, txID uint64) {
	t.Helper()
	ctx := context.Background()
	if err := lc.Approve(ctx, txID, 1); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := lc.ConfirmDelivery(ctx, txID, 1, nil); err != nil {
		t.Fatalf("owner ConfirmDelivery: %v", err)
	}
	if _, err := lc.ConfirmDelivery(ctx, txID, 2, nil); err != nil {
		t.Fatalf("borrower ConfirmDelivery: %v", err)
	}
}

func mustReturn(t *testing.T, lc *Lifecycle, txID uint64) {
	t.Helper()
	ctx := context.Background()
	if _, err := lc.ConfirmReturn(ctx, txID, 2, nil); err != nil {
		t.Fatalf("borrower ConfirmReturn: %v", err)
	}
	if _, err := lc.ConfirmReturn(ctx, txID, 1, nil); err != nil {
		t.Fatalf("owner ConfirmReturn: %v", err)
	}
}

func TestCreateRequestFixesCostFromInclusiveDays(t *testing.T) {
	m, lc := setupLoan(t)
	tx := mustRequest(t, lc)

	if tx.DaysRequested != 3 {
		t.Errorf("days = %d, want 3 (endpoints inclusive)", tx.DaysRequested)
	}
	if tx.TotalTokens != 30 {
		t.Errorf("total = %d, want 30", tx.TotalTokens)
	}
	if tx.Status != model.TxPending {
		t.Errorf("status = %s, want PENDING", tx.Status)
	}
	// Nothing is charged at request time.
	if m.users[2].Tokens != 100 {
		t.Errorf("borrower balance = %d, want 100", m.users[2].Tokens)
	}
	if n := len(m.notesFor(1, model.NotifyRequest)); n != 1 {
		t.Errorf("owner request notifications = %d, want 1", n)
	}
}

func TestCreateRequestGuards(t *testing.T) {
	m, lc := setupLoan(t)
	ctx := context.Background()

	if _, err := lc.CreateRequest(ctx, 1, 1, loanStart, loanEnd); !errors.Is(err, ErrSelfBorrow) {
		t.Errorf("self borrow: got %v", err)
	}
	if _, err := lc.CreateRequest(ctx, 2, 1, loanEnd, loanStart); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("end before start: got %v", err)
	}
	if _, err := lc.CreateRequest(ctx, 2, 1, loanStart, loanStart); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("zero-length range: got %v", err)
	}
	past := clock.Add(-48 * time.Hour)
	if _, err := lc.CreateRequest(ctx, 2, 1, past, loanEnd); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("start in past: got %v", err)
	}

	m.users[2].Tokens = 29
	if _, err := lc.CreateRequest(ctx, 2, 1, loanStart, loanEnd); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("29 tokens for a 30-token loan: got %v", err)
	}

	m.users[2].Tokens = 100
	m.items[1].Status = model.ItemBorrowed
	if _, err := lc.CreateRequest(ctx, 2, 1, loanStart, loanEnd); !errors.Is(err, ErrItemUnavailable) {
		t.Errorf("borrowed item: got %v", err)
	}
}

func TestCreateRequestSameDayWithTimes(t *testing.T) {
	_, lc := setupLoan(t)

	// A window later the same day is a valid one-day loan.
	tx, err := lc.CreateRequest(context.Background(), 2, 1, clock.Add(1*time.Hour), clock.Add(6*time.Hour))
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if tx.DaysRequested != 1 {
		t.Errorf("days = %d, want 1", tx.DaysRequested)
	}
	if tx.TotalTokens != 10 {
		t.Errorf("total = %d, want 10", tx.TotalTokens)
	}
}

func TestApprove(t *testing.T) {
	m, lc := setupLoan(t)
	tx := mustRequest(t, lc)
	ctx := context.Background()

	if err := lc.Approve(ctx, tx.ID, 2); !errors.Is(err, ErrNotOwner) {
		t.Errorf("borrower approving: got %v", err)
	}
	if err := lc.Approve(ctx, tx.ID, 1); err != nil {
		t.Fatal(err)
	}
	if m.txs[tx.ID].Status != model.TxApproved {
		t.Errorf("status = %s, want APPROVED", m.txs[tx.ID].Status)
	}
	if m.items[1].Status != model.ItemBorrowed {
		t.Errorf("item status = %s, want BORROWED", m.items[1].Status)
	}
	if m.txs[tx.ID].ApprovedAt == nil {
		t.Error("ApprovedAt not set")
	}
	if err := lc.Approve(ctx, tx.ID, 1); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second approve: got %v", err)
	}

	// A second request for the same item cannot be approved while the
	// first loan is out.
	m.users[3] = &model.User{ID: 3, IsActive: true, Tokens: 100}
	tx2, err := lc.CreateRequest(ctx, 3, 1, loanStart, loanEnd)
	if !errors.Is(err, ErrItemUnavailable) {
		t.Fatalf("request on borrowed item: got %v (tx=%v)", err, tx2)
	}
}

func TestReject(t *testing.T) {
	m, lc := setupLoan(t)
	tx := mustRequest(t, lc)
	ctx := context.Background()

	if err := lc.Reject(ctx, tx.ID, 2); !errors.Is(err, ErrNotOwner) {
		t.Errorf("borrower rejecting: got %v", err)
	}
	if err := lc.Reject(ctx, tx.ID, 1); err != nil {
		t.Fatal(err)
	}
	if m.txs[tx.ID].Status != model.TxCancelled {
		t.Errorf("status = %s, want CANCELLED", m.txs[tx.ID].Status)
	}
	// No tokens ever moved.
	if m.users[2].Tokens != 100 || m.users[1].Tokens != 100 {
		t.Errorf("balances changed on rejection: %d/%d", m.users[1].Tokens, m.users[2].Tokens)
	}
	if err := lc.Reject(ctx, tx.ID, 1); !errors.Is(err, ErrInvalidState) {
		t.Errorf("rejecting twice: got %v", err)
	}
}

func TestDeliveryTransfersExactlyOnce(t *testing.T) {
	m, lc := setupLoan(t)
	tx := mustRequest(t, lc)
	ctx := context.Background()
	if err := lc.Approve(ctx, tx.ID, 1); err != nil {
		t.Fatal(err)
	}

	// One-sided confirmation moves nothing.
	if _, err := lc.ConfirmDelivery(ctx, tx.ID, 1, []string{"delivery_1_a.jpg"}); err != nil {
		t.Fatal(err)
	}
	if m.users[2].Tokens != 100 || m.users[1].Tokens != 100 {
		t.Fatal("tokens moved on single confirmation")
	}
	if m.txs[tx.ID].Status != model.TxApproved {
		t.Fatalf("status = %s, want APPROVED", m.txs[tx.ID].Status)
	}

	// Re-confirming from the same side is a no-op.
	if _, err := lc.ConfirmDelivery(ctx, tx.ID, 1, nil); err != nil {
		t.Fatal(err)
	}
	if m.users[2].Tokens != 100 {
		t.Fatal("tokens moved on repeated same-side confirmation")
	}

	// The second side completes the phase and runs the transfer.
	if _, err := lc.ConfirmDelivery(ctx, tx.ID, 2, nil); err != nil {
		t.Fatal(err)
	}
	if m.users[2].Tokens != 70 {
		t.Errorf("borrower balance = %d, want 70", m.users[2].Tokens)
	}
	if m.users[1].Tokens != 130 {
		t.Errorf("owner balance = %d, want 130", m.users[1].Tokens)
	}
	got := m.txs[tx.ID]
	if got.Status != model.TxDelivered || got.DeliveredAt == nil {
		t.Errorf("status = %s, DeliveredAt = %v", got.Status, got.DeliveredAt)
	}
	if m.items[1].TotalBorrows != 1 {
		t.Errorf("total borrows = %d, want 1", m.items[1].TotalBorrows)
	}

	// Exactly one SPENT and one EARNED entry exist.
	if e := m.entriesFor(2); len(e) != 1 || e[0].Amount != -30 || e[0].Type != model.LedgerSpent {
		t.Errorf("borrower entries = %+v", e)
	}
	if e := m.entriesFor(1); len(e) != 1 || e[0].Amount != 30 || e[0].Type != model.LedgerEarned {
		t.Errorf("owner entries = %+v", e)
	}

	// Confirming after DELIVERED is rejected, so the transfer cannot rerun.
	if _, err := lc.ConfirmDelivery(ctx, tx.ID, 2, nil); !errors.Is(err, ErrInvalidState) {
		t.Errorf("confirm after delivery: got %v", err)
	}
}

func TestDeliveryRefusedByOutsider(t *testing.T) {
	m, lc := setupLoan(t)
	tx := mustRequest(t, lc)
	ctx := context.Background()
	if err := lc.Approve(ctx, tx.ID, 1); err != nil {
		t.Fatal(err)
	}
	m.users[9] = &model.User{ID: 9, IsActive: true, Tokens: 100}
	if _, err := lc.ConfirmDelivery(ctx, tx.ID, 9, nil); !errors.Is(err, ErrNotParty) {
		t.Errorf("outsider confirming: got %v", err)
	}
}

func TestDeliveryAbortsWhenDebitFails(t *testing.T) {
	m, lc := setupLoan(t)
	tx := mustRequest(t, lc)
	ctx := context.Background()
	if err := lc.Approve(ctx, tx.ID, 1); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := lc.ConfirmDelivery(ctx, tx.ID, 1, nil); err != nil {
		t.Fatalf("owner ConfirmDelivery: %v", err)
	}

	// The balance drops below the agreed total between approval and the
	// handoff, for example through a penalty settlement.
	m.users[2].Tokens = 5

	if _, err := lc.ConfirmDelivery(ctx, tx.ID, 2, nil); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("confirm with 5 tokens: got %v", err)
	}
	// The failed edge leaves no trace: status, owner balance and the
	// ledger are untouched.
	if got := m.txs[tx.ID].Status; got != model.TxApproved {
		t.Errorf("status = %s, want APPROVED", got)
	}
	if m.users[1].Tokens != 100 {
		t.Errorf("owner balance = %d, want 100", m.users[1].Tokens)
	}
	if n := len(m.entriesFor(1)) + len(m.entriesFor(2)); n != 0 {
		t.Errorf("ledger entries = %d, want 0", n)
	}
}

func TestReturnOnTime(t *testing.T) {
	m, lc := setupLoan(t)
	tx := mustRequest(t, lc)
	mustDeliver(t, lc, tx.ID)

	// Returned on the last day of the window: no penalty.
	lc.now = func() time.Time { return loanEnd.Add(-2 * time.Hour) }
	mustReturn(t, lc, tx.ID)

	got := m.txs[tx.ID]
	if got.Status != model.TxReturned || got.ReturnedAt == nil {
		t.Errorf("status = %s, ReturnedAt = %v", got.Status, got.ReturnedAt)
	}
	if got.PenaltyTokens != 0 {
		t.Errorf("penalty = %d, want 0", got.PenaltyTokens)
	}
	if m.items[1].Status != model.ItemAvailable {
		t.Errorf("item status = %s, want AVAILABLE", m.items[1].Status)
	}
	if m.users[2].Tokens != 70 {
		t.Errorf("borrower balance = %d, want 70", m.users[2].Tokens)
	}
}

func TestReturnLateChargesWholeDays(t *testing.T) {
	m, lc := setupLoan(t)
	tx := mustRequest(t, lc)
	mustDeliver(t, lc, tx.ID)

	// 50 hours past the end date is 2 whole late days at 10/day.
	lc.now = func() time.Time { return loanEnd.Add(50 * time.Hour) }
	mustReturn(t, lc, tx.ID)

	got := m.txs[tx.ID]
	if got.PenaltyTokens != 20 {
		t.Errorf("penalty = %d, want 20", got.PenaltyTokens)
	}
	// Borrower had 70 after the transfer and can afford it.
	if m.users[2].Tokens != 50 {
		t.Errorf("borrower balance = %d, want 50", m.users[2].Tokens)
	}
	if n := len(m.notesFor(2, model.NotifyPenalty)); n != 1 {
		t.Errorf("penalty notifications = %d, want 1", n)
	}
}

func TestReturnLateDefersWhenBroke(t *testing.T) {
	m, lc := setupLoan(t)
	tx := mustRequest(t, lc)
	mustDeliver(t, lc, tx.ID)

	m.users[2].Tokens = 3
	lc.now = func() time.Time { return loanEnd.Add(26 * time.Hour) } // 1 late day
	mustReturn(t, lc, tx.ID)

	if m.users[2].Tokens != 3 {
		t.Errorf("balance = %d, want 3 (never negative)", m.users[2].Tokens)
	}
	if m.users[2].PendingPenalties != 10 {
		t.Errorf("pending sum = %d, want 10", m.users[2].PendingPenalties)
	}
}

func TestReportDamage(t *testing.T) {
	m, lc := setupLoan(t)
	tx := mustRequest(t, lc)
	mustDeliver(t, lc, tx.ID)
	ctx := context.Background()

	if _, err := lc.ReportDamage(ctx, tx.ID, 2, model.SeverityMedium, "scratched", nil); !errors.Is(err, ErrNotOwner) {
		t.Errorf("borrower reporting damage: got %v", err)
	}
	if _, err := lc.ReportDamage(ctx, tx.ID, 1, "BAD", "", nil); !errors.Is(err, ErrInvalidSeverity) {
		t.Errorf("bad severity: got %v", err)
	}

	penalty, err := lc.ReportDamage(ctx, tx.ID, 1, model.SeverityMedium, "deep scratches on the casing", nil)
	if err != nil {
		t.Fatal(err)
	}
	if penalty != 330 {
		t.Errorf("penalty = %d, want 330 (33%% of 1000)", penalty)
	}
	// Borrower had 70; 330 is deferred, not taken.
	if m.users[2].Tokens != 70 || m.users[2].PendingPenalties != 330 {
		t.Errorf("balance=%d pending=%d, want 70/330", m.users[2].Tokens, m.users[2].PendingPenalties)
	}
	if len(m.damages) != 1 || m.damages[0].PenaltyTokens != 330 {
		t.Fatalf("damage reports = %+v", m.damages)
	}

	if _, err := lc.ReportDamage(ctx, tx.ID, 1, model.SeveritySevere, "", nil); !errors.Is(err, ErrDamageAlreadyReported) {
		t.Errorf("second report: got %v", err)
	}
	if m.users[2].PendingPenalties != 330 {
		t.Errorf("second report changed pending sum to %d", m.users[2].PendingPenalties)
	}
}

func TestReviewsCompleteTransaction(t *testing.T) {
	m, lc := setupLoan(t)
	tx := mustRequest(t, lc)
	mustDeliver(t, lc, tx.ID)
	lc.now = func() time.Time { return loanEnd }
	mustReturn(t, lc, tx.ID)
	ctx := context.Background()

	if err := lc.SubmitReview(ctx, tx.ID, 2, 6, ""); !errors.Is(err, ErrInvalidRating) {
		t.Errorf("rating 6: got %v", err)
	}

	if err := lc.SubmitReview(ctx, tx.ID, 2, 5, "great drill"); err != nil {
		t.Fatal(err)
	}
	if m.txs[tx.ID].Status != model.TxReturned {
		t.Errorf("completed after one review: %s", m.txs[tx.ID].Status)
	}
	if err := lc.SubmitReview(ctx, tx.ID, 2, 4, ""); !errors.Is(err, ErrAlreadyReviewed) {
		t.Errorf("double review: got %v", err)
	}

	if err := lc.SubmitReview(ctx, tx.ID, 1, 4, "returned in good shape"); err != nil {
		t.Fatal(err)
	}
	got := m.txs[tx.ID]
	if got.Status != model.TxCompleted || !got.IsReviewed {
		t.Errorf("status = %s, reviewed = %v", got.Status, got.IsReviewed)
	}
	// Each party's star rating is the mean of what they received.
	if m.users[1].StarRating != 5.0 {
		t.Errorf("owner rating = %v, want 5.0", m.users[1].StarRating)
	}
	if m.users[2].StarRating != 4.0 {
		t.Errorf("borrower rating = %v, want 4.0", m.users[2].StarRating)
	}
	if m.users[1].SuccessRate != 100.0 || m.users[2].SuccessRate != 100.0 {
		t.Errorf("success rates = %v/%v, want 100/100", m.users[1].SuccessRate, m.users[2].SuccessRate)
	}

	if err := lc.SubmitReview(ctx, tx.ID, 1, 3, ""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("review after completion: got %v", err)
	}
}

func TestReviewOnlyWhileReturned(t *testing.T) {
	_, lc := setupLoan(t)
	tx := mustRequest(t, lc)
	mustDeliver(t, lc, tx.ID)

	if err := lc.SubmitReview(context.Background(), tx.ID, 2, 5, ""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("review while DELIVERED: got %v", err)
	}
}

func TestFileComplaint(t *testing.T) {
	m, lc := setupLoan(t)
	tx := mustRequest(t, lc)
	ctx := context.Background()

	m.users[9] = &model.User{ID: 9, IsActive: true}
	if err := lc.FileComplaint(ctx, tx.ID, 9, "bad", "not involved", "", nil); !errors.Is(err, ErrNotParty) {
		t.Errorf("outsider complaint: got %v", err)
	}

	if err := lc.FileComplaint(ctx, tx.ID, 1, "No show", "Borrower never arrived", "HIGH", nil); err != nil {
		t.Fatal(err)
	}
	if len(m.complaints) != 1 || m.complaints[0].DefendantID != 2 || !m.complaints[0].IsValid {
		t.Fatalf("complaints = %+v", m.complaints)
	}
	if m.users[2].StarRating != 2.5 {
		t.Errorf("defendant rating = %v, want 2.5", m.users[2].StarRating)
	}
	if n := len(m.notesFor(2, model.NotifyComplaint)); n != 1 {
		t.Errorf("complaint notifications = %d, want 1", n)
	}
	if len(m.notesFor(2, model.NotifyBan)) != 0 {
		t.Error("ban notification sent below threshold")
	}
}
