package service

import (
	"context"
	"testing"
	"time"

	"github.com/adimehta/sharesphere/internal/model"
)

func TestOnReviewUsesMeanOfAllRatings(t *testing.T) {
	m, _, _, _ := newTestCore(t, time.Now())
	addUser(m, 1, 100)
	ctx := context.Background()
	rep := NewReputation(m, m, m)

	for i, rating := range []int{5, 4, 3} {
		m.reviews = append(m.reviews, model.Review{
			TransactionID: uint64(i + 1),
			ReviewerID:    2,
			RevieweeID:    1,
			Rating:        rating,
		})
	}
	if err := rep.OnReview(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if got := m.users[1].StarRating; got != 4.0 {
		t.Errorf("star rating = %v, want 4.0", got)
	}
	if m.users[1].TotalReviews != 3 {
		t.Errorf("total reviews = %d, want 3", m.users[1].TotalReviews)
	}
}

func TestOnComplaintHalvesRating(t *testing.T) {
	m, _, _, _ := newTestCore(t, time.Now())
	u := addUser(m, 1, 100)
	u.StarRating = 4.0
	rep := NewReputation(m, m, m)

	banned, err := rep.OnComplaint(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if banned {
		t.Error("first complaint should not ban")
	}
	if m.users[1].StarRating != 2.0 {
		t.Errorf("rating = %v, want 2.0", m.users[1].StarRating)
	}
	if m.users[1].ComplaintCount != 1 {
		t.Errorf("complaint count = %d, want 1", m.users[1].ComplaintCount)
	}

	// Complaints compound.
	if _, err := rep.OnComplaint(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if m.users[1].StarRating != 1.0 {
		t.Errorf("rating after second complaint = %v, want 1.0", m.users[1].StarRating)
	}
}

func TestBanAtExactlyThreshold(t *testing.T) {
	m, _, _, _ := newTestCore(t, time.Now())
	u := addUser(m, 1, 100)
	rep := NewReputation(m, m, m)

	// The 19th complaint must not ban; the 20th must.
	u.ComplaintCount = model.BanThreshold - 2
	banned, err := rep.OnComplaint(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if banned || m.users[1].IsBanned {
		t.Fatalf("banned at %d complaints", m.users[1].ComplaintCount)
	}

	banned, err = rep.OnComplaint(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if !banned || !m.users[1].IsBanned {
		t.Fatalf("not banned at %d complaints", m.users[1].ComplaintCount)
	}
	if m.users[1].ComplaintCount != model.BanThreshold {
		t.Errorf("complaint count = %d, want %d", m.users[1].ComplaintCount, model.BanThreshold)
	}
}

func TestOnCompletionSuccessRate(t *testing.T) {
	m, _, _, _ := newTestCore(t, time.Now())
	addUser(m, 1, 100)
	ctx := context.Background()
	rep := NewReputation(m, m, m)

	// No terminal transactions yet: rate stays 100.
	if err := rep.OnCompletion(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if m.users[1].SuccessRate != 100.0 {
		t.Errorf("rate with no history = %v, want 100", m.users[1].SuccessRate)
	}

	m.txs[1] = &model.Transaction{ID: 1, OwnerID: 1, BorrowerID: 2, Status: model.TxCompleted}
	m.txs[2] = &model.Transaction{ID: 2, OwnerID: 1, BorrowerID: 2, Status: model.TxCompleted}
	m.txs[3] = &model.Transaction{ID: 3, OwnerID: 3, BorrowerID: 1, Status: model.TxCompleted}
	m.txs[4] = &model.Transaction{ID: 4, OwnerID: 1, BorrowerID: 2, Status: model.TxCancelled}
	m.txs[5] = &model.Transaction{ID: 5, OwnerID: 1, BorrowerID: 2, Status: model.TxDelivered} // not terminal

	if err := rep.OnCompletion(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if m.users[1].SuccessRate != 75.0 {
		t.Errorf("rate = %v, want 75", m.users[1].SuccessRate)
	}
	if m.users[1].CompletedTxCount != 3 || m.users[1].FailedTxCount != 1 {
		t.Errorf("counts = %d/%d, want 3/1", m.users[1].CompletedTxCount, m.users[1].FailedTxCount)
	}
}
