package service

import (
	"context"
	"testing"
	"time"

	"github.com/adimehta/sharesphere/internal/model"
)

// memStore is a single in-memory double for every store interface. All
// mutations are plain in-process updates; the conditional methods mirror
// the SQL repos' compare-and-set semantics.
type memStore struct {
	users      map[uint64]*model.User
	items      map[uint64]*model.Item
	txs        map[uint64]*model.Transaction
	entries    []model.LedgerEntry
	pendings   []*model.PendingPenalty
	reviews    []model.Review
	complaints []model.Complaint
	damages    []model.DamageReport
	notes      []model.Notification
	nextID     uint64
}

func newMemStore() *memStore {
	return &memStore{
		users: map[uint64]*model.User{},
		items: map[uint64]*model.Item{},
		txs:   map[uint64]*model.Transaction{},
	}
}

func (m *memStore) id() uint64 {
	m.nextID++
	return m.nextID
}

// ----- UserStore -----

func (m *memStore) GetUser(_ context.Context, id uint64) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrPenaltyNotFound // not reached in these tests
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) CreditTokens(_ context.Context, id uint64, amount int) error {
	m.users[id].Tokens += amount
	return nil
}

func (m *memStore) DebitTokensIf(_ context.Context, id uint64, amount int) (bool, error) {
	u := m.users[id]
	if u.Tokens < amount {
		return false, nil
	}
	u.Tokens -= amount
	return true, nil
}

func (m *memStore) AddPendingPenalties(_ context.Context, id uint64, delta int) error {
	m.users[id].PendingPenalties += delta
	return nil
}

func (m *memStore) SetRating(_ context.Context, id uint64, rating float64, totalReviews int) error {
	u := m.users[id]
	u.StarRating = rating
	u.TotalReviews = totalReviews
	return nil
}

func (m *memStore) ApplyComplaint(_ context.Context, id uint64) (bool, error) {
	u := m.users[id]
	u.ComplaintCount++
	u.StarRating /= 2
	if u.ComplaintCount >= model.BanThreshold {
		u.IsBanned = true
	}
	return u.IsBanned, nil
}

func (m *memStore) SetSuccessRate(_ context.Context, id uint64, rate float64, completed, failed int) error {
	u := m.users[id]
	u.SuccessRate = rate
	u.CompletedTxCount = completed
	u.FailedTxCount = failed
	return nil
}

// ----- ItemStore -----

func (m *memStore) GetItem(_ context.Context, id uint64) (*model.Item, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, ErrItemUnavailable
	}
	cp := *it
	return &cp, nil
}

func (m *memStore) SetItemStatusIf(_ context.Context, id uint64, from, to string) (bool, error) {
	it := m.items[id]
	if it.Status != from {
		return false, nil
	}
	it.Status = to
	return true, nil
}

func (m *memStore) SetItemStatus(_ context.Context, id uint64, status string) error {
	m.items[id].Status = status
	return nil
}

func (m *memStore) IncrementBorrows(_ context.Context, id uint64) error {
	m.items[id].TotalBorrows++
	return nil
}

// ----- TransactionStore -----

func (m *memStore) CreateTransaction(_ context.Context, t *model.Transaction) error {
	t.ID = m.id()
	t.CreatedAt = time.Now()
	cp := *t
	m.txs[t.ID] = &cp
	return nil
}

func (m *memStore) GetTransaction(_ context.Context, id uint64) (*model.Transaction, error) {
	t, ok := m.txs[id]
	if !ok {
		return nil, ErrInvalidState
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) UpdateTransaction(_ context.Context, t *model.Transaction) error {
	cp := *t
	m.txs[t.ID] = &cp
	return nil
}

func (m *memStore) SetStatusIf(_ context.Context, id uint64, from, to string) (bool, error) {
	t := m.txs[id]
	if t.Status != from {
		return false, nil
	}
	t.Status = to
	return true, nil
}

func (m *memStore) CompletionCounts(_ context.Context, userID uint64) (completed, cancelled int, err error) {
	for _, t := range m.txs {
		if t.OwnerID != userID && t.BorrowerID != userID {
			continue
		}
		switch t.Status {
		case model.TxCompleted:
			completed++
		case model.TxCancelled:
			cancelled++
		}
	}
	return completed, cancelled, nil
}

// ----- LedgerStore -----

func (m *memStore) AppendEntry(_ context.Context, e *model.LedgerEntry) error {
	e.ID = m.id()
	m.entries = append(m.entries, *e)
	return nil
}

// ----- PenaltyStore -----

func (m *memStore) CreatePending(_ context.Context, p *model.PendingPenalty) error {
	p.ID = m.id()
	p.CreatedAt = time.Now()
	cp := *p
	m.pendings = append(m.pendings, &cp)
	return nil
}

func (m *memStore) UnpaidByUser(_ context.Context, userID uint64) ([]model.PendingPenalty, error) {
	var out []model.PendingPenalty
	for _, p := range m.pendings {
		if p.UserID == userID && !p.IsPaid {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) GetUnpaid(_ context.Context, id, userID uint64) (*model.PendingPenalty, error) {
	for _, p := range m.pendings {
		if p.ID == id && p.UserID == userID && !p.IsPaid {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrPenaltyNotFound
}

func (m *memStore) MarkPaid(_ context.Context, id uint64) error {
	for _, p := range m.pendings {
		if p.ID == id {
			p.IsPaid = true
			return nil
		}
	}
	return ErrPenaltyNotFound
}

// ----- ReviewStore -----

func (m *memStore) CreateReview(_ context.Context, r *model.Review) error {
	r.ID = m.id()
	m.reviews = append(m.reviews, *r)
	return nil
}

func (m *memStore) ReviewExists(_ context.Context, txID, reviewerID uint64) (bool, error) {
	for _, r := range m.reviews {
		if r.TransactionID == txID && r.ReviewerID == reviewerID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CountByTransaction(_ context.Context, txID uint64) (int, error) {
	n := 0
	for _, r := range m.reviews {
		if r.TransactionID == txID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) RatingStats(_ context.Context, revieweeID uint64) (sum, count int, err error) {
	for _, r := range m.reviews {
		if r.RevieweeID == revieweeID {
			sum += r.Rating
			count++
		}
	}
	return sum, count, nil
}

// ----- ComplaintStore / DamageStore -----

func (m *memStore) CreateComplaint(_ context.Context, c *model.Complaint) error {
	c.ID = m.id()
	m.complaints = append(m.complaints, *c)
	return nil
}

func (m *memStore) CreateDamageReport(_ context.Context, r *model.DamageReport) error {
	r.ID = m.id()
	m.damages = append(m.damages, *r)
	return nil
}

// ----- EconomyTx -----
//
// The fake applies writes eagerly, so Commit and Rollback are no-ops; the
// tests cover what runs inside an edge, not the database's atomicity.

func (m *memStore) BeginTx(_ context.Context) (EconomyTx, error) { return m, nil }

func (m *memStore) Commit() error { return nil }

func (m *memStore) Rollback() error { return nil }

// ----- Notifier (implemented on memStore for convenience) -----

func (m *memStore) Notify(_ context.Context, userID uint64, category, title, message string, relatedID uint64) {
	m.notes = append(m.notes, model.Notification{
		UserID:    userID,
		Category:  category,
		Title:     title,
		Message:   message,
		RelatedID: relatedID,
	})
}

// ----- helpers -----

func (m *memStore) entriesFor(userID uint64) []model.LedgerEntry {
	var out []model.LedgerEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

func (m *memStore) notesFor(userID uint64, category string) []model.Notification {
	var out []model.Notification
	for _, n := range m.notes {
		if n.UserID == userID && n.Category == category {
			out = append(out, n)
		}
	}
	return out
}

// newTestCore wires the services over one memStore with a fixed clock.
func newTestCore(t *testing.T, now time.Time) (*memStore, *Lifecycle, *PenaltyEngine, *Ledger) {
	t.Helper()
	m := newMemStore()
	penalties := NewPenaltyEngine(m, m, m)
	ledger := NewLedger(m, m, penalties)
	reputation := NewReputation(m, m, m)
	lc := NewLifecycle(m, m, m, m, m, m, ledger, penalties, reputation, m, m.BeginTx)
	lc.now = func() time.Time { return now }
	return m, lc, penalties, ledger
}

func addUser(m *memStore, id uint64, tokens int) *model.User {
	u := &model.User{
		ID:         id,
		Username:   "user",
		FullName:   "User",
		IsActive:   true,
		Tokens:     tokens,
		StarRating: 5.0,
	}
	m.users[id] = u
	return u
}

func addItem(m *memStore, id, ownerID uint64, rate int, value float64) *model.Item {
	it := &model.Item{
		ID:           id,
		OwnerID:      ownerID,
		Title:        "Cordless Drill",
		Category:     model.CategoryTools,
		Value:        value,
		TokensPerDay: rate,
		Status:       model.ItemAvailable,
	}
	m.items[id] = it
	return it
}
