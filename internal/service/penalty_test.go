package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adimehta/sharesphere/internal/model"
)

func TestDamagePenalty(t *testing.T) {
	cases := []struct {
		severity string
		value    float64
		want     int
	}{
		{model.SeverityLight, 1000, 250},
		{model.SeverityMedium, 1000, 330},
		{model.SeverityHigh, 1000, 500},
		{model.SeveritySevere, 1000, 1000},
		{model.SeverityMedium, 100, 33},
		{model.SeverityLight, 2, 1}, // truncates to 0, floors at 1
	}
	for _, c := range cases {
		got, err := DamagePenalty(c.value, c.severity)
		if err != nil {
			t.Fatalf("DamagePenalty(%v, %s): %v", c.value, c.severity, err)
		}
		if got != c.want {
			t.Errorf("DamagePenalty(%v, %s) = %d, want %d", c.value, c.severity, got, c.want)
		}
	}

	if _, err := DamagePenalty(1000, "CATASTROPHIC"); !errors.Is(err, ErrInvalidSeverity) {
		t.Errorf("unknown severity: got %v, want ErrInvalidSeverity", err)
	}
}

func TestLatePenalty(t *testing.T) {
	if got := LatePenalty(5, 3); got != 15 {
		t.Errorf("LatePenalty(5, 3) = %d, want 15", got)
	}
	if got := LatePenalty(5, 0); got != 0 {
		t.Errorf("LatePenalty(5, 0) = %d, want 0", got)
	}
	if got := LatePenalty(5, -1); got != 0 {
		t.Errorf("LatePenalty(5, -1) = %d, want 0", got)
	}
}

func TestApplyDeductsWhenAffordable(t *testing.T) {
	m, _, penalties, _ := newTestCore(t, time.Now())
	addUser(m, 1, 100)

	if err := penalties.Apply(context.Background(), 1, 30, "damage", 7); err != nil {
		t.Fatal(err)
	}

	u := m.users[1]
	if u.Tokens != 70 {
		t.Errorf("balance = %d, want 70", u.Tokens)
	}
	if u.PendingPenalties != 0 {
		t.Errorf("pending sum = %d, want 0", u.PendingPenalties)
	}
	entries := m.entriesFor(1)
	if len(entries) != 1 || entries[0].Amount != -30 || entries[0].Type != model.LedgerPenalty {
		t.Fatalf("want one -30 PENALTY entry, got %+v", entries)
	}
	if len(m.pendings) != 0 {
		t.Errorf("want no pending rows, got %d", len(m.pendings))
	}
}

func TestApplyDefersWhenUnaffordable(t *testing.T) {
	m, _, penalties, _ := newTestCore(t, time.Now())
	addUser(m, 1, 10)

	if err := penalties.Apply(context.Background(), 1, 30, "damage", 7); err != nil {
		t.Fatal(err)
	}

	u := m.users[1]
	if u.Tokens != 10 {
		t.Errorf("balance = %d, want 10 (untouched)", u.Tokens)
	}
	if u.PendingPenalties != 30 {
		t.Errorf("pending sum = %d, want 30", u.PendingPenalties)
	}
	// No ledger entry until the penalty is actually paid.
	if n := len(m.entriesFor(1)); n != 0 {
		t.Errorf("want 0 ledger entries, got %d", n)
	}
	if len(m.pendings) != 1 || m.pendings[0].Amount != 30 || m.pendings[0].IsPaid {
		t.Fatalf("want one unpaid pending of 30, got %+v", m.pendings)
	}
}

func TestSettlePendingStopsAtFirstUnaffordable(t *testing.T) {
	m, _, penalties, _ := newTestCore(t, time.Now())
	addUser(m, 1, 0)
	ctx := context.Background()

	// Defer three penalties, oldest first: 30, 5, 10.
	for _, amt := range []int{30, 5, 10} {
		if err := penalties.Apply(ctx, 1, amt, "penalty", 0); err != nil {
			t.Fatal(err)
		}
	}

	// 20 tokens cannot cover the oldest (30); nothing settles, even though
	// 5 and 10 would individually fit.
	m.users[1].Tokens = 20
	if err := penalties.SettlePending(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if m.users[1].Tokens != 20 || m.users[1].PendingPenalties != 45 {
		t.Fatalf("after blocked sweep: balance=%d pending=%d, want 20/45",
			m.users[1].Tokens, m.users[1].PendingPenalties)
	}

	// 40 covers 30 then 5, leaving 5 which cannot cover the last 10.
	m.users[1].Tokens = 40
	if err := penalties.SettlePending(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if m.users[1].Tokens != 5 {
		t.Errorf("balance = %d, want 5", m.users[1].Tokens)
	}
	if m.users[1].PendingPenalties != 10 {
		t.Errorf("pending sum = %d, want 10", m.users[1].PendingPenalties)
	}
	if m.pendings[0].IsPaid != true || m.pendings[1].IsPaid != true || m.pendings[2].IsPaid != false {
		t.Errorf("settlement order wrong: %+v", m.pendings)
	}
	if n := len(m.entriesFor(1)); n != 2 {
		t.Errorf("want 2 ledger entries for the settled penalties, got %d", n)
	}
}

func TestSettlePendingExactlyOne(t *testing.T) {
	m, _, penalties, ledger := newTestCore(t, time.Now())
	addUser(m, 1, 0)
	ctx := context.Background()

	for _, amt := range []int{8, 6} {
		if err := penalties.Apply(ctx, 1, amt, "penalty", 0); err != nil {
			t.Fatal(err)
		}
	}

	// A credit of 10 covers the oldest (8) but the remaining 2 cannot
	// cover the next (6): exactly one settles.
	if err := ledger.Credit(ctx, 1, 10, model.LedgerEarned, "Lent ladder", 0); err != nil {
		t.Fatal(err)
	}
	if m.users[1].Tokens != 2 {
		t.Errorf("balance = %d, want 2", m.users[1].Tokens)
	}
	if m.users[1].PendingPenalties != 6 {
		t.Errorf("pending sum = %d, want 6", m.users[1].PendingPenalties)
	}
	if !m.pendings[0].IsPaid || m.pendings[1].IsPaid {
		t.Errorf("settlement state wrong: %+v", m.pendings)
	}
}

func TestPayPenalty(t *testing.T) {
	m, _, penalties, _ := newTestCore(t, time.Now())
	addUser(m, 1, 0)
	ctx := context.Background()

	if err := penalties.Apply(ctx, 1, 25, "late return", 3); err != nil {
		t.Fatal(err)
	}
	penID := m.pendings[0].ID

	if err := penalties.PayPenalty(ctx, 1, penID); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("broke: got %v, want ErrInsufficientBalance", err)
	}

	m.users[1].Tokens = 30
	if err := penalties.PayPenalty(ctx, 1, penID); err != nil {
		t.Fatal(err)
	}
	if m.users[1].Tokens != 5 || m.users[1].PendingPenalties != 0 {
		t.Errorf("balance=%d pending=%d, want 5/0", m.users[1].Tokens, m.users[1].PendingPenalties)
	}
	if !m.pendings[0].IsPaid {
		t.Error("penalty not marked paid")
	}

	// Paying again, or paying someone else's penalty, fails the lookup.
	if err := penalties.PayPenalty(ctx, 1, penID); !errors.Is(err, ErrPenaltyNotFound) {
		t.Errorf("double pay: got %v, want ErrPenaltyNotFound", err)
	}
}
