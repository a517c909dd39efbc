package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adimehta/sharesphere/internal/model"
)

func TestCreditSweepsPendingPenalties(t *testing.T) {
	m, _, penalties, ledger := newTestCore(t, time.Now())
	addUser(m, 1, 5)
	ctx := context.Background()

	// 8-token penalty the user cannot cover yet.
	if err := penalties.Apply(ctx, 1, 8, "late return", 2); err != nil {
		t.Fatal(err)
	}
	if m.users[1].Tokens != 5 || m.users[1].PendingPenalties != 8 {
		t.Fatalf("setup: balance=%d pending=%d", m.users[1].Tokens, m.users[1].PendingPenalties)
	}

	// A 10-token credit lifts the balance to 15; the sweep takes 8.
	if err := ledger.Credit(ctx, 1, 10, model.LedgerEarned, "Lent Cordless Drill", 9); err != nil {
		t.Fatal(err)
	}
	if m.users[1].Tokens != 7 {
		t.Errorf("balance = %d, want 7", m.users[1].Tokens)
	}
	if m.users[1].PendingPenalties != 0 {
		t.Errorf("pending sum = %d, want 0", m.users[1].PendingPenalties)
	}

	entries := m.entriesFor(1)
	if len(entries) != 2 {
		t.Fatalf("want 2 entries (credit + penalty), got %d", len(entries))
	}
	if entries[0].Amount != 10 || entries[0].Type != model.LedgerEarned {
		t.Errorf("first entry = %+v, want +10 EARNED", entries[0])
	}
	if entries[1].Amount != -8 || entries[1].Type != model.LedgerPenalty {
		t.Errorf("second entry = %+v, want -8 PENALTY", entries[1])
	}
}

func TestDebitRefusedBelowBalance(t *testing.T) {
	m, _, _, ledger := newTestCore(t, time.Now())
	addUser(m, 1, 20)

	err := ledger.Debit(context.Background(), 1, 30, model.LedgerSpent, "Borrowed Cordless Drill", 4)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("got %v, want ErrInsufficientBalance", err)
	}
	if m.users[1].Tokens != 20 {
		t.Errorf("balance changed on refused debit: %d", m.users[1].Tokens)
	}
	if n := len(m.entriesFor(1)); n != 0 {
		t.Errorf("refused debit wrote %d entries", n)
	}
}

func TestDebitWritesNegativeEntry(t *testing.T) {
	m, _, _, ledger := newTestCore(t, time.Now())
	addUser(m, 1, 50)

	if err := ledger.Debit(context.Background(), 1, 30, model.LedgerSpent, "Borrowed Cordless Drill", 4); err != nil {
		t.Fatal(err)
	}
	if m.users[1].Tokens != 20 {
		t.Errorf("balance = %d, want 20", m.users[1].Tokens)
	}
	entries := m.entriesFor(1)
	if len(entries) != 1 || entries[0].Amount != -30 || entries[0].TransactionID != 4 {
		t.Fatalf("entry = %+v, want -30 on tx 4", entries)
	}
}

func TestCreditRejectsNonPositive(t *testing.T) {
	m, _, _, ledger := newTestCore(t, time.Now())
	addUser(m, 1, 50)

	if err := ledger.Credit(context.Background(), 1, 0, model.LedgerEarned, "x", 0); err == nil {
		t.Error("zero credit accepted")
	}
	if err := ledger.Debit(context.Background(), 1, -5, model.LedgerSpent, "x", 0); err == nil {
		t.Error("negative debit accepted")
	}
}
