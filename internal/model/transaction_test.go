package model

import (
	"testing"
	"time"
)

func TestInclusiveDays(t *testing.T) {
	day := func(d int, hour int) time.Time {
		return time.Date(2026, 3, d, hour, 0, 0, 0, time.UTC)
	}
	cases := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"same day", day(10, 0), day(10, 0), 1},
		{"same day different hours", day(10, 1), day(10, 23), 1},
		{"weekend", day(14, 0), day(15, 0), 2},
		{"full week", day(1, 0), day(7, 0), 7},
	}
	for _, tc := range cases {
		if got := InclusiveDays(tc.start, tc.end); got != tc.want {
			t.Errorf("%s: InclusiveDays = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestConfirmStateEdges(t *testing.T) {
	// Each party's confirmation is idempotent and the only path to
	// ConfirmBoth is through one of the single-party states.
	if s := ConfirmNone.With(PartyOwner); s != ConfirmOwnerOnly {
		t.Errorf("owner first: %v", s)
	}
	if s := ConfirmOwnerOnly.With(PartyOwner); s != ConfirmOwnerOnly {
		t.Errorf("owner twice: %v", s)
	}
	if s := ConfirmOwnerOnly.With(PartyBorrower); s != ConfirmBoth {
		t.Errorf("borrower completes: %v", s)
	}
	if s := ConfirmBorrowerOnly.With(PartyOwner); s != ConfirmBoth {
		t.Errorf("owner completes: %v", s)
	}
	if s := ConfirmBoth.With(PartyBorrower); s != ConfirmBoth {
		t.Errorf("confirm after both: %v", s)
	}
}

func TestConfirmStateRoundTrips(t *testing.T) {
	for _, s := range []ConfirmState{ConfirmNone, ConfirmOwnerOnly, ConfirmBorrowerOnly, ConfirmBoth} {
		o, b := s.Flags()
		if got := ConfirmStateOf(o, b); got != s {
			t.Errorf("ConfirmStateOf(%v, %v) = %v, want %v", o, b, got, s)
		}
	}
}

func TestPartyOf(t *testing.T) {
	tx := &Transaction{OwnerID: 7, BorrowerID: 9}
	if p := tx.PartyOf(7); p != PartyOwner {
		t.Errorf("owner: %v", p)
	}
	if p := tx.PartyOf(9); p != PartyBorrower {
		t.Errorf("borrower: %v", p)
	}
	if p := tx.PartyOf(3); p != 0 {
		t.Errorf("stranger: %v", p)
	}
	if id := tx.Counterpart(7); id != 9 {
		t.Errorf("counterpart of owner: %d", id)
	}
	if id := tx.Counterpart(9); id != 7 {
		t.Errorf("counterpart of borrower: %d", id)
	}
}
