package service

import (
	"context"
	"fmt"

	"github.com/adimehta/sharesphere/internal/model"
)

// PendingSettler is the post-credit hook the ledger invokes after every
// credit, normally the penalty engine's FIFO sweep.
type PendingSettler interface {
	SettlePending(ctx context.Context, userID uint64) error
}

// tokenMover and entrySink are the balance and entry surfaces a movement
// writes. Both the live stores and an open EconomyTx satisfy them, so the
// same movement code runs standalone or inside a transaction.
type tokenMover interface {
	CreditTokens(ctx context.Context, id uint64, amount int) error
	DebitTokensIf(ctx context.Context, id uint64, amount int) (bool, error)
	AddPendingPenalties(ctx context.Context, id uint64, delta int) error
}

type entrySink interface {
	AppendEntry(ctx context.Context, e *model.LedgerEntry) error
}

// Ledger owns all token balance movements. Every movement writes exactly
// one immutable ledger entry; the raw balance is adjusted first and any
// pending penalties are swept afterwards against the increased balance.
type Ledger struct {
	users   UserStore
	entries LedgerStore
	settler PendingSettler
}

func NewLedger(users UserStore, entries LedgerStore, settler PendingSettler) *Ledger {
	return &Ledger{users: users, entries: entries, settler: settler}
}

// Credit adds amount to the user's balance, appends the ledger entry, then
// runs the pending-penalty sweep so that owed penalties are satisfied out
// of the new funds before the user effectively sees them.
func (l *Ledger) Credit(ctx context.Context, userID uint64, amount int, entryType, description string, transactionID uint64) error {
	if err := creditMove(ctx, l.users, l.entries, userID, amount, entryType, description, transactionID); err != nil {
		return err
	}
	return l.settler.SettlePending(ctx, userID)
}

// CreditTx is Credit within an open transaction. The pending-penalty
// sweep is not run here; the caller sweeps after commit.
func (l *Ledger) CreditTx(ctx context.Context, s EconomyTx, userID uint64, amount int, entryType, description string, transactionID uint64) error {
	return creditMove(ctx, s, s, userID, amount, entryType, description, transactionID)
}

// Debit removes amount from the user's balance and appends the ledger
// entry. It exists for the delivery-time exchange, where the balance was
// checked when the borrow request was created; there is no pending
// fallback here: if the balance no longer covers the amount the debit is
// refused with ErrInsufficientBalance and nothing is written.
func (l *Ledger) Debit(ctx context.Context, userID uint64, amount int, entryType, description string, transactionID uint64) error {
	return debitMove(ctx, l.users, l.entries, userID, amount, entryType, description, transactionID)
}

// DebitTx is Debit within an open transaction.
func (l *Ledger) DebitTx(ctx context.Context, s EconomyTx, userID uint64, amount int, entryType, description string, transactionID uint64) error {
	return debitMove(ctx, s, s, userID, amount, entryType, description, transactionID)
}

func creditMove(ctx context.Context, users tokenMover, entries entrySink, userID uint64, amount int, entryType, description string, transactionID uint64) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	if err := users.CreditTokens(ctx, userID, amount); err != nil {
		return err
	}
	return entries.AppendEntry(ctx, &model.LedgerEntry{
		UserID:        userID,
		Amount:        amount,
		Type:          entryType,
		Description:   description,
		TransactionID: transactionID,
	})
}

func debitMove(ctx context.Context, users tokenMover, entries entrySink, userID uint64, amount int, entryType, description string, transactionID uint64) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	ok, err := users.DebitTokensIf(ctx, userID, amount)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInsufficientBalance
	}
	return entries.AppendEntry(ctx, &model.LedgerEntry{
		UserID:        userID,
		Amount:        -amount,
		Type:          entryType,
		Description:   description,
		TransactionID: transactionID,
	})
}
