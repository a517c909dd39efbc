package service

import (
	"context"
	"fmt"

	"github.com/adimehta/sharesphere/internal/model"
)

// DamagePenalty computes the charge for a damage report: a severity-based
// share of the item's declared value, truncated to whole tokens, never
// below 1.
func DamagePenalty(itemValue float64, severity string) (int, error) {
	var pct float64
	switch severity {
	case model.SeverityLight:
		pct = 0.25
	case model.SeverityMedium:
		pct = 0.33
	case model.SeverityHigh:
		pct = 0.50
	case model.SeveritySevere:
		pct = 1.0
	default:
		return 0, ErrInvalidSeverity
	}
	penalty := int(itemValue * pct)
	if penalty < 1 {
		penalty = 1
	}
	return penalty, nil
}

// LatePenalty computes the charge for a late return: the item's daily rate
// for each whole day past the agreed end date. Fractional days are ignored.
func LatePenalty(tokensPerDay, lateDays int) int {
	if lateDays <= 0 {
		return 0
	}
	return tokensPerDay * lateDays
}

// PenaltyEngine assesses penalties against users, deducting immediately
// when the balance covers the charge and deferring to a pending penalty
// otherwise. Settlement of deferred penalties is strictly FIFO and happens
// either through the ledger's post-credit sweep or an explicit payment.
type PenaltyEngine struct {
	users   UserStore
	entries LedgerStore
	pending PenaltyStore
}

func NewPenaltyEngine(users UserStore, entries LedgerStore, pending PenaltyStore) *PenaltyEngine {
	return &PenaltyEngine{users: users, entries: entries, pending: pending}
}

// pendingSink is the deferral surface of the penalty stores; both the
// live stores and an open EconomyTx satisfy it.
type pendingSink interface {
	CreatePending(ctx context.Context, p *model.PendingPenalty) error
}

// Apply charges amount against the user. When the balance covers it the
// debit and its ledger entry are written immediately; otherwise the amount
// is added to the user's pending-penalty sum and a PendingPenalty row is
// created, with no ledger entry until it is eventually paid. The balance
// never goes negative on this path.
func (e *PenaltyEngine) Apply(ctx context.Context, userID uint64, amount int, reason string, transactionID uint64) error {
	return applyPenalty(ctx, e.users, e.entries, e.pending, userID, amount, reason, transactionID)
}

// ApplyTx is Apply within an open transaction.
func (e *PenaltyEngine) ApplyTx(ctx context.Context, s EconomyTx, userID uint64, amount int, reason string, transactionID uint64) error {
	return applyPenalty(ctx, s, s, s, userID, amount, reason, transactionID)
}

func applyPenalty(ctx context.Context, users tokenMover, entries entrySink, pending pendingSink, userID uint64, amount int, reason string, transactionID uint64) error {
	if amount <= 0 {
		return fmt.Errorf("penalty amount must be positive, got %d", amount)
	}
	ok, err := users.DebitTokensIf(ctx, userID, amount)
	if err != nil {
		return err
	}
	if ok {
		return entries.AppendEntry(ctx, &model.LedgerEntry{
			UserID:        userID,
			Amount:        -amount,
			Type:          model.LedgerPenalty,
			Description:   reason,
			TransactionID: transactionID,
		})
	}
	if err := users.AddPendingPenalties(ctx, userID, amount); err != nil {
		return err
	}
	return pending.CreatePending(ctx, &model.PendingPenalty{
		UserID:        userID,
		TransactionID: transactionID,
		Amount:        amount,
		Reason:        reason,
	})
}

// SettlePending sweeps the user's unpaid penalties oldest-first, settling
// each one the current balance affords and stopping at the first it does
// not; later, smaller penalties are never settled ahead of an earlier
// one. Each settled penalty is debited, removed from the pending sum,
// marked paid and recorded in the ledger.
func (e *PenaltyEngine) SettlePending(ctx context.Context, userID uint64) error {
	unpaid, err := e.pending.UnpaidByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, p := range unpaid {
		ok, err := e.users.DebitTokensIf(ctx, userID, p.Amount)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := e.settleOne(ctx, userID, &p); err != nil {
			return err
		}
	}
	return nil
}

// PayPenalty settles a single pending penalty at the user's request.
// Returns ErrPenaltyNotFound when no unpaid penalty matches and
// ErrInsufficientBalance when the balance does not cover it.
func (e *PenaltyEngine) PayPenalty(ctx context.Context, userID, penaltyID uint64) error {
	p, err := e.pending.GetUnpaid(ctx, penaltyID, userID)
	if err != nil {
		return err
	}
	ok, err := e.users.DebitTokensIf(ctx, userID, p.Amount)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInsufficientBalance
	}
	return e.settleOne(ctx, userID, p)
}

func (e *PenaltyEngine) settleOne(ctx context.Context, userID uint64, p *model.PendingPenalty) error {
	if err := e.users.AddPendingPenalties(ctx, userID, -p.Amount); err != nil {
		return err
	}
	if err := e.pending.MarkPaid(ctx, p.ID); err != nil {
		return err
	}
	return e.entries.AppendEntry(ctx, &model.LedgerEntry{
		UserID:        userID,
		Amount:        -p.Amount,
		Type:          model.LedgerPenalty,
		Description:   p.Reason,
		TransactionID: p.TransactionID,
	})
}
