package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/adimehta/sharesphere/internal/model"
)

// PenaltyRepo wraps access to the pending_penalties table.
type PenaltyRepo struct {
	DB *sql.DB
}

// NewPenaltyRepo creates a new pending-penalty repository.
func NewPenaltyRepo(db *sql.DB) *PenaltyRepo {
	return &PenaltyRepo{DB: db}
}

const penaltyColumns = `id, user_id, COALESCE(transaction_id, 0), amount, reason, is_paid, created_at`

func scanPenalty(scan func(dest ...any) error) (*model.PendingPenalty, error) {
	var p model.PendingPenalty
	err := scan(&p.ID, &p.UserID, &p.TransactionID, &p.Amount, &p.Reason, &p.IsPaid, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPenaltyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePending records a penalty the debtor could not cover yet.
func (r *PenaltyRepo) CreatePending(ctx context.Context, p *model.PendingPenalty) error {
	return createPending(ctx, r.DB, p)
}

// CreatePendingTx is CreatePending within an open transaction.
func (r *PenaltyRepo) CreatePendingTx(ctx context.Context, tx *sql.Tx, p *model.PendingPenalty) error {
	return createPending(ctx, tx, p)
}

func createPending(ctx context.Context, db execer, p *model.PendingPenalty) error {
	const q = `INSERT INTO pending_penalties (user_id, transaction_id, amount, reason)
		VALUES (?, ?, ?, ?)`
	var txID any
	if p.TransactionID != 0 {
		txID = p.TransactionID
	}
	res, err := db.ExecContext(ctx, q, p.UserID, txID, p.Amount, p.Reason)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// UnpaidByUser returns the user's unpaid penalties oldest first, the
// order in which they are settled.
func (r *PenaltyRepo) UnpaidByUser(ctx context.Context, userID uint64) ([]model.PendingPenalty, error) {
	const q = `SELECT ` + penaltyColumns + ` FROM pending_penalties
		WHERE user_id = ? AND is_paid = FALSE
		ORDER BY created_at ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pens := []model.PendingPenalty{}
	for rows.Next() {
		p, err := scanPenalty(rows.Scan)
		if err != nil {
			return nil, err
		}
		pens = append(pens, *p)
	}
	return pens, rows.Err()
}

// GetUnpaid fetches one unpaid penalty belonging to the user.
func (r *PenaltyRepo) GetUnpaid(ctx context.Context, id, userID uint64) (*model.PendingPenalty, error) {
	const q = `SELECT ` + penaltyColumns + ` FROM pending_penalties
		WHERE id = ? AND user_id = ? AND is_paid = FALSE`
	row := r.DB.QueryRowContext(ctx, q, id, userID)
	return scanPenalty(row.Scan)
}

// MarkPaid flags a penalty as settled.
func (r *PenaltyRepo) MarkPaid(ctx context.Context, id uint64) error {
	const q = `UPDATE pending_penalties SET is_paid = TRUE WHERE id = ? AND is_paid = FALSE`
	res, err := r.DB.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPenaltyNotFound
	}
	return nil
}
