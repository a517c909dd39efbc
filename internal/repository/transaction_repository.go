package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/adimehta/sharesphere/internal/model"
)

// TransactionRepo wraps access to the lending_transactions table.
type TransactionRepo struct {
	DB *sql.DB
}

// NewTransactionRepo creates a new transaction repository.
func NewTransactionRepo(db *sql.DB) *TransactionRepo {
	return &TransactionRepo{DB: db}
}

const txColumns = `id, item_id, owner_id, borrower_id, status, days_requested,
	start_date, end_date, total_tokens,
	owner_delivery_confirmed, borrower_delivery_confirmed,
	owner_return_confirmed, borrower_return_confirmed,
	delivery_proof_images, return_proof_images,
	damage_reported, damage_severity, damage_images, damage_penalty,
	penalty_tokens, is_reviewed, created_at, approved_at, delivered_at, returned_at`

func scanTransaction(scan func(dest ...any) error) (*model.Transaction, error) {
	var t model.Transaction
	var deliveryProofs, returnProofs, damageImages string
	var severity sql.NullString
	err := scan(
		&t.ID, &t.ItemID, &t.OwnerID, &t.BorrowerID, &t.Status, &t.DaysRequested,
		&t.StartDate, &t.EndDate, &t.TotalTokens,
		&t.OwnerDeliveryConfirmed, &t.BorrowerDeliveryConfirmed,
		&t.OwnerReturnConfirmed, &t.BorrowerReturnConfirmed,
		&deliveryProofs, &returnProofs,
		&t.DamageReported, &severity, &damageImages, &t.DamagePenalty,
		&t.PenaltyTokens, &t.IsReviewed, &t.CreatedAt,
		&t.ApprovedAt, &t.DeliveredAt, &t.ReturnedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	t.DeliveryProofImages = decodeStrings(deliveryProofs)
	t.ReturnProofImages = decodeStrings(returnProofs)
	t.DamageImages = decodeStrings(damageImages)
	t.DamageSeverity = severity.String
	return &t, nil
}

// CreateTransaction inserts a new borrow request in PENDING status.
func (r *TransactionRepo) CreateTransaction(ctx context.Context, t *model.Transaction) error {
	const q = `INSERT INTO lending_transactions
		(item_id, owner_id, borrower_id, status, days_requested, start_date, end_date, total_tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.DB.ExecContext(ctx, q,
		t.ItemID, t.OwnerID, t.BorrowerID, model.TxPending,
		t.DaysRequested, t.StartDate, t.EndDate, t.TotalTokens,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.Status = model.TxPending
	return nil
}

// GetTransaction fetches one transaction by id.
func (r *TransactionRepo) GetTransaction(ctx context.Context, id uint64) (*model.Transaction, error) {
	const q = `SELECT ` + txColumns + ` FROM lending_transactions WHERE id = ?`
	row := r.DB.QueryRowContext(ctx, q, id)
	return scanTransaction(row.Scan)
}

// UpdateTransaction persists the mutable lifecycle fields of t.
func (r *TransactionRepo) UpdateTransaction(ctx context.Context, t *model.Transaction) error {
	return updateTransaction(ctx, r.DB, t)
}

// UpdateTransactionTx is UpdateTransaction within an open transaction.
func (r *TransactionRepo) UpdateTransactionTx(ctx context.Context, tx *sql.Tx, t *model.Transaction) error {
	return updateTransaction(ctx, tx, t)
}

func updateTransaction(ctx context.Context, db execer, t *model.Transaction) error {
	const q = `UPDATE lending_transactions SET
		status = ?,
		owner_delivery_confirmed = ?, borrower_delivery_confirmed = ?,
		owner_return_confirmed = ?, borrower_return_confirmed = ?,
		delivery_proof_images = ?, return_proof_images = ?,
		damage_reported = ?, damage_severity = ?, damage_images = ?, damage_penalty = ?,
		penalty_tokens = ?, is_reviewed = ?,
		approved_at = ?, delivered_at = ?, returned_at = ?
		WHERE id = ?`
	var severity any
	if t.DamageSeverity != "" {
		severity = t.DamageSeverity
	}
	_, err := db.ExecContext(ctx, q,
		t.Status,
		t.OwnerDeliveryConfirmed, t.BorrowerDeliveryConfirmed,
		t.OwnerReturnConfirmed, t.BorrowerReturnConfirmed,
		encodeStrings(t.DeliveryProofImages), encodeStrings(t.ReturnProofImages),
		t.DamageReported, severity, encodeStrings(t.DamageImages), t.DamagePenalty,
		t.PenaltyTokens, t.IsReviewed,
		t.ApprovedAt, t.DeliveredAt, t.ReturnedAt,
		t.ID,
	)
	return err
}

// SetStatusIf moves the transaction from one status to another only if it
// is currently in the expected status. Reports whether the move happened.
func (r *TransactionRepo) SetStatusIf(ctx context.Context, id uint64, from, to string) (bool, error) {
	const q = `UPDATE lending_transactions SET status = ? WHERE id = ? AND status = ?`
	res, err := r.DB.ExecContext(ctx, q, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByUser returns every transaction the user is a party to, newest
// first, optionally filtered by status.
func (r *TransactionRepo) ListByUser(ctx context.Context, userID uint64, status string) ([]*model.Transaction, error) {
	q := `SELECT ` + txColumns + ` FROM lending_transactions
		WHERE (owner_id = ? OR borrower_id = ?)`
	args := []any{userID, userID}
	if status != "" {
		q += " AND status = ?"
		args = append(args, status)
	}
	q += " ORDER BY created_at DESC"

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []*model.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// CompletionCounts returns how many of the user's transactions ended in
// COMPLETED and CANCELLED respectively.
func (r *TransactionRepo) CompletionCounts(ctx context.Context, userID uint64) (completed, cancelled int, err error) {
	const q = `SELECT
		COALESCE(SUM(status = ?), 0),
		COALESCE(SUM(status = ?), 0)
		FROM lending_transactions WHERE owner_id = ? OR borrower_id = ?`
	err = r.DB.QueryRowContext(ctx, q, model.TxCompleted, model.TxCancelled, userID, userID).
		Scan(&completed, &cancelled)
	return completed, cancelled, err
}

// CancelPendingByUser cancels every PENDING transaction the user is a
// party to; part of account deactivation.
func (r *TransactionRepo) CancelPendingByUser(ctx context.Context, userID uint64) error {
	const q = `UPDATE lending_transactions SET status = ?
		WHERE status = ? AND (owner_id = ? OR borrower_id = ?)`
	_, err := r.DB.ExecContext(ctx, q, model.TxCancelled, model.TxPending, userID, userID)
	return err
}

// HasActiveByUser reports whether the user is party to any transaction in
// a non-terminal state past PENDING.
func (r *TransactionRepo) HasActiveByUser(ctx context.Context, userID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM lending_transactions
		WHERE (owner_id = ? OR borrower_id = ?) AND status IN (?, ?, ?)`
	var n int
	err := r.DB.QueryRowContext(ctx, q, userID, userID,
		model.TxApproved, model.TxDelivered, model.TxReturned).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
