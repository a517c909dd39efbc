package repository

import (
	"context"
	"database/sql"

	"github.com/adimehta/sharesphere/internal/model"
)

// LedgerRepo wraps access to the append-only ledger_entries table.
type LedgerRepo struct {
	DB *sql.DB
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(db *sql.DB) *LedgerRepo {
	return &LedgerRepo{DB: db}
}

// AppendEntry inserts one ledger entry. Entries are never updated or
// deleted afterwards.
func (r *LedgerRepo) AppendEntry(ctx context.Context, e *model.LedgerEntry) error {
	return appendEntry(ctx, r.DB, e)
}

// AppendEntryTx is AppendEntry within an open transaction.
func (r *LedgerRepo) AppendEntryTx(ctx context.Context, tx *sql.Tx, e *model.LedgerEntry) error {
	return appendEntry(ctx, tx, e)
}

func appendEntry(ctx context.Context, db execer, e *model.LedgerEntry) error {
	const q = `INSERT INTO ledger_entries (user_id, amount, entry_type, description, transaction_id)
		VALUES (?, ?, ?, ?, ?)`
	var txID any
	if e.TransactionID != 0 {
		txID = e.TransactionID
	}
	res, err := db.ExecContext(ctx, q, e.UserID, e.Amount, e.Type, e.Description, txID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// ListByUser returns the user's ledger history, newest first.
func (r *LedgerRepo) ListByUser(ctx context.Context, userID uint64, limit, offset int) ([]*model.LedgerEntry, error) {
	const q = `SELECT id, user_id, amount, entry_type, description,
		COALESCE(transaction_id, 0), created_at
		FROM ledger_entries WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*model.LedgerEntry{}
	for rows.Next() {
		var e model.LedgerEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Type, &e.Description,
			&e.TransactionID, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
