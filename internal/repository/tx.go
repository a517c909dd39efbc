package repository

import (
	"context"
	"database/sql"

	"github.com/adimehta/sharesphere/internal/model"
)

// execer is the statement surface shared by *sql.DB and *sql.Tx. The
// repos route every write through it, so each write method has a plain
// form and a ...Tx form over the same SQL.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store bundles the repos whose rows move together when tokens change
// hands. BeginTx opens a database transaction and hands back a view whose
// writes all ride on it.
type Store struct {
	db      *sql.DB
	users   *UserRepo
	items   *ItemRepo
	txs     *TransactionRepo
	entries *LedgerRepo
	pending *PenaltyRepo
}

func NewStore(db *sql.DB, users *UserRepo, items *ItemRepo, txs *TransactionRepo, entries *LedgerRepo, pending *PenaltyRepo) *Store {
	return &Store{db: db, users: users, items: items, txs: txs, entries: entries, pending: pending}
}

// BeginTx opens a transaction. The caller must Commit or Rollback; the
// returned view is single-use.
func (s *Store) BeginTx(ctx context.Context) (*StoreTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &StoreTx{tx: tx, store: s}, nil
}

// StoreTx is a transaction-scoped view over the economic repos. Its
// methods mirror the plain repo methods but write through one *sql.Tx.
type StoreTx struct {
	tx    *sql.Tx
	store *Store
}

func (t *StoreTx) Commit() error   { return t.tx.Commit() }
func (t *StoreTx) Rollback() error { return t.tx.Rollback() }

func (t *StoreTx) CreditTokens(ctx context.Context, id uint64, amount int) error {
	return t.store.users.CreditTokensTx(ctx, t.tx, id, amount)
}

func (t *StoreTx) DebitTokensIf(ctx context.Context, id uint64, amount int) (bool, error) {
	return t.store.users.DebitTokensIfTx(ctx, t.tx, id, amount)
}

func (t *StoreTx) AddPendingPenalties(ctx context.Context, id uint64, delta int) error {
	return t.store.users.AddPendingPenaltiesTx(ctx, t.tx, id, delta)
}

func (t *StoreTx) AppendEntry(ctx context.Context, e *model.LedgerEntry) error {
	return t.store.entries.AppendEntryTx(ctx, t.tx, e)
}

func (t *StoreTx) CreatePending(ctx context.Context, p *model.PendingPenalty) error {
	return t.store.pending.CreatePendingTx(ctx, t.tx, p)
}

func (t *StoreTx) SetItemStatus(ctx context.Context, id uint64, status string) error {
	return t.store.items.SetItemStatusTx(ctx, t.tx, id, status)
}

func (t *StoreTx) UpdateTransaction(ctx context.Context, tr *model.Transaction) error {
	return t.store.txs.UpdateTransactionTx(ctx, t.tx, tr)
}
