package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/adimehta/sharesphere/internal/model"
)

// ItemRepo wraps access to the items table.
type ItemRepo struct {
	DB *sql.DB
}

// NewItemRepo creates a new item repository.
func NewItemRepo(db *sql.DB) *ItemRepo {
	return &ItemRepo{DB: db}
}

// ItemFilter narrows List results. Zero values mean "no constraint".
type ItemFilter struct {
	Category    string
	Location    string
	Search      string
	MinRate     int
	MaxRate     int
	AvailableOn time.Time
	Status      string
	Limit       int
	Offset      int
}

const itemColumns = `id, owner_id, title, description, category, value, tokens_per_day,
	status, available_from, available_until, location, images, total_borrows, created_at`

func scanItem(scan func(dest ...any) error) (*model.Item, error) {
	var it model.Item
	var images string
	err := scan(
		&it.ID, &it.OwnerID, &it.Title, &it.Description, &it.Category,
		&it.Value, &it.TokensPerDay, &it.Status, &it.AvailableFrom,
		&it.AvailableUntil, &it.Location, &images, &it.TotalBorrows, &it.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	it.Images = decodeStrings(images)
	return &it, nil
}

// Create inserts a new listing in AVAILABLE status.
func (r *ItemRepo) Create(ctx context.Context, it *model.Item) error {
	const q = `INSERT INTO items
		(owner_id, title, description, category, value, tokens_per_day, status,
		 available_from, available_until, location, images)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.DB.ExecContext(ctx, q,
		it.OwnerID, it.Title, it.Description, it.Category, it.Value,
		it.TokensPerDay, model.ItemAvailable, it.AvailableFrom,
		it.AvailableUntil, it.Location, encodeStrings(it.Images),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	it.ID = uint64(id)
	it.Status = model.ItemAvailable
	return nil
}

// GetItem fetches an item by id.
func (r *ItemRepo) GetItem(ctx context.Context, id uint64) (*model.Item, error) {
	const q = `SELECT ` + itemColumns + ` FROM items WHERE id = ?`
	row := r.DB.QueryRowContext(ctx, q, id)
	return scanItem(row.Scan)
}

// List returns listings matching the filter, newest first.
func (r *ItemRepo) List(ctx context.Context, f ItemFilter) ([]*model.Item, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + itemColumns + ` FROM items WHERE 1=1`)
	args := []any{}
	if f.Status != "" {
		sb.WriteString(" AND status = ?")
		args = append(args, f.Status)
	}
	if f.Category != "" {
		sb.WriteString(" AND category = ?")
		args = append(args, f.Category)
	}
	if f.Location != "" {
		sb.WriteString(" AND location LIKE ?")
		args = append(args, "%"+f.Location+"%")
	}
	if f.Search != "" {
		sb.WriteString(" AND (title LIKE ? OR description LIKE ?)")
		pat := "%" + f.Search + "%"
		args = append(args, pat, pat)
	}
	if f.MinRate > 0 {
		sb.WriteString(" AND tokens_per_day >= ?")
		args = append(args, f.MinRate)
	}
	if f.MaxRate > 0 {
		sb.WriteString(" AND tokens_per_day <= ?")
		args = append(args, f.MaxRate)
	}
	if !f.AvailableOn.IsZero() {
		sb.WriteString(" AND available_from <= ? AND available_until >= ?")
		args = append(args, f.AvailableOn, f.AvailableOn)
	}
	sb.WriteString(" ORDER BY created_at DESC")
	if f.Limit > 0 {
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.DB.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

// ListByOwner returns every listing belonging to a user, newest first.
func (r *ItemRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*model.Item, error) {
	const q = `SELECT ` + itemColumns + ` FROM items WHERE owner_id = ? ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectItems(rows)
}

func collectItems(rows *sql.Rows) ([]*model.Item, error) {
	items := []*model.Item{}
	for rows.Next() {
		it, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Update changes the editable fields of a listing.
func (r *ItemRepo) Update(ctx context.Context, it *model.Item) error {
	const q = `UPDATE items SET title = ?, description = ?, category = ?, value = ?,
		tokens_per_day = ?, available_from = ?, available_until = ?, location = ?, images = ?
		WHERE id = ?`
	_, err := r.DB.ExecContext(ctx, q,
		it.Title, it.Description, it.Category, it.Value, it.TokensPerDay,
		it.AvailableFrom, it.AvailableUntil, it.Location, encodeStrings(it.Images), it.ID,
	)
	return err
}

// SetItemStatusIf moves the item from one status to another only if it is
// currently in the expected status. Reports whether the move happened.
func (r *ItemRepo) SetItemStatusIf(ctx context.Context, id uint64, from, to string) (bool, error) {
	const q = `UPDATE items SET status = ? WHERE id = ? AND status = ?`
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

// SetItemStatus sets the status unconditionally.
func (r *ItemRepo) SetItemStatus(ctx context.Context, id uint64, status string) error {
	return setItemStatus(ctx, r.DB, id, status)
}

// SetItemStatusTx is SetItemStatus within an open transaction.
func (r *ItemRepo) SetItemStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	return setItemStatus(ctx, tx, id, status)
}

func setItemStatus(ctx context.Context, db execer, id uint64, status string) error {
	const q = `UPDATE items SET status = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, q, status, id)
	return err
}

// IncrementBorrows bumps the lifetime borrow counter.
func (r *ItemRepo) IncrementBorrows(ctx context.Context, id uint64) error {
	const q = `UPDATE items SET total_borrows = total_borrows + 1 WHERE id = ?`
	_, err := r.DB.ExecContext(ctx, q, id)
	return err
}

// HasActiveTransaction reports whether the item is referenced by any
// transaction that is not yet terminal.
func (r *ItemRepo) HasActiveTransaction(ctx context.Context, id uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM lending_transactions
		WHERE item_id = ? AND status NOT IN (?, ?)`
	var n int
	err := r.DB.QueryRowContext(ctx, q, id, model.TxCompleted, model.TxCancelled).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes a listing. Deletion is refused while an active
// transaction references the item.
func (r *ItemRepo) Delete(ctx context.Context, id uint64) error {
	active, err := r.HasActiveTransaction(ctx, id)
	if err != nil {
		return err
	}
	if active {
		return ErrConflict
	}
	const q = `DELETE FROM items WHERE id = ?`
	res, err := r.DB.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrItemNotFound
	}
	return nil
}

// DeleteByOwner removes every listing of a user that has no active
// transaction; part of account deactivation.
func (r *ItemRepo) DeleteByOwner(ctx context.Context, ownerID uint64) error {
	const q = `DELETE FROM items WHERE owner_id = ? AND id NOT IN
		(SELECT item_id FROM lending_transactions WHERE status NOT IN (?, ?))`
	_, err := r.DB.ExecContext(ctx, q, ownerID, model.TxCompleted, model.TxCancelled)
	return err
}
