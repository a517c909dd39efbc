package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/adimehta/sharesphere/internal/model"
)

// UserRepo wraps access to the users table.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepo creates a new user repository.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

const userColumns = `id, email, username, password_hash, full_name, location, phone,
	is_active, tokens, pending_penalties, star_rating, total_reviews,
	complaint_count, is_banned, success_rate, completed_transactions,
	failed_transactions, created_at`

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FullName,
		&u.Location, &u.Phone, &u.IsActive, &u.Tokens, &u.PendingPenalties,
		&u.StarRating, &u.TotalReviews, &u.ComplaintCount, &u.IsBanned,
		&u.SuccessRate, &u.CompletedTxCount, &u.FailedTxCount, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user with the starting token balance. Duplicate
// email or username surfaces as ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `INSERT INTO users
		(email, username, password_hash, full_name, location, phone, tokens, star_rating, success_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.DB.ExecContext(ctx, q,
		u.Email, u.Username, u.PasswordHash, u.FullName, u.Location, u.Phone,
		model.StartingTokens, 5.0, 100.0,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.Tokens = model.StartingTokens
	u.StarRating = 5.0
	u.SuccessRate = 100.0
	u.IsActive = true
	return nil
}

// GetUser fetches a user by id.
func (r *UserRepo) GetUser(ctx context.Context, id uint64) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(r.DB.QueryRowContext(ctx, q, id))
}

// GetByIdentifier fetches a user by email or username, for login.
func (r *UserRepo) GetByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = ? OR username = ?`
	return scanUser(r.DB.QueryRowContext(ctx, q, identifier, identifier))
}

// CreditTokens adds amount to a user's balance.
func (r *UserRepo) CreditTokens(ctx context.Context, id uint64, amount int) error {
	return creditTokens(ctx, r.DB, id, amount)
}

// CreditTokensTx is CreditTokens within an open transaction.
func (r *UserRepo) CreditTokensTx(ctx context.Context, tx *sql.Tx, id uint64, amount int) error {
	return creditTokens(ctx, tx, id, amount)
}

func creditTokens(ctx context.Context, db execer, id uint64, amount int) error {
	const q = `UPDATE users SET tokens = tokens + ? WHERE id = ?`
	res, err := db.ExecContext(ctx, q, amount, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DebitTokensIf subtracts amount only when the balance covers it. The
// conditional update keeps balances non-negative under concurrent debits.
func (r *UserRepo) DebitTokensIf(ctx context.Context, id uint64, amount int) (bool, error) {
	return debitTokensIf(ctx, r.DB, id, amount)
}

// DebitTokensIfTx is DebitTokensIf within an open transaction.
func (r *UserRepo) DebitTokensIfTx(ctx context.Context, tx *sql.Tx, id uint64, amount int) (bool, error) {
	return debitTokensIf(ctx, tx, id, amount)
}

func debitTokensIf(ctx context.Context, db execer, id uint64, amount int) (bool, error) {
	const q = `UPDATE users SET tokens = tokens - ? WHERE id = ? AND tokens >= ?`
	res, err := db.ExecContext(ctx, q, amount, id, amount)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AddPendingPenalties adjusts the unpaid penalty sum by delta, which may
// be negative when a pending penalty is settled.
func (r *UserRepo) AddPendingPenalties(ctx context.Context, id uint64, delta int) error {
	return addPendingPenalties(ctx, r.DB, id, delta)
}

// AddPendingPenaltiesTx is AddPendingPenalties within an open transaction.
func (r *UserRepo) AddPendingPenaltiesTx(ctx context.Context, tx *sql.Tx, id uint64, delta int) error {
	return addPendingPenalties(ctx, tx, id, delta)
}

func addPendingPenalties(ctx context.Context, db execer, id uint64, delta int) error {
	const q = `UPDATE users SET pending_penalties = pending_penalties + ? WHERE id = ?`
	_, err := db.ExecContext(ctx, q, delta, id)
	return err
}

// SetRating stores a recomputed star rating and review count.
func (r *UserRepo) SetRating(ctx context.Context, id uint64, rating float64, totalReviews int) error {
	const q = `UPDATE users SET star_rating = ?, total_reviews = ? WHERE id = ?`
	_, err := r.DB.ExecContext(ctx, q, rating, totalReviews, id)
	return err
}

// ApplyComplaint folds one complaint into the user's reputation row in a
// single statement: increment the complaint count, halve the star rating
// and set the ban flag at the threshold. MySQL evaluates SET clauses left
// to right, so the ban comparison sees the incremented count. It reports
// whether the account is banned after this complaint.
func (r *UserRepo) ApplyComplaint(ctx context.Context, id uint64) (bool, error) {
	const q = `UPDATE users SET
		complaint_count = complaint_count + 1,
		star_rating = star_rating / 2,
		is_banned = is_banned OR complaint_count >= ?
		WHERE id = ?`
	res, err := r.DB.ExecContext(ctx, q, model.BanThreshold, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, ErrUserNotFound
	}
	var banned bool
	err = r.DB.QueryRowContext(ctx, `SELECT is_banned FROM users WHERE id = ?`, id).Scan(&banned)
	return banned, err
}

// SetSuccessRate stores the recomputed completion statistics.
func (r *UserRepo) SetSuccessRate(ctx context.Context, id uint64, rate float64, completed, failed int) error {
	const q = `UPDATE users SET success_rate = ?, completed_transactions = ?, failed_transactions = ? WHERE id = ?`
	_, err := r.DB.ExecContext(ctx, q, rate, completed, failed, id)
	return err
}

// UpdateProfile changes the editable identity fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, fullName, location, phone string) error {
	const q = `UPDATE users SET full_name = ?, location = ?, phone = ? WHERE id = ?`
	_, err := r.DB.ExecContext(ctx, q, fullName, location, phone, id)
	return err
}

// CountActive returns how many accounts are active and not banned.
func (r *UserRepo) CountActive(ctx context.Context) (int, error) {
	const q = `SELECT COUNT(*) FROM users WHERE is_active = TRUE AND is_banned = FALSE`
	var n int
	err := r.DB.QueryRowContext(ctx, q).Scan(&n)
	return n, err
}

// Deactivate soft-deletes an account. The row stays so ledger history and
// reviews keep their referents.
func (r *UserRepo) Deactivate(ctx context.Context, id uint64) error {
	const q = `UPDATE users SET is_active = FALSE WHERE id = ?`
	res, err := r.DB.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
