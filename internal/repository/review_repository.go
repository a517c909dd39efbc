package repository

import (
	"context"
	"database/sql"

	"github.com/adimehta/sharesphere/internal/model"
)

// ReviewRepo wraps access to the reviews table.
type ReviewRepo struct {
	DB *sql.DB
}

// NewReviewRepo creates a new review repository.
func NewReviewRepo(db *sql.DB) *ReviewRepo {
	return &ReviewRepo{DB: db}
}

// CreateReview inserts one review.
func (r *ReviewRepo) CreateReview(ctx context.Context, rv *model.Review) error {
	const q = `INSERT INTO reviews (transaction_id, reviewer_id, reviewee_id, item_id, rating, comment)
		VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.DB.ExecContext(ctx, q,
		rv.TransactionID, rv.ReviewerID, rv.RevieweeID, rv.ItemID, rv.Rating, rv.Comment)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	return nil
}

// ReviewExists reports whether the reviewer already reviewed this
// transaction.
func (r *ReviewRepo) ReviewExists(ctx context.Context, txID, reviewerID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM reviews WHERE transaction_id = ? AND reviewer_id = ?`
	var n int
	if err := r.DB.QueryRowContext(ctx, q, txID, reviewerID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountByTransaction returns how many reviews exist for the transaction.
func (r *ReviewRepo) CountByTransaction(ctx context.Context, txID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM reviews WHERE transaction_id = ?`
	var n int
	err := r.DB.QueryRowContext(ctx, q, txID).Scan(&n)
	return n, err
}

// RatingStats returns the sum and count of ratings received by a user,
// the inputs to the mean star rating.
func (r *ReviewRepo) RatingStats(ctx context.Context, revieweeID uint64) (sum, count int, err error) {
	const q = `SELECT COALESCE(SUM(rating), 0), COUNT(*) FROM reviews WHERE reviewee_id = ?`
	err = r.DB.QueryRowContext(ctx, q, revieweeID).Scan(&sum, &count)
	return sum, count, err
}

// ListByReviewee returns reviews received by a user, newest first.
func (r *ReviewRepo) ListByReviewee(ctx context.Context, revieweeID uint64) ([]*model.Review, error) {
	const q = `SELECT id, transaction_id, reviewer_id, reviewee_id, item_id, rating, comment, created_at
		FROM reviews WHERE reviewee_id = ? ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, q, revieweeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []*model.Review{}
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.TransactionID, &rv.ReviewerID, &rv.RevieweeID,
			&rv.ItemID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		reviews = append(reviews, &rv)
	}
	return reviews, rows.Err()
}
