package repository

import (
	"context"
	"database/sql"

	"github.com/adimehta/sharesphere/internal/model"
)

// NotificationRepo wraps access to the notifications table.
type NotificationRepo struct {
	DB *sql.DB
}

// NewNotificationRepo creates a new notification repository.
func NewNotificationRepo(db *sql.DB) *NotificationRepo {
	return &NotificationRepo{DB: db}
}

// CreateNotification inserts one notification row.
func (r *NotificationRepo) CreateNotification(ctx context.Context, n *model.Notification) error {
	const q = `INSERT INTO notifications (user_id, title, message, category, related_id)
		VALUES (?, ?, ?, ?, ?)`
	var related any
	if n.RelatedID != 0 {
		related = n.RelatedID
	}
	res, err := r.DB.ExecContext(ctx, q, n.UserID, n.Title, n.Message, n.Category, related)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return nil
}

// ListByUser returns the user's notifications, newest first, optionally
// unread only.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID uint64, unreadOnly bool, limit int) ([]*model.Notification, error) {
	q := `SELECT id, user_id, title, message, category, COALESCE(related_id, 0), is_read, created_at
		FROM notifications WHERE user_id = ?`
	if unreadOnly {
		q += " AND is_read = FALSE"
	}
	q += " ORDER BY created_at DESC, id DESC LIMIT ?"
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.DB.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []*model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Category,
			&n.RelatedID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}

// CountUnread returns the number of unread notifications for a user.
func (r *NotificationRepo) CountUnread(ctx context.Context, userID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = FALSE`
	var n int
	err := r.DB.QueryRowContext(ctx, q, userID).Scan(&n)
	return n, err
}

// MarkRead flags one of the user's notifications as read.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uint64) error {
	const q = `UPDATE notifications SET is_read = TRUE WHERE id = ? AND user_id = ?`
	res, err := r.DB.ExecContext(ctx, q, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead flags every notification of the user as read.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uint64) error {
	const q = `UPDATE notifications SET is_read = TRUE WHERE user_id = ? AND is_read = FALSE`
	_, err := r.DB.ExecContext(ctx, q, userID)
	return err
}

// Delete removes one of the user's notifications.
func (r *NotificationRepo) Delete(ctx context.Context, id, userID uint64) error {
	const q = `DELETE FROM notifications WHERE id = ? AND user_id = ?`
	res, err := r.DB.ExecContext(ctx, q, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
