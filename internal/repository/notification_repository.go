package repository

import (
	"context"
	"database/sql"

	"github.com/volunteerhub/volunteer-hub/internal/model"
)

// NotificationRepo provides data access to the `notifications` table.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

// Create inserts a notification for its recipient.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO notifications (user_id, content, target_type, target_id) VALUES (?,?,?,?)",
		n.UserID, n.Content, n.TargetType, n.TargetID)
	return err
}

// ListForUser returns one page of the user's notifications, newest first,
// with the total count. unreadOnly restricts the page and the count to
// unread rows.
func (r *NotificationRepo) ListForUser(ctx context.Context, userID uint64, unreadOnly bool, limit, offset int) ([]model.Notification, int, error) {
	where := "user_id=?"
	if unreadOnly {
		where += " AND is_read=0"
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,user_id,content,target_type,target_id,is_read,created_at FROM notifications WHERE "+where+" ORDER BY created_at DESC LIMIT ? OFFSET ?",
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Content, &n.TargetType, &n.TargetID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM notifications WHERE "+where, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// MarkRead flags one notification read. The user id is part of the match
// so nobody can acknowledge someone else's notification by guessing ids;
// a miss on either column reports sql.ErrNoRows.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE notifications SET is_read=1 WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkAllRead flags every unread notification of the user read.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE notifications SET is_read=1 WHERE user_id=? AND is_read=0", userID)
	return err
}
