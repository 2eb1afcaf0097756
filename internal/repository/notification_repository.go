package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/mone/internal/model"
)

const notificationColumns = "id,user_id,request_id,title,body,created_at,is_read"

// NotificationRepo reads and writes the 'notifications' table.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

func scanNotification(row rowScanner) (model.Notification, error) {
	var (
		n         model.Notification
		requestID sql.NullString
	)
	if err := row.Scan(&n.ID, &n.UserID, &requestID, &n.Title, &n.Body, &n.CreatedAt, &n.Read); err != nil {
		return model.Notification{}, err
	}
	n.RequestID = requestID.String
	return n, nil
}

// GetByID fetches one notification.
func (r *NotificationRepo) GetByID(ctx context.Context, id string) (model.Notification, error) {
	n, err := scanNotification(r.DB.QueryRowContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE id=? LIMIT 1", id))
	if err != nil {
		return model.Notification{}, notFound(err, "notification", id)
	}
	return n, nil
}

func listNotifications(ctx context.Context, q querier, userID string) ([]model.Notification, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE user_id=? ORDER BY created_at, id", userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()
	var out []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CreateBulkTx inserts ns in a single statement. Passing an empty slice
// has no effect.
func (r *NotificationRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, ns []model.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	query := "INSERT INTO notifications (" + notificationColumns + ") VALUES "
	args := make([]any, 0, len(ns)*7)
	for i, n := range ns {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?)"
		var requestID any
		if n.RequestID != "" {
			requestID = n.RequestID
		}
		args = append(args, n.ID, n.UserID, requestID, n.Title, n.Body, n.CreatedAt, n.Read)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert notifications: %w", err)
	}
	return nil
}

// MarkRead flags one notification read.
func (r *NotificationRepo) MarkRead(ctx context.Context, id string) error {
	if _, err := r.DB.ExecContext(ctx, "UPDATE notifications SET is_read=1 WHERE id=?", id); err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	return nil
}

// MarkAllRead flags every unread notification of userID and returns how
// many changed.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "UPDATE notifications SET is_read=1 WHERE user_id=? AND is_read=0", userID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications of %s read: %w", userID, err)
	}
	return res.RowsAffected()
}

// DeleteAll removes every notification of userID.
func (r *NotificationRepo) DeleteAll(ctx context.Context, userID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM notifications WHERE user_id=?", userID)
	if err != nil {
		return 0, fmt.Errorf("clear notifications of %s: %w", userID, err)
	}
	return res.RowsAffected()
}
