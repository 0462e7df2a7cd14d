package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/trznica/internal/model"
)

// CreateNotification stores a notification. A nil UserID records an
// undirected entry, such as an email that had no transport.
func CreateNotification(ctx context.Context, db *sql.DB, userID *string, typ, title, message string, data map[string]any) (*model.Notification, error) {
	if data == nil {
		data = map[string]any{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encoding notification data: %w", err)
	}

	n := &model.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, type, title, message, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, string(raw), n.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}
	return n, nil
}

// ListNotifications returns a user's notifications, newest first.
func ListNotifications(ctx context.Context, db *sql.DB, userID string, limit, offset int) ([]model.Notification, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, user_id, type, title, message, data, created_at
		 FROM notifications WHERE user_id = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	notifications := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		var raw string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &raw, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &n.Data); err != nil {
			return nil, fmt.Errorf("decoding notification data: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// CountOutbox returns the number of undirected email records awaiting a transport.
func CountOutbox(ctx context.Context, db *sql.DB) (int, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id IS NULL AND type = ?`,
		model.NotificationEmail,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting outbox: %w", err)
	}
	return n, nil
}
