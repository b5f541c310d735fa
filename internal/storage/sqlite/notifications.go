package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jparise/gh-search/internal/storage"
)

type notificationStore struct {
	db *sql.DB
}

var _ storage.NotificationStore = (*notificationStore)(nil)

func (s *notificationStore) Broadcast(ctx context.Context, n *storage.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, title, message, created_by, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, n.ID, n.Title, n.Message, n.CreatedBy, formatTime(n.CreatedAt))
	if err != nil {
		return fmt.Errorf("saving notification: %w", err)
	}
	return nil
}

func (s *notificationStore) ListForUser(ctx context.Context, userID string) ([]storage.Notification, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT n.id, n.title, n.message, n.created_by, n.created_at, r.user_id IS NOT NULL
		FROM notifications n
		LEFT JOIN notification_reads r ON r.notification_id = n.id AND r.user_id = ?
		ORDER BY n.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var list []storage.Notification
	for rows.Next() {
		var (
			n         storage.Notification
			createdAt string
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.CreatedBy, &createdAt, &n.Read); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		if n.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func (s *notificationStore) MarkRead(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_reads (notification_id, user_id, read_at)
		SELECT id, ?, ? FROM notifications WHERE id = ?
		ON CONFLICT (notification_id, user_id) DO NOTHING
	`, userID, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}

	// Nothing inserted: either already read or no such notification.
	var exists bool
	err = s.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM notifications WHERE id = ?)", id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking notification: %w", err)
	}
	if !exists {
		return storage.ErrNotFound
	}
	return nil
}
