package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jparise/gh-search/internal/storage"
)

type userStore struct {
	db *sql.DB
}

var _ storage.UserStore = (*userStore)(nil)

func (s *userStore) Upsert(ctx context.Context, user storage.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.LastSeenAt.IsZero() {
		user.LastSeenAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, is_admin, created_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			last_seen_at = excluded.last_seen_at
	`, user.ID, user.Email, user.Name, user.IsAdmin,
		formatTime(user.CreatedAt), formatTime(user.LastSeenAt))
	if err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	return nil
}

func (s *userStore) Get(ctx context.Context, id string) (*storage.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, is_admin, created_at, last_seen_at
		FROM users WHERE id = ?
	`, id)

	var (
		user                storage.User
		createdAt, lastSeen string
	)
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.IsAdmin, &createdAt, &lastSeen); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}

	var err error
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if user.LastSeenAt, err = parseTime(lastSeen); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *userStore) SetAdmin(ctx context.Context, id string, admin bool) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET is_admin = ? WHERE id = ?", admin, id)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return requireRow(res)
}

// requireRow returns ErrNotFound when res affected no rows.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
