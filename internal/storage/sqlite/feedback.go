package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jparise/gh-search/internal/storage"
)

type feedbackStore struct {
	db *sql.DB
}

var _ storage.FeedbackStore = (*feedbackStore)(nil)

const feedbackColumns = "id, user_id, query, result_id, rating, message, status, created_at, updated_at"

func (s *feedbackStore) Save(ctx context.Context, fb *storage.Feedback) error {
	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	if fb.Status == "" {
		fb.Status = storage.StatusOpen
	}
	if !fb.Status.Valid() {
		return fmt.Errorf("invalid feedback status %q", fb.Status)
	}
	now := time.Now().UTC()
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = now
	}
	fb.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (`+feedbackColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, fb.ID, fb.UserID, fb.Query, fb.ResultID, fb.Rating, fb.Message, string(fb.Status),
		formatTime(fb.CreatedAt), formatTime(fb.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving feedback: %w", err)
	}
	return nil
}

func (s *feedbackStore) Get(ctx context.Context, id string) (*storage.Feedback, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+feedbackColumns+" FROM feedback WHERE id = ?", id)
	fb, err := scanFeedback(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return fb, err
}

func (s *feedbackStore) List(ctx context.Context, status storage.FeedbackStatus) ([]storage.Feedback, error) {
	query := "SELECT " + feedbackColumns + " FROM feedback"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying feedback: %w", err)
	}
	defer rows.Close()

	var items []storage.Feedback
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *fb)
	}
	return items, rows.Err()
}

func (s *feedbackStore) UpdateStatus(ctx context.Context, id string, status storage.FeedbackStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid feedback status %q", status)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE feedback SET status = ?, updated_at = ? WHERE id = ?",
		string(status), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("updating feedback: %w", err)
	}
	return requireRow(res)
}

func scanFeedback(row scanner) (*storage.Feedback, error) {
	var (
		fb                   storage.Feedback
		status               string
		createdAt, updatedAt string
	)
	err := row.Scan(&fb.ID, &fb.UserID, &fb.Query, &fb.ResultID, &fb.Rating, &fb.Message,
		&status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning feedback: %w", err)
	}
	fb.Status = storage.FeedbackStatus(status)

	if fb.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if fb.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &fb, nil
}
