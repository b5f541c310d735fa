package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jparise/gh-search/internal/storage"
)

type historyStore struct {
	db *sql.DB
}

var _ storage.HistoryStore = (*historyStore)(nil)

func (s *historyStore) Save(ctx context.Context, entry *storage.HistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	filters, err := json.Marshal(entry.Filters)
	if err != nil {
		return fmt.Errorf("marshalling filters: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO search_history (id, user_id, query, filters, result_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.UserID, entry.Query, string(filters), entry.ResultCount, formatTime(entry.CreatedAt))
	if err != nil {
		return fmt.Errorf("saving history entry: %w", err)
	}
	return nil
}

func (s *historyStore) List(ctx context.Context, userID string, since time.Time, limit int) ([]storage.HistoryEntry, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, query, filters, result_count, created_at
		FROM search_history
		WHERE user_id = ? AND created_at > ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, formatTime(since), limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []storage.HistoryEntry
	for rows.Next() {
		entry, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func (s *historyStore) Clear(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM search_history WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("clearing history: %w", err)
	}
	return res.RowsAffected()
}

func scanHistoryEntry(row scanner) (*storage.HistoryEntry, error) {
	var (
		entry     storage.HistoryEntry
		filters   string
		createdAt string
	)
	if err := row.Scan(&entry.ID, &entry.UserID, &entry.Query, &filters, &entry.ResultCount, &createdAt); err != nil {
		return nil, fmt.Errorf("scanning history entry: %w", err)
	}
	if err := json.Unmarshal([]byte(filters), &entry.Filters); err != nil {
		return nil, fmt.Errorf("unmarshaling filters: %w", err)
	}

	var err error
	if entry.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &entry, nil
}
