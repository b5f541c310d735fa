package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jparise/gh-search/internal/search"
	"github.com/jparise/gh-search/internal/storage"
)

// setupTestStore creates a store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	assert.FileExists(t, store.Path())
	require.NoError(t, store.Close())

	// Reopening must not reapply migrations.
	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	users := setupTestStore(t).Users()

	_, err := users.Get(ctx, "u1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, users.Upsert(ctx, storage.User{ID: "u1", Email: "a@example.com", Name: "A"}))
	require.NoError(t, users.SetAdmin(ctx, "u1", true))

	// Upsert refreshes the profile but keeps the admin flag.
	require.NoError(t, users.Upsert(ctx, storage.User{ID: "u1", Email: "b@example.com", Name: "B"}))

	got, err := users.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", got.Email)
	assert.Equal(t, "B", got.Name)
	assert.True(t, got.IsAdmin)
	assert.False(t, got.CreatedAt.IsZero())

	assert.ErrorIs(t, users.SetAdmin(ctx, "missing", true), storage.ErrNotFound)
}

func TestHistoryStore(t *testing.T) {
	ctx := context.Background()
	history := setupTestStore(t).History()

	base := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	filters := search.DefaultFilters()
	filters.Language = "go"

	for i, q := range []string{"first", "second", "third"} {
		entry := &storage.HistoryEntry{
			UserID:      "u1",
			Query:       q,
			Filters:     filters,
			ResultCount: i,
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, history.Save(ctx, entry))
		assert.NotEmpty(t, entry.ID)
	}
	require.NoError(t, history.Save(ctx, &storage.HistoryEntry{UserID: "u2", Query: "other"}))

	all, err := history.List(ctx, "u1", time.Time{}, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Query)
	assert.Equal(t, 2, all[0].ResultCount)
	assert.Equal(t, filters, all[0].Filters)
	assert.Equal(t, base.Add(2*time.Hour), all[0].CreatedAt)

	recent, err := history.List(ctx, "u1", base.Add(30*time.Minute), 0)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	limited, err := history.List(ctx, "u1", time.Time{}, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "third", limited[0].Query)

	n, err := history.Clear(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	all, err = history.List(ctx, "u1", time.Time{}, 0)
	require.NoError(t, err)
	assert.Empty(t, all)

	others, err := history.List(ctx, "u2", time.Time{}, 0)
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestFeedbackStore(t *testing.T) {
	ctx := context.Background()
	feedback := setupTestStore(t).Feedback()

	fb := &storage.Feedback{UserID: "u1", Query: "react hooks", ResultID: "repo-1", Rating: 4, Message: "useful"}
	require.NoError(t, feedback.Save(ctx, fb))
	assert.NotEmpty(t, fb.ID)
	assert.Equal(t, storage.StatusOpen, fb.Status)

	require.NoError(t, feedback.Save(ctx, &storage.Feedback{
		UserID:    "u2",
		Message:   "broken link",
		CreatedAt: fb.CreatedAt.Add(time.Second),
	}))

	got, err := feedback.Get(ctx, fb.ID)
	require.NoError(t, err)
	assert.Equal(t, "useful", got.Message)
	assert.Equal(t, 4, got.Rating)
	assert.Equal(t, "repo-1", got.ResultID)

	_, err = feedback.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, feedback.UpdateStatus(ctx, fb.ID, storage.StatusResolved))
	assert.ErrorIs(t, feedback.UpdateStatus(ctx, "missing", storage.StatusResolved), storage.ErrNotFound)
	assert.Error(t, feedback.UpdateStatus(ctx, fb.ID, "bogus"))

	open, err := feedback.List(ctx, storage.StatusOpen)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "broken link", open[0].Message)

	resolved, err := feedback.List(ctx, storage.StatusResolved)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, fb.ID, resolved[0].ID)

	all, err := feedback.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "broken link", all[0].Message)
}

func TestNotificationStore(t *testing.T) {
	ctx := context.Background()
	notifications := setupTestStore(t).Notifications()

	older := &storage.Notification{Title: "Welcome", Message: "hello", CreatedBy: "admin"}
	require.NoError(t, notifications.Broadcast(ctx, older))
	newer := &storage.Notification{Title: "Maintenance", Message: "soon", CreatedAt: older.CreatedAt.Add(time.Minute)}
	require.NoError(t, notifications.Broadcast(ctx, newer))

	require.NoError(t, notifications.MarkRead(ctx, "u1", older.ID))
	// Marking twice is fine.
	require.NoError(t, notifications.MarkRead(ctx, "u1", older.ID))
	assert.ErrorIs(t, notifications.MarkRead(ctx, "u1", "missing"), storage.ErrNotFound)

	list, err := notifications.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.False(t, list[0].Read)
	assert.Equal(t, older.ID, list[1].ID)
	assert.True(t, list[1].Read)
	assert.Equal(t, "admin", list[1].CreatedBy)

	list, err = notifications.ListForUser(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[0].Read)
	assert.False(t, list[1].Read)
}
