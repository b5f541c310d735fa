// Package storage defines the records persisted alongside searches and the
// stores that hold them. The sqlite subpackage provides the implementation.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jparise/gh-search/internal/search"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// User is a person known to the identity provider. The ID is the provider's
// opaque identifier.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email,omitempty"`
	Name       string    `json:"name,omitempty"`
	IsAdmin    bool      `json:"isAdmin"`
	CreatedAt  time.Time `json:"createdAt"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

// HistoryEntry records one search a user ran.
type HistoryEntry struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	Query       string         `json:"query"`
	Filters     search.Filters `json:"filters"`
	ResultCount int            `json:"resultCount"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// FeedbackStatus is where a feedback item is in triage.
type FeedbackStatus string

const (
	StatusOpen     FeedbackStatus = "open"
	StatusReviewed FeedbackStatus = "reviewed"
	StatusResolved FeedbackStatus = "resolved"
)

// Valid reports whether s is a known status.
func (s FeedbackStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusReviewed, StatusResolved:
		return true
	}
	return false
}

// Feedback is a user's comment on a search or one of its results.
type Feedback struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Query     string         `json:"query,omitempty"`
	ResultID  string         `json:"resultId,omitempty"`
	Rating    int            `json:"rating,omitempty"` // 1-5, 0 when unrated
	Message   string         `json:"message"`
	Status    FeedbackStatus `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Notification is a message broadcast to every user.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	// Read is set per user when listing.
	Read bool `json:"read"`
}

// UserStore persists users.
type UserStore interface {
	// Upsert creates the user or refreshes its email, name and last seen
	// time. The admin flag of an existing user is left unchanged.
	Upsert(ctx context.Context, user User) error
	Get(ctx context.Context, id string) (*User, error)
	SetAdmin(ctx context.Context, id string, admin bool) error
}

// HistoryStore persists search history.
type HistoryStore interface {
	// Save assigns the entry an ID and creation time when they are unset.
	Save(ctx context.Context, entry *HistoryEntry) error

	// List returns a user's entries created after since, newest first. A
	// zero since returns everything; a non-positive limit is unbounded.
	List(ctx context.Context, userID string, since time.Time, limit int) ([]HistoryEntry, error)

	// Clear deletes all of a user's entries and returns how many there were.
	Clear(ctx context.Context, userID string) (int64, error)
}

// FeedbackStore persists feedback.
type FeedbackStore interface {
	// Save assigns the item an ID, timestamps and the open status when
	// they are unset.
	Save(ctx context.Context, fb *Feedback) error
	Get(ctx context.Context, id string) (*Feedback, error)

	// List returns feedback with the given status, newest first. An empty
	// status lists everything.
	List(ctx context.Context, status FeedbackStatus) ([]Feedback, error)
	UpdateStatus(ctx context.Context, id string, status FeedbackStatus) error
}

// NotificationStore persists broadcast notifications and who has read them.
type NotificationStore interface {
	Broadcast(ctx context.Context, n *Notification) error

	// ListForUser returns every notification, newest first, with Read set
	// for the ones userID has marked.
	ListForUser(ctx context.Context, userID string) ([]Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}
