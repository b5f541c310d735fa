// Package identity syncs users supplied by the identity provider into the
// user store.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jparise/gh-search/internal/storage"
)

// ErrMissingID is returned for an identity without an ID.
var ErrMissingID = errors.New("identity has no user ID")

// Identity is a user as reported by the identity provider.
type Identity struct {
	ID    string
	Email string
	Name  string
}

// SyncedSet is a concurrency-safe set of user IDs that have already been
// synced. Entries never expire.
type SyncedSet struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewSyncedSet returns an empty set.
func NewSyncedSet() *SyncedSet {
	return &SyncedSet{ids: make(map[string]struct{})}
}

func (s *SyncedSet) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

func (s *SyncedSet) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = struct{}{}
}

func (s *SyncedSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Syncer upserts each identity into the user store at most once per set.
type Syncer struct {
	users  storage.UserStore
	synced *SyncedSet
}

// NewSyncer creates a Syncer. A nil set gets a fresh one.
func NewSyncer(users storage.UserStore, synced *SyncedSet) *Syncer {
	if synced == nil {
		synced = NewSyncedSet()
	}
	return &Syncer{users: users, synced: synced}
}

// Ensure makes sure the user exists in the store. Identities already synced
// are skipped; a failed sync is retried on the next call.
func (s *Syncer) Ensure(ctx context.Context, id Identity) error {
	id.ID = strings.TrimSpace(id.ID)
	if id.ID == "" {
		return ErrMissingID
	}
	if s.synced.Contains(id.ID) {
		return nil
	}

	err := s.users.Upsert(ctx, storage.User{ID: id.ID, Email: id.Email, Name: id.Name})
	if err != nil {
		return fmt.Errorf("failed to sync user %s: %w", id.ID, err)
	}
	s.synced.Add(id.ID)
	return nil
}
