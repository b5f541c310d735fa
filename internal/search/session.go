package search

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Token identifies one query issued within a Session.
type Token uint64

// Snapshot is the result state committed by the most recent query.
type Snapshot struct {
	Query     string
	Filters   Filters
	Results   []Result
	UpdatedAt time.Time
}

// Session holds the results of a client's latest query. Each query takes a
// Token from Begin; Commit only accepts the newest token, so a slow stale
// query can never overwrite the results of a newer one.
type Session struct {
	mu       sync.Mutex
	gen      Token
	snapshot Snapshot
}

// Begin starts a new query and returns its token, invalidating all
// previously issued tokens.
func (s *Session) Begin() Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// Current reports whether t is still the newest token.
func (s *Session) Current(t Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t == s.gen
}

// Commit replaces the session's snapshot if t is still the newest token.
// It reports whether the snapshot was accepted.
func (s *Session) Commit(t Token, snap Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t != s.gen {
		return false
	}
	if snap.UpdatedAt.IsZero() {
		snap.UpdatedAt = time.Now()
	}
	s.snapshot = snap
	return true
}

// Snapshot returns the last committed snapshot. The results slice is
// replaced wholesale on commit and must not be modified by callers.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Sessions is a bounded registry of sessions keyed by client session ID.
// The least recently used session is evicted when the registry is full.
type Sessions struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *Session]
}

// NewSessions creates a registry holding at most size sessions.
func NewSessions(size int) (*Sessions, error) {
	cache, err := lru.New[string, *Session](size)
	if err != nil {
		return nil, err
	}
	return &Sessions{cache: cache}, nil
}

// Get returns the session for id, creating it if needed.
func (s *Sessions) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.cache.Get(id); ok {
		return session
	}
	session := &Session{}
	s.cache.Add(id, session)
	return session
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	return s.cache.Len()
}
