// Package server exposes search, highlighting, history, feedback and
// notifications as a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/jparise/gh-search/internal/activity"
	"github.com/jparise/gh-search/internal/identity"
	"github.com/jparise/gh-search/internal/logger"
	"github.com/jparise/gh-search/internal/search"
	"github.com/jparise/gh-search/internal/storage"
)

// Request headers set by the identity provider's proxy and the client.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderUserName  = "X-User-Name"
	HeaderSessionID = "X-Session-ID"
)

// Searcher runs a query against the upstream.
type Searcher interface {
	Fetch(ctx context.Context, query string, filters search.Filters) ([]search.Result, error)
}

// Options configures a Server. Only Searcher is required; without stores the
// user endpoints respond 503.
type Options struct {
	Searcher Searcher

	Users         storage.UserStore
	History       storage.HistoryStore
	Feedback      storage.FeedbackStore
	Notifications storage.NotificationStore
	Recorder      *activity.Recorder

	AllowedOrigins []string
	Admins         []string // user IDs with admin access
	PageSize       int
	MaxSessions    int

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Server is the HTTP API.
type Server struct {
	opts     Options
	sessions *search.Sessions
	syncer   *identity.Syncer
	router   chi.Router
}

// New creates a Server.
func New(opts Options) (*Server, error) {
	if opts.Searcher == nil {
		return nil, errors.New("server requires a searcher")
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 1000
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	sessions, err := search.NewSessions(opts.MaxSessions)
	if err != nil {
		return nil, err
	}

	s := &Server{opts: opts, sessions: sessions}
	if opts.Users != nil {
		s.syncer = identity.NewSyncer(opts.Users, identity.NewSyncedSet())
	}
	s.router = s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", HeaderUserID, HeaderUserEmail, HeaderUserName, HeaderSessionID},
		MaxAge:         300,
	}))
	r.Use(s.identify)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/search/results", s.handleResults)
		r.Post("/highlight", s.handleHighlight)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)

			r.Get("/history", s.handleListHistory)
			r.Delete("/history", s.handleClearHistory)
			r.Post("/feedback", s.handleFeedback)
			r.Get("/notifications", s.handleListNotifications)
			r.Post("/notifications/{id}/read", s.handleMarkRead)

			r.Route("/admin", func(r chi.Router) {
				r.Use(s.requireAdmin)

				r.Get("/feedback", s.handleAdminListFeedback)
				r.Patch("/feedback/{id}", s.handleAdminUpdateFeedback)
				r.Post("/notifications", s.handleAdminBroadcast)
			})
		})
	})

	return r
}

type contextKey struct{ name string }

var userIDKey = &contextKey{"user-id"}

// userID returns the ID of the requesting user, or "" if anonymous.
func userID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// identify attaches the requesting user's ID to the context and syncs the
// user into the store the first time it is seen. A failed sync is logged
// and does not fail the request.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderUserID)
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}

		if s.syncer != nil {
			err := s.syncer.Ensure(r.Context(), identity.Identity{
				ID:    id,
				Email: r.Header.Get(HeaderUserEmail),
				Name:  r.Header.Get(HeaderUserName),
			})
			if err != nil {
				logger.Warn("%v", err)
			}
		}

		ctx := context.WithValue(r.Context(), userIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID(r.Context()) == "" {
			writeError(w, http.StatusUnauthorized, errSignInRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.isAdmin(r.Context(), userID(r.Context())) {
			writeError(w, http.StatusForbidden, errAdminRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) isAdmin(ctx context.Context, id string) bool {
	if slices.Contains(s.opts.Admins, id) {
		return true
	}
	if s.opts.Users == nil {
		return false
	}
	user, err := s.opts.Users.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Warn("failed to look up user %s: %v", id, err)
		}
		return false
	}
	return user.IsAdmin
}
