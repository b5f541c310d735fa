package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jparise/gh-search/internal/storage"
	"github.com/jparise/gh-search/internal/timeparse"
)

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		writeError(w, http.StatusServiceUnavailable, errStoreDisabled)
		return
	}

	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		d, err := timeparse.ParseDuration(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		since = s.opts.Now().Add(-d)
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := s.opts.History.List(r.Context(), userID(r.Context()), since, limit)
	if err != nil {
		fail(w, err)
		return
	}
	if entries == nil {
		entries = []storage.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		writeError(w, http.StatusServiceUnavailable, errStoreDisabled)
		return
	}

	n, err := s.opts.History.Clear(r.Context(), userID(r.Context()))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

type feedbackRequest struct {
	Query    string `json:"query"`
	ResultID string `json:"resultId"`
	Rating   int    `json:"rating"`
	Message  string `json:"message"`
}

// handleFeedback queues feedback for recording and responds immediately
// with the ID it will be stored under.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if s.opts.Recorder == nil {
		writeError(w, http.StatusServiceUnavailable, errStoreDisabled)
		return
	}

	var req feedbackRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, errMessageRequired)
		return
	}
	if req.Rating < 0 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, errors.New("rating must be between 0 and 5"))
		return
	}

	fb := storage.Feedback{
		ID:        uuid.NewString(),
		UserID:    userID(r.Context()),
		Query:     req.Query,
		ResultID:  req.ResultID,
		Rating:    req.Rating,
		Message:   req.Message,
		Status:    storage.StatusOpen,
		CreatedAt: s.opts.Now().UTC(),
	}
	if !s.opts.Recorder.RecordFeedback(fb) {
		writeError(w, http.StatusServiceUnavailable, errors.New("feedback could not be recorded; please try again"))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": fb.ID})
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	if s.opts.Notifications == nil {
		writeError(w, http.StatusServiceUnavailable, errStoreDisabled)
		return
	}

	list, err := s.opts.Notifications.ListForUser(r.Context(), userID(r.Context()))
	if err != nil {
		fail(w, err)
		return
	}
	if list == nil {
		list = []storage.Notification{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if s.opts.Notifications == nil {
		writeError(w, http.StatusServiceUnavailable, errStoreDisabled)
		return
	}

	err := s.opts.Notifications.MarkRead(r.Context(), userID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
