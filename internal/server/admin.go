package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jparise/gh-search/internal/storage"
)

func (s *Server) handleAdminListFeedback(w http.ResponseWriter, r *http.Request) {
	if s.opts.Feedback == nil {
		writeError(w, http.StatusServiceUnavailable, errStoreDisabled)
		return
	}

	status := storage.FeedbackStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid status %q: must be one of open, reviewed, or resolved", status))
		return
	}

	items, err := s.opts.Feedback.List(r.Context(), status)
	if err != nil {
		fail(w, err)
		return
	}
	if items == nil {
		items = []storage.Feedback{}
	}
	writeJSON(w, http.StatusOK, items)
}

type updateFeedbackRequest struct {
	Status storage.FeedbackStatus `json:"status"`
}

func (s *Server) handleAdminUpdateFeedback(w http.ResponseWriter, r *http.Request) {
	if s.opts.Feedback == nil {
		writeError(w, http.StatusServiceUnavailable, errStoreDisabled)
		return
	}

	var req updateFeedbackRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid status %q: must be one of open, reviewed, or resolved", req.Status))
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.opts.Feedback.UpdateStatus(r.Context(), id, req.Status); err != nil {
		fail(w, err)
		return
	}

	fb, err := s.opts.Feedback.Get(r.Context(), id)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fb)
}

type broadcastRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (s *Server) handleAdminBroadcast(w http.ResponseWriter, r *http.Request) {
	if s.opts.Notifications == nil {
		writeError(w, http.StatusServiceUnavailable, errStoreDisabled)
		return
	}

	var req broadcastRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Message = strings.TrimSpace(req.Message)
	if req.Title == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("title and message are required"))
		return
	}

	n := &storage.Notification{
		Title:     req.Title,
		Message:   req.Message,
		CreatedBy: userID(r.Context()),
	}
	if err := s.opts.Notifications.Broadcast(r.Context(), n); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}
