package server

import (
	"net/http"
	"strconv"

	"github.com/jparise/gh-search/internal/highlight"
	"github.com/jparise/gh-search/internal/search"
	"github.com/jparise/gh-search/internal/storage"
)

type searchRequest struct {
	Query   string          `json:"query"`
	Filters *search.Filters `json:"filters,omitempty"`
	Limit   int             `json:"limit,omitempty"`
}

type searchResponse struct {
	Query   string          `json:"query"`
	Filters search.Filters  `json:"filters"`
	Total   int             `json:"total"`
	Offset  int             `json:"offset"`
	HasMore bool            `json:"hasMore"`
	Results []search.Result `json:"results"`
}

// session returns the caller's session. Requests without a session ID get
// a throwaway one, so they can search but not load more.
func (s *Server) session(r *http.Request) *search.Session {
	id := r.Header.Get(HeaderSessionID)
	if id == "" {
		return &search.Session{}
	}
	return s.sessions.Get(id)
}

func (s *Server) limit(requested int) int {
	if requested <= 0 || requested > 100 {
		return s.opts.PageSize
	}
	return requested
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	filters := search.DefaultFilters()
	if req.Filters != nil {
		filters = *req.Filters
	}
	if err := filters.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	session := s.session(r)
	token := session.Begin()

	results, err := s.opts.Searcher.Fetch(r.Context(), req.Query, filters)
	if err != nil {
		fail(w, err)
		return
	}

	snap := search.Snapshot{Query: req.Query, Filters: filters, Results: results}
	if !session.Commit(token, snap) {
		writeError(w, http.StatusConflict, errSuperseded)
		return
	}

	if user := userID(r.Context()); user != "" && s.opts.Recorder != nil {
		s.opts.Recorder.RecordSearch(storage.HistoryEntry{
			UserID:      user,
			Query:       req.Query,
			Filters:     filters,
			ResultCount: len(results),
		})
	}

	view := search.Apply(results, filters, s.opts.Now())
	writeJSON(w, http.StatusOK, page(req.Query, filters, view, 0, s.limit(req.Limit)))
}

// handleResults pages through the session's latest results. The type,
// repository and sort filters may be changed without searching again.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	snap := s.session(r).Snapshot()
	if snap.Query == "" {
		writeError(w, http.StatusNotFound, errNoActiveSearch)
		return
	}

	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	filters := snap.Filters
	if v := q.Get("type"); v != "" {
		filters.Type = v
	}
	if v := q.Get("repository"); v != "" {
		filters.Repository = v
	}
	if v := q.Get("sort"); v != "" {
		filters.Sort = v
	}
	if err := filters.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	view := search.Apply(snap.Results, filters, s.opts.Now())
	writeJSON(w, http.StatusOK, page(snap.Query, filters, view, offset, s.limit(limit)))
}

func page(query string, filters search.Filters, view []search.Result, offset, limit int) searchResponse {
	results := search.Page(view, offset, limit)
	offset = max(0, offset)
	return searchResponse{
		Query:   query,
		Filters: filters,
		Total:   len(view),
		Offset:  offset,
		HasMore: offset+len(results) < len(view),
		Results: results,
	}
}

type highlightRequest struct {
	Text        string            `json:"text,omitempty"`
	Snippet     string            `json:"snippet,omitempty"`
	LineNumbers []int             `json:"lineNumbers,omitempty"`
	Query       string            `json:"query"`
	Options     highlight.Options `json:"options"`
}

type textHighlight struct {
	Spans   []highlight.Span `json:"spans"`
	Matches int              `json:"matches"`
}

// handleHighlight renders a snippet, or free text when no snippet is given.
func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	var req highlightRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if req.Snippet == "" {
		spans := highlight.Text(req.Text, req.Query)
		writeJSON(w, http.StatusOK, textHighlight{Spans: spans, Matches: highlight.CountMatches(spans)})
		return
	}

	writeJSON(w, http.StatusOK, highlight.Snippet(req.Snippet, req.LineNumbers, req.Query, req.Options))
}
