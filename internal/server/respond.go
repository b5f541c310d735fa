package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jparise/gh-search/internal/logger"
	"github.com/jparise/gh-search/internal/search"
	"github.com/jparise/gh-search/internal/storage"
)

var (
	errSignInRequired  = errors.New("sign in required")
	errAdminRequired   = errors.New("admin access required")
	errNoActiveSearch  = errors.New("no active search; run a search first")
	errSuperseded      = errors.New("search was superseded by a newer one")
	errStoreDisabled   = errors.New("storage is disabled on this server")
	errNotFound        = errors.New("not found")
	errMessageRequired = errors.New("message is required")
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusFor maps an error to the HTTP status it is reported with.
func statusFor(err error) int {
	switch {
	case errors.Is(err, search.ErrEmptyQuery), errors.Is(err, search.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, search.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, search.ErrNoResults), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, search.ErrUnauthorized), errors.Is(err, search.ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with the status statusFor assigns it. Internal errors
// are logged and reported generically.
func fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("%v", err)
		err = errors.New("internal server error")
	} else if errors.Is(err, storage.ErrNotFound) {
		err = errNotFound
	}
	writeError(w, status, err)
}

// decode reads a JSON request body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
