package search

import (
	"errors"

	"github.com/jparise/gh-search/internal/github"
)

// The messages are shown to users as-is.
var (
	ErrEmptyQuery   = errors.New("please enter a search query")
	ErrUnauthorized = errors.New("GitHub authentication failed; check your access token")
	ErrRateLimited  = errors.New("GitHub API rate limit exceeded; please try again later")
	ErrInvalidQuery = errors.New("invalid search query; check the query syntax")
	ErrNetwork      = errors.New("could not reach GitHub; check your network connection")
	ErrNoResults    = errors.New("no results found from either repository or code search")
)

// translate maps an upstream error to one of the errors above. Errors that
// don't fit a known category are returned unchanged.
func translate(err error) error {
	switch github.Classify(err) {
	case github.KindUnauthorized:
		return ErrUnauthorized
	case github.KindRateLimited:
		return ErrRateLimited
	case github.KindInvalidQuery:
		return ErrInvalidQuery
	case github.KindNetwork:
		return ErrNetwork
	default:
		return err
	}
}

// isClassified reports whether err is one of the user-facing errors.
func isClassified(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrInvalidQuery) ||
		errors.Is(err, ErrNetwork)
}
