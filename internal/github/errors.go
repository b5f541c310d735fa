package github

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/cli/go-gh/v2/pkg/api"
)

// ErrorKind classifies a failed upstream request.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnauthorized
	KindRateLimited
	KindInvalidQuery
	KindNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate limited"
	case KindInvalidQuery:
		return "invalid query"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Classify maps an error returned by the client to an ErrorKind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusUnauthorized:
			return KindUnauthorized
		case http.StatusTooManyRequests:
			return KindRateLimited
		case http.StatusUnprocessableEntity:
			return KindInvalidQuery
		case http.StatusForbidden:
			// Primary and secondary rate limits are both reported as 403s.
			if httpErr.Headers.Get("X-RateLimit-Remaining") == "0" ||
				strings.Contains(strings.ToLower(httpErr.Message), "rate limit") {
				return KindRateLimited
			}
			return KindUnauthorized
		}
		return KindUnknown
	}

	// Cancellation is the caller's doing, not the network's.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindUnknown
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return KindNetwork
	}

	return KindUnknown
}
