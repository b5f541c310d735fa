// Package github provides GitHub API client functionality for gh-search.
package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"
	"golang.org/x/time/rate"
)

const (
	// maxPageSize is the largest page the search endpoints accept.
	maxPageSize = 100
)

// ClientOptions configures the GitHub API client.
type ClientOptions struct {
	AuthToken    string
	Host         string
	CacheDir     string
	CacheTTL     time.Duration
	DisableCache bool

	// RequestsPerSecond throttles outgoing requests. Zero means unlimited.
	RequestsPerSecond float64
}

// Client wraps the go-gh REST and GraphQL clients.
type Client struct {
	rest    *api.RESTClient
	graphql *api.GraphQLClient
	limiter *rate.Limiter
}

// NewClient creates a new GitHub API client with the given options.
func NewClient(opts ClientOptions) (*Client, error) {
	apiOpts := api.ClientOptions{
		AuthToken:   opts.AuthToken,
		Host:        opts.Host,
		CacheDir:    opts.CacheDir,
		CacheTTL:    opts.CacheTTL,
		EnableCache: !opts.DisableCache,
	}

	rest, err := api.NewRESTClient(apiOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	graphql, err := api.NewGraphQLClient(apiOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub GraphQL client: %w", err)
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Client{
		rest:    rest,
		graphql: graphql,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

func (c *Client) get(ctx context.Context, endpoint string, response any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.rest.DoWithContext(ctx, "GET", endpoint, nil, response)
}

// searchEndpoint builds a search endpoint URL with encoded parameters.
func searchEndpoint(kind string, params SearchParams) string {
	values := url.Values{}
	values.Set("q", params.Query)
	if params.Sort != "" {
		values.Set("sort", params.Sort)
	}
	if params.Order != "" {
		values.Set("order", params.Order)
	}

	perPage := params.PerPage
	if perPage <= 0 || perPage > maxPageSize {
		perPage = maxPageSize
	}
	values.Set("per_page", strconv.Itoa(perPage))

	return "search/" + kind + "?" + values.Encode()
}

// SearchRepositories runs a repository search and returns the first page of hits.
func (c *Client) SearchRepositories(ctx context.Context, params SearchParams) ([]Repository, error) {
	var result searchResponse[Repository]

	err := c.get(ctx, searchEndpoint("repositories", params), &result)
	if err != nil {
		return nil, fmt.Errorf("failed to search repositories: %w", err)
	}

	return result.Items, nil
}

// SearchCode runs a code search and returns the first page of hits.
func (c *Client) SearchCode(ctx context.Context, params SearchParams) ([]CodeHit, error) {
	var result searchResponse[CodeHit]

	err := c.get(ctx, searchEndpoint("code", params), &result)
	if err != nil {
		return nil, fmt.Errorf("failed to search code: %w", err)
	}

	return result.Items, nil
}

// GetFileContent fetches the decoded content of a file. The blob SHA is
// preferred when known; otherwise the file is resolved by path on the
// default branch.
func (c *Client) GetFileContent(ctx context.Context, fullName, path, sha string) (string, error) {
	var (
		result   blob
		endpoint string
	)

	if sha != "" {
		endpoint = fmt.Sprintf("repos/%s/git/blobs/%s", fullName, sha)
	} else {
		endpoint = fmt.Sprintf("repos/%s/contents/%s", fullName, escapePath(path))
	}

	if err := c.get(ctx, endpoint, &result); err != nil {
		return "", fmt.Errorf("failed to get content of %s:%s: %w", fullName, path, err)
	}

	return decodeContent(result)
}

func decodeContent(b blob) (string, error) {
	switch b.Encoding {
	case "base64":
		// The API wraps base64 content at 60 columns.
		data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(b.Content, "\n", ""))
		if err != nil {
			return "", fmt.Errorf("failed to decode content: %w", err)
		}
		return string(data), nil
	case "", "utf-8":
		return b.Content, nil
	default:
		return "", fmt.Errorf("unsupported content encoding %q", b.Encoding)
	}
}

// escapePath escapes each segment of a repository path.
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
