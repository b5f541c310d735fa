// Package search fans a query out to GitHub's repository and code search,
// merges the two result sets into one ranked list, and keeps per-session
// result state for paging.
package search

// ResultType identifies what a Result describes.
type ResultType string

const (
	TypeRepository ResultType = "repository"
	TypeCode       ResultType = "code"
	TypeCommunity  ResultType = "community"
)

// Owner is the account that owns a result's repository.
type Owner struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Result is a normalized search result from either upstream.
//
// When LineNumbers is set it has one entry per line of Snippet, and a -1
// entry marks an elided gap whose line is rendered as a separator.
type Result struct {
	ID            string     `json:"id"`
	Type          ResultType `json:"type"`
	Title         string     `json:"title"`
	Source        string     `json:"source"` // owner/repo
	URL           string     `json:"url"`
	Path          string     `json:"path,omitempty"`
	Snippet       string     `json:"snippet,omitempty"`
	LineNumbers   []int      `json:"lineNumbers,omitempty"`
	Language      string     `json:"language,omitempty"`
	LanguageColor string     `json:"languageColor,omitempty"`
	Description   string     `json:"description,omitempty"`
	Stars         int        `json:"stars"`
	Forks         int        `json:"forks"`
	Watchers      int        `json:"watchers"`
	OpenIssues    int        `json:"openIssues"`
	Topics        []string   `json:"topics,omitempty"`
	License       string     `json:"license,omitempty"`
	Timestamp     string     `json:"timestamp,omitempty"` // RFC3339
	Owner         *Owner     `json:"owner,omitempty"`

	// Enriched is set on code results that received repository metadata.
	Enriched bool `json:"enriched,omitempty"`

	// Score is assigned after merging and is never persisted.
	Score float64 `json:"score"`
}
