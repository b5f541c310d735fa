package github

import "time"

// Owner is the account that owns a repository.
type Owner struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

// License is the license detected for a repository.
type License struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	SPDXID string `json:"spdx_id"`
}

// Repository represents a repository search hit.
type Repository struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"` // owner/name
	Owner           Owner     `json:"owner"`
	HTMLURL         string    `json:"html_url"`
	Description     string    `json:"description"`
	Language        string    `json:"language"`
	StargazersCount int       `json:"stargazers_count"`
	ForksCount      int       `json:"forks_count"`
	WatchersCount   int       `json:"watchers_count"`
	OpenIssuesCount int       `json:"open_issues_count"`
	Topics          []string  `json:"topics"`
	License         *License  `json:"license"`
	DefaultBranch   string    `json:"default_branch"`
	Fork            bool      `json:"fork"`
	Archived        bool      `json:"archived"`
	UpdatedAt       time.Time `json:"updated_at"`
	PushedAt        time.Time `json:"pushed_at"`
}

// CodeRepository is the abbreviated repository attached to a code search hit.
type CodeRepository struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Owner       Owner  `json:"owner"`
	HTMLURL     string `json:"html_url"`
	Description string `json:"description"`
	Fork        bool   `json:"fork"`
}

// CodeHit represents a code search hit: one file in one repository.
type CodeHit struct {
	Name       string         `json:"name"`
	Path       string         `json:"path"`
	SHA        string         `json:"sha"` // blob SHA
	HTMLURL    string         `json:"html_url"`
	Score      float64        `json:"score"`
	Repository CodeRepository `json:"repository"`
}

// SearchParams are the query parameters shared by the search endpoints.
type SearchParams struct {
	Query   string // full query string including qualifiers
	Sort    string // empty means best match
	Order   string // asc or desc
	PerPage int
}

// searchResponse is the envelope returned by the search endpoints.
type searchResponse[T any] struct {
	TotalCount        int  `json:"total_count"`
	IncompleteResults bool `json:"incomplete_results"`
	Items             []T  `json:"items"`
}

// blob is the git blob API response.
type blob struct {
	SHA      string `json:"sha"`
	Size     int64  `json:"size"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"` // base64 or utf-8
}

// FileCommitInfo holds the last commit date for a file.
type FileCommitInfo struct {
	Path          string
	CommittedDate time.Time
}
