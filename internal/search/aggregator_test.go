package search

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/jparise/gh-search/internal/github"
	"gopkg.in/h2non/gock.v1"
)

func TestMain(m *testing.M) {
	gock.DisableNetworking()
	os.Exit(m.Run())
}

// fakeUpstream serves canned responses and records the search parameters
// it receives.
type fakeUpstream struct {
	repos    []github.Repository
	repoErr  error
	hits     []github.CodeHit
	codeErr  error
	contents map[string]string // path -> content
	dates    map[string][]github.FileCommitInfo

	mu         sync.Mutex
	repoParams github.SearchParams
	codeParams github.SearchParams
}

func (f *fakeUpstream) SearchRepositories(ctx context.Context, params github.SearchParams) ([]github.Repository, error) {
	f.mu.Lock()
	f.repoParams = params
	f.mu.Unlock()
	return f.repos, f.repoErr
}

func (f *fakeUpstream) SearchCode(ctx context.Context, params github.SearchParams) ([]github.CodeHit, error) {
	f.mu.Lock()
	f.codeParams = params
	f.mu.Unlock()
	return f.hits, f.codeErr
}

func (f *fakeUpstream) GetFileContent(ctx context.Context, fullName, path, sha string) (string, error) {
	content, ok := f.contents[path]
	if !ok {
		return "", fmt.Errorf("%s: not found", path)
	}
	return content, nil
}

func (f *fakeUpstream) GetFileCommitDates(ctx context.Context, fullName string, paths []string) ([]github.FileCommitInfo, error) {
	dates, ok := f.dates[fullName]
	if !ok {
		return nil, errors.New("no history")
	}
	return dates, nil
}

func repo(id int64, fullName string, stars int) github.Repository {
	owner, name, _ := strings.Cut(fullName, "/")
	return github.Repository{
		ID:              id,
		Name:            name,
		FullName:        fullName,
		Owner:           github.Owner{Login: owner},
		HTMLURL:         "https://github.com/" + fullName,
		StargazersCount: stars,
		UpdatedAt:       testNow.Add(-48 * time.Hour),
	}
}

func hit(fullName, path string) github.CodeHit {
	owner, name, _ := strings.Cut(fullName, "/")
	return github.CodeHit{
		Name:    path[strings.LastIndex(path, "/")+1:],
		Path:    path,
		SHA:     "sha-" + path,
		HTMLURL: "https://github.com/" + fullName + "/blob/main/" + path,
		Repository: github.CodeRepository{
			Name:     name,
			FullName: fullName,
			Owner:    github.Owner{Login: owner},
		},
	}
}

func testAggregator(upstream Upstream) *Aggregator {
	return NewAggregator(upstream, Options{
		Now: func() time.Time { return testNow },
	})
}

func TestFetch_EmptyQuery(t *testing.T) {
	agg := testAggregator(&fakeUpstream{})
	for _, query := range []string{"", "   ", "\t\n"} {
		if _, err := agg.Fetch(context.Background(), query, DefaultFilters()); !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("Fetch(%q) error = %v, want ErrEmptyQuery", query, err)
		}
	}
}

func TestFetch_Errors(t *testing.T) {
	unauthorized := &api.HTTPError{StatusCode: http.StatusUnauthorized}
	rateLimited := &api.HTTPError{StatusCode: http.StatusTooManyRequests}
	invalid := &api.HTTPError{StatusCode: http.StatusUnprocessableEntity}

	tests := []struct {
		name     string
		upstream *fakeUpstream
		wantErr  error
		wantLen  int
	}{
		{
			name:     "both fail reports repository error",
			upstream: &fakeUpstream{repoErr: unauthorized, codeErr: rateLimited},
			wantErr:  ErrUnauthorized,
		},
		{
			name:     "falls back to classified code error",
			upstream: &fakeUpstream{repoErr: errors.New("boom"), codeErr: invalid},
			wantErr:  ErrInvalidQuery,
		},
		{
			name:     "unclassified failures",
			upstream: &fakeUpstream{repoErr: errors.New("boom"), codeErr: errors.New("bang")},
			wantErr:  ErrNoResults,
		},
		{
			name:     "both empty",
			upstream: &fakeUpstream{},
			wantErr:  ErrNoResults,
		},
		{
			name:     "one fails and the other is empty",
			upstream: &fakeUpstream{codeErr: rateLimited},
			wantErr:  ErrRateLimited,
		},
		{
			name: "repository search fails",
			upstream: &fakeUpstream{
				repoErr: rateLimited,
				hits:    []github.CodeHit{hit("acme/app", "main.go")},
			},
			wantLen: 1,
		},
		{
			name: "code search fails",
			upstream: &fakeUpstream{
				repos:   []github.Repository{repo(1, "acme/app", 10)},
				codeErr: unauthorized,
			},
			wantLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := testAggregator(tt.upstream).Fetch(context.Background(), "query", DefaultFilters())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Fetch() error = %v, want %v", err, tt.wantErr)
			}
			if len(got) != tt.wantLen {
				t.Errorf("Fetch() returned %d results, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestFetch_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	upstream := &fakeUpstream{repoErr: context.Canceled, codeErr: context.Canceled}
	_, err := testAggregator(upstream).Fetch(ctx, "query", DefaultFilters())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch() error = %v, want context.Canceled", err)
	}
}

func TestFetch_MergeOrder(t *testing.T) {
	upstream := &fakeUpstream{
		repos: []github.Repository{
			repo(1, "a/r1", 0),
			repo(2, "a/r2", 0),
			repo(3, "a/r3", 0),
			repo(4, "a/r4", 0),
			repo(5, "a/r5", 0),
		},
		hits: []github.CodeHit{
			hit("b/x", "one.go"),
			hit("b/x", "two.go"),
		},
	}

	got, err := testAggregator(upstream).Fetch(context.Background(), "query", DefaultFilters())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	want := []string{"repo-1", "repo-2", "repo-3", "code-0-one.go", "code-0-two.go", "repo-4", "repo-5"}
	if !reflect.DeepEqual(ids(got), want) {
		t.Errorf("Fetch() order = %v, want %v", ids(got), want)
	}
}

func TestFetch_Enrichment(t *testing.T) {
	r := repo(1, "facebook/react", 1000)
	r.ForksCount = 200
	r.WatchersCount = 1000
	r.OpenIssuesCount = 50
	r.Topics = []string{"ui", "javascript"}
	r.License = &github.License{Key: "mit", Name: "MIT License", SPDXID: "MIT"}

	upstream := &fakeUpstream{
		repos: []github.Repository{r},
		hits: []github.CodeHit{
			hit("facebook/react", "packages/react/index.js"),
			hit("acme/other", "index.js"),
		},
	}

	got, err := testAggregator(upstream).Fetch(context.Background(), "react", DefaultFilters())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Fetch() returned %d results, want 3", len(got))
	}

	repoResult, enriched, plain := got[0], got[1], got[2]

	if !enriched.Enriched {
		t.Error("code result in a returned repository was not enriched")
	}
	if enriched.Stars != repoResult.Stars ||
		enriched.Forks != repoResult.Forks ||
		enriched.Watchers != repoResult.Watchers ||
		enriched.OpenIssues != repoResult.OpenIssues ||
		enriched.License != repoResult.License ||
		!reflect.DeepEqual(enriched.Topics, repoResult.Topics) {
		t.Errorf("enriched result = %+v, want metadata of %+v", enriched, repoResult)
	}
	if repoResult.License != "MIT" {
		t.Errorf("repository license = %q, want MIT", repoResult.License)
	}

	if plain.Enriched || plain.Stars != 0 {
		t.Errorf("code result in another repository was enriched: %+v", plain)
	}
}

func TestFetch_QueryBuilding(t *testing.T) {
	tests := []struct {
		name     string
		filters  Filters
		wantRepo github.SearchParams
		wantCode string
	}{
		{
			name:    "defaults",
			filters: DefaultFilters(),
			wantRepo: github.SearchParams{
				Query:   "react hooks",
				Order:   "desc",
				PerPage: DefaultRepoPageSize,
			},
			wantCode: "react hooks",
		},
		{
			name:    "language time and sort",
			filters: Filters{Language: "typescript", Time: "week", Sort: SortRecent},
			wantRepo: github.SearchParams{
				Query:   "react hooks language:typescript pushed:>2024-03-08",
				Sort:    "updated",
				Order:   "desc",
				PerPage: DefaultRepoPageSize,
			},
			wantCode: "react hooks language:typescript",
		},
		{
			name:    "stars",
			filters: Filters{Sort: SortStars},
			wantRepo: github.SearchParams{
				Query:   "react hooks",
				Sort:    "stars",
				Order:   "desc",
				PerPage: DefaultRepoPageSize,
			},
			wantCode: "react hooks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upstream := &fakeUpstream{}
			testAggregator(upstream).Fetch(context.Background(), "  react hooks ", tt.filters)

			if upstream.repoParams != tt.wantRepo {
				t.Errorf("repository params = %+v, want %+v", upstream.repoParams, tt.wantRepo)
			}
			if upstream.codeParams.Query != tt.wantCode {
				t.Errorf("code query = %q, want %q", upstream.codeParams.Query, tt.wantCode)
			}
		})
	}
}

func TestFetch_CodeResults(t *testing.T) {
	upstream := &fakeUpstream{
		hits: []github.CodeHit{
			hit("acme/app", "src/hooks.js"),
			hit("acme/app", "src/missing.js"),
		},
		contents: map[string]string{
			"src/hooks.js": "import { useState } from 'react'\n\nexport const x = 1\n",
		},
		dates: map[string][]github.FileCommitInfo{
			"acme/app": {{Path: "src/hooks.js", CommittedDate: testNow.Add(-time.Hour)}},
		},
	}

	agg := NewAggregator(upstream, Options{
		FileDates: true,
		Jobs:      1,
		Now:       func() time.Time { return testNow },
	})
	got, err := agg.Fetch(context.Background(), "useState", DefaultFilters())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Fetch() returned %d results, want 2", len(got))
	}

	found := got[0]
	if found.Snippet == "" || !reflect.DeepEqual(found.LineNumbers, []int{1, 2, 3}) {
		t.Errorf("snippet = %q %v", found.Snippet, found.LineNumbers)
	}
	if found.Language != "JavaScript" || found.LanguageColor == "" {
		t.Errorf("language = %q %q, want JavaScript", found.Language, found.LanguageColor)
	}
	if found.Timestamp != testNow.Add(-time.Hour).Format(time.RFC3339) {
		t.Errorf("timestamp = %q", found.Timestamp)
	}
	if found.Score <= 0 {
		t.Errorf("score = %v, want > 0", found.Score)
	}

	missing := got[1]
	if missing.Snippet != "" || missing.LineNumbers != nil {
		t.Errorf("result without content has snippet %q", missing.Snippet)
	}
	if missing.Timestamp != "" {
		t.Errorf("result without history has timestamp %q", missing.Timestamp)
	}
}

// TestFetch_GitHub runs a query end to end against mocked GitHub endpoints.
func TestFetch_GitHub(t *testing.T) {
	defer gock.Off()

	content := "// header\n\nimport React from 'react'\n\nexport function useThing() {\n  // custom hooks live here\n  return null\n}\n"

	gock.New("https://api.github.com").
		Get("/search/repositories").
		MatchParam("q", "react hooks").
		Reply(200).
		JSON(`{"total_count": 1, "items": [{"id": 10, "name": "react-hooks", "full_name": "acme/react-hooks", "owner": {"login": "acme"}, "html_url": "https://github.com/acme/react-hooks", "description": "Collection of React hooks", "language": "TypeScript", "stargazers_count": 1200, "forks_count": 30, "watchers_count": 1200, "open_issues_count": 4, "license": {"key": "mit", "name": "MIT License", "spdx_id": "MIT"}, "updated_at": "2024-03-14T00:00:00Z"}]}`)

	gock.New("https://api.github.com").
		Get("/search/code").
		MatchParam("q", "react hooks").
		Reply(200).
		JSON(`{"total_count": 1, "items": [{"name": "useThing.js", "path": "src/useThing.js", "sha": "abc123", "html_url": "https://github.com/acme/react-hooks/blob/main/src/useThing.js", "repository": {"id": 10, "name": "react-hooks", "full_name": "acme/react-hooks", "owner": {"login": "acme"}}}]}`)

	gock.New("https://api.github.com").
		Get("/repos/acme/react-hooks/git/blobs/abc123").
		Reply(200).
		JSON(fmt.Sprintf(`{"sha": "abc123", "encoding": "base64", "content": %q}`, base64.StdEncoding.EncodeToString([]byte(content))))

	client, err := github.NewClient(github.ClientOptions{AuthToken: "fake-token", DisableCache: true})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	got, err := testAggregator(client).Fetch(context.Background(), "react hooks", DefaultFilters())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !gock.IsDone() {
		t.Errorf("not all mocks were called: %v", gock.Pending())
	}

	if len(got) != 2 {
		t.Fatalf("Fetch() returned %d results, want 2", len(got))
	}
	if got[0].Type != TypeRepository || got[0].LanguageColor == "" {
		t.Errorf("first result = %+v", got[0])
	}

	code := got[1]
	if !code.Enriched || code.Stars != 1200 || code.License != "MIT" {
		t.Errorf("code result was not enriched: %+v", code)
	}
	if want := []int{1, 2, 3, 4, 5, 6, 7, 8}; !reflect.DeepEqual(code.LineNumbers, want) {
		t.Errorf("line numbers = %v, want %v", code.LineNumbers, want)
	}
}
