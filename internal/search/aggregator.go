package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-enry/go-enry/v2"
	"github.com/jparise/gh-search/internal/github"
	"github.com/jparise/gh-search/internal/logger"
	"github.com/jparise/gh-search/internal/timeparse"
	"golang.org/x/sync/semaphore"
)

const (
	// leadingRepos is the number of repositories placed ahead of code
	// results when merging.
	leadingRepos = 3

	DefaultJobs         = 10
	DefaultRepoPageSize = 10
	DefaultCodePageSize = 10
)

// Upstream is the subset of the GitHub client used by the Aggregator.
type Upstream interface {
	SearchRepositories(ctx context.Context, params github.SearchParams) ([]github.Repository, error)
	SearchCode(ctx context.Context, params github.SearchParams) ([]github.CodeHit, error)
	GetFileContent(ctx context.Context, fullName, path, sha string) (string, error)
	GetFileCommitDates(ctx context.Context, fullName string, paths []string) ([]github.FileCommitInfo, error)
}

// Options configures an Aggregator.
type Options struct {
	Jobs         int  // maximum concurrent file content requests
	RepoPageSize int  // repository hits per query
	CodePageSize int  // code hits per query
	FileDates    bool // date code hits by their file's last commit

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Aggregator runs repository and code searches and merges their results.
type Aggregator struct {
	upstream Upstream
	opts     Options
}

// NewAggregator creates an Aggregator. Zero options take their defaults.
func NewAggregator(upstream Upstream, opts Options) *Aggregator {
	if opts.Jobs <= 0 {
		opts.Jobs = DefaultJobs
	}
	if opts.RepoPageSize <= 0 {
		opts.RepoPageSize = DefaultRepoPageSize
	}
	if opts.CodePageSize <= 0 {
		opts.CodePageSize = DefaultCodePageSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Aggregator{upstream: upstream, opts: opts}
}

// Fetch searches repositories and code concurrently and returns the merged,
// scored results.
//
// A failure of one search is logged and otherwise ignored. Fetch only fails
// when neither search produced any results; the error is then the first
// user-facing upstream error (repository search first), or ErrNoResults.
func (a *Aggregator) Fetch(ctx context.Context, query string, filters Filters) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	now := a.opts.Now()

	var (
		wg               sync.WaitGroup
		repos, code      []Result
		repoErr, codeErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		repos, repoErr = a.searchRepositories(ctx, query, filters, now)
	}()
	go func() {
		defer wg.Done()
		code, codeErr = a.searchCode(ctx, query, filters)
	}()
	wg.Wait()

	if repoErr != nil {
		repoErr = translate(repoErr)
		logger.Warn("repository search failed: %v", repoErr)
	}
	if codeErr != nil {
		codeErr = translate(codeErr)
		logger.Warn("code search failed: %v", codeErr)
	}

	logger.Debug("%q: %d repositories, %d code results", query, len(repos), len(code))

	if len(repos) == 0 && len(code) == 0 {
		for _, err := range []error{repoErr, codeErr} {
			if isClassified(err) {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNoResults
	}

	enrich(code, repos)
	merged := merge(repos, code)
	for i := range merged {
		merged[i].Score = CombinedScore(merged[i], query, now)
	}

	return merged, nil
}

// repoQuery builds the repository search query string.
func repoQuery(query string, f Filters, now time.Time) string {
	parts := []string{query}
	if !isAll(f.Language) {
		parts = append(parts, "language:"+f.Language)
	}
	if pushed := timeparse.PushedQualifier(f.Time, now); pushed != "" {
		parts = append(parts, pushed)
	}
	return strings.Join(parts, " ")
}

// codeQuery builds the code search query string.
func codeQuery(query string, f Filters) string {
	if isAll(f.Language) {
		return query
	}
	return query + " language:" + f.Language
}

// repoSort maps a sort tag to the repository search sort parameter. An
// empty result means the provider's best-match order.
func repoSort(sort string) string {
	switch sort {
	case SortRecent:
		return "updated"
	case SortRelevance:
		return ""
	default:
		return "stars"
	}
}

func (a *Aggregator) searchRepositories(ctx context.Context, query string, f Filters, now time.Time) ([]Result, error) {
	repos, err := a.upstream.SearchRepositories(ctx, github.SearchParams{
		Query:   repoQuery(query, f, now),
		Sort:    repoSort(f.Sort),
		Order:   "desc",
		PerPage: a.opts.RepoPageSize,
	})
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(repos))
	for _, repo := range repos {
		results = append(results, repositoryResult(repo))
	}
	return results, nil
}

func repositoryResult(repo github.Repository) Result {
	r := Result{
		ID:          fmt.Sprintf("repo-%d", repo.ID),
		Type:        TypeRepository,
		Title:       repo.Name,
		Source:      repo.FullName,
		URL:         repo.HTMLURL,
		Language:    repo.Language,
		Description: repo.Description,
		Stars:       repo.StargazersCount,
		Forks:       repo.ForksCount,
		Watchers:    repo.WatchersCount,
		OpenIssues:  repo.OpenIssuesCount,
		Topics:      repo.Topics,
		License:     licenseName(repo.License),
		Owner:       &Owner{Login: repo.Owner.Login, AvatarURL: repo.Owner.AvatarURL},
	}
	if repo.Language != "" {
		r.LanguageColor = enry.GetColor(repo.Language)
	}
	if !repo.UpdatedAt.IsZero() {
		r.Timestamp = repo.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return r
}

func licenseName(l *github.License) string {
	if l == nil {
		return ""
	}
	if l.SPDXID != "" && l.SPDXID != "NOASSERTION" {
		return l.SPDXID
	}
	return l.Name
}

func (a *Aggregator) searchCode(ctx context.Context, query string, f Filters) ([]Result, error) {
	hits, err := a.upstream.SearchCode(ctx, github.SearchParams{
		Query:   codeQuery(query, f),
		PerPage: a.opts.CodePageSize,
	})
	if err != nil {
		return nil, err
	}

	// Fetch file contents concurrently with bounded parallelism. Each
	// goroutine writes only its own slot.
	results := make([]Result, len(hits))
	var wg sync.WaitGroup
	sem := semaphore.NewWeighted(int64(a.opts.Jobs))

	for i, hit := range hits {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, err
		}

		wg.Add(1)
		go func(i int, hit github.CodeHit) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = a.codeResult(ctx, hit, query, f)
		}(i, hit)
	}

	wg.Wait()

	if a.opts.FileDates {
		a.addFileDates(ctx, results)
	}

	return results, nil
}

func (a *Aggregator) codeResult(ctx context.Context, hit github.CodeHit, query string, f Filters) Result {
	repo := hit.Repository
	r := Result{
		ID:          fmt.Sprintf("code-%d-%s", repo.ID, hit.Path),
		Type:        TypeCode,
		Title:       hit.Name,
		Source:      repo.FullName,
		URL:         hit.HTMLURL,
		Path:        hit.Path,
		Description: repo.Description,
		Owner:       &Owner{Login: repo.Owner.Login, AvatarURL: repo.Owner.AvatarURL},
	}

	content, err := a.upstream.GetFileContent(ctx, repo.FullName, hit.Path, hit.SHA)
	if err != nil {
		logger.Debug("%s:%s: %v", repo.FullName, hit.Path, err)
	} else {
		r.Snippet, r.LineNumbers = BuildSnippet(content, query)
	}

	r.Language = enry.GetLanguage(hit.Path, []byte(content))
	if r.Language == "" && !isAll(f.Language) {
		r.Language = f.Language
	}
	if r.Language != "" {
		r.LanguageColor = enry.GetColor(r.Language)
	}

	return r
}

// addFileDates sets the timestamp of each code result to its file's last
// commit date, one batched query per repository. Failures are logged.
func (a *Aggregator) addFileDates(ctx context.Context, results []Result) {
	byRepo := make(map[string][]int)
	var order []string
	for i, r := range results {
		if _, ok := byRepo[r.Source]; !ok {
			order = append(order, r.Source)
		}
		byRepo[r.Source] = append(byRepo[r.Source], i)
	}

	for _, source := range order {
		indexes := byRepo[source]
		paths := make([]string, len(indexes))
		for j, i := range indexes {
			paths[j] = results[i].Path
		}

		dates, err := a.upstream.GetFileCommitDates(ctx, source, paths)
		if err != nil {
			logger.Warn("%s: %v", source, err)
			continue
		}

		byPath := make(map[string]time.Time, len(dates))
		for _, d := range dates {
			byPath[d.Path] = d.CommittedDate
		}
		for _, i := range indexes {
			if t, ok := byPath[results[i].Path]; ok {
				results[i].Timestamp = t.UTC().Format(time.RFC3339)
			}
		}
	}
}

// enrich copies repository metadata onto code results from the same
// repository. Repository values always win.
func enrich(code, repos []Result) {
	byName := make(map[string]Result, len(repos))
	for _, r := range repos {
		byName[r.Source] = r
	}

	for i := range code {
		repo, ok := byName[code[i].Source]
		if !ok {
			continue
		}
		code[i].Stars = repo.Stars
		code[i].Forks = repo.Forks
		code[i].Watchers = repo.Watchers
		code[i].OpenIssues = repo.OpenIssues
		code[i].License = repo.License
		code[i].Topics = repo.Topics
		code[i].Enriched = true
	}
}

// merge orders results as the leading repositories, then all code results,
// then the remaining repositories.
func merge(repos, code []Result) []Result {
	n := min(leadingRepos, len(repos))
	merged := make([]Result, 0, len(repos)+len(code))
	merged = append(merged, repos[:n]...)
	merged = append(merged, code...)
	merged = append(merged, repos[n:]...)
	return merged
}
