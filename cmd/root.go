package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jparise/gh-search/internal/activity"
	"github.com/jparise/gh-search/internal/github"
	"github.com/jparise/gh-search/internal/highlight"
	"github.com/jparise/gh-search/internal/logger"
	"github.com/jparise/gh-search/internal/render"
	"github.com/jparise/gh-search/internal/search"
	"github.com/jparise/gh-search/internal/storage"
	"github.com/jparise/gh-search/internal/storage/sqlite"
)

// colorMode represents when to use colored output.
type colorMode string

const (
	colorAuto   colorMode = "auto"
	colorAlways colorMode = "always"
	colorNever  colorMode = "never"
)

// String is used both by fmt.Print and by Cobra in help text.
func (c *colorMode) String() string {
	return string(*c)
}

// Set must have pointer receiver to validate and set the value.
func (c *colorMode) Set(v string) error {
	switch v {
	case "auto", "always", "never":
		*c = colorMode(v)
		return nil
	default:
		return fmt.Errorf("must be one of \"auto\", \"always\", or \"never\"")
	}
}

// Type is only used in help text.
func (c *colorMode) Type() string {
	return "colorMode"
}

// tagFlag is a string flag restricted to a fixed set of values.
type tagFlag struct {
	value   string
	allowed []string
	typ     string
}

func newTagFlag(typ, value string, allowed ...string) *tagFlag {
	return &tagFlag{value: value, allowed: allowed, typ: typ}
}

func (f *tagFlag) String() string {
	return f.value
}

func (f *tagFlag) Set(v string) error {
	if !slices.Contains(f.allowed, v) {
		return fmt.Errorf("must be one of %s", oneOf(f.allowed))
	}
	f.value = v
	return nil
}

func (f *tagFlag) Type() string {
	return f.typ
}

// oneOf formats values as `"a", "b", or "c"`.
func oneOf(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	if len(quoted) < 2 {
		return strings.Join(quoted, "")
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + ", or " + quoted[len(quoted)-1]
}

var (
	version = "dev"

	// Persistent flags.
	configPath string
	verbose    bool
	color      = colorAuto
	hyperlink  = colorAuto
	noCache    bool
	cacheDir   string
	cacheTTL   time.Duration
	jobs       int
	fileDates  bool

	// Search flags.
	language    string
	resultType  = newTagFlag("type", search.All, search.All, "repository", "code", "community")
	lookback    = newTagFlag("time", search.All, search.All, "day", "week", "month", "year")
	sortOrder   = newTagFlag("sort", search.SortRelevance, search.SortRelevance, search.SortRecent, search.SortStars)
	repoGlob    string
	wholeWord   bool
	matchCase   bool
	useRegex    bool
	matchesOnly bool
	limit       int
	noHistory   bool
)

var rootCmd = &cobra.Command{
	Use:   "gh-search [flags] <query>...",
	Short: "Search GitHub repositories and code together",
	Long: `gh-search runs a repository search and a code search on GitHub at the
same time and prints the merged, ranked results with highlighted snippets.

The query may use GitHub search qualifiers. Multiple arguments are joined
with spaces.

Filters:
  --language     restrict both searches to a language (e.g., "go")
  --type         show only repository, code, or community results
  --time         only repositories pushed within the last day, week, month, or year
  --repo         show only results whose owner/repo matches a glob (e.g., "cli/*")
  --sort         order by relevance, recent, or stars

Snippet matching:
  --whole-word   match the query as a whole word
  --match-case   match case exactly
  --regex        treat the query as a regular expression
  --matches-only hide snippet lines that don't match

Examples:
  gh search react hooks
  gh search --language go --sort stars "context cancel"
  gh search --type code --repo "golang/*" --regex "func \w+Context"
  gh search --time week --matches-only useEffect`,
	Version: version,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if jobs < 1 || jobs > 100 {
			return fmt.Errorf("--jobs must be between 1 and 100, got %d", jobs)
		}
		if limit < 0 {
			return fmt.Errorf("--limit cannot be negative")
		}
		if err := filtersFromFlags().Validate(); err != nil {
			return err
		}
		return nil
	},
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "",
		"configuration file (default: gh-search/config.toml in the user config directory)")
	flags.BoolVarP(&verbose, "verbose", "v", false,
		"log diagnostic messages to stderr")
	flags.Var(&color, "color",
		"colorize output: auto, always, never")
	flags.Var(&hyperlink, "hyperlink",
		"hyperlink results: auto, always, never")
	flags.BoolVar(&noCache, "no-cache", false,
		"bypass cache, always fetch fresh data")
	flags.StringVar(&cacheDir, "cache-dir", "",
		"override cache directory location")
	flags.DurationVar(&cacheTTL, "cache-ttl", 24*time.Hour,
		"cache time-to-live (e.g., 1h, 30m, 24h)")
	flags.IntVarP(&jobs, "jobs", "j", search.DefaultJobs,
		"maximum concurrent file content requests")
	flags.BoolVar(&fileDates, "file-dates", false,
		"date code results by their file's last commit (one extra request per repository)")

	rootCmd.Flags().StringVarP(&language, "language", "l", "",
		"restrict results to a language")
	rootCmd.Flags().VarP(resultType, "type", "t",
		"result type: all, repository, code, community")
	rootCmd.Flags().Var(lookback, "time",
		"repositories pushed within: all, day, week, month, year")
	rootCmd.Flags().Var(sortOrder, "sort",
		"sort order: relevance, recent, stars")
	rootCmd.Flags().StringVarP(&repoGlob, "repo", "R", "",
		"only show results from repositories matching a glob")
	rootCmd.Flags().BoolVarP(&wholeWord, "whole-word", "w", false,
		"match the query as a whole word in snippets")
	rootCmd.Flags().BoolVarP(&matchCase, "match-case", "s", false,
		"case-sensitive snippet matching")
	rootCmd.Flags().BoolVarP(&useRegex, "regex", "e", false,
		"treat the query as a regular expression in snippets")
	rootCmd.Flags().BoolVar(&matchesOnly, "matches-only", false,
		"only show snippet lines that match")
	rootCmd.Flags().IntVarP(&limit, "limit", "L", 20,
		"maximum number of results to show (0 for all)")
	rootCmd.Flags().BoolVar(&noHistory, "no-history", false,
		"don't record this search in the history")

	rootCmd.AddCommand(serveCmd, historyCmd, adminCmd)
}

func Execute() error {
	return rootCmd.Execute()
}

// joinQuery joins the query arguments into a single query string.
func joinQuery(args []string) string {
	var parts []string
	for _, arg := range args {
		if arg = strings.TrimSpace(arg); arg != "" {
			parts = append(parts, arg)
		}
	}
	return strings.Join(parts, " ")
}

// filtersFromFlags builds the search filters from the command-line flags.
func filtersFromFlags() search.Filters {
	f := search.DefaultFilters()
	if language != "" {
		f.Language = language
	}
	f.Type = resultType.value
	f.Time = lookback.value
	if repoGlob != "" {
		f.Repository = repoGlob
	}
	f.Sort = sortOrder.value
	return f
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	client, err := github.NewClient(cfg.ClientOptions())
	if err != nil {
		return err
	}

	query := joinQuery(args)
	filters := filtersFromFlags()
	output := newOutput(cmd)

	logger.Section("Search")
	results, err := search.NewAggregator(client, cfg.AggregatorOptions()).Fetch(ctx, query, filters)
	if err != nil {
		return err
	}

	if !noHistory && !cfg.Storage.Disabled {
		recordSearch(cfg.Storage.DataDir, output, storage.HistoryEntry{
			UserID:      localUserID(),
			Query:       query,
			Filters:     filters,
			ResultCount: len(results),
		})
	}

	view := search.Apply(results, filters, time.Now())
	shown := search.Page(view, 0, limit)

	opts := highlight.Options{
		MatchWholeWord:       wholeWord,
		MatchCase:            matchCase,
		UseRegex:             useRegex,
		HighlightMatchesOnly: matchesOnly,
	}

	matches := 0
	for _, r := range shown {
		matches += output.Result(r, query, opts)
	}

	if len(shown) < len(view) {
		output.Infof("Showing %d of %d results; use --limit to see more", len(shown), len(view))
	}
	output.Summary(len(shown), matches)

	return nil
}

// recordSearch saves a history entry. Failures are reported as warnings.
func recordSearch(dataDir string, output *render.Output, entry storage.HistoryEntry) {
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		output.Warningf("search history not recorded: %v", err)
		return
	}
	defer store.Close()

	recorder := activity.NewRecorder(store.History(), nil, 1)
	recorder.RecordSearch(entry)
	recorder.Close()
}
