// Package render writes search results and stored records to a terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/cli/go-gh/v2/pkg/auth"
	"github.com/mgutz/ansi"

	"github.com/jparise/gh-search/internal/highlight"
	"github.com/jparise/gh-search/internal/search"
	"github.com/jparise/gh-search/internal/storage"
)

// Output handles all output formatting with optional color and hyperlink support.
type Output struct {
	mu         sync.Mutex
	stdout     io.Writer
	stderr     io.Writer
	hostname   string
	hyperlinks bool

	cyan   func(string) string
	green  func(string) string
	white  func(string) string
	yellow func(string) string
	red    func(string) string
	gray   func(string) string
}

// NewOutput creates a new Output with optional color and hyperlink support.
func NewOutput(stdout, stderr io.Writer, colorize, hyperlinks bool) *Output {
	hostname, _ := auth.DefaultHost()

	color := func(name string) func(string) string {
		if colorize {
			return ansi.ColorFunc(name)
		}
		return ansi.ColorFunc("")
	}

	return &Output{
		stdout:     stdout,
		stderr:     stderr,
		hostname:   hostname,
		hyperlinks: hyperlinks,
		cyan:       color("cyan"),
		green:      color("green+b"),
		white:      color("white"),
		yellow:     color("yellow"),
		red:        color("red+b"),
		gray:       color("black+h"),
	}
}

func makeHyperlink(url, text string) string {
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}

// link wraps text in a hyperlink to url when hyperlinks are enabled.
func (o *Output) link(url, text string) string {
	if !o.hyperlinks || url == "" {
		return text
	}
	return makeHyperlink(url, text)
}

// resultURL returns the result's URL, or one built from its source and path
// when the upstream didn't supply it.
func (o *Output) resultURL(r search.Result) string {
	if r.URL != "" {
		return r.URL
	}
	if r.Path != "" {
		return fmt.Sprintf("https://%s/%s/blob/HEAD/%s", o.hostname, r.Source, r.Path)
	}
	return fmt.Sprintf("https://%s/%s", o.hostname, r.Source)
}

// spans joins spans, coloring the matched ones.
func (o *Output) spans(spans []highlight.Span) string {
	var b strings.Builder
	for _, s := range spans {
		if s.Match {
			b.WriteString(o.red(s.Text))
		} else {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// Result writes one search result. Code results are written as
// owner/repo:path followed by their highlighted snippet; repositories as
// owner/repo followed by their highlighted description. It returns the
// number of matching snippet lines.
func (o *Output) Result(r search.Result, query string, opts highlight.Options) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	owner, repo, _ := strings.Cut(r.Source, "/")
	header := fmt.Sprintf("%s/%s", o.cyan(owner), o.green(repo))
	if r.Type == search.TypeCode {
		header += ":" + o.white(r.Path)
	}
	fmt.Fprintln(o.stdout, o.link(o.resultURL(r), header))

	if meta := o.meta(r); meta != "" {
		fmt.Fprintf(o.stdout, "  %s\n", o.gray(meta))
	}

	if r.Type != search.TypeCode {
		if r.Description != "" {
			fmt.Fprintf(o.stdout, "  %s\n", o.spans(highlight.Text(r.Description, query)))
		}
		fmt.Fprintln(o.stdout)
		return 0
	}

	rendering := highlight.Snippet(r.Snippet, r.LineNumbers, query, opts)
	for _, line := range rendering.Lines {
		if line.Separator {
			fmt.Fprintf(o.stdout, "  %s\n", o.gray("    ⋮"))
			continue
		}
		number := fmt.Sprintf("%4d", line.Number)
		if line.Matched {
			number = o.yellow(number)
		} else {
			number = o.gray(number)
		}
		fmt.Fprintf(o.stdout, "  %s  %s\n", number, o.spans(line.Spans))
	}
	fmt.Fprintln(o.stdout)

	return rendering.Matches
}

// meta summarizes a result's repository metadata on one line.
func (o *Output) meta(r search.Result) string {
	var parts []string
	if r.Language != "" {
		parts = append(parts, r.Language)
	}
	if r.Type == search.TypeRepository || r.Enriched {
		parts = append(parts, fmt.Sprintf("★ %d", r.Stars))
	}
	if r.License != "" {
		parts = append(parts, r.License)
	}
	if t, err := time.Parse(time.RFC3339, r.Timestamp); err == nil {
		parts = append(parts, "updated "+t.Format(time.DateOnly))
	}
	return strings.Join(parts, " · ")
}

// Summary writes the results footer.
func (o *Output) Summary(results, matches int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.stdout, "%d results, %d matches found\n", results, matches)
}

// HistoryEntry writes one recorded search.
func (o *Output) HistoryEntry(e storage.HistoryEntry) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var filters []string
	for _, f := range []struct{ name, value string }{
		{"language", e.Filters.Language},
		{"type", e.Filters.Type},
		{"time", e.Filters.Time},
		{"repo", e.Filters.Repository},
	} {
		if f.value != "" && f.value != search.All {
			filters = append(filters, f.name+":"+f.value)
		}
	}

	line := fmt.Sprintf("%s  %s", o.gray(e.CreatedAt.Local().Format(time.DateTime)), o.white(e.Query))
	if len(filters) > 0 {
		line += " " + o.cyan(strings.Join(filters, " "))
	}
	fmt.Fprintf(o.stdout, "%s %s\n", line, o.gray(fmt.Sprintf("(%d results)", e.ResultCount)))
}

// Feedback writes one feedback item.
func (o *Output) Feedback(fb storage.Feedback) {
	o.mu.Lock()
	defer o.mu.Unlock()

	status := string(fb.Status)
	switch fb.Status {
	case storage.StatusOpen:
		status = o.yellow(status)
	case storage.StatusResolved:
		status = o.green(status)
	}

	fmt.Fprintf(o.stdout, "%s  %s  %s  %s\n",
		o.gray(fb.ID), status, o.gray(fb.CreatedAt.Local().Format(time.DateTime)), fb.UserID)
	if fb.Query != "" {
		fmt.Fprintf(o.stdout, "  query: %s\n", fb.Query)
	}
	if fb.Rating > 0 {
		fmt.Fprintf(o.stdout, "  rating: %d/5\n", fb.Rating)
	}
	fmt.Fprintf(o.stdout, "  %s\n", fb.Message)
}

// Warningf writes a formatted warning message to stderr.
func (o *Output) Warningf(format string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.stderr, o.yellow("Warning: ")+format+"\n", args...)
}

// Errorf writes a formatted error message to stderr.
func (o *Output) Errorf(format string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.stderr, o.red("Error: ")+format+"\n", args...)
}

// Infof writes a formatted informational message to stderr.
func (o *Output) Infof(format string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.stderr, format+"\n", args...)
}
