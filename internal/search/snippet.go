package search

import (
	"strings"

	"github.com/jparise/gh-search/internal/highlight"
)

const (
	// contextLines is the number of lines kept on each side of a match.
	contextLines = 2

	// fallbackLines is the snippet length used when nothing matches.
	fallbackLines = 10

	// separatorText is the snippet line standing in for an elided gap.
	separatorText = "..."
)

// window is an inclusive range of 0-indexed lines.
type window struct {
	start, end int
}

// matchTerms returns the lowercased terms used to locate snippet lines.
func matchTerms(query string) []string {
	terms := highlight.Terms(query)
	for i, t := range terms {
		terms[i] = strings.ToLower(t)
	}
	return terms
}

// BuildSnippet extracts the lines of content around the query's matches.
//
// Each matching line contributes a window of two lines of context on each
// side. Overlapping windows are merged, and a separator line (line number
// -1) is placed between windows that don't overlap. If no line matches, the
// first ten lines are used. Line numbers are 1-indexed.
func BuildSnippet(content, query string) (string, []int) {
	if content == "" {
		return "", nil
	}

	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	terms := matchTerms(query)

	var windows []window
	for i, line := range lines {
		if !containsAny(strings.ToLower(line), terms) {
			continue
		}

		w := window{
			start: max(0, i-contextLines),
			end:   min(len(lines)-1, i+contextLines),
		}
		if n := len(windows); n > 0 && w.start <= windows[n-1].end {
			windows[n-1].end = max(windows[n-1].end, w.end)
			continue
		}
		windows = append(windows, w)
	}

	if len(windows) == 0 {
		windows = []window{{start: 0, end: min(len(lines), fallbackLines) - 1}}
	}

	var (
		out     []string
		numbers []int
	)
	for i, w := range windows {
		if i > 0 {
			out = append(out, separatorText)
			numbers = append(numbers, highlight.Separator)
		}
		for j := w.start; j <= w.end; j++ {
			out = append(out, lines[j])
			numbers = append(numbers, j+1)
		}
	}

	return strings.Join(out, "\n"), numbers
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
