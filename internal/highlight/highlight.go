// Package highlight marks query matches in result text and code snippets.
//
// Nothing here mutates the input text. Two modes are provided: Text marks
// query terms in free text such as titles and descriptions, and Snippet
// renders code snippet lines according to a set of Options.
package highlight

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// minTermLength is the shortest query token treated as a search term.
const minTermLength = 3

// Options configures snippet matching. Any combination is legal.
type Options struct {
	MatchWholeWord       bool `json:"matchWholeWord"`
	MatchCase            bool `json:"matchCase"`
	UseRegex             bool `json:"useRegex"`
	HighlightMatchesOnly bool `json:"highlightMatchesOnly"`
}

// Span is a run of text that either matched the query or did not.
type Span struct {
	Text  string `json:"text"`
	Match bool   `json:"match,omitempty"`
}

// Terms splits a query into whitespace-delimited terms longer than two
// characters, preserving order and case.
func Terms(query string) []string {
	var terms []string
	for _, field := range strings.Fields(query) {
		if utf8.RuneCountInString(field) >= minTermLength {
			terms = append(terms, field)
		}
	}
	return terms
}

// Text marks every case-insensitive occurrence of the query's terms in text.
// An empty query, empty text, or a query without usable terms returns the
// text as a single unmarked span.
func Text(text, query string) []Span {
	if text == "" {
		return nil
	}

	terms := Terms(query)
	if len(terms) == 0 {
		return []Span{{Text: text}}
	}

	escaped := make([]string, len(terms))
	for i, term := range terms {
		escaped[i] = regexp.QuoteMeta(term)
	}

	re, ok := compilePattern("(?i)" + strings.Join(escaped, "|"))
	if !ok {
		return []Span{{Text: text}}
	}

	return split(text, re)
}

// split cuts text into alternating unmatched and matched spans. Empty
// matches are ignored.
func split(text string, re *regexp.Regexp) []Span {
	var spans []Span
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] == loc[1] {
			continue
		}
		if loc[0] > last {
			spans = append(spans, Span{Text: text[last:loc[0]]})
		}
		spans = append(spans, Span{Text: text[loc[0]:loc[1]], Match: true})
		last = loc[1]
	}
	if last < len(text) {
		spans = append(spans, Span{Text: text[last:]})
	}
	return spans
}

// CountMatches returns the number of matched spans.
func CountMatches(spans []Span) int {
	n := 0
	for _, s := range spans {
		if s.Match {
			n++
		}
	}
	return n
}
