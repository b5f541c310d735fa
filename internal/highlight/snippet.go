package highlight

import "strings"

// Separator is the line number marking an elided gap in a snippet.
const Separator = -1

// Line is one rendered snippet line.
type Line struct {
	Number    int    `json:"number"`
	Separator bool   `json:"separator,omitempty"`
	Matched   bool   `json:"matched,omitempty"`
	Spans     []Span `json:"spans,omitempty"`
}

// Rendering is a rendered snippet.
type Rendering struct {
	Lines []Line `json:"lines"`

	// Matches is the number of lines that matched, not the number of
	// matched substrings.
	Matches int `json:"matches"`
}

// Snippet renders the lines of snippet for query under opts. lineNumbers
// runs parallel to the snippet's lines; a Separator entry renders as a
// separator line. Missing line numbers default to 1..n.
//
// With HighlightMatchesOnly, content lines without a match are dropped
// while separators are kept. If no matcher can be built from the query,
// every line is returned unhighlighted and Matches is zero.
func Snippet(snippet string, lineNumbers []int, query string, opts Options) Rendering {
	if snippet == "" {
		return Rendering{}
	}

	lines := strings.Split(snippet, "\n")
	re, ok := Compile(query, opts)

	r := Rendering{Lines: make([]Line, 0, len(lines))}
	for i, text := range lines {
		number := i + 1
		if lineNumbers != nil {
			if i >= len(lineNumbers) {
				break
			}
			number = lineNumbers[i]
		}

		if number == Separator {
			r.Lines = append(r.Lines, Line{Number: Separator, Separator: true})
			continue
		}

		if !ok {
			r.Lines = append(r.Lines, Line{Number: number, Spans: plain(text)})
			continue
		}

		// Zero-width matches (e.g. ^$) count but produce no highlighted span.
		matched := re.MatchString(text)
		if matched {
			r.Matches++
		} else if opts.HighlightMatchesOnly {
			continue
		}

		r.Lines = append(r.Lines, Line{Number: number, Matched: matched, Spans: split(text, re)})
	}

	return r
}

func plain(text string) []Span {
	if text == "" {
		return nil
	}
	return []Span{{Text: text}}
}
