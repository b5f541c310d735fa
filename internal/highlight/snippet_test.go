package highlight

import (
	"reflect"
	"testing"
)

func TestSnippet_WholeWord(t *testing.T) {
	r := Snippet("concatenate cat", nil, "cat", Options{MatchWholeWord: true})

	want := []Line{{
		Number:  1,
		Matched: true,
		Spans: []Span{
			{Text: "concatenate "},
			{Text: "cat", Match: true},
		},
	}}
	if !reflect.DeepEqual(r.Lines, want) {
		t.Errorf("Snippet() lines = %+v, want %+v", r.Lines, want)
	}
	if r.Matches != 1 {
		t.Errorf("Snippet() matches = %d, want 1", r.Matches)
	}
}

func TestSnippet_MatchesOnly(t *testing.T) {
	snippet := "alpha\nbeta\nneedle here\ngamma\ndelta"
	lineNumbers := []int{10, 11, 12, 13, 14}

	r := Snippet(snippet, lineNumbers, "needle", Options{HighlightMatchesOnly: true})

	if len(r.Lines) != 1 {
		t.Fatalf("Snippet() returned %d lines, want 1: %+v", len(r.Lines), r.Lines)
	}
	if r.Lines[0].Number != 12 || !r.Lines[0].Matched {
		t.Errorf("Snippet() line = %+v, want matched line 12", r.Lines[0])
	}
	if r.Matches != 1 {
		t.Errorf("Snippet() matches = %d, want 1", r.Matches)
	}
}

func TestSnippet_ZeroWidthMatch(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantLines []Line
	}{
		{
			name: "all lines",
			opts: Options{UseRegex: true},
			wantLines: []Line{
				{Number: 1, Spans: []Span{{Text: "foo"}}},
				{Number: 2, Matched: true},
				{Number: 3, Spans: []Span{{Text: "bar"}}},
			},
		},
		{
			name:      "matches only",
			opts:      Options{UseRegex: true, HighlightMatchesOnly: true},
			wantLines: []Line{{Number: 2, Matched: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Snippet("foo\n\nbar", nil, "^$", tt.opts)
			if !reflect.DeepEqual(r.Lines, tt.wantLines) {
				t.Errorf("Snippet() lines = %+v, want %+v", r.Lines, tt.wantLines)
			}
			if r.Matches != 1 {
				t.Errorf("Snippet() matches = %d, want 1", r.Matches)
			}
		})
	}
}

func TestSnippet_Separators(t *testing.T) {
	snippet := "func a() {\n...\nfunc b() {"
	lineNumbers := []int{1, Separator, 40}

	tests := []struct {
		name        string
		opts        Options
		wantLines   int
		wantMatches int
	}{
		{
			name:        "all lines",
			opts:        Options{},
			wantLines:   3,
			wantMatches: 1,
		},
		{
			name:        "matches only keeps separator",
			opts:        Options{HighlightMatchesOnly: true},
			wantLines:   2,
			wantMatches: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Snippet(snippet, lineNumbers, "b()", tt.opts)
			if len(r.Lines) != tt.wantLines {
				t.Fatalf("Snippet() returned %d lines, want %d: %+v", len(r.Lines), tt.wantLines, r.Lines)
			}
			if r.Matches != tt.wantMatches {
				t.Errorf("Snippet() matches = %d, want %d", r.Matches, tt.wantMatches)
			}

			var sep *Line
			for i := range r.Lines {
				if r.Lines[i].Separator {
					sep = &r.Lines[i]
				}
			}
			if sep == nil {
				t.Fatal("Snippet() dropped the separator line")
			}
			if sep.Matched || len(sep.Spans) != 0 {
				t.Errorf("separator line was highlighted: %+v", *sep)
			}
		})
	}
}

func TestSnippet_CountsLinesNotOccurrences(t *testing.T) {
	r := Snippet("foo foo foo\nbar\nfoo", nil, "foo", Options{})
	if r.Matches != 2 {
		t.Errorf("Snippet() matches = %d, want 2", r.Matches)
	}
	if got := CountMatches(r.Lines[0].Spans); got != 3 {
		t.Errorf("first line has %d highlighted spans, want 3", got)
	}
}

func TestSnippet_InvalidRegexDegrades(t *testing.T) {
	r := Snippet("one\ntwo", nil, "([", Options{UseRegex: true, HighlightMatchesOnly: true})

	if len(r.Lines) != 2 {
		t.Fatalf("Snippet() returned %d lines, want 2", len(r.Lines))
	}
	for _, line := range r.Lines {
		if line.Matched || CountMatches(line.Spans) != 0 {
			t.Errorf("line %d highlighted with invalid pattern", line.Number)
		}
	}
	if r.Matches != 0 {
		t.Errorf("Snippet() matches = %d, want 0", r.Matches)
	}
}

func TestSnippet_MultiWordAlternation(t *testing.T) {
	r := Snippet("import React\nconst x = useHooks()\nreturn null", nil, "react hooks", Options{})
	if r.Matches != 2 {
		t.Errorf("Snippet() matches = %d, want 2", r.Matches)
	}
}

func TestSnippet_Empty(t *testing.T) {
	r := Snippet("", nil, "foo", Options{})
	if len(r.Lines) != 0 || r.Matches != 0 {
		t.Errorf("Snippet(\"\") = %+v, want empty", r)
	}
}
