package highlight

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const cacheSize = 1000

// compiled holds either a compiled pattern or the fact that it failed to
// compile, so bad patterns typed by a user aren't recompiled on every render.
type compiled struct {
	re *regexp.Regexp
}

var cache *lru.Cache[string, compiled]

func init() {
	var err error
	cache, err = lru.New[string, compiled](cacheSize)
	if err != nil {
		panic("highlight: failed to create LRU cache: " + err.Error())
	}
}

// compilePattern compiles expr, consulting the LRU cache first.
func compilePattern(expr string) (*regexp.Regexp, bool) {
	if c, ok := cache.Get(expr); ok {
		return c.re, c.re != nil
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		cache.Add(expr, compiled{})
		return nil, false
	}
	cache.Add(expr, compiled{re: re})
	return re, true
}

// Pattern returns the regular expression source for query under opts,
// without the case-insensitivity flag.
func Pattern(query string, opts Options) string {
	switch {
	case opts.UseRegex:
		return query
	case opts.MatchWholeWord:
		return `\b` + regexp.QuoteMeta(query) + `\b`
	}

	fields := strings.Fields(query)
	if len(fields) > 1 {
		escaped := make([]string, len(fields))
		for i, f := range fields {
			escaped[i] = regexp.QuoteMeta(f)
		}
		return strings.Join(escaped, "|")
	}
	return regexp.QuoteMeta(query)
}

// Compile builds the matcher for query under opts. It never panics: an
// empty query or an invalid user-supplied pattern reports false, which
// callers treat as "cannot highlight".
func Compile(query string, opts Options) (*regexp.Regexp, bool) {
	if strings.TrimSpace(query) == "" {
		return nil, false
	}

	expr := Pattern(query, opts)
	if !opts.MatchCase {
		expr = "(?i)" + expr
	}
	return compilePattern(expr)
}
