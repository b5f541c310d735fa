package search

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/jparise/gh-search/internal/timeparse"
)

// All is the filter tag that disables a filter.
const All = "all"

// Sort orders.
const (
	SortRelevance = "relevance"
	SortRecent    = "recent"
	SortStars     = "stars"
)

// Filters narrows and orders a search. Each field is a tag from a fixed
// domain; "all" (or empty) disables the filter.
type Filters struct {
	Language   string `json:"language"`
	Type       string `json:"type"`
	Time       string `json:"time"`       // all, day, week, month, year
	Repository string `json:"repository"` // glob over owner/repo
	Sort       string `json:"sort"`       // relevance, recent, stars
}

// DefaultFilters returns filters that match everything, sorted by relevance.
func DefaultFilters() Filters {
	return Filters{
		Language:   All,
		Type:       All,
		Time:       All,
		Repository: All,
		Sort:       SortRelevance,
	}
}

func isAll(tag string) bool {
	return tag == "" || tag == All
}

// Validate checks that every tag is in its domain.
func (f Filters) Validate() error {
	switch ResultType(f.Type) {
	case "", All, TypeRepository, TypeCode, TypeCommunity:
	default:
		return fmt.Errorf("invalid type %q: must be one of all, repository, code, or community", f.Type)
	}

	if !timeparse.IsLookback(f.Time) {
		return fmt.Errorf("invalid time %q: must be one of all, day, week, month, or year", f.Time)
	}

	switch f.Sort {
	case "", SortRelevance, SortRecent, SortStars:
	default:
		return fmt.Errorf("invalid sort %q: must be one of relevance, recent, or stars", f.Sort)
	}

	if !isAll(f.Repository) && !doublestar.ValidatePattern(f.Repository) {
		return fmt.Errorf("invalid repository pattern %q", f.Repository)
	}

	if strings.ContainsAny(f.Language, " \t\n") {
		return fmt.Errorf("invalid language %q: must not contain whitespace", f.Language)
	}

	return nil
}

// Apply returns the results that pass the type and repository filters,
// ordered for display. The input slice is not modified. Ties keep their
// merge order.
func Apply(results []Result, f Filters, now time.Time) []Result {
	filtered := make([]Result, 0, len(results))
	for _, r := range results {
		if !isAll(f.Type) && string(r.Type) != f.Type {
			continue
		}
		if !isAll(f.Repository) {
			matched, err := doublestar.Match(strings.ToLower(f.Repository), strings.ToLower(r.Source))
			if err != nil || !matched {
				continue
			}
		}
		filtered = append(filtered, r)
	}

	switch f.Sort {
	case SortRecent:
		slices.SortStableFunc(filtered, func(a, b Result) int {
			ageA, okA := timeparse.Age(a.Timestamp, now)
			ageB, okB := timeparse.Age(b.Timestamp, now)
			switch {
			case okA && okB:
				return cmp.Compare(ageA, ageB)
			case okA:
				return -1
			case okB:
				return 1
			}
			return 0
		})
	case SortStars:
		slices.SortStableFunc(filtered, func(a, b Result) int {
			return cmp.Compare(RepoScore(b, now), RepoScore(a, now))
		})
	default:
		slices.SortStableFunc(filtered, func(a, b Result) int {
			return cmp.Compare(b.Score, a.Score)
		})
	}

	return filtered
}

// Page returns up to limit results starting at offset. A non-positive limit
// returns everything after offset.
func Page(results []Result, offset, limit int) []Result {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return []Result{}
	}
	end := len(results)
	if limit > 0 {
		end = min(offset+limit, len(results))
	}
	return results[offset:end]
}
