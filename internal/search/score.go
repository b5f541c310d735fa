package search

import (
	"math"
	"strings"
	"time"

	"github.com/jparise/gh-search/internal/timeparse"
)

const day = 24 * time.Hour

// CombinedScore computes the merge-time relevance of a result for query.
//
// Stars contribute up to 50 points, repositories get a flat 10 and enriched
// code results 5. Each query term adds 15 when it appears in the title (25
// when the title is exactly the term), 5 when it appears in the
// description, and two points per snippet occurrence capped at 20. Recently
// updated results get up to 10 more.
func CombinedScore(r Result, query string, now time.Time) float64 {
	score := math.Min(float64(r.Stars)/100, 50)

	if r.Type == TypeRepository {
		score += 10
	}
	if r.Type == TypeCode && r.Enriched {
		score += 5
	}

	title := strings.ToLower(r.Title)
	description := strings.ToLower(r.Description)
	snippet := strings.ToLower(r.Snippet)

	for _, term := range strings.Fields(strings.ToLower(query)) {
		if strings.Contains(title, term) {
			score += 15
			if title == term {
				score += 10
			}
		}
		if strings.Contains(description, term) {
			score += 5
		}
		if n := strings.Count(snippet, term); n > 0 {
			score += math.Min(float64(2*n), 20)
		}
	}

	if age, ok := timeparse.Age(r.Timestamp, now); ok {
		switch {
		case age < 7*day:
			score += 10
		case age < 30*day:
			score += 5
		case age < 90*day:
			score += 2
		}
	}

	return score
}

// RepoScore computes the popularity score used to order the results list.
// It is independent of CombinedScore and never negative.
func RepoScore(r Result, now time.Time) float64 {
	score := float64(r.Stars)*3 + float64(r.Forks)*2 + float64(r.Watchers)
	score -= math.Min(float64(r.OpenIssues)/10, 20)

	if age, ok := timeparse.Age(r.Timestamp, now); ok {
		days := math.Floor(age.Hours() / 24)
		score += math.Max(0, 50-days/2)
	}

	return math.Max(0, score)
}
