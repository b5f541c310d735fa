package timeparse

import (
	"fmt"
	"time"
)

// lookbacks maps a time filter tag to how far back it reaches.
var lookbacks = map[string]time.Duration{
	"day":   1 * 24 * time.Hour,
	"week":  7 * 24 * time.Hour,
	"month": 30 * 24 * time.Hour,
	"year":  365 * 24 * time.Hour,
}

// Lookback returns the window for a time filter tag ("day", "week", "month"
// or "year"). Any other tag, including "all", has no window.
func Lookback(tag string) (time.Duration, bool) {
	d, ok := lookbacks[tag]
	return d, ok
}

// IsLookback reports whether tag is a valid time filter tag.
func IsLookback(tag string) bool {
	if tag == "all" || tag == "" {
		return true
	}
	_, ok := lookbacks[tag]
	return ok
}

// PushedQualifier returns the search qualifier (e.g. "pushed:>2024-01-08")
// for a time filter tag relative to now, or "" if the tag has no window.
func PushedQualifier(tag string, now time.Time) string {
	d, ok := Lookback(tag)
	if !ok {
		return ""
	}
	return fmt.Sprintf("pushed:>%s", now.Add(-d).UTC().Format(time.DateOnly))
}

// Age returns how long ago a timestamp was, relative to now. It reports false
// when the timestamp cannot be parsed.
func Age(timestamp string, now time.Time) (time.Duration, bool) {
	if timestamp == "" {
		return 0, false
	}
	t, err := ParseTime(timestamp)
	if err != nil {
		return 0, false
	}
	return now.Sub(t), true
}
