package timeparse

import (
	"fmt"
	"time"
)

// timestampLayouts are tried in order by ParseTime. Repository updated_at
// values and file commit dates are RFC3339; the date-only and
// space-separated forms cover results built by other callers.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.DateOnly,
	time.DateTime,
}

// ParseTime parses a result timestamp. Values without a zone are UTC.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q: want RFC3339 or YYYY-MM-DD", s)
}
