package history

import (
	"fmt"
	"strings"
	"time"
)

const (
	LastHour Range = "1h"
	LastDay  Range = "24h"
	LastWeek Range = "7d"
	Custom   Range = "custom"
)

// Range is a time window preset offered to the user
type Range string

var rangeDurations = map[Range]time.Duration{
	LastHour: time.Hour,
	LastDay:  24 * time.Hour,
	LastWeek: 7 * 24 * time.Hour,
}

// ParseRange parses a preset name, case-insensitively
func ParseRange(s string) (Range, error) {
	r := Range(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := rangeDurations[r]; ok || r == Custom {
		return r, nil
	}
	return "", fmt.Errorf("invalid time range '%s'", s)
}

// Window resolves the preset into a concrete [start, end] window ending at
// now. A custom range uses the given bounds; if either is unset the last 24
// hours are used instead.
func (r Range) Window(now time.Time, start, end *time.Time) (time.Time, time.Time) {
	if r == Custom {
		if start != nil && end != nil {
			return *start, *end
		}
		r = LastDay
	}

	d, ok := rangeDurations[r]
	if !ok {
		d = rangeDurations[LastDay]
	}
	return now.Add(-d), now
}
