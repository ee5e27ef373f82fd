package catalog

import (
	"strings"
	"time"
)

// DateLayout is the canonical wire format for calendar dates.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	"01/02/2006",
	"01/02/06",
	time.RFC3339,
}

// ParseDate reads a calendar date in any accepted input format and returns
// it as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, invalid("Enter a valid date.")
}

// Day drops the time of day, keeping the calendar date t shows in its own
// location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
