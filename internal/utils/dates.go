package utils

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// InvalidDateSentinel is what a failed date serialization leaves behind.
const InvalidDateSentinel = "Invalid Date"

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// NormalizeDate parses a calendar date or a timestamp into a civil.Date.
//
// A bare YYYY-MM-DD is taken as a calendar date and never shifted by a zone
// offset. Timestamps are converted to loc before the date is taken, so a
// midnight UTC timestamp lands on the day the user sees locally. DD/MM/YYYY
// is accepted as well.
func NormalizeDate(s string, loc *time.Location) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == InvalidDateSentinel {
		return civil.Date{}, fmt.Errorf("invalid date %q", s)
	}
	if loc == nil {
		loc = time.Local
	}

	if d, err := civil.ParseDate(s); err == nil {
		return d, nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return civil.DateOf(t.In(loc)), nil
		}
	}

	if t, err := time.ParseInLocation("02/01/2006", s, loc); err == nil {
		return civil.DateOf(t), nil
	}

	return civil.Date{}, fmt.Errorf("invalid date %q", s)
}

// IsValidDate reports whether s parses as a calendar date.
func IsValidDate(s string) bool {
	_, err := NormalizeDate(s, time.UTC)
	return err == nil
}

// Period returns the YYYY-MM month key of d.
func Period(d civil.Date) string {
	return fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
}

// SameMonth reports whether two dates fall in the same calendar month.
func SameMonth(a, b civil.Date) bool {
	return a.Year == b.Year && a.Month == b.Month
}
