package utils

import (
	"fmt"
	"time"
)

const isoDateLayout = "2006-01-02"

// apiDateTimeLayout is the timezone-naive datetime format the scheduling API expects
// in create requests.
const apiDateTimeLayout = "2006-01-02T15:04:05"

// ToLocalISODate formats a time as its local calendar date, YYYY-MM-DD.
func ToLocalISODate(t time.Time) string {
	return t.Format(isoDateLayout)
}

// FromLocalISODate parses a YYYY-MM-DD string into midnight of that day in loc.
func FromLocalISODate(iso string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(isoDateLayout, iso, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse iso date %q: %w", iso, err)
	}
	return t, nil
}

// FormatAPIDateTime renders a time for the scheduling API's create endpoints.
func FormatAPIDateTime(t time.Time) string {
	return t.Format(apiDateTimeLayout)
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
