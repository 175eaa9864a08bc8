package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimePart is one half of a clock time. Set distinguishes a real value (including 0)
// from "nothing entered"; the codec never uses 0 as an absence sentinel.
type TimePart struct {
	Value int
	Set   bool
}

// Part returns a set TimePart with the given value.
func Part(v int) TimePart { return TimePart{Value: v, Set: true} }

// UnsetPart returns the "nothing entered" part.
func UnsetPart() TimePart { return TimePart{} }

// ToTimeParts splits a fractional-hour number (9.30 == 9:30, 9.05 == 9:05) into
// hour and minute parts. A nil value maps to two unset parts. Minutes are read as
// the first two fractional digits, right-padded ("9.5" means 9:50). Overflow is
// normalized: minutes >= 60 carry into hours, hours wrap modulo 24. Malformed
// input degrades to unset parts rather than failing.
func ToTimeParts(value *float64) (hours, minutes TimePart) {
	if value == nil {
		return UnsetPart(), UnsetPart()
	}
	v := *value
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return UnsetPart(), UnsetPart()
	}

	text := strconv.FormatFloat(v, 'f', -1, 64)
	hoursStr, rawMinutes, _ := strings.Cut(text, ".")

	h, err := strconv.Atoi(hoursStr)
	if err != nil {
		return UnsetPart(), UnsetPart()
	}

	if len(rawMinutes) > 2 {
		rawMinutes = rawMinutes[:2]
	}
	for len(rawMinutes) < 2 {
		rawMinutes += "0"
	}
	m, err := strconv.Atoi(rawMinutes)
	if err != nil {
		return Part(normalizeHours(h)), UnsetPart()
	}

	h += m / 60
	m %= 60
	return Part(normalizeHours(h)), Part(m)
}

// ToServerTimeNumber is the inverse of ToTimeParts. It returns nil only when both
// parts are unset; a single missing part is treated as 0. Minutes are encoded as
// two digits so 9:05 becomes 9.05, not 9.5.
func ToServerTimeNumber(hours, minutes TimePart) *float64 {
	if !hours.Set && !minutes.Set {
		return nil
	}
	h, m := 0, 0
	if hours.Set {
		h = hours.Value
	}
	if minutes.Set {
		m = minutes.Value
	}
	encoded, err := strconv.ParseFloat(fmt.Sprintf("%d.%02d", h, m), 64)
	if err != nil {
		return nil
	}
	return &encoded
}

// TimeLabel renders a fractional-hour number as a zero-padded "HH:MM" label.
func TimeLabel(value float64) string {
	hours, minutes := ToTimeParts(&value)
	h, m := 0, 0
	if hours.Set {
		h = hours.Value
	}
	if minutes.Set {
		m = minutes.Value
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// CombineDateAndFloat anchors a fractional-hour time onto a calendar date.
func CombineDateAndFloat(isoDate string, value float64, loc *time.Location) (time.Time, error) {
	day, err := FromLocalISODate(isoDate, loc)
	if err != nil {
		return time.Time{}, err
	}
	hours, minutes := ToTimeParts(&value)
	h, m := 0, 0
	if hours.Set {
		h = hours.Value
	}
	if minutes.Set {
		m = minutes.Value
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, loc), nil
}

func normalizeHours(h int) int {
	h %= 24
	if h < 0 {
		h += 24
	}
	return h
}
