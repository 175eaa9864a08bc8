package utils

import (
	"testing"
	"time"
)

func TestLocalISODateRoundTrip(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	iso := ToLocalISODate(day)
	if iso != "2025-03-09" {
		t.Fatalf("expected 2025-03-09, got %q", iso)
	}

	parsed, err := FromLocalISODate(iso, time.UTC)
	if err != nil {
		t.Fatalf("FromLocalISODate failed: %v", err)
	}
	if !parsed.Equal(day) {
		t.Fatalf("expected %v, got %v", day, parsed)
	}
}

func TestFormatAPIDateTime(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 2, 14, 13, 30, 15, 0, time.UTC)
	if got := FormatAPIDateTime(at); got != "2025-02-14T13:30:15" {
		t.Fatalf("unexpected api datetime: %q", got)
	}
}

func TestSameDay(t *testing.T) {
	t.Parallel()

	morning := time.Date(2025, 2, 14, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 2, 14, 23, 59, 0, 0, time.UTC)
	next := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)

	if !SameDay(morning, evening) {
		t.Fatal("expected same day")
	}
	if SameDay(evening, next) {
		t.Fatal("expected different days")
	}
}
