package slots

import (
	"testing"
	"time"

	"maxcal/internal/schedapi"
)

func strPtr(s string) *string { return &s }

func TestConvertDay_SplitsAndSorts(t *testing.T) {
	t.Parallel()

	raw := []schedapi.TimeSlot{
		{ID: "a", MeetStartAt: 10.0, MeetEndAt: 11.0, Title: strPtr("A")},
		{ID: "b", MeetStartAt: 9.0, MeetEndAt: 9.30},
	}

	day := ConvertDay("2025-02-14", raw, false, time.UTC)
	if day == nil {
		t.Fatal("expected a day record")
	}
	if day.IsDisabled {
		t.Fatal("day must not be disabled")
	}

	if len(day.Events) != 1 {
		t.Fatalf("expected one event, got %d", len(day.Events))
	}
	event := day.Events[0]
	if event.Title != "A" || event.ID != "a" || event.SlotID != "a" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.StartsAt != "2025-02-14T10:00:00Z" || event.EndsAt != "2025-02-14T11:00:00Z" {
		t.Fatalf("unexpected event bounds: %s - %s", event.StartsAt, event.EndsAt)
	}

	if len(day.Availability) != 1 {
		t.Fatalf("expected one availability window, got %d", len(day.Availability))
	}
	window := day.Availability[0]
	if window.Start != "09:00" || window.End != "09:30" {
		t.Fatalf("unexpected window: %+v", window)
	}
	if window.SlotID != "b" {
		t.Fatalf("window should carry the server slot id, got %q", window.SlotID)
	}
}

func TestConvertDay_SortedByStartWithinEachList(t *testing.T) {
	t.Parallel()

	raw := []schedapi.TimeSlot{
		{MeetStartAt: 15.0, MeetEndAt: 16.0, Title: strPtr("late")},
		{MeetStartAt: 12.30, MeetEndAt: 13.0},
		{MeetStartAt: 9.0, MeetEndAt: 10.0, Title: strPtr("early")},
		{MeetStartAt: 8.0, MeetEndAt: 8.30},
	}

	day := ConvertDay("2025-02-14", raw, false, time.UTC)
	if day == nil {
		t.Fatal("expected a day record")
	}
	if day.Events[0].Title != "early" || day.Events[1].Title != "late" {
		t.Fatalf("events out of order: %+v", day.Events)
	}
	if day.Availability[0].Start != "08:00" || day.Availability[1].Start != "12:30" {
		t.Fatalf("availability out of order: %+v", day.Availability)
	}
}

func TestConvertDay_WhitespaceTitleIsAvailability(t *testing.T) {
	t.Parallel()

	raw := []schedapi.TimeSlot{
		{MeetStartAt: 9.0, MeetEndAt: 10.0, Title: strPtr("   ")},
	}
	day := ConvertDay("2025-02-14", raw, false, time.UTC)
	if day == nil {
		t.Fatal("expected a day record")
	}
	if len(day.Events) != 0 || len(day.Availability) != 1 {
		t.Fatalf("whitespace title must convert to availability: %+v", day)
	}
}

func TestConvertDay_GeneratesIDWhenServerOmitsOne(t *testing.T) {
	t.Parallel()

	raw := []schedapi.TimeSlot{
		{MeetStartAt: 9.0, MeetEndAt: 10.0, Title: strPtr("untracked")},
	}
	day := ConvertDay("2025-02-14", raw, false, time.UTC)
	if day == nil || len(day.Events) != 1 {
		t.Fatalf("expected one event, got %+v", day)
	}
	if day.Events[0].ID == "" {
		t.Fatal("expected a generated id")
	}
}

func TestConvertDay_PrefersSlotIDOverID(t *testing.T) {
	t.Parallel()

	raw := []schedapi.TimeSlot{
		{ID: "fallback", SlotID: "primary", MeetStartAt: 9.0, MeetEndAt: 10.0, Title: strPtr("X")},
	}
	day := ConvertDay("2025-02-14", raw, false, time.UTC)
	if day.Events[0].ID != "primary" {
		t.Fatalf("expected slot_id to win, got %q", day.Events[0].ID)
	}
}

func TestConvertDay_EmptyInput(t *testing.T) {
	t.Parallel()

	if day := ConvertDay("2025-02-14", nil, false, time.UTC); day != nil {
		t.Fatalf("expected nil for empty owner day, got %+v", day)
	}

	day := ConvertDay("2025-02-14", nil, true, time.UTC)
	if day == nil {
		t.Fatal("expected a disabled day for guest views")
	}
	if !day.IsDisabled {
		t.Fatal("expected IsDisabled")
	}
	if day.Events == nil || len(day.Events) != 0 {
		t.Fatalf("expected empty non-nil events, got %+v", day.Events)
	}
	if day.Availability == nil || len(day.Availability) != 0 {
		t.Fatalf("expected empty non-nil availability, got %+v", day.Availability)
	}
}

func TestConvertDay_FractionalMinuteEncoding(t *testing.T) {
	t.Parallel()

	raw := []schedapi.TimeSlot{
		{MeetStartAt: 9.05, MeetEndAt: 9.5},
	}
	day := ConvertDay("2025-02-14", raw, false, time.UTC)
	if day == nil || len(day.Availability) != 1 {
		t.Fatalf("expected one window, got %+v", day)
	}
	// 9.05 is 9:05; 9.5 pads to 9:50.
	if day.Availability[0].Start != "09:05" || day.Availability[0].End != "09:50" {
		t.Fatalf("unexpected labels: %+v", day.Availability[0])
	}
}
