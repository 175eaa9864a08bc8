package slots

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"maxcal/internal/schedapi"
	"maxcal/models"
	"maxcal/utils"
)

// ConvertDay merges one date's raw slots into a CalendarDay. Slots with a
// non-empty trimmed title become events, the rest become availability windows,
// each list sorted by start time.
//
// An empty slot list means "nothing here": the result is nil, unless
// markEmptyAsDisabled is set (guest views), in which case the day comes back
// disabled with empty lists so "no slots available" stays distinguishable from
// "not fetched". A day that splits into two empty lists is likewise nil.
func ConvertDay(date string, raw []schedapi.TimeSlot, markEmptyAsDisabled bool, loc *time.Location) *models.CalendarDay {
	if len(raw) == 0 {
		if markEmptyAsDisabled {
			return &models.CalendarDay{
				Date:         date,
				Events:       []models.CalendarEvent{},
				Availability: []models.TimeRange{},
				IsDisabled:   true,
			}
		}
		return nil
	}

	sorted := make([]schedapi.TimeSlot, len(raw))
	copy(sorted, raw)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MeetStartAt < sorted[j].MeetStartAt
	})

	events := []models.CalendarEvent{}
	availability := []models.TimeRange{}

	for _, slot := range sorted {
		startISO := combineOrZero(date, slot.MeetStartAt, loc)
		endISO := combineOrZero(date, slot.MeetEndAt, loc)

		serverID := slot.SlotID
		if serverID == "" {
			serverID = slot.ID
		}
		slotID := serverID
		if slotID == "" {
			slotID = uuid.NewString()
		}

		title := ""
		if slot.Title != nil {
			title = strings.TrimSpace(*slot.Title)
		}

		if title != "" {
			event := models.CalendarEvent{
				ID:         slotID,
				SlotID:     slotID,
				Title:      title,
				StartsAt:   startISO,
				EndsAt:     endISO,
				MeetingURL: slot.MeetingURL,
			}
			if slot.Description != nil {
				event.Description = *slot.Description
			}
			events = append(events, event)
		} else {
			availability = append(availability, models.TimeRange{
				Start:    utils.TimeLabel(slot.MeetStartAt),
				End:      utils.TimeLabel(slot.MeetEndAt),
				StartISO: startISO,
				EndISO:   endISO,
				SlotID:   slotID,
			})
		}
	}

	if len(events) == 0 && len(availability) == 0 {
		return nil
	}
	return &models.CalendarDay{
		Date:         date,
		Events:       events,
		Availability: availability,
	}
}

func combineOrZero(date string, value float64, loc *time.Location) string {
	at, err := utils.CombineDateAndFloat(date, value, loc)
	if err != nil {
		return ""
	}
	return at.Format(time.RFC3339)
}
