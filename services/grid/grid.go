package grid

import (
	"time"

	"maxcal/models"
	"maxcal/utils"
)

// DaysInGrid is the fixed cell count: six full weeks regardless of month length.
const DaysInGrid = 42

// Build produces the 42-cell date grid for the month containing reference.
// The grid starts on the Monday on or before the 1st and always spans complete
// weeks, padding with adjacent-month days.
func Build(reference, today time.Time) []models.ViewDay {
	start := gridStart(reference)
	cells := make([]models.ViewDay, 0, DaysInGrid)
	for i := 0; i < DaysInGrid; i++ {
		date := start.AddDate(0, 0, i)
		iso := utils.ToLocalISODate(date)
		cells = append(cells, models.ViewDay{
			CalendarDay:    models.CalendarDay{Date: iso, Events: []models.CalendarEvent{}},
			ISODate:        iso,
			DateObj:        date,
			InCurrentMonth: date.Month() == reference.Month() && date.Year() == reference.Year(),
			IsToday:        utils.SameDay(date, today),
		})
	}
	return cells
}

// Reconcile copies sparse server-side day records onto the grid by exact ISO date.
// Cells without a matching record keep their synthesized empty day; no cell is
// ever dropped.
func Reconcile(cells []models.ViewDay, days []models.CalendarDay) []models.ViewDay {
	byDate := make(map[string]models.CalendarDay, len(days))
	for _, day := range days {
		byDate[day.Date] = day
	}

	out := make([]models.ViewDay, len(cells))
	for i, cell := range cells {
		out[i] = cell
		if source, ok := byDate[cell.ISODate]; ok {
			out[i].Events = source.Events
			if out[i].Events == nil {
				out[i].Events = []models.CalendarEvent{}
			}
			out[i].Availability = source.Availability
			out[i].IsDisabled = source.IsDisabled
		}
	}
	return out
}

// Weeks chunks the 42 cells into six rows of seven.
func Weeks(cells []models.ViewDay) [][]models.ViewDay {
	weeks := make([][]models.ViewDay, 0, len(cells)/7)
	for i := 0; i+7 <= len(cells); i += 7 {
		weeks = append(weeks, cells[i:i+7])
	}
	return weeks
}

// gridStart returns the Monday on or before the 1st of the month containing t.
func gridStart(t time.Time) time.Time {
	startOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	offset := (int(startOfMonth.Weekday()) + 6) % 7 // Monday-first weekday index
	return startOfMonth.AddDate(0, 0, -offset)
}
