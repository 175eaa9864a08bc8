package models

import "time"

// CalendarEvent is a booked slot on a calendar day. Own events and slots booked by
// guests come and go through the same contract; the server assigns the id on create.
type CalendarEvent struct {
	ID          string `json:"id"`
	SlotID      string `json:"slotId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StartsAt    string `json:"startsAt"` // ISO datetime
	EndsAt      string `json:"endsAt"`   // ISO datetime
	MeetingURL  string `json:"meetingUrl,omitempty"`
}

// TimeRange is a free window a guest may book. End-exclusive; the server guarantees
// ranges on one day never overlap each other or an event.
type TimeRange struct {
	Start    string `json:"start"` // HH:MM
	End      string `json:"end"`   // HH:MM
	StartISO string `json:"startIso,omitempty"`
	EndISO   string `json:"endIso,omitempty"`
	SlotID   string `json:"slotId,omitempty"`
}

// CalendarDay is one day's worth of slot data, keyed by ISO date. At most one record
// per date per calendar. IsDisabled means "in range but nothing bookable", which is
// distinct from the day simply not having been fetched.
type CalendarDay struct {
	Date         string          `json:"date"` // YYYY-MM-DD
	Events       []CalendarEvent `json:"events"`
	Availability []TimeRange     `json:"availability"`
	IsDisabled   bool            `json:"isDisabled,omitempty"`
}

// ViewDay is the grid-cell projection of a CalendarDay. Derived on every render,
// never persisted.
type ViewDay struct {
	CalendarDay
	ISODate        string    `json:"isoDate"`
	DateObj        time.Time `json:"-"`
	InCurrentMonth bool      `json:"inCurrentMonth"`
	IsToday        bool      `json:"isToday"`
}

// MonthCursor identifies which month's data is requested or cached. Month is 0-based
// to match the webview contract; distinct cursors are independent cache entries.
type MonthCursor struct {
	Year  int `json:"year"`
	Month int `json:"month"` // 0-11
}

// Time returns the first day of the cursor's month in the given location.
func (c MonthCursor) Time(loc *time.Location) time.Time {
	return time.Date(c.Year, time.Month(c.Month+1), 1, 0, 0, 0, 0, loc)
}

// CursorFor builds the cursor covering the given date.
func CursorFor(t time.Time) MonthCursor {
	return MonthCursor{Year: t.Year(), Month: int(t.Month()) - 1}
}

// CalendarResponse is the render-ready grid returned to the webview.
type CalendarResponse struct {
	Cursor       MonthCursor `json:"cursor"`
	MonthLabel   string      `json:"monthLabel"`
	YearLabel    string      `json:"yearLabel"`
	Weeks        [][]ViewDay `json:"weeks"`
	SelectedDate string      `json:"selectedDate,omitempty"`
}
