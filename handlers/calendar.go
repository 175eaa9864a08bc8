package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"maxcal/models"
	"maxcal/services/grid"
	"maxcal/services/guest"
	"maxcal/services/slots"
)

// CalendarHandler serves the month grid and single-day endpoints.
type CalendarHandler struct {
	Grid   *grid.Service
	Slots  *slots.Service
	Guests *guest.Service
}

// NewCalendarHandler creates a new CalendarHandler.
func NewCalendarHandler(gridService *grid.Service, slotsService *slots.Service, guests *guest.Service) *CalendarHandler {
	return &CalendarHandler{
		Grid:   gridService,
		Slots:  slotsService,
		Guests: guests,
	}
}

// GetCalendar returns the render-ready month grid. Months in the query are
// 0-based, matching the cursor encoding. When a guest session is active the
// grid shows the shared calendar instead of the user's own.
func (h *CalendarHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		month, err := strconv.Atoi(r.URL.Query().Get("month"))
		if err != nil || month < 0 || month > 11 {
			writeError(w, http.StatusBadRequest, "invalid month")
			return
		}
		h.Grid.SetCursor(userID, models.MonthCursor{Year: year, Month: month})
	}

	h.render(w, r, userID)
}

// GetSharedCalendar returns the month grid of an explicit shared calendar,
// regardless of the guest session state.
func (h *CalendarHandler) GetSharedCalendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	calendarID := strings.TrimSpace(mux.Vars(r)["calendarID"])
	if calendarID == "" {
		writeError(w, http.StatusBadRequest, "calendar id is required")
		return
	}

	cursor := h.Grid.Cursor(userID)
	days, err := h.Slots.FetchSharedMonth(r.Context(), calendarID, cursor)
	if err != nil {
		writeError(w, http.StatusBadGateway, "scheduling service unavailable")
		return
	}
	writeJSON(w, http.StatusOK, h.Grid.View(userID, days))
}

// PrevMonth shifts the cursor one month back and re-renders.
func (h *CalendarHandler) PrevMonth(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	h.Grid.PrevMonth(userID)
	h.render(w, r, userID)
}

// NextMonth shifts the cursor one month forward and re-renders.
func (h *CalendarHandler) NextMonth(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	h.Grid.NextMonth(userID)
	h.render(w, r, userID)
}

// GoToday moves the cursor to the current month, selects today and re-renders.
func (h *CalendarHandler) GoToday(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	h.Grid.GoToday(userID)
	h.render(w, r, userID)
}

// SelectDay marks one date selected and re-renders.
func (h *CalendarHandler) SelectDay(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var body struct {
		Date string `json:"date"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Date) == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	h.Grid.SelectDay(userID, body.Date)
	h.render(w, r, userID)
}

// GetDay returns one day's slots for the owner, bypassing the month cache.
func (h *CalendarHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	date := strings.TrimSpace(mux.Vars(r)["date"])
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}

	day, err := h.Slots.FetchDay(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusBadGateway, "scheduling service unavailable")
		return
	}
	if day == nil {
		day = &models.CalendarDay{
			Date:         date,
			Events:       []models.CalendarEvent{},
			Availability: []models.TimeRange{},
		}
	}
	writeJSON(w, http.StatusOK, day)
}

// Options handles CORS preflight.
func (h *CalendarHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *CalendarHandler) render(w http.ResponseWriter, r *http.Request, userID string) {
	cursor := h.Grid.Cursor(userID)

	var (
		days []models.CalendarDay
		err  error
	)
	if calendarID := h.Guests.ActiveCalendarID(userID); calendarID != "" {
		days, err = h.Slots.FetchSharedMonth(r.Context(), calendarID, cursor)
	} else {
		days, err = h.Slots.FetchMonth(r.Context(), cursor)
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, "scheduling service unavailable")
		return
	}

	writeJSON(w, http.StatusOK, h.Grid.View(userID, days))
}
