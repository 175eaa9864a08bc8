package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"maxcal/models"
	"maxcal/services/booking"
	"maxcal/services/guest"
)

// BookingHandler serves the booking selection flow and the owner's own
// event mutations.
type BookingHandler struct {
	Bookings *booking.Service
	Guests   *guest.Service
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookings *booking.Service, guests *guest.Service) *BookingHandler {
	return &BookingHandler{Bookings: bookings, Guests: guests}
}

// OpenDay opens the tapped grid cell for booking.
func (h *BookingHandler) OpenDay(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var body struct {
		Day models.CalendarDay `json:"day"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Day.Date) == "" {
		writeError(w, http.StatusBadRequest, "day date is required")
		return
	}

	h.Bookings.OpenDay(userID, body.Day)
	writeJSON(w, http.StatusOK, h.Bookings.State(userID))
}

// SelectRange picks one availability window of the open day.
func (h *BookingHandler) SelectRange(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var body struct {
		Range models.TimeRange `json:"range"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if err := h.Bookings.SelectRange(userID, body.Range); err != nil {
		writeError(w, http.StatusConflict, "no day is open for booking")
		return
	}
	writeJSON(w, http.StatusOK, h.Bookings.State(userID))
}

// Submit books the selected window on the active shared calendar.
func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	ownerToken := h.Guests.ActiveCalendarID(userID)
	if ownerToken == "" {
		writeError(w, http.StatusConflict, "no active shared calendar")
		return
	}

	id, err := h.Bookings.Submit(r.Context(), userID, ownerToken, body.Title, body.Description)
	if err != nil {
		if errors.Is(err, booking.ErrIncompleteSelection) {
			writeError(w, http.StatusUnprocessableEntity, "title and time window are required")
			return
		}
		writeError(w, http.StatusBadGateway, "booking failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":    id,
		"state": h.Bookings.State(userID),
	})
}

// Close dismisses the booking flow.
func (h *BookingHandler) Close(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	h.Bookings.Close(userID)
	writeJSON(w, http.StatusOK, h.Bookings.State(userID))
}

// CloseOverlay dismisses the post-booking success overlay.
func (h *BookingHandler) CloseOverlay(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	h.Bookings.CloseSuccessOverlay(userID)
	writeJSON(w, http.StatusOK, h.Bookings.State(userID))
}

// State returns the current booking-flow snapshot.
func (h *BookingHandler) State(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.Bookings.State(userID))
}

type eventRequest struct {
	Date        string `json:"date"`
	StartsAt    string `json:"starts_at"`
	EndsAt      string `json:"ends_at"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (req eventRequest) bounds(w http.ResponseWriter) (time.Time, time.Time, bool) {
	start, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid starts_at")
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ends_at")
		return time.Time{}, time.Time{}, false
	}
	if !end.After(start) {
		writeError(w, http.StatusBadRequest, "ends_at must be after starts_at")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// CreateEvent creates an event on the owner's calendar, rejecting overlaps.
func (h *BookingHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var body eventRequest
	if !decodeBody(w, r, &body) {
		return
	}
	start, end, ok := body.bounds(w)
	if !ok {
		return
	}

	id, err := h.Bookings.CreateOwnEvent(r.Context(), userID, booking.CreateEventInput{
		Date:        body.Date,
		StartsAt:    start,
		EndsAt:      end,
		Title:       body.Title,
		Description: body.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrSlotOverlap):
			writeError(w, http.StatusConflict, "time window overlaps an existing event")
		case errors.Is(err, booking.ErrIncompleteSelection):
			writeError(w, http.StatusUnprocessableEntity, "title and time window are required")
		default:
			writeError(w, http.StatusBadGateway, "event creation failed")
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// CreateAvailability opens an untitled bookable window on the owner's calendar.
func (h *BookingHandler) CreateAvailability(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var body eventRequest
	if !decodeBody(w, r, &body) {
		return
	}
	start, end, ok := body.bounds(w)
	if !ok {
		return
	}

	id, err := h.Bookings.CreateAvailability(r.Context(), userID, body.Date, start, end)
	if err != nil {
		writeError(w, http.StatusBadGateway, "availability creation failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// DeleteEvent removes one of the owner's slots.
func (h *BookingHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	slotID := mux.Vars(r)["slotID"]

	if err := h.Bookings.DeleteOwnEvent(r.Context(), userID, slotID); err != nil {
		if errors.Is(err, booking.ErrSlotIDRequired) {
			writeError(w, http.StatusBadRequest, "slot id is required")
			return
		}
		writeError(w, http.StatusBadGateway, "event deletion failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Options handles CORS preflight.
func (h *BookingHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
