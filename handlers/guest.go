package handlers

import (
	"net/http"

	"maxcal/services/guest"
)

// GuestHandler serves the guest-session endpoints backing the viewing-mode
// overlay.
type GuestHandler struct {
	Guests *guest.Service
}

// NewGuestHandler creates a new GuestHandler.
func NewGuestHandler(guests *guest.Service) *GuestHandler {
	return &GuestHandler{Guests: guests}
}

// Init processes the startup payload token. Activation is optional so a
// deep link can load the session paused.
func (h *GuestHandler) Init(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var body struct {
		Token    string `json:"token"`
		Activate bool   `json:"activate"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	h.Guests.InitFromPayload(r.Context(), userID, body.Token, body.Activate)
	writeJSON(w, http.StatusOK, h.Guests.State(userID))
}

// Exit leaves the guest session and blocks its token from re-triggering.
func (h *GuestHandler) Exit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	h.Guests.Exit(userID)
	writeJSON(w, http.StatusOK, h.Guests.State(userID))
}

// Pause suspends the guest view without forgetting the session.
func (h *GuestHandler) Pause(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	h.Guests.Pause(userID)
	writeJSON(w, http.StatusOK, h.Guests.State(userID))
}

// Resume reactivates a paused guest session without a re-fetch.
func (h *GuestHandler) Resume(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	h.Guests.Resume(userID)
	writeJSON(w, http.StatusOK, h.Guests.State(userID))
}

// State returns the current guest-session snapshot.
func (h *GuestHandler) State(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.Guests.State(userID))
}

// Options handles CORS preflight.
func (h *GuestHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
