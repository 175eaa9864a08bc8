package handlers

import (
	"net/http"

	"maxcal/services/onboarding"
)

// OnboardingHandler serves the first-launch walkthrough endpoints.
type OnboardingHandler struct {
	Onboarding *onboarding.Service
}

// NewOnboardingHandler creates a new OnboardingHandler.
func NewOnboardingHandler(svc *onboarding.Service) *OnboardingHandler {
	return &OnboardingHandler{Onboarding: svc}
}

// State opens the walkthrough when neither completion flag is set and returns
// the current snapshot.
func (h *OnboardingHandler) State(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	if _, err := h.Onboarding.OpenIfNeeded(r.Context(), userID); err != nil {
		writeError(w, http.StatusBadGateway, "onboarding state unavailable")
		return
	}
	writeJSON(w, http.StatusOK, h.Onboarding.State(userID))
}

// Advance moves to the next slide.
func (h *OnboardingHandler) Advance(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.Onboarding.Advance(r.Context(), userID))
}

// Skip dismisses the walkthrough early.
func (h *OnboardingHandler) Skip(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	h.Onboarding.Skip(r.Context(), userID)
	writeJSON(w, http.StatusOK, h.Onboarding.State(userID))
}

// Complete records completion directly.
func (h *OnboardingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	h.Onboarding.Complete(r.Context(), userID)
	writeJSON(w, http.StatusOK, h.Onboarding.State(userID))
}

// Reset clears both completion flags so the walkthrough shows again.
func (h *OnboardingHandler) Reset(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.Onboarding.Reset(r.Context(), userID); err != nil {
		writeError(w, http.StatusBadGateway, "onboarding reset failed")
		return
	}
	writeJSON(w, http.StatusOK, h.Onboarding.State(userID))
}

// Options handles CORS preflight.
func (h *OnboardingHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
