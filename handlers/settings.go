package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"maxcal/models"
	"maxcal/services/usersettings"
)

// SettingsHandler serves the scheduling-preferences endpoints.
type SettingsHandler struct {
	Settings *usersettings.Service
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settings *usersettings.Service) *SettingsHandler {
	return &SettingsHandler{Settings: settings}
}

type settingsResponse struct {
	Settings    *models.Settings   `json:"settings"`
	WorkingDays models.WorkingDays `json:"working_days"`
	Durations   []int              `json:"durations"`
}

// GetSettings returns the remote record plus the derived working-day map.
// A missing remote record renders as defaults, not as an error.
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	settings, err := h.Settings.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "settings unavailable")
		return
	}

	record := models.EmptyWorkingDays()
	if settings != nil {
		record = usersettings.ParseWorkingDays(settings.WorkingDays)
	}
	writeJSON(w, http.StatusOK, settingsResponse{
		Settings:    settings,
		WorkingDays: record,
		Durations:   usersettings.MeetingDurations,
	})
}

// PatchSettings applies a partial update. Absent fields stay untouched;
// explicit zeros are written through.
func (h *SettingsHandler) PatchSettings(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var update models.Settings
	if !decodeBody(w, r, &update) {
		return
	}

	saved, err := h.Settings.Save(r.Context(), update)
	if err != nil {
		if errors.Is(err, usersettings.ErrInvalidDuration) {
			writeError(w, http.StatusUnprocessableEntity, "unsupported meeting duration")
			return
		}
		writeError(w, http.StatusBadGateway, "settings update failed")
		return
	}
	writeJSON(w, http.StatusOK, settingsResponse{
		Settings:    saved,
		WorkingDays: usersettings.ParseWorkingDays(saved.WorkingDays),
		Durations:   usersettings.MeetingDurations,
	})
}

// ToggleWorkingDay flips one day and persists the record.
func (h *SettingsHandler) ToggleWorkingDay(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var body struct {
		Day string `json:"day"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	day := models.DayKey(strings.ToLower(strings.TrimSpace(body.Day)))
	if !validDayKey(day) {
		writeError(w, http.StatusBadRequest, "unknown day")
		return
	}

	record, err := h.Settings.ToggleWorkingDay(r.Context(), day)
	if err != nil {
		writeError(w, http.StatusBadGateway, "settings update failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"working_days": record})
}

// SaveDraft stores an unsaved picker selection for one settings feature.
func (h *SettingsHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var err error
	switch mux.Vars(r)["feature"] {
	case "agenda":
		var draft usersettings.AgendaDraft
		if !decodeBody(w, r, &draft) {
			return
		}
		err = h.Settings.SetAgendaDraft(userID, draft)
	case "notification":
		var draft usersettings.NotificationDraft
		if !decodeBody(w, r, &draft) {
			return
		}
		err = h.Settings.SetNotificationDraft(userID, draft)
	case "meeting-periods":
		var draft usersettings.MeetingPeriodsDraft
		if !decodeBody(w, r, &draft) {
			return
		}
		err = h.Settings.SetMeetingPeriodsDraft(userID, draft)
	default:
		writeError(w, http.StatusNotFound, "unknown draft feature")
		return
	}

	if err != nil {
		if errors.Is(err, usersettings.ErrInvalidDuration) {
			writeError(w, http.StatusUnprocessableEntity, "unsupported meeting duration")
			return
		}
		writeError(w, http.StatusInternalServerError, "draft save failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetDraft returns the stored draft for one settings feature, 404 when none.
func (h *SettingsHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var (
		draft any
		found bool
		err   error
	)
	switch mux.Vars(r)["feature"] {
	case "agenda":
		draft, found, err = h.Settings.AgendaDraft(userID)
	case "notification":
		draft, found, err = h.Settings.NotificationDraft(userID)
	case "meeting-periods":
		draft, found, err = h.Settings.MeetingPeriodsDraft(userID)
	default:
		writeError(w, http.StatusNotFound, "unknown draft feature")
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, "draft read failed")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "no draft")
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// ResetDraft discards the stored draft for one settings feature.
func (h *SettingsHandler) ResetDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var err error
	switch mux.Vars(r)["feature"] {
	case "agenda":
		err = h.Settings.ResetAgendaDraft(userID)
	case "notification":
		err = h.Settings.ResetNotificationDraft(userID)
	case "meeting-periods":
		err = h.Settings.ResetMeetingPeriodsDraft(userID)
	default:
		writeError(w, http.StatusNotFound, "unknown draft feature")
		return
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, "draft reset failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Options handles CORS preflight.
func (h *SettingsHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func validDayKey(day models.DayKey) bool {
	for _, known := range models.DayOrder {
		if day == known {
			return true
		}
	}
	return false
}
