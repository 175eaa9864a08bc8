package usersettings

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"maxcal/internal/kvstore"
	"maxcal/internal/schedapi"
	"maxcal/models"
)

// MeetingDurations are the selectable meeting lengths, in minutes.
var MeetingDurations = []int{15, 30, 45, 60, 90}

// ErrInvalidDuration rejects a meeting length outside MeetingDurations.
var ErrInvalidDuration = errors.New("unsupported meeting duration")

const draftTTL = 0 // drafts survive restarts until reset

// SettingsAPI is the remote settings slice used by the service.
type SettingsAPI interface {
	GetSettings(ctx context.Context, out any) error
	PatchSettings(ctx context.Context, update, out any) error
}

// Service reconciles the remote scheduling-preference record with local draft
// state. Reads degrade to "no record" on missing data; writes propagate errors.
type Service struct {
	api    SettingsAPI
	store  *kvstore.Store
	logger *zap.Logger
}

// New creates the settings service.
func New(api SettingsAPI, store *kvstore.Store, logger *zap.Logger) *Service {
	return &Service{api: api, store: store, logger: logger}
}

// Load fetches the remote settings record. A missing record (404, 409 or an
// unreachable server) reads as nil without error so the webview can render
// defaults.
func (s *Service) Load(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	err := s.api.GetSettings(ctx, &settings)
	if err != nil {
		if schedapi.IsNoResponse(err) ||
			schedapi.IsStatus(err, http.StatusNotFound) ||
			schedapi.IsStatus(err, http.StatusConflict) {
			s.logger.Debug("settings unavailable, using defaults", zap.Error(err))
			return nil, nil
		}
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return &settings, nil
}

// Merge overlays update onto current field by field. Presence in the payload,
// not truthiness, decides: a nil field leaves current untouched while an
// explicit zero replaces it.
func Merge(current, update models.Settings) models.Settings {
	merged := current
	if update.Timezone != nil {
		merged.Timezone = update.Timezone
	}
	if update.WorkTimeStart != nil {
		merged.WorkTimeStart = update.WorkTimeStart
	}
	if update.WorkTimeEnd != nil {
		merged.WorkTimeEnd = update.WorkTimeEnd
	}
	if update.DurationMinutes != nil {
		merged.DurationMinutes = update.DurationMinutes
	}
	if update.AlertOffsetMinutes != nil {
		merged.AlertOffsetMinutes = update.AlertOffsetMinutes
	}
	if update.DailyReminderTime != nil {
		merged.DailyReminderTime = update.DailyReminderTime
	}
	if update.WorkingDays != nil {
		merged.WorkingDays = update.WorkingDays
	}
	return merged
}

// Save patches the remote record and returns its state. Servers may omit
// just-written zero values from the response, so the update is re-applied on
// top of whatever came back.
func (s *Service) Save(ctx context.Context, update models.Settings) (*models.Settings, error) {
	if update.DurationMinutes != nil && !validDuration(*update.DurationMinutes) {
		return nil, ErrInvalidDuration
	}

	var response models.Settings
	if err := s.api.PatchSettings(ctx, update, &response); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	merged := Merge(response, update)
	return &merged, nil
}

// WorkingDays returns the current seven-day record, all false when no remote
// record exists.
func (s *Service) WorkingDays(ctx context.Context) (models.WorkingDays, error) {
	settings, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return models.EmptyWorkingDays(), nil
	}
	return ParseWorkingDays(settings.WorkingDays), nil
}

// ToggleWorkingDay flips one day and persists the full record.
func (s *Service) ToggleWorkingDay(ctx context.Context, day models.DayKey) (models.WorkingDays, error) {
	record, err := s.WorkingDays(ctx)
	if err != nil {
		return nil, err
	}
	record[day] = !record[day]

	update := models.Settings{WorkingDays: EncodeWorkingDays(record)}
	if _, err := s.Save(ctx, update); err != nil {
		return nil, err
	}
	return record, nil
}

// AgendaDraft is the unsaved daily-agenda picker state.
type AgendaDraft struct {
	DailyReminderTime *float64 `json:"daily_reminder_time,omitempty"`
}

// NotificationDraft is the unsaved alert-offset picker state.
type NotificationDraft struct {
	AlertOffsetMinutes *int `json:"alert_offset_minutes,omitempty"`
}

// MeetingPeriodsDraft is the unsaved working-window picker state.
type MeetingPeriodsDraft struct {
	WorkTimeStart   *float64 `json:"work_time_start,omitempty"`
	WorkTimeEnd     *float64 `json:"work_time_end,omitempty"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
}

func draftKey(feature, userID string) string {
	return "settings:draft:" + feature + ":" + userID
}

// SetAgendaDraft stores the user's in-progress agenda selection.
func (s *Service) SetAgendaDraft(userID string, draft AgendaDraft) error {
	return s.store.Set(draftKey("agenda", userID), draft, draftTTL)
}

// AgendaDraft returns the stored draft, reporting whether one exists.
func (s *Service) AgendaDraft(userID string) (AgendaDraft, bool, error) {
	var draft AgendaDraft
	ok, err := s.store.Get(draftKey("agenda", userID), &draft)
	return draft, ok, err
}

// ResetAgendaDraft discards the stored draft.
func (s *Service) ResetAgendaDraft(userID string) error {
	return s.store.Delete(draftKey("agenda", userID))
}

// SetNotificationDraft stores the user's in-progress alert selection.
func (s *Service) SetNotificationDraft(userID string, draft NotificationDraft) error {
	return s.store.Set(draftKey("notification", userID), draft, draftTTL)
}

// NotificationDraft returns the stored draft, reporting whether one exists.
func (s *Service) NotificationDraft(userID string) (NotificationDraft, bool, error) {
	var draft NotificationDraft
	ok, err := s.store.Get(draftKey("notification", userID), &draft)
	return draft, ok, err
}

// ResetNotificationDraft discards the stored draft.
func (s *Service) ResetNotificationDraft(userID string) error {
	return s.store.Delete(draftKey("notification", userID))
}

// SetMeetingPeriodsDraft stores the user's in-progress working-window selection.
func (s *Service) SetMeetingPeriodsDraft(userID string, draft MeetingPeriodsDraft) error {
	if draft.DurationMinutes != nil && !validDuration(*draft.DurationMinutes) {
		return ErrInvalidDuration
	}
	return s.store.Set(draftKey("meeting-periods", userID), draft, draftTTL)
}

// MeetingPeriodsDraft returns the stored draft, reporting whether one exists.
func (s *Service) MeetingPeriodsDraft(userID string) (MeetingPeriodsDraft, bool, error) {
	var draft MeetingPeriodsDraft
	ok, err := s.store.Get(draftKey("meeting-periods", userID), &draft)
	return draft, ok, err
}

// ResetMeetingPeriodsDraft discards the stored draft.
func (s *Service) ResetMeetingPeriodsDraft(userID string) error {
	return s.store.Delete(draftKey("meeting-periods", userID))
}

func validDuration(minutes int) bool {
	for _, allowed := range MeetingDurations {
		if minutes == allowed {
			return true
		}
	}
	return false
}
