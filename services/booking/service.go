package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"maxcal/internal/schedapi"
	"maxcal/models"
	"maxcal/utils"
)

var (
	// ErrNoDayOpen is returned when a range is selected with no day open.
	ErrNoDayOpen = errors.New("no day is open")
	// ErrIncompleteSelection rejects a submit without both a title and a range.
	ErrIncompleteSelection = errors.New("booking needs a title and a selected window")
	// ErrSlotOverlap rejects an own-calendar create that intersects an existing event.
	ErrSlotOverlap = errors.New("slot overlaps an existing event")
	// ErrSlotIDRequired rejects a delete without an id.
	ErrSlotIDRequired = errors.New("slot id is required")
)

// SlotWriter is the mutating slice of the scheduling API.
type SlotWriter interface {
	CreateSelfSlot(ctx context.Context, req schedapi.CreateSelfSlotRequest) (string, error)
	BookSlot(ctx context.Context, req schedapi.BookSlotRequest) (string, error)
	DeleteSelfSlot(ctx context.Context, slotID string) error
}

// DayReader supplies the current events of one date for the conflict gate.
type DayReader interface {
	FetchDay(ctx context.Context, date string) (*models.CalendarDay, error)
}

// Invalidator drops cached months after a successful mutation.
type Invalidator interface {
	Invalidate(calendarID string)
}

// State is the webview-facing snapshot of one user's selection flow:
// Closed -> day open -> range selected -> submitted -> success overlay.
type State struct {
	SelectedDay          *models.CalendarDay `json:"selectedDay,omitempty"`
	SelectedRange        *models.TimeRange   `json:"selectedRange,omitempty"`
	IsOpen               bool                `json:"isOpen"`
	IsSuccessOverlayOpen bool                `json:"isSuccessOverlayOpen"`
}

type selection struct {
	day            *models.CalendarDay
	selectedRange  *models.TimeRange
	isOpen         bool
	successOverlay bool
}

// Service tracks per-user day/range selection across the booking flow and
// performs the create/book/delete mutations. State never mutates optimistically:
// caches are invalidated only after the server confirms.
type Service struct {
	mu     sync.Mutex
	users  map[string]*selection
	writer SlotWriter
	days   DayReader
	cache  Invalidator
	logger *zap.Logger
}

// New creates the booking service.
func New(writer SlotWriter, days DayReader, cache Invalidator, logger *zap.Logger) *Service {
	return &Service{
		users:  make(map[string]*selection),
		writer: writer,
		days:   days,
		cache:  cache,
		logger: logger,
	}
}

func (s *Service) selection(userID string) *selection {
	sel, ok := s.users[userID]
	if !ok {
		sel = &selection{}
		s.users[userID] = sel
	}
	return sel
}

// OpenDay opens a day for booking. Any previously selected range is cleared.
func (s *Service) OpenDay(userID string, day models.CalendarDay) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.selection(userID)
	sel.day = &day
	sel.selectedRange = nil
	sel.isOpen = true
	sel.successOverlay = false
}

// SelectRange picks an availability window. The day stays open so the user can
// change their mind before submitting.
func (s *Service) SelectRange(userID string, r models.TimeRange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.selection(userID)
	if !sel.isOpen || sel.day == nil {
		return ErrNoDayOpen
	}
	sel.selectedRange = &r
	return nil
}

// Close resets the selection flow.
func (s *Service) Close(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.selection(userID)
	sel.day = nil
	sel.selectedRange = nil
	sel.isOpen = false
}

// CloseSuccessOverlay dismisses the post-booking overlay.
func (s *Service) CloseSuccessOverlay(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection(userID).successOverlay = false
}

// State snapshots the user's selection flow.
func (s *Service) State(userID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.selection(userID)
	state := State{
		IsOpen:               sel.isOpen,
		IsSuccessOverlayOpen: sel.successOverlay,
	}
	if sel.day != nil {
		day := *sel.day
		state.SelectedDay = &day
	}
	if sel.selectedRange != nil {
		r := *sel.selectedRange
		state.SelectedRange = &r
	}
	return state
}

// Submit books the selected window on the shared calendar behind ownerToken.
// It refuses locally, with no request sent, unless a trimmed title and a range
// are present. On success the selection closes into the success overlay and the
// affected caches are invalidated.
func (s *Service) Submit(ctx context.Context, userID, ownerToken, title, description string) (string, error) {
	title = strings.TrimSpace(title)

	s.mu.Lock()
	sel := s.selection(userID)
	if title == "" || sel.selectedRange == nil || sel.day == nil {
		s.mu.Unlock()
		return "", ErrIncompleteSelection
	}
	r := *sel.selectedRange
	s.mu.Unlock()

	start, end, err := rangeBounds(r)
	if err != nil {
		return "", err
	}

	req := schedapi.BookSlotRequest{
		OwnerToken:  ownerToken,
		MeetStartAt: utils.FormatAPIDateTime(start),
		MeetEndAt:   utils.FormatAPIDateTime(end),
		Title:       &title,
	}
	if description != "" {
		req.Description = &description
	}

	id, err := s.writer.BookSlot(ctx, req)
	if err != nil {
		return "", fmt.Errorf("book slot: %w", err)
	}

	s.mu.Lock()
	sel.day = nil
	sel.selectedRange = nil
	sel.isOpen = false
	sel.successOverlay = true
	s.mu.Unlock()

	s.cache.Invalidate(ownerToken)
	s.cache.Invalidate("")

	s.logger.Info("slot booked", zap.String("user", userID), zap.String("slot", id))
	return id, nil
}

// CreateEventInput describes an event to create on the owner's own calendar.
type CreateEventInput struct {
	Date        string // YYYY-MM-DD
	StartsAt    time.Time
	EndsAt      time.Time
	Title       string
	Description string
}

// CreateOwnEvent creates an event on the owner's calendar after the local
// double-booking gate: the new interval must not intersect any event already
// on that day. Touching intervals are allowed; the test is half-open.
func (s *Service) CreateOwnEvent(ctx context.Context, userID string, input CreateEventInput) (string, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || input.EndsAt.IsZero() || input.StartsAt.IsZero() {
		return "", ErrIncompleteSelection
	}

	day, err := s.days.FetchDay(ctx, input.Date)
	if err != nil {
		return "", fmt.Errorf("load day for conflict check: %w", err)
	}
	if day != nil {
		for _, event := range day.Events {
			if intersects(event, input.StartsAt, input.EndsAt) {
				return "", ErrSlotOverlap
			}
		}
	}

	req := schedapi.CreateSelfSlotRequest{
		MeetStartAt: utils.FormatAPIDateTime(input.StartsAt),
		MeetEndAt:   utils.FormatAPIDateTime(input.EndsAt),
		Title:       &title,
	}
	if input.Description != "" {
		req.Description = &input.Description
	}

	id, err := s.writer.CreateSelfSlot(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create event: %w", err)
	}

	s.cache.Invalidate("")
	s.logger.Info("event created", zap.String("user", userID), zap.String("slot", id))
	return id, nil
}

// CreateAvailability opens an untitled bookable window on the owner's calendar.
func (s *Service) CreateAvailability(ctx context.Context, userID string, date string, start, end time.Time) (string, error) {
	if start.IsZero() || end.IsZero() {
		return "", ErrIncompleteSelection
	}

	req := schedapi.CreateSelfSlotRequest{
		MeetStartAt: utils.FormatAPIDateTime(start),
		MeetEndAt:   utils.FormatAPIDateTime(end),
	}
	id, err := s.writer.CreateSelfSlot(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create availability: %w", err)
	}

	s.cache.Invalidate("")
	return id, nil
}

// DeleteOwnEvent removes one of the owner's slots and refreshes the cache.
func (s *Service) DeleteOwnEvent(ctx context.Context, userID, slotID string) error {
	if strings.TrimSpace(slotID) == "" {
		return ErrSlotIDRequired
	}
	if err := s.writer.DeleteSelfSlot(ctx, slotID); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	s.cache.Invalidate("")
	s.logger.Info("event deleted", zap.String("user", userID), zap.String("slot", slotID))
	return nil
}

// intersects applies the half-open interval test: touching bounds do not count
// as a conflict.
func intersects(event models.CalendarEvent, start, end time.Time) bool {
	existingStart, err1 := time.Parse(time.RFC3339, event.StartsAt)
	existingEnd, err2 := time.Parse(time.RFC3339, event.EndsAt)
	if err1 != nil || err2 != nil {
		return false
	}
	return start.Before(existingEnd) && existingStart.Before(end)
}

func rangeBounds(r models.TimeRange) (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, r.StartISO)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse range start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, r.EndISO)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse range end: %w", err)
	}
	return start, end, nil
}
