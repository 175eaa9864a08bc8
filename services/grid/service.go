package grid

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"maxcal/models"
	"maxcal/utils"
)

// Russian month names, matching the webview's ru-RU month header.
var monthLabels = [...]string{
	"январь", "февраль", "март", "апрель", "май", "июнь",
	"июль", "август", "сентябрь", "октябрь", "ноябрь", "декабрь",
}

type navState struct {
	viewDate     time.Time
	selectedDate string
}

// Service tracks per-user calendar navigation state: which month is in view and
// which day is selected. The render-ready grid is recomputed on every request,
// never stored.
type Service struct {
	mu     sync.RWMutex
	users  map[string]*navState
	logger *zap.Logger
	now    func() time.Time
}

// New creates the navigation service.
func New(logger *zap.Logger) *Service {
	return &Service{
		users:  make(map[string]*navState),
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) state(userID string) *navState {
	st, ok := s.users[userID]
	if !ok {
		st = &navState{viewDate: s.now()}
		s.users[userID] = st
	}
	return st
}

// Cursor returns the month cursor currently in view for the user.
func (s *Service) Cursor(userID string) models.MonthCursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CursorFor(s.state(userID).viewDate)
}

// SetCursor jumps the view to an explicit month.
func (s *Service) SetCursor(userID string, cursor models.MonthCursor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(userID)
	st.viewDate = cursor.Time(st.viewDate.Location())
}

// PrevMonth moves the view to the 1st of the previous month.
func (s *Service) PrevMonth(userID string) models.MonthCursor {
	return s.shiftMonth(userID, -1)
}

// NextMonth moves the view to the 1st of the next month.
func (s *Service) NextMonth(userID string) models.MonthCursor {
	return s.shiftMonth(userID, 1)
}

func (s *Service) shiftMonth(userID string, delta int) models.MonthCursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(userID)
	st.viewDate = time.Date(st.viewDate.Year(), st.viewDate.Month(), 1, 0, 0, 0, 0, st.viewDate.Location()).AddDate(0, delta, 0)
	return models.CursorFor(st.viewDate)
}

// GoToday resets the view to the current month and selects today.
func (s *Service) GoToday(userID string) models.MonthCursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(userID)
	st.viewDate = s.now()
	st.selectedDate = utils.ToLocalISODate(st.viewDate)
	return models.CursorFor(st.viewDate)
}

// SelectDay records the user's selected day.
func (s *Service) SelectDay(userID, isoDate string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state(userID).selectedDate = isoDate
}

// View builds the render-ready response for the user's current month from the
// given sparse day records.
func (s *Service) View(userID string, days []models.CalendarDay) models.CalendarResponse {
	s.mu.Lock()
	st := s.state(userID)
	viewDate := st.viewDate
	selected := st.selectedDate
	s.mu.Unlock()

	cells := Reconcile(Build(viewDate, s.now()), days)
	return models.CalendarResponse{
		Cursor:       models.CursorFor(viewDate),
		MonthLabel:   monthLabels[viewDate.Month()-1],
		YearLabel:    viewDate.Format("2006"),
		Weeks:        Weeks(cells),
		SelectedDate: selected,
	}
}
