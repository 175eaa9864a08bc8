package slots

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"maxcal/internal/schedapi"
	"maxcal/models"
	"maxcal/utils"
)

const defaultFanout = 8

// SlotAPI is the slice of the scheduling API the month fetcher needs.
type SlotAPI interface {
	SelfSlots(ctx context.Context, date string) ([]schedapi.TimeSlot, error)
	SharedSlots(ctx context.Context, calendarID, date string) ([]schedapi.TimeSlot, error)
}

// cacheKey identifies one month of one calendar. An empty calendarID is the
// owner's own calendar. Keying the cache this way makes superseded fetches
// harmless: a stale month's response only ever lands in its own entry.
type cacheKey struct {
	calendarID string
	year       int
	month      int
}

// Service fetches and caches month-windowed day data. Per-day requests inside a
// month fan out concurrently and are joined before the month is returned; one
// day's recoverable failure never sinks the rest.
type Service struct {
	mu     sync.RWMutex
	cache  map[cacheKey][]models.CalendarDay
	api    SlotAPI
	logger *zap.Logger
	loc    *time.Location
	fanout int
}

// New creates the month fetch service.
func New(api SlotAPI, logger *zap.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		cache:  make(map[cacheKey][]models.CalendarDay),
		api:    api,
		logger: logger,
		loc:    loc,
		fanout: defaultFanout,
	}
}

// FetchMonth returns the owner's sparse day records for the cursor's month,
// from cache when possible.
func (s *Service) FetchMonth(ctx context.Context, cursor models.MonthCursor) ([]models.CalendarDay, error) {
	return s.fetch(ctx, "", cursor)
}

// FetchSharedMonth returns a shared calendar's day records for the cursor's
// month. Empty days come back disabled so the guest view can grey them out.
func (s *Service) FetchSharedMonth(ctx context.Context, calendarID string, cursor models.MonthCursor) ([]models.CalendarDay, error) {
	return s.fetch(ctx, calendarID, cursor)
}

func (s *Service) fetch(ctx context.Context, calendarID string, cursor models.MonthCursor) ([]models.CalendarDay, error) {
	key := cacheKey{calendarID: calendarID, year: cursor.Year, month: cursor.Month}

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	dates := monthDates(cursor, s.loc)
	results := make([]*models.CalendarDay, len(dates))

	p := pool.New().WithMaxGoroutines(s.fanout).WithContext(ctx)
	for i, date := range dates {
		i, date := i, date
		p.Go(func(ctx context.Context) error {
			raw, err := s.fetchDay(ctx, calendarID, date)
			if err != nil {
				return err
			}
			results[i] = ConvertDay(date, raw, calendarID != "", s.loc)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	days := make([]models.CalendarDay, 0, len(results))
	for _, day := range results {
		if day != nil {
			days = append(days, *day)
		}
	}

	s.mu.Lock()
	s.cache[key] = days
	s.mu.Unlock()

	return days, nil
}

// fetchDay applies the per-day recovery rules: a transport failure with no
// response or a 404 reads as "no slots that day"; a 409 likewise for cross-user
// lookups. Anything else propagates.
func (s *Service) fetchDay(ctx context.Context, calendarID, date string) ([]schedapi.TimeSlot, error) {
	var (
		raw []schedapi.TimeSlot
		err error
	)
	if calendarID == "" {
		raw, err = s.api.SelfSlots(ctx, date)
	} else {
		raw, err = s.api.SharedSlots(ctx, calendarID, date)
	}
	if err == nil {
		return raw, nil
	}

	if schedapi.IsNoResponse(err) || schedapi.IsStatus(err, http.StatusNotFound) {
		s.logger.Debug("day fetch recovered as empty", zap.String("date", date), zap.Error(err))
		return nil, nil
	}
	if calendarID != "" && schedapi.IsStatus(err, http.StatusConflict) {
		s.logger.Debug("shared day fetch recovered as empty", zap.String("date", date), zap.Error(err))
		return nil, nil
	}
	return nil, err
}

// FetchDay returns one date's converted day record for the owner, bypassing the
// month cache.
func (s *Service) FetchDay(ctx context.Context, date string) (*models.CalendarDay, error) {
	raw, err := s.fetchDay(ctx, "", date)
	if err != nil {
		return nil, err
	}
	return ConvertDay(date, raw, false, s.loc), nil
}

// Invalidate drops all cached months for one calendar (empty id = own calendar).
// Called after successful mutations so the next view re-fetches.
func (s *Service) Invalidate(calendarID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.cache {
		if key.calendarID == calendarID {
			delete(s.cache, key)
		}
	}
}

// InvalidateAll clears the whole cache.
func (s *Service) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[cacheKey][]models.CalendarDay)
}

// monthDates lists every ISO date of the cursor's month in order.
func monthDates(cursor models.MonthCursor, loc *time.Location) []string {
	start := cursor.Time(loc)
	end := start.AddDate(0, 1, 0)
	var dates []string
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, utils.ToLocalISODate(d))
	}
	return dates
}
