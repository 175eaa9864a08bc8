package slots

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"maxcal/internal/schedapi"
	"maxcal/models"
)

// fakeAPI serves canned slots per date and records which dates were hit.
type fakeAPI struct {
	mu      sync.Mutex
	self    map[string][]schedapi.TimeSlot
	shared  map[string][]schedapi.TimeSlot
	selfErr map[string]error
	calls   map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		self:    make(map[string][]schedapi.TimeSlot),
		shared:  make(map[string][]schedapi.TimeSlot),
		selfErr: make(map[string]error),
		calls:   make(map[string]int),
	}
}

func (f *fakeAPI) SelfSlots(ctx context.Context, date string) ([]schedapi.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[date]++
	if err, ok := f.selfErr[date]; ok {
		return nil, err
	}
	return f.self[date], nil
}

func (f *fakeAPI) SharedSlots(ctx context.Context, calendarID, date string) ([]schedapi.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[calendarID+"/"+date]++
	return f.shared[date], nil
}

func (f *fakeAPI) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func febCursor() models.MonthCursor {
	return models.MonthCursor{Year: 2025, Month: 1} // February
}

func TestFetchMonth_CollectsNonEmptyDays(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	title := "standup"
	api.self["2025-02-03"] = []schedapi.TimeSlot{{ID: "e", MeetStartAt: 10, MeetEndAt: 11, Title: &title}}
	api.self["2025-02-10"] = []schedapi.TimeSlot{{ID: "w", MeetStartAt: 9, MeetEndAt: 9.3}}

	svc := New(api, zap.NewNop(), time.UTC)
	days, err := svc.FetchMonth(context.Background(), febCursor())
	if err != nil {
		t.Fatalf("FetchMonth failed: %v", err)
	}

	if len(days) != 2 {
		t.Fatalf("expected 2 day records, got %d", len(days))
	}
	// Every day of February was asked for exactly once.
	for d := 1; d <= 28; d++ {
		date := time.Date(2025, 2, d, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		if got := api.callCount(date); got != 1 {
			t.Fatalf("expected one fetch for %s, got %d", date, got)
		}
	}
}

func TestFetchMonth_CachesPerCursor(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	svc := New(api, zap.NewNop(), time.UTC)
	ctx := context.Background()

	if _, err := svc.FetchMonth(ctx, febCursor()); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	if _, err := svc.FetchMonth(ctx, febCursor()); err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if got := api.callCount("2025-02-01"); got != 1 {
		t.Fatalf("expected cached month, got %d fetches of Feb 1", got)
	}

	// A different cursor is an independent entry.
	if _, err := svc.FetchMonth(ctx, models.MonthCursor{Year: 2025, Month: 2}); err != nil {
		t.Fatalf("march fetch failed: %v", err)
	}
	if got := api.callCount("2025-03-01"); got != 1 {
		t.Fatalf("expected march fetched once, got %d", got)
	}

	// Invalidation drops the owner's entries.
	svc.Invalidate("")
	if _, err := svc.FetchMonth(ctx, febCursor()); err != nil {
		t.Fatalf("post-invalidate fetch failed: %v", err)
	}
	if got := api.callCount("2025-02-01"); got != 2 {
		t.Fatalf("expected re-fetch after invalidate, got %d", got)
	}
}

func TestFetchMonth_RecoversNoResponseAnd404(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	title := "ok"
	api.self["2025-02-05"] = []schedapi.TimeSlot{{MeetStartAt: 10, MeetEndAt: 11, Title: &title}}
	api.selfErr["2025-02-06"] = &schedapi.StatusError{Code: http.StatusNotFound, Body: "nope"}
	api.selfErr["2025-02-07"] = schedapi.ErrNoResponse

	svc := New(api, zap.NewNop(), time.UTC)
	days, err := svc.FetchMonth(context.Background(), febCursor())
	if err != nil {
		t.Fatalf("FetchMonth must absorb per-day 404/transport failures: %v", err)
	}
	if len(days) != 1 || days[0].Date != "2025-02-05" {
		t.Fatalf("unexpected days: %+v", days)
	}
}

func TestFetchMonth_PropagatesServerErrors(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.selfErr["2025-02-06"] = &schedapi.StatusError{Code: http.StatusInternalServerError, Body: "boom"}

	svc := New(api, zap.NewNop(), time.UTC)
	if _, err := svc.FetchMonth(context.Background(), febCursor()); err == nil {
		t.Fatal("expected a 500 to propagate")
	}
}

func TestFetchSharedMonth_MarksEmptyDaysDisabled(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	api.shared["2025-02-05"] = []schedapi.TimeSlot{{MeetStartAt: 9, MeetEndAt: 9.3}}

	svc := New(api, zap.NewNop(), time.UTC)
	days, err := svc.FetchSharedMonth(context.Background(), "cal-1", febCursor())
	if err != nil {
		t.Fatalf("FetchSharedMonth failed: %v", err)
	}

	// 28 days: one with availability, 27 disabled placeholders.
	if len(days) != 28 {
		t.Fatalf("expected 28 day records for a guest month, got %d", len(days))
	}
	var disabled, open int
	for _, day := range days {
		if day.IsDisabled {
			disabled++
		} else {
			open++
			if day.Date != "2025-02-05" {
				t.Fatalf("unexpected open day %s", day.Date)
			}
		}
	}
	if disabled != 27 || open != 1 {
		t.Fatalf("expected 27 disabled / 1 open, got %d / %d", disabled, open)
	}
}

func TestFetchDay_BypassesCache(t *testing.T) {
	t.Parallel()

	api := newFakeAPI()
	svc := New(api, zap.NewNop(), time.UTC)
	ctx := context.Background()

	if _, err := svc.FetchDay(ctx, "2025-02-14"); err != nil {
		t.Fatalf("FetchDay failed: %v", err)
	}
	if _, err := svc.FetchDay(ctx, "2025-02-14"); err != nil {
		t.Fatalf("second FetchDay failed: %v", err)
	}
	if got := api.callCount("2025-02-14"); got != 2 {
		t.Fatalf("FetchDay must not cache, got %d calls", got)
	}
}
