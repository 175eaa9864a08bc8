package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
)

type fakeDispatcher struct {
	mu     sync.Mutex
	alerts int
	daily  int
	err    error
}

func (f *fakeDispatcher) DispatchAlertReminders(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts++
	return f.err
}

func (f *fakeDispatcher) DispatchDailyReminders(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.daily++
	return f.err
}

func (f *fakeDispatcher) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alerts, f.daily
}

func TestStart_IsIdempotent(t *testing.T) {
	t.Parallel()

	svc := New(&fakeDispatcher{}, DefaultConfig(), zap.NewNop())
	if err := svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.Stop()

	if err := svc.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
}

func TestStart_RejectsBadSpec(t *testing.T) {
	t.Parallel()

	svc := New(&fakeDispatcher{}, Config{AlertSpec: "not a cron spec", DailySpec: "* * * * *"}, zap.NewNop())
	if err := svc.Start(); err == nil {
		t.Fatal("expected an error for an invalid cron spec")
	}
}

func TestStop_WithoutStart(t *testing.T) {
	t.Parallel()

	svc := New(&fakeDispatcher{}, DefaultConfig(), zap.NewNop())
	svc.Stop() // must not panic
}

func TestDispatch_CallsBothSweeps(t *testing.T) {
	t.Parallel()

	api := &fakeDispatcher{}
	svc := New(api, DefaultConfig(), zap.NewNop())

	svc.dispatchAlerts()
	svc.dispatchDaily()

	alerts, daily := api.counts()
	if alerts != 1 || daily != 1 {
		t.Fatalf("expected one call each, got alerts=%d daily=%d", alerts, daily)
	}
}

func TestDispatch_FailureDoesNotRetryEarly(t *testing.T) {
	t.Parallel()

	api := &fakeDispatcher{err: errors.New("down")}
	svc := New(api, DefaultConfig(), zap.NewNop())

	svc.dispatchAlerts()

	alerts, _ := api.counts()
	if alerts != 1 {
		t.Fatalf("a failed sweep must not re-dispatch, got %d calls", alerts)
	}
}
