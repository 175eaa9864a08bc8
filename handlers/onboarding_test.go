package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"maxcal/internal/kvstore"
	"maxcal/services/onboarding"
)

type fakeOnboardingAPI struct {
	remoteDone bool
}

func (f *fakeOnboardingAPI) GetOnboarding(context.Context) (bool, error) {
	return f.remoteDone, nil
}

func (f *fakeOnboardingAPI) CreateOnboarding(context.Context) error {
	f.remoteDone = true
	return nil
}

func (f *fakeOnboardingAPI) DeleteOnboarding(context.Context) error {
	f.remoteDone = false
	return nil
}

func newOnboardingHandler(t *testing.T, api *fakeOnboardingAPI) *OnboardingHandler {
	t.Helper()
	if api == nil {
		api = &fakeOnboardingAPI{}
	}
	store, err := kvstore.New(afero.NewMemMapFs(), "/data")
	if err != nil {
		t.Fatalf("kvstore.New: %v", err)
	}
	return NewOnboardingHandler(onboarding.New(api, store, zap.NewNop()))
}

func decodeOnboarding(t *testing.T, rec *httptest.ResponseRecorder) onboarding.State {
	t.Helper()
	var state onboarding.State
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return state
}

func TestOnboardingState_FirstLaunch(t *testing.T) {
	t.Parallel()

	handler := newOnboardingHandler(t, nil)
	rec := httptest.NewRecorder()
	handler.State(rec, authedRequest(http.MethodGet, "/api/onboarding", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if state := decodeOnboarding(t, rec); !state.Visible || state.Slide != 0 {
		t.Fatalf("expected visible walkthrough, got %+v", state)
	}
}

func TestOnboardingAdvanceToCompletion(t *testing.T) {
	t.Parallel()

	api := &fakeOnboardingAPI{}
	handler := newOnboardingHandler(t, api)

	rec := httptest.NewRecorder()
	handler.State(rec, authedRequest(http.MethodGet, "/api/onboarding", nil))

	var last onboarding.State
	for i := 0; i < onboarding.SlideCount; i++ {
		rec = httptest.NewRecorder()
		handler.Advance(rec, authedRequest(http.MethodPost, "/api/onboarding/advance", nil))
		last = decodeOnboarding(t, rec)
	}
	if last.Visible {
		t.Fatalf("walkthrough should be complete, got %+v", last)
	}
	if !api.remoteDone {
		t.Fatal("completion must sync to the remote flag")
	}

	// A later state check stays closed.
	rec = httptest.NewRecorder()
	handler.State(rec, authedRequest(http.MethodGet, "/api/onboarding", nil))
	if state := decodeOnboarding(t, rec); state.Visible {
		t.Fatal("completed walkthrough must not reopen")
	}
}

func TestOnboardingSkipAndReset(t *testing.T) {
	t.Parallel()

	api := &fakeOnboardingAPI{}
	handler := newOnboardingHandler(t, api)

	rec := httptest.NewRecorder()
	handler.State(rec, authedRequest(http.MethodGet, "/api/onboarding", nil))

	rec = httptest.NewRecorder()
	handler.Skip(rec, authedRequest(http.MethodPost, "/api/onboarding/skip", nil))
	if state := decodeOnboarding(t, rec); state.Visible {
		t.Fatal("skip must hide the walkthrough")
	}

	rec = httptest.NewRecorder()
	handler.Reset(rec, authedRequest(http.MethodPost, "/api/onboarding/reset", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Reset: expected 200, got %d", rec.Code)
	}
	if api.remoteDone {
		t.Fatal("reset must clear the remote flag")
	}

	rec = httptest.NewRecorder()
	handler.State(rec, authedRequest(http.MethodGet, "/api/onboarding", nil))
	if state := decodeOnboarding(t, rec); !state.Visible {
		t.Fatal("walkthrough must reopen after reset")
	}
}
