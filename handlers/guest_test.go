package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"maxcal/internal/schedapi"
	"maxcal/models"
	"maxcal/services/guest"
)

func newGuestHandler(meta *fakeMetaAPI) *GuestHandler {
	if meta == nil {
		meta = &fakeMetaAPI{owners: map[string]*schedapi.TokenOwner{}}
	}
	return NewGuestHandler(guest.New(meta, zap.NewNop()))
}

func decodeGuestState(t *testing.T, rec *httptest.ResponseRecorder) models.GuestSessionState {
	t.Helper()
	var state models.GuestSessionState
	if err := json.NewDecoder(rec.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return state
}

func TestGuestInit_ActivatesSession(t *testing.T) {
	t.Parallel()

	meta := &fakeMetaAPI{owners: map[string]*schedapi.TokenOwner{
		"tok-1": {Name: titlePtr("Анна")},
	}}
	handler := newGuestHandler(meta)

	req := authedRequest(http.MethodPost, "/api/guest/init", strings.NewReader(`{"token":"tok-1","activate":true}`))
	rec := httptest.NewRecorder()
	handler.Init(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	state := decodeGuestState(t, rec)
	if !state.IsActive || state.Meta == nil {
		t.Fatalf("expected active session, got %+v", state)
	}
	if state.Meta.OwnerName != "Анна" {
		t.Fatalf("unexpected owner name %q", state.Meta.OwnerName)
	}
}

func TestGuestInit_UnknownTokenStaysIdle(t *testing.T) {
	t.Parallel()

	handler := newGuestHandler(nil)

	req := authedRequest(http.MethodPost, "/api/guest/init", strings.NewReader(`{"token":"dead","activate":true}`))
	rec := httptest.NewRecorder()
	handler.Init(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	state := decodeGuestState(t, rec)
	if state.IsActive || state.Meta != nil {
		t.Fatalf("failed token must leave the session idle, got %+v", state)
	}
}

func TestGuestExit_ThenSameTokenIgnored(t *testing.T) {
	t.Parallel()

	meta := &fakeMetaAPI{owners: map[string]*schedapi.TokenOwner{
		"tok-1": {Name: titlePtr("Анна")},
	}}
	handler := newGuestHandler(meta)

	init := authedRequest(http.MethodPost, "/api/guest/init", strings.NewReader(`{"token":"tok-1","activate":true}`))
	handler.Init(httptest.NewRecorder(), init)

	rec := httptest.NewRecorder()
	handler.Exit(rec, authedRequest(http.MethodPost, "/api/guest/exit", nil))
	if state := decodeGuestState(t, rec); state.IsActive || state.Meta != nil {
		t.Fatalf("exit must clear the session, got %+v", state)
	}

	// The same link no longer re-triggers.
	again := authedRequest(http.MethodPost, "/api/guest/init", strings.NewReader(`{"token":"tok-1","activate":true}`))
	rec = httptest.NewRecorder()
	handler.Init(rec, again)
	if state := decodeGuestState(t, rec); state.IsActive {
		t.Fatal("ignored token must not reactivate the session")
	}
}

func TestGuestPauseResume(t *testing.T) {
	t.Parallel()

	meta := &fakeMetaAPI{owners: map[string]*schedapi.TokenOwner{
		"tok-1": {Name: titlePtr("Анна")},
	}}
	handler := newGuestHandler(meta)
	handler.Guests.InitFromPayload(context.Background(), "user-1", "tok-1", true)

	rec := httptest.NewRecorder()
	handler.Pause(rec, authedRequest(http.MethodPost, "/api/guest/pause", nil))
	if state := decodeGuestState(t, rec); state.IsActive {
		t.Fatal("pause must deactivate")
	}

	rec = httptest.NewRecorder()
	handler.Resume(rec, authedRequest(http.MethodPost, "/api/guest/resume", nil))
	if state := decodeGuestState(t, rec); !state.IsActive {
		t.Fatal("resume must reactivate")
	}
}

func TestGuestInit_BadBody(t *testing.T) {
	t.Parallel()

	handler := newGuestHandler(nil)
	req := authedRequest(http.MethodPost, "/api/guest/init", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	handler.Init(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}
