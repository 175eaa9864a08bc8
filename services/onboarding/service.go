package onboarding

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"maxcal/internal/kvstore"
	"maxcal/internal/schedapi"
)

// SlideCount is the number of intro slides shown on first launch.
const SlideCount = 3

// OnboardingAPI is the remote completion-flag slice used by the service.
type OnboardingAPI interface {
	GetOnboarding(ctx context.Context) (bool, error)
	CreateOnboarding(ctx context.Context) error
	DeleteOnboarding(ctx context.Context) error
}

// State is the webview-facing onboarding snapshot.
type State struct {
	Visible bool `json:"visible"`
	Slide   int  `json:"slide"`
	Total   int  `json:"total"`
}

type walkthrough struct {
	visible bool
	slide   int
}

// Service shows the intro walkthrough exactly once per user. Completion is
// recorded locally and mirrored to the remote flag so a reinstall on another
// device stays quiet.
type Service struct {
	mu     sync.Mutex
	users  map[string]*walkthrough
	api    OnboardingAPI
	store  *kvstore.Store
	logger *zap.Logger
}

// New creates the onboarding service.
func New(api OnboardingAPI, store *kvstore.Store, logger *zap.Logger) *Service {
	return &Service{
		users:  make(map[string]*walkthrough),
		api:    api,
		store:  store,
		logger: logger,
	}
}

func localKey(userID string) string {
	return "onboarding:complete:" + userID
}

func (s *Service) localComplete(userID string) bool {
	var done bool
	ok, err := s.store.Get(localKey(userID), &done)
	if err != nil {
		s.logger.Warn("read onboarding flag", zap.Error(err))
		return false
	}
	return ok && done
}

// OpenIfNeeded opens the walkthrough unless either the local or the remote
// completion flag is set. A remote flag found here is cached locally so the
// next launch skips the round trip.
func (s *Service) OpenIfNeeded(ctx context.Context, userID string) (bool, error) {
	if s.localComplete(userID) {
		return false, nil
	}

	done, err := s.api.GetOnboarding(ctx)
	if err != nil {
		if schedapi.IsNoResponse(err) || schedapi.IsStatus(err, http.StatusNotFound) {
			done = false
		} else {
			return false, fmt.Errorf("check onboarding: %w", err)
		}
	}
	if done {
		if err := s.store.Set(localKey(userID), true, 0); err != nil {
			s.logger.Warn("cache onboarding flag", zap.Error(err))
		}
		return false, nil
	}

	s.mu.Lock()
	s.users[userID] = &walkthrough{visible: true}
	s.mu.Unlock()
	return true, nil
}

// Advance moves to the next slide; stepping past the last slide completes the
// walkthrough.
func (s *Service) Advance(ctx context.Context, userID string) State {
	s.mu.Lock()
	w, ok := s.users[userID]
	if !ok || !w.visible {
		s.mu.Unlock()
		return s.State(userID)
	}
	w.slide++
	finished := w.slide >= SlideCount
	s.mu.Unlock()

	if finished {
		s.Complete(ctx, userID)
	}
	return s.State(userID)
}

// Skip dismisses the walkthrough early and records completion.
func (s *Service) Skip(ctx context.Context, userID string) {
	s.Complete(ctx, userID)
}

// Complete hides the walkthrough and records the flag locally and remotely.
// A failed remote write is logged; the local flag alone keeps the walkthrough
// closed on this device.
func (s *Service) Complete(ctx context.Context, userID string) {
	s.mu.Lock()
	w, ok := s.users[userID]
	if ok {
		w.visible = false
	}
	s.mu.Unlock()

	if err := s.store.Set(localKey(userID), true, 0); err != nil {
		s.logger.Warn("persist onboarding flag", zap.Error(err))
	}
	if err := s.api.CreateOnboarding(ctx); err != nil && !schedapi.IsStatus(err, http.StatusConflict) {
		s.logger.Warn("sync onboarding flag", zap.Error(err))
	}
}

// Reset clears both flags so the walkthrough shows again.
func (s *Service) Reset(ctx context.Context, userID string) error {
	s.mu.Lock()
	delete(s.users, userID)
	s.mu.Unlock()

	if err := s.store.Delete(localKey(userID)); err != nil {
		return fmt.Errorf("clear local onboarding flag: %w", err)
	}
	if err := s.api.DeleteOnboarding(ctx); err != nil && !schedapi.IsStatus(err, http.StatusNotFound) {
		return fmt.Errorf("clear remote onboarding flag: %w", err)
	}
	return nil
}

// State snapshots the user's walkthrough.
func (s *Service) State(userID string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := State{Total: SlideCount}
	if w, ok := s.users[userID]; ok {
		state.Visible = w.visible
		state.Slide = w.slide
	}
	return state
}
