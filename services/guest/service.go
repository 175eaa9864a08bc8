package guest

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"maxcal/internal/schedapi"
	"maxcal/models"
)

// fallbackOwnerName is shown when the token resolves but carries no name.
const fallbackOwnerName = "Кто-то"

// overlayTitle is the fixed banner for the guest overlay.
const overlayTitle = "Вы просматриваете чужой календарь"

// MetaAPI resolves a share token to its owner.
type MetaAPI interface {
	UserByToken(ctx context.Context, token string) (*schedapi.TokenOwner, error)
}

// session is one user's guest-browsing state. A token that failed to resolve
// goes on the ignore list for the rest of the session so a stale deep link
// cannot cause retry storms.
type session struct {
	meta          *models.GuestCalendarMeta
	isActive      bool
	isLoading     bool
	ignoredTokens map[string]bool
}

// Service governs whether each user is currently browsing someone else's
// calendar via an invite token. Metadata is fetched once per distinct token;
// pause/resume toggle the overlay without touching it.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*session
	api      MetaAPI
	logger   *zap.Logger
}

// New creates the guest session service.
func New(api MetaAPI, logger *zap.Logger) *Service {
	return &Service{
		sessions: make(map[string]*session),
		api:      api,
		logger:   logger,
	}
}

func (s *Service) session(userID string) *session {
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{ignoredTokens: make(map[string]bool)}
		s.sessions[userID] = sess
	}
	return sess
}

// InitFromPayload processes a startup payload token. An empty token, an ignored
// token, or a token whose metadata is already loaded (beyond re-activation)
// are all no-ops. Fetch failures are swallowed: the token goes on the ignore
// list and the user silently stays on their own calendar.
//
// activate=false lands the session in the paused state, for deep-link routes
// that should not auto-open the overlay.
func (s *Service) InitFromPayload(ctx context.Context, userID, token string, activate bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}

	s.mu.Lock()
	sess := s.session(userID)
	if sess.ignoredTokens[token] {
		s.mu.Unlock()
		return
	}
	if sess.meta != nil && sess.meta.InviteToken == token {
		// Metadata already present: re-activate at most, never re-fetch.
		if activate && !sess.isActive {
			sess.isActive = true
		}
		s.mu.Unlock()
		return
	}
	if sess.isLoading {
		s.mu.Unlock()
		return
	}
	sess.isLoading = true
	s.mu.Unlock()

	owner, err := s.api.UserByToken(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess.isLoading = false

	if err != nil || owner == nil {
		s.logger.Warn("guest calendar meta fetch failed",
			zap.String("user", userID), zap.Error(err))
		sess.ignoredTokens[token] = true
		return
	}

	name := fallbackOwnerName
	if owner.Name != nil && strings.TrimSpace(*owner.Name) != "" {
		name = strings.TrimSpace(*owner.Name)
	}

	sess.meta = &models.GuestCalendarMeta{
		InviteToken: token,
		CalendarID:  token,
		OwnerID:     token,
		OwnerName:   name,
		Title:       overlayTitle,
	}
	sess.isActive = activate
}

// Exit leaves the guest calendar. The current token joins the ignore list so
// returning through the same stale link does not re-open the overlay.
func (s *Service) Exit(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(userID)
	if sess.meta != nil {
		sess.ignoredTokens[sess.meta.InviteToken] = true
	}
	sess.meta = nil
	sess.isActive = false
	sess.isLoading = false
}

// Pause hides the overlay without discarding metadata.
func (s *Service) Pause(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session(userID).isActive = false
}

// Resume re-opens the overlay if metadata is present. No fetch happens.
func (s *Service) Resume(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	if sess.meta != nil {
		sess.isActive = true
	}
}

// ActiveCalendarID returns the shared calendar id when the user's overlay is
// active, or "" when they are on their own calendar.
func (s *Service) ActiveCalendarID(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.session(userID)
	if sess.isActive && sess.meta != nil {
		return sess.meta.CalendarID
	}
	return ""
}

// State snapshots the user's session for the webview.
func (s *Service) State(userID string) models.GuestSessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(userID)
	state := models.GuestSessionState{
		IsActive:      sess.isActive,
		IsLoading:     sess.isLoading,
		IgnoredTokens: make([]string, 0, len(sess.ignoredTokens)),
	}
	if sess.meta != nil {
		meta := *sess.meta
		state.Meta = &meta
	}
	for token := range sess.ignoredTokens {
		state.IgnoredTokens = append(state.IgnoredTokens, token)
	}
	return state
}
