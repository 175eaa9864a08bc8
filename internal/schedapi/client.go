package schedapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"maxcal/internal/kvstore"
)

const (
	// tokenRefreshMargin is how long before expiry the bearer token is renewed.
	tokenRefreshMargin = 5 * time.Minute

	tokenStoreKey = "schedapi:auth-token"
)

// ErrNoResponse marks a transport-level failure where no HTTP response arrived
// (connection refused, DNS, CORS preflight). Read paths recover from it as
// "empty data"; see IsNoResponse.
var ErrNoResponse = errors.New("no response from scheduling api")

// StatusError is a non-2xx reply from the scheduling API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("scheduling api: status %d: %s", e.Code, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IsNoResponse reports whether err is a transport failure with no HTTP response.
func IsNoResponse(err error) bool {
	return errors.Is(err, ErrNoResponse)
}

// TimeSlot is the raw slot record the API returns for one date. Times use the
// fractional-hour encoding. A slot with a title is a booked event; without one
// it is an open availability window.
type TimeSlot struct {
	ID          string  `json:"id,omitempty"`
	SlotID      string  `json:"slot_id,omitempty"`
	MeetStartAt float64 `json:"meet_start_at"`
	MeetEndAt   float64 `json:"meet_end_at"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	MeetingURL  string  `json:"meeting_url,omitempty"`
}

type timeSlotsResponse struct {
	TimeSlots []TimeSlot `json:"time_slots"`
}

// CreateSelfSlotRequest creates an event or availability window on the caller's
// own calendar. Datetimes are timezone-naive "YYYY-MM-DDTHH:MM:SS".
type CreateSelfSlotRequest struct {
	MeetStartAt string  `json:"meet_start_at"`
	MeetEndAt   string  `json:"meet_end_at"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// BookSlotRequest books a window on someone else's calendar via their share token.
type BookSlotRequest struct {
	OwnerToken  string  `json:"owner_token"`
	MeetStartAt string  `json:"meet_start_at"`
	MeetEndAt   string  `json:"meet_end_at"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

type createSlotResponse struct {
	ID string `json:"id"`
}

// TokenOwner is the metadata returned for a share token's owner.
type TokenOwner struct {
	Name *string `json:"name"`
}

type onboardingResponse struct {
	Success bool `json:"success"`
}

type registerRequest struct {
	InitData string  `json:"init_data"`
	Name     *string `json:"name,omitempty"`
	Username *string `json:"username,omitempty"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

type cachedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Config carries the connection parameters for the scheduling API.
type Config struct {
	BaseURL  string
	InitData string // platform-signed init data, exchanged for a bearer token
	Name     string
	Username string
}

// Client talks to the remote scheduling API. It owns the bearer token lifecycle:
// the token is obtained by registering the user, cached with its expiry, and
// renewed shortly before it runs out. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cfg        Config
	store      *kvstore.Store
	logger     *zap.Logger

	tokenMu      sync.Mutex
	token        string
	tokenExpires time.Time
	now          func() time.Time
}

// NewClient creates a scheduling API client. The kvstore persists the bearer
// token across restarts; pass nil to keep it in memory only.
func NewClient(cfg Config, store *kvstore.Store, logger *zap.Logger) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		cfg:        cfg,
		store:      store,
		logger:     logger,
		now:        time.Now,
	}
	c.restoreToken()
	return c
}

func (c *Client) restoreToken() {
	if c.store == nil {
		return
	}
	var cached cachedToken
	ok, err := c.store.Get(tokenStoreKey, &cached)
	if err != nil {
		c.logger.Warn("restore cached token", zap.Error(err))
		return
	}
	if ok {
		c.token = cached.Token
		c.tokenExpires = cached.ExpiresAt
	}
}

// ensureToken returns a bearer token, registering the user when the cached one
// is missing or close to expiry.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && c.now().Add(tokenRefreshMargin).Before(c.tokenExpires) {
		return c.token, nil
	}

	var resp tokenResponse
	err := c.doRaw(ctx, http.MethodPut, "/users/", registerRequest{
		InitData: c.cfg.InitData,
		Name:     optional(c.cfg.Name),
		Username: optional(c.cfg.Username),
	}, "", &resp)
	switch {
	case err == nil:
		if resp.AccessToken == "" {
			return "", errors.New("obtain auth token: empty access_token")
		}
		c.adoptToken(resp)
	case IsStatus(err, http.StatusConflict):
		// Already registered counts as success. Use the token echoed in the
		// conflict body when present, otherwise keep the one we hold.
		c.logger.Debug("user already registered")
		var se *StatusError
		var conflict tokenResponse
		if errors.As(err, &se) && json.Unmarshal([]byte(se.Body), &conflict) == nil && conflict.AccessToken != "" {
			c.adoptToken(conflict)
		}
	default:
		return "", fmt.Errorf("obtain auth token: %w", err)
	}

	return c.token, nil
}

// adoptToken caches a fresh bearer token. Callers hold tokenMu.
func (c *Client) adoptToken(resp tokenResponse) {
	c.token = resp.AccessToken
	c.tokenExpires = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second)

	if c.store != nil {
		cached := cachedToken{Token: c.token, ExpiresAt: c.tokenExpires}
		if err := c.store.Set(tokenStoreKey, cached, time.Until(c.tokenExpires)); err != nil {
			c.logger.Warn("persist auth token", zap.Error(err))
		}
	}
}

// do performs an authenticated JSON request.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}
	return c.doRaw(ctx, method, path, body, token, out)
}

func (c *Client) doRaw(ctx context.Context, method, path string, body any, token string, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return fmt.Errorf("%w: %v", ErrNoResponse, urlErr.Err)
		}
		return fmt.Errorf("%w: %v", ErrNoResponse, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// SelfSlots fetches the caller's raw slots for one date (YYYY-MM-DD).
func (c *Client) SelfSlots(ctx context.Context, date string) ([]TimeSlot, error) {
	var resp timeSlotsResponse
	if err := c.do(ctx, http.MethodGet, "/time_slots/self/"+date, nil, &resp); err != nil {
		return nil, err
	}
	return resp.TimeSlots, nil
}

// SharedSlots fetches raw slots for one date on a shared calendar.
func (c *Client) SharedSlots(ctx context.Context, calendarID, date string) ([]TimeSlot, error) {
	var resp timeSlotsResponse
	path := fmt.Sprintf("/time_slots/%s/%s", url.PathEscape(calendarID), date)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.TimeSlots, nil
}

// CreateSelfSlot creates a slot on the caller's own calendar and returns the
// server-assigned id.
func (c *Client) CreateSelfSlot(ctx context.Context, req CreateSelfSlotRequest) (string, error) {
	var resp createSlotResponse
	if err := c.do(ctx, http.MethodPut, "/time_slots/self/", req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// BookSlot books a window on the calendar behind req.OwnerToken.
func (c *Client) BookSlot(ctx context.Context, req BookSlotRequest) (string, error) {
	var resp createSlotResponse
	if err := c.do(ctx, http.MethodPut, "/time_slots/", req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// DeleteSelfSlot removes one of the caller's own slots.
func (c *Client) DeleteSelfSlot(ctx context.Context, slotID string) error {
	return c.do(ctx, http.MethodDelete, "/time_slots/self/"+url.PathEscape(slotID), nil, nil)
}

// UserByToken resolves a share token to its owner's public metadata.
func (c *Client) UserByToken(ctx context.Context, token string) (*TokenOwner, error) {
	var owner TokenOwner
	if err := c.do(ctx, http.MethodGet, "/users/by/token/"+url.PathEscape(token), nil, &owner); err != nil {
		return nil, err
	}
	return &owner, nil
}

// GetSettings fetches the caller's settings record.
func (c *Client) GetSettings(ctx context.Context, out any) error {
	return c.do(ctx, http.MethodGet, "/settings/", nil, out)
}

// PatchSettings applies a partial settings update and returns the full record.
func (c *Client) PatchSettings(ctx context.Context, update, out any) error {
	return c.do(ctx, http.MethodPatch, "/settings/", update, out)
}

// GetOnboarding reports whether the caller has completed onboarding remotely.
func (c *Client) GetOnboarding(ctx context.Context) (bool, error) {
	var resp onboardingResponse
	if err := c.do(ctx, http.MethodGet, "/onboarding/", nil, &resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

// CreateOnboarding marks onboarding complete remotely.
func (c *Client) CreateOnboarding(ctx context.Context) error {
	var resp onboardingResponse
	if err := c.do(ctx, http.MethodPost, "/onboarding/", nil, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return errors.New("onboarding create rejected")
	}
	return nil
}

// DeleteOnboarding resets the remote onboarding flag.
func (c *Client) DeleteOnboarding(ctx context.Context) error {
	var resp onboardingResponse
	if err := c.do(ctx, http.MethodDelete, "/onboarding/", nil, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return errors.New("onboarding reset rejected")
	}
	return nil
}

// DispatchAlertReminders triggers the pre-meeting reminder sweep.
func (c *Client) DispatchAlertReminders(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/reminder/", nil, nil)
}

// DispatchDailyReminders triggers the daily agenda sweep.
func (c *Client) DispatchDailyReminders(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/reminder/daily_reminder/", nil, nil)
}
