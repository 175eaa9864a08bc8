package reminder

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Dispatcher is the remote reminder-trigger slice of the scheduling API.
type Dispatcher interface {
	DispatchAlertReminders(ctx context.Context) error
	DispatchDailyReminders(ctx context.Context) error
}

// Config carries the cron expressions for both reminder kinds.
type Config struct {
	// AlertSpec fires the pre-meeting alert sweep. Runs every minute so the
	// per-user alert offset resolves server-side with minute precision.
	AlertSpec string
	// DailySpec fires the daily agenda sweep.
	DailySpec string
}

// DefaultConfig matches the production dispatch cadence.
func DefaultConfig() Config {
	return Config{
		AlertSpec: "* * * * *",
		DailySpec: "*/5 * * * *",
	}
}

// Service drives the reminder endpoints on a cron schedule. The remote service
// decides who gets notified; this side only triggers the sweeps and logs the
// outcome. A failed sweep is logged and retried at the next tick, never sooner.
type Service struct {
	mu      sync.Mutex
	cron    *cron.Cron
	running bool

	api    Dispatcher
	cfg    Config
	logger *zap.Logger
}

// New creates the reminder dispatcher.
func New(api Dispatcher, cfg Config, logger *zap.Logger) *Service {
	return &Service{api: api, cfg: cfg, logger: logger}
}

// Start registers both sweeps and begins the cron loop. Starting an already
// running service is a no-op.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.cfg.AlertSpec, s.dispatchAlerts); err != nil {
		return err
	}
	if _, err := c.AddFunc(s.cfg.DailySpec, s.dispatchDaily); err != nil {
		return err
	}

	c.Start()
	s.cron = c
	s.running = true
	s.logger.Info("reminder dispatcher started",
		zap.String("alert_spec", s.cfg.AlertSpec),
		zap.String("daily_spec", s.cfg.DailySpec))
	return nil
}

// Stop halts the cron loop and waits for an in-flight sweep to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
	s.running = false
	s.logger.Info("reminder dispatcher stopped")
}

func (s *Service) dispatchAlerts() {
	if err := s.api.DispatchAlertReminders(context.Background()); err != nil {
		s.logger.Warn("alert reminder sweep failed", zap.Error(err))
		return
	}
	s.logger.Debug("alert reminder sweep dispatched")
}

func (s *Service) dispatchDaily() {
	if err := s.api.DispatchDailyReminders(context.Background()); err != nil {
		s.logger.Warn("daily reminder sweep failed", zap.Error(err))
		return
	}
	s.logger.Debug("daily reminder sweep dispatched")
}
