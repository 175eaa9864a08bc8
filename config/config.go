package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"
)

// Config holds the server configuration, populated from the environment.
type Config struct {
	ListenAddr string `env:"MAXCAL_LISTEN_ADDR" envDefault:":8080"`
	StorageDir string `env:"MAXCAL_STORAGE_DIR" envDefault:"./data"`

	// Remote scheduling API.
	SchedAPIBaseURL string `env:"MAXCAL_SCHED_API_URL,required"`
	BotInitData     string `env:"MAXCAL_BOT_INIT_DATA,required"`
	BotName         string `env:"MAXCAL_BOT_NAME" envDefault:"Календарь"`
	BotUsername     string `env:"MAXCAL_BOT_USERNAME" envDefault:"calendar_bot"`

	// Display timezone for grid rendering.
	Timezone string `env:"MAXCAL_TIMEZONE" envDefault:"Europe/Moscow"`

	// Logging.
	LogFile    string `env:"MAXCAL_LOG_FILE"`
	LogLevel   string `env:"MAXCAL_LOG_LEVEL" envDefault:"info"`
	LogMaxSize int    `env:"MAXCAL_LOG_MAX_SIZE_MB" envDefault:"50"`
	LogBackups int    `env:"MAXCAL_LOG_BACKUPS" envDefault:"3"`

	// Reminder dispatch cadence.
	AlertCronSpec string `env:"MAXCAL_ALERT_CRON" envDefault:"* * * * *"`
	DailyCronSpec string `env:"MAXCAL_DAILY_CRON" envDefault:"*/5 * * * *"`

	// Write-endpoint rate limiting.
	WriteRateEvery time.Duration `env:"MAXCAL_WRITE_RATE_EVERY" envDefault:"2s"`
	WriteRateBurst int           `env:"MAXCAL_WRITE_RATE_BURST" envDefault:"10"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Location resolves the configured display timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
