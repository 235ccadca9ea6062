package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"floodguard/internal/moderr"
)

type Config struct {
	APIAddr     string `env:"API_ADDR" envDefault:":8080"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL string `env:"DATABASE_URL" envDefault:"sqlite://data/floodguard.db"`

	MaxMessages         int   `env:"ANTIFLOOD_MAX_MESSAGES" envDefault:"5"`
	WindowSeconds       int   `env:"ANTIFLOOD_WINDOW_SECONDS" envDefault:"10"`
	EscalationDurations []int `env:"ESCALATION_DURATIONS" envSeparator:"," envDefault:"60,360,1440,10080"`
	LookbackDays        int   `env:"VIOLATION_LOOKBACK_DAYS" envDefault:"30"`
	RetentionDays       int   `env:"RETENTION_DAYS" envDefault:"90"`

	AdminIDs       []int64 `env:"ADMIN_IDS" envSeparator:","`
	WhitelistedIDs []int64 `env:"WHITELISTED_USERS" envSeparator:","`

	WarnsToPunish   int `env:"WARNS_TO_PUNISH" envDefault:"3"`
	AutoMuteMinutes int `env:"AUTO_MUTE_MINUTES" envDefault:"1440"`

	EnablePolicyCache bool `env:"ENABLE_POLICY_CACHE" envDefault:"true"`
	EnableTelemetry   bool `env:"ENABLE_TELEMETRY" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that would make moderation misbehave
// instead of letting the process start degraded.
func (c *Config) Validate() error {
	if c.MaxMessages <= 0 {
		return fmt.Errorf("%w: ANTIFLOOD_MAX_MESSAGES must be positive, got %d", moderr.ErrConfig, c.MaxMessages)
	}
	if c.WindowSeconds <= 0 {
		return fmt.Errorf("%w: ANTIFLOOD_WINDOW_SECONDS must be positive, got %d", moderr.ErrConfig, c.WindowSeconds)
	}
	if len(c.EscalationDurations) == 0 {
		return fmt.Errorf("%w: ESCALATION_DURATIONS must not be empty", moderr.ErrConfig)
	}
	prev := 0
	for i, d := range c.EscalationDurations {
		if d <= 0 {
			return fmt.Errorf("%w: escalation step %d must be positive, got %d", moderr.ErrConfig, i+1, d)
		}
		if d < prev {
			return fmt.Errorf("%w: escalation durations must not decrease, got %d after %d", moderr.ErrConfig, d, prev)
		}
		prev = d
	}
	if c.LookbackDays <= 0 {
		return fmt.Errorf("%w: VIOLATION_LOOKBACK_DAYS must be positive, got %d", moderr.ErrConfig, c.LookbackDays)
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("%w: RETENTION_DAYS must be positive, got %d", moderr.ErrConfig, c.RetentionDays)
	}
	// Purging inside the lookback horizon would silently shrink repeat
	// offender counts.
	if c.RetentionDays < c.LookbackDays {
		return fmt.Errorf("%w: RETENTION_DAYS (%d) must cover VIOLATION_LOOKBACK_DAYS (%d)", moderr.ErrConfig, c.RetentionDays, c.LookbackDays)
	}
	if c.WarnsToPunish <= 0 {
		return fmt.Errorf("%w: WARNS_TO_PUNISH must be positive, got %d", moderr.ErrConfig, c.WarnsToPunish)
	}
	if c.AutoMuteMinutes <= 0 {
		return fmt.Errorf("%w: AUTO_MUTE_MINUTES must be positive, got %d", moderr.ErrConfig, c.AutoMuteMinutes)
	}
	return nil
}

func (c *Config) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

func (c *Config) Lookback() time.Duration {
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
