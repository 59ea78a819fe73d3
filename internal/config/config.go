package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	DevServer DevServerConfig `mapstructure:"devserver"`
}

// APIConfig holds the scoring backend connection settings
type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	UserID         string        `mapstructure:"user_id"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// DashboardConfig holds widget polling and query settings
type DashboardConfig struct {
	ActionCenterInterval  time.Duration `mapstructure:"action_center_interval"`
	TopPicksInterval      time.Duration `mapstructure:"top_picks_interval"`
	NotificationsInterval time.Duration `mapstructure:"notifications_interval"`
	WatchlistInterval     time.Duration `mapstructure:"watchlist_interval"`
	MinConfidence         float64       `mapstructure:"min_confidence"`
	ActionCenterLimit     int           `mapstructure:"action_center_limit"`
	TopPicksMinConfidence float64       `mapstructure:"top_picks_min_confidence"`
	TopPicksLimit         int           `mapstructure:"top_picks_limit"`
	HistoryPoints         int           `mapstructure:"history_points"`
}

// RelayConfig holds headless notification relay settings
type RelayConfig struct {
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	MinSeverity      string        `mapstructure:"min_severity"`
	MaxLedgerEntries int           `mapstructure:"max_ledger_entries"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds the relay ledger location
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// DevServerConfig holds the fixture backend settings
type DevServerConfig struct {
	Addr string `mapstructure:"addr"`
}

var envKeyReplacer = strings.NewReplacer(".", "_")

// Load reads configuration from an optional file, a .env file and environment variables.
// An empty path searches tickerdesk.yaml in . and $HOME/.config/tickerdesk and
// tolerates it not existing.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TICKERDESK")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("tickerdesk")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/tickerdesk")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.user_id", "default")
	v.SetDefault("api.timeout", "15s")
	v.SetDefault("api.max_retries", 1)
	v.SetDefault("api.retry_delay_base", "500ms")

	v.SetDefault("dashboard.action_center_interval", "30s")
	v.SetDefault("dashboard.top_picks_interval", "60s")
	v.SetDefault("dashboard.notifications_interval", "60s")
	v.SetDefault("dashboard.watchlist_interval", "60s")
	v.SetDefault("dashboard.min_confidence", 60.0)
	v.SetDefault("dashboard.action_center_limit", 20)
	v.SetDefault("dashboard.top_picks_min_confidence", 70.0)
	v.SetDefault("dashboard.top_picks_limit", 5)
	v.SetDefault("dashboard.history_points", 30)

	v.SetDefault("relay.poll_interval", "60s")
	v.SetDefault("relay.min_severity", "WARNING")
	v.SetDefault("relay.max_ledger_entries", 5000)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("storage.db_path", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")

	v.SetDefault("devserver.addr", "127.0.0.1:8000")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL")
	}
	if c.API.Timeout < time.Second {
		return fmt.Errorf("api.timeout must be at least 1 second")
	}
	if c.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must not be negative")
	}

	intervals := map[string]time.Duration{
		"dashboard.action_center_interval": c.Dashboard.ActionCenterInterval,
		"dashboard.top_picks_interval":     c.Dashboard.TopPicksInterval,
		"dashboard.notifications_interval": c.Dashboard.NotificationsInterval,
		"dashboard.watchlist_interval":     c.Dashboard.WatchlistInterval,
	}
	for name, d := range intervals {
		if d < 10*time.Second {
			return fmt.Errorf("%s must be at least 10 seconds", name)
		}
	}
	if c.Dashboard.MinConfidence < 0 || c.Dashboard.MinConfidence > 100 {
		return fmt.Errorf("dashboard.min_confidence must be between 0 and 100")
	}
	if c.Dashboard.TopPicksMinConfidence < 0 || c.Dashboard.TopPicksMinConfidence > 100 {
		return fmt.Errorf("dashboard.top_picks_min_confidence must be between 0 and 100")
	}
	if c.Dashboard.ActionCenterLimit < 1 || c.Dashboard.ActionCenterLimit > 200 {
		return fmt.Errorf("dashboard.action_center_limit must be between 1 and 200")
	}
	if c.Dashboard.TopPicksLimit < 1 || c.Dashboard.TopPicksLimit > 50 {
		return fmt.Errorf("dashboard.top_picks_limit must be between 1 and 50")
	}
	if c.Dashboard.HistoryPoints < 2 {
		return fmt.Errorf("dashboard.history_points must be at least 2")
	}

	if c.Relay.PollInterval < 10*time.Second {
		return fmt.Errorf("relay.poll_interval must be at least 10 seconds")
	}
	validSeverities := map[string]bool{"INFO": true, "WARNING": true, "CRITICAL": true}
	if !validSeverities[c.Relay.MinSeverity] {
		return fmt.Errorf("relay.min_severity must be one of: INFO, WARNING, CRITICAL")
	}
	if c.Relay.MaxLedgerEntries < 100 {
		return fmt.Errorf("relay.max_ledger_entries must be at least 100")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
