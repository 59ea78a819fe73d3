package config

import (
	"os"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    "http://localhost:8000",
			UserID:     "default",
			Timeout:    15 * time.Second,
			MaxRetries: 1,
		},
		Dashboard: DashboardConfig{
			ActionCenterInterval:  30 * time.Second,
			TopPicksInterval:      60 * time.Second,
			NotificationsInterval: 60 * time.Second,
			WatchlistInterval:     60 * time.Second,
			MinConfidence:         60,
			ActionCenterLimit:     20,
			TopPicksMinConfidence: 70,
			TopPicksLimit:         5,
			HistoryPoints:         30,
		},
		Relay: RelayConfig{
			PollInterval:     time.Minute,
			MinSeverity:      "WARNING",
			MaxLedgerEntries: 5000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func TestLoadAndValidate(t *testing.T) {
	content := `
api:
  base_url: "http://scores.internal:9000"
  user_id: "family"
  timeout: 20s

dashboard:
  action_center_interval: 45s
  top_picks_limit: 8

telegram:
  bot_token: "test_token"
  chat_id: "12345"
  enabled: true

logging:
  level: "debug"
  format: "json"
`
	tmpfile, err := os.CreateTemp("", "tickerdesk-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.BaseURL != "http://scores.internal:9000" {
		t.Errorf("Unexpected base url: %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 20*time.Second {
		t.Errorf("Unexpected timeout: %v", cfg.API.Timeout)
	}
	if cfg.Dashboard.ActionCenterInterval != 45*time.Second {
		t.Errorf("Unexpected action center interval: %v", cfg.Dashboard.ActionCenterInterval)
	}
	if cfg.Dashboard.TopPicksLimit != 8 {
		t.Errorf("Unexpected top picks limit: %d", cfg.Dashboard.TopPicksLimit)
	}
	// defaults survive for keys absent from the file
	if cfg.Dashboard.NotificationsInterval != 60*time.Second {
		t.Errorf("Unexpected notifications interval: %v", cfg.Dashboard.NotificationsInterval)
	}
	if cfg.Relay.MinSeverity != "WARNING" {
		t.Errorf("Unexpected relay severity: %s", cfg.Relay.MinSeverity)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load("/nonexistent/tickerdesk.yaml"); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TICKERDESK_API_BASE_URL", "http://env.example:8080")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.BaseURL != "http://env.example:8080" {
		t.Errorf("env override not applied: %s", cfg.API.BaseURL)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "relative base url", mutate: func(c *Config) { c.API.BaseURL = "localhost:8000" }, wantErr: true},
		{name: "empty base url", mutate: func(c *Config) { c.API.BaseURL = "" }, wantErr: true},
		{name: "short timeout", mutate: func(c *Config) { c.API.Timeout = 100 * time.Millisecond }, wantErr: true},
		{name: "fast polling", mutate: func(c *Config) { c.Dashboard.NotificationsInterval = time.Second }, wantErr: true},
		{name: "confidence over 100", mutate: func(c *Config) { c.Dashboard.MinConfidence = 120 }, wantErr: true},
		{name: "zero top picks", mutate: func(c *Config) { c.Dashboard.TopPicksLimit = 0 }, wantErr: true},
		{name: "one history point", mutate: func(c *Config) { c.Dashboard.HistoryPoints = 1 }, wantErr: true},
		{name: "bad severity", mutate: func(c *Config) { c.Relay.MinSeverity = "LOUD" }, wantErr: true},
		{
			name:    "missing telegram token when enabled",
			mutate:  func(c *Config) { c.Telegram = TelegramConfig{Enabled: true, ChatID: "1"} },
			wantErr: true,
		},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "trace" }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
