package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quantumtrade/tradebot/internal/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func TestLoad_FromFile(t *testing.T) {
	cfgPath := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9090
  api_keys:
    - key: "admin-key"
      user_id: "1"
      role: admin

signal:
  short_window: 3
  long_window: 10

bot:
  symbols: ["AAPL", "EUR/USD"]
  interval: 2s

storage:
  cold:
    type: localfs
    path: "/tmp/tradebot/archive"

notifiers:
  cooldown: 10m
  signals: ["SELL"]
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if len(cfg.Server.APIKeys) != 1 || cfg.Server.APIKeys[0].Role != "admin" {
		t.Errorf("unexpected api keys: %+v", cfg.Server.APIKeys)
	}
	if cfg.Signal.ShortWindow != 3 || cfg.Signal.LongWindow != 10 {
		t.Errorf("expected 3/10 windows, got %d/%d", cfg.Signal.ShortWindow, cfg.Signal.LongWindow)
	}
	if cfg.Bot.Interval != 2*time.Second {
		t.Errorf("expected 2s interval, got %s", cfg.Bot.Interval)
	}
	if len(cfg.Bot.Symbols) != 2 {
		t.Errorf("expected 2 symbols, got %v", cfg.Bot.Symbols)
	}
	if cfg.Storage.Cold.Type != "localfs" {
		t.Errorf("expected localfs, got %s", cfg.Storage.Cold.Type)
	}
	if cfg.Notifiers.Cooldown != 10*time.Minute {
		t.Errorf("expected 10m cooldown, got %s", cfg.Notifiers.Cooldown)
	}
	if len(cfg.Notifiers.Signals) != 1 || cfg.Notifiers.Signals[0] != "SELL" {
		t.Errorf("expected SELL only, got %v", cfg.Notifiers.Signals)
	}
}

func TestLoad_FillsDefaults(t *testing.T) {
	cfgPath := writeConfig(t, `
server:
  port: 8081
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Signal.ShortWindow != 5 || cfg.Signal.LongWindow != 20 {
		t.Errorf("expected default 5/20 windows, got %d/%d", cfg.Signal.ShortWindow, cfg.Signal.LongWindow)
	}
	if cfg.Feed.Type != "simulated" {
		t.Errorf("expected simulated feed, got %s", cfg.Feed.Type)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("TRADEBOT_TEST_HOOK", "https://hooks.example.com/x")
	cfgPath := writeConfig(t, `
notifiers:
  webhook:
    enabled: true
    url: "${TRADEBOT_TEST_HOOK}"
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Notifiers.Webhook.URL != "https://hooks.example.com/x" {
		t.Errorf("expected expanded url, got %q", cfg.Notifiers.Webhook.URL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Signal.ShortWindow != 5 || cfg.Signal.LongWindow != 20 {
		t.Errorf("expected 5/20, got %d/%d", cfg.Signal.ShortWindow, cfg.Signal.LongWindow)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr *core.Error
	}{
		{"valid config", func(c *Config) {}, nil},
		{"invalid port - zero", func(c *Config) { c.Server.Port = 0 }, core.ErrConfigInvalid},
		{"invalid port - too high", func(c *Config) { c.Server.Port = 70000 }, core.ErrConfigInvalid},
		{"equal windows", func(c *Config) { c.Signal.ShortWindow = 20 }, core.ErrConfigInvalid},
		{"history below long window", func(c *Config) { c.Bot.HistorySize = 10 }, core.ErrConfigInvalid},
		{"zero interval", func(c *Config) { c.Bot.Interval = 0 }, core.ErrConfigInvalid},
		{"unknown feed", func(c *Config) { c.Feed.Type = "kafka" }, core.ErrConfigInvalid},
		{"file feed without path", func(c *Config) { c.Feed.Type = "file" }, core.ErrConfigMissing},
		{"zero start price", func(c *Config) { c.Feed.StartPrice = 0 }, core.ErrConfigInvalid},
		{"zero trade store", func(c *Config) { c.Storage.Trades.MaxSize = 0 }, core.ErrConfigInvalid},
		{"localfs without path", func(c *Config) { c.Storage.Cold.Type = "localfs" }, core.ErrConfigMissing},
		{"s3 without bucket", func(c *Config) { c.Storage.Cold.Type = "s3" }, core.ErrConfigMissing},
		{"webhook without url", func(c *Config) { c.Notifiers.Webhook.Enabled = true }, core.ErrConfigMissing},
		{"negative cooldown", func(c *Config) { c.Notifiers.Cooldown = -time.Second }, core.ErrConfigInvalid},
		{"unknown notified signal", func(c *Config) { c.Notifiers.Signals = []string{"BUY", "SHORT"} }, core.ErrConfigInvalid},
		{"hold notified", func(c *Config) { c.Notifiers.Signals = []string{"hold"} }, nil},
		{"amqp without url", func(c *Config) { c.Notifiers.AMQP.Enabled = true }, core.ErrConfigMissing},
		{"api key without role", func(c *Config) {
			c.Server.APIKeys = []APIKeyConfig{{Key: "k", UserID: "1"}}
		}, core.ErrConfigInvalid},
		{"api key empty", func(c *Config) {
			c.Server.APIKeys = []APIKeyConfig{{Role: "client"}}
		}, core.ErrConfigMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %s", err, tt.wantErr.Code)
			}
		})
	}
}
