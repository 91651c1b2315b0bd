package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/quantumtrade/tradebot/internal/core"
	"github.com/quantumtrade/tradebot/internal/strategy"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Signal    strategy.Config `mapstructure:"signal"`
	Bot       BotConfig       `mapstructure:"bot"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Notifiers NotifiersConfig `mapstructure:"notifiers"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host    string         `mapstructure:"host"`
	Port    int            `mapstructure:"port"`
	APIKeys []APIKeyConfig `mapstructure:"api_keys"`
	// AllowedOrigins restricts websocket upgrades; empty allows same-host and origin-less clients.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// APIKeyConfig maps an API key to the session it opens.
type APIKeyConfig struct {
	Key    string `mapstructure:"key"`
	UserID string `mapstructure:"user_id"`
	Role   string `mapstructure:"role"` // "admin" or "client"
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// BotConfig controls which symbols the bot evaluates and how often.
type BotConfig struct {
	Symbols     []string      `mapstructure:"symbols"`
	Interval    time.Duration `mapstructure:"interval"`
	HistorySize int           `mapstructure:"history_size"`
}

// FeedConfig selects the price source for the bot.
type FeedConfig struct {
	Type       string  `mapstructure:"type"` // "simulated", "static" or "file"
	Path       string  `mapstructure:"path"` // For file
	Seed       uint64  `mapstructure:"seed"`
	StartPrice float64 `mapstructure:"start_price"`
	Drift      float64 `mapstructure:"drift"`
	Volatility float64 `mapstructure:"volatility"`
}

type StorageConfig struct {
	Trades TradeStorageConfig `mapstructure:"trades"`
	Cold   ColdStorageConfig  `mapstructure:"cold"`
}

type TradeStorageConfig struct {
	MaxSize int `mapstructure:"max_size"`
}

type ColdStorageConfig struct {
	Type string   `mapstructure:"type"` // "", "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type NotifiersConfig struct {
	// Cooldown is the minimum gap between notifications for one symbol.
	Cooldown time.Duration `mapstructure:"cooldown"`
	// Signals lists the signals that are notified.
	Signals []string      `mapstructure:"signals"`
	Webhook WebhookConfig `mapstructure:"webhook"`
	AMQP    AMQPConfig    `mapstructure:"amqp"`
}

type WebhookConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	URL     string            `mapstructure:"url"`
	Headers map[string]string `mapstructure:"headers"`
}

type AMQPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Queue   string `mapstructure:"queue"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file, layered over Defaults.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("signal.short_window", d.Signal.ShortWindow)
	v.SetDefault("signal.long_window", d.Signal.LongWindow)
	v.SetDefault("bot.symbols", d.Bot.Symbols)
	v.SetDefault("bot.interval", d.Bot.Interval)
	v.SetDefault("bot.history_size", d.Bot.HistorySize)
	v.SetDefault("feed.type", d.Feed.Type)
	v.SetDefault("feed.seed", d.Feed.Seed)
	v.SetDefault("feed.start_price", d.Feed.StartPrice)
	v.SetDefault("feed.drift", d.Feed.Drift)
	v.SetDefault("feed.volatility", d.Feed.Volatility)
	v.SetDefault("storage.trades.max_size", d.Storage.Trades.MaxSize)
	v.SetDefault("notifiers.cooldown", d.Notifiers.Cooldown)
	v.SetDefault("notifiers.signals", d.Notifiers.Signals)
	v.SetDefault("notifiers.amqp.queue", d.Notifiers.AMQP.Queue)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Log: LogConfig{
			Level: "info",
		},
		Signal: strategy.DefaultConfig(),
		Bot: BotConfig{
			Symbols:     []string{"AAPL", "BTC", "TSLA"},
			Interval:    5 * time.Second,
			HistorySize: 200,
		},
		Feed: FeedConfig{
			Type:       "simulated",
			Seed:       42,
			StartPrice: 100,
			Drift:      0,
			Volatility: 0.01,
		},
		Storage: StorageConfig{
			Trades: TradeStorageConfig{
				MaxSize: 1000,
			},
		},
		Notifiers: NotifiersConfig{
			Signals: []string{"BUY", "SELL"},
			AMQP: AMQPConfig{
				Queue: "trade_signals",
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}
	for i, k := range c.Server.APIKeys {
		if k.Key == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("api_keys[%d].key is empty", i))
		}
		if k.Role != "admin" && k.Role != "client" {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("api_keys[%d].role must be admin or client, got %q", i, k.Role))
		}
	}

	// Signal windows
	if err := c.Signal.Validate(); err != nil {
		return err
	}

	// Bot validation
	if c.Bot.Interval <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("bot interval must be positive, got %s", c.Bot.Interval))
	}
	if c.Bot.HistorySize < c.Signal.LongWindow {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("bot history_size (%d) must be at least the long window (%d)", c.Bot.HistorySize, c.Signal.LongWindow))
	}

	// Feed validation
	switch c.Feed.Type {
	case "simulated":
		if c.Feed.StartPrice <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("feed start_price must be positive, got %f", c.Feed.StartPrice))
		}
		if c.Feed.Volatility < 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("feed volatility cannot be negative, got %f", c.Feed.Volatility))
		}
	case "static":
	case "file":
		if c.Feed.Path == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("feed path required when type is file"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown feed type %q", c.Feed.Type))
	}

	if c.Storage.Trades.MaxSize <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("storage.trades.max_size must be positive, got %d", c.Storage.Trades.MaxSize))
	}

	// Cold storage validation
	switch c.Storage.Cold.Type {
	case "":
	case "localfs":
		if c.Storage.Cold.Path == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("cold storage path required for localfs"))
		}
	case "s3":
		if c.Storage.Cold.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("s3 bucket required for s3 cold storage"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown cold storage type %q", c.Storage.Cold.Type))
	}

	// Notifier validation
	if c.Notifiers.Cooldown < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("notifiers cooldown cannot be negative, got %s", c.Notifiers.Cooldown))
	}
	for _, s := range c.Notifiers.Signals {
		if _, err := core.ParseSignal(s); err != nil {
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("notifiers signals: %w", err))
		}
	}
	if c.Notifiers.Webhook.Enabled && c.Notifiers.Webhook.URL == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("webhook url required when webhook is enabled"))
	}
	if c.Notifiers.AMQP.Enabled {
		if c.Notifiers.AMQP.URL == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("amqp url required when amqp is enabled"))
		}
		if c.Notifiers.AMQP.Queue == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("amqp queue required when amqp is enabled"))
		}
	}

	return nil
}
