package strategy

import (
	"fmt"

	"github.com/quantumtrade/tradebot/internal/core"
)

// Default crossover windows
const (
	DefaultShortWindow = 5
	DefaultLongWindow  = 20
)

// Config holds the moving-average windows for the crossover engine
type Config struct {
	ShortWindow int `mapstructure:"short_window" json:"short_window"`
	LongWindow  int `mapstructure:"long_window" json:"long_window"`
}

// DefaultConfig returns the 5/20 crossover
func DefaultConfig() Config {
	return Config{
		ShortWindow: DefaultShortWindow,
		LongWindow:  DefaultLongWindow,
	}
}

// Validate checks 0 < short < long.
func (c Config) Validate() error {
	if c.ShortWindow <= 0 || c.LongWindow <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("windows must be positive, got short=%d long=%d", c.ShortWindow, c.LongWindow))
	}
	if c.ShortWindow >= c.LongWindow {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("short window must be less than long window, got short=%d long=%d", c.ShortWindow, c.LongWindow))
	}
	return nil
}

// WithDefaults fills zero windows from DefaultConfig
func (c Config) WithDefaults() Config {
	if c.ShortWindow == 0 {
		c.ShortWindow = DefaultShortWindow
	}
	if c.LongWindow == 0 {
		c.LongWindow = DefaultLongWindow
	}
	return c
}
