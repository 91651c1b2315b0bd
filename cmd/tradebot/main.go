package main

import (
	"fmt"
	"os"

	"github.com/quantumtrade/tradebot/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "tradebot",
	Short: "tradebot - moving-average crossover trading signals",
	Long: `tradebot turns price series into BUY, SELL or HOLD signals by comparing
a short and a long simple moving average (5/20 by default). It can evaluate a
series once, replay one bar by bar, or run a bot over a simulated feed behind
an HTTP and websocket API.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

// loadConfig reads --config when given and falls back to defaults.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if cfgFile != "" {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
