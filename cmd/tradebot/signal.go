package main

import (
	"encoding/json"
	"fmt"

	"github.com/quantumtrade/tradebot/internal/feed"
	"github.com/quantumtrade/tradebot/internal/strategy"
	"github.com/spf13/cobra"
)

var (
	signalPrices string
	signalFile   string
	signalShort  int
	signalLong   int
	signalJSON   bool
)

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Evaluate a price series once",
	Long: `Evaluate a price series, oldest price first, and print the signal.
Prices come from --prices, from --file, or from stdin with --file -.`,
	RunE: runSignal,
}

func init() {
	signalCmd.Flags().StringVar(&signalPrices, "prices", "", "comma separated prices, oldest first")
	signalCmd.Flags().StringVar(&signalFile, "file", "", "file of prices, or - for stdin")
	signalCmd.Flags().IntVar(&signalShort, "short", 0, "short window (default from config)")
	signalCmd.Flags().IntVar(&signalLong, "long", 0, "long window (default from config)")
	signalCmd.Flags().BoolVar(&signalJSON, "json", false, "print the evaluation as JSON")
	signalCmd.MarkFlagsMutuallyExclusive("prices", "file")
	signalCmd.MarkFlagsOneRequired("prices", "file")

	rootCmd.AddCommand(signalCmd)
}

// windowConfig applies --short/--long over the configured windows. Explicit
// values are taken as given so strategy.New can reject them.
func windowConfig(cmd *cobra.Command, base strategy.Config, short, long int) strategy.Config {
	if cmd.Flags().Changed("short") {
		base.ShortWindow = short
	}
	if cmd.Flags().Changed("long") {
		base.LongWindow = long
	}
	return base
}

func readPrices(cmd *cobra.Command, list, file string) ([]float64, error) {
	switch {
	case list != "":
		return feed.ParsePriceList(list)
	case file == "-":
		return feed.ParsePrices(cmd.InOrStdin())
	default:
		return feed.ReadPriceFile(file)
	}
}

func runSignal(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, err := strategy.New(windowConfig(cmd, cfg.Signal, signalShort, signalLong))
	if err != nil {
		return err
	}

	prices, err := readPrices(cmd, signalPrices, signalFile)
	if err != nil {
		return err
	}

	ev, err := engine.Evaluate(prices)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if signalJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ev)
	}

	w := engine.Config()
	fmt.Fprintf(out, "Signal: %s\n", ev.Signal)
	if !ev.Sufficient {
		fmt.Fprintf(out, "Not enough history: %d prices, need %d\n", len(prices), w.LongWindow)
		return nil
	}
	fmt.Fprintf(out, "Short SMA(%d): %g\n", w.ShortWindow, ev.ShortAvg)
	fmt.Fprintf(out, "Long SMA(%d):  %g\n", w.LongWindow, ev.LongAvg)
	return nil
}
