package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/quantumtrade/tradebot/internal/bot"
	"github.com/quantumtrade/tradebot/internal/core"
	"github.com/quantumtrade/tradebot/internal/feed"
	"github.com/quantumtrade/tradebot/internal/logger"
	"github.com/quantumtrade/tradebot/internal/storage/trade"
	"github.com/quantumtrade/tradebot/internal/strategy"
	"github.com/spf13/cobra"
)

var (
	replayFile   string
	replaySymbol string
	replayBars   int
	replayShort  int
	replayLong   int
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a price series bar by bar and print signal changes",
	Long: `Feed prices one at a time to the bot and print every signal change.
Without --file the configured feed is used for --bars prices.`,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayFile, "file", "", "file of prices to replay")
	replayCmd.Flags().StringVar(&replaySymbol, "symbol", "DEMO", "symbol name used in the output")
	replayCmd.Flags().IntVar(&replayBars, "bars", 100, "number of bars to pull from the configured feed")
	replayCmd.Flags().IntVar(&replayShort, "short", 0, "short window (default from config)")
	replayCmd.Flags().IntVar(&replayLong, "long", 0, "long window (default from config)")

	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{Development: debug, Level: "warn"})
	if err != nil {
		return err
	}
	defer log.Sync()

	engine, err := strategy.New(windowConfig(cmd, cfg.Signal, replayShort, replayLong))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var prices []float64
	if replayFile != "" {
		prices, err = feed.ReadPriceFile(replayFile)
	} else {
		var f feed.Feed
		if f, err = buildFeed(cfg.Feed); err == nil {
			prices, err = feed.Drain(ctx, f, replaySymbol, replayBars)
		}
	}
	if err != nil {
		return err
	}

	store := trade.NewMemoryStore(len(prices) + 1)
	b, err := bot.New(engine, nil, bot.Options{
		Symbols:     []string{replaySymbol},
		HistorySize: engine.Config().LongWindow,
	}, log)
	if err != nil {
		return err
	}
	b.SetTradeStore(store)

	out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(out, "BAR\tPRICE\tSIGNAL\tSHORT\tLONG\n")

	prev := core.SignalHold
	for i, p := range prices {
		sig, err := b.Observe(ctx, replaySymbol, p)
		if err != nil {
			return fmt.Errorf("bar %d: %w", i+1, err)
		}
		if sig == prev {
			continue
		}
		st, _ := b.Current(replaySymbol)
		fmt.Fprintf(out, "%d\t%g\t%s\t%.4f\t%.4f\n", i+1, p, sig, st.ShortAvg, st.LongAvg)
		prev = sig
	}
	if err := out.Flush(); err != nil {
		return err
	}

	n, err := store.Count(ctx, trade.ListFilter{})
	if err != nil {
		return err
	}
	final, _ := b.Current(replaySymbol)
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d bars, %d trades, final signal %s (%s)\n",
		len(prices), n, final.Signal, engine.Description())
	return nil
}
