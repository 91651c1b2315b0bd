package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantumtrade/tradebot/internal/api"
	"github.com/quantumtrade/tradebot/internal/api/stream"
	"github.com/quantumtrade/tradebot/internal/bot"
	"github.com/quantumtrade/tradebot/internal/logger"
	"github.com/quantumtrade/tradebot/internal/metrics"
	"github.com/quantumtrade/tradebot/internal/storage/archive"
	"github.com/quantumtrade/tradebot/internal/storage/trade"
	"github.com/quantumtrade/tradebot/internal/strategy"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot with the HTTP and websocket API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.Must(logger.Options{Development: debug, Level: cfg.Log.Level})
	defer log.Sync()

	if cfgFile == "" {
		log.Warn("no config file specified, using defaults")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := strategy.New(cfg.Signal)
	if err != nil {
		return err
	}

	priceFeed, err := buildFeed(cfg.Feed)
	if err != nil {
		return fmt.Errorf("creating feed: %w", err)
	}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	notifiers, closers, err := buildNotifiers(ctx, cfg.Notifiers, log)
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()
	if err != nil {
		return fmt.Errorf("creating notifiers: %w", err)
	}

	rt, err := buildRouter(cfg.Notifiers, notifiers, log)
	if err != nil {
		return fmt.Errorf("creating router: %w", err)
	}
	if reg != nil {
		rt.SetMetrics(reg)
	}

	cold, err := archive.FromConfig(cfg.Storage.Cold)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}

	trades := trade.NewMemoryStore(cfg.Storage.Trades.MaxSize)

	hub := stream.NewHub(cfg.Server.AllowedOrigins, log)
	if reg != nil {
		hub.SetMetrics(reg)
	}

	b, err := bot.New(engine, priceFeed, bot.Options{
		Symbols:     cfg.Bot.Symbols,
		Interval:    cfg.Bot.Interval,
		HistorySize: cfg.Bot.HistorySize,
	}, log)
	if err != nil {
		return fmt.Errorf("creating bot: %w", err)
	}
	b.SetTradeStore(trades)
	b.SetRouter(rt)
	b.SetBroadcaster(hub)
	if reg != nil {
		b.SetMetrics(reg)
	}

	server, err := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		APIKeys:     cfg.Server.APIKeys,
		MetricsPath: cfg.Metrics.Path,
	}, api.Dependencies{
		Bot:     b,
		Trades:  trades,
		Hub:     hub,
		Metrics: reg,
		Signal:  cfg.Signal,
	}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	log.Info("starting tradebot",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("strategy", engine.Description()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx, shutdownTimeout) })
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return rt.Run(gctx, cooldownSweep(cfg.Notifiers.Cooldown)) })
	g.Go(func() error {
		if err := b.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	runErr := g.Wait()
	log.Info("tradebot stopped")

	if cold != nil {
		exportCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		paths, err := archive.NewExporter(cold, trades, log).Export(exportCtx, time.Now())
		if err != nil {
			log.Error("archive export failed", zap.Error(err))
		} else {
			log.Info("archive export complete", zap.Strings("paths", paths))
		}
	}

	return runErr
}
