package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/quantumtrade/tradebot/internal/config"
	"github.com/quantumtrade/tradebot/internal/core"
	"github.com/quantumtrade/tradebot/internal/feed"
	"github.com/quantumtrade/tradebot/internal/notifier"
	"github.com/quantumtrade/tradebot/internal/notifier/amqp"
	"github.com/quantumtrade/tradebot/internal/notifier/webhook"
	"github.com/quantumtrade/tradebot/internal/router"
	"go.uber.org/zap"
)

func buildFeed(cfg config.FeedConfig) (feed.Feed, error) {
	switch cfg.Type {
	case "simulated":
		return feed.NewSimulated(feed.SimulatedConfig{
			Seed:       cfg.Seed,
			StartPrice: cfg.StartPrice,
			Drift:      cfg.Drift,
			Volatility: cfg.Volatility,
		})
	case "static":
		return feed.NewStatic(feed.WidgetFixture, nil)
	case "file":
		return feed.FromFile(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown feed type %q", cfg.Type)
	}
}

// buildNotifiers registers the enabled notifiers. The returned closers must
// be closed on shutdown.
func buildNotifiers(ctx context.Context, cfg config.NotifiersConfig, log *zap.Logger) (*notifier.Registry, []io.Closer, error) {
	reg := notifier.NewRegistry()
	var closers []io.Closer

	if cfg.Webhook.Enabled {
		w, err := webhook.New(cfg.Webhook.URL, cfg.Webhook.Headers)
		if err != nil {
			return nil, nil, err
		}
		if err := reg.Register(w); err != nil {
			return nil, nil, err
		}
	}

	if cfg.AMQP.Enabled {
		p, err := amqp.Dial(ctx, cfg.AMQP.URL, cfg.AMQP.Queue, log)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, p)
		if err := reg.Register(p); err != nil {
			return nil, closers, err
		}
	}

	for _, n := range reg.GetAll() {
		log.Info("notifier enabled", zap.String("notifier", n.Name()))
	}
	return reg, closers, nil
}

// buildRouter filters trade notifications by signal and per-symbol cooldown.
func buildRouter(cfg config.NotifiersConfig, reg *notifier.Registry, log *zap.Logger) (*router.Router, error) {
	rcfg := router.Config{Cooldown: cfg.Cooldown}
	for _, v := range cfg.Signals {
		s, err := core.ParseSignal(v)
		if err != nil {
			return nil, core.WrapError(core.ErrConfigInvalid, err)
		}
		rcfg.Signals = append(rcfg.Signals, s)
	}
	return router.New(rcfg, reg, log), nil
}

// cooldownSweep is how often expired cooldowns are dropped.
func cooldownSweep(cooldown time.Duration) time.Duration {
	if cooldown <= 0 || cooldown > time.Hour {
		return time.Hour
	}
	return cooldown
}
