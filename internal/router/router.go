// Package router decides which trade records reach the notifiers.
package router

import (
	"context"
	"sync"
	"time"

	"github.com/quantumtrade/tradebot/internal/core"
	"github.com/quantumtrade/tradebot/internal/metrics"
	"github.com/quantumtrade/tradebot/internal/notifier"
	"go.uber.org/zap"
)

// Config holds router configuration
type Config struct {
	// Cooldown suppresses further notifications for a symbol after one is
	// sent. Zero disables it.
	Cooldown time.Duration `mapstructure:"cooldown"`
	// Signals limits notifications to these signals. Empty allows BUY and SELL.
	Signals []core.Signal `mapstructure:"signals"`
}

// DefaultConfig returns default router configuration
func DefaultConfig() Config {
	return Config{
		Signals: []core.Signal{core.SignalBuy, core.SignalSell},
	}
}

// Router forwards trade records to notifiers with filtering
type Router struct {
	cfg       Config
	registry  *notifier.Registry
	logger    *zap.Logger
	metrics   *metrics.Registry
	cooldowns map[string]time.Time // symbol -> last notification
	now       func() time.Time
	mu        sync.RWMutex
}

// New creates a new trade router
func New(cfg Config, registry *notifier.Registry, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.Signals) == 0 {
		cfg.Signals = DefaultConfig().Signals
	}
	return &Router{
		cfg:       cfg,
		registry:  registry,
		logger:    logger,
		cooldowns: make(map[string]time.Time),
		now:       time.Now,
	}
}

// SetMetrics enables delivery metrics
func (r *Router) SetMetrics(m *metrics.Registry) {
	r.metrics = m
}

// Route sends a trade to all notifiers when it passes the filters. It
// reports whether the trade was forwarded. Notifier failures are logged and
// counted, never returned.
func (r *Router) Route(ctx context.Context, t core.Trade) bool {
	if !r.allow(t) {
		r.logger.Debug("trade notification suppressed",
			zap.String("symbol", t.Symbol),
			zap.String("signal", t.Signal.String()),
		)
		return false
	}

	if r.registry == nil || r.registry.Len() == 0 {
		return true
	}

	errs := r.registry.NotifyAll(ctx, t)
	for _, n := range r.registry.GetAll() {
		status := "ok"
		if err, failed := errs[n.Name()]; failed {
			status = "error"
			r.logger.Error("notifier failed",
				zap.String("notifier", n.Name()),
				zap.String("trade_id", t.ID),
				zap.Error(err),
			)
		}
		if r.metrics != nil {
			r.metrics.RecordNotification(n.Name(), status)
		}
	}

	r.logger.Info("trade routed",
		zap.String("symbol", t.Symbol),
		zap.String("signal", t.Signal.String()),
		zap.Float64("price", t.Price),
		zap.Int("notifiers", r.registry.Len()),
		zap.Int("errors", len(errs)),
	)
	return true
}

// allow applies the signal filter and claims the symbol's cooldown slot.
func (r *Router) allow(t core.Trade) bool {
	allowed := false
	for _, s := range r.cfg.Signals {
		if t.Signal == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if last, ok := r.cooldowns[t.Symbol]; ok && r.cfg.Cooldown > 0 && now.Sub(last) < r.cfg.Cooldown {
		return false
	}
	r.cooldowns[t.Symbol] = now
	return true
}

// ClearCooldown removes cooldown for a specific symbol
func (r *Router) ClearCooldown(symbol string) {
	r.mu.Lock()
	delete(r.cooldowns, symbol)
	r.mu.Unlock()
}

// CleanupExpiredCooldowns removes cooldown entries that can no longer
// suppress anything.
func (r *Router) CleanupExpiredCooldowns() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for symbol, last := range r.cooldowns {
		if now.Sub(last) >= r.cfg.Cooldown {
			delete(r.cooldowns, symbol)
			removed++
		}
	}
	return removed
}

// Run periodically cleans up expired cooldowns until ctx is cancelled.
func (r *Router) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if removed := r.CleanupExpiredCooldowns(); removed > 0 {
				r.logger.Debug("cleaned up expired cooldowns", zap.Int("removed", removed))
			}
		}
	}
}

// GetStats returns router statistics
func (r *Router) GetStats() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]any{
		"cooldowns_active": len(r.cooldowns),
		"cooldown_seconds": r.cfg.Cooldown.Seconds(),
		"signals":          r.cfg.Signals,
	}
}
