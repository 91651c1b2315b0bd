package router

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/quantumtrade/tradebot/internal/core"
	"github.com/quantumtrade/tradebot/internal/metrics"
	"github.com/quantumtrade/tradebot/internal/notifier"
)

type mockNotifier struct {
	name     string
	received []core.Trade
	fail     bool
}

func (m *mockNotifier) Name() string { return m.name }
func (m *mockNotifier) Send(ctx context.Context, t core.Trade) error {
	m.received = append(m.received, t)
	if m.fail {
		return errors.New("down")
	}
	return nil
}

func newRouter(cfg Config) (*Router, *mockNotifier) {
	registry := notifier.NewRegistry()
	mock := &mockNotifier{name: "mock"}
	registry.Register(mock)
	return New(cfg, registry, nil), mock
}

func buy(symbol string) core.Trade {
	return core.Trade{ID: symbol + "-1", Symbol: symbol, Signal: core.SignalBuy, Price: 100}
}

func TestRouter_Route_PassesFilters(t *testing.T) {
	r, mock := newRouter(Config{Cooldown: time.Minute})

	if !r.Route(context.Background(), buy("AAPL")) {
		t.Fatal("expected trade to be routed")
	}
	if len(mock.received) != 1 {
		t.Errorf("expected 1 trade, got %d", len(mock.received))
	}
}

func TestRouter_Route_FilterBySignal(t *testing.T) {
	r, mock := newRouter(Config{Signals: []core.Signal{core.SignalSell}})

	r.Route(context.Background(), buy("AAPL"))
	r.Route(context.Background(), core.Trade{Symbol: "AAPL", Signal: core.SignalHold})
	r.Route(context.Background(), core.Trade{Symbol: "AAPL", Signal: core.SignalSell})

	if len(mock.received) != 1 || mock.received[0].Signal != core.SignalSell {
		t.Errorf("expected only the SELL trade, got %v", mock.received)
	}
}

func TestRouter_Route_HoldSuppressedByDefault(t *testing.T) {
	r, mock := newRouter(Config{})

	r.Route(context.Background(), core.Trade{Symbol: "AAPL", Signal: core.SignalHold})
	if len(mock.received) != 0 {
		t.Errorf("expected HOLD to be suppressed, got %d", len(mock.received))
	}
}

func TestRouter_Route_Cooldown(t *testing.T) {
	r, mock := newRouter(Config{Cooldown: time.Hour})

	now := time.Date(2024, 6, 25, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	r.Route(context.Background(), buy("AAPL"))
	r.Route(context.Background(), core.Trade{Symbol: "AAPL", Signal: core.SignalSell})
	if len(mock.received) != 1 {
		t.Fatalf("expected second trade to be suppressed, got %d", len(mock.received))
	}

	now = now.Add(time.Hour)
	r.Route(context.Background(), core.Trade{Symbol: "AAPL", Signal: core.SignalSell})
	if len(mock.received) != 2 {
		t.Errorf("expected trade after cooldown, got %d", len(mock.received))
	}
}

func TestRouter_Route_DifferentSymbolsDifferentCooldown(t *testing.T) {
	r, mock := newRouter(Config{Cooldown: time.Hour})

	r.Route(context.Background(), buy("AAPL"))
	r.Route(context.Background(), buy("BTC"))

	if len(mock.received) != 2 {
		t.Errorf("expected 2 trades, got %d", len(mock.received))
	}
}

func TestRouter_ClearCooldown(t *testing.T) {
	r, mock := newRouter(Config{Cooldown: time.Hour})

	r.Route(context.Background(), buy("AAPL"))
	r.ClearCooldown("AAPL")
	r.Route(context.Background(), buy("AAPL"))

	if len(mock.received) != 2 {
		t.Errorf("expected 2 trades after clearing cooldown, got %d", len(mock.received))
	}
}

func TestRouter_NilRegistry(t *testing.T) {
	r := New(Config{}, nil, nil)
	if !r.Route(context.Background(), buy("AAPL")) {
		t.Error("expected trade to pass filters without notifiers")
	}
}

func TestRouter_RecordsDeliveryMetrics(t *testing.T) {
	registry := notifier.NewRegistry()
	registry.Register(&mockNotifier{name: "ok"})
	registry.Register(&mockNotifier{name: "broken", fail: true})
	reg := metrics.NewRegistry()

	r := New(Config{}, registry, nil)
	r.SetMetrics(reg)
	r.Route(context.Background(), buy("AAPL"))

	w := httptest.NewRecorder()
	reg.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	body := w.Body.String()

	for _, want := range []string{
		`tradebot_trades_notified_total{notifier="ok",status="ok"} 1`,
		`tradebot_trades_notified_total{notifier="broken",status="error"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %s in metrics output", want)
		}
	}
}

func TestRouter_GetStats(t *testing.T) {
	r, _ := newRouter(Config{Cooldown: 30 * time.Second})
	r.Route(context.Background(), buy("AAPL"))

	stats := r.GetStats()
	if stats["cooldowns_active"] != 1 {
		t.Errorf("expected 1 active cooldown, got %v", stats["cooldowns_active"])
	}
	if stats["cooldown_seconds"] != 30.0 {
		t.Errorf("expected 30 seconds, got %v", stats["cooldown_seconds"])
	}
}

func TestRouter_DefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Cooldown != 0 {
		t.Errorf("expected no cooldown by default, got %s", cfg.Cooldown)
	}
	if len(cfg.Signals) != 2 {
		t.Errorf("expected BUY and SELL, got %v", cfg.Signals)
	}
}

func TestRouter_CleanupExpiredCooldowns(t *testing.T) {
	r := New(Config{Cooldown: 100 * time.Millisecond}, nil, nil)

	r.mu.Lock()
	r.cooldowns["AAPL"] = time.Now().Add(-300 * time.Millisecond) // expired
	r.cooldowns["MSFT"] = time.Now().Add(-300 * time.Millisecond) // expired
	r.cooldowns["GOOG"] = time.Now()                              // not expired
	r.mu.Unlock()

	removed := r.CleanupExpiredCooldowns()
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}

	r.mu.RLock()
	if len(r.cooldowns) != 1 {
		t.Errorf("expected 1 cooldown remaining, got %d", len(r.cooldowns))
	}
	r.mu.RUnlock()
}

func TestRouter_Run_StopsOnCancel(t *testing.T) {
	r := New(Config{Cooldown: time.Millisecond}, nil, nil)
	r.Route(context.Background(), buy("AAPL"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := r.Run(ctx, 5*time.Millisecond); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if n := r.GetStats()["cooldowns_active"]; n != 0 {
		t.Errorf("expected cooldowns cleaned up, got %v", n)
	}
}
