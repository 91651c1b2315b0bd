// Package bot drives the signal engine from a price feed: it keeps a bounded
// price history per symbol, re-evaluates on every tick and turns signal
// changes into trade records.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quantumtrade/tradebot/internal/core"
	"github.com/quantumtrade/tradebot/internal/feed"
	"github.com/quantumtrade/tradebot/internal/metrics"
	"github.com/quantumtrade/tradebot/internal/storage/trade"
	"github.com/quantumtrade/tradebot/internal/strategy"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Broadcaster pushes trade records to live subscribers
type Broadcaster interface {
	Broadcast(t core.Trade)
}

// Router forwards trade records to notifiers. It reports whether the
// record passed its filters.
type Router interface {
	Route(ctx context.Context, t core.Trade) bool
}

// Options configures the runner
type Options struct {
	Symbols     []string
	Interval    time.Duration
	HistorySize int
}

// Status is the latest evaluation of one symbol
type Status struct {
	Symbol       string      `json:"symbol"`
	Signal       core.Signal `json:"signal"`
	Price        float64     `json:"price"`
	ShortAvg     float64     `json:"short_avg"`
	LongAvg      float64     `json:"long_avg"`
	Sufficient   bool        `json:"sufficient"`
	Observations int         `json:"observations"`
	UpdatedAt    time.Time   `json:"updated_at,omitempty"`
}

type symbolState struct {
	prices    []float64
	eval      strategy.Evaluation
	updatedAt time.Time
}

// Bot owns the cadence around a stateless engine.
type Bot struct {
	engine      *strategy.Engine
	feed        feed.Feed
	logger      *zap.Logger
	interval    time.Duration
	historySize int
	now         func() time.Time

	trades      trade.Store
	router      Router
	broadcaster Broadcaster
	metrics     *metrics.Registry

	mu      sync.RWMutex
	symbols []string
	states  map[string]*symbolState
	running bool
}

// New creates a runner. History is never shorter than the engine's long
// window.
func New(engine *strategy.Engine, f feed.Feed, opts Options, logger *zap.Logger) (*Bot, error) {
	if engine == nil {
		return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("bot: engine is required"))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if long := engine.Config().LongWindow; opts.HistorySize < long {
		opts.HistorySize = long
	}

	b := &Bot{
		engine:      engine,
		feed:        f,
		logger:      logger,
		interval:    opts.Interval,
		historySize: opts.HistorySize,
		now:         time.Now,
		states:      make(map[string]*symbolState),
	}
	for _, s := range opts.Symbols {
		if _, err := b.AddSymbol(s); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// SetTradeStore sets where trade records are saved
func (b *Bot) SetTradeStore(s trade.Store) { b.trades = s }

// SetRouter sets the dispatcher that forwards trade records to notifiers
func (b *Bot) SetRouter(r Router) { b.router = r }

// SetBroadcaster sets the live trade stream
func (b *Bot) SetBroadcaster(br Broadcaster) { b.broadcaster = br }

// SetMetrics enables signal metrics
func (b *Bot) SetMetrics(m *metrics.Registry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metrics = m
	if m != nil {
		m.SetBotSymbols(len(b.symbols))
	}
}

// Engine returns the engine the bot evaluates with
func (b *Bot) Engine() *strategy.Engine { return b.engine }

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// AddSymbol starts tracking a symbol. It reports false when the symbol was
// already tracked.
func (b *Bot) AddSymbol(symbol string) (bool, error) {
	symbol = normalize(symbol)
	if symbol == "" {
		return false, core.WrapError(core.ErrInvalidInput, fmt.Errorf("empty symbol"))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.states[symbol]; ok {
		return false, nil
	}
	b.symbols = append(b.symbols, symbol)
	b.states[symbol] = &symbolState{
		prices: make([]float64, 0, b.historySize),
		eval:   strategy.Evaluation{Signal: core.SignalHold},
	}
	if b.metrics != nil {
		b.metrics.SetBotSymbols(len(b.symbols))
	}
	return true, nil
}

// RemoveSymbol stops tracking a symbol and drops its history
func (b *Bot) RemoveSymbol(symbol string) error {
	symbol = normalize(symbol)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.states[symbol]; !ok {
		return core.WrapError(core.ErrUnknownSymbol, fmt.Errorf("%s", symbol))
	}
	delete(b.states, symbol)
	for i, s := range b.symbols {
		if s == symbol {
			b.symbols = append(b.symbols[:i], b.symbols[i+1:]...)
			break
		}
	}
	if b.metrics != nil {
		b.metrics.SetBotSymbols(len(b.symbols))
		b.metrics.DeleteSymbol(symbol)
	}
	return nil
}

// Symbols returns the tracked symbols in insertion order
func (b *Bot) Symbols() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.symbols...)
}

// Current returns the latest status of a symbol
func (b *Bot) Current(symbol string) (Status, error) {
	symbol = normalize(symbol)

	b.mu.RLock()
	defer b.mu.RUnlock()

	st, ok := b.states[symbol]
	if !ok {
		return Status{}, core.WrapError(core.ErrUnknownSymbol, fmt.Errorf("%s", symbol))
	}
	return st.status(symbol), nil
}

// Statuses returns the latest status of every symbol, sorted by symbol
func (b *Bot) Statuses() []Status {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Status, 0, len(b.states))
	for symbol, st := range b.states {
		out = append(out, st.status(symbol))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Prices returns a copy of the retained history of a symbol, oldest first
func (b *Bot) Prices(symbol string) ([]float64, error) {
	symbol = normalize(symbol)

	b.mu.RLock()
	defer b.mu.RUnlock()

	st, ok := b.states[symbol]
	if !ok {
		return nil, core.WrapError(core.ErrUnknownSymbol, fmt.Errorf("%s", symbol))
	}
	return append([]float64(nil), st.prices...), nil
}

func (st *symbolState) status(symbol string) Status {
	s := Status{
		Symbol:       symbol,
		Signal:       st.eval.Signal,
		ShortAvg:     st.eval.ShortAvg,
		LongAvg:      st.eval.LongAvg,
		Sufficient:   st.eval.Sufficient,
		Observations: len(st.prices),
		UpdatedAt:    st.updatedAt,
	}
	if n := len(st.prices); n > 0 {
		s.Price = st.prices[n-1]
	}
	return s
}

// Observe appends a price to the symbol's history and re-evaluates it.
//
// A rejected price is not recorded; the error is returned together with the
// previous signal, which stays current. When the signal turns BUY or SELL a
// trade record is saved, sent to notifiers and broadcast.
func (b *Bot) Observe(ctx context.Context, symbol string, price float64) (core.Signal, error) {
	symbol = normalize(symbol)

	b.mu.Lock()
	st, ok := b.states[symbol]
	if !ok {
		b.mu.Unlock()
		return core.SignalHold, core.WrapError(core.ErrUnknownSymbol, fmt.Errorf("%s", symbol))
	}
	prev := st.eval.Signal

	if err := strategy.ValidatePrices([]float64{price}); err != nil {
		b.mu.Unlock()
		b.recordError(symbol, err)
		return prev, err
	}

	if len(st.prices) == b.historySize {
		copy(st.prices, st.prices[1:])
		st.prices = st.prices[:b.historySize-1]
	}
	st.prices = append(st.prices, price)

	eval, err := b.engine.Evaluate(st.prices)
	if err != nil {
		st.prices = st.prices[:len(st.prices)-1]
		b.mu.Unlock()
		b.recordError(symbol, err)
		return prev, err
	}
	now := b.now()
	st.eval = eval
	st.updatedAt = now
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.RecordSignal(symbol, eval.Signal.String())
		b.metrics.SetLastPrice(symbol, price)
	}

	if eval.Signal != prev {
		b.logger.Info("signal changed",
			zap.String("symbol", symbol),
			zap.String("from", prev.String()),
			zap.String("to", eval.Signal.String()),
			zap.Float64("price", price),
			zap.Float64("short_avg", eval.ShortAvg),
			zap.Float64("long_avg", eval.LongAvg),
		)
		if b.metrics != nil {
			b.metrics.RecordChange(symbol, eval.Signal.String())
		}
		if eval.Signal != core.SignalHold {
			b.emit(ctx, core.Trade{
				ID:     uuid.NewString(),
				Symbol: symbol,
				Signal: eval.Signal,
				Price:  price,
				Time:   now,
			})
		}
	}

	return eval.Signal, nil
}

func (b *Bot) emit(ctx context.Context, t core.Trade) {
	if b.trades != nil {
		saved, err := b.trades.Save(ctx, t)
		if err != nil {
			b.logger.Error("failed to save trade", zap.String("symbol", t.Symbol), zap.Error(err))
		} else {
			t = saved
		}
	}

	if b.router != nil {
		b.router.Route(ctx, t)
	}

	if b.broadcaster != nil {
		b.broadcaster.Broadcast(t)
	}
}

func (b *Bot) recordError(symbol string, err error) {
	code := "UNKNOWN"
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		code = coreErr.Code
	}
	b.logger.Warn("signal evaluation rejected",
		zap.String("symbol", symbol),
		zap.String("kind", code),
		zap.Error(err),
	)
	if b.metrics != nil {
		b.metrics.RecordError(code)
	}
}

// Tick pulls one price per tracked symbol from the feed and observes it.
// Symbols are processed concurrently; failures are logged and counted and
// never abort the tick.
func (b *Bot) Tick(ctx context.Context) {
	if b.feed == nil {
		return
	}
	symbols := b.Symbols()
	if len(symbols) == 0 {
		b.logger.Debug("no symbols to evaluate")
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, symbol := range symbols {
		g.Go(func() error {
			price, err := b.feed.Next(gctx, symbol)
			if err != nil {
				if gctx.Err() == nil {
					b.recordError(symbol, core.WrapError(core.ErrFeedFailed, err))
				}
				return nil
			}
			// Errors are already logged and counted by Observe.
			_, _ = b.Observe(gctx, symbol, price)
			return nil
		})
	}
	_ = g.Wait()
}

// Run ticks immediately and then every interval until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return fmt.Errorf("bot already running")
	}
	if b.feed == nil {
		b.mu.Unlock()
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("bot: feed is required to run"))
	}
	b.running = true
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.running = false
		b.mu.Unlock()
	}()

	b.logger.Info("bot starting",
		zap.String("feed", b.feed.Name()),
		zap.String("strategy", b.engine.Description()),
		zap.Strings("symbols", b.Symbols()),
		zap.Duration("interval", b.interval),
	)

	b.Tick(ctx)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bot stopping")
			return ctx.Err()
		case <-ticker.C:
			b.Tick(ctx)
		}
	}
}
