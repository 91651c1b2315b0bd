// Package feed supplies prices to the bot. Sources are simulated; there is no
// market-data ingestion.
package feed

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/quantumtrade/tradebot/internal/core"
)

// Feed yields the next price for a symbol
type Feed interface {
	Name() string
	Next(ctx context.Context, symbol string) (float64, error)
}

// WidgetFixture is the twenty-bar demo series shown by the dashboard widget.
var WidgetFixture = []float64{
	100, 102, 101, 105, 110, 108, 112, 115, 117, 120,
	119, 121, 123, 125, 127, 130, 128, 129, 131, 133,
}

// Static replays a fixed series per symbol, looping when exhausted.
type Static struct {
	series map[string][]float64
	def    []float64
	pos    map[string]int
	mu     sync.Mutex
}

// NewStatic creates a replaying feed. Symbols without their own series use def.
func NewStatic(def []float64, series map[string][]float64) (*Static, error) {
	if len(def) == 0 {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("static feed needs a default series"))
	}
	return &Static{
		series: series,
		def:    def,
		pos:    make(map[string]int),
	}, nil
}

func (s *Static) Name() string { return "static" }

func (s *Static) Next(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	series, ok := s.series[symbol]
	if !ok || len(series) == 0 {
		series = s.def
	}
	i := s.pos[symbol] % len(series)
	s.pos[symbol] = i + 1
	return series[i], nil
}

// SimulatedConfig parameterizes the random walk
type SimulatedConfig struct {
	Seed       uint64
	StartPrice float64
	Drift      float64 // mean return per step
	Volatility float64 // return standard deviation per step
}

// Simulated is a seeded geometric random walk. Each symbol gets its own
// stream derived from the seed and symbol name, so runs are reproducible.
type Simulated struct {
	cfg   SimulatedConfig
	walks map[string]*walk
	mu    sync.Mutex
}

type walk struct {
	rng   *rand.Rand
	price float64
}

// NewSimulated creates a random-walk feed
func NewSimulated(cfg SimulatedConfig) (*Simulated, error) {
	if cfg.StartPrice <= 0 || math.IsNaN(cfg.StartPrice) || math.IsInf(cfg.StartPrice, 0) {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("start price must be positive, got %v", cfg.StartPrice))
	}
	if cfg.Volatility < 0 {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("volatility cannot be negative, got %v", cfg.Volatility))
	}
	return &Simulated{
		cfg:   cfg,
		walks: make(map[string]*walk),
	}, nil
}

func (s *Simulated) Name() string { return "simulated" }

func (s *Simulated) Next(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.walks[symbol]
	if !ok {
		h := fnv.New64a()
		h.Write([]byte(symbol))
		w = &walk{
			rng:   rand.New(rand.NewPCG(s.cfg.Seed, h.Sum64())),
			price: s.cfg.StartPrice,
		}
		s.walks[symbol] = w
		return w.price, nil
	}

	ret := s.cfg.Drift + s.cfg.Volatility*w.rng.NormFloat64()
	// exp keeps the walk strictly positive
	w.price *= math.Exp(ret)
	return w.price, nil
}
