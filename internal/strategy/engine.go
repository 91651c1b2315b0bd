package strategy

import (
	"fmt"
	"math"

	"github.com/quantumtrade/tradebot/internal/core"
	"github.com/quantumtrade/tradebot/internal/indicator"
)

// Evaluation is the outcome of one crossover evaluation.
// ShortAvg and LongAvg are zero when Sufficient is false.
type Evaluation struct {
	Signal     core.Signal `json:"signal"`
	ShortAvg   float64     `json:"short_avg"`
	LongAvg    float64     `json:"long_avg"`
	Sufficient bool        `json:"sufficient"`
}

// Engine classifies the latest trend of a price series by comparing a short
// and a long simple moving average. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	cfg Config
}

// New creates an engine, rejecting invalid windows.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Default returns the 5/20 engine
func Default() *Engine {
	return &Engine{cfg: DefaultConfig()}
}

func (e *Engine) Name() string {
	return "ma_crossover"
}

func (e *Engine) Description() string {
	return fmt.Sprintf("MA Crossover (%d/%d)", e.cfg.ShortWindow, e.cfg.LongWindow)
}

// Config returns the engine windows
func (e *Engine) Config() Config {
	return e.cfg
}

// Evaluate computes both averages and the resulting signal.
//
// Fewer than LongWindow prices yields HOLD with Sufficient=false. Exactly
// LongWindow prices is enough. Equal averages yield HOLD; no rounding is
// applied before comparing.
func (e *Engine) Evaluate(prices []float64) (Evaluation, error) {
	if err := ValidatePrices(prices); err != nil {
		return Evaluation{}, err
	}

	if len(prices) < e.cfg.LongWindow {
		return Evaluation{Signal: core.SignalHold}, nil
	}

	shortAvg, _ := indicator.LastSMA(prices, e.cfg.ShortWindow)
	longAvg, _ := indicator.LastSMA(prices, e.cfg.LongWindow)
	if !isFinite(shortAvg) || !isFinite(longAvg) {
		return Evaluation{}, core.WrapError(core.ErrInvalidInput,
			fmt.Errorf("averages are not finite: short=%v long=%v", shortAvg, longAvg))
	}

	ev := Evaluation{
		Signal:     core.SignalHold,
		ShortAvg:   shortAvg,
		LongAvg:    longAvg,
		Sufficient: true,
	}
	switch {
	case shortAvg > longAvg:
		ev.Signal = core.SignalBuy
	case shortAvg < longAvg:
		ev.Signal = core.SignalSell
	}
	return ev, nil
}

// Signal returns only the signal part of Evaluate
func (e *Engine) Signal(prices []float64) (core.Signal, error) {
	ev, err := e.Evaluate(prices)
	if err != nil {
		return "", err
	}
	return ev.Signal, nil
}

// Compute is the one-shot form: validate the windows, then evaluate prices.
func Compute(prices []float64, shortWindow, longWindow int) (core.Signal, error) {
	e, err := New(Config{ShortWindow: shortWindow, LongWindow: longWindow})
	if err != nil {
		return "", err
	}
	return e.Signal(prices)
}

// ValidatePrices rejects NaN, infinite and negative prices.
func ValidatePrices(prices []float64) error {
	for i, p := range prices {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return core.WrapError(core.ErrInvalidInput, fmt.Errorf("price[%d] is not finite: %v", i, p))
		}
		if p < 0 {
			return core.WrapError(core.ErrInvalidInput, fmt.Errorf("price[%d] is negative: %v", i, p))
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
