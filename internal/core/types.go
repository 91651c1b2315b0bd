package core

import (
	"fmt"
	"strings"
	"time"
)

// Signal is the discrete trading recommendation produced by the crossover engine
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Signals lists every valid signal value
var Signals = []Signal{SignalBuy, SignalSell, SignalHold}

// IsValid reports whether s is one of BUY, SELL or HOLD
func (s Signal) IsValid() bool {
	switch s {
	case SignalBuy, SignalSell, SignalHold:
		return true
	}
	return false
}

func (s Signal) String() string {
	return string(s)
}

// ParseSignal parses a signal name case-insensitively
func ParseSignal(v string) (Signal, error) {
	s := Signal(strings.ToUpper(strings.TrimSpace(v)))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown signal %q", v)
	}
	return s, nil
}

// Trade is a signal change observed by the bot, as shown in the trade history
type Trade struct {
	ID     string    `json:"id"`
	Symbol string    `json:"symbol"`
	Signal Signal    `json:"signal"`
	Price  float64   `json:"price"`
	Time   time.Time `json:"time"`
}
