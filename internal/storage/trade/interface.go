// internal/storage/trade/interface.go
package trade

import (
	"context"
	"time"

	"github.com/quantumtrade/tradebot/internal/core"
)

// Store defines the interface for trade history persistence.
type Store interface {
	// Save persists a trade, assigning an ID when it has none.
	Save(ctx context.Context, t core.Trade) (core.Trade, error)

	// GetByID retrieves a trade by its ID.
	GetByID(ctx context.Context, id string) (*core.Trade, error)

	// List retrieves trades matching the filter, oldest first.
	List(ctx context.Context, filter ListFilter) ([]core.Trade, error)

	// Count returns the number of trades matching the filter.
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter defines criteria for listing trades.
type ListFilter struct {
	Symbol string
	Signal core.Signal
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}
