package notifier

import (
	"context"

	"github.com/quantumtrade/tradebot/internal/core"
)

// Notifier delivers trade records produced by signal changes
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Send delivers a single trade record
	Send(ctx context.Context, trade core.Trade) error
}
