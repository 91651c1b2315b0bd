// internal/storage/trade/memory.go
package trade

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/quantumtrade/tradebot/internal/core"
)

// MemoryStore is a bounded in-memory trade store. Once full, the oldest
// trades are dropped.
type MemoryStore struct {
	trades  []core.Trade
	maxSize int
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store with max capacity.
func NewMemoryStore(maxSize int) *MemoryStore {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &MemoryStore{
		trades:  make([]core.Trade, 0, maxSize),
		maxSize: maxSize,
	}
}

// Save adds a trade to the store.
func (m *MemoryStore) Save(ctx context.Context, t core.Trade) (core.Trade, error) {
	if !t.Signal.IsValid() {
		return core.Trade{}, core.WrapError(core.ErrInvalidInput, fmt.Errorf("trade signal %q", t.Signal))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	m.trades = append(m.trades, t)

	// Trim if over capacity (remove oldest)
	if len(m.trades) > m.maxSize {
		m.trades = m.trades[len(m.trades)-m.maxSize:]
	}

	return t, nil
}

// GetByID retrieves a trade by ID.
func (m *MemoryStore) GetByID(ctx context.Context, id string) (*core.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.trades {
		if m.trades[i].ID == id {
			t := m.trades[i]
			return &t, nil
		}
	}
	return nil, core.WrapError(core.ErrNotFound, fmt.Errorf("trade %s", id))
}

// List returns trades matching the filter.
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]core.Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []core.Trade{}
	for _, t := range m.trades {
		if matches(t, filter) {
			result = append(result, t)
		}
	}

	// Apply offset and limit
	if filter.Offset >= len(result) && filter.Offset > 0 {
		return []core.Trade{}, nil
	}
	if filter.Offset > 0 {
		result = result[filter.Offset:]
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// Count returns the count of matching trades.
func (m *MemoryStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, t := range m.trades {
		if matches(t, filter) {
			count++
		}
	}
	return count, nil
}

func matches(t core.Trade, filter ListFilter) bool {
	if filter.Symbol != "" && t.Symbol != filter.Symbol {
		return false
	}
	if filter.Signal != "" && t.Signal != filter.Signal {
		return false
	}
	if !filter.From.IsZero() && t.Time.Before(filter.From) {
		return false
	}
	if !filter.To.IsZero() && t.Time.After(filter.To) {
		return false
	}
	return true
}
