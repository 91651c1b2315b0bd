package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/quantumtrade/tradebot/internal/core"
	"github.com/quantumtrade/tradebot/internal/storage/trade"
	"go.uber.org/zap"
)

// Snapshot is the archived trade history of one symbol
type Snapshot struct {
	Symbol     string       `json:"symbol"`
	ExportedAt time.Time    `json:"exported_at"`
	Trades     []core.Trade `json:"trades"`
}

// Exporter copies the trade history from a Store into cold storage as one
// JSON snapshot per symbol under trades/<date>/.
type Exporter struct {
	storage Storage
	trades  trade.Store
	logger  *zap.Logger
}

// NewExporter creates an exporter
func NewExporter(storage Storage, trades trade.Store, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{storage: storage, trades: trades, logger: logger}
}

// Export writes the current history and returns the written paths.
func (e *Exporter) Export(ctx context.Context, at time.Time) ([]string, error) {
	all, err := e.trades.List(ctx, trade.ListFilter{})
	if err != nil {
		return nil, core.WrapError(core.ErrArchiveFailed, fmt.Errorf("listing trades: %w", err))
	}

	bySymbol := make(map[string][]core.Trade)
	for _, t := range all {
		bySymbol[t.Symbol] = append(bySymbol[t.Symbol], t)
	}

	symbols := make([]string, 0, len(bySymbol))
	for s := range bySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	paths := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		snap := Snapshot{
			Symbol:     symbol,
			ExportedAt: at.UTC(),
			Trades:     bySymbol[symbol],
		}
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return paths, core.WrapError(core.ErrArchiveFailed, err)
		}

		path := SnapshotPath(at, symbol)
		if err := e.storage.Write(ctx, path, data); err != nil {
			return paths, core.WrapError(core.ErrArchiveFailed, fmt.Errorf("writing %s: %w", path, err))
		}
		paths = append(paths, path)
	}

	e.logger.Info("trade history archived",
		zap.String("storage", e.storage.Name()),
		zap.Int("symbols", len(paths)),
		zap.Int("trades", len(all)),
	)
	return paths, nil
}

// LoadSnapshot reads a snapshot written by Export
func LoadSnapshot(ctx context.Context, storage Storage, path string) (*Snapshot, error) {
	data, err := storage.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// SnapshotPath returns trades/<YYYY-MM-DD>/<symbol>.json with path-unsafe
// characters in the symbol replaced.
func SnapshotPath(at time.Time, symbol string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ', '.':
			return '_'
		}
		return r
	}, symbol)
	return fmt.Sprintf("trades/%s/%s.json", at.UTC().Format("2006-01-02"), safe)
}
