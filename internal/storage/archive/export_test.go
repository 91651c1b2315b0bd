package archive

import (
	"context"
	"testing"
	"time"

	"github.com/quantumtrade/tradebot/internal/config"
	"github.com/quantumtrade/tradebot/internal/core"
	"github.com/quantumtrade/tradebot/internal/storage/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotPath(t *testing.T) {
	at := time.Date(2024, 6, 25, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "trades/2024-06-25/AAPL.json", SnapshotPath(at, "AAPL"))
	assert.Equal(t, "trades/2024-06-25/EUR_USD.json", SnapshotPath(at, "EUR/USD"))
	assert.Equal(t, "trades/2024-06-25/BRK_B.json", SnapshotPath(at, "BRK.B"))
}

func TestExporter_Export(t *testing.T) {
	ctx := context.Background()
	store := trade.NewMemoryStore(100)
	base := time.Date(2024, 6, 25, 10, 0, 0, 0, time.UTC)

	_, err := store.Save(ctx, core.Trade{Symbol: "AAPL", Signal: core.SignalBuy, Price: 189.5, Time: base})
	require.NoError(t, err)
	_, err = store.Save(ctx, core.Trade{Symbol: "EUR/USD", Signal: core.SignalSell, Price: 1.0892, Time: base.Add(time.Minute)})
	require.NoError(t, err)
	_, err = store.Save(ctx, core.Trade{Symbol: "AAPL", Signal: core.SignalSell, Price: 187, Time: base.Add(2 * time.Minute)})
	require.NoError(t, err)

	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)

	paths, err := NewExporter(fs, store, nil).Export(ctx, base)
	require.NoError(t, err)
	assert.Equal(t, []string{"trades/2024-06-25/AAPL.json", "trades/2024-06-25/EUR_USD.json"}, paths)

	snap, err := LoadSnapshot(ctx, fs, paths[0])
	require.NoError(t, err)
	assert.Equal(t, "AAPL", snap.Symbol)
	require.Len(t, snap.Trades, 2)
	assert.Equal(t, core.SignalBuy, snap.Trades[0].Signal)
	assert.Equal(t, core.SignalSell, snap.Trades[1].Signal)
}

func TestExporter_EmptyStore(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	require.NoError(t, err)

	paths, err := NewExporter(fs, trade.NewMemoryStore(10), nil).Export(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestFromConfig(t *testing.T) {
	s, err := FromConfig(config.ColdStorageConfig{})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = FromConfig(config.ColdStorageConfig{Type: "localfs", Path: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "localfs", s.Name())

	s, err = FromConfig(config.ColdStorageConfig{Type: "s3", S3: config.S3Config{Bucket: "trades", Endpoint: "http://localhost:9000"}})
	require.NoError(t, err)
	assert.Equal(t, "s3", s.Name())

	_, err = FromConfig(config.ColdStorageConfig{Type: "ftp"})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}
