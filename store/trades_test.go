package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTradeStore(t *testing.T) *TradeStore {
	t.Helper()
	s, err := NewTradeStore(filepath.Join(t.TempDir(), "trades.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTradeStoreRecordAndRecent(t *testing.T) {
	s := newTestTradeStore(t)
	now := time.Now()

	require.NoError(t, s.Record(Trade{
		Symbol: "BTC/USDT", Side: "BUY", Price: 100000, Amount: 0.001,
		Reason: "grid", ExecutedAt: now.Add(-time.Minute),
	}))
	require.NoError(t, s.Record(Trade{
		Symbol: "BTC/USDT", Side: "SELL", Price: 102000, Amount: 0.001,
		PnLPct: FloatPtr(2.0), Reason: "grid", ExecutedAt: now,
	}))

	trades, err := s.Recent("BTC/USDT", 10)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	// Newest first
	assert.Equal(t, "SELL", trades[0].Side)
	require.NotNil(t, trades[0].PnLPct)
	assert.InDelta(t, 2.0, *trades[0].PnLPct, 1e-9)
	assert.Equal(t, "BUY", trades[1].Side)
	assert.Nil(t, trades[1].PnLPct)
}

func TestTradeStoreRecentFiltersSymbol(t *testing.T) {
	s := newTestTradeStore(t)
	now := time.Now()

	require.NoError(t, s.Record(Trade{Symbol: "BTC/USDT", Side: "BUY", Price: 100000, Amount: 0.001, Reason: "grid", ExecutedAt: now}))
	require.NoError(t, s.Record(Trade{Symbol: "ETH/USDT", Side: "BUY", Price: 3000, Amount: 0.1, Reason: "grid", ExecutedAt: now}))

	trades, err := s.Recent("ETH/USDT", 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "ETH/USDT", trades[0].Symbol)

	all, err := s.Recent("", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTradeStoreSummarize(t *testing.T) {
	s := newTestTradeStore(t)
	now := time.Now()

	require.NoError(t, s.Record(Trade{Symbol: "BTC/USDT", Side: "BUY", Price: 100000, Amount: 0.001, Reason: "grid", ExecutedAt: now}))
	require.NoError(t, s.Record(Trade{Symbol: "BTC/USDT", Side: "SELL", Price: 102000, Amount: 0.001, PnLPct: FloatPtr(2.0), Reason: "grid", ExecutedAt: now}))
	require.NoError(t, s.Record(Trade{Symbol: "BTC/USDT", Side: "SELL", Price: 99000, Amount: 0.001, PnLPct: FloatPtr(-1.0), Reason: "stop_loss", ExecutedAt: now}))
	// Unattributed sell after a restart carries no PnL
	require.NoError(t, s.Record(Trade{Symbol: "BTC/USDT", Side: "SELL", Price: 99500, Amount: 0.001, Reason: "grid", ExecutedAt: now}))

	sum, err := s.Summarize("BTC/USDT")
	require.NoError(t, err)

	assert.Equal(t, 4, sum.TotalTrades)
	assert.Equal(t, 1, sum.Buys)
	assert.Equal(t, 3, sum.Sells)
	assert.Equal(t, 1, sum.Wins)
	assert.Equal(t, 1, sum.Losses)
	assert.InDelta(t, 50.0, sum.WinRate, 1e-9)
	assert.InDelta(t, 0.5, sum.AvgPnLPct, 1e-9)
	assert.InDelta(t, 1.0, sum.TotalPnLPct, 1e-9)
}

func TestTradeStoreSummarizeEmpty(t *testing.T) {
	s := newTestTradeStore(t)

	sum, err := s.Summarize("BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, 0, sum.TotalTrades)
	assert.Equal(t, 0.0, sum.WinRate)
}
