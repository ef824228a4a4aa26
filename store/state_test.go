package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStateStore(t *testing.T) *StateStore {
	t.Helper()
	s, err := NewStateStore(t.TempDir(), "BTC/USDT")
	require.NoError(t, err)
	return s
}

func TestNewStateStoreRejectsBadSymbol(t *testing.T) {
	_, err := NewStateStore(t.TempDir(), "BTCUSDT")
	assert.Error(t, err)

	_, err = NewStateStore(t.TempDir(), "/USDT")
	assert.Error(t, err)
}

func TestStateFileNaming(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStateStore(dir, "eth/usdt")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "bot_state_ETH.json"), s.Path())
	assert.Equal(t, "ETH", s.BaseAsset())
	assert.Equal(t, "USDT", s.QuoteAsset())
}

func TestLoadMissingFileDefaultsToQuoteHeld(t *testing.T) {
	s := newTestStateStore(t)

	st := s.Load()
	assert.Equal(t, "USDT", st.Position)
	assert.Nil(t, st.LastBuyPrice)
	assert.Nil(t, st.LastSellPrice)
	assert.False(t, s.Holding(st))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStateStore(t)

	require.NoError(t, s.Save(State{
		Position:     "BTC",
		LastBuyPrice: FloatPtr(100000),
	}))

	st := s.Load()
	assert.Equal(t, "BTC", st.Position)
	require.NotNil(t, st.LastBuyPrice)
	assert.Equal(t, 100000.0, *st.LastBuyPrice)
	assert.Nil(t, st.LastSellPrice)
	assert.True(t, s.Holding(st))
}

func TestLoadCorruptFileFallsBack(t *testing.T) {
	s := newTestStateStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o644))

	st := s.Load()
	assert.Equal(t, "USDT", st.Position)
}

func TestReconcileTrustsLiveBalanceOverSnapshot(t *testing.T) {
	s := newTestStateStore(t)

	// Snapshot says cash, exchange says we hold BTC
	st := s.Reconcile(State{Position: "USDT"}, 0.5, 100000)
	assert.Equal(t, "BTC", st.Position)
	require.NotNil(t, st.LastBuyPrice, "entry estimated from current price")
	assert.Equal(t, 100000.0, *st.LastBuyPrice)

	// The estimate must already be on disk
	persisted := s.Load()
	require.NotNil(t, persisted.LastBuyPrice)
	assert.Equal(t, 100000.0, *persisted.LastBuyPrice)
}

func TestReconcileClearsStalePosition(t *testing.T) {
	s := newTestStateStore(t)

	st := s.Reconcile(State{Position: "BTC", LastBuyPrice: FloatPtr(95000)}, 0, 100000)
	assert.Equal(t, "USDT", st.Position)
}

func TestReconcileDustStaysQuoteHeld(t *testing.T) {
	s := newTestStateStore(t)

	st := s.Reconcile(State{Position: "USDT"}, 0.00005, 100000)
	assert.Equal(t, "USDT", st.Position)
}

func TestReconcileKeepsExistingEntry(t *testing.T) {
	s := newTestStateStore(t)

	st := s.Reconcile(State{Position: "BTC", LastBuyPrice: FloatPtr(95000)}, 0.5, 100000)
	assert.Equal(t, "BTC", st.Position)
	assert.Equal(t, 95000.0, *st.LastBuyPrice)
}
