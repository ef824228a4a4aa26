package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "key")
	t.Setenv("BINANCE_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"BTC/USDT"}, cfg.Symbols)
	assert.Equal(t, 1.0, cfg.BuyThreshold)
	assert.Equal(t, 1.0, cfg.SellThreshold)
	assert.Equal(t, 0.001, cfg.TradeAmount)
	assert.Equal(t, 30*time.Second, cfg.CheckInterval)
	assert.Equal(t, 3.0, cfg.StopLossPct)
	assert.False(t, cfg.UseTrailingStop)
	assert.Equal(t, 2.0, cfg.AlertThresholdPct)
	assert.Equal(t, 5*time.Minute, cfg.AlertWindow)
	assert.Equal(t, 8002, cfg.APIServerPort)
	assert.True(t, cfg.Testnet)
}

func TestLoadMissingCredentials(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "")
	t.Setenv("BINANCE_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadMultipleSymbols(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SYMBOLS", "btc/usdt, eth/usdt ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, cfg.Symbols)
}

func TestLoadSingleSymbolFallback(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SYMBOL", "eth/usdt")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"ETH/USDT"}, cfg.Symbols)
}

func TestValidateRanges(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero buy threshold", "BUY_THRESHOLD", "0"},
		{"buy threshold over 100", "BUY_THRESHOLD", "150"},
		{"negative sell threshold", "SELL_THRESHOLD", "-1"},
		{"zero trade amount", "TRADE_AMOUNT", "0"},
		{"sub-second interval", "CHECK_INTERVAL", "0"},
		{"zero stop loss", "STOP_LOSS_PERCENTAGE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidateTrailingStop(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("USE_TRAILING_STOP", "true")
	t.Setenv("TRAILING_STOP_PERCENTAGE", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestBoolParsing(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TESTNET", "0")
	t.Setenv("USE_TRAILING_STOP", "yes")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Testnet)
	assert.True(t, cfg.UseTrailingStop)
}
