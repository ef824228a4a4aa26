package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime settings, loaded from environment variables.
// godotenv is loaded by main before Load is called, so a local .env file
// works the same as injected variables.
type Config struct {
	// Exchange credentials
	BinanceAPIKey string
	BinanceSecret string
	Testnet       bool

	// Trading settings
	Symbols       []string // trading pairs, e.g. ["BTC/USDT", "ETH/USDT"]
	BuyThreshold  float64  // percent drop that triggers a buy
	SellThreshold float64  // percent rise that triggers a sell
	TradeAmount   float64  // base-asset amount per order
	CheckInterval time.Duration

	// Risk settings
	StopLossPct     float64
	UseTrailingStop bool
	TrailingStopPct float64

	// Volatility alerts
	AlertThresholdPct float64
	AlertWindow       time.Duration

	// AI advisor
	AIAPIURL               string
	AIEnabled              bool
	AIConfirmationRequired bool

	// Persistence
	StateDir    string
	TradeDBPath string

	// API server
	APIServerPort     int
	JWTSecret         string
	AdminPasswordHash string // bcrypt hash; login disabled when empty

	// Telegram notifications (optional)
	TelegramToken  string
	TelegramChatID int64

	// Logging
	LogLevel string
	LogFile  string
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		BinanceAPIKey: strings.TrimSpace(os.Getenv("BINANCE_API_KEY")),
		BinanceSecret: strings.TrimSpace(os.Getenv("BINANCE_SECRET")),
		Testnet:       getBool("TESTNET", true),

		Symbols:       getSymbols(),
		BuyThreshold:  getFloat("BUY_THRESHOLD", 1.0),
		SellThreshold: getFloat("SELL_THRESHOLD", 1.0),
		TradeAmount:   getFloat("TRADE_AMOUNT", 0.001),
		CheckInterval: time.Duration(getInt("CHECK_INTERVAL", 30)) * time.Second,

		StopLossPct:     getFloat("STOP_LOSS_PERCENTAGE", 3.0),
		UseTrailingStop: getBool("USE_TRAILING_STOP", false),
		TrailingStopPct: getFloat("TRAILING_STOP_PERCENTAGE", 1.5),

		AlertThresholdPct: getFloat("PRICE_ALERT_THRESHOLD", 2.0),
		AlertWindow:       time.Duration(getInt("PRICE_ALERT_WINDOW_MINUTES", 5)) * time.Minute,

		AIAPIURL:               getString("AI_API_URL", "http://localhost:8000"),
		AIEnabled:              getBool("AI_ENABLED", true),
		AIConfirmationRequired: getBool("AI_CONFIRMATION_REQUIRED", false),

		StateDir:    getString("STATE_DIR", "."),
		TradeDBPath: getString("TRADE_DB_PATH", "trades.db"),

		APIServerPort:     getInt("API_SERVER_PORT", 8002),
		JWTSecret:         strings.TrimSpace(os.Getenv("JWT_SECRET")),
		AdminPasswordHash: strings.TrimSpace(os.Getenv("ADMIN_PASSWORD_HASH")),

		TelegramToken:  strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		TelegramChatID: int64(getInt("TELEGRAM_CHAT_ID", 0)),

		LogLevel: getString("LOG_LEVEL", "info"),
		LogFile:  getString("LOG_FILE", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.BinanceAPIKey == "" || c.BinanceSecret == "" {
		return fmt.Errorf("missing API credentials: BINANCE_API_KEY and BINANCE_SECRET must be set")
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("no trading symbols configured")
	}
	if c.BuyThreshold <= 0 || c.BuyThreshold > 100 {
		return fmt.Errorf("BUY_THRESHOLD must be between 0 and 100 percent")
	}
	if c.SellThreshold <= 0 || c.SellThreshold > 100 {
		return fmt.Errorf("SELL_THRESHOLD must be between 0 and 100 percent")
	}
	if c.TradeAmount <= 0 {
		return fmt.Errorf("TRADE_AMOUNT must be positive")
	}
	if c.CheckInterval < time.Second {
		return fmt.Errorf("CHECK_INTERVAL must be at least 1 second")
	}
	if c.StopLossPct <= 0 {
		return fmt.Errorf("STOP_LOSS_PERCENTAGE must be positive")
	}
	if c.UseTrailingStop && c.TrailingStopPct <= 0 {
		return fmt.Errorf("TRAILING_STOP_PERCENTAGE must be positive when trailing stop is enabled")
	}
	return nil
}

// getSymbols reads SYMBOLS (comma-separated) with SYMBOL as single-pair fallback.
func getSymbols() []string {
	raw := strings.TrimSpace(os.Getenv("SYMBOLS"))
	if raw == "" {
		raw = getString("SYMBOL", "BTC/USDT")
	}
	var symbols []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			symbols = append(symbols, strings.ToUpper(s))
		}
	}
	return symbols
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	switch v {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

func getFloat(key string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
