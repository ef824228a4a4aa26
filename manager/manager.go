// Package manager fans the bot out across symbols: one independent
// orchestrator and strategy per pair, sharing the exchange, advisor and
// trade store.
package manager

import (
	"fmt"
	"sync"

	"oscbot/bot"
	"oscbot/config"
	"oscbot/exchange"
	"oscbot/logger"
	"oscbot/market"
	"oscbot/store"
	"oscbot/strategy"
)

// Manager owns the per-symbol bots.
type Manager struct {
	mu   sync.RWMutex
	bots map[string]*bot.Bot // keyed by symbol
}

// New builds one bot per configured symbol. Each symbol gets its own
// strategy, monitor and state file; exchange, advisor, trade store and
// sinks are shared and must be safe for concurrent use.
func New(cfg *config.Config, ex exchange.Exchange, adv bot.AdvisorService, trades *store.TradeStore, sinks []bot.EventSink) (*Manager, error) {
	m := &Manager{bots: make(map[string]*bot.Bot)}

	for _, symbol := range cfg.Symbols {
		states, err := store.NewStateStore(cfg.StateDir, symbol)
		if err != nil {
			return nil, fmt.Errorf("state store for %s: %w", symbol, err)
		}

		strat := strategy.New(cfg.BuyThreshold, cfg.SellThreshold, cfg.TradeAmount, strategy.RiskConfig{
			StopLossPct:     cfg.StopLossPct,
			UseTrailingStop: cfg.UseTrailingStop,
			TrailingStopPct: cfg.TrailingStopPct,
		})

		monitor := market.NewVolatilityMonitor(symbol, cfg.AlertThresholdPct, cfg.AlertWindow)

		b, err := bot.New(bot.Options{
			Symbol:               symbol,
			Exchange:             ex,
			Strategy:             strat,
			Monitor:              monitor,
			States:               states,
			Trades:               trades,
			Advisor:              adv,
			Sinks:                sinks,
			Interval:             cfg.CheckInterval,
			ConfirmationRequired: cfg.AIConfirmationRequired,
			BuyThreshold:         cfg.BuyThreshold,
			SellThreshold:        cfg.SellThreshold,
		})
		if err != nil {
			return nil, fmt.Errorf("bot for %s: %w", symbol, err)
		}
		m.bots[symbol] = b
	}

	logger.Infof("[Manager] initialized %d bot(s)", len(m.bots))
	return m, nil
}

// StartAll launches every bot.
func (m *Manager) StartAll() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.bots {
		b.Start()
	}
}

// StopAll stops every bot concurrently and waits for all in-flight
// ticks to finish.
func (m *Manager) StopAll() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, b := range m.bots {
		wg.Add(1)
		go func(b *bot.Bot) {
			defer wg.Done()
			b.Stop()
		}(b)
	}
	wg.Wait()
	logger.Info("[Manager] all bots stopped")
}

// Get returns the bot for one symbol.
func (m *Manager) Get(symbol string) (*bot.Bot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bots[symbol]
	return b, ok
}

// Statuses returns the snapshot of every bot.
func (m *Manager) Statuses() []bot.Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]bot.Status, 0, len(m.bots))
	for _, b := range m.bots {
		out = append(out, b.GetStatus())
	}
	return out
}

// UpdateThresholds queues new grid spacing for one symbol, or for all
// bots when symbol is empty.
func (m *Manager) UpdateThresholds(symbol string, buyThreshold, sellThreshold float64) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if symbol != "" {
		b, ok := m.bots[symbol]
		if !ok {
			return fmt.Errorf("unknown symbol %q", symbol)
		}
		return b.UpdateThresholds(buyThreshold, sellThreshold)
	}
	for _, b := range m.bots {
		if err := b.UpdateThresholds(buyThreshold, sellThreshold); err != nil {
			return err
		}
	}
	return nil
}

// Symbols returns the managed symbols.
func (m *Manager) Symbols() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.bots))
	for s := range m.bots {
		out = append(out, s)
	}
	return out
}
