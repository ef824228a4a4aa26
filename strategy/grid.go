// Package strategy implements the grid oscillation decision engine:
// buy on a percentage drop, sell on a percentage rise, relative to the
// last opposing trade price, with stop-loss, trailing-stop and dynamic
// position sizing layered on top.
package strategy

import (
	"oscbot/logger"
)

// Signal is a trading decision for one tick.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// Stats is a snapshot of strategy performance counters.
type Stats struct {
	TotalTrades   int     `json:"total_trades"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinRate       float64 `json:"win_rate"`
	LastBuyPrice  float64 `json:"last_buy_price"`
	LastSellPrice float64 `json:"last_sell_price"`
	BuyThreshold  float64 `json:"buy_threshold"`
	SellThreshold float64 `json:"sell_threshold"`
	TradeAmount   float64 `json:"trade_amount"`
}

// GridStrategy holds the mutable decision state for a single symbol.
// Each orchestrator owns its strategy exclusively, so no locking here.
//
// Only the most recent buy/sell price is retained, not a full trade
// ledger: the strategy holds at most one open lot at a time.
type GridStrategy struct {
	buyThreshold  float64 // percent drop from last sell that triggers a buy
	sellThreshold float64 // percent rise from last buy that triggers a sell

	tradeAmount     float64 // current base-asset amount per order
	baseTradeAmount float64
	positionStep    float64

	risk RiskConfig

	// Price references. Zero means unset.
	lastBuyPrice    float64
	lastSellPrice   float64
	highestSinceBuy float64

	// Statistics
	totalTrades       int
	wins              int
	losses            int
	consecutiveWins   int
	consecutiveLosses int
}

// New creates a grid strategy. Position size bounds default to half and
// double the base trade amount, adjusted one quarter-step at a time.
func New(buyThreshold, sellThreshold, tradeAmount float64, risk RiskConfig) *GridStrategy {
	risk.setDefaults(tradeAmount)

	s := &GridStrategy{
		buyThreshold:    buyThreshold,
		sellThreshold:   sellThreshold,
		tradeAmount:     tradeAmount,
		baseTradeAmount: tradeAmount,
		positionStep:    tradeAmount * 0.25,
		risk:            risk,
	}

	logger.Infof("Grid strategy initialized: buy %.2f%% / sell %.2f%% / amount %.6f",
		buyThreshold, sellThreshold, tradeAmount)
	return s
}

// Decide returns the signal for the current price. holding reports
// whether the base asset is currently held.
//
// While holding, the trailing stop is checked before the plain rise
// threshold and wins when both could fire.
func (s *GridStrategy) Decide(price float64, holding bool) Signal {
	if price <= 0 {
		return SignalHold
	}

	if !holding {
		// Bootstrap: no sell reference yet, enter at market
		if s.lastSellPrice == 0 {
			return SignalBuy
		}
		dropPct := (s.lastSellPrice - price) / s.lastSellPrice * 100
		if dropPct >= s.buyThreshold {
			return SignalBuy
		}
		return SignalHold
	}

	// Holding base with no entry reference: inconsistent (possible after
	// a crash), never fatal
	if s.lastBuyPrice == 0 {
		logger.Warnf("holding position with no recorded buy price, holding")
		return SignalHold
	}

	if price > s.highestSinceBuy {
		s.highestSinceBuy = price
	}

	if s.risk.UseTrailingStop && s.highestSinceBuy > 0 {
		drawdownPct := (s.highestSinceBuy - price) / s.highestSinceBuy * 100
		if drawdownPct >= s.risk.TrailingStopPct {
			logger.Infof("trailing stop hit: %.2f%% below peak %.2f", drawdownPct, s.highestSinceBuy)
			return SignalSell
		}
	}

	risePct := (price - s.lastBuyPrice) / s.lastBuyPrice * 100
	if risePct >= s.sellThreshold {
		return SignalSell
	}
	return SignalHold
}

// RecordBuy records an executed buy and resets the trailing peak.
func (s *GridStrategy) RecordBuy(price float64) {
	s.lastBuyPrice = price
	s.highestSinceBuy = price
	s.totalTrades++
	logger.Infof("BUY RECORDED: $%.2f (trade #%d)", price, s.totalTrades)
}

// RecordSell records an executed sell and returns the realized PnL
// percentage. When no buy price is known (restart edge case) the trade
// is counted but attributed to neither wins nor losses and attributed
// is false.
func (s *GridStrategy) RecordSell(price float64) (pnlPct float64, attributed bool) {
	s.lastSellPrice = price
	s.highestSinceBuy = 0
	s.totalTrades++

	if s.lastBuyPrice == 0 {
		logger.Warnf("SELL RECORDED: $%.2f with no prior buy price, result unattributed", price)
		return 0, false
	}

	pnlPct = (price - s.lastBuyPrice) / s.lastBuyPrice * 100
	if pnlPct > 0 {
		s.wins++
		s.consecutiveWins++
		s.consecutiveLosses = 0
	} else {
		s.losses++
		s.consecutiveLosses++
		s.consecutiveWins = 0
	}
	logger.Infof("SELL RECORDED: $%.2f (PnL %+.2f%%, streak W%d/L%d)",
		price, pnlPct, s.consecutiveWins, s.consecutiveLosses)
	return pnlPct, true
}

// Stats returns the current performance snapshot.
func (s *GridStrategy) Stats() Stats {
	winRate := 0.0
	if s.totalTrades > 0 {
		winRate = float64(s.wins) / float64(s.totalTrades) * 100
	}
	return Stats{
		TotalTrades:   s.totalTrades,
		Wins:          s.wins,
		Losses:        s.losses,
		WinRate:       winRate,
		LastBuyPrice:  s.lastBuyPrice,
		LastSellPrice: s.lastSellPrice,
		BuyThreshold:  s.buyThreshold,
		SellThreshold: s.sellThreshold,
		TradeAmount:   s.tradeAmount,
	}
}

// TradeAmount returns the current per-order base amount.
func (s *GridStrategy) TradeAmount() float64 {
	return s.tradeAmount
}

// LastBuyPrice returns the entry reference, 0 when unset.
func (s *GridStrategy) LastBuyPrice() float64 {
	return s.lastBuyPrice
}

// LastSellPrice returns the exit reference, 0 when unset.
func (s *GridStrategy) LastSellPrice() float64 {
	return s.lastSellPrice
}

// RestoreReferences seeds the price references, either from persisted
// state at startup or from an estimated entry when none survived.
// Statistics start fresh.
func (s *GridStrategy) RestoreReferences(lastBuy, lastSell float64) {
	s.lastBuyPrice = lastBuy
	s.lastSellPrice = lastSell
	if lastBuy > 0 {
		s.highestSinceBuy = lastBuy
	}
}

// UpdateThresholds changes the grid spacing at runtime.
func (s *GridStrategy) UpdateThresholds(buyThreshold, sellThreshold float64) {
	if buyThreshold <= 0 || sellThreshold <= 0 {
		return
	}
	logger.Infof("thresholds updated: buy %.2f%% -> %.2f%%, sell %.2f%% -> %.2f%%",
		s.buyThreshold, buyThreshold, s.sellThreshold, sellThreshold)
	s.buyThreshold = buyThreshold
	s.sellThreshold = sellThreshold
}

// Reset clears all references and statistics.
func (s *GridStrategy) Reset() {
	s.lastBuyPrice = 0
	s.lastSellPrice = 0
	s.highestSinceBuy = 0
	s.totalTrades = 0
	s.wins = 0
	s.losses = 0
	s.consecutiveWins = 0
	s.consecutiveLosses = 0
	s.tradeAmount = s.baseTradeAmount
	logger.Info("strategy state reset")
}
