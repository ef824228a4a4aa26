package strategy

import (
	"oscbot/logger"
)

// RiskConfig bundles the protective settings applied on top of the grid.
type RiskConfig struct {
	StopLossPct     float64 // percent drop from entry that forces an exit
	UseTrailingStop bool
	TrailingStopPct float64 // percent drawdown from the post-entry peak

	// Dynamic sizing bounds in base-asset units. Zero means derive from
	// the base trade amount.
	MinPositionSize float64
	MaxPositionSize float64
}

func (r *RiskConfig) setDefaults(baseAmount float64) {
	if r.MinPositionSize <= 0 {
		r.MinPositionSize = baseAmount * 0.5
	}
	if r.MaxPositionSize <= 0 {
		r.MaxPositionSize = baseAmount * 2.0
	}
}

// CheckStopLoss reports whether the emergency exit condition holds.
// Checked by the orchestrator before the regular decision, and its sell
// is executed unconditionally, skipping advisory confirmation.
func (s *GridStrategy) CheckStopLoss(price float64, holding bool) bool {
	if !holding || s.lastBuyPrice == 0 || price <= 0 {
		return false
	}
	lossPct := (s.lastBuyPrice - price) / s.lastBuyPrice * 100
	if lossPct >= s.risk.StopLossPct {
		logger.Warnf("STOP LOSS: price $%.2f is %.2f%% below entry $%.2f (limit %.2f%%)",
			price, lossPct, s.lastBuyPrice, s.risk.StopLossPct)
		return true
	}
	return false
}

// AdjustPositionSize scales the per-order amount with the current win or
// loss streak: three consecutive wins grow it by one step, three
// consecutive losses shrink it by one step. The result is clamped to the
// configured bounds, and an increase is skipped when the notional at the
// last sell price would exceed half the available quote balance.
func (s *GridStrategy) AdjustPositionSize(quoteBalance float64) {
	amount := s.tradeAmount

	switch {
	case s.consecutiveWins >= 3:
		next := amount + s.positionStep
		if s.lastSellPrice > 0 && next*s.lastSellPrice > quoteBalance*0.5 {
			logger.Infof("position increase skipped: notional %.2f exceeds half of balance %.2f",
				next*s.lastSellPrice, quoteBalance)
		} else {
			amount = next
		}
		s.consecutiveWins = 0
	case s.consecutiveLosses >= 3:
		amount -= s.positionStep
		s.consecutiveLosses = 0
	default:
		return
	}

	if amount < s.risk.MinPositionSize {
		amount = s.risk.MinPositionSize
	}
	if amount > s.risk.MaxPositionSize {
		amount = s.risk.MaxPositionSize
	}

	if amount != s.tradeAmount {
		logger.Infof("position size adjusted: %.6f -> %.6f", s.tradeAmount, amount)
		s.tradeAmount = amount
	}
}
