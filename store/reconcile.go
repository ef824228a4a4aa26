package store

import (
	"oscbot/logger"
)

// DustThreshold is the base-asset amount below which a balance is
// treated as residue rather than an open position.
const DustThreshold = 0.0001

// Reconcile aligns a loaded snapshot with the live base-asset balance.
// The exchange balance is authoritative: the snapshot's position is
// rewritten to match it. When the balance says a lot is open but no
// entry price survived, the current price stands in as the entry
// estimate and the corrected snapshot is persisted immediately, so a
// crash right after reconciliation does not repeat the guess.
func (s *StateStore) Reconcile(st State, baseBalance, currentPrice float64) State {
	holding := baseBalance > DustThreshold

	if holding && !s.Holding(st) {
		logger.Warnf("[State] %s balance %.8f but snapshot says %s held, trusting exchange",
			s.baseAsset, baseBalance, st.Position)
		st.Position = s.baseAsset
	} else if !holding && s.Holding(st) {
		logger.Warnf("[State] snapshot says %s held but balance is %.8f, trusting exchange",
			s.baseAsset, baseBalance)
		st.Position = s.quoteAsset
	}

	if s.Holding(st) && (st.LastBuyPrice == nil || *st.LastBuyPrice <= 0) && currentPrice > 0 {
		logger.Warnf("[State] holding %s with no entry price, estimating from current $%.2f",
			s.baseAsset, currentPrice)
		st.LastBuyPrice = FloatPtr(currentPrice)
		if err := s.Save(st); err != nil {
			logger.Errorf("[State] persist reconciled state: %v", err)
		}
	}

	return st
}
