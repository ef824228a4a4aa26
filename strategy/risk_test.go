package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckStopLoss(t *testing.T) {
	s := newTestStrategy(1.0, 1.0, RiskConfig{StopLossPct: 3.0})
	s.RecordBuy(100000)

	assert.True(t, s.CheckStopLoss(96900, true), "3.1%% loss trips the stop")
	assert.False(t, s.CheckStopLoss(97500, true), "2.5%% loss does not")
	assert.False(t, s.CheckStopLoss(96900, false), "no position, no stop")
}

func TestCheckStopLossWithoutReference(t *testing.T) {
	s := newTestStrategy(1.0, 1.0, RiskConfig{StopLossPct: 3.0})
	assert.False(t, s.CheckStopLoss(90000, true))
}

// winStreak records n winning round trips.
func winStreak(s *GridStrategy, n int) {
	for i := 0; i < n; i++ {
		s.RecordBuy(100000)
		s.RecordSell(101000)
	}
}

// lossStreak records n losing round trips.
func lossStreak(s *GridStrategy, n int) {
	for i := 0; i < n; i++ {
		s.RecordBuy(100000)
		s.RecordSell(99000)
	}
}

func TestAdjustPositionSizeGrowsOnWinStreak(t *testing.T) {
	s := New(1.0, 1.0, 0.001, RiskConfig{StopLossPct: 3.0})

	winStreak(s, 2)
	s.AdjustPositionSize(1e9)
	assert.Equal(t, 0.001, s.TradeAmount(), "two wins are not enough")

	winStreak(s, 1)
	s.AdjustPositionSize(1e9)
	assert.InDelta(t, 0.00125, s.TradeAmount(), 1e-12, "third win adds one quarter step")
}

func TestAdjustPositionSizeShrinksOnLossStreak(t *testing.T) {
	s := New(1.0, 1.0, 0.001, RiskConfig{StopLossPct: 3.0})

	lossStreak(s, 3)
	s.AdjustPositionSize(1e9)
	assert.InDelta(t, 0.00075, s.TradeAmount(), 1e-12)
}

func TestAdjustPositionSizeStaysInBounds(t *testing.T) {
	s := New(1.0, 1.0, 0.001, RiskConfig{StopLossPct: 3.0})

	// Repeated win streaks cap at double the base amount
	for i := 0; i < 20; i++ {
		winStreak(s, 3)
		s.AdjustPositionSize(1e9)
		assert.LessOrEqual(t, s.TradeAmount(), 0.002)
	}
	assert.InDelta(t, 0.002, s.TradeAmount(), 1e-12)

	// Repeated loss streaks floor at half the base amount
	for i := 0; i < 20; i++ {
		lossStreak(s, 3)
		s.AdjustPositionSize(1e9)
		assert.GreaterOrEqual(t, s.TradeAmount(), 0.0005)
	}
	assert.InDelta(t, 0.0005, s.TradeAmount(), 1e-12)
}

func TestAdjustPositionSizeBalanceCap(t *testing.T) {
	s := New(1.0, 1.0, 0.001, RiskConfig{StopLossPct: 3.0})
	winStreak(s, 3)

	// Increased notional would be 0.00125 * 101000 = 126.25, more than
	// half of a 200 quote balance, so the increase is skipped
	s.AdjustPositionSize(200)
	assert.Equal(t, 0.001, s.TradeAmount())

	// With ample balance the same streak would have grown the size
	s2 := New(1.0, 1.0, 0.001, RiskConfig{StopLossPct: 3.0})
	winStreak(s2, 3)
	s2.AdjustPositionSize(10000)
	assert.InDelta(t, 0.00125, s2.TradeAmount(), 1e-12)
}

func TestRiskConfigExplicitBounds(t *testing.T) {
	s := New(1.0, 1.0, 0.001, RiskConfig{
		StopLossPct:     3.0,
		MinPositionSize: 0.0009,
		MaxPositionSize: 0.0011,
	})

	winStreak(s, 3)
	s.AdjustPositionSize(1e9)
	assert.InDelta(t, 0.0011, s.TradeAmount(), 1e-12, "explicit max wins over the derived one")

	lossStreak(s, 3)
	s.AdjustPositionSize(1e9)
	lossStreak(s, 3)
	s.AdjustPositionSize(1e9)
	assert.InDelta(t, 0.0009, s.TradeAmount(), 1e-12)
}
