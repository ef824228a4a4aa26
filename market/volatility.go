// Package market holds market observation helpers that sit outside the
// trading decision path.
package market

import (
	"time"
)

// Direction of a sharp price move.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// Alert describes a price move that crossed the configured threshold
// within the sliding window.
type Alert struct {
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"`
	ChangePct float64   `json:"change_pct"`
	FromPrice float64   `json:"from_price"`
	ToPrice   float64   `json:"to_price"`
	Window    string    `json:"window"`
	At        time.Time `json:"at"`
}

type sample struct {
	at    time.Time
	price float64
}

// VolatilityMonitor keeps a sliding window of price samples and raises
// an alert when the move from the oldest retained sample to the newest
// crosses the threshold. Owned by a single orchestrator, not locked.
type VolatilityMonitor struct {
	symbol       string
	thresholdPct float64
	window       time.Duration
	samples      []sample
}

// NewVolatilityMonitor creates a monitor. thresholdPct is the absolute
// percent move that triggers an alert, window the sample retention span.
func NewVolatilityMonitor(symbol string, thresholdPct float64, window time.Duration) *VolatilityMonitor {
	if thresholdPct <= 0 {
		thresholdPct = 2.0
	}
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &VolatilityMonitor{
		symbol:       symbol,
		thresholdPct: thresholdPct,
		window:       window,
	}
}

// Observe records a price sample, evicts samples older than the window
// and returns a non-nil Alert when the threshold is crossed. With fewer
// than two samples retained no comparison is possible.
func (m *VolatilityMonitor) Observe(price float64, now time.Time) *Alert {
	if price <= 0 {
		return nil
	}

	m.samples = append(m.samples, sample{at: now, price: price})

	cutoff := now.Add(-m.window)
	i := 0
	for i < len(m.samples) && m.samples[i].at.Before(cutoff) {
		i++
	}
	m.samples = m.samples[i:]

	if len(m.samples) < 2 {
		return nil
	}

	oldest := m.samples[0]
	if oldest.price <= 0 {
		return nil
	}
	changePct := (price - oldest.price) / oldest.price * 100

	abs := changePct
	if abs < 0 {
		abs = -abs
	}
	if abs < m.thresholdPct {
		return nil
	}

	dir := DirectionUp
	if changePct < 0 {
		dir = DirectionDown
	}
	return &Alert{
		Symbol:    m.symbol,
		Direction: dir,
		ChangePct: changePct,
		FromPrice: oldest.price,
		ToPrice:   price,
		Window:    m.window.String(),
		At:        now,
	}
}

// Len returns the number of retained samples.
func (m *VolatilityMonitor) Len() int {
	return len(m.samples)
}
