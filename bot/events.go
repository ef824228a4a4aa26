package bot

import (
	"time"

	"github.com/google/uuid"

	"oscbot/logger"
)

// EventType identifies a domain event.
type EventType string

const (
	EventTradeExecuted   EventType = "trade_executed"
	EventStatusChange    EventType = "status_change"
	EventPriceUpdate     EventType = "price_update"
	EventVolatilityAlert EventType = "volatility_alert"
)

// Event is one domain event pushed to the registered sinks.
type Event struct {
	ID     string    `json:"id"`
	Type   EventType `json:"type"`
	Symbol string    `json:"symbol"`
	At     time.Time `json:"at"`
	Data   any       `json:"data"`
}

// TradeData is the payload of trade_executed events.
type TradeData struct {
	Action    string   `json:"action"` // BUY or SELL
	Price     float64  `json:"price"`
	Amount    float64  `json:"amount"`
	Position  string   `json:"position"` // asset held after the trade
	ProfitPct *float64 `json:"profit_pct,omitempty"`
	Reason    string   `json:"reason"` // grid, stop_loss, trailing_stop
}

// StatusData is the payload of status_change events.
type StatusData struct {
	Status   string `json:"status"` // running, stopped
	Position string `json:"position,omitempty"`
}

// PriceData is the payload of price_update events.
type PriceData struct {
	Price float64 `json:"price"`
}

// EventSink receives domain events. Implementations must not block for
// long: Publish is called from inside the tick loop.
type EventSink interface {
	Publish(Event)
}

// emit builds and fans out one event. Sink panics are contained so a
// broken observer cannot take down the trading loop.
func (b *Bot) emit(t EventType, data any) {
	ev := Event{
		ID:     uuid.NewString(),
		Type:   t,
		Symbol: b.symbol,
		At:     time.Now(),
		Data:   data,
	}
	for _, sink := range b.sinks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("[Bot %s] event sink panic: %v", b.symbol, r)
				}
			}()
			sink.Publish(ev)
		}()
	}
}
