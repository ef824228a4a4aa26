// Package notify pushes domain events to external channels.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"oscbot/bot"
	"oscbot/logger"
	"oscbot/market"
)

// Telegram is an event sink forwarding trades and volatility alerts to
// a chat. Price updates are deliberately not forwarded.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram connects to the Telegram bot API.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram connect: %w", err)
	}
	logger.Infof("[Telegram] notifier ready as @%s", api.Self.UserName)
	return &Telegram{api: api, chatID: chatID}, nil
}

// Publish implements bot.EventSink. Delivery failures are logged only;
// notifications never affect trading.
func (t *Telegram) Publish(ev bot.Event) {
	var text string

	switch ev.Type {
	case bot.EventTradeExecuted:
		data, ok := ev.Data.(bot.TradeData)
		if !ok {
			return
		}
		text = fmt.Sprintf("%s %s %.6f @ $%.2f (%s)",
			data.Action, ev.Symbol, data.Amount, data.Price, data.Reason)
		if data.ProfitPct != nil {
			text += fmt.Sprintf("\nPnL: %+.2f%%", *data.ProfitPct)
		}
	case bot.EventVolatilityAlert:
		alert, ok := ev.Data.(*market.Alert)
		if !ok {
			return
		}
		text = fmt.Sprintf("Volatility alert %s: %s %.2f%% in %s",
			ev.Symbol, alert.Direction, alert.ChangePct, alert.Window)
	case bot.EventStatusChange:
		data, ok := ev.Data.(bot.StatusData)
		if !ok {
			return
		}
		text = fmt.Sprintf("Bot %s is now %s", ev.Symbol, data.Status)
	default:
		return
	}

	if _, err := t.api.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
		logger.Warnf("[Telegram] send failed: %v", err)
	}
}
