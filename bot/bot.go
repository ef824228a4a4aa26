// Package bot runs the per-symbol orchestration loop: poll the price,
// watch volatility, evaluate the grid strategy, gate trades through the
// advisor when required, execute, persist and publish events.
package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"oscbot/advisor"
	"oscbot/exchange"
	"oscbot/logger"
	"oscbot/market"
	"oscbot/store"
	"oscbot/strategy"
)

// priceEventMinMovePct suppresses price_update events for moves smaller
// than this fraction of the last emitted price.
const priceEventMinMovePct = 0.1

// AdvisorService is the advisory surface the bot consumes. Satisfied by
// *advisor.Advisor; narrowed to an interface so tests can stub it.
type AdvisorService interface {
	Enabled() bool
	ConfirmTrade(signal strategy.Signal, price float64, stats strategy.Stats) advisor.Verdict
	AskForSuggestions(buyThreshold, sellThreshold float64, stats strategy.Stats) (string, error)
	SendDailySummary(stats strategy.Stats, quoteBalance, baseBalance float64) (string, error)
}

// Options wires one bot instance.
type Options struct {
	Symbol   string
	Exchange exchange.Exchange
	Strategy *strategy.GridStrategy
	Monitor  *market.VolatilityMonitor
	States   *store.StateStore
	Trades   *store.TradeStore // optional
	Advisor  AdvisorService    // optional
	Sinks    []EventSink

	Interval             time.Duration
	ConfirmationRequired bool

	// BuyThreshold/SellThreshold are reported to the advisor when asking
	// for grid spacing suggestions.
	BuyThreshold  float64
	SellThreshold float64
}

// Bot is the orchestrator for a single symbol. All mutable trading
// state is owned by the loop goroutine; only the running flag and the
// status snapshot are read from outside.
type Bot struct {
	symbol   string
	exchange exchange.Exchange
	strat    *strategy.GridStrategy
	monitor  *market.VolatilityMonitor
	states   *store.StateStore
	trades   *store.TradeStore
	advisor  AdvisorService
	sinks    []EventSink

	interval             time.Duration
	confirmationRequired bool
	buyThreshold         float64
	sellThreshold        float64

	holding          bool
	lastEmittedPrice float64

	mu        sync.Mutex
	isRunning bool
	stopCh    chan struct{}
	wg        sync.WaitGroup

	// status is the snapshot served to other goroutines. The trading
	// fields above are owned by the loop goroutine and must not be read
	// directly from outside it.
	statusMu sync.RWMutex
	status   Status

	// Threshold updates arrive from API goroutines and are applied by
	// the loop at the start of the next tick.
	pendingMu   sync.Mutex
	pendingBuy  float64
	pendingSell float64
	hasPending  bool
}

// Status is the externally visible bot snapshot.
type Status struct {
	Symbol        string         `json:"symbol"`
	Running       bool           `json:"running"`
	Position      string         `json:"position"`
	Holding       bool           `json:"holding"`
	LastBuyPrice  float64        `json:"last_buy_price"`
	LastSellPrice float64        `json:"last_sell_price"`
	Stats         strategy.Stats `json:"stats"`
}

// New creates a bot, loads the persisted snapshot and reconciles it
// against the live balance. A transient price or balance failure during
// reconciliation is logged, not fatal; a missing entry estimate is
// retried on the first tick with a usable price.
func New(opts Options) (*Bot, error) {
	if opts.Symbol == "" || opts.Exchange == nil || opts.Strategy == nil || opts.States == nil {
		return nil, fmt.Errorf("bot requires symbol, exchange, strategy and state store")
	}
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}

	b := &Bot{
		symbol:               opts.Symbol,
		exchange:             opts.Exchange,
		strat:                opts.Strategy,
		monitor:              opts.Monitor,
		states:               opts.States,
		trades:               opts.Trades,
		advisor:              opts.Advisor,
		sinks:                opts.Sinks,
		interval:             opts.Interval,
		confirmationRequired: opts.ConfirmationRequired,
		buyThreshold:         opts.BuyThreshold,
		sellThreshold:        opts.SellThreshold,
		stopCh:               make(chan struct{}),
	}

	b.restoreState()
	return b, nil
}

// restoreState loads the snapshot, reconciles it against the exchange
// and seeds the strategy references.
func (b *Bot) restoreState() {
	st := b.states.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	baseBalance, balErr := b.exchange.GetBalance(ctx, b.states.BaseAsset())
	price, priceErr := b.exchange.GetPrice(ctx, b.symbol)
	if balErr != nil {
		logger.Warnf("[Bot %s] balance unavailable at startup, trusting snapshot: %v", b.symbol, balErr)
	} else {
		if priceErr != nil {
			logger.Warnf("[Bot %s] price unavailable at startup: %v", b.symbol, priceErr)
			price = 0
		}
		st = b.states.Reconcile(st, baseBalance, price)
	}

	b.holding = b.states.Holding(st)

	var lastBuy, lastSell float64
	if st.LastBuyPrice != nil {
		lastBuy = *st.LastBuyPrice
	}
	if st.LastSellPrice != nil {
		lastSell = *st.LastSellPrice
	}
	b.strat.RestoreReferences(lastBuy, lastSell)

	logger.Infof("[Bot %s] state restored: position=%s lastBuy=%.2f lastSell=%.2f",
		b.symbol, st.Position, lastBuy, lastSell)
	b.updateStatus()
}

// Start launches the tick loop. Idempotent: starting a running bot is a
// no-op.
func (b *Bot) Start() {
	b.mu.Lock()
	if b.isRunning {
		b.mu.Unlock()
		logger.Warnf("[Bot %s] already running", b.symbol)
		return
	}
	b.isRunning = true
	b.stopCh = make(chan struct{})
	b.mu.Unlock()

	b.wg.Add(1)
	go b.run()

	logger.Infof("[Bot %s] started (interval %s)", b.symbol, b.interval)
	// Read position from the snapshot; the loop goroutine owns the live
	// fields by now
	b.emit(EventStatusChange, StatusData{Status: "running", Position: b.GetStatus().Position})
}

// Stop signals the loop and waits for the in-flight tick to finish.
// Idempotent.
func (b *Bot) Stop() {
	b.mu.Lock()
	if !b.isRunning {
		b.mu.Unlock()
		return
	}
	b.isRunning = false
	close(b.stopCh)
	b.mu.Unlock()

	b.wg.Wait()
	logger.Infof("[Bot %s] stopped", b.symbol)
}

// Running reports whether the loop is active.
func (b *Bot) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.isRunning
}

// GetStatus returns the snapshot published by the loop after its most
// recent tick. Safe to call from any goroutine.
func (b *Bot) GetStatus() Status {
	b.statusMu.RLock()
	st := b.status
	b.statusMu.RUnlock()
	st.Running = b.Running()
	return st
}

// updateStatus publishes the current trading state. Called only from
// the goroutine owning the trading fields (the loop, or the
// constructor before the loop exists).
func (b *Bot) updateStatus() {
	st := Status{
		Symbol:        b.symbol,
		Position:      b.position(),
		Holding:       b.holding,
		LastBuyPrice:  b.strat.LastBuyPrice(),
		LastSellPrice: b.strat.LastSellPrice(),
		Stats:         b.strat.Stats(),
	}
	b.statusMu.Lock()
	b.status = st
	b.statusMu.Unlock()
}

// UpdateThresholds requests new grid spacing. The change is validated
// here and applied by the loop at the start of its next tick, so the
// strategy is never touched from outside its owning goroutine.
func (b *Bot) UpdateThresholds(buyThreshold, sellThreshold float64) error {
	if buyThreshold <= 0 || buyThreshold > 100 || sellThreshold <= 0 || sellThreshold > 100 {
		return fmt.Errorf("thresholds must be between 0 and 100 percent")
	}
	b.pendingMu.Lock()
	b.pendingBuy = buyThreshold
	b.pendingSell = sellThreshold
	b.hasPending = true
	b.pendingMu.Unlock()
	logger.Infof("[Bot %s] threshold update queued: buy %.2f%% sell %.2f%%", b.symbol, buyThreshold, sellThreshold)
	return nil
}

// applyPendingThresholds hands a queued update to the strategy. Loop
// goroutine only.
func (b *Bot) applyPendingThresholds() {
	b.pendingMu.Lock()
	if !b.hasPending {
		b.pendingMu.Unlock()
		return
	}
	buy, sell := b.pendingBuy, b.pendingSell
	b.hasPending = false
	b.pendingMu.Unlock()

	b.strat.UpdateThresholds(buy, sell)
	b.buyThreshold = buy
	b.sellThreshold = sell
}

// Symbol returns the traded pair.
func (b *Bot) Symbol() string {
	return b.symbol
}

// run is the loop goroutine. A panic anywhere in a tick is converted
// into a graceful stop with state persisted and the closing summary
// requested.
func (b *Bot) run() {
	defer b.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[Bot %s] tick loop panic, stopping: %v", b.symbol, r)
			b.mu.Lock()
			b.isRunning = false
			b.mu.Unlock()
		}
		b.shutdown()
	}()

	b.tick()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopCh:
			return
		case <-ticker.C:
			b.tick()
		}
	}
}

// tick runs one full cycle. Every collaborator failure is contained:
// the tick is abandoned with no state mutated and retried next cycle.
func (b *Bot) tick() {
	defer b.updateStatus()
	b.applyPendingThresholds()

	ctx := context.Background()

	price, err := b.exchange.GetPrice(ctx, b.symbol)
	if err != nil {
		logger.Warnf("[Bot %s] price fetch failed, skipping tick: %v", b.symbol, err)
		return
	}

	// Startup reconciliation may have run without a usable price; the
	// first tick that has one fills in the missing entry estimate
	if b.holding && b.strat.LastBuyPrice() == 0 {
		logger.Warnf("[Bot %s] holding with no entry price, estimating from current $%.2f", b.symbol, price)
		b.strat.RestoreReferences(price, b.strat.LastSellPrice())
		b.persist()
	}

	b.emitPriceUpdate(price)
	b.observeVolatility(price)

	if b.strat.CheckStopLoss(price, b.holding) {
		// Emergency exit, no advisory gate
		b.executeSell(ctx, price, "stop_loss")
		return
	}

	signal := b.strat.Decide(price, b.holding)
	if signal == strategy.SignalHold {
		return
	}

	if b.confirmationRequired {
		if b.advisor == nil {
			logger.Warnf("[Bot %s] confirmation required but no advisor wired, skipping %s", b.symbol, signal)
			return
		}
		verdict := b.advisor.ConfirmTrade(signal, price, b.strat.Stats())
		if !verdict.Approved {
			logger.Infof("[Bot %s] %s at $%.2f declined by advisor", b.symbol, signal, price)
			return
		}
	}

	switch signal {
	case strategy.SignalBuy:
		b.executeBuy(ctx, price)
	case strategy.SignalSell:
		b.executeSell(ctx, price, "grid")
	}
}

// emitPriceUpdate publishes price_update when the price moved at least
// 0.1% from the previously emitted one.
func (b *Bot) emitPriceUpdate(price float64) {
	if b.lastEmittedPrice > 0 {
		movePct := (price - b.lastEmittedPrice) / b.lastEmittedPrice * 100
		if movePct < 0 {
			movePct = -movePct
		}
		if movePct < priceEventMinMovePct {
			return
		}
	}
	b.lastEmittedPrice = price
	b.emit(EventPriceUpdate, PriceData{Price: price})
}

// observeVolatility feeds the monitor and, on an alert, publishes the
// event and asks the advisor for grid spacing suggestions. Both are
// advisory and never block trading.
func (b *Bot) observeVolatility(price float64) {
	if b.monitor == nil {
		return
	}
	alert := b.monitor.Observe(price, time.Now())
	if alert == nil {
		return
	}

	logger.Warnf("[Bot %s] volatility alert: %s %.2f%% over %s",
		b.symbol, alert.Direction, alert.ChangePct, alert.Window)
	b.emit(EventVolatilityAlert, alert)

	if b.advisor != nil && b.advisor.Enabled() {
		if _, err := b.advisor.AskForSuggestions(b.buyThreshold, b.sellThreshold, b.strat.Stats()); err != nil {
			logger.Warnf("[Bot %s] advisory consultation failed: %v", b.symbol, err)
		}
	}
}

func (b *Bot) executeBuy(ctx context.Context, price float64) {
	amount := b.strat.TradeAmount()
	order, err := b.exchange.MarketBuy(ctx, b.symbol, amount)
	if err != nil {
		logger.Errorf("[Bot %s] buy failed: %v", b.symbol, err)
		return
	}

	fill := order.Price
	if fill <= 0 {
		fill = price
	}

	b.strat.RecordBuy(fill)
	b.holding = true
	b.persist()
	b.recordTrade("BUY", fill, order.Quantity, nil, "grid")

	b.emit(EventTradeExecuted, TradeData{
		Action:   "BUY",
		Price:    fill,
		Amount:   order.Quantity,
		Position: b.position(),
		Reason:   "grid",
	})
}

func (b *Bot) executeSell(ctx context.Context, price float64, reason string) {
	amount := b.strat.TradeAmount()
	order, err := b.exchange.MarketSell(ctx, b.symbol, amount)
	if err != nil {
		logger.Errorf("[Bot %s] sell failed: %v", b.symbol, err)
		return
	}

	fill := order.Price
	if fill <= 0 {
		fill = price
	}

	pnlPct, attributed := b.strat.RecordSell(fill)
	b.holding = false
	b.persist()

	var profit *float64
	if attributed {
		profit = &pnlPct
	}
	b.recordTrade("SELL", fill, order.Quantity, profit, reason)

	// Resize after a completed round trip, capped by available quote
	quoteBalance, err := b.exchange.GetBalance(ctx, b.states.QuoteAsset())
	if err != nil {
		logger.Warnf("[Bot %s] balance fetch for sizing failed: %v", b.symbol, err)
	} else {
		b.strat.AdjustPositionSize(quoteBalance)
	}

	b.emit(EventTradeExecuted, TradeData{
		Action:    "SELL",
		Price:     fill,
		Amount:    order.Quantity,
		Position:  b.position(),
		ProfitPct: profit,
		Reason:    reason,
	})
}

// persist writes the current snapshot synchronously. Executed trades
// are never left unrecorded on disk while the process is healthy.
func (b *Bot) persist() {
	st := store.State{Position: b.position()}
	if v := b.strat.LastBuyPrice(); v > 0 {
		st.LastBuyPrice = store.FloatPtr(v)
	}
	if v := b.strat.LastSellPrice(); v > 0 {
		st.LastSellPrice = store.FloatPtr(v)
	}
	if err := b.states.Save(st); err != nil {
		logger.Errorf("[Bot %s] persist state: %v", b.symbol, err)
	}
}

func (b *Bot) recordTrade(side string, price, amount float64, pnlPct *float64, reason string) {
	if b.trades == nil {
		return
	}
	err := b.trades.Record(store.Trade{
		Symbol:     b.symbol,
		Side:       side,
		Price:      price,
		Amount:     amount,
		PnLPct:     pnlPct,
		Reason:     reason,
		ExecutedAt: time.Now(),
	})
	if err != nil {
		logger.Errorf("[Bot %s] record trade: %v", b.symbol, err)
	}
}

// position returns the asset code currently held.
func (b *Bot) position() string {
	if b.holding {
		return b.states.BaseAsset()
	}
	return b.states.QuoteAsset()
}

// shutdown persists state and requests the closing advisory summary.
func (b *Bot) shutdown() {
	b.persist()
	b.updateStatus()

	if b.advisor != nil && b.advisor.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		quote, _ := b.exchange.GetBalance(ctx, b.states.QuoteAsset())
		base, _ := b.exchange.GetBalance(ctx, b.states.BaseAsset())
		cancel()

		if _, err := b.advisor.SendDailySummary(b.strat.Stats(), quote, base); err != nil {
			logger.Warnf("[Bot %s] closing summary failed: %v", b.symbol, err)
		}
	}

	b.emit(EventStatusChange, StatusData{Status: "stopped", Position: b.position()})
}
