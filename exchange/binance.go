// Package exchange wraps the Binance spot API behind a small interface
// the orchestrator (and its tests) can depend on.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"oscbot/logger"
)

// quantityPrecision is the decimal precision used when formatting order
// quantities. 6 covers the lot step of the supported spot pairs.
const quantityPrecision = 6

// Order is a normalized executed-order record.
type Order struct {
	ID            int64     `json:"id"`
	ClientOrderID string    `json:"client_order_id"`
	Symbol        string    `json:"symbol"`
	Side          string    `json:"side"`
	Price         float64   `json:"price"` // average fill price
	Quantity      float64   `json:"quantity"`
	QuoteQuantity float64   `json:"quote_quantity"`
	Status        string    `json:"status"`
	Time          time.Time `json:"time"`
}

// Exchange is the spot trading surface the bot needs.
type Exchange interface {
	GetPrice(ctx context.Context, symbol string) (float64, error)
	GetBalance(ctx context.Context, asset string) (float64, error)
	MarketBuy(ctx context.Context, symbol string, quantity float64) (*Order, error)
	MarketSell(ctx context.Context, symbol string, quantity float64) (*Order, error)
}

// Binance implements Exchange on the Binance spot API.
type Binance struct {
	client *binance.Client
}

// NewBinance creates a spot client. testnet switches the whole process
// to the Binance spot testnet and must be decided before any client is
// created.
func NewBinance(apiKey, secret string, testnet bool) *Binance {
	binance.UseTestnet = testnet
	if testnet {
		logger.Info("[Exchange] using Binance spot TESTNET")
	}
	return &Binance{client: binance.NewClient(apiKey, secret)}
}

// pairSymbol converts "BTC/USDT" to the exchange form "BTCUSDT".
func pairSymbol(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", ""))
}

// GetPrice returns the latest ticker price for a "BASE/QUOTE" pair.
func (b *Binance) GetPrice(ctx context.Context, symbol string) (float64, error) {
	pair := pairSymbol(symbol)
	prices, err := b.client.NewListPricesService().Symbol(pair).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch price for %s: %w", pair, err)
	}
	// The API returns a slice even for a single symbol
	for _, p := range prices {
		if p.Symbol == pair {
			price, err := strconv.ParseFloat(p.Price, 64)
			if err != nil {
				return 0, fmt.Errorf("parse price %q: %w", p.Price, err)
			}
			return price, nil
		}
	}
	return 0, errors.New("symbol not found in price list")
}

// GetBalance returns the free balance of one asset, 0 when the asset is
// absent from the account.
func (b *Binance) GetBalance(ctx context.Context, asset string) (float64, error) {
	account, err := b.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch account: %w", err)
	}
	asset = strings.ToUpper(asset)
	for _, bal := range account.Balances {
		if bal.Asset == asset {
			free, err := strconv.ParseFloat(bal.Free, 64)
			if err != nil {
				return 0, fmt.Errorf("parse balance %q: %w", bal.Free, err)
			}
			return free, nil
		}
	}
	return 0, nil
}

// MarketBuy submits a market buy for quantity base units.
func (b *Binance) MarketBuy(ctx context.Context, symbol string, quantity float64) (*Order, error) {
	return b.marketOrder(ctx, symbol, binance.SideTypeBuy, quantity)
}

// MarketSell submits a market sell for quantity base units.
func (b *Binance) MarketSell(ctx context.Context, symbol string, quantity float64) (*Order, error) {
	return b.marketOrder(ctx, symbol, binance.SideTypeSell, quantity)
}

func (b *Binance) marketOrder(ctx context.Context, symbol string, side binance.SideType, quantity float64) (*Order, error) {
	pair := pairSymbol(symbol)
	qty := decimal.NewFromFloat(quantity).Round(quantityPrecision)
	if !qty.IsPositive() {
		return nil, fmt.Errorf("invalid order quantity %f", quantity)
	}
	clientID := "osc-" + uuid.NewString()

	resp, err := b.client.NewCreateOrderService().
		Symbol(pair).
		Side(side).
		Type(binance.OrderTypeMarket).
		Quantity(qty.String()).
		NewClientOrderID(clientID).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("submit %s %s order: %w", side, pair, err)
	}

	order := &Order{
		ID:            resp.OrderID,
		ClientOrderID: resp.ClientOrderID,
		Symbol:        symbol,
		Side:          string(side),
		Status:        string(resp.Status),
		Time:          time.UnixMilli(resp.TransactTime),
	}

	if v, err := strconv.ParseFloat(resp.ExecutedQuantity, 64); err == nil {
		order.Quantity = v
	}
	if v, err := strconv.ParseFloat(resp.CummulativeQuoteQuantity, 64); err == nil {
		order.QuoteQuantity = v
	}
	if order.Quantity > 0 {
		order.Price = order.QuoteQuantity / order.Quantity
	}

	logger.Infof("[Exchange] %s %s: qty=%.8f avg=$%.2f status=%s id=%d",
		side, pair, order.Quantity, order.Price, order.Status, order.ID)
	return order, nil
}
