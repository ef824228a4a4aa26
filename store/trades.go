package store

import (
	"database/sql"
	"fmt"
	"time"

	"oscbot/logger"

	_ "modernc.org/sqlite"
)

// Trade is one executed order row.
type Trade struct {
	ID         int64     `json:"id"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"` // BUY or SELL
	Price      float64   `json:"price"`
	Amount     float64   `json:"amount"`
	PnLPct     *float64  `json:"pnl_pct,omitempty"` // set on attributed sells only
	Reason     string    `json:"reason"`            // grid, stop_loss, trailing_stop
	ExecutedAt time.Time `json:"executed_at"`
}

// Summary aggregates trade history for one symbol, or all symbols when
// queried with an empty symbol.
type Summary struct {
	TotalTrades   int     `json:"total_trades"`
	Buys          int     `json:"buys"`
	Sells         int     `json:"sells"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	WinRate       float64 `json:"win_rate"`
	AvgPnLPct     float64 `json:"avg_pnl_pct"`
	TotalPnLPct   float64 `json:"total_pnl_pct"`
	LastTradeTime string  `json:"last_trade_time,omitempty"`
}

// TradeStore persists executed trades to sqlite. Safe for concurrent
// use; database/sql serializes access to the single connection pool.
type TradeStore struct {
	db *sql.DB
}

// NewTradeStore opens (creating if needed) the trade database.
func NewTradeStore(path string) (*TradeStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trade database: %w", err)
	}

	s := &TradeStore{db: db}
	if err := s.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize trade tables: %w", err)
	}

	logger.Infof("[Store] trade database ready at %s", path)
	return s, nil
}

func (s *TradeStore) initTables() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol      TEXT NOT NULL,
			side        TEXT NOT NULL,
			price       REAL NOT NULL,
			amount      REAL NOT NULL,
			pnl_pct     REAL,
			reason      TEXT NOT NULL DEFAULT 'grid',
			executed_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
		CREATE INDEX IF NOT EXISTS idx_trades_executed_at ON trades(executed_at);
	`)
	return err
}

// Close releases the database handle.
func (s *TradeStore) Close() error {
	return s.db.Close()
}

// Record inserts one executed trade.
func (s *TradeStore) Record(t Trade) error {
	_, err := s.db.Exec(
		`INSERT INTO trades (symbol, side, price, amount, pnl_pct, reason, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Symbol, t.Side, t.Price, t.Amount, t.PnLPct, t.Reason,
		t.ExecutedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record trade: %w", err)
	}
	return nil
}

// Recent returns up to limit most recent trades, newest first. An empty
// symbol matches all symbols.
func (s *TradeStore) Recent(symbol string, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, symbol, side, price, amount, pnl_pct, reason, executed_at
	          FROM trades`
	args := []any{}
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY executed_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		var t Trade
		var executedAt string
		if err := rows.Scan(&t.ID, &t.Symbol, &t.Side, &t.Price, &t.Amount,
			&t.PnLPct, &t.Reason, &executedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		t.ExecutedAt, _ = time.Parse(time.RFC3339Nano, executedAt)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Summarize aggregates the stored history. Win rate and PnL figures
// consider attributed sells only.
func (s *TradeStore) Summarize(symbol string) (Summary, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN side = 'BUY' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN side = 'SELL' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN pnl_pct > 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN pnl_pct <= 0 AND pnl_pct IS NOT NULL THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(pnl_pct), 0),
			COALESCE(SUM(pnl_pct), 0),
			COALESCE(MAX(executed_at), '')
		FROM trades`
	args := []any{}
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}

	var sum Summary
	err := s.db.QueryRow(query, args...).Scan(
		&sum.TotalTrades, &sum.Buys, &sum.Sells,
		&sum.Wins, &sum.Losses,
		&sum.AvgPnLPct, &sum.TotalPnLPct, &sum.LastTradeTime,
	)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to summarize trades: %w", err)
	}

	if attributed := sum.Wins + sum.Losses; attributed > 0 {
		sum.WinRate = float64(sum.Wins) / float64(attributed) * 100
	}
	return sum, nil
}
