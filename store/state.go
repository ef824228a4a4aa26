// Package store persists bot state: a small JSON position snapshot per
// symbol, and a sqlite database of executed trades.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"oscbot/logger"
)

// State is the persisted position snapshot for one symbol. Position
// holds the asset code currently held: the quote asset when in cash,
// the base asset while a lot is open. Nil prices mean unset.
type State struct {
	Position      string   `json:"position"`
	LastBuyPrice  *float64 `json:"last_buy_price"`
	LastSellPrice *float64 `json:"last_sell_price"`
}

// StateStore reads and writes the JSON snapshot for one symbol. Writes
// replace the whole file; the snapshot is small enough that partial
// updates are not worth the complexity.
type StateStore struct {
	path       string
	baseAsset  string
	quoteAsset string
}

// NewStateStore creates a store for a symbol like "BTC/USDT". The file
// is named bot_state_<BASE>.json under dir.
func NewStateStore(dir, symbol string) (*StateStore, error) {
	base, quote, err := SplitSymbol(symbol)
	if err != nil {
		return nil, err
	}
	return &StateStore{
		path:       filepath.Join(dir, fmt.Sprintf("bot_state_%s.json", base)),
		baseAsset:  base,
		quoteAsset: quote,
	}, nil
}

// SplitSymbol parses "BASE/QUOTE" into its asset codes.
func SplitSymbol(symbol string) (base, quote string, err error) {
	parts := strings.Split(symbol, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid symbol %q, want BASE/QUOTE", symbol)
	}
	return strings.ToUpper(parts[0]), strings.ToUpper(parts[1]), nil
}

// Path returns the snapshot file path.
func (s *StateStore) Path() string {
	return s.path
}

// BaseAsset returns the base asset code.
func (s *StateStore) BaseAsset() string {
	return s.baseAsset
}

// QuoteAsset returns the quote asset code.
func (s *StateStore) QuoteAsset() string {
	return s.quoteAsset
}

// Load reads the snapshot. A missing file is a normal first run and
// yields the default quote-held state; an unreadable file is logged
// and also falls back to the default rather than blocking startup.
func (s *StateStore) Load() State {
	def := State{Position: s.quoteAsset}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("[State] read %s failed, starting fresh: %v", s.path, err)
		}
		return def
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		logger.Warnf("[State] corrupt state file %s, starting fresh: %v", s.path, err)
		return def
	}
	if st.Position == "" {
		st.Position = s.quoteAsset
	}
	return st
}

// Save overwrites the snapshot file.
func (s *StateStore) Save(st State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// Holding reports whether st represents an open base-asset lot.
func (s *StateStore) Holding(st State) bool {
	return strings.EqualFold(st.Position, s.baseAsset)
}

// FloatPtr is a convenience for building State values.
func FloatPtr(v float64) *float64 {
	return &v
}
