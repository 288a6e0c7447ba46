package broker

import (
	"fmt"
	"time"
)

// Side represents the direction of an order or position
type Side int

const (
	SideBuy Side = iota
	SideSell
)

// String returns the canonical lowercase name of the side
func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

// Opposite returns the opposing side
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// ParseSide converts a side name into a Side value
func ParseSide(name string) (Side, error) {
	switch name {
	case "buy", "Buy", "BUY":
		return SideBuy, nil
	case "sell", "Sell", "SELL":
		return SideSell, nil
	default:
		return 0, fmt.Errorf("unknown order side %q", name)
	}
}

// Tick represents the current best bid/ask quote for a symbol
type Tick struct {
	Symbol string
	Bid    float64
	Ask    float64
	Time   time.Time
}

// Spread returns the current bid/ask gap
func (t Tick) Spread() float64 {
	return t.Ask - t.Bid
}

// SymbolInfo describes a symbol's precision and volume constraints
type SymbolInfo struct {
	Symbol       string
	Point        float64 // smallest price increment
	ContractSize float64 // units of the underlying per 1.0 volume
	MinVolume    float64
	MaxVolume    float64
	VolumeStep   float64
}

// Candle represents a single price bar
type Candle struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
	Time  time.Time
}

// Position represents an open position at the broker
type Position struct {
	ID         string
	Symbol     string
	Side       Side
	Volume     float64
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
	Profit     float64 // unrealized P&L in account currency
}

// OrderRequest holds the parameters for a market order with protective levels
type OrderRequest struct {
	Symbol           string
	Side             Side
	Volume           float64
	StopLoss         float64 // absolute price, 0 disables
	TakeProfitPoints int     // distance from entry in points, 0 disables
	Comment          string
}

// PendingOrderRequest holds the parameters for a stop-entry order
type PendingOrderRequest struct {
	Symbol           string
	Side             Side
	Volume           float64
	EntryPrice       float64 // trigger price for the stop entry
	StopLoss         float64
	TakeProfitPoints int
	Comment          string
}

// PlacedOrder is the broker's acknowledgement of a submitted order
type PlacedOrder struct {
	OrderID    string
	Symbol     string
	Side       Side
	Volume     float64
	Price      float64
	StopLoss   float64
	TakeProfit float64
}

// AccountSummary holds the account-level balances
type AccountSummary struct {
	Currency string
	Balance  float64
	Equity   float64
}
