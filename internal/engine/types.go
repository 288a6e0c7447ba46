package engine

import (
	"fmt"

	"github.com/ducminhle1904/batch-trade-bot/internal/broker"
)

// MaxTemplates is the maximum number of order templates in one batch.
const MaxTemplates = 10

// SizingMode selects how a template's volume is interpreted at execution time
type SizingMode int

const (
	SizingManual SizingMode = iota
	SizingFixedRisk
)

// String returns the config-file name of the sizing mode
func (m SizingMode) String() string {
	switch m {
	case SizingManual:
		return "manual"
	case SizingFixedRisk:
		return "fixed_risk"
	default:
		return fmt.Sprintf("sizing(%d)", int(m))
	}
}

// ParseSizingMode converts a config-file name into a SizingMode
func ParseSizingMode(name string) (SizingMode, error) {
	switch name {
	case "manual":
		return SizingManual, nil
	case "fixed_risk":
		return SizingFixedRisk, nil
	default:
		return 0, fmt.Errorf("unknown sizing mode %q", name)
	}
}

// StopLossMode selects how the shared stop price is derived
type StopLossMode int

const (
	StopFixedPoints StopLossMode = iota
	StopCandleKeyLevel
)

// String returns the config-file name of the stop-loss mode
func (m StopLossMode) String() string {
	switch m {
	case StopFixedPoints:
		return "fixed_points"
	case StopCandleKeyLevel:
		return "candle_key_level"
	default:
		return fmt.Sprintf("slmode(%d)", int(m))
	}
}

// ParseStopLossMode converts a config-file name into a StopLossMode
func ParseStopLossMode(name string) (StopLossMode, error) {
	switch name {
	case "fixed_points":
		return StopFixedPoints, nil
	case "candle_key_level":
		return StopCandleKeyLevel, nil
	default:
		return 0, fmt.Errorf("unknown stop loss mode %q", name)
	}
}

// SpreadAdjust selects the spread-compensation policy applied when the
// stop price is resolved. The legacy behavior widens sell-side stops by
// the current bid/ask spread; the policy is explicit here so it applies
// uniformly to every call site.
type SpreadAdjust int

const (
	SpreadAdjustNone SpreadAdjust = iota
	SpreadAdjustSell
)

// String returns the config-file name of the spread policy
func (a SpreadAdjust) String() string {
	switch a {
	case SpreadAdjustNone:
		return "none"
	case SpreadAdjustSell:
		return "sell"
	default:
		return fmt.Sprintf("spread(%d)", int(a))
	}
}

// ParseSpreadAdjust converts a config-file name into a SpreadAdjust policy
func ParseSpreadAdjust(name string) (SpreadAdjust, error) {
	switch name {
	case "none":
		return SpreadAdjustNone, nil
	case "sell":
		return SpreadAdjustSell, nil
	default:
		return 0, fmt.Errorf("unknown spread adjust policy %q", name)
	}
}

// OrderTemplate is one configured sub-order of a batch
type OrderTemplate struct {
	Volume           float64 `json:"volume"`
	StopLossPoints   int     `json:"sl_points"`
	TakeProfitPoints int     `json:"tp_points"`
	CandleLookback   int     `json:"sl_candle"`
	FixedRiskAmount  float64 `json:"fixed_risk"`
	Enabled          bool    `json:"enabled"`
}

// BatchSpec is an ordered list of order templates. Insertion order is
// significant for order comments only.
type BatchSpec struct {
	Templates []OrderTemplate
}

// EnabledCount returns the number of enabled templates
func (s BatchSpec) EnabledCount() int {
	n := 0
	for _, t := range s.Templates {
		if t.Enabled {
			n++
		}
	}
	return n
}

// FirstEnabled returns the first enabled template and its index
func (s BatchSpec) FirstEnabled() (OrderTemplate, int, bool) {
	for i, t := range s.Templates {
		if t.Enabled {
			return t, i, true
		}
	}
	return OrderTemplate{}, 0, false
}

// Validate checks the spec against the template limit
func (s BatchSpec) Validate() error {
	if len(s.Templates) > MaxTemplates {
		return fmt.Errorf("batch spec has %d templates, maximum is %d", len(s.Templates), MaxTemplates)
	}
	return nil
}

// MarketSnapshot captures the tick and symbol metadata for one batch.
// It is taken once per batch and reused for every sub-order so all of
// them price against the same market state.
type MarketSnapshot struct {
	Symbol       string
	Bid          float64
	Ask          float64
	Point        float64
	ContractSize float64
	MinVolume    float64
	MaxVolume    float64
	VolumeStep   float64
}

// Spread returns the captured bid/ask gap
func (s MarketSnapshot) Spread() float64 {
	return s.Ask - s.Bid
}

// EntryPrice returns the market entry price for the given side
func (s MarketSnapshot) EntryPrice(side broker.Side) float64 {
	if side == broker.SideBuy {
		return s.Ask
	}
	return s.Bid
}

// RiskState summarizes today's trading activity for the risk gate
type RiskState struct {
	TodayTradeCount    int
	TodayRealizedPnL   float64
	TodayUnrealizedPnL float64
}

// TotalPnL returns realized plus unrealized P&L
func (s RiskState) TotalPnL() float64 {
	return s.TodayRealizedPnL + s.TodayUnrealizedPnL
}

// RiskLimits holds the configured daily limits. A zero limit disables
// the corresponding check.
type RiskLimits struct {
	DailyLossLimit  float64 `json:"daily_loss_limit"`
	DailyTradeLimit int     `json:"daily_trade_limit"`
}

// Config is the immutable engine configuration snapshot handed in with
// every command. The host owns the load/save lifecycle.
type Config struct {
	SizingMode       SizingMode
	StopLossMode     StopLossMode
	SpreadAdjust     SpreadAdjust
	Timeframe        string
	Limits           RiskLimits
	SLOffsetPoints   int
	HighOffsetPoints int
	LowOffsetPoints  int
}

// SkippedOrder records a template that was not submitted
type SkippedOrder struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// FailedOrder records a template the broker rejected
type FailedOrder struct {
	Index       int    `json:"index"`
	BrokerError string `json:"broker_error"`
}

// BatchResult aggregates the outcome of one batch execution
type BatchResult struct {
	SubmittedOrderIDs []string       `json:"submitted_order_ids"`
	Skipped           []SkippedOrder `json:"skipped,omitempty"`
	Failed            []FailedOrder  `json:"failed,omitempty"`
	EnabledCount      int            `json:"enabled_count"`
}

// SubmittedCount returns the number of successfully placed orders
func (r BatchResult) SubmittedCount() int {
	return len(r.SubmittedOrderIDs)
}

// PlaceBatchCommand asks the coordinator to execute one batch of market
// orders. The spec and config are value snapshots; the coordinator never
// mutates them.
type PlaceBatchCommand struct {
	Symbol string
	Side   broker.Side
	Spec   BatchSpec
	Config Config
}

// PlaceBreakoutCommand asks the coordinator to place the batch as
// stop-entry orders beyond the previous candle's extreme.
type PlaceBreakoutCommand struct {
	Symbol string
	Side   broker.Side // SideBuy breaks the previous high, SideSell the previous low
	Spec   BatchSpec
	Config Config
}
