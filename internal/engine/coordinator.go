package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ducminhle1904/batch-trade-bot/internal/broker"
	"github.com/ducminhle1904/batch-trade-bot/internal/safety"
)

// Ledger tracks today's trading activity. Implementations persist trade
// and risk-event records; the coordinator only reads state and appends.
type Ledger interface {
	State(ctx context.Context) (RiskState, error)
	RecordTrade(ctx context.Context, rec TradeRecord) error
	RecordRiskEvent(ctx context.Context, kind, details string) error
}

// TradeRecord describes one submitted order for the ledger
type TradeRecord struct {
	OrderID    string
	Symbol     string
	Side       broker.Side
	Volume     float64
	Price      float64
	StopLoss   float64
	TakeProfit float64
	Comment    string
	PlacedAt   time.Time
}

// Logger is the subset of the file logger the engine writes to
type Logger interface {
	Info(format string, args ...interface{})
	Warning(format string, args ...interface{})
	Error(format string, args ...interface{})
	Trade(format string, args ...interface{})
}

// Coordinator orchestrates gate, snapshot, stop resolution, sizing and
// submission for one batch. It holds no per-batch state; every command
// carries its own config and spec snapshot. Callers that allow
// concurrent triggers must serialize calls per symbol themselves,
// otherwise two batches would size breakeven volume against the same
// existing-position snapshot.
type Coordinator struct {
	broker    broker.Client
	ledger    Ledger
	validator *safety.Validator
	log       Logger
}

// NewCoordinator creates a batch execution coordinator
func NewCoordinator(b broker.Client, l Ledger, log Logger) *Coordinator {
	return &Coordinator{
		broker:    b,
		ledger:    l,
		validator: safety.NewValidator(),
		log:       log,
	}
}

// resolvedOrder pairs a template index with its final volume. Volumes
// are resolved into a fresh slice; the input spec is never mutated.
type resolvedOrder struct {
	index  int
	tpl    OrderTemplate
	volume float64
}

// ExecuteBatch runs the full batch pipeline. Risk gate and stop
// resolution failures are batch-fatal and return an error alongside an
// empty result; sizing and broker failures are per-template and are
// accumulated into the result instead.
func (c *Coordinator) ExecuteBatch(ctx context.Context, cmd PlaceBatchCommand) (*BatchResult, error) {
	result := &BatchResult{EnabledCount: cmd.Spec.EnabledCount()}

	if err := cmd.Spec.Validate(); err != nil {
		return result, err
	}
	if result.EnabledCount == 0 {
		c.logf("batch %s %s: no enabled templates, nothing to do", cmd.Symbol, cmd.Side)
		return result, nil
	}

	if err := c.checkGate(ctx, cmd.Config.Limits); err != nil {
		return result, err
	}

	snap, err := c.captureSnapshot(ctx, cmd.Symbol)
	if err != nil {
		return result, err
	}

	firstTpl, _, _ := cmd.Spec.FirstEnabled()
	slPrice, err := ResolveStopLoss(ctx, snap, StopLossParams{
		Mode:           cmd.Config.StopLossMode,
		Side:           cmd.Side,
		StopLossPoints: firstTpl.StopLossPoints,
		CandleLookback: firstTpl.CandleLookback,
		OffsetPoints:   cmd.Config.SLOffsetPoints,
		Timeframe:      cmd.Config.Timeframe,
		SpreadAdjust:   cmd.Config.SpreadAdjust,
	}, c.broker)
	if err != nil {
		return result, err
	}
	c.logf("batch %s %s: stop resolved at %.5f (%s)", cmd.Symbol, cmd.Side, slPrice, cmd.Config.StopLossMode)

	entry := snap.EntryPrice(cmd.Side)
	resolved, err := c.resolveVolumes(ctx, cmd, snap, entry, slPrice, result)
	if err != nil {
		return result, err
	}

	for _, ro := range resolved {
		order := broker.OrderRequest{
			Symbol:           cmd.Symbol,
			Side:             cmd.Side,
			Volume:           ro.volume,
			StopLoss:         slPrice,
			TakeProfitPoints: ro.tpl.TakeProfitPoints,
			Comment:          fmt.Sprintf("batch order %d", ro.index+1),
		}
		c.submit(ctx, order, ro.index, result)
	}

	c.logf("batch %s %s: %d/%d submitted, %d skipped, %d failed",
		cmd.Symbol, cmd.Side, result.SubmittedCount(), result.EnabledCount,
		len(result.Skipped), len(result.Failed))
	return result, nil
}

// resolveVolumes turns the enabled templates into final order volumes.
// When same-symbol same-side positions exist the breakeven volume
// overrides every template; a breakeven failure aborts the batch since
// the shared volume is invalid for all of them. Otherwise manual or
// fixed-risk sizing runs per template and a failure only skips that one.
func (c *Coordinator) resolveVolumes(ctx context.Context, cmd PlaceBatchCommand, snap MarketSnapshot, entry, slPrice float64, result *BatchResult) ([]resolvedOrder, error) {
	existing, err := c.broker.GetPositions(ctx, cmd.Symbol, cmd.Side)
	if err != nil {
		return nil, fmt.Errorf("%w: query positions: %v", ErrMarketDataUnavailable, err)
	}

	var breakeven float64
	useBreakeven := len(existing) > 0
	if useBreakeven {
		breakeven, err = BreakevenVolume(existing, slPrice, entry, result.EnabledCount, snap)
		if err != nil {
			return nil, err
		}
		c.logf("batch %s %s: %d existing positions, breakeven volume %.4f for all templates",
			cmd.Symbol, cmd.Side, len(existing), breakeven)
	}

	resolved := make([]resolvedOrder, 0, result.EnabledCount)
	for i, tpl := range cmd.Spec.Templates {
		if !tpl.Enabled {
			continue
		}

		var volume float64
		var sizeErr error
		switch {
		case useBreakeven:
			volume = breakeven
		case cmd.Config.SizingMode == SizingFixedRisk:
			volume, sizeErr = FixedRiskVolume(tpl, entry, slPrice, snap)
		default:
			volume, sizeErr = ManualVolume(tpl, snap)
		}
		if sizeErr != nil {
			c.warnf("batch %s: template %d skipped: %v", cmd.Symbol, i+1, sizeErr)
			result.Skipped = append(result.Skipped, SkippedOrder{Index: i, Reason: sizeErr.Error()})
			continue
		}
		resolved = append(resolved, resolvedOrder{index: i, tpl: tpl, volume: volume})
	}
	return resolved, nil
}

// submit validates and places one order, recording the outcome. Broker
// rejections do not stop the remaining templates.
func (c *Coordinator) submit(ctx context.Context, order broker.OrderRequest, index int, result *BatchResult) {
	if v := c.validator.ValidateVolume(order.Volume, order.Symbol); !v.Valid {
		result.Skipped = append(result.Skipped, SkippedOrder{Index: index, Reason: v.Message})
		return
	}
	if v := c.validator.ValidatePrice(order.StopLoss, order.Symbol); order.StopLoss > 0 && !v.Valid {
		result.Skipped = append(result.Skipped, SkippedOrder{Index: index, Reason: v.Message})
		return
	}

	placed, err := c.broker.PlaceOrder(ctx, order)
	if err != nil {
		c.warnf("order %d on %s rejected: %v", index+1, order.Symbol, err)
		result.Failed = append(result.Failed, FailedOrder{Index: index, BrokerError: err.Error()})
		return
	}

	result.SubmittedOrderIDs = append(result.SubmittedOrderIDs, placed.OrderID)
	c.tradef("placed %s %s volume %.4f sl %.5f tp %.5f (%s)",
		placed.Symbol, order.Side, placed.Volume, placed.StopLoss, placed.TakeProfit, placed.OrderID)

	if c.ledger != nil {
		rec := TradeRecord{
			OrderID:    placed.OrderID,
			Symbol:     placed.Symbol,
			Side:       order.Side,
			Volume:     placed.Volume,
			Price:      placed.Price,
			StopLoss:   placed.StopLoss,
			TakeProfit: placed.TakeProfit,
			Comment:    order.Comment,
			PlacedAt:   time.Now(),
		}
		if err := c.ledger.RecordTrade(ctx, rec); err != nil {
			c.errorf("record trade %s: %v", placed.OrderID, err)
		}
	}
}

// checkGate reads the ledger state and applies the daily limits. A loss
// limit violation is recorded as a risk event before it is returned.
func (c *Coordinator) checkGate(ctx context.Context, limits RiskLimits) error {
	if c.ledger == nil {
		return nil
	}
	state, err := c.ledger.State(ctx)
	if err != nil {
		return fmt.Errorf("%w: ledger state: %v", ErrMarketDataUnavailable, err)
	}
	if err := CheckRiskLimits(state, limits); err != nil {
		c.warnf("risk gate rejected batch: %v", err)
		if recErr := c.ledger.RecordRiskEvent(ctx, riskEventKind(err), err.Error()); recErr != nil {
			c.errorf("record risk event: %v", recErr)
		}
		return err
	}
	return nil
}

func riskEventKind(err error) string {
	switch {
	case errors.Is(err, ErrDailyTradeLimit):
		return "DAILY_TRADE_LIMIT"
	case errors.Is(err, ErrDailyLossLimit):
		return "DAILY_LOSS_LIMIT"
	default:
		return "RISK_REJECTION"
	}
}

// captureSnapshot fetches the tick and symbol metadata exactly once.
// The snapshot stays immutable for the lifetime of the batch.
func (c *Coordinator) captureSnapshot(ctx context.Context, symbol string) (MarketSnapshot, error) {
	tick, err := c.broker.GetTick(ctx, symbol)
	if err != nil {
		return MarketSnapshot{}, fmt.Errorf("%w: tick for %s: %v", ErrMarketDataUnavailable, symbol, err)
	}
	info, err := c.broker.GetSymbolInfo(ctx, symbol)
	if err != nil {
		return MarketSnapshot{}, fmt.Errorf("%w: symbol info for %s: %v", ErrMarketDataUnavailable, symbol, err)
	}
	if tick.Bid <= 0 || tick.Ask <= 0 {
		return MarketSnapshot{}, fmt.Errorf("%w: invalid quote bid %.5f ask %.5f", ErrMarketDataUnavailable, tick.Bid, tick.Ask)
	}
	return MarketSnapshot{
		Symbol:       symbol,
		Bid:          tick.Bid,
		Ask:          tick.Ask,
		Point:        info.Point,
		ContractSize: info.ContractSize,
		MinVolume:    info.MinVolume,
		MaxVolume:    info.MaxVolume,
		VolumeStep:   info.VolumeStep,
	}, nil
}

func (c *Coordinator) logf(format string, args ...interface{}) {
	if c.log != nil {
		c.log.Info(format, args...)
	}
}

func (c *Coordinator) warnf(format string, args ...interface{}) {
	if c.log != nil {
		c.log.Warning(format, args...)
	}
}

func (c *Coordinator) errorf(format string, args ...interface{}) {
	if c.log != nil {
		c.log.Error(format, args...)
	}
}

func (c *Coordinator) tradef(format string, args ...interface{}) {
	if c.log != nil {
		c.log.Trade(format, args...)
	}
}
