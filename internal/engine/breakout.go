package engine

import (
	"context"
	"fmt"

	"github.com/ducminhle1904/batch-trade-bot/internal/broker"
)

// ExecuteBreakout places the batch as stop-entry orders beyond the
// previous candle's extreme: a buy batch triggers above the previous
// high, a sell batch below the previous low. Gate, sizing and failure
// semantics match ExecuteBatch; only the entry price and order type
// differ.
func (c *Coordinator) ExecuteBreakout(ctx context.Context, cmd PlaceBreakoutCommand) (*BatchResult, error) {
	result := &BatchResult{EnabledCount: cmd.Spec.EnabledCount()}

	if err := cmd.Spec.Validate(); err != nil {
		return result, err
	}
	if result.EnabledCount == 0 {
		c.logf("breakout %s %s: no enabled templates, nothing to do", cmd.Symbol, cmd.Side)
		return result, nil
	}

	if err := c.checkGate(ctx, cmd.Config.Limits); err != nil {
		return result, err
	}

	snap, err := c.captureSnapshot(ctx, cmd.Symbol)
	if err != nil {
		return result, err
	}

	entry, err := c.breakoutEntry(ctx, cmd, snap)
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
		EntryOverride:  entry,
		SpreadAdjust:   cmd.Config.SpreadAdjust,
	}, c.broker)
	if err != nil {
		return result, err
	}
	c.logf("breakout %s %s: entry %.5f stop %.5f", cmd.Symbol, cmd.Side, entry, slPrice)

	resolved, err := c.resolveVolumes(ctx, PlaceBatchCommand(cmd), snap, entry, slPrice, result)
	if err != nil {
		return result, err
	}

	for _, ro := range resolved {
		req := broker.PendingOrderRequest{
			Symbol:           cmd.Symbol,
			Side:             cmd.Side,
			Volume:           ro.volume,
			EntryPrice:       entry,
			StopLoss:         slPrice,
			TakeProfitPoints: ro.tpl.TakeProfitPoints,
			Comment:          fmt.Sprintf("%s breakout %d", cmd.Config.Timeframe, ro.index+1),
		}
		c.submitPending(ctx, req, ro.index, result)
	}

	c.logf("breakout %s %s: %d/%d submitted, %d skipped, %d failed",
		cmd.Symbol, cmd.Side, result.SubmittedCount(), result.EnabledCount,
		len(result.Skipped), len(result.Failed))
	return result, nil
}

// breakoutEntry derives the stop-entry trigger price from the previous
// (last closed) candle. Buy entries sit above the previous high plus the
// configured offset and the spread, sell entries below the previous low
// minus the offset.
func (c *Coordinator) breakoutEntry(ctx context.Context, cmd PlaceBreakoutCommand, snap MarketSnapshot) (float64, error) {
	bars, err := c.broker.GetCandles(ctx, cmd.Symbol, cmd.Config.Timeframe, 3)
	if err != nil {
		return 0, fmt.Errorf("%w: fetch candles: %v", ErrMarketDataUnavailable, err)
	}
	if len(bars) < 2 {
		return 0, fmt.Errorf("%w: need 2 candles, got %d", ErrMarketDataUnavailable, len(bars))
	}
	prev := bars[1]

	if cmd.Side == broker.SideBuy {
		return prev.High + float64(cmd.Config.HighOffsetPoints)*snap.Point + snap.Spread(), nil
	}
	return prev.Low - float64(cmd.Config.LowOffsetPoints)*snap.Point, nil
}

func (c *Coordinator) submitPending(ctx context.Context, req broker.PendingOrderRequest, index int, result *BatchResult) {
	if v := c.validator.ValidateVolume(req.Volume, req.Symbol); !v.Valid {
		result.Skipped = append(result.Skipped, SkippedOrder{Index: index, Reason: v.Message})
		return
	}
	if v := c.validator.ValidatePrice(req.EntryPrice, req.Symbol); !v.Valid {
		result.Skipped = append(result.Skipped, SkippedOrder{Index: index, Reason: v.Message})
		return
	}

	placed, err := c.broker.PlacePendingOrder(ctx, req)
	if err != nil {
		c.warnf("breakout order %d on %s rejected: %v", index+1, req.Symbol, err)
		result.Failed = append(result.Failed, FailedOrder{Index: index, BrokerError: err.Error()})
		return
	}

	result.SubmittedOrderIDs = append(result.SubmittedOrderIDs, placed.OrderID)
	c.tradef("pending %s %s volume %.4f entry %.5f sl %.5f (%s)",
		placed.Symbol, req.Side, placed.Volume, req.EntryPrice, req.StopLoss, placed.OrderID)
}
