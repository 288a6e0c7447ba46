package engine

import (
	"context"
	"fmt"

	"github.com/ducminhle1904/batch-trade-bot/internal/broker"
)

// ActionResult reports how many positions or orders an account-wide
// maintenance action touched
type ActionResult struct {
	Affected int      `json:"affected"`
	Errors   []string `json:"errors,omitempty"`
}

// CloseAllPositions market-closes every open position. It is also the
// operation the host runs when the daily loss gate fires.
func (c *Coordinator) CloseAllPositions(ctx context.Context) (*ActionResult, error) {
	positions, err := c.broker.GetAllPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: query positions: %v", ErrMarketDataUnavailable, err)
	}

	result := &ActionResult{}
	for _, pos := range positions {
		if err := c.broker.ClosePosition(ctx, pos); err != nil {
			c.errorf("close position %s: %v", pos.ID, err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", pos.ID, err))
			continue
		}
		result.Affected++
		c.tradef("closed %s %s volume %.4f", pos.Symbol, pos.Side, pos.Volume)
	}
	return result, nil
}

// CancelAllPendingOrders cancels every pending order on the symbol
func (c *Coordinator) CancelAllPendingOrders(ctx context.Context, symbol string) error {
	if err := c.broker.CancelAllPendingOrders(ctx, symbol); err != nil {
		return fmt.Errorf("cancel pending orders on %s: %w", symbol, err)
	}
	c.logf("cancelled all pending orders on %s", symbol)
	return nil
}

// BreakevenAllPositions moves each open position's stop loss to its
// entry price, offset by offsetPoints on the loss side. A position whose
// stop already protects at least that level is left untouched.
func (c *Coordinator) BreakevenAllPositions(ctx context.Context, offsetPoints int) (*ActionResult, error) {
	positions, err := c.broker.GetAllPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: query positions: %v", ErrMarketDataUnavailable, err)
	}

	result := &ActionResult{}
	for _, pos := range positions {
		info, err := c.broker.GetSymbolInfo(ctx, pos.Symbol)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: symbol info: %v", pos.ID, err))
			continue
		}

		offset := float64(offsetPoints) * info.Point
		var sl float64
		if pos.Side == broker.SideBuy {
			sl = pos.EntryPrice - offset
			if pos.StopLoss > 0 && sl <= pos.StopLoss {
				continue
			}
		} else {
			sl = pos.EntryPrice + offset
			if pos.StopLoss > 0 && sl >= pos.StopLoss {
				continue
			}
		}

		if err := c.broker.ModifyPositionStop(ctx, pos, sl); err != nil {
			c.errorf("breakeven position %s: %v", pos.ID, err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", pos.ID, err))
			continue
		}
		result.Affected++
		c.logf("moved %s %s stop to breakeven %.5f", pos.Symbol, pos.Side, sl)
	}
	return result, nil
}

// MoveStopToPreviousCandle trails the stop loss of up to count open
// positions to the previous closed candle's extreme: the previous low
// for buys, the previous high for sells. Each position uses its own
// symbol's candles; failures affect only that position.
func (c *Coordinator) MoveStopToPreviousCandle(ctx context.Context, count int, timeframe string) (*ActionResult, error) {
	positions, err := c.broker.GetAllPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: query positions: %v", ErrMarketDataUnavailable, err)
	}
	if count > 0 && len(positions) > count {
		positions = positions[:count]
	}

	result := &ActionResult{}
	for _, pos := range positions {
		bars, err := c.broker.GetCandles(ctx, pos.Symbol, timeframe, 3)
		if err != nil || len(bars) < 2 {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: candle fetch failed", pos.ID))
			continue
		}

		prev := bars[1]
		var sl float64
		if pos.Side == broker.SideBuy {
			sl = prev.Low
		} else {
			sl = prev.High
		}

		if err := c.broker.ModifyPositionStop(ctx, pos, sl); err != nil {
			c.errorf("move stop on %s: %v", pos.ID, err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", pos.ID, err))
			continue
		}
		result.Affected++
		c.logf("moved %s %s stop to previous candle %.5f", pos.Symbol, pos.Side, sl)
	}
	return result, nil
}
