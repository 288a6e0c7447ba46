package engine

import (
	"context"
	"fmt"

	"github.com/ducminhle1904/batch-trade-bot/internal/broker"
)

// CandleProvider supplies recent price bars ordered most-recent-first
type CandleProvider interface {
	GetCandles(ctx context.Context, symbol, timeframe string, count int) ([]broker.Candle, error)
}

// StopLossParams bundles the inputs the stop-loss resolver needs beyond
// the market snapshot
type StopLossParams struct {
	Mode           StopLossMode
	Side           broker.Side
	StopLossPoints int     // fixed-points mode
	CandleLookback int     // candle-key-level mode
	OffsetPoints   int     // extra distance beyond the key level, in points
	Timeframe      string  // candle-key-level mode
	EntryOverride  float64 // pending-order entry; 0 means current market entry
	SpreadAdjust   SpreadAdjust
}

// ResolveStopLoss derives the single absolute stop price shared by every
// sub-order of a batch. It is a pure function of the snapshot, the
// params and the fetched candles: identical inputs produce an identical
// price.
//
// A resolved stop must lie strictly on the loss side of the entry price
// (below for buys, above for sells); otherwise the whole batch is
// invalid and ErrInvalidStopSide is returned.
func ResolveStopLoss(ctx context.Context, snap MarketSnapshot, p StopLossParams, candles CandleProvider) (float64, error) {
	entry := p.EntryOverride
	if entry == 0 {
		entry = snap.EntryPrice(p.Side)
	}

	var sl float64
	switch p.Mode {
	case StopFixedPoints:
		distance := float64(p.StopLossPoints) * snap.Point
		if p.Side == broker.SideBuy {
			sl = entry - distance
		} else {
			sl = entry + distance + sellSpread(snap, p.SpreadAdjust)
		}

	case StopCandleKeyLevel:
		if candles == nil {
			return 0, fmt.Errorf("%w: no candle provider", ErrMarketDataUnavailable)
		}
		// The two most recent bars are still forming/unconfirmed, so the
		// key level is taken over lookback closed bars beyond them.
		need := p.CandleLookback + 2
		bars, err := candles.GetCandles(ctx, snap.Symbol, p.Timeframe, need)
		if err != nil {
			return 0, fmt.Errorf("%w: fetch candles: %v", ErrMarketDataUnavailable, err)
		}
		if len(bars) < need {
			return 0, fmt.Errorf("%w: need %d candles, got %d", ErrMarketDataUnavailable, need, len(bars))
		}
		closed := bars[2:need]
		offset := float64(p.OffsetPoints) * snap.Point
		if p.Side == broker.SideBuy {
			sl = lowestLow(closed) - offset
		} else {
			sl = highestHigh(closed) + offset + sellSpread(snap, p.SpreadAdjust)
		}

	default:
		return 0, fmt.Errorf("unknown stop loss mode %v", p.Mode)
	}

	if err := validateStopSide(p.Side, entry, sl); err != nil {
		return 0, err
	}
	return sl, nil
}

// sellSpread returns the spread widening applied to sell-side stops
// under the configured policy
func sellSpread(snap MarketSnapshot, adjust SpreadAdjust) float64 {
	if adjust == SpreadAdjustSell {
		return snap.Spread()
	}
	return 0
}

func validateStopSide(side broker.Side, entry, sl float64) error {
	if sl <= 0 {
		return fmt.Errorf("%w: resolved stop %.5f is not positive", ErrInvalidStopSide, sl)
	}
	if side == broker.SideBuy && sl >= entry {
		return fmt.Errorf("%w: buy stop %.5f >= entry %.5f", ErrInvalidStopSide, sl, entry)
	}
	if side == broker.SideSell && sl <= entry {
		return fmt.Errorf("%w: sell stop %.5f <= entry %.5f", ErrInvalidStopSide, sl, entry)
	}
	return nil
}

func lowestLow(bars []broker.Candle) float64 {
	low := bars[0].Low
	for _, b := range bars[1:] {
		if b.Low < low {
			low = b.Low
		}
	}
	return low
}

func highestHigh(bars []broker.Candle) float64 {
	high := bars[0].High
	for _, b := range bars[1:] {
		if b.High > high {
			high = b.High
		}
	}
	return high
}
