package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/batch-trade-bot/internal/broker"
)

// stubCandles serves a fixed most-recent-first candle series
type stubCandles struct {
	bars []broker.Candle
	err  error
}

func (s *stubCandles) GetCandles(ctx context.Context, symbol, timeframe string, count int) ([]broker.Candle, error) {
	if s.err != nil {
		return nil, s.err
	}
	if count > len(s.bars) {
		return s.bars, nil
	}
	return s.bars[:count], nil
}

func testSnapshot() MarketSnapshot {
	return MarketSnapshot{
		Symbol:       "EURUSD",
		Bid:          1.0998,
		Ask:          1.1000,
		Point:        0.0001,
		ContractSize: 100000,
		MinVolume:    0.01,
		MaxVolume:    100,
		VolumeStep:   0.01,
	}
}

// TestResolveStopLoss_FixedPointsBuy checks the basic buy-side distance:
// entry 1.1000 minus 50 points of 0.0001 gives 1.0950
func TestResolveStopLoss_FixedPointsBuy(t *testing.T) {
	snap := testSnapshot()

	sl, err := ResolveStopLoss(context.Background(), snap, StopLossParams{
		Mode:           StopFixedPoints,
		Side:           broker.SideBuy,
		StopLossPoints: 50,
		SpreadAdjust:   SpreadAdjustSell,
	}, nil)

	require.NoError(t, err)
	assert.InDelta(t, 1.0950, sl, 1e-9)
}

// TestResolveStopLoss_FixedPointsSellAddsSpread checks that sell stops
// are widened by the captured spread under the sell policy
func TestResolveStopLoss_FixedPointsSellAddsSpread(t *testing.T) {
	snap := testSnapshot() // spread = 0.0002

	sl, err := ResolveStopLoss(context.Background(), snap, StopLossParams{
		Mode:           StopFixedPoints,
		Side:           broker.SideSell,
		StopLossPoints: 50,
		SpreadAdjust:   SpreadAdjustSell,
	}, nil)

	require.NoError(t, err)
	// entry (bid) 1.0998 + 0.0050 + spread 0.0002
	assert.InDelta(t, 1.1050, sl, 1e-9)

	// With the policy off the spread term disappears
	sl, err = ResolveStopLoss(context.Background(), snap, StopLossParams{
		Mode:           StopFixedPoints,
		Side:           broker.SideSell,
		StopLossPoints: 50,
		SpreadAdjust:   SpreadAdjustNone,
	}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.1048, sl, 1e-9)
}

// TestResolveStopLoss_CandleKeyLevel checks that the key level excludes
// the two most recent bars and applies the offset on the loss side
func TestResolveStopLoss_CandleKeyLevel(t *testing.T) {
	snap := testSnapshot()
	// Most recent first: bars[0] is forming, bars[1] just closed; the
	// resolver must ignore both. The lowest low among the remaining three
	// is 1.0940, the highest high 1.1080.
	candles := &stubCandles{bars: []broker.Candle{
		{High: 1.2000, Low: 1.0500}, // forming, must be excluded
		{High: 1.1900, Low: 1.0600}, // most recent closed, excluded too
		{High: 1.1070, Low: 1.0960},
		{High: 1.1080, Low: 1.0940},
		{High: 1.1050, Low: 1.0955},
	}}

	sl, err := ResolveStopLoss(context.Background(), snap, StopLossParams{
		Mode:           StopCandleKeyLevel,
		Side:           broker.SideBuy,
		CandleLookback: 3,
		OffsetPoints:   10,
		Timeframe:      "15m",
		SpreadAdjust:   SpreadAdjustSell,
	}, candles)

	require.NoError(t, err)
	assert.InDelta(t, 1.0940-0.0010, sl, 1e-9)

	sl, err = ResolveStopLoss(context.Background(), snap, StopLossParams{
		Mode:           StopCandleKeyLevel,
		Side:           broker.SideSell,
		CandleLookback: 3,
		OffsetPoints:   10,
		Timeframe:      "15m",
		SpreadAdjust:   SpreadAdjustSell,
	}, candles)

	require.NoError(t, err)
	// highest high + offset + spread
	assert.InDelta(t, 1.1080+0.0010+0.0002, sl, 1e-9)
}

// TestResolveStopLoss_InsufficientCandles checks the short-series error
func TestResolveStopLoss_InsufficientCandles(t *testing.T) {
	snap := testSnapshot()
	candles := &stubCandles{bars: []broker.Candle{
		{High: 1.11, Low: 1.09},
		{High: 1.11, Low: 1.09},
		{High: 1.11, Low: 1.09},
	}}

	_, err := ResolveStopLoss(context.Background(), snap, StopLossParams{
		Mode:           StopCandleKeyLevel,
		Side:           broker.SideBuy,
		CandleLookback: 3, // needs 5 bars, only 3 available
		Timeframe:      "15m",
	}, candles)

	assert.ErrorIs(t, err, ErrMarketDataUnavailable)
}

// TestResolveStopLoss_WrongSide checks that a stop on the profit side of
// the entry aborts the batch
func TestResolveStopLoss_WrongSide(t *testing.T) {
	snap := testSnapshot()
	// Key level above the buy entry price
	candles := &stubCandles{bars: []broker.Candle{
		{High: 1.13, Low: 1.12},
		{High: 1.13, Low: 1.12},
		{High: 1.13, Low: 1.12},
		{High: 1.13, Low: 1.12},
		{High: 1.13, Low: 1.12},
	}}

	_, err := ResolveStopLoss(context.Background(), snap, StopLossParams{
		Mode:           StopCandleKeyLevel,
		Side:           broker.SideBuy,
		CandleLookback: 3,
		Timeframe:      "15m",
	}, candles)

	assert.ErrorIs(t, err, ErrInvalidStopSide)

	// Zero stop-loss distance puts a buy stop at the entry itself
	_, err = ResolveStopLoss(context.Background(), snap, StopLossParams{
		Mode:           StopFixedPoints,
		Side:           broker.SideBuy,
		StopLossPoints: 0,
	}, nil)
	assert.ErrorIs(t, err, ErrInvalidStopSide)
}

// TestResolveStopLoss_EntryOverride checks that pending orders resolve
// against their trigger price instead of the current quote
func TestResolveStopLoss_EntryOverride(t *testing.T) {
	snap := testSnapshot()

	sl, err := ResolveStopLoss(context.Background(), snap, StopLossParams{
		Mode:           StopFixedPoints,
		Side:           broker.SideBuy,
		StopLossPoints: 50,
		EntryOverride:  1.1100,
	}, nil)

	require.NoError(t, err)
	assert.InDelta(t, 1.1050, sl, 1e-9)
}

// TestResolveStopLoss_Deterministic checks that identical inputs produce
// an identical price
func TestResolveStopLoss_Deterministic(t *testing.T) {
	snap := testSnapshot()
	p := StopLossParams{
		Mode:           StopFixedPoints,
		Side:           broker.SideSell,
		StopLossPoints: 75,
		SpreadAdjust:   SpreadAdjustSell,
	}

	first, err := ResolveStopLoss(context.Background(), snap, p, nil)
	require.NoError(t, err)
	second, err := ResolveStopLoss(context.Background(), snap, p, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// TestResolveStopLoss_CandleFetchError checks the fetch failure path
func TestResolveStopLoss_CandleFetchError(t *testing.T) {
	snap := testSnapshot()
	candles := &stubCandles{err: errors.New("connection reset")}

	_, err := ResolveStopLoss(context.Background(), snap, StopLossParams{
		Mode:           StopCandleKeyLevel,
		Side:           broker.SideBuy,
		CandleLookback: 3,
		Timeframe:      "15m",
	}, candles)

	assert.ErrorIs(t, err, ErrMarketDataUnavailable)
}
