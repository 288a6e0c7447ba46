package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/batch-trade-bot/internal/broker"
)

// TestCloseAllPositions checks every open position is market-closed
func TestCloseAllPositions(t *testing.T) {
	b := newMockBroker()
	b.positions = []broker.Position{
		{ID: "p1", Symbol: "EURUSD", Side: broker.SideBuy, Volume: 0.10},
		{ID: "p2", Symbol: "EURUSD", Side: broker.SideSell, Volume: 0.05},
	}
	c := NewCoordinator(b, &mockLedger{}, nil)

	result, err := c.CloseAllPositions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Affected)
	assert.Empty(t, result.Errors)
	assert.Len(t, b.closed, 2)
}

// TestBreakevenAllPositions checks the stop moves to entry plus offset
// and that an already better stop is left alone
func TestBreakevenAllPositions(t *testing.T) {
	b := newMockBroker()
	b.positions = []broker.Position{
		// Buy with no stop yet: gets entry - offset
		{ID: "p1", Symbol: "EURUSD", Side: broker.SideBuy, Volume: 0.10, EntryPrice: 1.1000},
		// Buy already protected above the breakeven level: untouched
		{ID: "p2", Symbol: "EURUSD", Side: broker.SideBuy, Volume: 0.10, EntryPrice: 1.1000, StopLoss: 1.0995},
		// Sell with a worse stop: tightened to entry + offset
		{ID: "p3", Symbol: "EURUSD", Side: broker.SideSell, Volume: 0.10, EntryPrice: 1.1000, StopLoss: 1.1050},
	}
	c := NewCoordinator(b, &mockLedger{}, nil)

	result, err := c.BreakevenAllPositions(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Affected)

	assert.InDelta(t, 1.0990, b.modifiedStops["p1"], 1e-9)
	assert.NotContains(t, b.modifiedStops, "p2")
	assert.InDelta(t, 1.1010, b.modifiedStops["p3"], 1e-9)
}

// TestMoveStopToPreviousCandle checks buys trail to the previous low and
// sells to the previous high, honoring the count limit
func TestMoveStopToPreviousCandle(t *testing.T) {
	b := newMockBroker()
	b.candles = []broker.Candle{
		{High: 1.1010, Low: 1.0990}, // forming
		{High: 1.1020, Low: 1.0970}, // previous closed
		{High: 1.1005, Low: 1.0960},
	}
	b.positions = []broker.Position{
		{ID: "p1", Symbol: "EURUSD", Side: broker.SideBuy, Volume: 0.10},
		{ID: "p2", Symbol: "EURUSD", Side: broker.SideSell, Volume: 0.10},
		{ID: "p3", Symbol: "EURUSD", Side: broker.SideBuy, Volume: 0.10},
	}
	c := NewCoordinator(b, &mockLedger{}, nil)

	result, err := c.MoveStopToPreviousCandle(context.Background(), 2, "15m")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Affected)

	assert.InDelta(t, 1.0970, b.modifiedStops["p1"], 1e-9)
	assert.InDelta(t, 1.1020, b.modifiedStops["p2"], 1e-9)
	assert.NotContains(t, b.modifiedStops, "p3", "count limits how many positions are trailed")
}

// TestCancelAllPendingOrders checks the pass-through to the broker
func TestCancelAllPendingOrders(t *testing.T) {
	b := newMockBroker()
	c := NewCoordinator(b, &mockLedger{}, nil)

	err := c.CancelAllPendingOrders(context.Background(), "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, []string{"EURUSD"}, b.cancelled)
}
