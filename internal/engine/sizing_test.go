package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/batch-trade-bot/internal/broker"
)

// TestClampVolume checks min/max bounds and step rounding
func TestClampVolume(t *testing.T) {
	snap := testSnapshot() // min 0.01, max 100, step 0.01

	assert.InDelta(t, 0.01, ClampVolume(0.001, snap), 1e-9, "below minimum clamps up")
	assert.InDelta(t, 100, ClampVolume(250, snap), 1e-9, "above maximum clamps down")
	assert.InDelta(t, 0.02, ClampVolume(0.017, snap), 1e-9, "rounds to nearest step")
	assert.InDelta(t, 0.01, ClampVolume(0.014, snap), 1e-9)
}

// TestManualVolume checks pass-through and the non-positive rejection
func TestManualVolume(t *testing.T) {
	snap := testSnapshot()

	v, err := ManualVolume(OrderTemplate{Volume: 0.05}, snap)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, v, 1e-9)

	_, err = ManualVolume(OrderTemplate{Volume: 0}, snap)
	assert.ErrorIs(t, err, ErrNonPositiveVolume)
}

// TestFixedRiskVolume checks the risk formula: 100 of risk over a 50
// point distance with contract size 100000 is 0.2 lots
func TestFixedRiskVolume(t *testing.T) {
	snap := testSnapshot()

	v, err := FixedRiskVolume(OrderTemplate{FixedRiskAmount: 100}, 1.1000, 1.0950, snap)
	require.NoError(t, err)
	// 100 / (0.0050 * 100000) = 0.2
	assert.InDelta(t, 0.2, v, 1e-9)

	// Widening the stop shrinks the volume proportionally
	wider, err := FixedRiskVolume(OrderTemplate{FixedRiskAmount: 100}, 1.1000, 1.0900, snap)
	require.NoError(t, err)
	assert.Less(t, wider, v)
}

// TestFixedRiskVolume_Errors checks the zero-distance and bad-risk cases
func TestFixedRiskVolume_Errors(t *testing.T) {
	snap := testSnapshot()

	_, err := FixedRiskVolume(OrderTemplate{FixedRiskAmount: 100}, 1.1000, 1.1000, snap)
	assert.ErrorIs(t, err, ErrZeroPriceDistance)

	_, err = FixedRiskVolume(OrderTemplate{FixedRiskAmount: 0}, 1.1000, 1.0950, snap)
	assert.ErrorIs(t, err, ErrNonPositiveRiskAmount)
}

// TestBreakevenVolume reproduces the reference scenario: one sell at
// 1.1000 for 0.10, price at 1.0980, stop at 1.0990, two new orders
func TestBreakevenVolume(t *testing.T) {
	snap := testSnapshot()
	existing := []broker.Position{
		{Symbol: "EURUSD", Side: broker.SideSell, Volume: 0.10, EntryPrice: 1.1000},
	}

	// avg_entry = 1.1000, sl = 1.0990, entry = 1.0980
	// v2 = -((1.0990-1.1000)*0.10)/(2*(1.0990-1.0980)) = 0.05
	v, err := BreakevenVolume(existing, 1.0990, 1.0980, 2, snap)
	require.NoError(t, err)
	assert.InDelta(t, 0.05, v, 1e-9)
}

// TestBreakevenVolume_AveragesEntries checks the volume-weighted average
// entry over multiple existing positions
func TestBreakevenVolume_AveragesEntries(t *testing.T) {
	snap := testSnapshot()
	existing := []broker.Position{
		{Side: broker.SideBuy, Volume: 0.10, EntryPrice: 1.1000},
		{Side: broker.SideBuy, Volume: 0.30, EntryPrice: 1.0800},
	}
	// avg_entry = (0.1*1.1 + 0.3*1.08) / 0.4 = 1.0850
	// sl 1.0900 above avg entry, new entry 1.0950:
	// v2 = -((1.0900-1.0850)*0.4)/(1*(1.0900-1.0950)) = 0.4
	v, err := BreakevenVolume(existing, 1.0900, 1.0950, 1, snap)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, v, 1e-9)
}

// TestBreakevenVolume_Infeasible checks that the zero denominator and
// the negative raw volume are rejected before any clamping
func TestBreakevenVolume_Infeasible(t *testing.T) {
	snap := testSnapshot()
	existing := []broker.Position{
		{Side: broker.SideBuy, Volume: 0.10, EntryPrice: 1.1000},
	}

	// Stop equals the new entry: denominator is zero
	_, err := BreakevenVolume(existing, 1.0950, 1.0950, 2, snap)
	assert.ErrorIs(t, err, ErrBreakevenInfeasible)

	// Stop below the average entry of a buy position with a new entry
	// above the stop yields a negative volume. The raw value must be
	// rejected rather than clamped up to the minimum.
	_, err = BreakevenVolume(existing, 1.0900, 1.0950, 2, snap)
	assert.ErrorIs(t, err, ErrBreakevenInfeasible)

	_, err = BreakevenVolume(nil, 1.0990, 1.0980, 2, snap)
	assert.ErrorIs(t, err, ErrBreakevenInfeasible)
}
