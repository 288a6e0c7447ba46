package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCheckRiskLimits_TradeCountBoundary verifies the trade limit is
// inclusive: reaching the limit already rejects the batch
func TestCheckRiskLimits_TradeCountBoundary(t *testing.T) {
	limits := RiskLimits{DailyTradeLimit: 10}

	err := CheckRiskLimits(RiskState{TodayTradeCount: 9}, limits)
	assert.NoError(t, err, "one trade below the limit should pass")

	err = CheckRiskLimits(RiskState{TodayTradeCount: 10}, limits)
	assert.ErrorIs(t, err, ErrDailyTradeLimit, "count equal to the limit should reject")

	err = CheckRiskLimits(RiskState{TodayTradeCount: 11}, limits)
	assert.ErrorIs(t, err, ErrDailyTradeLimit)
}

// TestCheckRiskLimits_LossBoundary verifies the loss limit is inclusive
// and combines realized with unrealized P&L
func TestCheckRiskLimits_LossBoundary(t *testing.T) {
	limits := RiskLimits{DailyLossLimit: 500}

	err := CheckRiskLimits(RiskState{TodayRealizedPnL: -499.99}, limits)
	assert.NoError(t, err)

	err = CheckRiskLimits(RiskState{TodayRealizedPnL: -500}, limits)
	assert.ErrorIs(t, err, ErrDailyLossLimit, "loss exactly at the limit should reject")

	// Realized -300 plus unrealized -250 crosses the limit together
	err = CheckRiskLimits(RiskState{TodayRealizedPnL: -300, TodayUnrealizedPnL: -250}, limits)
	assert.ErrorIs(t, err, ErrDailyLossLimit)

	// A large unrealized gain offsets the realized loss
	err = CheckRiskLimits(RiskState{TodayRealizedPnL: -600, TodayUnrealizedPnL: 200}, limits)
	assert.NoError(t, err)
}

// TestCheckRiskLimits_ZeroDisables verifies zero limits disable the checks
func TestCheckRiskLimits_ZeroDisables(t *testing.T) {
	state := RiskState{TodayTradeCount: 1000, TodayRealizedPnL: -1e6}

	err := CheckRiskLimits(state, RiskLimits{})
	assert.NoError(t, err, "zero limits must not reject anything")
}

// TestIsRiskRejection verifies the gate errors are classified as risk
// rejections and batch-fatal
func TestIsRiskRejection(t *testing.T) {
	assert.True(t, IsRiskRejection(ErrDailyTradeLimit))
	assert.True(t, IsRiskRejection(ErrDailyLossLimit))
	assert.False(t, IsRiskRejection(ErrZeroPriceDistance))

	assert.True(t, IsBatchFatal(ErrDailyLossLimit))
	assert.True(t, IsBatchFatal(ErrInvalidStopSide))
	assert.True(t, IsBatchFatal(ErrBreakevenInfeasible))
	assert.False(t, IsBatchFatal(ErrNonPositiveVolume))
}
