package engine

import "fmt"

// CheckRiskLimits evaluates today's risk state against the configured
// daily limits. It is a pure check: on a loss-limit violation the caller
// is responsible for closing open positions and disabling trading for
// the remainder of the trading day.
//
// Both boundaries are inclusive: a trade count equal to the limit and a
// total loss exactly at the limit are rejected.
func CheckRiskLimits(state RiskState, limits RiskLimits) error {
	if limits.DailyTradeLimit > 0 && state.TodayTradeCount >= limits.DailyTradeLimit {
		return fmt.Errorf("%w: %d/%d trades today",
			ErrDailyTradeLimit, state.TodayTradeCount, limits.DailyTradeLimit)
	}
	if limits.DailyLossLimit > 0 && state.TotalPnL() <= -limits.DailyLossLimit {
		return fmt.Errorf("%w: today's P&L %.2f breaches limit %.2f",
			ErrDailyLossLimit, state.TotalPnL(), -limits.DailyLossLimit)
	}
	return nil
}
