package engine

import "errors"

// Batch-fatal errors. When one of these is returned nothing has been
// submitted for the batch.
var (
	// ErrDailyTradeLimit is returned by the risk gate when today's trade
	// count has reached the configured limit.
	ErrDailyTradeLimit = errors.New("daily trade limit reached")

	// ErrDailyLossLimit is returned by the risk gate when today's combined
	// realized and unrealized P&L has reached the configured loss limit.
	// The caller is expected to close all open positions and disable
	// trading for the rest of the trading day.
	ErrDailyLossLimit = errors.New("daily loss limit reached")

	// ErrMarketDataUnavailable covers tick/symbol/candle fetch failures,
	// including an insufficient number of candle bars.
	ErrMarketDataUnavailable = errors.New("market data unavailable")

	// ErrInvalidStopSide means the resolved stop price is not on the loss
	// side of the entry price. The shared stop is a precondition for every
	// sub-order, so this aborts the batch.
	ErrInvalidStopSide = errors.New("stop loss on wrong side of entry price")

	// ErrBreakevenInfeasible means the breakeven volume is undefined
	// (zero denominator) or not positive. The shared volume is invalid
	// for every template, so this aborts the batch.
	ErrBreakevenInfeasible = errors.New("breakeven volume infeasible")
)

// Per-template sizing errors. The coordinator records the template as
// skipped and continues with the remaining ones.
var (
	ErrZeroPriceDistance     = errors.New("zero distance between entry and stop price")
	ErrNonPositiveRiskAmount = errors.New("fixed risk amount must be positive")
	ErrNonPositiveVolume     = errors.New("volume must be positive")
)

// IsRiskRejection reports whether err is a risk gate rejection
func IsRiskRejection(err error) bool {
	return errors.Is(err, ErrDailyTradeLimit) || errors.Is(err, ErrDailyLossLimit)
}

// IsBatchFatal reports whether err aborts a whole batch as opposed to a
// single template
func IsBatchFatal(err error) bool {
	return IsRiskRejection(err) ||
		errors.Is(err, ErrMarketDataUnavailable) ||
		errors.Is(err, ErrInvalidStopSide) ||
		errors.Is(err, ErrBreakevenInfeasible)
}
