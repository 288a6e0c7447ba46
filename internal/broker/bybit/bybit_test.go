package bybit

import (
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/batch-trade-bot/internal/broker"
)

// TestTakeProfitPrice checks the distance-to-price conversion per side
func TestTakeProfitPrice(t *testing.T) {
	assert.InDelta(t, 1.1100, takeProfitPrice(1.1000, broker.SideBuy, 100, 0.0001), 1e-9)
	assert.InDelta(t, 1.0900, takeProfitPrice(1.1000, broker.SideSell, 100, 0.0001), 1e-9)

	assert.Zero(t, takeProfitPrice(1.1000, broker.SideBuy, 0, 0.0001), "zero distance disables the take profit")
	assert.Zero(t, takeProfitPrice(1.1000, broker.SideBuy, 100, 0))
}

// TestOrderLinkID checks sanitization and the 36-character cap
func TestOrderLinkID(t *testing.T) {
	valid := regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	id := orderLinkID("batch order 1")
	assert.True(t, valid.MatchString(id), "link ID %q must be alphanumeric with dashes", id)
	assert.Contains(t, id, "batch-order-1")

	long := orderLinkID("a very long comment that certainly exceeds the bybit limit on link identifiers")
	assert.LessOrEqual(t, len(long), 36)
	assert.True(t, valid.MatchString(long))

	weird := orderLinkID("15m breakout #2 (retry!)")
	assert.True(t, valid.MatchString(weird))
}

// TestKlineIntervals checks every supported timeframe maps to a Bybit
// interval code
func TestKlineIntervals(t *testing.T) {
	cases := map[string]string{
		"1m": "1", "5m": "5", "15m": "15", "1h": "60", "4h": "240", "1d": "D",
	}
	for tf, want := range cases {
		got, ok := klineIntervals[tf]
		require.True(t, ok, "timeframe %s must be supported", tf)
		assert.Equal(t, want, got)
	}

	_, ok := klineIntervals["7m"]
	assert.False(t, ok)
}

// TestAPIErrorClassification checks the errors.As based helpers unwrap
// wrapped API errors
func TestAPIErrorClassification(t *testing.T) {
	auth := fmt.Errorf("connect: %w", &APIError{Code: ErrCodeInvalidAPIKey, Message: "bad key"})
	assert.True(t, IsAuthenticationError(auth))
	assert.False(t, IsInsufficientBalanceError(auth))

	balance := &APIError{Code: ErrCodeInsufficientBalance, Message: "not enough margin"}
	assert.True(t, IsInsufficientBalanceError(balance))

	throttled := &APIError{Code: ErrCodeRateLimitExceeded}
	assert.True(t, IsRateLimitError(throttled))

	assert.False(t, IsAuthenticationError(errors.New("plain error")))
}

// TestFormatVolume checks quantities serialize without trailing zeros
func TestFormatVolume(t *testing.T) {
	assert.Equal(t, "0.01", formatVolume(0.01))
	assert.Equal(t, "1.5", formatVolume(1.5))
	assert.Equal(t, "100", formatVolume(100))
}
