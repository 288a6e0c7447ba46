package bybit

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// APIError represents a non-zero retCode from the Bybit API
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bybit API error %d: %s", e.Code, e.Message)
}

// Common Bybit error codes
const (
	ErrCodeInvalidAPIKey       = 10003
	ErrCodeInvalidSignature    = 10004
	ErrCodeRateLimitExceeded   = 10006
	ErrCodeOrderNotFound       = 110001
	ErrCodeInsufficientBalance = 110007
	ErrCodeInvalidQuantity     = 110020
	ErrCodeInvalidPrice        = 110021
)

// IsAuthenticationError reports whether the error is a credential problem
func IsAuthenticationError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == ErrCodeInvalidAPIKey || apiErr.Code == ErrCodeInvalidSignature
	}
	return false
}

// IsInsufficientBalanceError reports whether the order failed for lack of margin
func IsInsufficientBalanceError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == ErrCodeInsufficientBalance
	}
	return false
}

// IsRateLimitError reports whether the request was throttled
func IsRateLimitError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == ErrCodeRateLimitExceeded
	}
	return false
}

// orderLinkID derives a unique client order ID from a human comment.
// Bybit limits link IDs to 36 characters of [A-Za-z0-9_-].
func orderLinkID(comment string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, comment)

	suffix := fmt.Sprintf("-%d", time.Now().UnixMilli()%1_000_000_000)
	if max := 36 - len(suffix); len(sanitized) > max {
		sanitized = sanitized[:max]
	}
	return sanitized + suffix
}
