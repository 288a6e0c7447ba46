package safety

import (
	"fmt"
	"math"
	"strings"
)

// ValidationResult represents the result of a validation check
type ValidationResult struct {
	Valid   bool
	Message string
	Code    string
}

// Validator provides defensive validation of order parameters before
// they are handed to the broker
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidatePrice validates a price value for trading
func (v *Validator) ValidatePrice(price float64, symbol string) ValidationResult {
	if price <= 0 {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("invalid price %.8f for %s: price must be positive", price, symbol),
			Code:    "INVALID_PRICE_NEGATIVE",
		}
	}

	if math.IsNaN(price) {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("invalid price for %s: price is NaN", symbol),
			Code:    "INVALID_PRICE_NAN",
		}
	}

	if math.IsInf(price, 0) {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("invalid price for %s: price is infinite", symbol),
			Code:    "INVALID_PRICE_INF",
		}
	}

	// Catch obvious data errors before they reach the broker
	if price > 1e10 {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("suspicious price %.8f for %s: exceeds reasonable bounds", price, symbol),
			Code:    "PRICE_OUT_OF_BOUNDS",
		}
	}

	return ValidationResult{Valid: true}
}

// ValidateVolume validates an order volume value
func (v *Validator) ValidateVolume(volume float64, symbol string) ValidationResult {
	if volume <= 0 {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("invalid volume %.8f for %s: volume must be positive", volume, symbol),
			Code:    "INVALID_VOLUME_NEGATIVE",
		}
	}

	if math.IsNaN(volume) {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("invalid volume for %s: volume is NaN", symbol),
			Code:    "INVALID_VOLUME_NAN",
		}
	}

	if math.IsInf(volume, 0) {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("invalid volume for %s: volume is infinite", symbol),
			Code:    "INVALID_VOLUME_INF",
		}
	}

	if volume > 1e6 {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("suspicious volume %.8f for %s: exceeds reasonable bounds", volume, symbol),
			Code:    "VOLUME_OUT_OF_BOUNDS",
		}
	}

	return ValidationResult{Valid: true}
}

// ValidateSymbol validates a trading symbol format
func (v *Validator) ValidateSymbol(symbol string) ValidationResult {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return ValidationResult{
			Valid:   false,
			Message: "symbol cannot be empty",
			Code:    "SYMBOL_EMPTY",
		}
	}

	if len(symbol) < 3 || len(symbol) > 20 {
		return ValidationResult{
			Valid:   false,
			Message: fmt.Sprintf("symbol '%s' length out of range: 3-20 characters required", symbol),
			Code:    "SYMBOL_BAD_LENGTH",
		}
	}

	for _, char := range symbol {
		if !((char >= 'A' && char <= 'Z') || (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9')) {
			return ValidationResult{
				Valid:   false,
				Message: fmt.Sprintf("symbol '%s' contains invalid characters: only alphanumeric allowed", symbol),
				Code:    "SYMBOL_INVALID_CHARS",
			}
		}
	}

	return ValidationResult{Valid: true}
}
