package provider

import (
	"context"
	"fmt"
	"regexp"

	"github.com/factorlab/screener/internal/core"
)

// Provider defines the interface for fundamental data providers.
// Implementations translate their source-specific response shapes into
// a common core.Fundamentals record and surface provider-level failure
// as structured errors; they never coerce a failure into zero values.
type Provider interface {
	Name() string
	FetchFundamentals(ctx context.Context, symbol string, lookbackYears int) (*core.Fundamentals, error)
}

// validSymbol matches stock symbols like AAPL, MSFT, BRK.B, 0700.HK
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9]{1,10}(\.[A-Za-z]{1,4})?$`)

// ValidateSymbol checks if a symbol has valid format.
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}
