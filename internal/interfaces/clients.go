package interfaces

import (
	"context"
	"errors"
)

// ErrPriceUnavailable signals that no live quote exists for a code. Callers
// degrade to average-cost substitution; this is never a hard failure.
var ErrPriceUnavailable = errors.New("price unavailable")

// PriceClient is the external price oracle. Quotes are integer cents.
type PriceClient interface {
	// GetPrice returns the current price for one ticker code, or
	// ErrPriceUnavailable when the oracle has no quote.
	GetPrice(ctx context.Context, code string) (int64, error)

	// GetPrices fetches quotes for many codes concurrently. Codes with no
	// quote are simply absent from the result map; a failed code never fails
	// the batch.
	GetPrices(ctx context.Context, codes []string) (map[string]int64, error)
}
