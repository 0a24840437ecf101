package provider

import (
	"context"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// Budget is a provider's shared rate budget. It is held by one adapter
// and hit concurrently by every retrieval worker, so the call counter
// is atomic and the limiter does its own locking.
type Budget struct {
	limiter *rate.Limiter
	calls   atomic.Int64
}

// NewBudget creates a budget allowing perSec requests per second with
// the given burst. Non-positive inputs fall back to a 1/1 budget.
func NewBudget(perSec float64, burst int) *Budget {
	if perSec <= 0 {
		perSec = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &Budget{limiter: rate.NewLimiter(rate.Limit(perSec), burst)}
}

// Wait blocks until the budget grants a token, then records the call.
// Returns the context's error if it is cancelled first.
func (b *Budget) Wait(ctx context.Context) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	b.calls.Add(1)
	return nil
}

// Calls returns how many requests have been charged to this budget.
func (b *Budget) Calls() int64 {
	return b.calls.Load()
}
