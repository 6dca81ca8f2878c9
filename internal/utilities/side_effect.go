package utilities

import (
	"context"
	"time"
)

// DefaultSideEffectTimeout bounds a best-effort side effect when the caller
// configured none.
const DefaultSideEffectTimeout = 10 * time.Second

// BestEffort runs fn on a context that keeps the values of ctx but not its
// cancellation, bounded by timeout. The caller logs the returned error and
// carries on.
func BestEffort(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	if timeout <= 0 {
		timeout = DefaultSideEffectTimeout
	}
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	return fn(sctx)
}
