package fetch

import (
	"context"
	"time"
)

// Retry runs op up to attempts times with a fixed delay between attempts,
// returning nil on the first success or the last failure. It stops early
// when the context is cancelled.
func Retry(ctx context.Context, attempts int, delay time.Duration, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 && delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if lastErr = op(); lastErr == nil {
			return nil
		}
	}
	return lastErr
}
