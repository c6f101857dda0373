// Package fetch runs paginated remote fetches under a concurrency cap with
// per-page bounded retry.
package fetch

import "context"

// Limiter bounds the number of simultaneously admitted operations.
// Blocked acquirers are admitted in arrival order.
type Limiter struct {
	slots chan struct{}
}

// NewLimiter creates a limiter admitting at most max operations at once
func NewLimiter(max int) *Limiter {
	if max < 1 {
		max = 1
	}
	return &Limiter{slots: make(chan struct{}, max)}
}

// Acquire blocks until a slot is free or the context is done
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a previously acquired slot
func (l *Limiter) Release() {
	<-l.slots
}

// InFlight returns the number of currently held slots
func (l *Limiter) InFlight() int {
	return len(l.slots)
}
