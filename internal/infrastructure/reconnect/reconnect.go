// Package reconnect holds the bounded linear reconnect policy shared by the
// long-lived inbound channels.
package reconnect

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 3 * time.Second
)

// Policy allows MaxAttempts reconnects after a drop; attempt n waits
// BaseDelay*n.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultPolicy returns 5 attempts at 3s, 6s, 9s, 12s and 15s.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
}

// Delay returns the wait before the given attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.BaseDelay * time.Duration(attempt)
}

// Backoff counts consecutive failed connections against a Policy.
type Backoff struct {
	policy Policy

	mu       sync.Mutex
	attempts int
}

func NewBackoff(p Policy) *Backoff {
	return &Backoff{policy: p}
}

// Next consumes one attempt and returns its delay. ok is false once the
// policy is exhausted; the counter is then left at MaxAttempts.
func (b *Backoff) Next() (delay time.Duration, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attempts >= b.policy.MaxAttempts {
		return 0, false
	}
	b.attempts++
	return b.policy.Delay(b.attempts), true
}

// Reset zeroes the counter after a successful open.
func (b *Backoff) Reset() {
	b.mu.Lock()
	b.attempts = 0
	b.mu.Unlock()
}

// Attempts returns the number of reconnects consumed since the last Reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// Wait blocks for d or until ctx is done, returning ctx.Err() in that case.
func Wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
