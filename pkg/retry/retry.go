// Package retry implements the capped-exponential-backoff-with-jitter
// policy used around broker stream reads that can fail transiently
// (network blips, backend restarts).
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Policy describes a capped exponential backoff with jitter.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Factor       float64
	Jitter       float64
}

// Default mirrors the policy spelled out in the design notes: at least
// three attempts, ~1s initial delay, 2x growth, +/-20% jitter.
func Default() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		Factor:       2.0,
		Jitter:       0.2,
	}
}

// Do runs fn, retrying on error up to MaxAttempts times with backoff
// between attempts. It returns the last error if every attempt fails,
// or nil on the first success. ctx cancellation aborts the wait between
// attempts immediately.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	delay := p.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == p.MaxAttempts {
			break
		}
		wait := jitter(delay, p.Jitter)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = time.Duration(float64(delay) * p.Factor)
	}
	return lastErr
}

func jitter(d time.Duration, frac float64) time.Duration {
	if frac <= 0 {
		return d
	}
	delta := float64(d) * frac
	offset := (rand.Float64()*2 - 1) * delta
	return time.Duration(float64(d) + offset)
}
