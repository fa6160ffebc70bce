package errs

import (
	"context"
	"math"
	"time"
)

// BackoffConfig configures the exponential-backoff retry loop used by
// the rate governor. Retries sleep with doubling backoff and cap the
// delay, but the number of attempts is unbounded: a transport that
// never recovers keeps retrying at MaxDelay.
type BackoffConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultBackoff starts at 1s, doubles on every failure, and caps the
// delay at 60s.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{InitialDelay: time.Second, MaxDelay: 60 * time.Second}
}

// Retry runs fn, retrying on every non-nil error with exponential
// backoff until it succeeds or ctx is cancelled.
func Retry(ctx context.Context, cfg BackoffConfig, fn func() error) error {
	delay := cfg.InitialDelay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		wait := time.Duration(float64(cfg.InitialDelay) * math.Pow(2, float64(attempt-1)))
		if wait > cfg.MaxDelay {
			wait = cfg.MaxDelay
		}
		delay = wait

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
