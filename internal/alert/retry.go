package alert

import (
	"math/rand"
	"time"
)

const (
	// DefaultMaxAttempts is the attempt budget for one delivery.
	DefaultMaxAttempts = 5

	// JitterFactor spreads retries of deliveries queued in the same
	// sync batch so they do not hammer a recovering receiver together.
	JitterFactor = 0.2
)

// Backoff schedule indexed by failed attempts so far. The last step
// repeats for anything beyond it. A product price rarely moves within
// minutes, so the tail steps are long.
var retryDelays = [DefaultMaxAttempts]time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	30 * time.Minute,
	2 * time.Hour,
	12 * time.Hour,
}

// NextRetryDelay returns the jittered backoff delay after the given
// number of failed attempts (0 after the first failure).
func NextRetryDelay(attemptCount int) time.Duration {
	switch {
	case attemptCount < 0:
		attemptCount = 0
	case attemptCount >= len(retryDelays):
		attemptCount = len(retryDelays) - 1
	}
	base := float64(retryDelays[attemptCount])

	jitter := (rand.Float64()*2 - 1) * JitterFactor * base
	return time.Duration(base + jitter)
}

// NextRetryAt returns when the next attempt should run.
func NextRetryAt(attemptCount int) time.Time {
	return time.Now().Add(NextRetryDelay(attemptCount))
}

// IsExhausted reports whether the attempt budget is spent.
func IsExhausted(attemptCount, maxAttempts int) bool {
	return attemptCount >= maxAttempts
}

// RetryDelays returns a copy of the backoff schedule.
func RetryDelays() []time.Duration {
	return append([]time.Duration(nil), retryDelays[:]...)
}
