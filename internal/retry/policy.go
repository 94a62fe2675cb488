// Package retry provides the single reconnect/backoff policy shared by the
// ingestor's resubscribe path and any other loop that needs delay-and-retry
// behavior.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Policy describes a bounded exponential backoff with optional jitter. The
// zero value is not useful; construct one from configuration or use Default.
type Policy struct {
	// Base is the delay before the first retry.
	Base time.Duration
	// Max caps the delay regardless of attempt count.
	Max time.Duration
	// Factor is the per-attempt growth multiplier. 1 means a fixed delay.
	Factor float64
	// Jitter is the fraction of the delay randomized in both directions,
	// in [0, 1]. 0 disables jitter.
	Jitter float64
}

// Default is the policy used when nothing is configured: 10s base doubling
// up to 60s with 20% jitter. Transport drops are expected and frequent, so
// the base stays short.
func Default() Policy {
	return Policy{
		Base:   10 * time.Second,
		Max:    60 * time.Second,
		Factor: 2.0,
		Jitter: 0.2,
	}
}

// Delay returns the backoff duration for the given zero-based attempt
// number, including jitter.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	factor := p.Factor
	if factor < 1 {
		factor = 1
	}

	d := float64(p.Base) * math.Pow(factor, float64(attempt))
	if max := float64(p.Max); p.Max > 0 && d > max {
		d = max
	}

	if p.Jitter > 0 {
		// Spread the delay uniformly across [d*(1-j), d*(1+j)].
		d *= 1 + p.Jitter*(2*rand.Float64()-1)
	}

	if d < 0 {
		return 0
	}
	return time.Duration(d)
}

// Wait sleeps for the attempt's delay or until the context is cancelled,
// returning ctx.Err() in the latter case.
func (p Policy) Wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(p.Delay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
