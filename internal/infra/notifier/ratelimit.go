package notifier

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter throttles outbound webhook deliveries with a token bucket so
// deactivation notices never hammer Slack or Discord past their limits.
type RateLimiter struct {
	rate    rate.Limit
	burst   int
	limiter *rate.Limiter
}

// NewRateLimiter allows bursts of up to burst deliveries, refilled at
// requestsPerSecond.
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	r := rate.Limit(requestsPerSecond)

	return &RateLimiter{
		rate:    r,
		burst:   burst,
		limiter: rate.NewLimiter(r, burst),
	}
}

// Allow blocks until a token is available or ctx is done. Call it before
// every webhook POST.
func (r *RateLimiter) Allow(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
