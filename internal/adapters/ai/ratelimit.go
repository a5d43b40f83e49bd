package ai

import (
	"context"

	"golang.org/x/time/rate"

	"custintel/pkg/errors"
)

// RateLimiter gates live provider requests.
type RateLimiter interface {
	// Wait blocks until a request can proceed or the context is cancelled.
	Wait(ctx context.Context) error

	// Allow checks if a request can proceed without blocking.
	Allow() bool
}

// tokenBucketLimiter wraps x/time/rate with provider context for errors.
type tokenBucketLimiter struct {
	limiter  *rate.Limiter
	provider ProviderName
}

// NewTokenBucketLimiter creates a token bucket limiter allowing perSecond
// requests with the given burst.
func NewTokenBucketLimiter(provider ProviderName, perSecond float64, burst int) RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &tokenBucketLimiter{
		limiter:  rate.NewLimiter(rate.Limit(perSecond), burst),
		provider: provider,
	}
}

func (l *tokenBucketLimiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return errors.Wrapf(err, "rate limiter wait cancelled for provider %s", l.provider)
	}
	return nil
}

func (l *tokenBucketLimiter) Allow() bool {
	return l.limiter.Allow()
}

// NoOpLimiter never blocks. Used in mock mode and tests.
type NoOpLimiter struct{}

func NewNoOpLimiter() *NoOpLimiter { return &NoOpLimiter{} }

func (l *NoOpLimiter) Wait(ctx context.Context) error { return nil }

func (l *NoOpLimiter) Allow() bool { return true }
