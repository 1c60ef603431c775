package llm

import (
	"context"
	"sync"
	"time"
)

// RateLimitedProvider wraps a Provider with a token bucket holding at most
// rpm tokens, refilled continuously over a minute.
type RateLimitedProvider struct {
	provider Provider
	rpm      int
	poll     time.Duration

	mu       sync.Mutex
	tokens   float64
	lastFill time.Time
}

// NewRateLimitedProvider wraps the given provider with a rate limiter
// that allows at most rpm requests per minute.
func NewRateLimitedProvider(provider Provider, rpm int) *RateLimitedProvider {
	return &RateLimitedProvider{
		provider: provider,
		rpm:      rpm,
		poll:     100 * time.Millisecond,
		tokens:   float64(rpm),
		lastFill: time.Now(),
	}
}

func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.provider.Complete(ctx, req)
}

// take consumes a token if one is available.
func (r *RateLimitedProvider) take(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens += now.Sub(r.lastFill).Minutes() * float64(r.rpm)
	r.tokens = min(r.tokens, float64(r.rpm))
	r.lastFill = now

	if r.tokens >= 1 {
		r.tokens--
		return true
	}
	return false
}

func (r *RateLimitedProvider) wait(ctx context.Context) error {
	for !r.take(time.Now()) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.poll):
		}
	}
	return nil
}
