package llm

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/ziadkadry99/udaplay/internal/logging"
)

const maxRetryBackoff = 30 * time.Second

// RetryingProvider retries transient completion failures with exponential
// backoff and jitter.
type RetryingProvider struct {
	provider Provider
	attempts uint64
	base     time.Duration
	logger   *zap.Logger
}

// NewRetryingProvider wraps provider so that rate-limit, server and network
// errors are retried up to attempts more times.
func NewRetryingProvider(provider Provider, attempts int, base time.Duration, logger *zap.Logger) *RetryingProvider {
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	return &RetryingProvider{
		provider: provider,
		attempts: uint64(max(attempts, 0)),
		base:     base,
		logger:   logging.OrNop(logger),
	}
}

func (r *RetryingProvider) Name() string {
	return r.provider.Name()
}

func (r *RetryingProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	backoff := retry.NewExponential(r.base)
	backoff = retry.WithMaxDuration(maxRetryBackoff, backoff)
	backoff = retry.WithJitter(r.base/4, backoff)
	backoff = retry.WithMaxRetries(r.attempts, backoff)

	var (
		resp    *CompletionResponse
		attempt int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		var callErr error
		resp, callErr = r.provider.Complete(ctx, req)
		if callErr == nil {
			return nil
		}
		if IsRetryable(callErr) {
			r.logger.Warn("retrying completion",
				zap.String("provider", r.provider.Name()), zap.Int("attempt", attempt), zap.Error(callErr))
			return retry.RetryableError(callErr)
		}
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// IsRetryable reports whether err is worth retrying: HTTP 408/429/5xx from
// a provider, or a network error. Context cancellation never is.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return retryableStatus(reqErr.HTTPStatusCode)
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return retryableStatus(statusErr.StatusCode)
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func retryableStatus(code int) bool {
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500
}
