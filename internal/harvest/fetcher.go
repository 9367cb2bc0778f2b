package harvest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimitedFetcher wraps a domain Fetcher with a shared pacing limiter and
// bounded retry. The pacing is a courtesy contract toward the remote
// service: a minimum delay elapses between successive attempts, retries
// included, with no burst catch-up after a resume.
//
// Retry exhaustion is not an error. The fetcher converts it into a
// TransientFailure outcome so the harvest loop records it and moves on.
type RateLimitedFetcher struct {
	inner   Fetcher
	limiter *rate.Limiter
	policy  *RetryPolicy
	logger  *zap.Logger
}

// NewRateLimitedFetcher wraps inner. minDelay is the floor between attempts;
// zero or negative disables pacing (useful in tests). A nil policy gets the
// defaults.
func NewRateLimitedFetcher(inner Fetcher, minDelay time.Duration, policy *RetryPolicy, logger *zap.Logger) *RateLimitedFetcher {
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}
	if policy == nil {
		policy = NewRetryPolicy(0, 0, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimitedFetcher{
		inner:   inner,
		limiter: rate.NewLimiter(limit, 1),
		policy:  policy,
		logger:  logger,
	}
}

// Fetch performs the remote call for item, retrying transient failures up to
// the policy budget. A returned error means the call could not run at all
// (context finished); every other path yields a definitive Outcome.
func (f *RateLimitedFetcher) Fetch(ctx context.Context, item WorkItem) (Outcome, error) {
	var reason string
	for attempt := 1; ; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return Outcome{}, fmt.Errorf("rate limit wait: %w", err)
		}

		out, err := f.inner.Fetch(ctx, item)
		if err == nil && out.Kind != OutcomeTransient {
			out.Attempts = attempt
			if out.Kind == OutcomeSuccess {
				fetchSuccessTotal.Inc()
			} else {
				fetchNotFoundTotal.Inc()
			}
			return out, nil
		}

		if err != nil {
			if ctx.Err() != nil {
				return Outcome{}, fmt.Errorf("fetch %s: %w", item.Key, err)
			}
			reason = err.Error()
		} else {
			reason = out.Reason
		}

		if attempt >= f.policy.MaxAttempts() {
			fetchFailureTotal.Inc()
			f.logger.Warn("Giving up after retries",
				zap.String("key", item.Key),
				zap.Int("attempts", attempt),
				zap.String("reason", reason),
			)
			failed := TransientFailure(reason)
			failed.Attempts = attempt
			return failed, nil
		}

		retryTotal.Inc()
		backoff := f.policy.Backoff(attempt)
		f.logger.Debug("Retrying after transient failure",
			zap.String("key", item.Key),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.String("reason", reason),
		)
		pause(ctx, backoff)
		if ctx.Err() != nil {
			return Outcome{}, fmt.Errorf("fetch %s: %w", item.Key, ctx.Err())
		}
	}
}
