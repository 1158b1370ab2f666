package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/painpoint-cli/internal/config"
)

// RetryPolicy controls exponential backoff for a single logical request.
type RetryPolicy struct {
	// MaxAttempts includes the first try.
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	// JitterFraction spreads each wait by up to ±fraction of its length.
	JitterFraction float64

	// Retryable overrides IsRetryable.
	Retryable func(err error) bool
	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultRetryPolicy mirrors the configuration defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2,
		JitterFraction: 0.1,
	}
}

// PolicyFromConfig builds a retry policy from the llm config section.
func PolicyFromConfig(cfg config.LLMConfig) RetryPolicy {
	p := DefaultRetryPolicy()
	if cfg.MaxRetryAttempts > 0 {
		p.MaxAttempts = cfg.MaxRetryAttempts
	}
	if cfg.RetryBackoffMs > 0 {
		p.InitialBackoff = time.Duration(cfg.RetryBackoffMs) * time.Millisecond
	}
	if cfg.MaxBackoffMs > 0 {
		p.MaxBackoff = time.Duration(cfg.MaxBackoffMs) * time.Millisecond
	}
	return p
}

// Retry calls fn until it succeeds, returns a non-retryable error, the
// attempts run out, or ctx ends. It reports how many attempts were made.
func Retry[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context) (T, error)) (T, int, error) {
	p = p.withDefaults()
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, attempt - 1, lastErr
			}
			return zero, attempt - 1, err
		}

		v, err := fn(ctx)
		if err == nil {
			return v, attempt, nil
		}
		lastErr = err

		if attempt == p.MaxAttempts || !retryable(err) {
			return zero, attempt, err
		}

		wait := p.backoff(attempt, err)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, attempt, lastErr
		case <-timer.C:
		}
	}
	return zero, p.MaxAttempts, lastErr
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = d.InitialBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = d.MaxBackoff
	}
	if p.Multiplier <= 0 {
		p.Multiplier = d.Multiplier
	}
	if p.JitterFraction < 0 {
		p.JitterFraction = 0
	}
	return p
}

// backoff returns the wait after the given 1-based attempt. A server
// Retry-After wins when longer, still bounded by MaxBackoff.
func (p RetryPolicy) backoff(attempt int, err error) time.Duration {
	delay := float64(p.InitialBackoff) * math.Pow(p.Multiplier, float64(attempt-1))
	if p.JitterFraction > 0 {
		delay += (rand.Float64()*2 - 1) * delay * p.JitterFraction
	}

	var he *HTTPError
	if errors.As(err, &he) && float64(he.RetryAfter) > delay {
		delay = float64(he.RetryAfter)
	}

	if delay > float64(p.MaxBackoff) {
		delay = float64(p.MaxBackoff)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// LogRetries returns an OnRetry hook that logs under the given operation.
func LogRetries(operation string) func(int, error, time.Duration) {
	return func(attempt int, err error, wait time.Duration) {
		zap.L().Warn("resilience: retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}
}
