package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/painpoint-cli/internal/config"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2,
	}
}

func TestRetry_FirstAttempt(t *testing.T) {
	v, attempts, err := Retry(context.Background(), fastPolicy(3), func(_ context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 1, attempts)
}

func TestRetry_RecoversFromTransient(t *testing.T) {
	calls := 0
	v, attempts, err := Retry(context.Background(), fastPolicy(3), func(_ context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, &HTTPError{StatusCode: 503, Err: errors.New("overloaded")}
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, attempts)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, attempts, err := Retry(context.Background(), fastPolicy(3), func(_ context.Context) (int, error) {
		calls++
		return 0, &HTTPError{StatusCode: 500, Err: errors.New("boom")}
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 500, StatusCode(err))
}

func TestRetry_StopsOnPermanent(t *testing.T) {
	calls := 0
	_, attempts, err := Retry(context.Background(), fastPolicy(5), func(_ context.Context) (int, error) {
		calls++
		return 0, &HTTPError{StatusCode: 400, Err: errors.New("bad request")}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, attempts)
}

func TestRetry_ContextCanceledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := fastPolicy(5)
	p.InitialBackoff = time.Hour
	p.MaxBackoff = time.Hour
	p.OnRetry = func(int, error, time.Duration) { cancel() }

	_, attempts, err := Retry(ctx, p, func(_ context.Context) (int, error) {
		return 0, &HTTPError{StatusCode: 429, Err: errors.New("rate limited")}
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 429, StatusCode(err))
}

func TestRetry_CustomRetryable(t *testing.T) {
	calls := 0
	p := fastPolicy(4)
	p.Retryable = func(error) bool { return true }
	_, attempts, err := Retry(context.Background(), p, func(_ context.Context) (int, error) {
		calls++
		return 0, errors.New("anything")
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, 4, attempts)
}

func TestBackoff_GrowsAndCaps(t *testing.T) {
	p := RetryPolicy{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond, Multiplier: 2}.withDefaults()
	p.JitterFraction = 0

	assert.Equal(t, 100*time.Millisecond, p.backoff(1, nil))
	assert.Equal(t, 200*time.Millisecond, p.backoff(2, nil))
	assert.Equal(t, 300*time.Millisecond, p.backoff(3, nil))
}

func TestBackoff_HonorsRetryAfter(t *testing.T) {
	p := RetryPolicy{InitialBackoff: 10 * time.Millisecond, MaxBackoff: time.Second, Multiplier: 2}.withDefaults()
	p.JitterFraction = 0

	err := &HTTPError{StatusCode: 429, RetryAfter: 500 * time.Millisecond, Err: errors.New("slow")}
	assert.Equal(t, 500*time.Millisecond, p.backoff(1, err))

	err.RetryAfter = 10 * time.Second
	assert.Equal(t, time.Second, p.backoff(1, err))
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFromConfig(config.LLMConfig{MaxRetryAttempts: 5, RetryBackoffMs: 250, MaxBackoffMs: 4000})
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, p.InitialBackoff)
	assert.Equal(t, 4*time.Second, p.MaxBackoff)

	d := PolicyFromConfig(config.LLMConfig{})
	assert.Equal(t, DefaultRetryPolicy(), d)
}
