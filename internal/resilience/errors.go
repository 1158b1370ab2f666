// Package resilience wraps calls to the generation backend with retry,
// backoff and circuit breaking.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"
)

// HTTPError is a non-2xx response from a remote service.
type HTTPError struct {
	StatusCode int
	// RetryAfter is the server's requested delay, zero when absent.
	RetryAfter time.Duration
	Err        error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %v", e.StatusCode, e.Err)
}

func (e *HTTPError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

// RetryableStatus reports whether a response status is worth retrying. 529
// is Anthropic's overloaded status.
func RetryableStatus(code int) bool {
	switch code {
	case 408, 409, 429, 500, 502, 503, 504, 529:
		return true
	}
	return false
}

// IsRetryable classifies err for the retry loop. Caller cancellation and an
// open breaker are never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrBreakerOpen) {
		return false
	}

	var he *HTTPError
	if errors.As(err, &he) {
		return RetryableStatus(he.StatusCode)
	}

	// Per-attempt timeouts surface as deadline errors.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
