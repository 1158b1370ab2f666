package anthropic

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
)

// APIError is a failed API call. StatusCode is zero for transport failures.
type APIError struct {
	Op         string
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("anthropic: %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("anthropic: %s: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

func newAPIError(op string, err error) *APIError {
	out := &APIError{Op: op, Err: err}
	var sdkErr *sdk.Error
	if errors.As(err, &sdkErr) {
		out.StatusCode = sdkErr.StatusCode
		if sdkErr.Response != nil {
			out.RetryAfter = retryAfter(sdkErr.Response.Header)
		}
	}
	return out
}

// retryAfter reads retry-after-ms, then retry-after in seconds or as an
// HTTP date.
func retryAfter(h http.Header) time.Duration {
	if v := h.Get("retry-after-ms"); v != "" {
		if ms, err := strconv.ParseFloat(v, 64); err == nil && ms > 0 {
			return time.Duration(ms * float64(time.Millisecond))
		}
	}
	v := h.Get("retry-after")
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
