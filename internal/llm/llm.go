// Package llm defines the text generation backend used for extraction.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Generator turns a prompt into text. Implementations own their timeout,
// retry and rate limiting policy.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Result, error)
}

// Usage reports token consumption for one generation.
type Usage struct {
	PromptTokens     int      `json:"prompt_tokens"`
	CompletionTokens int      `json:"completion_tokens"`
	TotalTokens      int      `json:"total_tokens"`
	CostUSD          *float64 `json:"cost_usd,omitempty"`
}

// Result is a completed generation.
type Result struct {
	Text       string        `json:"text"`
	Usage      Usage         `json:"usage"`
	Model      string        `json:"model"`
	ResponseID string        `json:"response_id"`
	Latency    time.Duration `json:"latency"`
}

// ServiceError is returned once a backend gives up on a request.
type ServiceError struct {
	StatusCode int
	Attempts   int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm: request failed after %d attempt(s) (status %d): %v", e.Attempts, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("llm: request failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }
