package llm

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/painpoint-cli/internal/config"
	"github.com/sells-group/painpoint-cli/internal/cost"
	"github.com/sells-group/painpoint-cli/internal/resilience"
	"github.com/sells-group/painpoint-cli/pkg/anthropic"
)

const systemPrompt = "You are a product research analyst. You read community posts and " +
	"extract recurring customer pain points. Reply with a single JSON object and nothing else."

// AnthropicGenerator generates text with Claude. Each call is rate limited,
// retried with backoff, guarded by a circuit breaker and bounded by a
// per-attempt timeout.
type AnthropicGenerator struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	timeout     time.Duration

	policy  resilience.RetryPolicy
	breaker *resilience.Breaker
	limiter *rate.Limiter
	costs   *cost.Calculator
}

// NewAnthropic builds a generator from the anthropic, llm and pricing config
// sections.
func NewAnthropic(client anthropic.Client, cfg *config.Config) *AnthropicGenerator {
	policy := resilience.PolicyFromConfig(cfg.LLM)
	policy.OnRetry = resilience.LogRetries("anthropic.create_message")

	limit := rate.Inf
	if cfg.LLM.RequestsPerMinute > 0 {
		limit = rate.Limit(cfg.LLM.RequestsPerMinute / 60)
	}

	timeout := time.Duration(cfg.LLM.RequestTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	maxTokens := cfg.Anthropic.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &AnthropicGenerator{
		client:      client,
		model:       cfg.Anthropic.Model,
		maxTokens:   maxTokens,
		temperature: cfg.Anthropic.Temperature,
		timeout:     timeout,
		policy:      policy,
		breaker:     resilience.BreakerFromConfig("anthropic", cfg.LLM),
		limiter:     rate.NewLimiter(limit, 1),
		costs:       cost.NewCalculator(cfg.Pricing),
	}
}

// Generate sends prompt as a single user turn.
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string) (*Result, error) {
	req := anthropic.MessageRequest{
		Model:       g.model,
		MaxTokens:   g.maxTokens,
		System:      anthropic.CachedSystem(systemPrompt, "5m"),
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &g.temperature,
	}

	start := time.Now()
	resp, attempts, err := resilience.Retry(ctx, g.policy, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return resilience.Call(ctx, g.breaker, func(ctx context.Context) (*anthropic.MessageResponse, error) {
			return g.attempt(ctx, req)
		})
	})
	if err != nil {
		return nil, &ServiceError{
			StatusCode: resilience.StatusCode(err),
			Attempts:   attempts,
			Err:        err,
		}
	}

	res := &Result{
		Text:       resp.Text(),
		Model:      resp.Model,
		ResponseID: resp.ID,
		Latency:    time.Since(start),
		Usage: Usage{
			PromptTokens:     int(resp.Usage.InputTokens + resp.Usage.CacheCreationInputTokens + resp.Usage.CacheReadInputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
		},
	}
	if res.Model == "" {
		res.Model = g.model
	}
	res.Usage.TotalTokens = res.Usage.PromptTokens + res.Usage.CompletionTokens

	if usd, ok := g.costs.Claude(res.Model, false, cost.Usage{
		Input:      int(resp.Usage.InputTokens),
		Output:     int(resp.Usage.OutputTokens),
		CacheWrite: int(resp.Usage.CacheCreationInputTokens),
		CacheRead:  int(resp.Usage.CacheReadInputTokens),
	}); ok {
		res.Usage.CostUSD = &usd
	}

	zap.L().Debug("llm: generation complete",
		zap.String("model", res.Model),
		zap.String("response_id", res.ResponseID),
		zap.Int("attempts", attempts),
		zap.Int("prompt_tokens", res.Usage.PromptTokens),
		zap.Int("completion_tokens", res.Usage.CompletionTokens),
		zap.Duration("latency", res.Latency),
	)
	return res, nil
}

func (g *AnthropicGenerator) attempt(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.CreateMessage(ctx, req)
	if err != nil {
		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode > 0 {
			return nil, &resilience.HTTPError{
				StatusCode: apiErr.StatusCode,
				RetryAfter: apiErr.RetryAfter,
				Err:        err,
			}
		}
		return nil, err
	}
	return resp, nil
}
