package extract

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/painpoint-cli/internal/llm"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (*llm.Result, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Result), args.Error(1)
}

func textResult(text string) *llm.Result {
	cost := 0.001
	return &llm.Result{
		Text:       text,
		Model:      "claude-haiku-4-5-20251001",
		ResponseID: "msg_test",
		Usage:      llm.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120, CostUSD: &cost},
	}
}
