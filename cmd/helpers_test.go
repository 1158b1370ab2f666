package main

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/painpoint-cli/internal/config"
	"github.com/sells-group/painpoint-cli/internal/llm"
	"github.com/sells-group/painpoint-cli/internal/store"
)

// fakeGenerator returns the same reply for every prompt.
type fakeGenerator struct {
	reply string
	err   error
	calls atomic.Int32
}

func (f *fakeGenerator) Generate(_ context.Context, _ string) (*llm.Result, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Result{
		Text:       f.reply,
		Model:      "claude-haiku-4-5-20251001",
		ResponseID: "msg_test",
		Usage:      llm.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
	}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Aggregation: config.AggregationConfig{
			RecencyWeight:          0.55,
			EngagementWeight:       0.45,
			MaxItemAgeDays:         365,
			NearDuplicateThreshold: 0.82,
			CommentWeight:          0.5,
			RedditSourceWeight:     1.0,
			GoogleSourceWeight:     0.9,
			DefaultSourceWeight:    0.75,
		},
		Extraction: config.ExtractionConfig{BatchSize: 10},
		Batch:      config.BatchConfig{MaxConcurrentRuns: 2},
	}
}

func openTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.Open(context.Background(), config.StoreConfig{
		Driver:      "sqlite",
		DatabaseURL: filepath.Join(t.TempDir(), "runs.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

const checkoutRecords = `[
  {"id": "a", "platform": "reddit", "url": "https://reddit.com/r/shop/1", "author": "u1",
   "title": "Checkout keeps failing", "text": "Users cannot pay because the checkout gateway times out.",
   "created_at": "2024-05-30T00:00:00Z", "upvotes": 12, "comments": 4},
  {"id": "b", "platform": "google", "url": "https://forum.example.com/t/99", "author": "u2",
   "title": "Checkout keeps failing", "text": "Users cannot pay because the checkout gateway times out. Ugh.",
   "created_at": "2024-05-31T00:00:00Z", "score": 3},
  {"id": "c", "platform": "reddit", "url": "https://reddit.com/r/shop/2",
   "title": "Subscription billing errors spike", "text": "Recurring billing produces duplicate invoices."}
]`

const checkoutReply = `{
  "pain_points": [{
    "name": "Checkout failures",
    "description": "Checkout keeps failing with a gateway timeout",
    "examples": ["Users cannot pay because the checkout gateway times out."],
    "sources": [
      {"platform": "reddit", "author": "u1", "url": "https://reddit.com/r/shop/1"},
      {"platform": "google", "author": "u2", "url": "https://forum.example.com/t/99"}
    ]
  }]
}`
