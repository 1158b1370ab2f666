package aggregate

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/painpoint-cli/internal/model"
)

var fixedNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func newTestAggregator(t *testing.T) *Aggregator {
	t.Helper()
	a, err := New(DefaultSettings(), WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return a
}

func TestAggregate_ExactURLDedup(t *testing.T) {
	a := newTestAggregator(t)

	res := a.Aggregate([]any{
		map[string]any{
			"id": "r1", "platform": "reddit", "url": "https://Example.com/posts/Checkout/",
			"title": "Checkout broken", "text": "short",
			"created_at": "2024-05-01T00:00:00Z", "upvotes": 5.0,
		},
		map[string]any{
			"id": "g1", "platform": "google", "url": "https://example.com/posts/checkout",
			"title": "Checkout broken everywhere", "text": "a much longer body describing the failure",
			"created_at": "2024-05-20T00:00:00Z", "score": 20.0,
		},
	}, nil)

	require.Len(t, res.Items, 1)
	item := res.Items[0]
	assert.Equal(t, "reddit", item.Platform)
	assert.Equal(t, "Checkout broken", item.Title)
	assert.Equal(t, "Checkout broken everywhere a much longer body describing the failure", item.NormalizedText)
	require.NotNil(t, item.CreatedAt)
	assert.Equal(t, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), *item.CreatedAt)
	assert.InDelta(t, 20.0, item.EngagementSignal, 1e-9)
	assert.InDelta(t, 1.0, item.SourceWeight, 1e-9)
	require.Len(t, item.Sources, 2)
	assert.Equal(t, "r1", item.Sources[0].ID)
	assert.Equal(t, "g1", item.Sources[1].ID)
	assert.Equal(t, []string{"Merged duplicate entry via canonical url from google."}, item.TransformationNotes)

	assert.Equal(t, 2, res.Metadata.InputItems)
	assert.Equal(t, 1, res.Metadata.DedupedItems)
	assert.Equal(t, 1, res.Metadata.DedupedByURL)
	assert.Equal(t, 0, res.Metadata.DedupedBySimilarity)
	assert.Equal(t, map[string]int{"reddit": 1}, res.Metadata.SourceCounts)
}

func TestAggregate_EndToEndScenario(t *testing.T) {
	a := newTestAggregator(t)

	res := a.Aggregate([]any{
		map[string]any{
			"id": "a", "platform": "reddit", "url": "https://reddit.com/r/shop/1", "author": "u1",
			"title": "Checkout keeps failing", "text": "Users cannot pay because the checkout gateway times out.",
			"created_at": "2024-05-30T00:00:00Z", "upvotes": 12.0, "comments": 4.0,
		},
		map[string]any{
			"id": "b", "platform": "google", "url": "https://forum.example.com/t/99", "author": "u2",
			"title": "Checkout keeps failing", "text": "Users cannot pay because the checkout gateway times out. Ugh.",
			"created_at": "2024-05-31T00:00:00Z", "score": 3.0,
		},
		map[string]any{
			"id": "c", "platform": "reddit", "url": "https://reddit.com/r/shop/2",
			"title": "Subscription billing errors spike", "text": "Recurring billing produces duplicate invoices.",
		},
	}, []string{"google: quota exceeded"})

	require.Len(t, res.Items, 2)

	top := res.Items[0]
	assert.Equal(t, "a", top.ID)
	require.Len(t, top.Sources, 2)
	assert.Equal(t, []string{"Merged duplicate entry via similar text from google."}, top.TransformationNotes)
	assert.InDelta(t, 14.0, top.EngagementSignal, 1e-9)
	assert.Equal(t, 1.0, top.Confidence)

	other := res.Items[1]
	assert.Equal(t, "c", other.ID)
	assert.Len(t, other.Sources, 1)
	assert.Empty(t, other.TransformationNotes)
	// No timestamp and no engagement: 1.0 * 0.55 * 0.5.
	assert.InDelta(t, 0.275, other.AggregationScore, 1e-9)

	assert.Greater(t, top.AggregationScore, other.AggregationScore)
	assert.Equal(t, 3, res.Metadata.InputItems)
	assert.Equal(t, 2, res.Metadata.DedupedItems)
	assert.Equal(t, 0, res.Metadata.DedupedByURL)
	assert.Equal(t, 1, res.Metadata.DedupedBySimilarity)
	assert.Equal(t, []string{"google: quota exceeded"}, res.Metadata.Errors)
	assert.Equal(t, map[string]int{"reddit": 2}, res.Metadata.SourceCounts)
}

func TestAggregate_ScoreValues(t *testing.T) {
	a := newTestAggregator(t)

	res := a.AggregateRecords([]model.RawRecord{
		{ID: "fresh", Platform: "reddit", Body: "alpha alpha alpha", Timestamp: fixedNow.Format(time.RFC3339), Votes: 10},
		{ID: "undated", Platform: "google", Body: "bravo bravo bravo bravo"},
		{ID: "stale", Platform: "forum", Body: "charlie charlie", Timestamp: "2022-01-01T00:00:00Z"},
		{ID: "future", Platform: "forum", Body: "delta delta delta delta delta", Timestamp: "2024-07-01T00:00:00Z"},
	}, nil)

	byID := make(map[string]model.AggregatedItem)
	for _, it := range res.Items {
		byID[it.ID] = it
	}
	require.Len(t, byID, 4)

	// 1.0 * (0.55*1 + 0.45*(1-e^-1))
	assert.InDelta(t, 0.8345, byID["fresh"].AggregationScore, 1e-9)
	assert.InDelta(t, 1.0, byID["fresh"].Confidence, 1e-9)

	assert.InDelta(t, 0.2475, byID["undated"].AggregationScore, 1e-9)
	assert.InDelta(t, 0.8, byID["undated"].Confidence, 1e-9)

	assert.InDelta(t, 0.0, byID["stale"].AggregationScore, 1e-9)
	assert.InDelta(t, 0.6, byID["stale"].Confidence, 1e-9)

	// Future timestamps count as brand new: 0.75 * 0.55.
	assert.InDelta(t, 0.4125, byID["future"].AggregationScore, 1e-9)

	assert.Equal(t, []string{}, res.Metadata.Errors)
}

func TestAggregate_SortedDescending(t *testing.T) {
	a := newTestAggregator(t)

	res := a.AggregateRecords([]model.RawRecord{
		{ID: "low", Platform: "reddit", Body: "one two three", Votes: 1},
		{ID: "high", Platform: "reddit", Body: "zulu yankee xray whiskey", Votes: 50},
		{ID: "mid", Platform: "reddit", Body: "lima kilo juliet", Votes: 8},
	}, nil)

	require.Len(t, res.Items, 3)
	for i := 1; i < len(res.Items); i++ {
		assert.GreaterOrEqual(t, res.Items[i-1].AggregationScore, res.Items[i].AggregationScore)
	}
	assert.Equal(t, "high", res.Items[0].ID)
	assert.Equal(t, "low", res.Items[2].ID)
}

func TestAggregate_EngagementMonotonic(t *testing.T) {
	a := newTestAggregator(t)
	prev := -1.0
	for _, votes := range []float64{0, 1, 5, 20, 100} {
		res := a.AggregateRecords([]model.RawRecord{
			{Platform: "reddit", Body: "same body", Timestamp: "2024-05-01T00:00:00Z", Votes: votes},
		}, nil)
		require.Len(t, res.Items, 1)
		assert.GreaterOrEqual(t, res.Items[0].AggregationScore, prev)
		prev = res.Items[0].AggregationScore
	}
}

func TestAggregate_SkipsNonObjects(t *testing.T) {
	a := newTestAggregator(t)

	res := a.Aggregate([]any{
		map[string]any{"platform": "reddit", "title": "ok"},
		"just a string",
		3.0,
		nil,
	}, nil)

	assert.Len(t, res.Items, 1)
	assert.Equal(t, 4, res.Metadata.InputItems)
	require.Len(t, res.Metadata.Skipped, 3)
	assert.Equal(t, 1, res.Metadata.Skipped[0].Index)
	assert.Equal(t, "record is a string, not an object", res.Metadata.Skipped[0].Reason)
	assert.Equal(t, "record is a number, not an object", res.Metadata.Skipped[1].Reason)
	assert.Equal(t, "record is null, not an object", res.Metadata.Skipped[2].Reason)
}

func TestAggregate_Empty(t *testing.T) {
	a := newTestAggregator(t)

	res := a.Aggregate(nil, nil)
	assert.Empty(t, res.Items)
	assert.Equal(t, 0, res.Metadata.InputItems)
	assert.Equal(t, 0, res.Metadata.DedupedItems)
	assert.Empty(t, res.Metadata.SourceCounts)
}

func TestAggregate_SameSourceNotDuplicated(t *testing.T) {
	a := newTestAggregator(t)

	rec := map[string]any{"id": "x1", "platform": "reddit", "url": "https://reddit.com/x1", "title": "dup"}
	res := a.Aggregate([]any{rec, rec}, nil)

	require.Len(t, res.Items, 1)
	assert.Len(t, res.Items[0].Sources, 1)
	assert.Equal(t, 1, res.Metadata.DedupedByURL)
}

func TestAggregate_OutputProperties(t *testing.T) {
	a := newTestAggregator(t)

	res := a.Aggregate([]any{
		map[string]any{"platform": "reddit", "url": "https://a.example/1", "title": "Sync is slow"},
		map[string]any{"platform": "google", "url": "https://A.example/1/", "title": "Sync is slow today"},
		map[string]any{"platform": "twitter", "title": "Love the new dashboard"},
		map[string]any{"platform": "reddit", "title": "Love the new dashboard!"},
	}, nil)

	for _, it := range res.Items {
		assert.NotEmpty(t, it.Sources)
		if len(it.Sources) > 1 {
			assert.NotEmpty(t, it.TransformationNotes)
		}
		assert.GreaterOrEqual(t, it.Confidence, 0.0)
		assert.LessOrEqual(t, it.Confidence, 1.0)
		assert.GreaterOrEqual(t, it.AggregationScore, 0.0)
	}
}

func TestAggregate_IDLessRecordsKeepDistinctSources(t *testing.T) {
	a := newTestAggregator(t)

	res := a.Aggregate([]any{
		map[string]any{"platform": "reddit", "title": "Checkout keeps failing with timeout"},
		map[string]any{"platform": "reddit", "title": "Checkout keeps failing with a timeout"},
	}, nil)

	require.Len(t, res.Items, 1)
	assert.Equal(t, 1, res.Metadata.DedupedBySimilarity)
	require.Len(t, res.Items[0].Sources, 2)
	assert.NotEqual(t, res.Items[0].Sources[0].ID, res.Items[0].Sources[1].ID)
	assert.NotEmpty(t, res.Items[0].TransformationNotes)
}

func TestAggregate_Deterministic(t *testing.T) {
	a := newTestAggregator(t)
	input := []any{
		map[string]any{"platform": "reddit", "title": "Export to CSV drops rows", "upvotes": 3.0},
		map[string]any{"platform": "google", "title": "Export to CSV drops rows sometimes"},
		map[string]any{"platform": "google", "title": "Login loop on mobile", "created_at": "2024-05-05"},
	}

	first := a.Aggregate(input, nil)
	second := a.Aggregate(input, nil)
	assert.Equal(t, first.Items, second.Items)
}

func TestAggregate_ConcurrentCallsIndependent(t *testing.T) {
	a := newTestAggregator(t)
	input := []any{
		map[string]any{"platform": "reddit", "url": "https://x.example/1", "title": "one"},
		map[string]any{"platform": "google", "url": "https://x.example/1/", "title": "two"},
	}

	var wg sync.WaitGroup
	results := make([]Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = a.Aggregate(input, nil)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.Len(t, r.Items, 1)
		assert.Len(t, r.Items[0].Sources, 2)
	}
}
