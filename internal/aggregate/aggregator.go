// Package aggregate merges mentions from independent search sources into
// deduplicated, scored items.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/painpoint-cli/internal/model"
)

// Result is the ranked output of one Aggregate call.
type Result struct {
	Items    []model.AggregatedItem    `json:"items"`
	Metadata model.AggregationMetadata `json:"metadata"`
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock overrides the time source used for recency scoring.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// Aggregator deduplicates and scores records. It holds no state between
// calls and is safe for concurrent use.
type Aggregator struct {
	settings Settings
	now      func() time.Time
}

// New creates an Aggregator, rejecting invalid settings.
func New(settings Settings, opts ...Option) (*Aggregator, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	a := &Aggregator{settings: settings, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Settings returns the aggregator's configuration.
func (a *Aggregator) Settings() Settings { return a.settings }

// Aggregate accepts decoded JSON values. Entries that are not objects are
// skipped and recorded in the metadata.
func (a *Aggregator) Aggregate(values []any, errs []string) Result {
	records := make([]model.RawRecord, 0, len(values))
	var skipped []model.SkippedRecord
	for i, v := range values {
		m, ok := v.(map[string]any)
		if !ok {
			skipped = append(skipped, model.SkippedRecord{
				Index:  i,
				Reason: fmt.Sprintf("record is %s, not an object", describe(v)),
			})
			continue
		}
		records = append(records, model.RecordFromMap(m))
	}

	res := a.AggregateRecords(records, errs)
	res.Metadata.InputItems = len(values)
	res.Metadata.Skipped = append(skipped, res.Metadata.Skipped...)
	return res
}

// AggregateRecords folds already parsed records into ranked items.
func (a *Aggregator) AggregateRecords(records []model.RawRecord, errs []string) Result {
	start := time.Now()
	now := a.now()

	matcher := NewMatcher(a.settings.NearDuplicateThreshold)
	merged := make([]model.AggregatedItem, 0, len(records))
	var byURL, bySimilarity int

	for i, r := range records {
		draft := Normalize(r, i, a.settings)
		idx, reason, ok := matcher.Find(draft)
		if !ok {
			merged = append(merged, draft)
			matcher.Add(draft)
			continue
		}
		merged[idx] = mergeItems(merged[idx], draft, reason)
		matcher.Replace(idx, merged[idx])
		if reason == ReasonCanonicalURL {
			byURL++
		} else {
			bySimilarity++
		}
	}

	items := make([]model.AggregatedItem, 0, len(merged))
	var skipped []model.SkippedRecord
	for i, item := range merged {
		scored, err := a.score(item, now)
		if err != nil {
			zap.L().Warn("aggregate: item skipped during scoring",
				zap.Int("index", i),
				zap.String("platform", item.Platform),
				zap.Error(err),
			)
			skipped = append(skipped, model.SkippedRecord{Index: i, Reason: err.Error()})
			continue
		}
		items = append(items, scored)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].AggregationScore > items[j].AggregationScore
	})

	if errs == nil {
		errs = []string{}
	}
	return Result{
		Items: items,
		Metadata: model.AggregationMetadata{
			InputItems:            len(records),
			DedupedItems:          len(items),
			DedupedByURL:          byURL,
			DedupedBySimilarity:   bySimilarity,
			Skipped:               skipped,
			Errors:                append([]string(nil), errs...),
			ProcessingTimeSeconds: round(time.Since(start).Seconds(), 4),
			SourceCounts:          countByPlatform(items),
		},
	}
}

// score computes the final score and confidence. A panic while scoring one
// item is turned into an error so the rest of the batch survives.
func (a *Aggregator) score(item model.AggregatedItem, now time.Time) (out model.AggregatedItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("scoring panicked: %v", r)
		}
	}()

	recency := RecencyScore(item.CreatedAt, now, a.settings.MaxItemAgeDays)
	engagement := EngagementScore(item.EngagementSignal)
	score := item.SourceWeight * (a.settings.RecencyWeight*recency + a.settings.EngagementWeight*engagement)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return item, eris.Errorf("score is not finite (weight=%v engagement=%v)", item.SourceWeight, item.EngagementSignal)
	}

	item.AggregationScore = round(score, 4)
	item.Confidence = round(Confidence(len(item.Sources), recency), 3)
	return item, nil
}

// mergeItems folds incoming into base. Provenance is unioned, the richer
// text and the later timestamp win, and a transformation note is appended.
func mergeItems(base, incoming model.AggregatedItem, reason MatchReason) model.AggregatedItem {
	merged := base
	merged.Sources = mergeSources(base.Sources, incoming.Sources)

	if len([]rune(incoming.NormalizedText)) > len([]rune(base.NormalizedText)) {
		merged.NormalizedText = incoming.NormalizedText
	}
	merged.CreatedAt = newer(base.CreatedAt, incoming.CreatedAt)
	merged.EngagementSignal = math.Max(base.EngagementSignal, incoming.EngagementSignal)
	merged.SourceWeight = math.Max(base.SourceWeight, incoming.SourceWeight)
	if merged.CanonicalURL == "" {
		merged.CanonicalURL = incoming.CanonicalURL
	}
	if merged.URL == "" {
		merged.URL = incoming.URL
	}
	if merged.Permalink == "" {
		merged.Permalink = incoming.Permalink
	}

	merged.TransformationNotes = append(append([]string{}, base.TransformationNotes...),
		fmt.Sprintf("Merged duplicate entry via %s from %s.",
			strings.ReplaceAll(string(reason), "_", " "), incoming.Platform))
	return merged
}

// mergeSources unions provenance keyed by (platform, id), keeping
// first-seen order.
func mergeSources(primary, incoming []model.SourceRecord) []model.SourceRecord {
	type key struct{ platform, id string }
	seen := make(map[key]struct{}, len(primary)+len(incoming))
	out := make([]model.SourceRecord, 0, len(primary)+len(incoming))
	for _, list := range [][]model.SourceRecord{primary, incoming} {
		for _, s := range list {
			k := key{s.Platform, s.ID}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

func newer(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.After(*a):
		return b
	default:
		return a
	}
}

func countByPlatform(items []model.AggregatedItem) map[string]int {
	counts := make(map[string]int)
	for _, item := range items {
		counts[item.Platform]++
	}
	return counts
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case []any:
		return "an array"
	case bool:
		return "a boolean"
	}
	if _, ok := model.ToFloat(v); ok {
		return "a number"
	}
	return fmt.Sprintf("%T", v)
}
