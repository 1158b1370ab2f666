// Package monitoring summarizes recent run history and raises alerts when
// failure rate or spend crosses configured thresholds.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/painpoint-cli/internal/model"
	"github.com/sells-group/painpoint-cli/internal/store"
)

const (
	pageSize = 500
	maxScan  = 10000
)

// MetricsSnapshot holds a point-in-time view of run health.
type MetricsSnapshot struct {
	RunsTotal      int     `json:"runs_total"`
	RunsComplete   int     `json:"runs_complete"`
	RunsFailed     int     `json:"runs_failed"`
	RunsInFlight   int     `json:"runs_in_flight"`
	FailRate       float64 `json:"fail_rate"`
	CostUSD        float64 `json:"cost_usd"`
	AvgTokens      int     `json:"avg_tokens"`
	PainPoints     int     `json:"pain_points"`
	BatchesSkipped int     `json:"batches_skipped"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// RunLister is the slice of store.Store the collector reads.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
}

// Collector gathers metrics from the run store.
type Collector struct {
	runs RunLister
	now  func() time.Time
}

// NewCollector creates a new metrics collector.
func NewCollector(runs RunLister) *Collector {
	return &Collector{runs: runs, now: time.Now}
}

// Collect summarizes runs created within the lookback window. Runs are
// read newest first, so paging stops at the first run older than the
// window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := c.now().UTC()
	snap := &MetricsSnapshot{LookbackHours: lookbackHours, CollectedAt: now}
	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)

	var totalTokens int
	for offset := 0; offset < maxScan; offset += pageSize {
		page, err := c.runs.ListRuns(ctx, store.RunFilter{Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, eris.Wrap(err, "monitoring: list runs")
		}

		done := len(page) < pageSize
		for _, r := range page {
			if r.CreatedAt.Before(cutoff) {
				done = true
				break
			}
			snap.RunsTotal++
			switch r.Status {
			case model.RunStatusComplete:
				snap.RunsComplete++
			case model.RunStatusFailed:
				snap.RunsFailed++
			default:
				snap.RunsInFlight++
			}
			if r.Result != nil {
				usage := r.Result.Extraction.TokenUsage
				snap.CostUSD += usage.Cost
				totalTokens += usage.TotalTokens
				snap.PainPoints += len(r.Result.PainPoints)
				snap.BatchesSkipped += r.Result.Extraction.BatchesSkipped
			}
		}
		if done {
			break
		}
	}

	if finished := snap.RunsComplete + snap.RunsFailed; finished > 0 {
		snap.FailRate = float64(snap.RunsFailed) / float64(finished)
	}
	if snap.RunsTotal > 0 {
		snap.AvgTokens = totalTokens / snap.RunsTotal
	}
	return snap, nil
}
