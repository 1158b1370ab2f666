// Package pipeline runs aggregation followed by pain point extraction and
// records the run.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/painpoint-cli/internal/aggregate"
	"github.com/sells-group/painpoint-cli/internal/config"
	"github.com/sells-group/painpoint-cli/internal/extract"
	"github.com/sells-group/painpoint-cli/internal/model"
	"github.com/sells-group/painpoint-cli/internal/store"
)

// Request is one run's input.
type Request struct {
	Topic   string   `json:"topic"`
	Records []any    `json:"records"`
	Errors  []string `json:"errors,omitempty"`
	// BatchSize overrides extraction.batch_size when positive.
	BatchSize int `json:"batch_size,omitempty"`
}

// ErrNoStore is returned by Submit when no run store is configured.
var ErrNoStore = eris.New("pipeline: background runs need a run store")

// Pipeline wires the aggregator, the extractor and an optional run store.
type Pipeline struct {
	agg          *aggregate.Aggregator
	ext          *extract.Extractor
	store        store.Store
	batchSize    int
	maxDocuments int

	inflight sync.WaitGroup
}

// New creates a Pipeline. st may be nil, in which case runs are not
// persisted.
func New(agg *aggregate.Aggregator, ext *extract.Extractor, st store.Store, cfg config.ExtractionConfig) *Pipeline {
	return &Pipeline{
		agg:          agg,
		ext:          ext,
		store:        st,
		batchSize:    cfg.BatchSize,
		maxDocuments: cfg.MaxDocuments,
	}
}

// Aggregate runs only the aggregation stage.
func (p *Pipeline) Aggregate(req Request) aggregate.Result {
	return p.agg.Aggregate(req.Records, req.Errors)
}

// Run aggregates the request's records, extracts pain points from the
// ranked items and stores the result. On cancellation during extraction
// the partial result is returned with the context error.
func (p *Pipeline) Run(ctx context.Context, req Request) (*model.RunResult, error) {
	var runID string
	if p.store != nil {
		run, err := p.store.CreateRun(ctx, req.Topic)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		runID = run.ID
	}
	return p.execute(ctx, runID, req)
}

// Submit records a queued run and executes it in the background under ctx.
// Use Wait to drain submitted runs.
func (p *Pipeline) Submit(ctx context.Context, req Request) (*model.Run, error) {
	if p.store == nil {
		return nil, ErrNoStore
	}
	run, err := p.store.CreateRun(ctx, req.Topic)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}

	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		if _, err := p.execute(ctx, run.ID, req); err != nil {
			zap.L().Error("pipeline: background run failed", zap.String("run_id", run.ID), zap.Error(err))
		}
	}()
	return run, nil
}

// Wait blocks until every submitted run has finished.
func (p *Pipeline) Wait() {
	p.inflight.Wait()
}

func (p *Pipeline) execute(ctx context.Context, runID string, req Request) (*model.RunResult, error) {
	start := time.Now()
	log := zap.L().With(zap.String("topic", req.Topic), zap.Int("records", len(req.Records)))
	if runID != "" {
		log = log.With(zap.String("run_id", runID))
	}
	log.Info("pipeline: starting run")

	result := &model.RunResult{RunID: runID, Topic: req.Topic}

	setStatus := func(status model.RunStatus) {
		if p.store == nil {
			return
		}
		if err := p.store.UpdateRunStatus(ctx, runID, status); err != nil {
			log.Warn("pipeline: failed to update status", zap.Error(err))
		}
	}

	// Aggregation.
	setStatus(model.RunStatusAggregating)
	var agg aggregate.Result
	p.trackPhase(log, result, "aggregate", func(ph *model.PhaseResult) error {
		agg = p.Aggregate(req)
		ph.Metadata = map[string]any{
			"input_items":           agg.Metadata.InputItems,
			"deduped_items":         agg.Metadata.DedupedItems,
			"deduped_by_url":        agg.Metadata.DedupedByURL,
			"deduped_by_similarity": agg.Metadata.DedupedBySimilarity,
			"skipped":               len(agg.Metadata.Skipped),
		}
		return nil
	})
	result.Items = agg.Items
	result.Metadata = agg.Metadata

	docs := p.documents(agg.Items)

	// Extraction.
	setStatus(model.RunStatusExtracting)
	var runErr error
	ph := p.trackPhase(log, result, "extract", func(ph *model.PhaseResult) error {
		if len(docs) == 0 {
			ph.Status = model.PhaseStatusSkipped
			return nil
		}
		if p.ext == nil {
			ph.Status = model.PhaseStatusSkipped
			ph.Metadata = map[string]any{"documents": len(docs), "reason": "no extractor configured"}
			return nil
		}

		batchSize := p.batchSize
		if req.BatchSize > 0 {
			batchSize = req.BatchSize
		}
		ext, err := p.ext.Extract(ctx, docs, batchSize)
		if ext != nil {
			result.PainPoints = ext.PainPoints
			result.Extraction = ext.Report
			ph.TokenUsage = ext.Report.TokenUsage
			ph.Metadata = map[string]any{
				"documents":         len(docs),
				"batches":           len(ext.Report.Batches),
				"batches_skipped":   ext.Report.BatchesSkipped,
				"entities_dropped":  ext.Report.EntitiesDropped,
				"pain_points_found": len(ext.PainPoints),
			}
		}
		if err != nil {
			runErr = err
			return err
		}
		if n := len(ext.Report.Batches); n > 0 && ext.Report.BatchesSucceeded == 0 {
			return eris.Errorf("all %d extraction batches were skipped", n)
		}
		return nil
	})
	if result.PainPoints == nil {
		result.PainPoints = []model.PainPoint{}
	}
	result.DurationMs = time.Since(start).Milliseconds()

	if runErr != nil {
		p.fail(ctx, log, runID, runErr)
		return result, eris.Wrap(runErr, "pipeline: extraction interrupted")
	}

	if p.store != nil {
		if err := p.store.CompleteRun(ctx, runID, result); err != nil {
			return result, eris.Wrap(err, "pipeline: store result")
		}
	}

	log.Info("pipeline: run complete",
		zap.Int("items", len(result.Items)),
		zap.Int("pain_points", len(result.PainPoints)),
		zap.String("extract_status", string(ph.Status)),
		zap.Int64("duration_ms", result.DurationMs),
	)
	return result, nil
}

// documents converts ranked items to extraction input, keeping the top
// maxDocuments when set.
func (p *Pipeline) documents(items []model.AggregatedItem) []model.Document {
	n := len(items)
	if p.maxDocuments > 0 && n > p.maxDocuments {
		n = p.maxDocuments
	}
	docs := make([]model.Document, 0, n)
	for _, it := range items[:n] {
		docs = append(docs, it.Document())
	}
	return docs
}

func (p *Pipeline) trackPhase(log *zap.Logger, result *model.RunResult, name string, fn func(*model.PhaseResult) error) model.PhaseResult {
	ph := model.PhaseResult{Name: name}
	start := time.Now()
	err := fn(&ph)
	ph.Duration = time.Since(start).Milliseconds()

	switch {
	case err != nil:
		ph.Status = model.PhaseStatusFailed
		ph.Error = err.Error()
		log.Error("pipeline: phase failed",
			zap.String("phase", name),
			zap.Int64("duration_ms", ph.Duration),
			zap.Error(err),
		)
	case ph.Status == "":
		ph.Status = model.PhaseStatusComplete
		log.Info("pipeline: phase complete",
			zap.String("phase", name),
			zap.Int64("duration_ms", ph.Duration),
		)
	default:
		log.Info(fmt.Sprintf("pipeline: phase %s", ph.Status), zap.String("phase", name))
	}

	result.Phases = append(result.Phases, ph)
	return ph
}

func (p *Pipeline) fail(ctx context.Context, log *zap.Logger, runID string, cause error) {
	if p.store == nil {
		return
	}
	if err := p.store.FailRun(context.WithoutCancel(ctx), runID, cause.Error()); err != nil {
		log.Warn("pipeline: failed to record run failure", zap.Error(err))
	}
}
