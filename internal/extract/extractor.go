// Package extract turns batches of documents into pain points using a text
// generation backend.
package extract

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/painpoint-cli/internal/extract/schema"
	"github.com/sells-group/painpoint-cli/internal/llm"
	"github.com/sells-group/painpoint-cli/internal/model"
	"github.com/sells-group/painpoint-cli/internal/painpoint"
)

// DefaultBatchSize is used when a non-positive batch size is requested.
const DefaultBatchSize = 10

// Result holds the merged pain points and per-batch accounting.
type Result struct {
	PainPoints []model.PainPoint       `json:"pain_points"`
	Report     model.ExtractionReport `json:"report"`
}

// Extractor runs documents through the generator in sequential batches.
type Extractor struct {
	gen              llm.Generator
	prompts          PromptBuilder
	defaultBatchSize int
}

// New creates an Extractor. batchSize <= 0 selects DefaultBatchSize.
func New(gen llm.Generator, batchSize int) *Extractor {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Extractor{gen: gen, defaultBatchSize: batchSize}
}

// Extract processes docs in contiguous chunks of at most batchSize and
// merges the entities of every chunk. A chunk whose backend call or reply
// fails contributes nothing; the remaining chunks still run.
//
// Cancellation is checked between chunks. A chunk already sent to the
// backend runs to completion. On cancellation the partial result is
// returned together with the context error.
func (e *Extractor) Extract(ctx context.Context, docs []model.Document, batchSize int) (*Result, error) {
	return e.ExtractInto(ctx, painpoint.NewDeduplicator(), docs, batchSize)
}

// ExtractInto is Extract with a caller-owned Deduplicator, so results can be
// merged with pain points from earlier runs.
func (e *Extractor) ExtractInto(ctx context.Context, dedup *painpoint.Deduplicator, docs []model.Document, batchSize int) (*Result, error) {
	if batchSize <= 0 {
		batchSize = e.defaultBatchSize
	}

	res := &Result{Report: model.ExtractionReport{PromptVersion: PromptVersion, Batches: []model.BatchReport{}}}
	finish := func() *Result {
		res.PainPoints = dedup.Points()
		return res
	}

	for i, batch := range chunk(docs, batchSize) {
		if err := ctx.Err(); err != nil {
			zap.L().Info("extract: cancelled before batch",
				zap.Int("batch", i+1),
				zap.Int("remaining_documents", len(docs)-i*batchSize),
			)
			return finish(), err
		}

		report := e.runBatch(context.WithoutCancel(ctx), i+1, batch, dedup)
		res.Report.Batches = append(res.Report.Batches, report.BatchReport)
		res.Report.TokenUsage.Add(report.TokenUsage)
		res.Report.EntitiesDropped += report.EntitiesDropped
		if report.Skipped {
			res.Report.BatchesSkipped++
		} else {
			res.Report.BatchesSucceeded++
		}
		if report.notes != nil {
			res.Report.AnalysisNotes.Merge(*report.notes)
		}
	}

	return finish(), nil
}

type batchOutcome struct {
	model.BatchReport
	notes *model.AnalysisNotes
}

func (e *Extractor) runBatch(ctx context.Context, index int, docs []model.Document, dedup *painpoint.Deduplicator) batchOutcome {
	out := batchOutcome{BatchReport: model.BatchReport{Index: index, Documents: len(docs)}}
	log := zap.L().With(zap.Int("batch", index), zap.Int("documents", len(docs)))

	gen, err := e.gen.Generate(ctx, e.prompts.Build(docs))
	if err != nil {
		log.Warn("extract: backend failed, skipping batch", zap.Error(err))
		out.Skipped = true
		out.SkipReason = err.Error()
		return out
	}

	out.Model = gen.Model
	out.ResponseID = gen.ResponseID
	out.LatencyMs = gen.Latency.Milliseconds()
	out.TokenUsage = model.TokenUsage{
		InputTokens:  gen.Usage.PromptTokens,
		OutputTokens: gen.Usage.CompletionTokens,
		TotalTokens:  gen.Usage.TotalTokens,
	}
	if gen.Usage.CostUSD != nil {
		out.TokenUsage.Cost = *gen.Usage.CostUSD
	}

	rawPoints, notes, err := parseResponse(gen.Text)
	if err != nil {
		log.Warn("extract: unparseable response, skipping batch",
			zap.String("response_id", gen.ResponseID),
			zap.Error(err),
		)
		out.Skipped = true
		out.SkipReason = err.Error()
		return out
	}
	out.notes = notes

	for j, raw := range rawPoints {
		p, err := schema.ValidatePainPoint(raw)
		if err != nil {
			log.Debug("extract: dropping invalid entity", zap.Int("entity", j), zap.Error(err))
			out.EntitiesDropped++
			continue
		}
		dedup.Add(painpoint.Enrich(p))
		out.Entities++
	}

	log.Info("extract: batch complete",
		zap.Int("entities", out.Entities),
		zap.Int("dropped", out.EntitiesDropped),
		zap.Int("input_tokens", out.TokenUsage.InputTokens),
		zap.Int("output_tokens", out.TokenUsage.OutputTokens),
	)
	return out
}

// chunk splits docs into contiguous slices of at most size elements.
func chunk(docs []model.Document, size int) [][]model.Document {
	var out [][]model.Document
	for start := 0; start < len(docs); start += size {
		end := min(start+size, len(docs))
		out = append(out, docs[start:end])
	}
	return out
}
