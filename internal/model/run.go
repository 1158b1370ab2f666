package model

import "time"

// RunStatus represents the current state of a pipeline run.
type RunStatus string

const (
	RunStatusQueued      RunStatus = "queued"
	RunStatusAggregating RunStatus = "aggregating"
	RunStatusExtracting  RunStatus = "extracting"
	RunStatusComplete    RunStatus = "complete"
	RunStatusFailed      RunStatus = "failed"
)

// Run represents a single aggregate-and-extract run for one topic.
type Run struct {
	ID        string     `json:"id"`
	Topic     string     `json:"topic"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	RunID      string              `json:"run_id,omitempty"`
	Topic      string              `json:"topic"`
	Items      []AggregatedItem    `json:"items"`
	Metadata   AggregationMetadata `json:"metadata"`
	PainPoints []PainPoint         `json:"pain_points"`
	Extraction ExtractionReport    `json:"extraction"`
	Phases     []PhaseResult       `json:"phases"`
	DurationMs int64               `json:"duration_ms"`
}

// PhaseStatus represents the current state of a pipeline phase.
type PhaseStatus string

const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// PhaseResult holds the outcome of a pipeline phase.
type PhaseResult struct {
	Name       string         `json:"name"`
	Status     PhaseStatus    `json:"status"`
	Duration   int64          `json:"duration_ms"`
	TokenUsage TokenUsage     `json:"token_usage"`
	Error      string         `json:"error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// BatchReport describes one extraction batch.
type BatchReport struct {
	Index           int        `json:"index"`
	Documents       int        `json:"documents"`
	Entities        int        `json:"entities"`
	EntitiesDropped int        `json:"entities_dropped"`
	Skipped         bool       `json:"skipped"`
	SkipReason      string     `json:"skip_reason,omitempty"`
	Model           string     `json:"model,omitempty"`
	ResponseID      string     `json:"response_id,omitempty"`
	LatencyMs       int64      `json:"latency_ms"`
	TokenUsage      TokenUsage `json:"token_usage"`
}

// ExtractionReport summarizes all batches of one extraction call.
type ExtractionReport struct {
	PromptVersion    string        `json:"prompt_version"`
	Batches          []BatchReport `json:"batches"`
	BatchesSucceeded int           `json:"batches_succeeded"`
	BatchesSkipped   int           `json:"batches_skipped"`
	EntitiesDropped  int           `json:"entities_dropped"`
	TokenUsage       TokenUsage    `json:"token_usage"`
	AnalysisNotes    AnalysisNotes `json:"analysis_notes"`
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	Cost         float64 `json:"cost"`
}

// Add merges token usage from another instance.
func (t *TokenUsage) Add(other TokenUsage) {
	t.InputTokens += other.InputTokens
	t.OutputTokens += other.OutputTokens
	t.TotalTokens += other.TotalTokens
	t.Cost += other.Cost
}
