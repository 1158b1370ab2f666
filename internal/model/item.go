package model

import "time"

// SourceRecord identifies one provenance entry of an aggregated item.
type SourceRecord struct {
	ID              string `json:"id"`
	Platform        string `json:"platform"`
	URL             string `json:"url,omitempty"`
	RankingPosition *int   `json:"ranking_position,omitempty"`
}

// AggregatedItem is a deduplicated observation built from one or more raw
// records. CanonicalURL and NormalizedText are internal to matching.
type AggregatedItem struct {
	ID                  string         `json:"id,omitempty"`
	Platform            string         `json:"platform"`
	URL                 string         `json:"url,omitempty"`
	Permalink           string         `json:"permalink,omitempty"`
	Title               string         `json:"title,omitempty"`
	Text                string         `json:"text,omitempty"`
	Author              string         `json:"author,omitempty"`
	CreatedAt           *time.Time     `json:"created_at"`
	EngagementSignal    float64        `json:"engagement_signal"`
	SourceWeight        float64        `json:"source_weight"`
	Sources             []SourceRecord `json:"sources"`
	TransformationNotes []string       `json:"transformation_notes"`
	AggregationScore    float64        `json:"aggregation_score"`
	Confidence          float64        `json:"confidence"`

	CanonicalURL   string `json:"-"`
	NormalizedText string `json:"-"`
}

// Document converts the item into extraction input.
func (it AggregatedItem) Document() Document {
	doc := Document{
		Platform: it.Platform,
		Author:   it.Author,
		URL:      it.URL,
		Summary:  it.Title,
		Content:  it.NormalizedText,
	}
	if doc.URL == "" {
		doc.URL = it.Permalink
	}
	if it.CreatedAt != nil {
		doc.Timestamp = it.CreatedAt.UTC().Format(time.RFC3339)
	}
	return doc
}

// SkippedRecord records an input entry that aggregation could not use.
type SkippedRecord struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// AggregationMetadata summarizes one aggregation call.
type AggregationMetadata struct {
	InputItems            int             `json:"input_items"`
	DedupedItems          int             `json:"deduped_items"`
	DedupedByURL          int             `json:"deduped_by_url"`
	DedupedBySimilarity   int             `json:"deduped_by_similarity"`
	Skipped               []SkippedRecord `json:"skipped,omitempty"`
	Errors                []string        `json:"errors"`
	ProcessingTimeSeconds float64         `json:"processing_time_seconds"`
	SourceCounts          map[string]int  `json:"source_counts"`
}

// Document is one entry of the extraction prompt.
type Document struct {
	Platform  string `json:"platform"`
	Author    string `json:"author,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	URL       string `json:"url,omitempty"`
	Summary   string `json:"summary,omitempty"`
	Content   string `json:"content,omitempty"`
}
