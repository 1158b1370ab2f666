package model

// Frequency tiers a pain point by how many distinct sources mention it.
type Frequency string

const (
	FrequencyHigh   Frequency = "high"
	FrequencyMedium Frequency = "medium"
	FrequencyLow    Frequency = "low"
)

// Sentiment is the lexical polarity of a pain point.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// PainPointSource is one attribution of a pain point.
type PainPointSource struct {
	Platform  string `json:"platform"`
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
	Author    string `json:"author"`
}

// PainPoint is a recurring user problem extracted from documents.
// Frequency, Sentiment and Relevance are always derived, never taken from
// model output.
type PainPoint struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Frequency   Frequency         `json:"frequency"`
	Examples    []string          `json:"examples"`
	Sources     []PainPointSource `json:"sources"`
	Sentiment   Sentiment         `json:"sentiment"`
	Relevance   float64           `json:"relevance"`
}

// AnalysisNotes carries the optional model commentary attached to a batch.
type AnalysisNotes struct {
	CommonThemes    []string       `json:"common_themes,omitempty"`
	DataCoverage    map[string]int `json:"data_coverage,omitempty"`
	Confidence      string         `json:"confidence,omitempty"`
	ContentWarnings []string       `json:"content_warnings,omitempty"`
}

// Merge folds other into n. Lists are unioned in first-seen order, coverage
// counts are summed, and the first non-empty confidence is kept.
func (n *AnalysisNotes) Merge(other AnalysisNotes) {
	n.CommonThemes = appendUnique(n.CommonThemes, other.CommonThemes...)
	n.ContentWarnings = appendUnique(n.ContentWarnings, other.ContentWarnings...)
	if len(other.DataCoverage) > 0 && n.DataCoverage == nil {
		n.DataCoverage = make(map[string]int, len(other.DataCoverage))
	}
	for k, v := range other.DataCoverage {
		n.DataCoverage[k] += v
	}
	if n.Confidence == "" {
		n.Confidence = other.Confidence
	}
}

func appendUnique(dst []string, values ...string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}
