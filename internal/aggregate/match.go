package aggregate

import (
	"math"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/sells-group/painpoint-cli/internal/model"
	"github.com/sells-group/painpoint-cli/internal/textnorm"
)

// MatchReason names the rule that paired an incoming record with an
// existing item.
type MatchReason string

const (
	ReasonCanonicalURL MatchReason = "canonical_url"
	ReasonSimilarText  MatchReason = "similar_text"
)

type matchEntry struct {
	text  []string
	title []string
}

// Matcher finds the existing item an incoming draft duplicates. It scans
// in insertion order and the first match wins.
type Matcher struct {
	threshold      float64
	titleThreshold float64
	byURL          map[string]int
	entries        []matchEntry
}

// NewMatcher creates an empty matcher. Title comparisons use a more lenient
// threshold of max(threshold-0.1, 0.5).
func NewMatcher(threshold float64) *Matcher {
	return &Matcher{
		threshold:      threshold,
		titleThreshold: math.Max(threshold-0.1, 0.5),
		byURL:          make(map[string]int),
	}
}

// Find returns the index of the item that candidate duplicates.
func (m *Matcher) Find(candidate model.AggregatedItem) (int, MatchReason, bool) {
	if candidate.CanonicalURL != "" {
		if idx, ok := m.byURL[candidate.CanonicalURL]; ok {
			return idx, ReasonCanonicalURL, true
		}
	}

	text := splitRunes(candidate.NormalizedText)
	if len(text) == 0 {
		return 0, "", false
	}
	title := splitRunes(candidate.Title)

	for idx, existing := range m.entries {
		if len(existing.text) == 0 {
			continue
		}
		if lengthBound(len(text), len(existing.text)) < m.threshold {
			continue
		}
		if ratio(text, existing.text) >= m.threshold {
			return idx, ReasonSimilarText, true
		}
		if len(title) == 0 || len(existing.title) == 0 {
			continue
		}
		if lengthBound(len(title), len(existing.title)) < m.titleThreshold {
			continue
		}
		if ratio(title, existing.title) >= m.titleThreshold {
			return idx, ReasonSimilarText, true
		}
	}
	return 0, "", false
}

// Add registers a new item and returns its index.
func (m *Matcher) Add(item model.AggregatedItem) int {
	idx := len(m.entries)
	m.entries = append(m.entries, entryFor(item))
	if item.CanonicalURL != "" {
		m.byURL[item.CanonicalURL] = idx
	}
	return idx
}

// Replace refreshes the comparison text of a merged item. The URL index is
// only written by Add.
func (m *Matcher) Replace(idx int, item model.AggregatedItem) {
	m.entries[idx] = entryFor(item)
}

// Similarity is the case-folded SequenceMatcher ratio of a and b.
func Similarity(a, b string) float64 {
	return ratio(splitRunes(a), splitRunes(b))
}

func entryFor(item model.AggregatedItem) matchEntry {
	return matchEntry{
		text:  splitRunes(item.NormalizedText),
		title: splitRunes(item.Title),
	}
}

func ratio(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	return difflib.NewMatcher(a, b).Ratio()
}

// lengthBound is the upper bound min/max on the similarity ratio of two
// sequences of the given lengths.
func lengthBound(a, b int) float64 {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi == 0 {
		return 0
	}
	return float64(lo) / float64(hi)
}

func splitRunes(s string) []string {
	folded := textnorm.Fold(s)
	if folded == "" {
		return nil
	}
	out := make([]string, 0, len(folded))
	for _, r := range folded {
		out = append(out, string(r))
	}
	return out
}
