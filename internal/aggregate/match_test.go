package aggregate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/painpoint-cli/internal/model"
)

func textItem(title, body, url string) model.AggregatedItem {
	return model.AggregatedItem{
		Title:          title,
		NormalizedText: strings.TrimSpace(joinNonEmpty(title, body)),
		CanonicalURL:   CanonicalURL(url),
	}
}

func TestSimilarity(t *testing.T) {
	// 17 shared leading characters out of 20 + 20.
	assert.InDelta(t, 0.85, Similarity("abcdefghijklmnopqrst", "abcdefghijklmnopqXYZ"), 1e-9)
	assert.InDelta(t, 0.5, Similarity("abcdefghij", "abcdeVWXYZ"), 1e-9)
	assert.InDelta(t, 1.0, Similarity("Checkout", "CHECKOUT"), 1e-9)
}

func TestMatcher_CanonicalURL(t *testing.T) {
	m := NewMatcher(0.82)
	m.Add(textItem("first", "alpha", "https://Example.com/post/"))

	idx, reason, ok := m.Find(textItem("second", "completely different", "https://example.com/post"))
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, ReasonCanonicalURL, reason)
}

func TestMatcher_FuzzyThreshold(t *testing.T) {
	existing := textItem("", "abcdefghijklmnopqrst", "")
	candidate := textItem("", "abcdefghijklmnopqXYZ", "")

	loose := NewMatcher(0.8)
	loose.Add(existing)
	idx, reason, ok := loose.Find(candidate)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, ReasonSimilarText, reason)

	strict := NewMatcher(0.9)
	strict.Add(existing)
	_, _, ok = strict.Find(candidate)
	assert.False(t, ok)
}

func TestMatcher_HalfSimilarNotMerged(t *testing.T) {
	m := NewMatcher(0.8)
	m.Add(textItem("", "abcdefghij", ""))

	_, _, ok := m.Find(textItem("", "abcdeVWXYZ", ""))
	assert.False(t, ok)
}

func TestMatcher_TitleFallback(t *testing.T) {
	m := NewMatcher(0.82)
	m.Add(textItem("Payment failure", strings.Repeat("x", 20), ""))

	// Bodies share nothing, titles are close enough for the lenient check.
	idx, reason, ok := m.Find(textItem("Payment fails", strings.Repeat("q", 20), ""))
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, ReasonSimilarText, reason)
}

func TestMatcher_LengthBoundSkipsTitleCheck(t *testing.T) {
	m := NewMatcher(0.82)
	m.Add(textItem("same title", "a long body that makes the texts differ greatly in length", ""))

	_, _, ok := m.Find(textItem("same title", "", ""))
	assert.False(t, ok)
}

func TestMatcher_EmptyTextNeverFuzzyMatches(t *testing.T) {
	m := NewMatcher(0)
	m.Add(textItem("", "", ""))

	_, _, ok := m.Find(textItem("", "", ""))
	assert.False(t, ok)

	_, _, ok = m.Find(textItem("", "anything", ""))
	assert.False(t, ok)
}

func TestMatcher_FirstMatchWins(t *testing.T) {
	m := NewMatcher(0.82)
	m.Add(textItem("", "checkout gateway times out", ""))
	m.Add(textItem("", "checkout gateway times out", ""))

	idx, _, ok := m.Find(textItem("", "checkout gateway times out", ""))
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestMatcher_ReplaceRefreshesText(t *testing.T) {
	m := NewMatcher(0.9)
	m.Add(textItem("", "abcdefghij", ""))

	_, _, ok := m.Find(textItem("", "klmnopqrst", ""))
	assert.False(t, ok)

	m.Replace(0, textItem("", "klmnopqrst", ""))
	idx, _, ok := m.Find(textItem("", "klmnopqrst", ""))
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}
