// Package painpoint derives and merges attributes of extracted pain points.
package painpoint

import (
	"math"
	"net/url"
	"strings"

	"github.com/sells-group/painpoint-cli/internal/model"
	"github.com/sells-group/painpoint-cli/internal/textnorm"
)

// FrequencyFor tiers the number of distinct mentioning sources.
func FrequencyFor(distinctSources int) model.Frequency {
	switch {
	case distinctSources >= 3:
		return model.FrequencyHigh
	case distinctSources == 2:
		return model.FrequencyMedium
	default:
		return model.FrequencyLow
	}
}

var tierBonus = map[model.Frequency]float64{
	model.FrequencyLow:    0.1,
	model.FrequencyMedium: 0.2,
	model.FrequencyHigh:   0.3,
}

// Relevance weighs source count (up to 10), platform spread (up to 3) and
// the frequency tier. The result is clamped to [0, 1].
func Relevance(sources, platforms int, freq model.Frequency) float64 {
	score := 0.4*math.Min(float64(sources), 10)/10 +
		0.3*math.Min(float64(platforms), 3)/3 +
		tierBonus[freq]
	score = math.Max(0, math.Min(1, score))
	return math.Round(score*1000) / 1000
}

// Enrich recomputes the derived attributes of p from its own content.
// Model-supplied frequency, sentiment and relevance are discarded.
func Enrich(p model.PainPoint) model.PainPoint {
	p.Sources = uniqueSources(nil, p.Sources)
	p.Examples = uniqueExamples(nil, p.Examples)

	p.Frequency = FrequencyFor(len(p.Sources))
	p.Sentiment = Sentiment(append([]string{p.Description}, p.Examples...)...)
	p.Relevance = Relevance(len(p.Sources), distinctPlatforms(p.Sources), p.Frequency)
	return p
}

type sourceKey struct{ platform, author, url string }

func keyOf(s model.PainPointSource) sourceKey {
	return sourceKey{textnorm.Key(s.Platform), textnorm.Key(s.Author), urlKey(s.URL)}
}

// urlKey folds only the scheme and host of u; path and query are
// case-sensitive.
func urlKey(u string) string {
	u = strings.TrimSpace(u)
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return u
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	return parsed.String()
}

// uniqueSources appends incoming to dst, skipping (platform, author, url)
// identities already present. Order is first-seen.
func uniqueSources(dst, incoming []model.PainPointSource) []model.PainPointSource {
	seen := make(map[sourceKey]struct{}, len(dst)+len(incoming))
	for _, s := range dst {
		seen[keyOf(s)] = struct{}{}
	}
	out := append(make([]model.PainPointSource, 0, len(dst)+len(incoming)), dst...)
	for _, s := range incoming {
		k := keyOf(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

// uniqueExamples appends incoming to dst case-insensitively, dropping blanks.
func uniqueExamples(dst, incoming []string) []string {
	seen := make(map[string]struct{}, len(dst)+len(incoming))
	for _, e := range dst {
		seen[textnorm.Key(e)] = struct{}{}
	}
	out := append(make([]string, 0, len(dst)+len(incoming)), dst...)
	for _, e := range incoming {
		k := textnorm.Key(e)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}
	return out
}

func distinctPlatforms(sources []model.PainPointSource) int {
	platforms := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		if k := textnorm.Key(s.Platform); k != "" {
			platforms[k] = struct{}{}
		}
	}
	return len(platforms)
}
