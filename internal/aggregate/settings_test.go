package aggregate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/painpoint-cli/internal/config"
)

func baseConfig() config.AggregationConfig {
	return config.AggregationConfig{
		RecencyWeight:          0.55,
		EngagementWeight:       0.45,
		MaxItemAgeDays:         365,
		NearDuplicateThreshold: 0.82,
		CommentWeight:          0.5,
		RedditSourceWeight:     1.0,
		GoogleSourceWeight:     0.9,
		DefaultSourceWeight:    0.75,
	}
}

func TestNewSettings_NormalizesWeights(t *testing.T) {
	cfg := baseConfig()
	cfg.RecencyWeight = 3
	cfg.EngagementWeight = 1

	s, err := NewSettings(cfg)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, s.RecencyWeight, 1e-9)
	assert.InDelta(t, 0.25, s.EngagementWeight, 1e-9)
}

func TestNewSettings_DefaultsSumToOne(t *testing.T) {
	s := DefaultSettings()
	assert.InDelta(t, 0.55, s.RecencyWeight, 1e-9)
	assert.InDelta(t, 0.45, s.EngagementWeight, 1e-9)
	assert.InDelta(t, 0.82, s.NearDuplicateThreshold, 1e-9)
}

func TestNewSettings_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.AggregationConfig)
		want   string
	}{
		{"negative recency", func(c *config.AggregationConfig) { c.RecencyWeight = -0.1 }, "recency_weight"},
		{"nan engagement", func(c *config.AggregationConfig) { c.EngagementWeight = math.NaN() }, "engagement_weight"},
		{"zero sum", func(c *config.AggregationConfig) { c.RecencyWeight, c.EngagementWeight = 0, 0 }, "must be > 0"},
		{"infinite reddit weight", func(c *config.AggregationConfig) { c.RedditSourceWeight = math.Inf(1) }, "reddit_source_weight"},
		{"negative default weight", func(c *config.AggregationConfig) { c.DefaultSourceWeight = -1 }, "default_source_weight"},
		{"negative comment weight", func(c *config.AggregationConfig) { c.CommentWeight = -0.5 }, "comment_weight"},
		{"threshold above one", func(c *config.AggregationConfig) { c.NearDuplicateThreshold = 1.5 }, "near_duplicate_threshold"},
		{"zero max age", func(c *config.AggregationConfig) { c.MaxItemAgeDays = 0 }, "max_item_age_days"},
		{"negative override", func(c *config.AggregationConfig) {
			c.ExtraSourceWeights = map[string]float64{"hackernews": -2}
		}, "extra_source_weights.hackernews"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(&cfg)
			_, err := NewSettings(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNew_RejectsZeroSettings(t *testing.T) {
	_, err := New(Settings{})
	assert.Error(t, err)
}

func TestSettings_SourceWeight(t *testing.T) {
	cfg := baseConfig()
	cfg.ExtraSourceWeights = map[string]float64{"HackerNews": 0.95, "reddit_ads": 0.1}
	s, err := NewSettings(cfg)
	require.NoError(t, err)

	tests := []struct {
		platform string
		want     float64
	}{
		{"reddit", 1.0},
		{"Reddit Comments", 1.0},
		{"google_search", 0.9},
		{"twitter", 0.75},
		{"", 0.75},
		{"hackernews", 0.95},
		{"REDDIT_ADS", 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.SourceWeight(tt.platform), 1e-9)
		})
	}
}
