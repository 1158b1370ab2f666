package aggregate

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/painpoint-cli/internal/config"
)

// Settings is the immutable aggregation configuration. Build it with
// NewSettings; the zero value is not valid.
type Settings struct {
	RecencyWeight          float64
	EngagementWeight       float64
	MaxItemAgeDays         float64
	NearDuplicateThreshold float64
	CommentWeight          float64
	RedditWeight           float64
	GoogleWeight           float64
	DefaultWeight          float64

	overrides map[string]float64
}

// DefaultSettings returns the stock weights.
func DefaultSettings() Settings {
	s, _ := NewSettings(config.AggregationConfig{
		RecencyWeight:          0.55,
		EngagementWeight:       0.45,
		MaxItemAgeDays:         365,
		NearDuplicateThreshold: 0.82,
		CommentWeight:          0.5,
		RedditSourceWeight:     1.0,
		GoogleSourceWeight:     0.9,
		DefaultSourceWeight:    0.75,
	})
	return s
}

// NewSettings validates cfg and normalizes the recency and engagement
// weights so they sum to 1.
func NewSettings(cfg config.AggregationConfig) (Settings, error) {
	s := Settings{
		RecencyWeight:          cfg.RecencyWeight,
		EngagementWeight:       cfg.EngagementWeight,
		MaxItemAgeDays:         cfg.MaxItemAgeDays,
		NearDuplicateThreshold: cfg.NearDuplicateThreshold,
		CommentWeight:          cfg.CommentWeight,
		RedditWeight:           cfg.RedditSourceWeight,
		GoogleWeight:           cfg.GoogleSourceWeight,
		DefaultWeight:          cfg.DefaultSourceWeight,
		overrides:              make(map[string]float64, len(cfg.ExtraSourceWeights)),
	}
	for name, w := range cfg.ExtraSourceWeights {
		if err := checkWeight("extra_source_weights."+name, w); err != nil {
			return Settings{}, err
		}
		s.overrides[strings.ToLower(strings.TrimSpace(name))] = w
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	total := s.RecencyWeight + s.EngagementWeight
	s.RecencyWeight /= total
	s.EngagementWeight /= total
	return s, nil
}

// Validate reports the first invalid field.
func (s Settings) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"recency_weight", s.RecencyWeight},
		{"engagement_weight", s.EngagementWeight},
		{"comment_weight", s.CommentWeight},
		{"reddit_source_weight", s.RedditWeight},
		{"google_source_weight", s.GoogleWeight},
		{"default_source_weight", s.DefaultWeight},
	}
	for _, c := range checks {
		if err := checkWeight(c.name, c.value); err != nil {
			return err
		}
	}
	if s.RecencyWeight+s.EngagementWeight <= 0 {
		return eris.New("aggregate: recency_weight + engagement_weight must be > 0")
	}
	if !isFinite(s.MaxItemAgeDays) || s.MaxItemAgeDays <= 0 {
		return eris.Errorf("aggregate: max_item_age_days must be > 0, got %v", s.MaxItemAgeDays)
	}
	if !isFinite(s.NearDuplicateThreshold) || s.NearDuplicateThreshold < 0 || s.NearDuplicateThreshold > 1 {
		return eris.Errorf("aggregate: near_duplicate_threshold must be in [0, 1], got %v", s.NearDuplicateThreshold)
	}
	return nil
}

// SourceWeight resolves the trust multiplier for a platform name.
func (s Settings) SourceWeight(platform string) float64 {
	p := strings.ToLower(strings.TrimSpace(platform))
	if w, ok := s.overrides[p]; ok {
		return w
	}
	switch {
	case strings.Contains(p, "reddit"):
		return s.RedditWeight
	case strings.Contains(p, "google"):
		return s.GoogleWeight
	default:
		return s.DefaultWeight
	}
}

func checkWeight(name string, w float64) error {
	if !isFinite(w) || w < 0 {
		return eris.Errorf("aggregate: %s must be a finite non-negative number, got %v", name, w)
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
