package painpoint

import (
	"github.com/sells-group/painpoint-cli/internal/model"
	"github.com/sells-group/painpoint-cli/internal/textnorm"
)

// Deduplicator merges pain points that share a case-insensitive, trimmed
// name. Buckets keep first-seen order. Not safe for concurrent use.
type Deduplicator struct {
	index  map[string]int
	points []model.PainPoint
}

// NewDeduplicator creates an empty Deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{index: make(map[string]int)}
}

// Seed loads previously merged points, for example from an earlier run.
func (d *Deduplicator) Seed(points []model.PainPoint) {
	d.Add(points...)
}

// Add folds points into the running set.
func (d *Deduplicator) Add(points ...model.PainPoint) {
	for _, p := range points {
		key := textnorm.Key(p.Name)
		idx, ok := d.index[key]
		if !ok {
			d.index[key] = len(d.points)
			d.points = append(d.points, Enrich(p))
			continue
		}
		d.points[idx] = merge(d.points[idx], p)
	}
}

// Len reports the number of distinct pain points.
func (d *Deduplicator) Len() int { return len(d.points) }

// Points returns a copy of the merged pain points.
func (d *Deduplicator) Points() []model.PainPoint {
	out := make([]model.PainPoint, len(d.points))
	copy(out, d.points)
	return out
}

// Deduplicate merges points in one pass.
func Deduplicate(points []model.PainPoint) []model.PainPoint {
	d := NewDeduplicator()
	d.Add(points...)
	return d.Points()
}

// merge folds incoming into base: sources and examples are unioned, the
// longer description wins, and derived attributes are recomputed.
func merge(base, incoming model.PainPoint) model.PainPoint {
	merged := base
	merged.Sources = uniqueSources(base.Sources, incoming.Sources)
	merged.Examples = uniqueExamples(base.Examples, incoming.Examples)
	if len([]rune(incoming.Description)) > len([]rune(base.Description)) {
		merged.Description = incoming.Description
	}
	return Enrich(merged)
}
