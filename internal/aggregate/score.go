package aggregate

import (
	"math"
	"time"
)

const (
	neutralRecency  = 0.5
	engagementScale = 10.0
)

// RecencyScore decays linearly from 1 (now) to 0 (maxAgeDays old). Items
// without a timestamp score neutral; future timestamps count as now.
func RecencyScore(created *time.Time, now time.Time, maxAgeDays float64) float64 {
	if created == nil {
		return neutralRecency
	}
	ageDays := math.Max(0, now.Sub(*created).Hours()/24)
	return math.Max(0, 1-math.Min(1, ageDays/maxAgeDays))
}

// EngagementScore maps an unbounded engagement signal into [0, 1).
func EngagementScore(signal float64) float64 {
	if signal <= 0 {
		return 0
	}
	return math.Min(1, 1-math.Exp(-signal/engagementScale))
}

// Confidence grows with source count and recency, capped at 1.
func Confidence(sources int, recency float64) float64 {
	return math.Min(1, 0.35+0.25*float64(sources)+0.4*recency)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
