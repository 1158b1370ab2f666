// Package cost prices generation calls from token usage.
package cost

import (
	"github.com/sells-group/painpoint-cli/internal/config"
)

// Usage is the token breakdown of one Claude call.
type Usage struct {
	Input      int
	Output     int
	CacheWrite int
	CacheRead  int
}

// Calculator computes USD cost for Claude usage.
type Calculator struct {
	rates map[string]config.ModelPricing
}

// NewCalculator merges configured rates over DefaultRates.
func NewCalculator(p config.PricingConfig) *Calculator {
	rates := DefaultRates()
	for model, r := range p.Anthropic {
		rates[model] = r
	}
	return &Calculator{rates: rates}
}

// Known reports whether the model has a rate.
func (c *Calculator) Known(model string) bool {
	_, ok := c.rates[model]
	return ok
}

// Claude returns the cost of a call, or ok=false when the model is unpriced.
func (c *Calculator) Claude(model string, isBatch bool, u Usage) (float64, bool) {
	rate, ok := c.rates[model]
	if !ok {
		return 0, false
	}

	mul := 1.0
	if isBatch && rate.BatchDiscount > 0 {
		mul = rate.BatchDiscount
	}

	in := perMillion(u.Input) * rate.Input
	out := perMillion(u.Output) * rate.Output
	cw := perMillion(u.CacheWrite) * rate.Input * rate.CacheWriteMul
	cr := perMillion(u.CacheRead) * rate.Input * rate.CacheReadMul
	return (in + out + cw + cr) * mul, true
}

func perMillion(n int) float64 { return float64(n) / 1e6 }

// DefaultRates returns list prices for the models the CLI is tuned for.
func DefaultRates() map[string]config.ModelPricing {
	return map[string]config.ModelPricing{
		"claude-haiku-4-5-20251001": {
			Input: 1.00, Output: 5.00,
			BatchDiscount: 0.5, CacheWriteMul: 1.25, CacheReadMul: 0.1,
		},
		"claude-sonnet-4-5-20250929": {
			Input: 3.00, Output: 15.00,
			BatchDiscount: 0.5, CacheWriteMul: 1.25, CacheReadMul: 0.1,
		},
		"claude-opus-4-6": {
			Input: 15.00, Output: 75.00,
			BatchDiscount: 0.5, CacheWriteMul: 1.25, CacheReadMul: 0.1,
		},
	}
}
