package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks that the settings required by the given command mode are
// present and in range. Modes: aggregate, run, batch, serve, runs.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "aggregate":
	case "run", "batch", "serve":
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
		problems = append(problems, c.validateStore()...)
	case "runs":
		if c.Store.Driver == "" || c.Store.Driver == "none" {
			problems = append(problems, "store.driver must be sqlite or postgres to inspect runs")
		}
		problems = append(problems, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if mode == "serve" && c.Server.Port <= 0 {
		problems = append(problems, "server.port must be > 0")
	}
	if mode == "serve" && c.Monitoring.Enabled {
		if c.Store.Driver == "" || c.Store.Driver == "none" {
			problems = append(problems, "monitoring needs a run store")
		}
		if c.Monitoring.LookbackWindowHours <= 0 {
			problems = append(problems, "monitoring.lookback_window_hours must be > 0")
		}
		if c.Monitoring.FailureRateThreshold < 0 || c.Monitoring.FailureRateThreshold > 1 {
			problems = append(problems, "monitoring.failure_rate_threshold must be in [0, 1]")
		}
	}
	if mode == "batch" && (c.Batch.MaxConcurrentRuns < 1 || c.Batch.MaxConcurrentRuns > 50) {
		problems = append(problems, "batch.max_concurrent_runs must be between 1 and 50")
	}
	if c.Extraction.BatchSize < 0 {
		problems = append(problems, "extraction.batch_size must be >= 0")
	}
	if c.Extraction.MaxDocuments < 0 {
		problems = append(problems, "extraction.max_documents must be >= 0")
	}

	if len(problems) > 0 {
		return eris.New(fmt.Sprintf("config: invalid for %s: %s", mode, strings.Join(problems, "; ")))
	}
	return nil
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "none", "":
		return nil
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			return []string{"store.database_url is required"}
		}
		return nil
	default:
		return []string{fmt.Sprintf("store.driver %q is not supported", c.Store.Driver)}
	}
}
