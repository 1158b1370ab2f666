package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/painpoint-cli/internal/aggregate"
	"github.com/sells-group/painpoint-cli/internal/config"
	"github.com/sells-group/painpoint-cli/internal/extract"
	"github.com/sells-group/painpoint-cli/internal/llm"
	"github.com/sells-group/painpoint-cli/internal/pipeline"
	"github.com/sells-group/painpoint-cli/internal/store"
	"github.com/sells-group/painpoint-cli/pkg/anthropic"
)

// appEnv holds the store and pipeline shared by run, batch and serve.
type appEnv struct {
	Store    store.Store // nil when store.driver is none
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates cfg for mode, opens the store and builds the pipeline
// with the Anthropic backend. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	gen := llm.NewAnthropic(anthropic.NewClient(cfg.Anthropic.Key), cfg)
	p, err := newPipeline(cfg, gen, st)
	if err != nil {
		if st != nil {
			_ = st.Close()
		}
		return nil, err
	}
	return &appEnv{Store: st, Pipeline: p}, nil
}

// newPipeline builds a pipeline from config. gen may be nil for
// aggregation-only use; st may be nil to disable run history.
func newPipeline(c *config.Config, gen llm.Generator, st store.Store) (*pipeline.Pipeline, error) {
	settings, err := aggregate.NewSettings(c.Aggregation)
	if err != nil {
		return nil, eris.Wrap(err, "aggregation settings")
	}
	agg, err := aggregate.New(settings)
	if err != nil {
		return nil, err
	}

	var ext *extract.Extractor
	if gen != nil {
		ext = extract.New(gen, c.Extraction.BatchSize)
	}
	return pipeline.New(agg, ext, st, c.Extraction), nil
}
