package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/painpoint-cli/internal/model"
	"github.com/sells-group/painpoint-cli/internal/pipeline"
)

var (
	batchInputDir    string
	batchOutputDir   string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run the pipeline for every JSON input file in a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if batchConcurrency > 0 {
			cfg.Batch.MaxConcurrentRuns = batchConcurrency
		}

		files, err := listInputFiles(batchInputDir)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		if batchOutputDir != "" {
			if err := os.MkdirAll(batchOutputDir, 0o755); err != nil {
				return eris.Wrap(err, "create output dir")
			}
		}

		_, failed, err := processFiles(ctx, files, cfg.Batch.MaxConcurrentRuns, batchOutputDir, env.Pipeline.Run)
		if err != nil {
			return err
		}
		if failed > 0 {
			return eris.Errorf("%d of %d runs failed", failed, len(files))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInputDir, "input-dir", ".", "directory of JSON input files")
	batchCmd.Flags().StringVar(&batchOutputDir, "output-dir", "", "write <name>.result.json per input (default: results are only stored)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max concurrent runs (default from config)")
	rootCmd.AddCommand(batchCmd)
}

// listInputFiles returns the *.json files in dir, sorted by name. Result
// files written by an earlier batch are ignored.
func listInputFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "read input dir %s", dir)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" || strings.HasSuffix(name, ".result.json") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

type runFunc func(ctx context.Context, req pipeline.Request) (*model.RunResult, error)

// processFiles runs each input file through run with at most concurrency
// runs in flight. Individual failures are logged and counted; they do not
// abort the batch.
func processFiles(ctx context.Context, files []string, concurrency int, outputDir string, run runFunc) (succeeded, failed int64, err error) {
	if len(files) == 0 {
		zap.L().Info("no input files found")
		return 0, 0, nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("files", len(files)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var ok, bad atomic.Int64

	for _, path := range files {
		g.Go(func() error {
			log := zap.L().With(zap.String("file", path))

			req, err := readRequest(path, nil)
			if err != nil {
				bad.Add(1)
				log.Error("invalid input file", zap.Error(err))
				return nil
			}
			if req.Topic == "" {
				req.Topic = topicFromPath(path)
			}

			result, err := run(gctx, req)
			if err != nil {
				bad.Add(1)
				log.Error("run failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			if outputDir != "" {
				if err := writeResultFile(outputDir, path, result); err != nil {
					bad.Add(1)
					log.Error("write result failed", zap.Error(err))
					return nil
				}
			}

			ok.Add(1)
			log.Info("run complete",
				zap.String("topic", req.Topic),
				zap.Int("pain_points", len(result.PainPoints)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return ok.Load(), bad.Load(), eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", ok.Load()),
		zap.Int64("failed", bad.Load()),
	)
	return ok.Load(), bad.Load(), nil
}

func topicFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func writeResultFile(dir, inputPath string, result *model.RunResult) error {
	out := filepath.Join(dir, topicFromPath(inputPath)+".result.json")
	f, err := os.Create(out)
	if err != nil {
		return eris.Wrapf(err, "create %s", out)
	}
	if err := writeOutput(f, "json", result); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "close %s", out)
}
