package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runInput     string
	runTopic     string
	runBatchSize int
	runFormat    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Aggregate posts and extract pain points for one topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		req, err := readRequest(runInput, cmd.InOrStdin())
		if err != nil {
			return err
		}
		if runTopic != "" {
			req.Topic = runTopic
		}
		if runBatchSize > 0 {
			req.BatchSize = runBatchSize
		}

		env, err := initEnv(ctx, "run")
		if err != nil {
			return err
		}
		defer env.Close()

		result, runErr := env.Pipeline.Run(ctx, req)
		if result != nil {
			// Partial results are still written when the run is interrupted.
			if err := writeOutput(os.Stdout, runFormat, result); err != nil {
				return err
			}
		}
		if runErr != nil {
			return runErr
		}

		zap.L().Info("run complete",
			zap.String("topic", result.Topic),
			zap.Int("pain_points", len(result.PainPoints)),
		)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "-", "input JSON file (- for stdin)")
	runCmd.Flags().StringVar(&runTopic, "topic", "", "topic label, overrides the input's topic")
	runCmd.Flags().IntVar(&runBatchSize, "batch-size", 0, "documents per extraction call (default from config)")
	runCmd.Flags().StringVar(&runFormat, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(runCmd)
}
