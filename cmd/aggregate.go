package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	aggregateInput  string
	aggregateFormat string
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Merge, deduplicate and rank collected posts without calling Claude",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("aggregate"); err != nil {
			return err
		}

		req, err := readRequest(aggregateInput, cmd.InOrStdin())
		if err != nil {
			return err
		}

		p, err := newPipeline(cfg, nil, nil)
		if err != nil {
			return err
		}

		result := p.Aggregate(req)
		zap.L().Info("aggregation complete",
			zap.Int("input_items", result.Metadata.InputItems),
			zap.Int("deduped_items", result.Metadata.DedupedItems),
			zap.Int("skipped", len(result.Metadata.Skipped)),
		)
		return writeOutput(os.Stdout, aggregateFormat, result)
	},
}

func init() {
	aggregateCmd.Flags().StringVar(&aggregateInput, "input", "-", "input JSON file (- for stdin)")
	aggregateCmd.Flags().StringVar(&aggregateFormat, "format", "json", "output format: json or yaml")
	rootCmd.AddCommand(aggregateCmd)
}
