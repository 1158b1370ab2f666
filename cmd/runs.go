package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/painpoint-cli/internal/model"
	"github.com/sells-group/painpoint-cli/internal/monitoring"
	"github.com/sells-group/painpoint-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect run history",
	Long:  "Commands for listing and viewing stored pipeline runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openRunStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		topic, _ := cmd.Flags().GetString("topic")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status: model.RunStatus(status),
			Topic:  topic,
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs get --

var runsGetCmd = &cobra.Command{
	Use:   "get <run-id>",
	Short: "Show a run with its stored result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openRunStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "runs get")
		}

		format, _ := cmd.Flags().GetString("format")
		return writeOutput(os.Stdout, format, run)
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recent runs: outcomes, spend and pain points found",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := openRunStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		hours, _ := cmd.Flags().GetInt("hours")
		if hours <= 0 {
			return eris.New("--hours must be > 0")
		}
		snap, err := monitoring.NewCollector(st).Collect(cmd.Context(), hours)
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		formatStats(os.Stdout, snap)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by status (queued, aggregating, extracting, complete, failed)")
	runsListCmd.Flags().String("topic", "", "filter by topic")
	runsListCmd.Flags().Int("limit", 20, "max runs to show")
	runsListCmd.Flags().Int("offset", 0, "runs to skip")

	runsGetCmd.Flags().String("format", "json", "output format: json or yaml")

	runsStatsCmd.Flags().Int("hours", 24, "lookback window in hours")

	runsCmd.AddCommand(runsListCmd, runsGetCmd, runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

func openRunStore(cmd *cobra.Command) (store.Store, error) {
	if err := cfg.Validate("runs"); err != nil {
		return nil, err
	}
	return store.Open(cmd.Context(), cfg.Store)
}

const (
	colID     = 10
	colTopic  = 28
	colStatus = 12
)

// formatRunsList writes runs as an aligned table. Topics are truncated by
// display width so wide characters keep columns aligned.
func formatRunsList(w io.Writer, runs []model.Run) {
	row := func(id, topic, status, created, errMsg string) {
		line := runewidth.FillRight(id, colID) + "  " +
			runewidth.FillRight(runewidth.Truncate(topic, colTopic, "…"), colTopic) + "  " +
			runewidth.FillRight(status, colStatus) + "  " +
			created
		if errMsg != "" {
			line += "  " + errMsg
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}

	row("ID", "TOPIC", "STATUS", "CREATED", "")
	for _, r := range runs {
		row(
			truncateID(r.ID),
			r.Topic,
			string(r.Status),
			r.CreatedAt.UTC().Format("2006-01-02 15:04"),
			runewidth.Truncate(r.Error, 60, "…"),
		)
	}
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatStats(w io.Writer, snap *monitoring.MetricsSnapshot) {
	fmt.Fprintf(w, "Runs in last %dh:  %d\n", snap.LookbackHours, snap.RunsTotal)
	fmt.Fprintf(w, "  complete:       %d\n", snap.RunsComplete)
	fmt.Fprintf(w, "  failed:         %d (%.1f%%)\n", snap.RunsFailed, snap.FailRate*100)
	fmt.Fprintf(w, "  in flight:      %d\n", snap.RunsInFlight)
	fmt.Fprintf(w, "Pain points:      %d\n", snap.PainPoints)
	fmt.Fprintf(w, "Batches skipped:  %d\n", snap.BatchesSkipped)
	fmt.Fprintf(w, "Avg tokens/run:   %d\n", snap.AvgTokens)
	fmt.Fprintf(w, "Claude spend:     $%.4f\n", snap.CostUSD)
}
