package commands

import (
	"time"

	"nutrisync-backend/services/nutrition/runlog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var runsDb *string
var runsLimit *int

func init() {
	runsDb = runsCmd.Flags().String("db", "runlog.db", "The run log database to read.")
	runsLimit = runsCmd.Flags().Int("limit", 20, "How many runs to show.")
	rootCmd.AddCommand(runsCmd)
}

var runsCmd = &cobra.Command{
	Use:   "runs [--db <path/to/runlog.db>] [--limit <n>]",
	Short: "Shows the most recent sync runs recorded by the daemon.",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := runlog.Open(*runsDb)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.Recent(cmd.Context(), *runsLimit)
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"Started", "Duration", "Outcome", "Points", "Skipped", "Degraded", "Error"})
		for _, run := range runs {
			t.AppendRow(table.Row{
				run.StartedAt.Format(time.ANSIC),
				run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String(),
				run.Outcome,
				run.PointsWritten,
				run.RowsSkipped,
				run.DegradedRows,
				run.Error,
			})
		}
		t.Render()
		return nil
	},
}
