package commands

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"nutrisync-backend/services/nutrition/normalize"
	"nutrisync-backend/services/nutrition/report"
	"nutrisync-backend/services/nutrition/source"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var parseLookback *int

func init() {
	parseLookback = parseCmd.Flags().Int(
		"lookback", 0,
		"Only keep spreadsheet rows from the last N days (0 keeps everything).",
	)
	rootCmd.AddCommand(parseCmd)
}

var parseCmd = &cobra.Command{
	Use:   "parse <path/to/report.html|report.xlsx>",
	Short: "Parses a report file and prints the points it would write.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		render, err := source.FileSource{Path: args[0]}.Fetch(ctx)
		if err != nil {
			return err
		}

		normalizer := normalize.New()
		if *parseLookback > 0 {
			normalizer.Lookback = time.Duration(*parseLookback) * 24 * time.Hour
		}

		var res report.Result
		var points []normalize.MetricPoint
		if render.IsSpreadsheet() {
			res, err = report.ParseWorkbook(ctx, render.Workbook)
			if err != nil {
				return err
			}
			points = normalizer.NormalizeSpreadsheet(ctx, res)
		} else {
			res, err = report.ParseHTMLTable(ctx, render.HTML)
			if err != nil {
				return err
			}
			points = normalizer.NormalizeHTML(ctx, res)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Time", "Type", "Meal", "Food", "Fields"})
		for _, p := range points {
			t.AppendRow(table.Row{
				p.Time.Format("2006-01-02 15:04"),
				p.Tags["type"],
				p.Tags["meal"],
				p.Tags["food"],
				formatFields(p.Fields),
			})
		}
		t.Render()

		fmt.Printf("%d points, %d rows skipped\n", len(points), res.SkippedRows)
		return nil
	},
}

func formatFields(fields map[string]float64) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, fields[k])
	}
	return strings.Join(parts, " ")
}
