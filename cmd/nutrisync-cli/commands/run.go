package commands

import (
	"fmt"
	"time"

	"nutrisync-backend/lib/configutil"
	"nutrisync-backend/services/nutrition"
	"nutrisync-backend/services/nutrition/normalize"
	"nutrisync-backend/services/nutrition/sink"
	"nutrisync-backend/services/nutrition/source"

	"github.com/spf13/cobra"
)

type runConfig struct {
	ReportUrl     string            `json:"report_url"`
	SessionCookie string            `json:"session_cookie"`
	Influx        sink.InfluxConfig `json:"influx"`
	LookbackDays  int               `json:"lookback_days"`
}

var runFile *string

func init() {
	runFile = runCmd.Flags().String(
		"file", "",
		"Sync from a local report file instead of fetching over HTTP.",
	)
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--file <path/to/report>]",
	Short: "Runs one sync against the configured influx instance.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := configutil.ReadConfig[runConfig]("config.json5")
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		var src source.Source
		if *runFile != "" {
			src = source.FileSource{Path: *runFile}
		} else if cfg.ReportUrl != "" {
			src = source.NewHTTPSource(cfg.ReportUrl, cfg.SessionCookie)
		} else {
			return fmt.Errorf("no report source: pass --file or set report_url")
		}

		snk, err := sink.NewInfluxSink(ctx, cfg.Influx)
		if err != nil {
			return fmt.Errorf("failed to connect to influxdb: %w", err)
		}
		defer snk.Close()

		normalizer := normalize.New()
		if cfg.LookbackDays > 0 {
			normalizer.Lookback = time.Duration(cfg.LookbackDays) * 24 * time.Hour
		}

		service := nutrition.NewService(src, snk, normalizer, nil)

		t1 := time.Now()
		rep, err := service.Run(ctx)
		if err != nil {
			return err
		}

		fmt.Printf(
			"wrote %d points (%d rows skipped, %d degraded) in %.1fs\n",
			rep.PointsWritten, rep.RowsSkipped, rep.DegradedRows,
			time.Since(t1).Seconds(),
		)
		return nil
	},
}
