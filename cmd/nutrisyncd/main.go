package main

import (
	"context"
	"fmt"
	"time"

	"nutrisync-backend/lib/configutil"
	"nutrisync-backend/lib/serviceutil"
	"nutrisync-backend/lib/telemetry"
	"nutrisync-backend/services/nutrition"
	"nutrisync-backend/services/nutrition/normalize"
	"nutrisync-backend/services/nutrition/runlog"
	"nutrisync-backend/services/nutrition/sink"
	"nutrisync-backend/services/nutrition/source"
)

type ReportConfig struct {
	// Url fetches the rendered report page over an authenticated
	// session; SessionCookie carries that session.
	Url           string `json:"url"`
	SessionCookie string `json:"session_cookie"`
	// DownloadsDir picks up the newest export a browser collaborator
	// dropped there, instead of fetching over HTTP.
	DownloadsDir string `json:"downloads_dir"`
}

type Config struct {
	Report     ReportConfig      `json:"report"`
	Influx     sink.InfluxConfig `json:"influx"`
	RunlogPath string            `json:"runlog_path"`
	// ScheduleHour is a pointer so midnight (0) stays expressible;
	// leaving it out of the config means 02:00.
	ScheduleHour *int `json:"schedule_hour"`
	LookbackDays int  `json:"lookback_days"`
	Debug        bool `json:"debug"`
}

func scheduleHour(config Config) int {
	if config.ScheduleHour == nil {
		return 2
	}
	return *config.ScheduleHour
}

func newSource(config ReportConfig) (source.Source, error) {
	if config.DownloadsDir != "" {
		return source.DownloadsSource{
			Dir:    config.DownloadsDir,
			MaxAge: time.Hour * 24,
		}, nil
	}
	if config.Url != "" {
		return source.NewHTTPSource(config.Url, config.SessionCookie), nil
	}
	return nil, fmt.Errorf("report config needs either a url or a downloads_dir")
}

func main() {
	ctx := serviceutil.SignalContext()

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	t, err := telemetry.SetupFromEnv(ctx, "nutrisyncd")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer t.Shutdown(context.Background())
	telemetry.InitSlog(config.Debug)
	telemetry.InstrumentPerfStats(ctx)

	src, err := newSource(config.Report)
	if err != nil {
		serviceutil.Fatal("failed to configure report source", err)
	}

	snk, err := sink.NewInfluxSink(ctx, config.Influx)
	if err != nil {
		serviceutil.Fatal("failed to connect to influxdb", err)
	}
	defer snk.Close()

	runlogPath := config.RunlogPath
	if runlogPath == "" {
		runlogPath = "runlog.db"
	}
	runs, err := runlog.Open(runlogPath)
	if err != nil {
		serviceutil.Fatal("failed to open run log", err)
	}
	defer runs.Close()

	normalizer := normalize.New()
	if config.LookbackDays > 0 {
		normalizer.Lookback = time.Duration(config.LookbackDays) * 24 * time.Hour
	}

	service := nutrition.NewService(src, snk, normalizer, &runs)
	go service.Daemon(ctx, scheduleHour(config))

	<-ctx.Done()
}
