// Package nutrition wires the report pipeline end to end: fetch a
// render, parse it into raw records, normalize those into metric
// points, and write the whole batch to the time-series sink.
package nutrition

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nutrisync-backend/lib/timezone"
	"nutrisync-backend/services/nutrition/normalize"
	"nutrisync-backend/services/nutrition/report"
	"nutrisync-backend/services/nutrition/runlog"
	"nutrisync-backend/services/nutrition/sink"
	"nutrisync-backend/services/nutrition/source"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("nutrisync.services.nutrition")

type Service struct {
	source     source.Source
	sink       sink.Sink
	normalizer *normalize.Normalizer
	runs       *runlog.Store
}

// NewService assembles the pipeline. The runlog store may be nil when
// run history isn't wanted (one-shot CLI invocations).
func NewService(src source.Source, snk sink.Sink, normalizer *normalize.Normalizer, runs *runlog.Store) Service {
	return Service{
		source:     src,
		sink:       snk,
		normalizer: normalizer,
		runs:       runs,
	}
}

type RunReport struct {
	PointsWritten int
	RowsSkipped   int
	DegradedRows  int
}

// Run executes one full sync. Points are written as a single batch so a
// sink failure writes nothing rather than half a report.
func (s Service) Run(ctx context.Context) (RunReport, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	started := timezone.Now()
	rep, err := s.run(ctx)
	finished := timezone.Now()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(
		attribute.Int("points_written", rep.PointsWritten),
		attribute.Int("rows_skipped", rep.RowsSkipped),
	)

	if s.runs != nil {
		run := runlog.Run{
			StartedAt:     started,
			FinishedAt:    finished,
			Outcome:       runlog.OutcomeSuccess,
			PointsWritten: rep.PointsWritten,
			RowsSkipped:   rep.RowsSkipped,
			DegradedRows:  rep.DegradedRows,
		}
		if err != nil {
			run.Outcome = runlog.OutcomeFailure
			run.Error = err.Error()
		}
		logErr := s.runs.Record(ctx, run)
		if logErr != nil {
			slog.WarnContext(ctx, "failed to record run", "err", logErr)
		}
	}

	return rep, err
}

func (s Service) run(ctx context.Context) (RunReport, error) {
	render, err := s.source.Fetch(ctx)
	if err != nil {
		return RunReport{}, fmt.Errorf("fetch report: %w", err)
	}

	var res report.Result
	var points []normalize.MetricPoint
	if render.IsSpreadsheet() {
		res, err = report.ParseWorkbook(ctx, render.Workbook)
		if err != nil {
			return RunReport{}, fmt.Errorf("parse workbook: %w", err)
		}
		points = s.normalizer.NormalizeSpreadsheet(ctx, res)
	} else {
		res, err = report.ParseHTMLTable(ctx, render.HTML)
		if err != nil {
			return RunReport{}, fmt.Errorf("parse report table: %w", err)
		}
		points = s.normalizer.NormalizeHTML(ctx, res)
	}

	rep := RunReport{
		RowsSkipped:  res.SkippedRows,
		DegradedRows: countDegraded(res.Records),
	}

	if len(points) == 0 {
		slog.InfoContext(ctx, "report produced no points, nothing to write",
			"records", len(res.Records), "skipped", res.SkippedRows)
		return rep, nil
	}

	err = s.sink.Write(ctx, points)
	if err != nil {
		return rep, err
	}
	rep.PointsWritten = len(points)

	if verifier, ok := s.sink.(sink.Verifier); ok {
		if day := latestDate(res.Records); !day.IsZero() {
			verifier.Verify(ctx, day)
		}
	}

	slog.InfoContext(ctx, "sync complete",
		"points", rep.PointsWritten,
		"skipped", rep.RowsSkipped,
		"degraded", rep.DegradedRows,
	)
	return rep, nil
}

func latestDate(records []report.RawRecord) time.Time {
	var latest time.Time
	for _, rec := range records {
		if rec.Date.After(latest) {
			latest = rec.Date
		}
	}
	return latest
}

func countDegraded(records []report.RawRecord) int {
	count := 0
	for _, rec := range records {
		if rec.Date.IsZero() {
			count++
		}
	}
	return count
}

// Daemon runs a sync at startup then once daily at the configured hour,
// off-peak so the diary site never sees load during the day.
func (s Service) Daemon(ctx context.Context, hour int) {
	slog.InfoContext(ctx, "start daemon",
		"task", "sync nutrition report", "hour", hour)

	err := s.runOnce(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "startup sync", "err", err)
	}

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := timezone.Now()
			if now.Hour() != hour {
				continue
			}
			err := s.runOnce(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "scheduled sync", "err", err)
			}
		}
	}
}

func (s Service) runOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute*10)
	defer cancel()
	_, err := s.Run(ctx)
	return err
}
