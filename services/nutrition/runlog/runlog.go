// Package runlog records the outcome of each pipeline run so operators
// can see at a glance whether the nightly sync has been healthy.
package runlog

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("nutrisync.services.nutrition.runlog")

//go:embed schema.sql
var Schema string

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

type Run struct {
	StartedAt     time.Time
	FinishedAt    time.Time
	Outcome       string
	PointsWritten int
	RowsSkipped   int
	DegradedRows  int
	Error         string
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

func Open(path string) (Store, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return Store{}, err
	}
	_, err = database.Exec(Schema)
	if err != nil {
		database.Close()
		return Store{}, err
	}
	return Store{db: database}, nil
}

func (s Store) Record(ctx context.Context, run Run) error {
	ctx, span := tracer.Start(ctx, "Record")
	defer span.End()

	_, err := s.db.ExecContext(
		ctx,
		`insert into job_run
			(started_at, finished_at, outcome, points_written, rows_skipped, degraded_rows, error)
		values (?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt.Unix(),
		run.FinishedAt.Unix(),
		run.Outcome,
		run.PointsWritten,
		run.RowsSkipped,
		run.DegradedRows,
		run.Error,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	ctx, span := tracer.Start(ctx, "Recent")
	defer span.End()

	rows, err := s.db.QueryContext(
		ctx,
		`select started_at, finished_at, outcome, points_written, rows_skipped, degraded_rows, error
		from job_run
		order by started_at desc
		limit ?`,
		limit,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished int64
		err := rows.Scan(
			&started,
			&finished,
			&run.Outcome,
			&run.PointsWritten,
			&run.RowsSkipped,
			&run.DegradedRows,
			&run.Error,
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		run.StartedAt = time.Unix(started, 0)
		run.FinishedAt = time.Unix(finished, 0)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s Store) Close() error {
	return s.db.Close()
}
