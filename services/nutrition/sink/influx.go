package sink

import (
	"context"
	"fmt"
	"log/slog"
	"nutrisync-backend/services/nutrition/normalize"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("nutrisync.services.nutrition.sink")

type InfluxConfig struct {
	Url    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

type InfluxSink struct {
	client influxdb2.Client
	org    string
	bucket string
}

// NewInfluxSink connects, pings the health endpoint and checks that the
// target bucket exists. A missing bucket is only warned about: the
// write itself will surface the authoritative error.
func NewInfluxSink(ctx context.Context, cfg InfluxConfig) (*InfluxSink, error) {
	if cfg.Url == "" || cfg.Token == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("influx config is incomplete: url/token/org/bucket are all required")
	}

	client := influxdb2.NewClientWithOptions(
		cfg.Url, cfg.Token,
		influxdb2.DefaultOptions().SetPrecision(time.Nanosecond),
	)

	health, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("influx health check: %w", err)
	}
	slog.InfoContext(ctx, "influx connection healthy", "status", string(health.Status))

	bucket, err := client.BucketsAPI().FindBucketByName(ctx, cfg.Bucket)
	if err != nil || bucket == nil {
		slog.WarnContext(ctx, "could not confirm influx bucket", "bucket", cfg.Bucket, "err", err)
	}

	return &InfluxSink{
		client: client,
		org:    cfg.Org,
		bucket: cfg.Bucket,
	}, nil
}

func (s *InfluxSink) Write(ctx context.Context, points []normalize.MetricPoint) error {
	ctx, span := tracer.Start(ctx, "Write")
	defer span.End()
	span.SetAttributes(attribute.Int("points", len(points)))

	batch := make([]*write.Point, len(points))
	for i, p := range points {
		fields := make(map[string]interface{}, len(p.Fields))
		for k, v := range p.Fields {
			fields[k] = v
		}
		batch[i] = write.NewPoint(p.Measurement, p.Tags, fields, p.Time)
	}

	err := s.client.WriteAPIBlocking(s.org, s.bucket).WritePoint(ctx, batch...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: %s", ErrWrite, err)
	}

	slog.InfoContext(ctx, "wrote points to influx", "count", len(points), "bucket", s.bucket)
	return nil
}

// Verify queries back one point for the given day; purely diagnostic,
// mirrors the sanity query the job has always run after a write. The
// return reports whether a point was found, a miss never fails the run.
func (s *InfluxSink) Verify(ctx context.Context, day time.Time) bool {
	ctx, span := tracer.Start(ctx, "Verify")
	defer span.End()

	flux := fmt.Sprintf(
		`from(bucket:%q) |> range(start: %s, stop: %s) |> filter(fn: (r) => r._measurement == %q) |> limit(n:1)`,
		s.bucket,
		day.Format("2006-01-02")+"T00:00:00Z",
		day.Format("2006-01-02")+"T23:59:59Z",
		normalize.Measurement,
	)

	result, err := s.client.QueryAPI(s.org).Query(ctx, flux)
	if err != nil {
		slog.WarnContext(ctx, "could not verify written points", "err", err)
		return false
	}
	if result.Next() {
		slog.InfoContext(ctx, "verified written points", "day", day.Format("2006-01-02"))
		return true
	}
	slog.WarnContext(ctx, "verification query returned no points", "day", day.Format("2006-01-02"))
	return false
}

func (s *InfluxSink) Close() {
	s.client.Close()
}
