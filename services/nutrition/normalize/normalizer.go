package normalize

import (
	"context"
	"log/slog"
	"nutrisync-backend/lib/textutil"
	"nutrisync-backend/lib/timezone"
	"nutrisync-backend/services/nutrition/report"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("nutrisync.services.nutrition.normalize")

type Normalizer struct {
	aliases *AliasTable
	// Lookback limits spreadsheet records to `now - Lookback` and
	// newer, compared on calendar dates; zero disables filtering.
	Lookback time.Duration
	// Now is swappable for tests; defaults to timezone.Now.
	Now func() time.Time
}

func New() *Normalizer {
	return &Normalizer{
		aliases: NewAliasTable(),
		Now:     timezone.Now,
	}
}

// NormalizeHTML emits one point per record. HTML renders carry native
// summary and total rows, so no re-aggregation happens: a summary
// point's fields come from the summary row's own cells.
func (n *Normalizer) NormalizeHTML(ctx context.Context, res report.Result) []MetricPoint {
	ctx, span := tracer.Start(ctx, "NormalizeHTML")
	defer span.End()

	now := n.Now()
	var points []MetricPoint
	for _, rec := range res.Records {
		point, ok := n.toPoint(ctx, rec, now)
		if !ok {
			continue
		}
		points = append(points, point)
	}

	span.SetAttributes(attribute.Int("points", len(points)))
	return points
}

// NormalizeSpreadsheet filters records to the lookback window, emits one
// point per food row, then synthesizes per-meal summary points since
// exports carry no native summary rows.
func (n *Normalizer) NormalizeSpreadsheet(ctx context.Context, res report.Result) []MetricPoint {
	ctx, span := tracer.Start(ctx, "NormalizeSpreadsheet")
	defer span.End()

	now := n.Now()
	records := n.filterLookback(res.Records, now)

	var points []MetricPoint
	for _, rec := range records {
		point, ok := n.toPoint(ctx, rec, now)
		if !ok {
			continue
		}
		points = append(points, point)
	}
	points = append(points, n.aggregateMeals(ctx, records, now)...)

	span.SetAttributes(
		attribute.Int("points", len(points)),
		attribute.Int("filtered_records", len(res.Records)-len(records)),
	)
	return points
}

func (n *Normalizer) toPoint(ctx context.Context, rec report.RawRecord, now time.Time) (MetricPoint, bool) {
	fields, tags := classifyCells(rec.Cells)

	tags["type"] = rec.Role.String()
	if rec.Meal != "" {
		tags["meal"] = rec.Meal
	}
	if rec.FoodName != "" {
		tags["food"] = rec.FoodName
	}
	if rec.Quantity != "" {
		tags["quantity"] = rec.Quantity
	}
	if rec.Weight != "" {
		tags["weight"] = rec.Weight
	}

	// a point with zero numeric fields carries no measurable fact and
	// the sink rejects empty field sets, so it is dropped here
	if len(fields) == 0 {
		slog.DebugContext(ctx, "dropping record with no numeric fields",
			"type", rec.Role.String(), "meal", rec.Meal, "food", rec.FoodName)
		return MetricPoint{}, false
	}

	timestamp, degraded := ResolveTimestamp(rec, now)
	if degraded {
		slog.WarnContext(ctx, "record date unresolved, falling back to ingestion time",
			"type", rec.Role.String(), "meal", rec.Meal, "food", rec.FoodName)
	}

	return MetricPoint{
		Measurement: Measurement,
		Tags:        tags,
		Fields:      fields,
		Time:        timestamp,
	}, true
}

func (n *Normalizer) filterLookback(records []report.RawRecord, now time.Time) []report.RawRecord {
	if n.Lookback <= 0 {
		return records
	}

	// compare calendar dates so a record exactly `lookback` days old
	// stays included regardless of the time of day the job runs at
	cutoff := now.Add(-n.Lookback)
	cutoffDate := time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, timezone.Location)

	var kept []report.RawRecord
	for _, rec := range records {
		if !rec.Date.IsZero() && rec.Date.Before(cutoffDate) {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

type mealGroup struct {
	meal     string
	date     time.Time
	records  []report.RawRecord
	earliest *report.ClockTime
}

// aggregateMeals sums the recognized nutrients across the food records
// sharing a meal label and date. A nutrient's column is resolved through
// the alias table; a summed field is emitted only when nonzero, plus a
// fixed food_count. The summary timestamp is the earliest food time in
// the group.
func (n *Normalizer) aggregateMeals(ctx context.Context, records []report.RawRecord, now time.Time) []MetricPoint {
	var order []string
	groups := map[string]*mealGroup{}

	for _, rec := range records {
		if rec.Role != report.RoleFoodItem || rec.Meal == "" || rec.Date.IsZero() {
			continue
		}
		key := rec.Date.Format("2006-01-02") + "/" + rec.Meal
		group, ok := groups[key]
		if !ok {
			group = &mealGroup{meal: rec.Meal, date: rec.Date}
			groups[key] = group
			order = append(order, key)
		}
		group.records = append(group.records, rec)
		if rec.TimeOfDay != nil && (group.earliest == nil || beforeClock(*rec.TimeOfDay, *group.earliest)) {
			clock := *rec.TimeOfDay
			group.earliest = &clock
		}
	}

	var points []MetricPoint
	for _, key := range order {
		group := groups[key]

		resolved := n.aliases.Resolve(groupLabels(group.records))
		fields := map[string]float64{}
		for nutrient, column := range resolved {
			var sum float64
			for _, rec := range group.records {
				value, ok := textutil.ExtractNumber(rec.Cells[column])
				if !ok {
					continue
				}
				sum += value
			}
			if sum != 0 {
				fields[nutrient] = sum
			}
		}
		fields["food_count"] = float64(len(group.records))

		timestamp, _ := ResolveTimestamp(report.RawRecord{
			Date:      group.date,
			TimeOfDay: group.earliest,
		}, now)

		points = append(points, MetricPoint{
			Measurement: Measurement,
			Tags: map[string]string{
				"meal": group.meal,
				"type": report.RoleMealSummary.String(),
			},
			Fields: fields,
			Time:   timestamp,
		})
		slog.DebugContext(ctx, "aggregated meal",
			"meal", group.meal, "date", group.date.Format("2006-01-02"),
			"foods", len(group.records))
	}

	return points
}

func groupLabels(records []report.RawRecord) []string {
	seen := map[string]bool{}
	var labels []string
	for _, rec := range records {
		for label := range rec.Cells {
			if !seen[label] {
				seen[label] = true
				labels = append(labels, label)
			}
		}
	}
	return labels
}

func beforeClock(a, b report.ClockTime) bool {
	if a.Hour != b.Hour {
		return a.Hour < b.Hour
	}
	return a.Minute < b.Minute
}
