package normalize

import (
	"context"
	"testing"
	"time"

	"nutrisync-backend/lib/telemetry"
	"nutrisync-backend/lib/timezone"
	"nutrisync-backend/services/nutrition/report"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func lunchRecords(day time.Time) []report.RawRecord {
	return []report.RawRecord{
		{
			Role:      report.RoleFoodItem,
			Date:      day,
			TimeOfDay: &report.ClockTime{Hour: 12, Minute: 40},
			Meal:      "Lunch",
			FoodName:  "Apple",
			Quantity:  "1",
			Cells:     map[string]string{"Calories, cals": "250", "Protein, g": "5"},
		},
		{
			Role:      report.RoleFoodItem,
			Date:      day,
			TimeOfDay: &report.ClockTime{Hour: 12, Minute: 10},
			Meal:      "Lunch",
			FoodName:  "Sandwich",
			Quantity:  "1",
			Cells:     map[string]string{"Calories, cals": "300", "Protein, g": "15"},
		},
	}
}

func TestNormalizeSpreadsheetAggregatesMeals(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:services/nutrition/normalize")
	defer cleanup()

	day := time.Date(2025, time.January, 15, 0, 0, 0, 0, timezone.Location)
	now := time.Date(2025, time.January, 16, 6, 0, 0, 0, timezone.Location)

	n := New()
	n.Now = func() time.Time { return now }

	points := n.NormalizeSpreadsheet(context.Background(), report.Result{
		Records: lunchRecords(day),
	})
	require.Len(t, points, 3)

	apple := points[0]
	require.Equal(t, "food_item", apple.Tags["type"])
	require.Equal(t, "Apple", apple.Tags["food"])
	require.Equal(t, "Lunch", apple.Tags["meal"])
	require.Equal(t, float64(250), apple.Fields["Calories, cals"])
	require.Equal(t,
		time.Date(2025, time.January, 15, 12, 40, 0, 0, timezone.Location).UTC(),
		apple.Time,
	)

	// the synthesized summary sums nutrients across the meal and is
	// timestamped at the earliest food time
	summary := points[2]
	expected := MetricPoint{
		Measurement: Measurement,
		Tags: map[string]string{
			"meal": "Lunch",
			"type": "meal_summary",
		},
		Fields: map[string]float64{
			"calories":   550,
			"protein":    20,
			"food_count": 2,
		},
		Time: time.Date(2025, time.January, 15, 12, 10, 0, 0, timezone.Location).UTC(),
	}
	diff := cmp.Diff(expected, summary)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestNormalizeSpreadsheetIdempotent(t *testing.T) {
	day := time.Date(2025, time.January, 15, 0, 0, 0, 0, timezone.Location)
	now := time.Date(2025, time.January, 16, 6, 0, 0, 0, timezone.Location)

	n := New()
	n.Now = func() time.Time { return now }

	res := report.Result{Records: lunchRecords(day)}
	first := n.NormalizeSpreadsheet(context.Background(), res)
	second := n.NormalizeSpreadsheet(context.Background(), res)

	diff := cmp.Diff(first, second)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestLookbackFilter(t *testing.T) {
	now := time.Date(2025, time.January, 15, 6, 0, 0, 0, timezone.Location)

	n := New()
	n.Now = func() time.Time { return now }
	n.Lookback = 7 * 24 * time.Hour

	day := func(d int) time.Time {
		return time.Date(2025, time.January, d, 0, 0, 0, 0, timezone.Location)
	}
	record := func(d int, food string) report.RawRecord {
		return report.RawRecord{
			Role:     report.RoleFoodItem,
			Date:     day(d),
			Meal:     "Dinner",
			FoodName: food,
			Cells:    map[string]string{"Calories, cals": "100"},
		}
	}

	points := n.NormalizeSpreadsheet(context.Background(), report.Result{
		Records: []report.RawRecord{
			record(7, "too old"),
			// exactly at the lookback boundary stays included no matter
			// what time of day the job runs
			record(8, "boundary"),
			record(14, "recent"),
		},
	})

	var foods []string
	for _, p := range points {
		if p.Tags["type"] == "food_item" {
			foods = append(foods, p.Tags["food"])
		}
	}
	diff := cmp.Diff([]string{"boundary", "recent"}, foods)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestNormalizeHTMLKeepsNativeSummaries(t *testing.T) {
	day := time.Date(2025, time.January, 15, 0, 0, 0, 0, timezone.Location)

	n := New()
	points := n.NormalizeHTML(context.Background(), report.Result{
		Records: []report.RawRecord{
			{
				Role:      report.RoleMealSummary,
				Date:      day,
				Meal:      "Breakfast",
				TimeOfDay: &report.ClockTime{Hour: 8, Minute: 5},
				Cells:     map[string]string{"Calories": "350"},
			},
			{
				Role:     report.RoleDailyTotal,
				Date:     day,
				Cells:    map[string]string{"Calories": "350"},
				FoodName: "",
			},
		},
	})
	require.Len(t, points, 2)

	// summary fields come from the row's own cells, never re-summed
	require.Equal(t, float64(350), points[0].Fields["Calories"])
	require.Equal(t, "meal_summary", points[0].Tags["type"])
	require.Equal(t,
		time.Date(2025, time.January, 15, 8, 5, 0, 0, timezone.Location).UTC(),
		points[0].Time,
	)

	// daily totals land on local midnight
	require.Equal(t, "daily_total", points[1].Tags["type"])
	require.Equal(t, day.UTC(), points[1].Time)
}

func TestNormalizeDropsEmptyFieldPoints(t *testing.T) {
	day := time.Date(2025, time.January, 15, 0, 0, 0, 0, timezone.Location)

	n := New()
	points := n.NormalizeHTML(context.Background(), report.Result{
		Records: []report.RawRecord{
			{
				Role:     report.RoleFoodItem,
				Date:     day,
				Meal:     "Snacks",
				FoodName: "Water",
				Cells:    map[string]string{"Notes": "no nutrients"},
			},
		},
	})
	require.Empty(t, points)
}

func TestResolveTimestamp(t *testing.T) {
	now := time.Date(2025, time.January, 16, 6, 30, 0, 0, timezone.Location)
	day := time.Date(2025, time.January, 15, 0, 0, 0, 0, timezone.Location)

	ts, degraded := ResolveTimestamp(report.RawRecord{
		Date:      day,
		TimeOfDay: &report.ClockTime{Hour: 18, Minute: 45},
	}, now)
	require.False(t, degraded)
	require.Equal(t, time.Date(2025, time.January, 15, 18, 45, 0, 0, timezone.Location).UTC(), ts)

	ts, degraded = ResolveTimestamp(report.RawRecord{Date: day}, now)
	require.False(t, degraded)
	require.Equal(t, day.UTC(), ts)

	// a record without any resolvable date degrades to ingestion time
	ts, degraded = ResolveTimestamp(report.RawRecord{}, now)
	require.True(t, degraded)
	require.Equal(t, now.UTC(), ts)
}

func TestClassifyCells(t *testing.T) {
	fields, tags := classifyCells(map[string]string{
		"Calories": "1,234.5",
		"Sodium":   "120 mg",
		"Notes":    "homemade",
		"Fiber":    "",
		"Date":     "01/15/2025",
	})

	diff := cmp.Diff(map[string]float64{
		"Calories": 1234.5,
		"Sodium":   120,
	}, fields)
	if diff != "" {
		t.Fatal(diff)
	}

	diff = cmp.Diff(map[string]string{"Notes": "homemade"}, tags)
	if diff != "" {
		t.Fatal(diff)
	}
}
