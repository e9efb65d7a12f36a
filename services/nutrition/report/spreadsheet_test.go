package report

import (
	"context"
	"testing"
	"time"

	"nutrisync-backend/lib/timezone"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseDateTimeCell(t *testing.T) {
	testCases := []struct {
		text  string
		date  time.Time
		clock *ClockTime
		ok    bool
	}{
		{
			// serial day arithmetic lands on the right calendar date
			// despite the historical leap-year quirk
			text:  "2",
			date:  time.Date(1900, time.January, 1, 0, 0, 0, 0, timezone.Location),
			clock: &ClockTime{Hour: 0, Minute: 0},
			ok:    true,
		},
		{
			text:  "45658.5",
			date:  time.Date(2025, time.January, 1, 0, 0, 0, 0, timezone.Location),
			clock: &ClockTime{Hour: 12, Minute: 0},
			ok:    true,
		},
		{
			text:  "01/15/2025 08:05",
			date:  time.Date(2025, time.January, 15, 0, 0, 0, 0, timezone.Location),
			clock: &ClockTime{Hour: 8, Minute: 5},
			ok:    true,
		},
		{
			text: "01/15/2025",
			date: time.Date(2025, time.January, 15, 0, 0, 0, 0, timezone.Location),
			ok:   true,
		},
		{text: "yesterday", ok: false},
		{text: "", ok: false},
	}

	for _, test := range testCases {
		date, clock, ok := parseDateTimeCell(test.text)
		if ok != test.ok {
			t.Fatalf("parseDateTimeCell(%q) ok = %v, expected %v", test.text, ok, test.ok)
		}
		if !ok {
			continue
		}
		if !date.Equal(test.date) {
			t.Fatalf("parseDateTimeCell(%q) date = %v, expected %v", test.text, date, test.date)
		}
		diff := cmp.Diff(test.clock, clock)
		if diff != "" {
			t.Fatalf("parseDateTimeCell(%q): %s", test.text, diff)
		}
	}
}

func TestSerialAndTextDatesAgree(t *testing.T) {
	// 45672 days past the epoch is 2025-01-15; .33681 of a day is 08:05
	serialDate, serialClock, ok := parseDateTimeCell("45672.3368055556")
	require.True(t, ok)
	textDate, textClock, ok := parseDateTimeCell("01/15/2025 08:05")
	require.True(t, ok)

	require.True(t, serialDate.Equal(textDate))
	diff := cmp.Diff(textClock, serialClock)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestParseWorkbook(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{
		"Date & Time", "Meal", "Food Name", "Amount", "Calories, cals", "Protein, g",
	}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{
		"01/15/2025 12:10", "Lunch", "Sandwich", "1", "300", "15",
	}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{
		"not a date", "Lunch", "Mystery", "1", "250", "5",
	}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]interface{}{
		"01/15/2025 12:40", "Lunch", "Apple", "1", "95", "0.5",
	}))

	result, err := ParseWorkbook(context.Background(), f)
	require.NoError(t, err)
	require.Equal(t, 1, result.SkippedRows)

	date := time.Date(2025, time.January, 15, 0, 0, 0, 0, timezone.Location)
	expected := []RawRecord{
		{
			Role:      RoleFoodItem,
			Date:      date,
			TimeOfDay: &ClockTime{Hour: 12, Minute: 10},
			Meal:      "Lunch",
			FoodName:  "Sandwich",
			Quantity:  "1",
			Cells:     map[string]string{"Calories, cals": "300", "Protein, g": "15"},
		},
		{
			Role:      RoleFoodItem,
			Date:      date,
			TimeOfDay: &ClockTime{Hour: 12, Minute: 40},
			Meal:      "Lunch",
			FoodName:  "Apple",
			Quantity:  "1",
			Cells:     map[string]string{"Calories, cals": "95", "Protein, g": "0.5"},
		},
	}

	diff := cmp.Diff(expected, result.Records)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestParseWorkbookMissingColumns(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{
		"Food Name", "Calories, cals",
	}))

	_, err := ParseWorkbook(context.Background(), f)
	require.ErrorIs(t, err, ErrHeaderResolution)
}
