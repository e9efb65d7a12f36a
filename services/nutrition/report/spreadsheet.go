package report

import (
	"context"
	"fmt"
	"math"
	"nutrisync-backend/lib/textutil"
	"nutrisync-backend/lib/timezone"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/attribute"
)

// column labels vary across export versions; each slice is tried in
// order against normalized labels
var (
	dateTimeAliases = []string{"date&time", "datetime"}
	mealAliases     = []string{"meal"}
	foodAliases     = []string{"foodname", "food", "description"}
	quantityAliases = []string{"amount", "quantity", "serving"}
	weightAliases   = []string{"weight"}
)

// ParseWorkbook reads the first sheet of a spreadsheet export. Exports
// carry no summary or total rows, so every record is a food item with
// its own date and time.
func ParseWorkbook(ctx context.Context, f *excelize.File) (Result, error) {
	_, span := tracer.Start(ctx, "ParseWorkbook")
	defer span.End()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Result{}, fmt.Errorf("%w: workbook has no sheets", ErrHeaderResolution)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Result{}, err
	}
	if len(rows) == 0 {
		return Result{}, fmt.Errorf("%w: sheet %q is empty", ErrHeaderResolution, sheets[0])
	}

	headers := make([]string, len(rows[0]))
	for i, label := range rows[0] {
		headers[i] = textutil.CleanCell(label)
	}

	dateIdx := findColumn(headers, dateTimeAliases)
	mealIdx := findColumn(headers, mealAliases)
	if dateIdx < 0 || mealIdx < 0 {
		return Result{}, fmt.Errorf(
			"%w: export is missing the Date & Time or Meal column, got %v",
			ErrHeaderResolution, headers,
		)
	}
	foodIdx := findColumn(headers, foodAliases)
	quantityIdx := findColumn(headers, quantityAliases)
	weightIdx := findColumn(headers, weightAliases)

	result := Result{Headers: headers}
	for _, row := range rows[1:] {
		date, clock, ok := parseDateTimeCell(cellAt(row, dateIdx))
		if !ok {
			result.SkippedRows++
			continue
		}

		record := RawRecord{
			Role:      RoleFoodItem,
			Date:      date,
			TimeOfDay: clock,
			Meal:      textutil.CleanCell(cellAt(row, mealIdx)),
			FoodName:  textutil.CleanCell(cellAt(row, foodIdx)),
			Quantity:  textutil.CleanCell(cellAt(row, quantityIdx)),
			Weight:    textutil.CleanCell(cellAt(row, weightIdx)),
			Cells:     map[string]string{},
		}
		for i, text := range row {
			if i == dateIdx || i == mealIdx || i == foodIdx || i == quantityIdx || i == weightIdx {
				continue
			}
			if i >= len(headers) {
				break
			}
			text = textutil.CleanCell(text)
			if text != "" {
				record.Cells[headers[i]] = text
			}
		}
		result.Records = append(result.Records, record)
	}

	span.SetAttributes(
		attribute.Int("records", len(result.Records)),
		attribute.Int("skipped_rows", result.SkippedRows),
	)
	return result, nil
}

func findColumn(headers []string, aliases []string) int {
	for _, alias := range aliases {
		for i, label := range headers {
			if textutil.NormalizeLabel(label) == alias {
				return i
			}
		}
	}
	return -1
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// spreadsheet serial dates count days since 1899-12-30; the fractional
// part is the time of day as a fraction of 86400 seconds. The two-day
// offset from 1900-01-01 absorbs the historical leap-year quirk, so
// plain day arithmetic lands on the right calendar date.
func serialEpoch() time.Time {
	return time.Date(1899, time.December, 30, 0, 0, 0, 0, timezone.Location)
}

// parseDateTimeCell resolves both representations an export may use for
// the same instant: `MM/DD/YYYY[ HH:MM]` text or a native serial number.
func parseDateTimeCell(text string) (time.Time, *ClockTime, bool) {
	text = textutil.CleanCell(text)
	if text == "" {
		return time.Time{}, nil, false
	}

	if serial, err := strconv.ParseFloat(text, 64); err == nil {
		return fromSerial(serial)
	}

	if parsed, err := time.ParseInLocation("01/02/2006 15:04", text, timezone.Location); err == nil {
		date := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, timezone.Location)
		return date, &ClockTime{Hour: parsed.Hour(), Minute: parsed.Minute()}, true
	}
	if parsed, err := time.ParseInLocation("01/02/2006", text, timezone.Location); err == nil {
		return parsed, nil, true
	}

	return time.Time{}, nil, false
}

func fromSerial(serial float64) (time.Time, *ClockTime, bool) {
	if serial < 0 {
		return time.Time{}, nil, false
	}

	days := int(serial)
	seconds := int(math.Round((serial - float64(days)) * 86400))
	if seconds >= 86400 {
		days++
		seconds = 0
	}

	date := serialEpoch().AddDate(0, 0, days)
	clock := &ClockTime{
		Hour:   seconds / 3600,
		Minute: (seconds % 3600) / 60,
	}
	return date, clock, true
}
