package report

import (
	"context"
	"errors"
	"log/slog"
	"nutrisync-backend/lib/htmlutil"
	"nutrisync-backend/lib/timezone"
	"regexp"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("nutrisync.services.nutrition.report")

var ErrNoReportTable = errors.New("document has no report table")

var clockRegex = regexp.MustCompile(`(\d+):(\d+)`)
var dateParamRegex = regexp.MustCompile(`date=(\d{8})`)

// parseContext carries the row-scanning state for one render. It was a
// pair of mutable globals in earlier iterations of this job; keeping it
// per-pass means reruns can never see each other's meal context.
type parseContext struct {
	headers     []string
	date        time.Time
	currentMeal string
	firstFood   map[string]ClockTime
}

// ParseHTMLTable scans the report table body top to bottom and produces
// one RawRecord per classifiable row. Meal summary rows render before
// their food rows, so a first pass pre-computes the earliest food time
// per meal before classification.
func ParseHTMLTable(ctx context.Context, doc *goquery.Document) (Result, error) {
	ctx, span := tracer.Start(ctx, "ParseHTMLTable")
	defer span.End()

	table := doc.Find("table.report").First()
	if table.Length() == 0 {
		return Result{}, ErrNoReportTable
	}

	headers, err := ResolveHeaders(ctx, doc)
	if err != nil {
		return Result{}, err
	}

	pc := parseContext{
		headers:   headers,
		date:      parseReportDate(table),
		firstFood: collectFirstFoodTimes(table),
	}

	result := Result{
		Headers: headers,
		Date:    pc.date,
	}
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		record, ok := pc.classifyRow(ctx, row)
		if !ok {
			result.SkippedRows++
			return
		}
		result.Records = append(result.Records, record)
	})

	span.SetAttributes(
		attribute.Int("records", len(result.Records)),
		attribute.Int("skipped_rows", result.SkippedRows),
	)
	return result, nil
}

func (pc *parseContext) classifyRow(ctx context.Context, row *goquery.Selection) (RawRecord, bool) {
	if totals := row.Find("td.nutrientTotals"); totals.Length() > 0 {
		meal := htmlutil.CellText(totals.First())
		if meal == "" {
			return RawRecord{}, false
		}
		pc.currentMeal = meal

		record := RawRecord{
			Role:  RoleMealSummary,
			Date:  pc.date,
			Meal:  meal,
			Cells: pc.collectCells(row),
		}
		if first, ok := pc.firstFood[meal]; ok {
			record.TimeOfDay = &first
		}
		return record, true
	}

	if row.HasClass("day") {
		return RawRecord{
			Role:  RoleDailyTotal,
			Date:  pc.date,
			Cells: pc.collectCells(row),
		}, true
	}

	name := htmlutil.CellText(row.Find("td").First())
	numeric := row.Find("td.numeric")
	// food rows before the first meal header have no meal context and
	// are dropped
	if name == "" || numeric.Length() == 0 || pc.currentMeal == "" {
		return RawRecord{}, false
	}

	record := RawRecord{
		Role:      RoleFoodItem,
		Date:      pc.date,
		Meal:      pc.currentMeal,
		FoodName:  name,
		Quantity:  htmlutil.CellText(row.Find("td").Eq(1)),
		Weight:    htmlutil.CellText(row.Find("td").Eq(2)),
		TimeOfDay: parseClock(htmlutil.CellText(row.Find("td[title='Time']"))),
		Cells:     pc.collectCells(row),
	}
	slog.DebugContext(ctx, "food item", "food", record.FoodName, "meal", record.Meal)
	return record, true
}

// collectCells pairs numeric-class cells with the resolved headers in
// positional order. Cells past len(headers)-1 are dropped; the last
// header (Time) is handled separately.
func (pc *parseContext) collectCells(row *goquery.Selection) map[string]string {
	cells := map[string]string{}
	row.Find("td.numeric").EachWithBreak(func(i int, cell *goquery.Selection) bool {
		if i >= len(pc.headers)-1 {
			return false
		}
		text := htmlutil.CellText(cell)
		if text != "" {
			cells[pc.headers[i]] = text
		}
		return true
	})
	return cells
}

// collectFirstFoodTimes walks all body rows once, carrying the meal
// context forward, and records the time of the first food row seen in
// each meal. Needed because summary rows render before their foods.
func collectFirstFoodTimes(table *goquery.Selection) map[string]ClockTime {
	firstFood := map[string]ClockTime{}
	currentMeal := ""

	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		if totals := row.Find("td.nutrientTotals"); totals.Length() > 0 {
			currentMeal = htmlutil.CellText(totals.First())
			return
		}
		if currentMeal == "" {
			return
		}
		if _, seen := firstFood[currentMeal]; seen {
			return
		}
		if row.Find("td.numeric").Length() == 0 {
			return
		}
		clock := parseClock(htmlutil.CellText(row.Find("td[title='Time']")))
		if clock != nil {
			firstFood[currentMeal] = *clock
		}
	})

	return firstFood
}

// parseReportDate extracts the render's calendar date from the daily
// report link on the day row (`date=YYYYMMDD` in the href). A zero time
// means the date could not be resolved; the normalizer degrades to
// ingestion time in that case.
func parseReportDate(table *goquery.Selection) time.Time {
	href := table.Find("tbody tr.day a.dailyReportLink").AttrOr("href", "")
	match := dateParamRegex.FindStringSubmatch(href)
	if len(match) < 2 {
		return time.Time{}
	}

	param := match[1]
	year, _ := strconv.Atoi(param[:4])
	month, _ := strconv.Atoi(param[4:6])
	day, _ := strconv.Atoi(param[6:8])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, timezone.Location)
}

func parseClock(text string) *ClockTime {
	match := clockRegex.FindStringSubmatch(text)
	if len(match) < 3 {
		return nil
	}
	hour, _ := strconv.Atoi(match[1])
	minute, _ := strconv.Atoi(match[2])
	if hour > 23 || minute > 59 {
		return nil
	}
	return &ClockTime{Hour: hour, Minute: minute}
}
