// Package report turns one nutrition report render (an HTML document or
// a spreadsheet export) into an ordered sequence of raw records. It does
// no numeric conversion; cells stay raw text until normalization.
package report

import (
	"fmt"
	"time"
)

type RowRole int

const (
	RoleFoodItem RowRole = iota
	RoleMealSummary
	RoleDailyTotal
)

func (r RowRole) String() string {
	switch r {
	case RoleFoodItem:
		return "food_item"
	case RoleMealSummary:
		return "meal_summary"
	case RoleDailyTotal:
		return "daily_total"
	}
	return "unknown"
}

type ClockTime struct {
	Hour   int
	Minute int
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// RawRecord is one parsed report row. Records are never mutated after
// the parse pass that created them.
type RawRecord struct {
	Role RowRole
	// Date is zero when the render carried no resolvable date; the
	// normalizer substitutes ingestion time in that case.
	Date      time.Time
	TimeOfDay *ClockTime
	Meal      string
	FoodName  string
	Quantity  string
	Weight    string
	// Cells maps resolved header labels to raw cell text.
	Cells map[string]string
}

// Result is the outcome of parsing one report render.
type Result struct {
	Records []RawRecord
	Headers []string
	// Date is the render-wide report date for HTML renders; zero for
	// spreadsheets, which carry dates per row.
	Date time.Time
	// SkippedRows counts rows that matched no known role. Skips are
	// counted for observability, never raised.
	SkippedRows int
}
