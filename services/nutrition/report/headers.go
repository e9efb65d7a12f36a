package report

import (
	"context"
	"errors"
	"nutrisync-backend/lib/htmlutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrHeaderResolution is fatal for the whole render: without headers no
// record's cell labels can be trusted.
var ErrHeaderResolution = errors.New("could not resolve report headers")

// DefaultHeaders matches the report table layout the source system has
// rendered for years; used only when both live strategies come up empty.
var DefaultHeaders = []string{
	"Date", "Calories", "Total Fat", "Carbs", "Protein", "Sat. Fat",
	"Trans Fat", "Net Carbs", "Fiber", "Sodium", "Calcium", "Time",
}

type headerStrategy struct {
	name    string
	resolve func(doc *goquery.Document) []string
}

// strategies are tried in priority order; the first non-empty result is
// accepted wholesale, partial output of a failed strategy is discarded.
var headerStrategies = []headerStrategy{
	{name: "rotated", resolve: resolveRotatedHeaders},
	{name: "title_attr", resolve: resolveTitleHeaders},
	{name: "fallback", resolve: func(*goquery.Document) []string {
		out := make([]string, len(DefaultHeaders))
		copy(out, DefaultHeaders)
		return out
	}},
}

// rotated nutrient names live in spans inside the header row; their text
// carries a trailing ", <unit>" suffix and nbsp padding. The Time header
// is a plain bottom-aligned cell after the rotated ones.
func resolveRotatedHeaders(doc *goquery.Document) []string {
	var headers []string
	doc.Find("table.report thead tr td.rotatedTd span.rotate").Each(func(_ int, span *goquery.Selection) {
		text := htmlutil.CellText(span)
		if idx := strings.Index(text, ","); idx >= 0 {
			text = strings.TrimSpace(text[:idx])
		}
		if text != "" {
			headers = append(headers, text)
		}
	})
	if len(headers) == 0 {
		return nil
	}

	timeHeader := htmlutil.CellText(doc.Find("table.report thead tr td[style*='vertical-align: bottom']"))
	if timeHeader != "" {
		headers = append(headers, timeHeader)
	}
	return headers
}

func resolveTitleHeaders(doc *goquery.Document) []string {
	var headers []string
	doc.Find("table.report thead tr td[title]").Each(func(_ int, cell *goquery.Selection) {
		title := strings.TrimSpace(cell.AttrOr("title", ""))
		if !strings.Contains(title, "column") {
			return
		}
		nutrient := strings.TrimSpace(strings.TrimSuffix(title, " column"))
		if nutrient != "" {
			headers = append(headers, nutrient)
		}
	})
	return headers
}

func ResolveHeaders(ctx context.Context, doc *goquery.Document) ([]string, error) {
	_, span := tracer.Start(ctx, "ResolveHeaders")
	defer span.End()

	for _, strategy := range headerStrategies {
		headers := strategy.resolve(doc)
		if len(headers) == 0 {
			continue
		}
		span.AddEvent("resolved", trace.WithAttributes(
			attribute.String("strategy", strategy.name),
			attribute.StringSlice("headers", headers),
		))
		return headers, nil
	}
	return nil, ErrHeaderResolution
}
