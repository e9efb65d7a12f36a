// Package source supplies report renders to the pipeline. A render is
// either an HTML document or a spreadsheet export; the pipeline
// dispatches on which shape it got. Session orchestration (logging into
// the diary site, driving the export UI) belongs to an external
// collaborator, which hands us a URL with a live session or a file it
// already downloaded.
package source

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"
)

type Render struct {
	HTML     *goquery.Document
	Workbook *excelize.File
}

func (r Render) IsSpreadsheet() bool {
	return r.Workbook != nil
}

type Source interface {
	Fetch(ctx context.Context) (Render, error)
}
