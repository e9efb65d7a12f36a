package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"
)

// FileSource reads one render from disk, dispatching on extension.
type FileSource struct {
	Path string
}

func (s FileSource) Fetch(ctx context.Context) (Render, error) {
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".html", ".htm":
		file, err := os.Open(s.Path)
		if err != nil {
			return Render{}, err
		}
		defer file.Close()

		doc, err := goquery.NewDocumentFromReader(file)
		if err != nil {
			return Render{}, err
		}
		return Render{HTML: doc}, nil

	case ".xlsx", ".xlsm":
		workbook, err := excelize.OpenFile(s.Path)
		if err != nil {
			return Render{}, err
		}
		return Render{Workbook: workbook}, nil
	}

	return Render{}, fmt.Errorf("unrecognized report file type: %s", s.Path)
}
