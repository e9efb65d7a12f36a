package normalize

import (
	"nutrisync-backend/lib/textutil"
)

// Date and Time are positional artifacts of header resolution, already
// consumed by timestamp resolution; they never become fields or tags.
var consumedLabels = map[string]bool{
	"date": true,
	"time": true,
}

// classifyCells splits raw cell values into numeric fields and string
// tags using the shared numeric extraction rule. Cells with neither
// digits nor text are dropped without failing the row.
func classifyCells(cells map[string]string) (map[string]float64, map[string]string) {
	fields := map[string]float64{}
	tags := map[string]string{}

	for label, text := range cells {
		if consumedLabels[textutil.NormalizeLabel(label)] {
			continue
		}
		if text == "" {
			continue
		}
		if value, ok := textutil.ExtractNumber(text); ok {
			fields[label] = value
			continue
		}
		tags[label] = text
	}

	return fields, tags
}
