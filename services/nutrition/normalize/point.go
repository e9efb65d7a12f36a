// Package normalize converts raw report records into timestamped metric
// points ready for time-series storage.
package normalize

import "time"

// Measurement is the single measurement all diary points land under;
// the record role is carried as a `type` tag.
const Measurement = "nutrition_data"

type MetricPoint struct {
	Measurement string
	Tags        map[string]string
	Fields      map[string]float64
	Time        time.Time
}
