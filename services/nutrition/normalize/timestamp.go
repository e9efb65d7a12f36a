package normalize

import (
	"nutrisync-backend/lib/timezone"
	"nutrisync-backend/services/nutrition/report"
	"time"
)

// ResolveTimestamp combines the record's date and time of day as a local
// datetime in the process zone and converts it to UTC. A record without
// a time of day lands on local midnight. When the date itself is
// unresolvable the ingestion instant is substituted and the second
// return is true; that point keeps its fields but loses temporal
// fidelity, which callers must log as a distinct condition.
func ResolveTimestamp(rec report.RawRecord, now time.Time) (time.Time, bool) {
	if rec.Date.IsZero() {
		return now.UTC(), true
	}

	hour, minute := 0, 0
	if rec.TimeOfDay != nil {
		hour = rec.TimeOfDay.Hour
		minute = rec.TimeOfDay.Minute
	}
	local := time.Date(
		rec.Date.Year(), rec.Date.Month(), rec.Date.Day(),
		hour, minute, 0, 0,
		timezone.Location,
	)
	return local.UTC(), false
}
