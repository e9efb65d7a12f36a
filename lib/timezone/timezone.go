package timezone

import (
	"log/slog"
	"os"
	"time"
)

var Location *time.Location

func init() {
	name := os.Getenv("NUTRISYNC_TZ")
	if name == "" {
		Location = time.Local
		return
	}
	var err error
	Location, err = time.LoadLocation(name)
	if err != nil {
		slog.Warn("failed to load NUTRISYNC_TZ, falling back to system local", "tz", name, "err", err)
		Location = time.Local
	}
}

// clock times in diary reports are local to the diary account,
// so every piece of date math has to go through the same zone or
// points end up shifted by the host's offset
func Now() time.Time {
	return time.Now().In(Location)
}
