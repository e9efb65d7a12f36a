package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DownloadsSource picks up the newest export the browser collaborator
// dropped into the downloads directory.
type DownloadsSource struct {
	Dir string
	// MaxAge rejects stale leftovers from previous runs; zero accepts
	// any file.
	MaxAge time.Duration
}

func (s DownloadsSource) Fetch(ctx context.Context) (Render, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return Render{}, err
	}

	var newest string
	var newestTime time.Time
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".html", ".htm", ".xlsx", ".xlsm":
		default:
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = entry.Name()
			newestTime = info.ModTime()
		}
	}

	if newest == "" {
		return Render{}, fmt.Errorf("no report export found in %s", s.Dir)
	}
	if s.MaxAge > 0 && time.Since(newestTime) > s.MaxAge {
		return Render{}, fmt.Errorf(
			"newest export %s is older than %s, refusing stale data",
			newest, s.MaxAge,
		)
	}

	path := filepath.Join(s.Dir, newest)
	slog.DebugContext(ctx, "picked up export", "path", path, "modified", newestTime)
	return FileSource{Path: path}.Fetch(ctx)
}
