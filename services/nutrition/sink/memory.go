package sink

import (
	"context"
	"fmt"
	"nutrisync-backend/services/nutrition/normalize"
)

// MemorySink collects batches in memory; used by tests and the CLI
// preview path.
type MemorySink struct {
	Points []normalize.MetricPoint
	// FailWrites makes every Write return ErrWrite, for exercising the
	// run-failure path.
	FailWrites bool
}

func (s *MemorySink) Write(ctx context.Context, points []normalize.MetricPoint) error {
	if s.FailWrites {
		return fmt.Errorf("%w: memory sink configured to fail", ErrWrite)
	}
	for _, p := range points {
		if len(p.Fields) == 0 {
			return fmt.Errorf("%w: point with empty field set", ErrWrite)
		}
	}
	s.Points = append(s.Points, points...)
	return nil
}
