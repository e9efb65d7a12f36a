// Package sink carries metric points into time-series storage. The
// write contract: nanosecond-capable timestamps, string tag values, and
// at least one field per point.
package sink

import (
	"context"
	"errors"
	"nutrisync-backend/services/nutrition/normalize"
	"time"
)

// ErrWrite wraps any batch write failure; the run that produced the
// batch is considered failed and no partial retry happens inside the
// pipeline (retry is the next scheduled invocation's job).
var ErrWrite = errors.New("metrics sink write failed")

type Sink interface {
	// Write persists the batch in one blocking call.
	Write(ctx context.Context, points []normalize.MetricPoint) error
}

// Verifier is the optional post-write sanity check some sinks support:
// query back at least one point for the given day. Diagnostic only, a
// failed verification is logged by the sink and never fails the run.
type Verifier interface {
	Verify(ctx context.Context, day time.Time) bool
}
