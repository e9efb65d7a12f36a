package runlog

import (
	"context"
	"testing"
	"time"

	"nutrisync-backend/lib/testutil"

	"github.com/stretchr/testify/require"
)

func TestRunlog(t *testing.T) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/nutrition/runlog",
		DbSchema: Schema,
	})
	defer cleanup()

	store := NewStore(res.DB)
	ctx := context.Background()

	first := Run{
		StartedAt:     time.Unix(1700000000, 0),
		FinishedAt:    time.Unix(1700000030, 0),
		Outcome:       OutcomeSuccess,
		PointsWritten: 42,
		RowsSkipped:   3,
	}
	second := Run{
		StartedAt:  time.Unix(1700086400, 0),
		FinishedAt: time.Unix(1700086410, 0),
		Outcome:    OutcomeFailure,
		Error:      "influx write: connection refused",
	}
	require.NoError(t, store.Record(ctx, first))
	require.NoError(t, store.Record(ctx, second))

	runs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// most recent first
	require.Equal(t, OutcomeFailure, runs[0].Outcome)
	require.Equal(t, second.Error, runs[0].Error)
	require.Equal(t, OutcomeSuccess, runs[1].Outcome)
	require.Equal(t, 42, runs[1].PointsWritten)
	require.Equal(t, 3, runs[1].RowsSkipped)
	require.Equal(t, first.StartedAt.Unix(), runs[1].StartedAt.Unix())

	limited, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	require.Equal(t, OutcomeFailure, limited[0].Outcome)
}
