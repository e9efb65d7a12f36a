package nutrition

import (
	"context"
	"strings"
	"testing"

	"nutrisync-backend/lib/testutil"
	"nutrisync-backend/services/nutrition/normalize"
	"nutrisync-backend/services/nutrition/runlog"
	"nutrisync-backend/services/nutrition/sink"
	"nutrisync-backend/services/nutrition/source"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const dinnerReport = `
<html><body>
<table class="report">
<thead><tr>
	<td class="rotatedTd"><span class="rotate">Calories, cals</span></td>
	<td class="rotatedTd"><span class="rotate">Protein, g</span></td>
	<td style="vertical-align: bottom">Time</td>
</tr></thead>
<tbody>
	<tr><td>banner row with no role</td></tr>
	<tr>
		<td class="nutrientTotals">Dinner</td>
		<td class="numeric">600</td>
		<td class="numeric">35</td>
	</tr>
	<tr>
		<td>Salmon</td><td>1 fillet</td><td>180 g</td>
		<td class="numeric">400</td>
		<td class="numeric">30</td>
		<td title="Time">19:15</td>
	</tr>
	<tr>
		<td>Rice</td><td>1 cup</td><td>200 g</td>
		<td class="numeric">200</td>
		<td class="numeric">5</td>
		<td title="Time">19:20</td>
	</tr>
	<tr class="day">
		<td><a class="dailyReportLink" href="/daily?date=20250115">Jan 15</a></td>
		<td class="numeric">600</td>
		<td class="numeric">35</td>
	</tr>
</tbody>
</table>
</body></html>`

type staticSource struct {
	render source.Render
}

func (s staticSource) Fetch(ctx context.Context) (source.Render, error) {
	return s.render, nil
}

func setup(t testing.TB) (staticSource, runlog.Store, func()) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/nutrition",
		DbSchema: runlog.Schema,
	})

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(dinnerReport))
	require.NoError(t, err)

	return staticSource{render: source.Render{HTML: doc}}, runlog.NewStore(res.DB), cleanup
}

func TestRun(t *testing.T) {
	src, runs, cleanup := setup(t)
	defer cleanup()

	memory := &sink.MemorySink{}
	service := NewService(src, memory, normalize.New(), &runs)

	rep, err := service.Run(context.Background())
	require.NoError(t, err)

	// summary + 2 foods + daily total
	require.Equal(t, 4, rep.PointsWritten)
	require.Equal(t, 1, rep.RowsSkipped)
	require.Equal(t, 0, rep.DegradedRows)
	require.Len(t, memory.Points, 4)

	recorded, err := runs.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	require.Equal(t, runlog.OutcomeSuccess, recorded[0].Outcome)
	require.Equal(t, 4, recorded[0].PointsWritten)
}

func TestRunSinkFailure(t *testing.T) {
	src, runs, cleanup := setup(t)
	defer cleanup()

	memory := &sink.MemorySink{FailWrites: true}
	service := NewService(src, memory, normalize.New(), &runs)

	rep, err := service.Run(context.Background())
	require.ErrorIs(t, err, sink.ErrWrite)
	require.Equal(t, 0, rep.PointsWritten)
	require.Empty(t, memory.Points)

	recorded, err := runs.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, recorded, 1)
	require.Equal(t, runlog.OutcomeFailure, recorded[0].Outcome)
	require.NotEmpty(t, recorded[0].Error)
}

func TestRunNoReportTable(t *testing.T) {
	_, runs, cleanup := setup(t)
	defer cleanup()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html><body><p>session expired</p></body></html>`,
	))
	require.NoError(t, err)
	src := staticSource{render: source.Render{HTML: doc}}

	memory := &sink.MemorySink{}
	service := NewService(src, memory, normalize.New(), &runs)

	_, err = service.Run(context.Background())
	require.Error(t, err)
	require.Empty(t, memory.Points)
}
