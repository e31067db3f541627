package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TokenChart/internal/model"
)

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "chart.db"), nil)
	require.NoError(t, err)
	defer rec.Close()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, price := range []float64{1.0, 1.5, 2.0} {
		require.NoError(t, rec.RecordSnapshot(&ChartSnapshot{
			Asset:      "asset",
			Window:     model.Window24H,
			State:      "series",
			Buckets:    i + 1,
			Summary:    model.Summary{LastPrice: price, TotalTrades: 10 * (i + 1)},
			RecordedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, rec.RecordSnapshot(&ChartSnapshot{
		Asset: "asset", Window: model.Window7D, State: "error", Error: "boom",
	}))

	snaps, err := rec.RecentSnapshots("asset", model.Window24H, 2)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, 2.0, snaps[0].Summary.LastPrice)
	assert.Equal(t, 30, snaps[0].Summary.TotalTrades)
	assert.Equal(t, 3, snaps[0].Buckets)
	assert.Equal(t, 1.5, snaps[1].Summary.LastPrice)
	assert.NotEmpty(t, snaps[0].ID)
	assert.NotEqual(t, snaps[0].ID, snaps[1].ID)
	assert.True(t, snaps[0].RecordedAt.Equal(base.Add(2*time.Minute)))

	errs, err := rec.RecentSnapshots("asset", model.Window7D, 10)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "boom", errs[0].Error)
	assert.False(t, errs[0].Summary.IsLastKnown)
}

func TestNoopRecorder(t *testing.T) {
	rec := NewNoopRecorder()
	assert.NoError(t, rec.RecordSnapshot(&ChartSnapshot{}))
	snaps, err := rec.RecentSnapshots("asset", model.Window1H, 5)
	assert.NoError(t, err)
	assert.Empty(t, snaps)
	assert.NoError(t, rec.Close())
}
