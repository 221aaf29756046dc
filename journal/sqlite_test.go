package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteSaveAndQueryRun(t *testing.T) {
	t.Parallel()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.sqlite"))
	require.NoError(t, err)
	defer j.Close()

	trades := sampleTrades()
	require.NoError(t, j.SaveRun("run-1", trades))

	got, err := j.TradesByRun("run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Buy, got[0].Action)
	assert.Equal(t, Sell, got[1].Action)
	assert.Equal(t, "AAA", got[0].Symbol)
	assert.InDelta(t, 1016.43, got[0].NetAmount, 1e-9)
}

func TestSQLiteQueriesBySymbolAndDate(t *testing.T) {
	t.Parallel()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.sqlite"))
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.SaveRun("run-1", sampleTrades()))

	bySym, err := j.TradesBySymbol("AAA")
	require.NoError(t, err)
	assert.Len(t, bySym, 2)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mid := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	inRange, err := j.TradesBetween(start, mid)
	require.NoError(t, err)
	require.Len(t, inRange, 1)
	assert.Equal(t, Buy, inRange[0].Action)
}

func TestSQLiteEmptyRunIsNoop(t *testing.T) {
	t.Parallel()

	j, err := NewSQLite(filepath.Join(t.TempDir(), "journal.sqlite"))
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.SaveRun("run-empty", nil))

	got, err := j.TradesByRun("run-empty")
	require.NoError(t, err)
	assert.Empty(t, got)
}
