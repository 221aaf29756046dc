package market

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bars.sqlite")

	s := testSeries()
	require.NoError(t, SaveSQLite(s, path))

	loaded, err := LoadSQLite(path)
	require.NoError(t, err)

	assert.Equal(t, s.Dates(), loaded.Dates())
	assert.Equal(t, s.Symbols(), loaded.Symbols())

	want, _ := s.Bar("AAA", d(2))
	got, ok := loaded.Bar("AAA", d(2))
	require.True(t, ok)
	assert.Equal(t, want, got)
}
