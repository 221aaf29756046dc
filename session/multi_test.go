package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradereplay/journal"
)

func TestMultiRunCombinesIsolatedLedgers(t *testing.T) {
	series := testSeries("AAA", "BBB", "CCC", "DDD")

	m := NewMulti(series, Options{InitialCash: 50_000}, func() Strategy {
		return &spyStrategy{buyDate: d(2)}
	}, 2)

	trades, err := m.Run()
	require.NoError(t, err)

	// one buy per symbol, each executed in its own isolated session
	require.Len(t, trades, 4)
	seen := make(map[string]int)
	for _, tr := range trades {
		assert.Equal(t, journal.Buy, tr.Action)
		assert.Equal(t, d(2), tr.Date)
		seen[tr.Symbol]++
	}
	assert.Len(t, seen, 4)
}

func TestMultiRunSingleWorker(t *testing.T) {
	series := testSeries("AAA", "BBB")

	m := NewMulti(series, Options{}, func() Strategy {
		return &spyStrategy{buyDate: d(3)}
	}, 0) // clamps to 1

	trades, err := m.Run()
	require.NoError(t, err)
	assert.Len(t, trades, 2)
}

func TestChunkSymbols(t *testing.T) {
	tests := []struct {
		name    string
		symbols []string
		n       int
		want    [][]string
	}{
		{"even split", []string{"a", "b", "c", "d"}, 2, [][]string{{"a", "b"}, {"c", "d"}}},
		{"uneven split", []string{"a", "b", "c"}, 2, [][]string{{"a", "b"}, {"c"}}},
		{"more workers than symbols", []string{"a", "b"}, 5, [][]string{{"a"}, {"b"}}},
		{"empty", nil, 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chunkSymbols(tt.symbols, tt.n))
		})
	}
}
