package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradereplay/market"
)

func d(day int) time.Time {
	return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
}

func seriesWithCloses(symbol string, closes ...float64) *market.Series {
	s := market.NewSeries()
	for i, c := range closes {
		s.Add(market.Bar{Date: d(i + 1), Symbol: symbol, Close: c})
	}
	s.Sort()
	return s
}

func TestEngineValueSMA(t *testing.T) {
	e := NewEngine(seriesWithCloses("AAA", 10, 20, 30, 40))

	v, err := e.Value("sma", "AAA", d(3), 3)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, v, 1e-9)

	// only bars with date <= query date participate
	v, err = e.Value("sma", "AAA", d(4), 3)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, v, 1e-9)
}

func TestEngineValueNotEnoughHistoryIsNaN(t *testing.T) {
	e := NewEngine(seriesWithCloses("AAA", 10, 20))

	v, err := e.Value("sma", "AAA", d(2), 5)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))

	// unknown symbol behaves the same way
	v, err = e.Value("ema", "ZZZ", d(2), 5)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))
}

func TestEngineValueUnknownIndicator(t *testing.T) {
	e := NewEngine(seriesWithCloses("AAA", 10))

	_, err := e.Value("wma", "AAA", d(1), 3)
	assert.ErrorIs(t, err, ErrUnknownIndicator)
}

func TestEngineValueCacheKeyIncludesWindow(t *testing.T) {
	e := NewEngine(seriesWithCloses("AAA", 10, 20, 30, 40))

	v3, err := e.Value("sma", "AAA", d(4), 3)
	require.NoError(t, err)
	v2, err := e.Value("sma", "AAA", d(4), 2)
	require.NoError(t, err)

	assert.InDelta(t, 30.0, v3, 1e-9)
	assert.InDelta(t, 35.0, v2, 1e-9)
}

func TestEngineCustomIndicator(t *testing.T) {
	e := NewEngine(seriesWithCloses("AAA", 10, 20, 30))

	err := e.RegisterFunc("last", func(closes []float64) float64 {
		return closes[len(closes)-1]
	})
	require.NoError(t, err)

	v, err := e.Value("last", "AAA", d(2), 2)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, v, 1e-9)

	// builtin names cannot be shadowed
	err = e.RegisterFunc("sma", func([]float64) float64 { return 0 })
	assert.Error(t, err)
}

func TestEngineRegisterFailsFast(t *testing.T) {
	e := NewEngine(seriesWithCloses("AAA", 10))

	_, err := e.Register("nope", 5)
	assert.ErrorIs(t, err, ErrUnknownIndicator)

	_, err = e.Register("sma", 0)
	assert.Error(t, err)
}

func TestEngineComputeAllSMA(t *testing.T) {
	e := NewEngine(seriesWithCloses("AAA", 10, 20, 30, 40, 50))

	col, err := e.Register("sma", 3)
	require.NoError(t, err)
	e.ComputeAll()
	require.True(t, e.Computed())

	assert.True(t, math.IsNaN(e.At(col, "AAA", d(1))))
	assert.True(t, math.IsNaN(e.At(col, "AAA", d(2))))
	assert.InDelta(t, 20.0, e.At(col, "AAA", d(3)), 1e-9)
	assert.InDelta(t, 30.0, e.At(col, "AAA", d(4)), 1e-9)
	assert.InDelta(t, 40.0, e.At(col, "AAA", d(5)), 1e-9)
}

func TestEngineComputeAllEMAMatchesBatchFunc(t *testing.T) {
	closes := []float64{10, 12, 11, 13, 15, 14, 16, 18}
	e := NewEngine(seriesWithCloses("AAA", closes...))

	col, err := e.Register("ema", 4)
	require.NoError(t, err)
	e.ComputeAll()

	// each cell equals the batch EMA over the prefix ending at that date
	for i := 3; i < len(closes); i++ {
		want, err := EMA(closes[:i+1], 4)
		require.NoError(t, err)
		assert.InDelta(t, want, e.At(col, "AAA", d(i+1)), 1e-9, "index %d", i)
	}
}

func TestEngineComputeAllPerSymbol(t *testing.T) {
	s := market.NewSeries()
	for i, c := range []float64{10, 20, 30} {
		s.Add(market.Bar{Date: d(i + 1), Symbol: "AAA", Close: c})
		s.Add(market.Bar{Date: d(i + 1), Symbol: "BBB", Close: c * 10})
	}
	s.Sort()

	e := NewEngine(s)
	col, err := e.Register("sma", 2)
	require.NoError(t, err)
	e.ComputeAll()

	assert.InDelta(t, 15.0, e.At(col, "AAA", d(2)), 1e-9)
	assert.InDelta(t, 150.0, e.At(col, "BBB", d(2)), 1e-9)
}

// Inserting future bars for a symbol must never change values already
// answerable at an earlier date.
func TestEngineCausality(t *testing.T) {
	base := []float64{10, 12, 11, 13, 15}

	short := NewEngine(seriesWithCloses("AAA", base...))
	long := NewEngine(seriesWithCloses("AAA", append(append([]float64{}, base...), 99, 1, 250)...))

	for _, name := range []string{"sma", "ema"} {
		for day := 3; day <= 5; day++ {
			a, err := short.Value(name, "AAA", d(day), 3)
			require.NoError(t, err)
			b, err := long.Value(name, "AAA", d(day), 3)
			require.NoError(t, err)
			assert.InDelta(t, a, b, 1e-9, "%s day %d", name, day)
		}
	}

	// same property for the bulk pass
	colShort, err := short.Register("sma", 3)
	require.NoError(t, err)
	colLong, err := long.Register("sma", 3)
	require.NoError(t, err)
	short.ComputeAll()
	long.ComputeAll()
	for day := 3; day <= 5; day++ {
		assert.InDelta(t, short.At(colShort, "AAA", d(day)), long.At(colLong, "AAA", d(day)), 1e-9)
	}
}
