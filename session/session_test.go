package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradereplay/indicators"
	"github.com/rustyeddy/tradereplay/market"
)

func d(day int) time.Time {
	return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
}

func testSeries(symbols ...string) *market.Series {
	if len(symbols) == 0 {
		symbols = []string{"AAA"}
	}
	s := market.NewSeries()
	for _, sym := range symbols {
		for i := 1; i <= 5; i++ {
			price := float64(100 + i)
			s.Add(market.Bar{
				Date: d(i), Symbol: sym,
				Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 1000,
			})
		}
	}
	s.Sort()
	return s
}

// spyStrategy records every Decide invocation, optionally buying one unit
// of each symbol on a configured date.
type spyStrategy struct {
	dates   []time.Time
	buyDate time.Time
	regErr  error
}

func (s *spyStrategy) Name() string { return "spy" }

func (s *spyStrategy) RegisterIndicators(e *indicators.Engine) error {
	return s.regErr
}

func (s *spyStrategy) Decide(sess *Session, bars map[string]market.Bar) {
	s.dates = append(s.dates, sess.Current())
	if !s.buyDate.IsZero() && sess.Current().Equal(s.buyDate) {
		for sym, b := range bars {
			sess.Portfolio().Buy(sym, b.Close, sess.Current(), 1)
		}
	}
}

func TestRunVisitsEveryDateInOrder(t *testing.T) {
	sess := New(testSeries(), Options{})
	strat := &spyStrategy{}

	require.NoError(t, sess.Run(strat))
	assert.Equal(t, Completed, sess.State())

	require.Len(t, strat.dates, 5)
	for i, date := range strat.dates {
		assert.Equal(t, d(i+1), date)
	}
	// strictly increasing
	for i := 1; i < len(strat.dates); i++ {
		assert.True(t, strat.dates[i].After(strat.dates[i-1]))
	}
}

func TestRunHonorsDateBounds(t *testing.T) {
	sess := New(testSeries(), Options{Start: d(2), End: d(4)})
	strat := &spyStrategy{}

	require.NoError(t, sess.Run(strat))
	assert.Equal(t, []time.Time{d(2), d(3), d(4)}, strat.dates)
}

func TestRunStartOnNonTradingDate(t *testing.T) {
	s := market.NewSeries()
	s.Add(market.Bar{Date: d(2), Symbol: "AAA", Close: 100})
	s.Add(market.Bar{Date: d(6), Symbol: "AAA", Close: 101})
	s.Sort()

	sess := New(s, Options{Start: d(3)})
	strat := &spyStrategy{}

	require.NoError(t, sess.Run(strat))
	assert.Equal(t, []time.Time{d(6)}, strat.dates)
}

func TestRunIsSingleUse(t *testing.T) {
	sess := New(testSeries(), Options{})
	require.NoError(t, sess.Run(&spyStrategy{}))

	err := sess.Run(&spyStrategy{})
	assert.ErrorIs(t, err, ErrAlreadyRun)
}

func TestRunFailsFastOnIndicatorRegistration(t *testing.T) {
	sess := New(testSeries(), Options{})
	strat := &spyStrategy{regErr: indicators.ErrUnknownIndicator}

	err := sess.Run(strat)
	require.Error(t, err)
	assert.ErrorIs(t, err, indicators.ErrUnknownIndicator)
	// the loop never ran
	assert.Empty(t, strat.dates)
}

func TestRunPersistsLedgerCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	sess := New(testSeries(), Options{TradesCSV: path})

	require.NoError(t, sess.Run(&spyStrategy{buyDate: d(3)}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "AAA,BUY,2024-01-03")
}

func TestRunWithoutTradesWritesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	sess := New(testSeries(), Options{TradesCSV: path})

	require.NoError(t, sess.Run(&spyStrategy{}))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestMarkPrices(t *testing.T) {
	sess := New(testSeries("AAA", "BBB"), Options{})
	marks := sess.MarkPrices(d(5))
	assert.InDelta(t, 105.0, marks["AAA"], 1e-9)
	assert.InDelta(t, 105.0, marks["BBB"], 1e-9)
}
