package strategies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradereplay/journal"
	"github.com/rustyeddy/tradereplay/market"
	"github.com/rustyeddy/tradereplay/session"
)

func barsFromCloses(symbol string, closes ...float64) *market.Series {
	s := market.NewSeries()
	for i, c := range closes {
		s.Add(market.Bar{Date: d(i + 1), Symbol: symbol, Open: c, High: c + 1, Low: c - 1, Close: c})
	}
	s.Sort()
	return s
}

func TestMomentumBuysIntoRisingCloses(t *testing.T) {
	strat, err := NewMomentum(Params{Lookback: 2, Quantity: 1})
	require.NoError(t, err)

	sess := session.New(barsFromCloses("X", 10, 11, 12, 13, 14), session.Options{})
	require.NoError(t, sess.Run(strat))

	trades := sess.Ledger().Trades()
	// days 3..5 have enough history and each close beats the close two
	// days earlier
	require.Len(t, trades, 3)
	for i, tr := range trades {
		assert.Equal(t, journal.Buy, tr.Action, "trade %d", i)
		assert.Equal(t, d(i+3), tr.Date)
	}
}

func TestMomentumTrimsIntoFallingCloses(t *testing.T) {
	strat, err := NewMomentum(Params{Lookback: 2, Quantity: 2})
	require.NoError(t, err)

	// rise, then fall: buys on day 3, trims one unit per falling day
	sess := session.New(barsFromCloses("X", 10, 11, 12, 9, 8), session.Options{})
	require.NoError(t, sess.Run(strat))

	trades := sess.Ledger().Trades()
	require.Len(t, trades, 3)
	assert.Equal(t, journal.Buy, trades[0].Action)
	assert.Equal(t, journal.Sell, trades[1].Action)
	assert.Equal(t, 1.0, trades[1].Quantity)
	assert.Equal(t, journal.Sell, trades[2].Action)

	assert.False(t, sess.Portfolio().HasPosition("X"))
}

func TestMomentumSkipsWithoutHistory(t *testing.T) {
	strat, err := NewMomentum(Params{Lookback: 5, Quantity: 1})
	require.NoError(t, err)

	sess := session.New(barsFromCloses("X", 10, 11, 12), session.Options{})
	require.NoError(t, sess.Run(strat))
	assert.Equal(t, 0, sess.Ledger().Len())
}

func TestByName(t *testing.T) {
	p := Defaults()

	s, err := ByName("ema-cross", p)
	require.NoError(t, err)
	assert.Equal(t, "ema-cross(5,20)", s.Name())

	s, err = ByName("momentum", p)
	require.NoError(t, err)
	assert.Equal(t, "momentum(5)", s.Name())

	s, err = ByName("noop", p)
	require.NoError(t, err)
	assert.Equal(t, "noop", s.Name())

	_, err = ByName("nope", p)
	assert.Error(t, err)
}

func TestRegisterCustomStrategy(t *testing.T) {
	Register("custom-noop", func(Params) (session.Strategy, error) {
		return Noop{}, nil
	})

	s, err := ByName("Custom-Noop", Defaults())
	require.NoError(t, err)
	assert.Equal(t, "noop", s.Name())
}
