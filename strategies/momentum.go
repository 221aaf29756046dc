package strategies

import (
	"fmt"
	"math"
	"sort"

	"github.com/rustyeddy/tradereplay/indicators"
	"github.com/rustyeddy/tradereplay/market"
	"github.com/rustyeddy/tradereplay/session"
)

// Momentum buys when today's close is above the close lookback days ago
// and trims one unit otherwise while holding. It deliberately uses the
// engine's memoized point-query path instead of precomputed columns.
type Momentum struct {
	lookback int
	quantity float64
}

func NewMomentum(p Params) (*Momentum, error) {
	if p.Lookback <= 0 {
		return nil, fmt.Errorf("momentum: lookback must be positive, got %d", p.Lookback)
	}
	if p.Quantity <= 0 {
		return nil, fmt.Errorf("momentum: quantity must be positive, got %v", p.Quantity)
	}
	return &Momentum{lookback: p.Lookback, quantity: p.Quantity}, nil
}

func (s *Momentum) Name() string {
	return fmt.Sprintf("momentum(%d)", s.lookback)
}

// RegisterIndicators installs a custom "lag" indicator: the oldest close
// of the trailing window, i.e. the close lookback days back when queried
// with window lookback+1.
func (s *Momentum) RegisterIndicators(e *indicators.Engine) error {
	return e.RegisterFunc("lag", func(closes []float64) float64 {
		return closes[0]
	})
}

func (s *Momentum) Decide(sess *session.Session, bars map[string]market.Bar) {
	today := sess.Current()
	engine := sess.Indicators()
	pf := sess.Portfolio()

	syms := make([]string, 0, len(bars))
	for sym := range bars {
		syms = append(syms, sym)
	}
	sort.Strings(syms)

	for _, sym := range syms {
		bar := bars[sym]

		past, err := engine.Value("lag", sym, today, s.lookback+1)
		if err != nil || math.IsNaN(past) {
			continue
		}

		if bar.Close > past {
			pf.Buy(sym, bar.Close, today, s.quantity)
		} else if pf.HasPosition(sym) {
			pf.Sell(sym, bar.Close, today, 1)
		}
	}
}
