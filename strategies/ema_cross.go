package strategies

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rustyeddy/tradereplay/indicators"
	"github.com/rustyeddy/tradereplay/market"
	"github.com/rustyeddy/tradereplay/session"
)

// EMACross trades a fast/slow EMA crossover per symbol.
//
// Entry: yesterday fast < slow AND today fast > slow (a strict crossing,
// not merely fast above slow), filled at today's close.
// Exit: intraday low <= stop, or intraday high >= target, both boundaries
// inclusive. When a bar straddles both levels the stop wins: with daily
// bars the intrabar ordering is unknowable, so the engine assumes the
// worst case for the trader.
type EMACross struct {
	fastPeriod int
	slowPeriod int
	stopPct    float64
	rr         float64
	quantity   float64

	fastCol indicators.Column
	slowCol indicators.Column

	open map[string]bracket // symbol -> stop/target for the open position
}

type bracket struct {
	entry  float64
	stop   float64
	target float64
}

// NewEMACross validates the parameters and builds the strategy.
func NewEMACross(p Params) (*EMACross, error) {
	if p.Fast <= 0 || p.Slow <= 0 {
		return nil, fmt.Errorf("ema-cross: periods must be positive (fast=%d slow=%d)", p.Fast, p.Slow)
	}
	if p.Fast >= p.Slow {
		return nil, fmt.Errorf("ema-cross: fast period %d must be below slow period %d", p.Fast, p.Slow)
	}
	if p.StopPct <= 0 || p.StopPct >= 1 {
		return nil, fmt.Errorf("ema-cross: stop pct must be in (0,1), got %v", p.StopPct)
	}
	if p.RiskReward <= 0 {
		return nil, fmt.Errorf("ema-cross: risk-reward must be positive, got %v", p.RiskReward)
	}
	if p.Quantity <= 0 {
		return nil, fmt.Errorf("ema-cross: quantity must be positive, got %v", p.Quantity)
	}
	return &EMACross{
		fastPeriod: p.Fast,
		slowPeriod: p.Slow,
		stopPct:    p.StopPct,
		rr:         p.RiskReward,
		quantity:   p.Quantity,
		open:       make(map[string]bracket),
	}, nil
}

func (s *EMACross) Name() string {
	return fmt.Sprintf("ema-cross(%d,%d)", s.fastPeriod, s.slowPeriod)
}

// RegisterIndicators declares both EMA columns for the bulk precompute
// pass and keeps the returned handles.
func (s *EMACross) RegisterIndicators(e *indicators.Engine) error {
	var err error
	if s.fastCol, err = e.Register("ema", s.fastPeriod); err != nil {
		return err
	}
	s.slowCol, err = e.Register("ema", s.slowPeriod)
	return err
}

func (s *EMACross) Decide(sess *session.Session, bars map[string]market.Bar) {
	today := sess.Current()
	prev, hasPrev := sess.PrevDate(today)
	engine := sess.Indicators()
	pf := sess.Portfolio()

	for _, sym := range sortedSymbols(bars) {
		bar := bars[sym]

		br, inPosition := s.open[sym]
		if !inPosition {
			if !hasPrev {
				continue
			}
			s.tryEnter(sess, engine, sym, bar, today, prev)
			continue
		}

		pos, held := pf.Holding(sym)
		if !held {
			// position disappeared underneath us (e.g. fully sold by a
			// rejected-entry race in a shared portfolio); drop tracking
			delete(s.open, sym)
			continue
		}

		switch {
		case bar.Low <= br.stop:
			pf.Sell(sym, br.stop, today, pos.Quantity)
			delete(s.open, sym)
		case bar.High >= br.target:
			pf.Sell(sym, br.target, today, pos.Quantity)
			delete(s.open, sym)
		}
	}
}

func (s *EMACross) tryEnter(sess *session.Session, engine *indicators.Engine, sym string, bar market.Bar, today, prev time.Time) {
	prevFast := engine.At(s.fastCol, sym, prev)
	prevSlow := engine.At(s.slowCol, sym, prev)
	fast := engine.At(s.fastCol, sym, today)
	slow := engine.At(s.slowCol, sym, today)
	if anyNaN(prevFast, prevSlow, fast, slow) {
		return
	}

	if !(prevFast < prevSlow && fast > slow) {
		return
	}

	entry := bar.Close
	stop := entry * (1 - s.stopPct)
	target := entry + (entry-stop)*s.rr

	pf := sess.Portfolio()
	pf.Buy(sym, entry, today, s.quantity)
	if pf.HasPosition(sym) {
		// only track the bracket when the buy actually executed
		s.open[sym] = bracket{entry: entry, stop: stop, target: target}
	}
}

func anyNaN(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func sortedSymbols(bars map[string]market.Bar) []string {
	syms := make([]string, 0, len(bars))
	for sym := range bars {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}
