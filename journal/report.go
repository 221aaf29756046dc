package journal

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Summary aggregates a ledger into the metrics the trade analysis script
// reports: portfolio value trajectory from the per-trade snapshots plus
// per-symbol activity.
type Summary struct {
	Trades     int
	Buys       int
	Sells      int
	Wins       int // sells that realized a positive P&L
	Symbols    []string
	NetFlow    map[string]float64 // per symbol: sell proceeds - buy cost
	Realized   map[string]float64 // per symbol: P&L realized by sells, net of fees
	FirstValue float64            // cash + invested after the first trade
	LastValue  float64            // cash + invested after the last trade
}

// Summarize computes a Summary over trades in execution order. Realized
// P&L replays the same weighted-average cost model the portfolio uses, so
// each sell is measured against the fee-inclusive average cost of the
// shares it closes.
func Summarize(trades []Trade) Summary {
	s := Summary{
		NetFlow:  make(map[string]float64),
		Realized: make(map[string]float64),
	}
	s.Trades = len(trades)

	type book struct{ qty, cost float64 }
	books := make(map[string]book)

	for i, t := range trades {
		value := t.CashAfter + t.InvestedAfter
		if i == 0 {
			s.FirstValue = value
		}
		s.LastValue = value

		switch t.Action {
		case Buy:
			s.Buys++
			s.NetFlow[t.Symbol] -= t.NetAmount
			b := books[t.Symbol]
			b.qty += t.Quantity
			b.cost += t.NetAmount
			books[t.Symbol] = b

		case Sell:
			s.Sells++
			s.NetFlow[t.Symbol] += t.NetAmount
			b := books[t.Symbol]
			if b.qty > 0 {
				avg := b.cost / b.qty
				pnl := t.NetAmount - avg*t.Quantity
				s.Realized[t.Symbol] += pnl
				if pnl > 0 {
					s.Wins++
				}
				b.qty -= t.Quantity
				b.cost -= avg * t.Quantity
				books[t.Symbol] = b
			}
		}
	}

	for sym := range s.NetFlow {
		s.Symbols = append(s.Symbols, sym)
	}
	sort.Strings(s.Symbols)
	return s
}

// TotalReturn is the fractional change in portfolio value between the
// first and last trade snapshot. Zero when fewer than two trades exist.
func (s Summary) TotalReturn() float64 {
	if s.Trades < 2 || s.FirstValue == 0 {
		return 0
	}
	r := s.LastValue/s.FirstValue - 1
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// WinRate is the fraction of sells that realized a positive P&L. Zero
// when no sells exist.
func (s Summary) WinRate() float64 {
	if s.Sells == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Sells)
}

// String renders a compact text report.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "trades: %d (%d buys, %d sells)\n", s.Trades, s.Buys, s.Sells)
	fmt.Fprintf(&b, "total return: %.2f%%  win rate: %.0f%%\n", s.TotalReturn()*100, s.WinRate()*100)
	for _, sym := range s.Symbols {
		fmt.Fprintf(&b, "  %-10s net flow %12.2f  realized %12.2f\n", sym, s.NetFlow[sym], s.Realized[sym])
	}
	return b.String()
}
