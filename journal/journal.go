// Package journal records every executed trade of a replay for post-hoc
// analysis.
package journal

import "time"

type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
)

// Trade is one executed order plus the account snapshot taken right after
// it. Records are created exactly once per executed order and never
// mutated.
type Trade struct {
	Symbol        string
	Action        Action
	Date          time.Time
	Price         float64
	Quantity      float64
	NetAmount     float64 // cash actually moved: total cost on BUY, net proceeds on SELL
	CashAfter     float64
	InvestedAfter float64 // cost basis of open holdings after the trade
}

// Ledger is the append-only in-memory trade book for a single replay run.
// It is not safe for concurrent use; parallel runs each own their own
// ledger and concatenate afterwards.
type Ledger struct {
	trades []Trade
}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Append records an executed trade.
func (l *Ledger) Append(t Trade) {
	l.trades = append(l.trades, t)
}

// Trades returns the recorded trades in execution order.
func (l *Ledger) Trades() []Trade { return l.trades }

// Len returns the number of recorded trades.
func (l *Ledger) Len() int { return len(l.trades) }
