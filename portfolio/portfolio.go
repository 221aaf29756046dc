// Package portfolio owns cash and per-symbol holdings during a replay and
// turns strategy orders into cash-consistent trades.
package portfolio

import (
	"sort"
	"time"

	"github.com/rustyeddy/tradereplay/journal"
)

// Position is one open holding. Quantity is always > 0; a fully closed
// position is removed from the holdings map rather than stored at zero.
// AvgPrice is the cost-basis-weighted average across all buys since the
// position was last fully closed.
type Position struct {
	Quantity float64
	AvgPrice float64
}

// FeeModel is the proportional-plus-flat brokerage cost applied on both
// sides of a trade: fee = gross*Rate + Flat. Set Rate or Flat to zero for
// the flat-only and proportional-only variants.
type FeeModel struct {
	Rate float64
	Flat float64
}

// Fee returns the brokerage cost on a gross trade amount.
func (m FeeModel) Fee(gross float64) float64 {
	return gross*m.Rate + m.Flat
}

// Portfolio executes buy/sell requests against live cash and appends every
// executed trade to the ledger.
//
// Invalid orders (non-positive quantity, insufficient funds, selling what
// is not held) are silent rejects: no error, no state change, no trade
// record. Strategies issuing bad orders must never crash a multi-year
// replay.
type Portfolio struct {
	cash     float64
	fees     FeeModel
	holdings map[string]Position
	ledger   *journal.Ledger
}

// New creates a portfolio with the given starting cash. The ledger may be
// nil, in which case trades simply are not recorded.
func New(cash float64, fees FeeModel, ledger *journal.Ledger) *Portfolio {
	return &Portfolio{
		cash:     cash,
		fees:     fees,
		holdings: make(map[string]Position),
		ledger:   ledger,
	}
}

// Cash returns the current free cash.
func (p *Portfolio) Cash() float64 { return p.cash }

// Holding returns the open position for symbol, if any.
func (p *Portfolio) Holding(symbol string) (Position, bool) {
	pos, ok := p.holdings[symbol]
	return pos, ok
}

// HasPosition reports whether any quantity of symbol is held.
func (p *Portfolio) HasPosition(symbol string) bool {
	_, ok := p.holdings[symbol]
	return ok
}

// Symbols returns the held symbols, sorted.
func (p *Portfolio) Symbols() []string {
	syms := make([]string, 0, len(p.holdings))
	for sym := range p.holdings {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}

// Buy executes a market buy of quantity at price. The order is rejected
// (no-op) when quantity <= 0 or when cash cannot cover cost plus fee.
func (p *Portfolio) Buy(symbol string, price float64, date time.Time, quantity float64) {
	if quantity <= 0 {
		return
	}

	cost := price * quantity
	total := cost + p.fees.Fee(cost)
	if p.cash < total {
		return
	}

	p.cash -= total

	pos, held := p.holdings[symbol]
	if held {
		newQty := pos.Quantity + quantity
		pos.AvgPrice = (pos.AvgPrice*pos.Quantity + price*quantity) / newQty
		pos.Quantity = newQty
	} else {
		pos = Position{Quantity: quantity, AvgPrice: price}
	}
	p.holdings[symbol] = pos

	p.log(journal.Buy, symbol, date, price, quantity, total)
}

// Sell executes a market sell. Quantity is clamped to the held quantity;
// selling a symbol that is not held is a no-op. A partial sell leaves the
// average entry price untouched; a full sell removes the position.
func (p *Portfolio) Sell(symbol string, price float64, date time.Time, quantity float64) {
	pos, held := p.holdings[symbol]
	if !held || quantity <= 0 {
		return
	}

	qty := quantity
	if qty > pos.Quantity {
		qty = pos.Quantity
	}

	proceeds := price * qty
	net := proceeds - p.fees.Fee(proceeds)
	p.cash += net

	if qty == pos.Quantity {
		delete(p.holdings, symbol)
	} else {
		pos.Quantity -= qty
		p.holdings[symbol] = pos
	}

	p.log(journal.Sell, symbol, date, price, qty, net)
}

// Invested returns the cost basis of all open holdings.
func (p *Portfolio) Invested() float64 {
	total := 0.0
	for _, pos := range p.holdings {
		total += pos.Quantity * pos.AvgPrice
	}
	return total
}

// TotalValue marks every holding at the supplied price, falling back to
// its average entry price when no mark is available, and adds cash.
// Valuation is therefore always defined.
func (p *Portfolio) TotalValue(marks map[string]float64) float64 {
	value := p.cash
	for sym, pos := range p.holdings {
		mark, ok := marks[sym]
		if !ok {
			mark = pos.AvgPrice
		}
		value += pos.Quantity * mark
	}
	return value
}

func (p *Portfolio) log(action journal.Action, symbol string, date time.Time, price, quantity, netAmount float64) {
	if p.ledger == nil {
		return
	}
	p.ledger.Append(journal.Trade{
		Symbol:        symbol,
		Action:        action,
		Date:          date,
		Price:         price,
		Quantity:      quantity,
		NetAmount:     netAmount,
		CashAfter:     p.cash,
		InvestedAfter: p.Invested(),
	})
}
