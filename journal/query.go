package journal

import (
	"fmt"
	"time"
)

// TradesByRun returns one run's trades in execution order.
func (j *SQLite) TradesByRun(runID string) ([]Trade, error) {
	return j.query(`
		SELECT symbol, action, date, price, quantity, net_amount, cash_after, invested_after
		FROM trades
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
}

// TradesBySymbol returns every recorded trade for a symbol across all
// runs, ordered by date.
func (j *SQLite) TradesBySymbol(symbol string) ([]Trade, error) {
	return j.query(`
		SELECT symbol, action, date, price, quantity, net_amount, cash_after, invested_after
		FROM trades
		WHERE symbol = ?
		ORDER BY date ASC, seq ASC`, symbol)
}

// TradesBetween returns trades with date within [start, end).
func (j *SQLite) TradesBetween(start, end time.Time) ([]Trade, error) {
	return j.query(`
		SELECT symbol, action, date, price, quantity, net_amount, cash_after, invested_after
		FROM trades
		WHERE date >= ? AND date < ?
		ORDER BY date ASC, seq ASC`, start, end)
}

func (j *SQLite) query(q string, args ...any) ([]Trade, error) {
	rows, err := j.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		var t Trade
		var action string
		if err := rows.Scan(
			&t.Symbol, &action, &t.Date, &t.Price,
			&t.Quantity, &t.NetAmount, &t.CashAfter, &t.InvestedAfter,
		); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.Action = Action(action)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
