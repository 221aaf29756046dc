package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

var csvHeader = []string{
	"symbol", "action", "date", "price", "quantity",
	"net_amount", "cash_after", "invested_after",
}

const csvDateLayout = "2006-01-02"

// SaveCSV writes the ledger to path, one row per trade in execution
// order. When the ledger is empty no file is written at all.
func (l *Ledger) SaveCSV(path string) error {
	if len(l.trades) == 0 {
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range l.trades {
		if err := w.Write([]string{
			t.Symbol,
			string(t.Action),
			t.Date.Format(csvDateLayout),
			f6(t.Price),
			f6(t.Quantity),
			f6(t.NetAmount),
			f6(t.CashAfter),
			f6(t.InvestedAfter),
		}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// LoadCSV reads a ledger previously written by SaveCSV.
func LoadCSV(path string) (*Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(header) != len(csvHeader) {
		return nil, fmt.Errorf("%s: unexpected header %v", path, header)
	}

	l := NewLedger()
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		t, err := tradeFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		l.Append(t)
	}
	return l, nil
}

func tradeFromRow(row []string) (Trade, error) {
	if len(row) != len(csvHeader) {
		return Trade{}, fmt.Errorf("short row %v", row)
	}
	date, err := time.Parse(csvDateLayout, row[2])
	if err != nil {
		return Trade{}, fmt.Errorf("bad date %q: %w", row[2], err)
	}

	fields := make([]float64, 5)
	for i, raw := range row[3:] {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Trade{}, fmt.Errorf("bad number %q: %w", raw, err)
		}
		fields[i] = v
	}

	return Trade{
		Symbol:        row[0],
		Action:        Action(row[1]),
		Date:          date,
		Price:         fields[0],
		Quantity:      fields[1],
		NetAmount:     fields[2],
		CashAfter:     fields[3],
		InvestedAfter: fields[4],
	}, nil
}

func f6(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
