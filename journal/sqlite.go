package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite persists trade ledgers to a SQLite database, keyed by run ID so
// multiple replays can share one file.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// SaveRun writes all trades of one run in a single transaction. Saving an
// empty ledger is a no-op, mirroring the CSV behavior.
func (j *SQLite) SaveRun(runID string, trades []Trade) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT INTO trades
		(run_id, seq, symbol, action, date, price, quantity, net_amount, cash_after, invested_after)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i, t := range trades {
		if _, err := stmt.Exec(
			runID, i, t.Symbol, string(t.Action), t.Date,
			t.Price, t.Quantity, t.NetAmount, t.CashAfter, t.InvestedAfter,
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
