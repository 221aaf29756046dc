package market

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// BarsSchema is the DDL for a bar store database.
const BarsSchema = `
CREATE TABLE IF NOT EXISTS bars (
	date INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	open REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	close REAL NOT NULL,
	volume REAL NOT NULL,
	PRIMARY KEY (date, symbol)
);

CREATE INDEX IF NOT EXISTS idx_bars_symbol ON bars(symbol, date);
`

// LoadSQLite reads every bar out of a bar store database into a Series.
// Dates are stored as unix seconds at UTC midnight.
func LoadSQLite(path string) (*Series, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT date, symbol, open, high, low, close, volume
		FROM bars
		ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDataIntegrity, path, err)
	}
	defer rows.Close()

	s := NewSeries()
	for rows.Next() {
		var unix int64
		var b Bar
		if err := rows.Scan(&unix, &b.Symbol, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		b.Date = fromUnixDay(unix)
		s.Add(b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.Sort()
	return s, nil
}

// SaveSQLite writes the whole series into a bar store database, creating
// the schema if needed. Existing rows for the same (date, symbol) are
// replaced.
func SaveSQLite(s *Series, path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(BarsSchema); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO bars
		(date, symbol, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, date := range s.Dates() {
		for _, b := range s.BarsFor(date) {
			if _, err := stmt.Exec(b.Date.Unix(), b.Symbol, b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
				tx.Rollback()
				return err
			}
		}
	}
	return tx.Commit()
}
