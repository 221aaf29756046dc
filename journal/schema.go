package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	action TEXT NOT NULL,
	date DATETIME NOT NULL,
	price REAL NOT NULL,
	quantity REAL NOT NULL,
	net_amount REAL NOT NULL,
	cash_after REAL NOT NULL,
	invested_after REAL NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol, date);
CREATE INDEX IF NOT EXISTS idx_trades_date ON trades(date);
`
