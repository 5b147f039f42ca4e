// journal/schema.go
package journal

// Schema is compatible with databases written by earlier dashboard
// releases, which is why nullable columns are read through COALESCE.
const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ticket INTEGER,
	open_time TEXT,
	close_time TEXT,
	symbol TEXT,
	type TEXT,
	volume REAL,
	open_price REAL,
	close_price REAL,
	sl REAL,
	tp REAL,
	profit REAL,
	status TEXT
);

CREATE INDEX IF NOT EXISTS idx_trades_status ON trades(status);
CREATE INDEX IF NOT EXISTS idx_trades_ticket_close ON trades(ticket, close_time);

CREATE TABLE IF NOT EXISTS ea_status (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	is_running INTEGER NOT NULL,
	last_update DATETIME NOT NULL,
	mama_value REAL NOT NULL,
	fama_value REAL NOT NULL,
	trend TEXT NOT NULL,
	position_status TEXT NOT NULL,
	balance REAL NOT NULL,
	equity REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	stop_loss_percent REAL NOT NULL,
	take_profit_percent REAL NOT NULL,
	trailing_stop_percent REAL NOT NULL,
	lot_size REAL NOT NULL,
	enable_short_trades INTEGER NOT NULL,
	fast_limit REAL NOT NULL,
	slow_limit REAL NOT NULL
);
`

const tradeColumns = `id, COALESCE(ticket, 0), COALESCE(open_time, ''), COALESCE(close_time, ''),
	COALESCE(symbol, ''), COALESCE(type, ''), COALESCE(volume, 0), COALESCE(open_price, 0),
	COALESCE(close_price, 0), COALESCE(sl, 0), COALESCE(tp, 0), COALESCE(profit, 0), COALESCE(status, '')`
