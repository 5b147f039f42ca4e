package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/eadash/settings"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLite is the Ledger Store backed by a single SQLite file.
type SQLite struct {
	db *sql.DB
	sqlWriter
}

var _ Store = (*SQLite)(nil)

// NewSQLite opens (or creates) the database at path, applies the schema and
// seeds the singleton rows if they are missing.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	j := &SQLite{db: db, sqlWriter: sqlWriter{q: db}}
	if err := j.seed(context.Background(), time.Now()); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed: %w", err)
	}
	return j, nil
}

func dsn(path string) string {
	v := url.Values{}
	v.Set("_busy_timeout", "5000")
	v.Set("_journal_mode", "WAL")
	v.Set("_txlock", "immediate")
	return "file:" + path + "?" + v.Encode()
}

func (j *SQLite) seed(ctx context.Context, now time.Time) error {
	return j.Tx(ctx, func(w Writer) error {
		sw := w.(sqlWriter)

		st := DefaultStatus(now)
		if _, err := sw.q.ExecContext(ctx, `
			INSERT OR IGNORE INTO ea_status
			(id, is_running, last_update, mama_value, fama_value, trend, position_status, balance, equity)
			VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)`,
			st.IsRunning, st.LastUpdate, st.MamaValue, st.FamaValue,
			string(st.Trend), string(st.PositionStatus), st.Balance, st.Equity,
		); err != nil {
			return err
		}

		s := settings.Defaults()
		_, err := sw.q.ExecContext(ctx, `
			INSERT OR IGNORE INTO settings
			(id, stop_loss_percent, take_profit_percent, trailing_stop_percent, lot_size,
			 enable_short_trades, fast_limit, slow_limit)
			VALUES (1, ?, ?, ?, ?, ?, ?, ?)`,
			s.StopLossPercent, s.TakeProfitPercent, s.TrailingStopPercent, s.LotSize,
			s.EnableShortTrades, s.FastLimit, s.SlowLimit,
		)
		return err
	})
}

// Tx runs fn inside one transaction. Everything fn writes commits together
// or not at all.
func (j *SQLite) Tx(ctx context.Context, fn func(w Writer) error) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(sqlWriter{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

// sqlWriter implements Writer on top of a db or tx handle.
type sqlWriter struct {
	q queryer
}

func (w sqlWriter) WriteStatus(ctx context.Context, s Status) error {
	_, err := w.q.ExecContext(ctx, `
		INSERT INTO ea_status
		(id, is_running, last_update, mama_value, fama_value, trend, position_status, balance, equity)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			is_running = excluded.is_running,
			last_update = excluded.last_update,
			mama_value = excluded.mama_value,
			fama_value = excluded.fama_value,
			trend = excluded.trend,
			position_status = excluded.position_status,
			balance = excluded.balance,
			equity = excluded.equity`,
		s.IsRunning, s.LastUpdate.UTC(), s.MamaValue, s.FamaValue,
		string(s.Trend), string(s.PositionStatus), s.Balance, s.Equity,
	)
	return err
}

func (w sqlWriter) SetRunning(ctx context.Context, running bool) error {
	res, err := w.q.ExecContext(ctx, `UPDATE ea_status SET is_running = ? WHERE id = 1`, running)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("status: %w", ErrNotFound)
	}
	return nil
}

func (w sqlWriter) AppendTrade(ctx context.Context, t TradeRecord) (int64, error) {
	res, err := w.q.ExecContext(ctx, `
		INSERT INTO trades
		(ticket, open_time, close_time, symbol, type, volume, open_price, close_price, sl, tp, profit, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Ticket, t.OpenTime, t.CloseTime, t.Symbol, string(t.Side), t.Volume,
		t.OpenPrice, t.ClosePrice, t.StopLoss, t.TakeProfit, t.Profit, string(t.Status),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (w sqlWriter) HasTrade(ctx context.Context, ticket int64, closeTime string) (bool, error) {
	var n int
	err := w.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM trades
		WHERE ticket = ? AND COALESCE(close_time, '') = ?`, ticket, closeTime).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (w sqlWriter) WriteSettings(ctx context.Context, s settings.Settings) error {
	_, err := w.q.ExecContext(ctx, `
		INSERT INTO settings
		(id, stop_loss_percent, take_profit_percent, trailing_stop_percent, lot_size,
		 enable_short_trades, fast_limit, slow_limit)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			stop_loss_percent = excluded.stop_loss_percent,
			take_profit_percent = excluded.take_profit_percent,
			trailing_stop_percent = excluded.trailing_stop_percent,
			lot_size = excluded.lot_size,
			enable_short_trades = excluded.enable_short_trades,
			fast_limit = excluded.fast_limit,
			slow_limit = excluded.slow_limit`,
		s.StopLossPercent, s.TakeProfitPercent, s.TrailingStopPercent, s.LotSize,
		s.EnableShortTrades, s.FastLimit, s.SlowLimit,
	)
	return err
}

func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}
