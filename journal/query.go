package journal

import (
	"context"
	"fmt"

	"github.com/rustyeddy/eadash/settings"
)

// Status returns the current-status row.
func (j *SQLite) Status(ctx context.Context) (Status, error) {
	var s Status
	var trend, pos string

	err := j.db.QueryRowContext(ctx, `
		SELECT is_running, last_update, mama_value, fama_value, trend, position_status, balance, equity
		FROM ea_status
		WHERE id = 1`).Scan(
		&s.IsRunning,
		&s.LastUpdate,
		&s.MamaValue,
		&s.FamaValue,
		&trend,
		&pos,
		&s.Balance,
		&s.Equity,
	)
	if err != nil {
		return Status{}, notFound(err, "status")
	}
	s.Trend = Trend(trend)
	s.PositionStatus = PositionStatus(pos)
	return s, nil
}

// Settings returns the settings row.
func (j *SQLite) Settings(ctx context.Context) (settings.Settings, error) {
	var s settings.Settings

	err := j.db.QueryRowContext(ctx, `
		SELECT stop_loss_percent, take_profit_percent, trailing_stop_percent, lot_size,
		       enable_short_trades, fast_limit, slow_limit
		FROM settings
		WHERE id = 1`).Scan(
		&s.StopLossPercent,
		&s.TakeProfitPercent,
		&s.TrailingStopPercent,
		&s.LotSize,
		&s.EnableShortTrades,
		&s.FastLimit,
		&s.SlowLimit,
	)
	if err != nil {
		return settings.Settings{}, notFound(err, "settings")
	}
	return s, nil
}

// GetTrade returns a single trade record by its surrogate id.
func (j *SQLite) GetTrade(ctx context.Context, id int64) (TradeRecord, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+tradeColumns+` FROM trades WHERE id = ?`, id)

	rec, err := scanTrade(row)
	if err != nil {
		return TradeRecord{}, notFound(err, fmt.Sprintf("trade %d", id))
	}
	return rec, nil
}

// RecentTrades returns at most limit trades, newest (highest id) first.
func (j *SQLite) RecentTrades(ctx context.Context, limit int) ([]TradeRecord, error) {
	return j.listTrades(ctx, `SELECT `+tradeColumns+` FROM trades ORDER BY id DESC LIMIT ?`, limit)
}

// ClosedTrades returns every closed trade in insertion order.
func (j *SQLite) ClosedTrades(ctx context.Context) ([]TradeRecord, error) {
	return j.listTrades(ctx, `SELECT `+tradeColumns+` FROM trades WHERE status = ? ORDER BY id ASC`, string(TradeClosed))
}

// TradeCount returns the number of ledger rows regardless of status.
func (j *SQLite) TradeCount(ctx context.Context) (int64, error) {
	var n int64
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trades`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Aggregate runs the closed-trade aggregates in a single statement so the
// counts and sums come from the same snapshot.
func (j *SQLite) Aggregate(ctx context.Context) (Aggregate, error) {
	var a Aggregate

	err := j.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN profit > 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN profit < 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(profit), 0.0),
			COALESCE(SUM(CASE WHEN profit > 0 THEN profit END), 0.0),
			COALESCE(SUM(CASE WHEN profit < 0 THEN ABS(profit) END), 0.0)
		FROM trades
		WHERE status = ?`, string(TradeClosed)).Scan(
		&a.Closed,
		&a.Winning,
		&a.Losing,
		&a.TotalProfit,
		&a.GrossProfit,
		&a.GrossLoss,
	)
	if err != nil {
		return Aggregate{}, err
	}
	return a, nil
}

func (j *SQLite) listTrades(ctx context.Context, query string, args ...any) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TradeRecord{}
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (TradeRecord, error) {
	var (
		rec          TradeRecord
		side, status string
	)
	err := s.Scan(
		&rec.ID,
		&rec.Ticket,
		&rec.OpenTime,
		&rec.CloseTime,
		&rec.Symbol,
		&side,
		&rec.Volume,
		&rec.OpenPrice,
		&rec.ClosePrice,
		&rec.StopLoss,
		&rec.TakeProfit,
		&rec.Profit,
		&status,
	)
	if err != nil {
		return TradeRecord{}, err
	}
	rec.Side = Side(side)
	rec.Status = TradeStatus(status)
	return rec, nil
}
