// Package ingest applies agent telemetry to the ledger.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/eadash/journal"
)

// Store is the transactional view of the ledger the reconciler needs.
type Store interface {
	Tx(ctx context.Context, fn func(w journal.Writer) error) error
}

// Result reports what an Ingest call changed besides the status row.
type Result struct {
	TradeAppended bool  `json:"trade_appended"`
	TradeID       int64 `json:"trade_id,omitempty"`
	Duplicate     bool  `json:"duplicate,omitempty"`
}

type Reconciler struct {
	store  Store
	log    zerolog.Logger
	dedupe bool
	now    func() time.Time
}

type Option func(*Reconciler)

// WithDedupe skips trades whose (ticket, close_time) is already in the
// ledger. Off by default: the agent delivers at least once and duplicates
// are stored as sent.
func WithDedupe(on bool) Option {
	return func(r *Reconciler) { r.dedupe = on }
}

// WithClock replaces time.Now for last_update stamping.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

func NewReconciler(store Store, log zerolog.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{store: store, log: log, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ingest overwrites the status row from p and appends p.Trade when present,
// in one transaction.
//
// Ingesting always sets is_running: an agent that reports is alive, and an
// earlier operator stop is overridden. last_update is the server's clock,
// not the agent's.
func (r *Reconciler) Ingest(ctx context.Context, p Payload) (Result, error) {
	p = p.Normalize()
	status := journal.Status{
		IsRunning:      true,
		LastUpdate:     r.now().UTC(),
		MamaValue:      p.MamaValue,
		FamaValue:      p.FamaValue,
		Trend:          journal.Trend(p.Trend),
		PositionStatus: journal.PositionStatus(p.PositionStatus),
		Balance:        p.Balance,
		Equity:         p.Equity,
	}

	var res Result
	err := r.store.Tx(ctx, func(w journal.Writer) error {
		if err := w.WriteStatus(ctx, status); err != nil {
			return fmt.Errorf("write status: %w", err)
		}
		if p.Trade == nil {
			return nil
		}

		rec := p.Trade.Record()
		if r.dedupe {
			seen, err := w.HasTrade(ctx, rec.Ticket, rec.CloseTime)
			if err != nil {
				return fmt.Errorf("check trade: %w", err)
			}
			if seen {
				res.Duplicate = true
				return nil
			}
		}

		id, err := w.AppendTrade(ctx, rec)
		if err != nil {
			return fmt.Errorf("append trade: %w", err)
		}
		res.TradeAppended = true
		res.TradeID = id
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if res.Duplicate {
		r.log.Warn().
			Int64("ticket", p.Trade.Ticket).
			Str("close_time", p.Trade.CloseTime).
			Msg("duplicate trade skipped")
	}
	r.log.Debug().
		Str("trend", p.Trend).
		Str("position", p.PositionStatus).
		Float64("balance", p.Balance).
		Float64("equity", p.Equity).
		Bool("trade_appended", res.TradeAppended).
		Msg("telemetry ingested")

	return res, nil
}
