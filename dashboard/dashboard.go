// Package dashboard is the service the HTTP layer and the CLI talk to. It
// wires the ledger to ingestion, statistics, control and settings, and
// assembles the read-side responses. Every read goes to the store.
package dashboard

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/eadash/control"
	"github.com/rustyeddy/eadash/ingest"
	"github.com/rustyeddy/eadash/journal"
	"github.com/rustyeddy/eadash/logging"
	"github.com/rustyeddy/eadash/settings"
	"github.com/rustyeddy/eadash/stats"
)

// MaxTrades is the most trades a single listing returns, and the default.
const MaxTrades = 50

type Service struct {
	store    journal.Store
	ingest   *ingest.Reconciler
	stats    *stats.Engine
	control  *control.Machine
	settings *settings.Register
}

func New(store journal.Store, log zerolog.Logger, opts ...ingest.Option) *Service {
	return &Service{
		store:    store,
		ingest:   ingest.NewReconciler(store, logging.For(log, "ingest"), opts...),
		stats:    stats.NewEngine(store),
		control:  control.NewMachine(store, logging.For(log, "control")),
		settings: settings.NewRegister(store),
	}
}

func (s *Service) Status(ctx context.Context) (journal.Status, error) {
	return s.store.Status(ctx)
}

// Trades returns the most recent trades, newest first. limit is clamped to
// 1..MaxTrades; zero or out of range means MaxTrades.
func (s *Service) Trades(ctx context.Context, limit int) ([]journal.TradeRecord, error) {
	if limit <= 0 || limit > MaxTrades {
		limit = MaxTrades
	}
	return s.store.RecentTrades(ctx, limit)
}

func (s *Service) Stats(ctx context.Context) (stats.Stats, error) {
	return s.stats.Compute(ctx)
}

func (s *Service) Settings(ctx context.Context) (settings.Settings, error) {
	return s.settings.Get(ctx)
}

func (s *Service) ReplaceSettings(ctx context.Context, p settings.Partial) (settings.Settings, error) {
	return s.settings.Replace(ctx, p)
}

func (s *Service) Ingest(ctx context.Context, p ingest.Payload) (ingest.Result, error) {
	return s.ingest.Ingest(ctx, p)
}

func (s *Service) Control(ctx context.Context, action string) (control.State, error) {
	return s.control.Apply(ctx, action)
}
