// Package agent is the trading-side half of the dashboard: it samples the
// trading platform on a fixed interval and pushes telemetry snapshots to the
// dashboard's /api/update endpoint.
package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/rustyeddy/eadash/ingest"
	"github.com/rustyeddy/eadash/journal"
)

// Telemetry is the snapshot pushed to the dashboard. It shares the wire
// format the ingest side decodes.
type Telemetry = ingest.Payload

// ErrNotConnected is returned by a Source that is asked for a snapshot
// before Connect or after Close.
var ErrNotConnected = errors.New("source not connected")

// Source is the trading platform connection the bridge samples.
//
// A trade carried by a snapshot stays pending until Ack is called, so a
// failed push resends it with the next snapshot.
type Source interface {
	Connect(ctx context.Context) error
	Snapshot(ctx context.Context) (Telemetry, error)
	Ack()
	Close() error
}

// ClassifyTrend derives the trend label from the MAMA/FAMA pair.
func ClassifyTrend(mama, fama float64) journal.Trend {
	switch {
	case mama > fama:
		return journal.TrendBullish
	case mama < fama:
		return journal.TrendBearish
	default:
		return journal.TrendNeutral
	}
}

// FixedSource reports configured values. It stands in for a real platform
// connection in demos and tests. Trades queued with QueueTrade are attached
// to snapshots one at a time, oldest first, until acknowledged.
type FixedSource struct {
	Symbol   string
	Mama     float64
	Fama     float64
	Position journal.PositionStatus
	Balance  float64
	Equity   float64

	mu        sync.Mutex
	connected bool
	pending   []ingest.TradePayload
	inflight  bool
}

var _ Source = (*FixedSource)(nil)

func (s *FixedSource) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return nil
}

func (s *FixedSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	s.inflight = false
	return nil
}

// QueueTrade schedules a closed trade for delivery.
func (s *FixedSource) QueueTrade(t ingest.TradePayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, t)
}

func (s *FixedSource) Snapshot(ctx context.Context) (Telemetry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return Telemetry{}, ErrNotConnected
	}

	pos := s.Position
	if pos == "" {
		pos = journal.PositionNone
	}
	t := Telemetry{
		MamaValue:      s.Mama,
		FamaValue:      s.Fama,
		Trend:          string(ClassifyTrend(s.Mama, s.Fama)),
		PositionStatus: string(pos),
		Balance:        s.Balance,
		Equity:         s.Equity,
	}
	s.inflight = false
	if len(s.pending) > 0 {
		tr := s.pending[0]
		s.inflight = true
		if tr.Symbol == "" {
			tr.Symbol = s.Symbol
		}
		t.Trade = &tr
	}
	return t, nil
}

// Ack drops the trade carried by the last snapshot. Without a trade in
// flight it does nothing.
func (s *FixedSource) Ack() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight && len(s.pending) > 0 {
		s.pending = s.pending[1:]
	}
	s.inflight = false
}

// Pending is the number of trades not yet acknowledged.
func (s *FixedSource) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
