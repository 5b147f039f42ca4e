package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/eadash/api"
	"github.com/rustyeddy/eadash/dashboard"
	"github.com/rustyeddy/eadash/ingest"
	"github.com/rustyeddy/eadash/journal"
	"github.com/rustyeddy/eadash/settings"
)

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		mama, fama float64
		want       journal.Trend
	}{
		{4350, 4340, journal.TrendBullish},
		{4340, 4350, journal.TrendBearish},
		{4340, 4340, journal.TrendNeutral},
		{0, 0, journal.TrendNeutral},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyTrend(tt.mama, tt.fama))
	}
}

func TestFixedSource(t *testing.T) {
	ctx := context.Background()
	src := &FixedSource{Mama: 4350, Fama: 4340, Balance: 10000, Equity: 10010}

	_, err := src.Snapshot(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, src.Connect(ctx))
	src.QueueTrade(ingest.TradePayload{Ticket: 1, Profit: 5, Status: "closed"})

	snap, err := src.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "BULLISH", snap.Trend)
	assert.Equal(t, "NONE", snap.PositionStatus)
	assert.Equal(t, 10010.0, snap.Equity)
	require.NotNil(t, snap.Trade)
	assert.Equal(t, int64(1), snap.Trade.Ticket)

	snap, err = src.Snapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap.Trade, "an unacknowledged trade is sent again")
	assert.Equal(t, int64(1), snap.Trade.Ticket)

	src.Ack()
	assert.Equal(t, 0, src.Pending())
	snap, err = src.Snapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap.Trade)

	src.Ack()
	assert.Equal(t, 0, src.Pending(), "ack without a trade in flight is a no-op")

	require.NoError(t, src.Close())
	_, err = src.Snapshot(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestClientPush(t *testing.T) {
	var got Telemetry
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/update", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", 0)
	err := c.Push(context.Background(), Telemetry{Trend: "BEARISH", Balance: 99})
	require.NoError(t, err)
	assert.Equal(t, "BEARISH", got.Trend)
	assert.Equal(t, 99.0, got.Balance)
}

func TestClientPushNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("down for maintenance"))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second).Push(context.Background(), Telemetry{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "down for maintenance")
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	err := NewClient(srv.URL, 50*time.Millisecond).Push(context.Background(), Telemetry{})
	assert.Error(t, err)
}

func TestClientSettingsAndStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/settings":
			json.NewEncoder(w).Encode(settings.Defaults())
		case "/api/status":
			w.Write([]byte(`{"is_running": true, "last_update": "2024-01-01T10:00:00Z", "trend": "BULLISH", "position_status": "LONG", "balance": 1, "equity": 2}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)

	s, err := c.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), s)

	st, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.IsRunning)
	assert.Equal(t, journal.PositionLong, st.PositionStatus)
}

type fakeDashboard struct {
	mu     sync.Mutex
	fail   bool
	pushed []Telemetry
}

func (d *fakeDashboard) Push(ctx context.Context, t Telemetry) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return errors.New("connection refused")
	}
	d.pushed = append(d.pushed, t)
	return nil
}

func (d *fakeDashboard) Settings(ctx context.Context) (settings.Settings, error) {
	return settings.Defaults(), nil
}

func (d *fakeDashboard) setFail(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = fail
}

type countingSource struct {
	FixedSource
	connects   int
	closes     int
	connectErr error
}

func (s *countingSource) Connect(ctx context.Context) error {
	s.connects++
	if s.connectErr != nil {
		return s.connectErr
	}
	return s.FixedSource.Connect(ctx)
}

func (s *countingSource) Close() error {
	s.closes++
	return s.FixedSource.Close()
}

func newTestBridge(src Source, dash Dashboard) *Bridge {
	b := NewBridge(src, dash, zerolog.Nop(), BridgeConfig{MaxFailures: 5, ReconnectDelay: time.Second})
	b.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return b
}

func TestCycleResetsFailuresOnSuccess(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{}
	require.NoError(t, src.Connect(ctx))
	dash := &fakeDashboard{fail: true}
	b := newTestBridge(src, dash)

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Cycle(ctx))
	}
	assert.Equal(t, 3, b.Failures())

	dash.setFail(false)
	require.NoError(t, b.Cycle(ctx))
	assert.Equal(t, 0, b.Failures())
	assert.Equal(t, 1, b.Pushes())
	assert.Equal(t, 1, src.connects, "no reconnect below the threshold")
}

func TestCycleReconnectsAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{}
	require.NoError(t, src.Connect(ctx))
	b := newTestBridge(src, &fakeDashboard{fail: true})

	var slept time.Duration
	b.sleep = func(ctx context.Context, d time.Duration) error {
		slept = d
		return nil
	}

	for i := 0; i < 4; i++ {
		require.NoError(t, b.Cycle(ctx))
	}
	assert.Equal(t, 1, src.connects)

	require.NoError(t, b.Cycle(ctx))
	assert.Equal(t, 2, src.connects)
	assert.Equal(t, 1, src.closes)
	assert.Equal(t, time.Second, slept)
	assert.Equal(t, 0, b.Failures())
}

func TestCycleFailedReconnectStops(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{}
	require.NoError(t, src.Connect(ctx))
	b := newTestBridge(src, &fakeDashboard{fail: true})

	src.connectErr = errors.New("terminal not running")
	var err error
	for i := 0; i < 5 && err == nil; i++ {
		err = b.Cycle(ctx)
	}
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reconnect source")
}

func TestCycleResendsTradeAfterFailedPush(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{}
	require.NoError(t, src.Connect(ctx))
	src.QueueTrade(ingest.TradePayload{Ticket: 42, Profit: 12.5, Status: "closed"})
	src.QueueTrade(ingest.TradePayload{Ticket: 43, Profit: -3, Status: "closed"})
	dash := &fakeDashboard{fail: true}
	b := newTestBridge(src, dash)

	require.NoError(t, b.Cycle(ctx))
	assert.Equal(t, 2, src.Pending())

	dash.setFail(false)
	for i := 0; i < 3; i++ {
		require.NoError(t, b.Cycle(ctx))
	}

	var tickets []int64
	for _, p := range dash.pushed {
		if p.Trade != nil {
			tickets = append(tickets, p.Trade.Ticket)
		}
	}
	assert.Equal(t, []int64{42, 43}, tickets)
	assert.Equal(t, 0, src.Pending())
	assert.Equal(t, 3, b.Pushes())
}

type blockingDashboard struct {
	fakeDashboard
	entered chan struct{}
	release chan struct{}
}

func (d *blockingDashboard) Push(ctx context.Context, t Telemetry) error {
	close(d.entered)
	<-d.release
	return d.fakeDashboard.Push(ctx, t)
}

func TestCountersReadableDuringPush(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{}
	require.NoError(t, src.Connect(ctx))
	dash := &blockingDashboard{entered: make(chan struct{}), release: make(chan struct{})}
	b := newTestBridge(src, dash)

	done := make(chan error, 1)
	go func() { done <- b.Cycle(ctx) }()
	<-dash.entered

	read := make(chan struct{})
	go func() {
		b.Failures()
		b.Pushes()
		b.Settings()
		close(read)
	}()
	select {
	case <-read:
	case <-time.After(time.Second):
		t.Fatal("counters blocked behind an in-flight push")
	}

	close(dash.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, b.Pushes())
}

func TestSnapshotFailureCounts(t *testing.T) {
	ctx := context.Background()
	src := &countingSource{}
	b := newTestBridge(src, &fakeDashboard{})

	require.NoError(t, b.Cycle(ctx))
	assert.Equal(t, 1, b.Failures(), "a disconnected source is a failed cycle")
}

func TestRunEndToEnd(t *testing.T) {
	j, err := journal.NewSQLite(filepath.Join(t.TempDir(), "bridge.db"))
	require.NoError(t, err)
	defer j.Close()

	server := api.NewServer(api.ServerConfig{}, dashboard.New(j, zerolog.Nop()), zerolog.Nop())
	srv := httptest.NewServer(server.Handler())
	defer srv.Close()

	src := &FixedSource{Mama: 4340, Fama: 4350, Position: journal.PositionShort, Balance: 10100, Equity: 10090}
	src.QueueTrade(ingest.TradePayload{Ticket: 42, Symbol: "XAUUSD", Type: "sell", Profit: 12.5, Status: "closed"})

	b := NewBridge(src, NewClient(srv.URL, time.Second), zerolog.Nop(), BridgeConfig{Interval: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	require.Eventually(t, func() bool { return b.Pushes() >= 1 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	st, err := j.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.IsRunning)
	assert.Equal(t, journal.TrendBearish, st.Trend)
	assert.Equal(t, journal.PositionShort, st.PositionStatus)

	trades, err := j.RecentTrades(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, int64(42), trades[0].Ticket)

	s, ok := b.Settings()
	assert.True(t, ok)
	assert.Equal(t, settings.Defaults(), s)
}
