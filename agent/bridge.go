package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/eadash/settings"
)

// Dashboard is the part of the dashboard API the bridge uses.
type Dashboard interface {
	Push(ctx context.Context, t Telemetry) error
	Settings(ctx context.Context) (settings.Settings, error)
}

// BridgeConfig tunes the push loop.
type BridgeConfig struct {
	Interval        time.Duration
	MaxFailures     int
	ReconnectDelay  time.Duration
	SettingsRefresh time.Duration
}

// DefaultBridgeConfig pushes every 5s and reconnects after 5 failures.
func DefaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		Interval:        5 * time.Second,
		MaxFailures:     5,
		ReconnectDelay:  5 * time.Second,
		SettingsRefresh: time.Minute,
	}
}

// Bridge samples a Source and pushes each snapshot to the dashboard.
//
// Push failures are counted. After MaxFailures consecutive failures the
// source is closed, the bridge waits ReconnectDelay and reconnects. A failed
// reconnect stops the bridge.
type Bridge struct {
	src  Source
	dash Dashboard
	log  zerolog.Logger
	cfg  BridgeConfig

	// cycleMu serializes cycles; mu guards the counters and settings.
	cycleMu  sync.Mutex
	mu       sync.Mutex
	failures int
	pushes   int
	settings *settings.Settings

	sleep func(ctx context.Context, d time.Duration) error
}

func NewBridge(src Source, dash Dashboard, log zerolog.Logger, cfg BridgeConfig) *Bridge {
	def := DefaultBridgeConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	if cfg.ReconnectDelay < 0 {
		cfg.ReconnectDelay = 0
	}
	return &Bridge{
		src:   src,
		dash:  dash,
		log:   log,
		cfg:   cfg,
		sleep: sleepCtx,
	}
}

// Run connects the source and pushes until ctx is cancelled or a reconnect
// fails. The first push happens immediately.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.src.Connect(ctx); err != nil {
		return fmt.Errorf("connect source: %w", err)
	}
	defer b.src.Close()

	b.log.Info().
		Dur("interval", b.cfg.Interval).
		Int("max_failures", b.cfg.MaxFailures).
		Msg("bridge started")

	fatal := make(chan error, 1)
	report := func(err error) {
		if err == nil {
			return
		}
		select {
		case fatal <- err:
		default:
		}
	}

	b.refreshSettings(ctx)
	report(b.Cycle(ctx))

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(every(b.cfg.Interval), func() { report(b.Cycle(ctx)) }); err != nil {
		return fmt.Errorf("register push job: %w", err)
	}
	if b.cfg.SettingsRefresh > 0 {
		if _, err := c.AddFunc(every(b.cfg.SettingsRefresh), func() { b.refreshSettings(ctx) }); err != nil {
			return fmt.Errorf("register settings job: %w", err)
		}
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	select {
	case <-ctx.Done():
		b.log.Info().Int("pushes", b.Pushes()).Msg("bridge stopped")
		return nil
	case err := <-fatal:
		return err
	}
}

// Cycle takes one snapshot and pushes it. It only returns an error when the
// bridge cannot continue.
func (b *Bridge) Cycle(ctx context.Context) error {
	b.cycleMu.Lock()
	defer b.cycleMu.Unlock()

	err := b.push(ctx)

	b.mu.Lock()
	if err == nil {
		b.failures = 0
		b.pushes++
	} else {
		b.failures++
	}
	failures := b.failures
	b.mu.Unlock()

	if err == nil {
		return nil
	}
	b.log.Warn().Err(err).Int("failures", failures).Msg("push failed")
	if failures < b.cfg.MaxFailures {
		return nil
	}

	b.log.Warn().Int("failures", failures).Msg("too many consecutive failures, reconnecting source")
	if err := b.src.Close(); err != nil {
		b.log.Warn().Err(err).Msg("close source")
	}
	if err := b.sleep(ctx, b.cfg.ReconnectDelay); err != nil {
		return nil
	}
	if err := b.src.Connect(ctx); err != nil {
		return fmt.Errorf("reconnect source: %w", err)
	}

	b.mu.Lock()
	b.failures = 0
	b.mu.Unlock()
	b.log.Info().Msg("source reconnected")
	return nil
}

func (b *Bridge) push(ctx context.Context) error {
	t, err := b.src.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := b.dash.Push(ctx, t); err != nil {
		return err
	}
	b.src.Ack()
	ev := b.log.Debug().
		Float64("balance", t.Balance).
		Str("position", t.PositionStatus).
		Str("trend", t.Trend)
	if t.Trade != nil {
		ev = ev.Int64("ticket", t.Trade.Ticket)
	}
	ev.Msg("update sent")
	return nil
}

func (b *Bridge) refreshSettings(ctx context.Context) {
	s, err := b.dash.Settings(ctx)
	if err != nil {
		b.log.Warn().Err(err).Msg("fetch settings")
		return
	}

	b.mu.Lock()
	changed := b.settings == nil || *b.settings != s
	b.settings = &s
	b.mu.Unlock()

	if changed {
		b.log.Info().
			Float64("lot_size", s.LotSize).
			Float64("stop_loss_percent", s.StopLossPercent).
			Float64("take_profit_percent", s.TakeProfitPercent).
			Bool("enable_short_trades", s.EnableShortTrades).
			Msg("settings updated")
	}
}

// Failures is the current consecutive failure count.
func (b *Bridge) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Pushes counts successful pushes.
func (b *Bridge) Pushes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pushes
}

// Settings is the last settings value fetched from the dashboard.
func (b *Bridge) Settings() (settings.Settings, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.settings == nil {
		return settings.Settings{}, false
	}
	return *b.settings, true
}

// every builds a cron spec. Cron schedules have one second resolution.
func every(d time.Duration) string {
	if d < time.Second {
		d = time.Second
	}
	return "@every " + d.String()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
