// Package settings holds the agent's configuration record and the rules for
// replacing it.
package settings

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidSettings is returned when a replacement fails validation.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings is the single configuration row the agent polls.
type Settings struct {
	StopLossPercent     float64 `json:"stop_loss_percent" yaml:"stop_loss_percent"`
	TakeProfitPercent   float64 `json:"take_profit_percent" yaml:"take_profit_percent"`
	TrailingStopPercent float64 `json:"trailing_stop_percent" yaml:"trailing_stop_percent"`
	LotSize             float64 `json:"lot_size" yaml:"lot_size"`
	EnableShortTrades   bool    `json:"enable_short_trades" yaml:"enable_short_trades"`
	FastLimit           float64 `json:"fast_limit" yaml:"fast_limit"`
	SlowLimit           float64 `json:"slow_limit" yaml:"slow_limit"`
}

// Defaults returns the hardcoded defaults.
func Defaults() Settings {
	return Settings{
		StopLossPercent:     0.5,
		TakeProfitPercent:   1.0,
		TrailingStopPercent: 0.3,
		LotSize:             0.1,
		EnableShortTrades:   true,
		FastLimit:           0.5,
		SlowLimit:           0.05,
	}
}

// Partial is a replacement request. A nil field means "not supplied".
type Partial struct {
	StopLossPercent     *float64 `json:"stop_loss_percent,omitempty"`
	TakeProfitPercent   *float64 `json:"take_profit_percent,omitempty"`
	TrailingStopPercent *float64 `json:"trailing_stop_percent,omitempty"`
	LotSize             *float64 `json:"lot_size,omitempty"`
	EnableShortTrades   *bool    `json:"enable_short_trades,omitempty"`
	FastLimit           *float64 `json:"fast_limit,omitempty"`
	SlowLimit           *float64 `json:"slow_limit,omitempty"`
}

// Resolve fills every omitted field from Defaults, never from the previous
// stored value.
func (p Partial) Resolve() Settings {
	s := Defaults()
	if p.StopLossPercent != nil {
		s.StopLossPercent = *p.StopLossPercent
	}
	if p.TakeProfitPercent != nil {
		s.TakeProfitPercent = *p.TakeProfitPercent
	}
	if p.TrailingStopPercent != nil {
		s.TrailingStopPercent = *p.TrailingStopPercent
	}
	if p.LotSize != nil {
		s.LotSize = *p.LotSize
	}
	if p.EnableShortTrades != nil {
		s.EnableShortTrades = *p.EnableShortTrades
	}
	if p.FastLimit != nil {
		s.FastLimit = *p.FastLimit
	}
	if p.SlowLimit != nil {
		s.SlowLimit = *p.SlowLimit
	}
	return s
}

// Validate checks ranges. MAMA limits are smoothing factors in (0, 1].
func (s Settings) Validate() error {
	if s.StopLossPercent < 0 {
		return fmt.Errorf("%w: stop_loss_percent must not be negative", ErrInvalidSettings)
	}
	if s.TakeProfitPercent < 0 {
		return fmt.Errorf("%w: take_profit_percent must not be negative", ErrInvalidSettings)
	}
	if s.TrailingStopPercent < 0 {
		return fmt.Errorf("%w: trailing_stop_percent must not be negative", ErrInvalidSettings)
	}
	if s.LotSize <= 0 {
		return fmt.Errorf("%w: lot_size must be positive", ErrInvalidSettings)
	}
	if s.FastLimit <= 0 || s.FastLimit > 1 {
		return fmt.Errorf("%w: fast_limit must be in (0, 1]", ErrInvalidSettings)
	}
	if s.SlowLimit <= 0 || s.SlowLimit > 1 {
		return fmt.Errorf("%w: slow_limit must be in (0, 1]", ErrInvalidSettings)
	}
	if s.SlowLimit > s.FastLimit {
		return fmt.Errorf("%w: slow_limit must not exceed fast_limit", ErrInvalidSettings)
	}
	return nil
}

// Store is the persistence the register needs.
type Store interface {
	Settings(ctx context.Context) (Settings, error)
	WriteSettings(ctx context.Context, s Settings) error
}

// Register reads and replaces the settings row.
type Register struct {
	store Store
}

func NewRegister(store Store) *Register {
	return &Register{store: store}
}

// Get returns the current settings.
func (r *Register) Get(ctx context.Context) (Settings, error) {
	return r.store.Settings(ctx)
}

// Replace resolves p against the defaults, validates the result and writes
// it as a whole. The written value is returned.
func (r *Register) Replace(ctx context.Context, p Partial) (Settings, error) {
	s := p.Resolve()
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	if err := r.store.WriteSettings(ctx, s); err != nil {
		return Settings{}, fmt.Errorf("write settings: %w", err)
	}
	return s, nil
}
