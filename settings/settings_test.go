package settings

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	s      Settings
	writes int
	err    error
}

func (m *memStore) Settings(ctx context.Context) (Settings, error) { return m.s, nil }

func (m *memStore) WriteSettings(ctx context.Context, s Settings) error {
	if m.err != nil {
		return m.err
	}
	m.s = s
	m.writes++
	return nil
}

func ptr[T any](v T) *T { return &v }

func TestDefaults(t *testing.T) {
	d := Defaults()
	assert.Equal(t, 0.5, d.StopLossPercent)
	assert.Equal(t, 1.0, d.TakeProfitPercent)
	assert.Equal(t, 0.3, d.TrailingStopPercent)
	assert.Equal(t, 0.1, d.LotSize)
	assert.True(t, d.EnableShortTrades)
	assert.Equal(t, 0.5, d.FastLimit)
	assert.Equal(t, 0.05, d.SlowLimit)
	assert.NoError(t, d.Validate())
}

func TestReplaceEmptyResetsToDefaults(t *testing.T) {
	store := &memStore{s: Settings{
		StopLossPercent:     9,
		TakeProfitPercent:   9,
		TrailingStopPercent: 9,
		LotSize:             9,
		EnableShortTrades:   false,
		FastLimit:           0.9,
		SlowLimit:           0.9,
	}}
	r := NewRegister(store)

	got, err := r.Replace(context.Background(), Partial{})
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)
	assert.Equal(t, Defaults(), store.s)
}

func TestReplaceDoesNotMergeWithPrevious(t *testing.T) {
	store := &memStore{}
	r := NewRegister(store)
	ctx := context.Background()

	_, err := r.Replace(ctx, Partial{LotSize: ptr(2.0), EnableShortTrades: ptr(false)})
	require.NoError(t, err)

	got, err := r.Replace(ctx, Partial{StopLossPercent: ptr(1.5)})
	require.NoError(t, err)

	assert.Equal(t, 1.5, got.StopLossPercent)
	assert.Equal(t, 0.1, got.LotSize, "lot_size falls back to default, not to 2.0")
	assert.True(t, got.EnableShortTrades, "enable_short_trades falls back to default")
	assert.Equal(t, 2, store.writes)
}

func TestPartialFromJSON(t *testing.T) {
	var p Partial
	require.NoError(t, json.Unmarshal([]byte(`{"take_profit_percent": 2.5, "enable_short_trades": false}`), &p))

	s := p.Resolve()
	assert.Equal(t, 2.5, s.TakeProfitPercent)
	assert.False(t, s.EnableShortTrades)
	assert.Equal(t, 0.5, s.StopLossPercent)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		partial Partial
		errMsg  string
	}{
		{"defaults", Partial{}, ""},
		{"zero stop loss allowed", Partial{StopLossPercent: ptr(0.0)}, ""},
		{"negative stop loss", Partial{StopLossPercent: ptr(-1.0)}, "stop_loss_percent"},
		{"negative take profit", Partial{TakeProfitPercent: ptr(-0.1)}, "take_profit_percent"},
		{"negative trailing", Partial{TrailingStopPercent: ptr(-0.1)}, "trailing_stop_percent"},
		{"zero lot size", Partial{LotSize: ptr(0.0)}, "lot_size"},
		{"fast limit above one", Partial{FastLimit: ptr(1.5)}, "fast_limit"},
		{"slow limit zero", Partial{SlowLimit: ptr(0.0)}, "slow_limit"},
		{"slow above fast", Partial{FastLimit: ptr(0.1), SlowLimit: ptr(0.2)}, "must not exceed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.partial.Resolve().Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSettings))
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestReplaceInvalidLeavesStoreUntouched(t *testing.T) {
	store := &memStore{s: Defaults()}
	r := NewRegister(store)

	_, err := r.Replace(context.Background(), Partial{LotSize: ptr(-1.0)})
	require.ErrorIs(t, err, ErrInvalidSettings)
	assert.Equal(t, 0, store.writes)
	assert.Equal(t, Defaults(), store.s)
}

func TestReplaceStoreError(t *testing.T) {
	store := &memStore{err: errors.New("disk full")}
	r := NewRegister(store)

	_, err := r.Replace(context.Background(), Partial{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
