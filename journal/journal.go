// journal/journal.go
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/eadash/settings"
)

// ErrNotFound is returned when a singleton row is missing.
var ErrNotFound = errors.New("not found")

// Trend is the agent's trend classification. Values are opaque to the
// ledger; the constants are the ones the agent is known to send.
type Trend string

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
	TrendNeutral Trend = "NEUTRAL"
)

// PositionStatus is the agent's open position, if any.
type PositionStatus string

const (
	PositionNone  PositionStatus = "NONE"
	PositionLong  PositionStatus = "LONG"
	PositionShort PositionStatus = "SHORT"
)

// Side of a trade as reported by the broker.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// TradeStatus of a ledger row. Statistics only consider closed trades.
type TradeStatus string

const (
	TradeOpen   TradeStatus = "open"
	TradeClosed TradeStatus = "closed"
)

// Status is the single current-status row.
type Status struct {
	IsRunning      bool           `json:"is_running"`
	LastUpdate     time.Time      `json:"last_update"`
	MamaValue      float64        `json:"mama_value"`
	FamaValue      float64        `json:"fama_value"`
	Trend          Trend          `json:"trend"`
	PositionStatus PositionStatus `json:"position_status"`
	Balance        float64        `json:"balance"`
	Equity         float64        `json:"equity"`
}

// TradeRecord is one append-only ledger row. ID is the surrogate key assigned
// on insert; Ticket is broker-assigned and may repeat. Times are kept as the
// agent sent them.
type TradeRecord struct {
	ID         int64       `json:"id"`
	Ticket     int64       `json:"ticket"`
	OpenTime   string      `json:"open_time"`
	CloseTime  string      `json:"close_time"`
	Symbol     string      `json:"symbol"`
	Side       Side        `json:"type"`
	Volume     float64     `json:"volume"`
	OpenPrice  float64     `json:"open_price"`
	ClosePrice float64     `json:"close_price"`
	StopLoss   float64     `json:"sl"`
	TakeProfit float64     `json:"tp"`
	Profit     float64     `json:"profit"`
	Status     TradeStatus `json:"status"`
}

// Aggregate is the filtered aggregate scan over closed trades. GrossLoss is
// the sum of absolute values of negative profits.
type Aggregate struct {
	Closed      int64
	Winning     int64
	Losing      int64
	TotalProfit float64
	GrossProfit float64
	GrossLoss   float64
}

// DefaultStatus is the row seeded on first startup.
func DefaultStatus(now time.Time) Status {
	return Status{
		IsRunning:      false,
		LastUpdate:     now.UTC(),
		Trend:          TrendNeutral,
		PositionStatus: PositionNone,
		Balance:        10000,
		Equity:         10000,
	}
}

// Writer is the set of mutations available inside a transaction.
type Writer interface {
	WriteStatus(ctx context.Context, s Status) error
	SetRunning(ctx context.Context, running bool) error
	AppendTrade(ctx context.Context, t TradeRecord) (int64, error)
	HasTrade(ctx context.Context, ticket int64, closeTime string) (bool, error)
	WriteSettings(ctx context.Context, s settings.Settings) error
}

// Store is the ledger: one status row, one settings row and the trades.
type Store interface {
	Writer

	Tx(ctx context.Context, fn func(w Writer) error) error

	Status(ctx context.Context) (Status, error)
	Settings(ctx context.Context) (settings.Settings, error)
	GetTrade(ctx context.Context, id int64) (TradeRecord, error)
	RecentTrades(ctx context.Context, limit int) ([]TradeRecord, error)
	ClosedTrades(ctx context.Context) ([]TradeRecord, error)
	TradeCount(ctx context.Context) (int64, error)
	Aggregate(ctx context.Context) (Aggregate, error)

	Close() error
}
