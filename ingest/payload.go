package ingest

import (
	"github.com/rustyeddy/eadash/journal"
)

// Payload is one telemetry snapshot as the agent sends it. Every field is
// optional; see Normalize for the defaults.
type Payload struct {
	MamaValue      float64       `json:"mama_value"`
	FamaValue      float64       `json:"fama_value"`
	Trend          string        `json:"trend"`
	PositionStatus string        `json:"position_status"`
	Balance        float64       `json:"balance"`
	Equity         float64       `json:"equity"`
	Trade          *TradePayload `json:"trade,omitempty"`
}

// TradePayload is the optional embedded trade. Missing fields stay zero.
type TradePayload struct {
	Ticket     int64   `json:"ticket"`
	OpenTime   string  `json:"open_time"`
	CloseTime  string  `json:"close_time"`
	Symbol     string  `json:"symbol"`
	Type       string  `json:"type"`
	Volume     float64 `json:"volume"`
	OpenPrice  float64 `json:"open_price"`
	ClosePrice float64 `json:"close_price"`
	SL         float64 `json:"sl"`
	TP         float64 `json:"tp"`
	Profit     float64 `json:"profit"`
	Status     string  `json:"status"`
}

// Normalize fills the string defaults. Numeric fields already default to 0.
func (p Payload) Normalize() Payload {
	if p.Trend == "" {
		p.Trend = string(journal.TrendNeutral)
	}
	if p.PositionStatus == "" {
		p.PositionStatus = string(journal.PositionNone)
	}
	return p
}

// Record converts the embedded trade to a ledger row.
func (t TradePayload) Record() journal.TradeRecord {
	return journal.TradeRecord{
		Ticket:     t.Ticket,
		OpenTime:   t.OpenTime,
		CloseTime:  t.CloseTime,
		Symbol:     t.Symbol,
		Side:       journal.Side(t.Type),
		Volume:     t.Volume,
		OpenPrice:  t.OpenPrice,
		ClosePrice: t.ClosePrice,
		StopLoss:   t.SL,
		TakeProfit: t.TP,
		Profit:     t.Profit,
		Status:     journal.TradeStatus(t.Status),
	}
}
