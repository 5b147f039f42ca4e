// Package stats derives performance metrics from the trade ledger. Only
// closed trades count. Values are aggregated at full precision and rounded
// to two decimals on the way out.
package stats

import (
	"context"
	"math"

	"github.com/rustyeddy/eadash/journal"
)

// Stats is the statistics response. LosingTrades is TotalTrades minus
// WinningTrades, so break-even trades land in the losing bucket count but
// not in AvgLoss.
type Stats struct {
	TotalTrades   int64   `json:"total_trades"`
	WinningTrades int64   `json:"winning_trades"`
	LosingTrades  int64   `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	TotalProfit   float64 `json:"total_profit"`
	AvgWin        float64 `json:"avg_win"`
	AvgLoss       float64 `json:"avg_loss"`
	ProfitFactor  float64 `json:"profit_factor"`
}

// Source is where aggregates come from.
type Source interface {
	Aggregate(ctx context.Context) (journal.Aggregate, error)
}

// Engine computes Stats on every call; nothing is cached.
type Engine struct {
	src Source
}

func NewEngine(src Source) *Engine {
	return &Engine{src: src}
}

// Compute reads the current aggregates and derives Stats.
func (e *Engine) Compute(ctx context.Context) (Stats, error) {
	a, err := e.src.Aggregate(ctx)
	if err != nil {
		return Stats{}, err
	}
	return FromAggregate(a), nil
}

// FromAggregate derives Stats from store-side aggregates.
func FromAggregate(a journal.Aggregate) Stats {
	s := Stats{
		TotalTrades:   a.Closed,
		WinningTrades: a.Winning,
		LosingTrades:  a.Closed - a.Winning,
		TotalProfit:   a.TotalProfit,
	}
	if a.Closed > 0 {
		s.WinRate = float64(a.Winning) / float64(a.Closed) * 100
	}
	if a.Winning > 0 {
		s.AvgWin = a.GrossProfit / float64(a.Winning)
	}
	if a.Losing > 0 {
		s.AvgLoss = -a.GrossLoss / float64(a.Losing)
	}
	// No losses means no finite ratio; report 0.
	if a.GrossLoss > 0 {
		s.ProfitFactor = a.GrossProfit / a.GrossLoss
	}
	return s.rounded()
}

// FromTrades computes the same Stats from a full scan. It is the reference
// the store aggregates are checked against.
func FromTrades(trades []journal.TradeRecord) Stats {
	var a journal.Aggregate
	for _, t := range trades {
		if t.Status != journal.TradeClosed {
			continue
		}
		a.Closed++
		a.TotalProfit += t.Profit
		switch {
		case t.Profit > 0:
			a.Winning++
			a.GrossProfit += t.Profit
		case t.Profit < 0:
			a.Losing++
			a.GrossLoss += -t.Profit
		}
	}
	return FromAggregate(a)
}

func (s Stats) rounded() Stats {
	s.WinRate = round2(s.WinRate)
	s.TotalProfit = round2(s.TotalProfit)
	s.AvgWin = round2(s.AvgWin)
	s.AvgLoss = round2(s.AvgLoss)
	s.ProfitFactor = round2(s.ProfitFactor)
	return s
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
