// journal/csv.go
package journal

import (
	"encoding/csv"
	"io"
	"strconv"
)

var csvHeader = []string{
	"id", "ticket", "open_time", "close_time", "symbol", "type", "volume",
	"open_price", "close_price", "sl", "tp", "profit", "status",
}

// WriteTradesCSV writes a header row followed by one row per trade.
func WriteTradesCSV(w io.Writer, trades []TradeRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range trades {
		err := cw.Write([]string{
			strconv.FormatInt(t.ID, 10),
			strconv.FormatInt(t.Ticket, 10),
			t.OpenTime,
			t.CloseTime,
			t.Symbol,
			string(t.Side),
			f(t.Volume),
			f(t.OpenPrice),
			f(t.ClosePrice),
			f(t.StopLoss),
			f(t.TakeProfit),
			f(t.Profit),
			string(t.Status),
		})
		if err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
