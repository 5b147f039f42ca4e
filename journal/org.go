package journal

import (
	"fmt"
	"strings"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block. Structured facts
// go in the PROPERTIES drawer; the Review heading is left for notes.
func FormatTradeOrg(t TradeRecord) string {
	heading := fmt.Sprintf("** Trade: %s %s #%d", t.Symbol, strings.ToUpper(string(t.Side)), t.Ticket)

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":ID: %d\n", t.ID))
	b.WriteString(fmt.Sprintf(":TICKET: %d\n", t.Ticket))
	b.WriteString(fmt.Sprintf(":SYMBOL: %s\n", t.Symbol))
	b.WriteString(fmt.Sprintf(":SIDE: %s\n", t.Side))
	b.WriteString(fmt.Sprintf(":VOLUME: %.2f\n", t.Volume))
	b.WriteString(fmt.Sprintf(":OPEN_PRICE: %.5f\n", t.OpenPrice))
	b.WriteString(fmt.Sprintf(":CLOSE_PRICE: %.5f\n", t.ClosePrice))
	b.WriteString(fmt.Sprintf(":SL: %.5f\n", t.StopLoss))
	b.WriteString(fmt.Sprintf(":TP: %.5f\n", t.TakeProfit))
	b.WriteString(fmt.Sprintf(":OPEN_TIME: %s\n", t.OpenTime))
	b.WriteString(fmt.Sprintf(":CLOSE_TIME: %s\n", t.CloseTime))
	b.WriteString(fmt.Sprintf(":PROFIT: %.2f\n", t.Profit))
	b.WriteString(fmt.Sprintf(":STATUS: %s\n", t.Status))
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}
