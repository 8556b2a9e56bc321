package strategy

import (
	"fmt"
	"math"

	"papertrade/indicator"
)

// Status renders the latest row's indicator state for a strategy as a
// one-line human-readable string, for terminal display and API output.
func Status(rows []indicator.Row, name string) string {
	if len(rows) == 0 {
		return "no data"
	}
	row := rows[len(rows)-1]

	switch name {
	case MACross:
		if math.IsNaN(row.MA5) || math.IsNaN(row.MA20) {
			return "MA warm-up"
		}
		trend := "bearish"
		if row.MA5 > row.MA20 {
			trend = "bullish"
		}
		dist := (row.MA5 - row.MA20) / row.MA20 * 100
		return fmt.Sprintf("MA5: %.1f | MA20: %.1f (%s %+.1f%%)", row.MA5, row.MA20, trend, dist)

	case RSIName:
		if math.IsNaN(row.RSI) {
			return "RSI warm-up"
		}
		return fmt.Sprintf("RSI: %.1f (overbought>70, oversold<30)", row.RSI)

	case MACDName:
		return fmt.Sprintf("DIF: %.2f | DEM: %.2f | Bar: %.2f", row.DIF, row.DEM, row.MACDBar)

	case Bollinger:
		if math.IsNaN(row.BBUp) || math.IsNaN(row.BBLow) {
			return "BB warm-up"
		}
		return fmt.Sprintf("Close: %.1f | Upper: %.1f | Lower: %.1f", row.Close, row.BBUp, row.BBLow)

	case KD:
		return fmt.Sprintf("K: %.1f | D: %.1f", row.K, row.D)
	}
	return "N/A"
}
