package broker

import "time"

// Action identifies one of the four trade intents. Buy accepts
// OpenLong and CloseShort; Sell accepts CloseLong and OpenShort.
// Anything else is rejected as UnknownAction.
type Action string

const (
	OpenLong   Action = "open_long"   // 現股買進
	CloseLong  Action = "close_long"  // 現股賣出
	OpenShort  Action = "open_short"  // 融券賣出
	CloseShort Action = "close_short" // 融券回補
)

// Position is the single netted position for one symbol: positive Qty
// is long, negative is short. AvgCost is the weighted-average cost
// basis for longs (buy fee included) or the average entry price for
// shorts. Qty == 0 implies AvgCost == 0.
type Position struct {
	Qty     int64   `json:"qty"`
	AvgCost float64 `json:"avg_cost"`
}

// Transaction is one immutable row of the append-only trade history.
// The history is the sole source of realized P&L.
type Transaction struct {
	Time        time.Time `json:"time"`
	Action      Action    `json:"action"`
	Symbol      string    `json:"symbol"`
	Price       float64   `json:"price"`
	Qty         int64     `json:"qty"`
	Fee         float64   `json:"fee"`
	Tax         float64   `json:"tax"`
	RealizedPnL float64   `json:"realized_pnl"`
}

// Receipt reports a successful trade back to the caller.
type Receipt struct {
	Transaction
	Message string `json:"message"`
}

// Summary is the point-in-time account valuation assembled by
// (*PaperBroker).Summary.
type Summary struct {
	Balance        float64 `json:"balance"`
	MarketValue    float64 `json:"market_value"`    // long positions at current prices
	ShortLiability float64 `json:"short_liability"` // short positions at current prices
	Equity         float64 `json:"equity"`          // balance + market value - short liability
	UnrealizedPnL  float64 `json:"unrealized_pnl"`
	RealizedPnL    float64 `json:"realized_pnl"`
}
