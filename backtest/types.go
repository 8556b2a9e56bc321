package backtest

import (
	"time"
)

// TradeAction marks a trade-log row.
type TradeAction string

const (
	TradeBuy  TradeAction = "BUY"
	TradeSell TradeAction = "SELL"
)

// EquityPoint is one sample of the equity curve: total account value
// (cash + inventory at close) at a bar.
type EquityPoint struct {
	Time   time.Time `json:"time"`
	Equity float64   `json:"equity"`
}

// Trade is one executed trade in the replay. Cash and Equity are the
// post-trade values at that bar.
type Trade struct {
	Time   time.Time   `json:"time"`
	Action TradeAction `json:"action"`
	Price  float64     `json:"price"`
	Qty    int64       `json:"qty"`
	Fee    float64     `json:"fee"`
	Tax    float64     `json:"tax"`
	Cash   float64     `json:"cash"`
	Equity float64     `json:"equity"`
}

// KPI is the performance summary derived from an equity curve and
// trade log. A degenerate run (series shorter than the warm-up)
// yields the zero KPI, not an error.
type KPI struct {
	TotalReturnPct float64 `json:"total_return_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"` // negative or 0
	WinRatePct     float64 `json:"win_rate_pct"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
	TotalTrades    int     `json:"total_trades"` // completed buy→sell pairs
}

// Result is one symbol's backtest output.
type Result struct {
	Symbol      string        `json:"symbol"`
	Strategy    string        `json:"strategy"`
	KPI         KPI           `json:"kpi"`
	FinalEquity float64       `json:"final_equity"`
	Trades      []Trade       `json:"trades"`
	EquityCurve []EquityPoint `json:"equity_curve"`
	Errors      []string      `json:"errors,omitempty"`
}
