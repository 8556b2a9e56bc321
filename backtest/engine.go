// Package backtest replays a daily OHLCV series through the indicator
// and strategy engines with a deliberately simplified execution model:
// long-only, buy the maximum whole lot affordable with 99% of cash,
// sell the full holding, fixed 30-bar warm-up. The replay never
// touches a live ledger; everything it produces is discarded after
// KPI extraction.
package backtest

import (
	"math"

	"papertrade/broker"
	"papertrade/indicator"
	"papertrade/model"
	"papertrade/strategy"
)

const (
	// warmupBars is fixed regardless of the strategy's actual
	// indicator lookback; bars before it are never traded.
	warmupBars = 30

	// lotSize is the Taiwan board-lot unit.
	lotSize = 1000

	// cashBuffer leaves headroom for the entry fee when sizing.
	cashBuffer = 0.99
)

// Engine replays series bar-by-bar.
type Engine struct {
	initialCapital float64
}

// NewEngine creates a backtest engine with the given starting cash.
func NewEngine(initialCapital float64) *Engine {
	return &Engine{initialCapital: initialCapital}
}

// Run executes the replay. A series of warmupBars bars or fewer
// yields empty results; an unknown strategy name is an error.
func (e *Engine) Run(series model.Series, strategyName string) ([]EquityPoint, []Trade, error) {
	if !strategy.Valid(strategyName) {
		_, err := strategy.Evaluate(indicator.Row{}, indicator.Row{}, strategyName)
		return nil, nil, err
	}
	if len(series) <= warmupBars {
		return nil, nil, nil
	}

	rows := indicator.Compute(series)

	cash := e.initialCapital
	var inventory int64

	equity := make([]EquityPoint, 0, len(series)-warmupBars)
	var trades []Trade

	for i := warmupBars; i < len(rows); i++ {
		curr, prev := rows[i], rows[i-1]
		closePrice := curr.Close

		sig, _ := strategy.Evaluate(curr, prev, strategyName)

		var traded *Trade

		switch {
		case sig == strategy.Buy && inventory == 0:
			shares := maxLotShares(cash*cashBuffer, closePrice)
			if shares > 0 {
				cost := closePrice * float64(shares)
				fee := broker.Fee(cost)
				if cash >= cost+fee {
					cash -= cost + fee
					inventory = shares
					traded = &Trade{Action: TradeBuy, Qty: shares, Fee: fee}
				}
			}

		case sig == strategy.Sell && inventory > 0:
			revenue := closePrice * float64(inventory)
			fee := broker.Fee(revenue)
			tax := broker.Tax(revenue)
			cash += revenue - fee - tax
			traded = &Trade{Action: TradeSell, Qty: inventory, Fee: fee, Tax: tax}
			inventory = 0
		}

		totalEquity := cash + float64(inventory)*closePrice
		equity = append(equity, EquityPoint{Time: curr.Time, Equity: totalEquity})

		if traded != nil {
			traded.Time = curr.Time
			traded.Price = closePrice
			traded.Cash = cash
			traded.Equity = totalEquity
			trades = append(trades, *traded)
		}
	}

	return equity, trades, nil
}

// maxLotShares returns the largest whole-lot share count purchasable
// at price with the given budget, before fees.
func maxLotShares(budget, price float64) int64 {
	if price <= 0 {
		return 0
	}
	lots := int64(math.Floor(budget / price / lotSize))
	return lots * lotSize
}
