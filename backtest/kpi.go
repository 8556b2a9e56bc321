package backtest

import "math"

const tradingDaysPerYear = 252

// ComputeKPIs derives the performance summary from an equity curve
// and trade log. An empty curve yields the zero KPI.
func ComputeKPIs(equity []EquityPoint, trades []Trade) KPI {
	if len(equity) == 0 {
		return KPI{}
	}

	var k KPI

	startEq := equity[0].Equity
	endEq := equity[len(equity)-1].Equity
	if startEq != 0 {
		k.TotalReturnPct = (endEq - startEq) / startEq * 100
	}

	// Max drawdown relative to the running peak; 0 when the curve
	// never declines.
	peak := equity[0].Equity
	for _, p := range equity {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (p.Equity - peak) / peak * 100
			if dd < k.MaxDrawdownPct {
				k.MaxDrawdownPct = dd
			}
		}
	}

	// Win rate over sequential buy→sell pairs. The engine holds at
	// most one position, so FIFO pairing is exact.
	var entryPrice, entryFee float64
	var wins, completed int
	for _, t := range trades {
		switch t.Action {
		case TradeBuy:
			entryPrice = t.Price
			entryFee = t.Fee
		case TradeSell:
			if entryPrice > 0 {
				net := (t.Price-entryPrice)*float64(t.Qty) - entryFee - t.Fee - t.Tax
				if net > 0 {
					wins++
				}
				completed++
				entryPrice = 0
			}
		}
	}
	k.TotalTrades = completed
	if completed > 0 {
		k.WinRatePct = float64(wins) / float64(completed) * 100
	}

	k.SharpeRatio = sharpe(equity)
	return k
}

// sharpe annualizes the mean/stddev of daily equity returns; 0 when
// the deviation is zero or undefined.
func sharpe(equity []EquityPoint) float64 {
	if len(equity) < 3 {
		return 0
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev == 0 {
			return 0
		}
		returns = append(returns, (equity[i].Equity-prev)/prev)
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var ss float64
	for _, r := range returns {
		diff := r - mean
		ss += diff * diff
	}
	std := math.Sqrt(ss / float64(len(returns)-1))
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return mean / std * math.Sqrt(tradingDaysPerYear)
}
