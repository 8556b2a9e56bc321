package backtest

import (
	"encoding/json"
	"fmt"
	"io"

	"papertrade/model"
)

// BarSource supplies daily bars for a symbol. fetcher.HistoryFetcher
// implements it; tests substitute a stub.
type BarSource interface {
	FetchDaily(symbol string, months int) (model.Series, error)
}

// Runner backtests every configured symbol through one engine run.
type Runner struct {
	source BarSource
}

// NewRunner creates a Runner over the given bar source.
func NewRunner(source BarSource) *Runner {
	return &Runner{source: source}
}

// Run executes the configured backtest per symbol. Per-symbol fetch
// failures are reported inside that symbol's Result; only an empty
// symbol list is an error.
func (r *Runner) Run(cfg RunConfig) ([]Result, error) {
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("no symbols configured")
	}

	engine := NewEngine(cfg.InitialCash)

	var out []Result
	for _, symbol := range cfg.Symbols {
		res := Result{Symbol: symbol, Strategy: cfg.Strategy}

		series, err := r.source.FetchDaily(symbol, cfg.Months)
		if err != nil {
			res.Errors = append(res.Errors, err.Error())
			out = append(out, res)
			continue
		}
		if err := series.Validate(); err != nil {
			res.Errors = append(res.Errors, err.Error())
			out = append(out, res)
			continue
		}

		equity, trades, err := engine.Run(series, cfg.Strategy)
		if err != nil {
			res.Errors = append(res.Errors, err.Error())
			out = append(out, res)
			continue
		}

		res.KPI = ComputeKPIs(equity, trades)
		res.Trades = trades
		res.EquityCurve = equity
		if len(equity) > 0 {
			res.FinalEquity = equity[len(equity)-1].Equity
		} else {
			res.FinalEquity = cfg.InitialCash
		}
		out = append(out, res)
	}
	return out, nil
}

// WriteResultsJSON writes results as indented JSON.
func WriteResultsJSON(w io.Writer, results []Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
