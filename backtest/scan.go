package backtest

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"papertrade/indicator"
	"papertrade/strategy"
)

// ScanResult is the latest-bar signal check for one symbol. Signals
// are confirmed at the close; execution belongs to the next session.
type ScanResult struct {
	Symbol   string    `json:"symbol"`
	Strategy string    `json:"strategy"`
	Signal   string    `json:"signal"`
	Status   string    `json:"status"`
	Close    float64   `json:"close"`
	BarTime  time.Time `json:"bar_time"`
	Error    string    `json:"error,omitempty"`
}

// Scan evaluates the configured strategy against the newest bar of
// each configured symbol.
func Scan(cfg RunConfig, source BarSource) ([]ScanResult, error) {
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("no symbols configured")
	}

	var out []ScanResult
	for _, symbol := range cfg.Symbols {
		res := ScanResult{Symbol: symbol, Strategy: cfg.Strategy, Signal: strategy.Hold.String()}

		series, err := source.FetchDaily(symbol, cfg.Months)
		if err != nil {
			res.Error = err.Error()
			out = append(out, res)
			continue
		}
		if len(series) < 2 {
			res.Error = fmt.Sprintf("not enough bars: %d", len(series))
			out = append(out, res)
			continue
		}

		rows := indicator.Compute(series)
		last := rows[len(rows)-1]
		sig, err := strategy.Evaluate(last, rows[len(rows)-2], cfg.Strategy)
		if err != nil {
			res.Error = err.Error()
			out = append(out, res)
			continue
		}

		res.Signal = sig.String()
		res.Status = strategy.Status(rows, cfg.Strategy)
		res.Close = last.Close
		res.BarTime = last.Time
		out = append(out, res)
	}
	return out, nil
}

// WriteScanJSON writes scan results as indented JSON.
func WriteScanJSON(w io.Writer, results []ScanResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// WriteScanTable writes scan results as an aligned text table.
func WriteScanTable(w io.Writer, results []ScanResult, onlySignal bool) error {
	if _, err := fmt.Fprintf(w, "%-10s %-20s %-6s %10s  %s\n", "SYMBOL", "STRATEGY", "SIGNAL", "CLOSE", "STATUS"); err != nil {
		return err
	}
	for _, r := range results {
		if r.Error != "" {
			if _, err := fmt.Fprintf(w, "%-10s %-20s ERROR: %s\n", r.Symbol, r.Strategy, r.Error); err != nil {
				return err
			}
			continue
		}
		if onlySignal && r.Signal == strategy.Hold.String() {
			continue
		}
		if _, err := fmt.Fprintf(w, "%-10s %-20s %-6s %10.2f  %s\n", r.Symbol, r.Strategy, r.Signal, r.Close, r.Status); err != nil {
			return err
		}
	}
	return nil
}
