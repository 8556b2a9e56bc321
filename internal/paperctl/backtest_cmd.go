package paperctl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"papertrade/backtest"
	"papertrade/fetcher"
)

func runBacktest(configPath, outPath string) error {
	cfg, err := backtest.LoadRunConfig(configPath)
	if err != nil {
		return err
	}
	if len(cfg.Symbols) == 0 {
		return fmt.Errorf("設定檔缺少 backtest.symbols")
	}

	runner := backtest.NewRunner(fetcher.NewHistoryFetcher())
	results, err := runner.Run(cfg)
	if err != nil {
		return err
	}

	w, closeFn, err := openOutput(outPath)
	if err != nil {
		return err
	}
	defer closeFn()

	return backtest.WriteResultsJSON(w, results)
}

func runScan(configPath, outPath string, jsonOut, onlySignal bool) error {
	cfg, err := backtest.LoadRunConfig(configPath)
	if err != nil {
		return err
	}
	if len(cfg.Symbols) == 0 {
		return fmt.Errorf("設定檔缺少 backtest.symbols")
	}

	results, err := backtest.Scan(cfg, fetcher.NewHistoryFetcher())
	if err != nil {
		return err
	}

	w, closeFn, err := openOutput(outPath)
	if err != nil {
		return err
	}
	defer closeFn()

	if jsonOut {
		return backtest.WriteScanJSON(w, results)
	}
	return backtest.WriteScanTable(w, results, onlySignal)
}

func openOutput(path string) (io.Writer, func(), error) {
	if strings.TrimSpace(path) == "" {
		return os.Stdout, func() {}, nil
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("prepare output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, func() { f.Close() }, nil
}
