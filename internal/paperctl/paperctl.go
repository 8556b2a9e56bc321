package paperctl

import (
	"flag"
	"fmt"
	"log"
	"os"
)

func Run(args []string) int {
	fs := flag.NewFlagSet("paperctl", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		backtestMode   bool
		backtestConfig string
		backtestOut    string

		scanMode       bool
		scanOut        string
		scanJSON       bool
		scanOnlySignal bool
	)

	fs.BoolVar(&backtestMode, "backtest", false, "執行日線回測並退出")
	fs.StringVar(&backtestConfig, "bt-config", "backtest.yaml", "回測/掃描設定檔路徑(YAML格式)")
	fs.StringVar(&backtestOut, "bt-out", "", "回測輸出JSON檔路徑(預設stdout)")

	fs.BoolVar(&scanMode, "scan", false, "掃描最新一根日K是否產生策略訊號並退出（訊號在收盤確認，下一交易日執行）")
	fs.StringVar(&scanOut, "scan-out", "", "掃描輸出路徑（預設stdout）")
	fs.BoolVar(&scanJSON, "scan-json", false, "掃描輸出使用 JSON 格式（預設表格文字）")
	fs.BoolVar(&scanOnlySignal, "scan-only-signal", false, "僅輸出有訊號的標的（錯誤訊息仍輸出）")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if scanMode && backtestMode {
		log.Printf("[ERROR] scan 不能與 backtest 同時使用\n")
		return 2
	}

	if scanMode {
		if err := runScan(backtestConfig, scanOut, scanJSON, scanOnlySignal); err != nil {
			log.Printf("[ERROR] 掃描失敗: %v\n", err)
			return 1
		}
		return 0
	}

	if backtestMode {
		if err := runBacktest(backtestConfig, backtestOut); err != nil {
			log.Printf("[ERROR] 回測失敗: %v\n", err)
			return 1
		}
		return 0
	}

	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  paperctl -backtest -bt-config backtest.yaml [-bt-out report.json]")
	fmt.Fprintln(os.Stderr, "  paperctl -scan -bt-config backtest.yaml [-scan-json] [-scan-only-signal]")
	return 2
}
