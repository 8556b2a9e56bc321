package fetcher

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/transform"

	"papertrade/model"
)

const (
	// 台灣證券交易所個股日成交資訊（CSV 為 Big5 編碼）
	twseStockDayURL = "https://www.twse.com.tw/exchangeReport/STOCK_DAY?response=csv&date=%s&stockNo=%s"
)

var taipei = time.FixedZone("CST", 8*3600)

// HistoryFetcher 日K線拉取器
type HistoryFetcher struct {
	client *client
	now    func() time.Time
}

// NewHistoryFetcher 建立日K線拉取器
func NewHistoryFetcher() *HistoryFetcher {
	return &HistoryFetcher{
		client: newClient(15*time.Second, 3),
		now:    time.Now,
	}
}

// FetchDaily returns up to `months` calendar months of daily bars for
// a TWSE symbol (e.g. "2330"), ascending by date. "No data" is an
// explicitly-empty series, not an error; only transport failures and
// malformed payloads error.
func (f *HistoryFetcher) FetchDaily(symbol string, months int) (model.Series, error) {
	if months <= 0 {
		months = 1
	}

	var series model.Series
	now := f.now().In(taipei)
	for m := months - 1; m >= 0; m-- {
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, taipei).AddDate(0, -m, 0)
		bars, err := f.fetchMonth(symbol, first)
		if err != nil {
			return nil, fmt.Errorf("fetch %s %s: %w", symbol, first.Format("2006-01"), err)
		}
		series = append(series, bars...)
	}

	series.Sort()
	return series, nil
}

// fetchMonth pulls one month's STOCK_DAY CSV.
func (f *HistoryFetcher) fetchMonth(symbol string, month time.Time) (model.Series, error) {
	url := fmt.Sprintf(twseStockDayURL, month.Format("20060102"), symbol)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := f.client.get(ctx, url, map[string]string{
		"Referer": "https://www.twse.com.tw/zh/trading/historical/stock-day.html",
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// TWSE serves the CSV in Big5.
	reader := transform.NewReader(resp.Body, traditionalchinese.Big5.NewDecoder())
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return parseStockDayCSV(string(body))
}

// parseStockDayCSV parses the STOCK_DAY payload. The file carries a
// title line, a header line, data rows, then footnote lines; numbers
// are comma-grouped and dates use the ROC calendar (114/01/02).
func parseStockDayCSV(body string) (model.Series, error) {
	var series model.Series
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, `"`) {
			continue
		}

		r := csv.NewReader(strings.NewReader(line))
		fields, err := r.Read()
		if err != nil || len(fields) < 9 {
			continue
		}

		// 日期,成交股數,成交金額,開盤價,最高價,最低價,收盤價,漲跌價差,成交筆數
		date, err := parseROCDate(fields[0])
		if err != nil {
			continue // header or footnote row
		}

		open, err1 := parseGrouped(fields[3])
		high, err2 := parseGrouped(fields[4])
		low, err3 := parseGrouped(fields[5])
		closeP, err4 := parseGrouped(fields[6])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			// "--" on no-trade days; skip the bar.
			continue
		}
		volume, _ := parseGrouped(fields[1])

		series = append(series, model.Bar{
			Time:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closeP,
			Volume: int64(volume),
		})
	}
	return series, nil
}

// parseROCDate converts "114/01/02" (ROC year 114 = 2025) to a
// Taipei-local timestamp.
func parseROCDate(s string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("not a ROC date: %q", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, err
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, err
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, err
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("invalid date: %q", s)
	}
	return time.Date(year+1911, time.Month(month), day, 0, 0, 0, 0, taipei), nil
}

// parseGrouped parses a comma-grouped numeric field like "20,463,400".
func parseGrouped(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "--" {
		return 0, fmt.Errorf("no value")
	}
	return strconv.ParseFloat(s, 64)
}
