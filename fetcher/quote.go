package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"papertrade/model"
)

const (
	// 台灣證券交易所即時行情 (MIS)
	misQuoteURL = "https://mis.twse.com.tw/stock/api/getStockInfo.jsp?ex_ch=%s&json=1&delay=0"
)

// QuoteFetcher 即時報價拉取器
type QuoteFetcher struct {
	client *client
}

// NewQuoteFetcher 建立即時報價拉取器
func NewQuoteFetcher() *QuoteFetcher {
	return &QuoteFetcher{client: newClient(10*time.Second, 3)}
}

// misResponse is the MIS getStockInfo payload; all values come back
// as strings, with "-" standing in for "no trade yet".
type misResponse struct {
	MsgArray []struct {
		C string `json:"c"` // 股票代號
		N string `json:"n"` // 股票名稱
		Z string `json:"z"` // 最新成交價
		Y string `json:"y"` // 昨收
		H string `json:"h"` // 最高
		L string `json:"l"` // 最低
		V string `json:"v"` // 累積成交量（張）
		T string `json:"t"` // 揭示時間
		D string `json:"d"` // 日期
	} `json:"msgArray"`
}

// Fetch pulls realtime quotes for the given TWSE symbols. Symbols the
// exchange doesn't answer for are simply absent from the result; a
// quote with Price 0 means "matched but not traded yet".
func (f *QuoteFetcher) Fetch(symbols []string) ([]*model.Quote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}

	channels := make([]string, 0, len(symbols))
	for _, s := range symbols {
		channels = append(channels, "tse_"+s+".tw")
	}
	url := fmt.Sprintf(misQuoteURL, strings.Join(channels, "|"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	resp, err := f.client.get(ctx, url, map[string]string{
		"Referer": "https://mis.twse.com.tw/stock/index.jsp",
	})
	if err != nil {
		return nil, fmt.Errorf("fetch quotes: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var mis misResponse
	if err := json.Unmarshal(body, &mis); err != nil {
		return nil, fmt.Errorf("parse quotes: %w", err)
	}

	quotes := make([]*model.Quote, 0, len(mis.MsgArray))
	for _, m := range mis.MsgArray {
		if m.C == "" {
			continue
		}
		// Volume arrives in board lots (張).
		lots := misFloat(m.V)
		quotes = append(quotes, &model.Quote{
			Symbol:    m.C,
			Name:      m.N,
			Price:     misFloat(m.Z),
			PrevClose: misFloat(m.Y),
			High:      misFloat(m.H),
			Low:       misFloat(m.L),
			Volume:    int64(lots) * 1000,
			Time:      strings.TrimSpace(m.D + " " + m.T),
			UpdatedAt: time.Now(),
		})
	}
	return quotes, nil
}

// FetchOne pulls a single symbol's quote.
func (f *QuoteFetcher) FetchOne(symbol string) (*model.Quote, error) {
	quotes, err := f.Fetch([]string{symbol})
	if err != nil {
		return nil, err
	}
	for _, q := range quotes {
		if q.Symbol == symbol {
			return q, nil
		}
	}
	return nil, fmt.Errorf("no quote for symbol %s", symbol)
}

// misFloat parses an MIS numeric string; "-" and "" mean unavailable.
func misFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
