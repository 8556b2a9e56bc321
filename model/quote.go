package model

import "time"

// Quote 台股即時報價
//
// Price <= 0 means the quote is unavailable (matched but not traded yet,
// or the upstream returned nothing); callers must treat that as "no data".
type Quote struct {
	Symbol    string    `json:"symbol"`     // 股票代號 (2330, 2603)
	Name      string    `json:"name"`       // 股票名稱
	Price     float64   `json:"price"`      // 最新成交價
	PrevClose float64   `json:"prev_close"` // 昨收
	High      float64   `json:"high"`       // 最高
	Low       float64   `json:"low"`        // 最低
	Volume    int64     `json:"volume"`     // 成交量（股）
	Time      string    `json:"time"`       // 行情時間
	UpdatedAt time.Time `json:"updated_at"` // 更新時間
}

// Change 漲跌額
func (q *Quote) Change() float64 {
	if q.Price <= 0 || q.PrevClose <= 0 {
		return 0
	}
	return q.Price - q.PrevClose
}

// ChangePercent 漲跌幅
func (q *Quote) ChangePercent() float64 {
	if q.Price <= 0 || q.PrevClose <= 0 {
		return 0
	}
	return (q.Price - q.PrevClose) / q.PrevClose * 100
}
