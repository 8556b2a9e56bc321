package model

import (
	"fmt"
	"sort"
	"time"
)

// Bar 日K線（OHLCV）
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Series is a time-ordered sequence of bars. Producers sort ascending;
// consumers never reorder it.
type Series []Bar

// Closes returns the close prices in series order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Sort orders the series ascending by timestamp in place.
func (s Series) Sort() {
	sort.Slice(s, func(i, j int) bool { return s[i].Time.Before(s[j].Time) })
}

// Validate checks the series contract: positive prices, strictly
// increasing timestamps, no duplicates. An empty series is valid
// ("no data" is a normal input, not an error).
func (s Series) Validate() error {
	for i, b := range s {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("bar %d (%s): non-positive price", i, b.Time.Format("2006-01-02"))
		}
		if i > 0 && !s[i-1].Time.Before(b.Time) {
			return fmt.Errorf("bar %d (%s): timestamp not increasing", i, b.Time.Format("2006-01-02"))
		}
	}
	return nil
}
