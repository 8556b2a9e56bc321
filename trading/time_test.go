package trading

import (
	"testing"
	"time"
)

func TestIsMarketOpenAt(t *testing.T) {
	cases := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"monday mid-session", time.Date(2025, 6, 2, 10, 30, 0, 0, taipei), true},
		{"opening bell", time.Date(2025, 6, 2, 9, 0, 0, 0, taipei), true},
		{"closing minute", time.Date(2025, 6, 2, 13, 30, 0, 0, taipei), true},
		{"one minute before open", time.Date(2025, 6, 2, 8, 59, 0, 0, taipei), false},
		{"one minute after close", time.Date(2025, 6, 2, 13, 31, 0, 0, taipei), false},
		{"saturday", time.Date(2025, 6, 7, 10, 0, 0, 0, taipei), false},
		{"sunday", time.Date(2025, 6, 8, 10, 0, 0, 0, taipei), false},
		{"weekday evening", time.Date(2025, 6, 3, 20, 0, 0, 0, taipei), false},
	}
	for _, c := range cases {
		if got := IsMarketOpenAt(c.t); got != c.want {
			t.Errorf("%s: IsMarketOpenAt(%v) = %v, want %v", c.name, c.t, got, c.want)
		}
	}
}

func TestIsMarketOpenAtConvertsZones(t *testing.T) {
	// 02:30 UTC == 10:30 Taipei, inside the session
	utc := time.Date(2025, 6, 2, 2, 30, 0, 0, time.UTC)
	if !IsMarketOpenAt(utc) {
		t.Errorf("UTC time inside session reported closed")
	}
	// 10:30 UTC == 18:30 Taipei, after close
	utc = time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)
	if IsMarketOpenAt(utc) {
		t.Errorf("UTC time after close reported open")
	}
}
