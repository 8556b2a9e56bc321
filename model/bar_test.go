package model

import (
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestSeriesValidate(t *testing.T) {
	if err := (Series{}).Validate(); err != nil {
		t.Errorf("empty series: %v, want nil", err)
	}

	good := Series{
		{Time: day(2), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100},
		{Time: day(3), Open: 10.5, High: 12, Low: 10, Close: 11, Volume: 200},
	}
	if err := good.Validate(); err != nil {
		t.Errorf("good series: %v", err)
	}

	bad := Series{
		{Time: day(2), Open: 10, High: 11, Low: 9, Close: 0, Volume: 100},
	}
	if err := bad.Validate(); err == nil {
		t.Error("zero close accepted")
	}

	dup := Series{
		{Time: day(2), Open: 10, High: 11, Low: 9, Close: 10, Volume: 1},
		{Time: day(2), Open: 10, High: 11, Low: 9, Close: 10, Volume: 1},
	}
	if err := dup.Validate(); err == nil {
		t.Error("duplicate timestamp accepted")
	}
}

func TestSeriesSortAndCloses(t *testing.T) {
	s := Series{
		{Time: day(5), Close: 3, Open: 1, High: 4, Low: 1},
		{Time: day(2), Close: 1, Open: 1, High: 4, Low: 1},
		{Time: day(4), Close: 2, Open: 1, High: 4, Low: 1},
	}
	s.Sort()
	got := s.Closes()
	want := []float64{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("closes after sort = %v, want %v", got, want)
		}
	}
}

func TestQuoteChange(t *testing.T) {
	q := Quote{Price: 105, PrevClose: 100}
	if q.Change() != 5 {
		t.Errorf("change = %v, want 5", q.Change())
	}
	if q.ChangePercent() != 5 {
		t.Errorf("change%% = %v, want 5", q.ChangePercent())
	}

	// not yet traded: no change to report
	q = Quote{Price: 0, PrevClose: 100}
	if q.Change() != 0 || q.ChangePercent() != 0 {
		t.Errorf("untraded quote reported change %v/%v", q.Change(), q.ChangePercent())
	}
}
