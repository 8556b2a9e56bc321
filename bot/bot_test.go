package bot

import (
	"fmt"
	"testing"
	"time"

	"papertrade/broker"
	"papertrade/model"
	"papertrade/strategy"
)

type stubQuotes map[string]float64

func (s stubQuotes) Price(symbol string) (float64, bool) {
	p, ok := s[symbol]
	return p, ok
}

type stubBars struct {
	series model.Series
	err    error
}

func (s *stubBars) FetchDaily(symbol string, months int) (model.Series, error) {
	return s.series, s.err
}

func seriesFromCloses(closes []float64) model.Series {
	s := make(model.Series, len(closes))
	base := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		s[i] = model.Bar{Time: base.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return s
}

// goldenCrossSeries ends on the bar where MA5 crosses above MA20.
func goldenCrossSeries() model.Series {
	closes := make([]float64, 0, 43)
	for i := 0; i < 35; i++ {
		closes = append(closes, 100)
	}
	for i := 0; i < 5; i++ {
		closes = append(closes, 90)
	}
	closes = append(closes, 110, 110, 110)
	return seriesFromCloses(closes)
}

// deathCrossSeries ends on the bar where MA5 crosses below MA20.
func deathCrossSeries() model.Series {
	closes := make([]float64, 0, 46)
	for i := 0; i < 30; i++ {
		closes = append(closes, 100)
	}
	for i := 0; i < 15; i++ {
		closes = append(closes, 110)
	}
	closes = append(closes, 90)
	return seriesFromCloses(closes)
}

func newTestTrader(cfg Config, b *broker.PaperBroker, quotes QuoteSource, bars BarSource) (*Trader, *int) {
	persisted := 0
	tr := NewTrader(cfg, b, quotes, bars, nil, func() error {
		persisted++
		return nil
	}, nil)
	return tr, &persisted
}

func TestStopLossClosesLong(t *testing.T) {
	b := broker.New(1_000_000)
	if _, err := b.Buy("2330", 100, 1000, broker.OpenLong); err != nil {
		t.Fatalf("setup buy: %v", err)
	}

	tr, persisted := newTestTrader(Config{
		Targets:     []string{"2330"},
		StopLossPct: 5,
	}, b, stubQuotes{"2330": 94}, &stubBars{err: fmt.Errorf("no data")})

	tr.Step()

	if pos := b.Position("2330"); pos.Qty != 0 {
		t.Errorf("position after stop-loss = %+v, want flat", pos)
	}
	if *persisted != 1 {
		t.Errorf("persist calls = %d, want 1", *persisted)
	}
}

func TestStopLossNotTriggeredInsideThreshold(t *testing.T) {
	b := broker.New(1_000_000)
	if _, err := b.Buy("2330", 100, 1000, broker.OpenLong); err != nil {
		t.Fatalf("setup buy: %v", err)
	}

	tr, persisted := newTestTrader(Config{
		Targets:     []string{"2330"},
		StopLossPct: 5,
	}, b, stubQuotes{"2330": 97}, &stubBars{err: fmt.Errorf("no data")})

	tr.Step()

	if pos := b.Position("2330"); pos.Qty != 1000 {
		t.Errorf("position = %+v, want untouched", pos)
	}
	if *persisted != 0 {
		t.Errorf("persist calls = %d, want 0", *persisted)
	}
}

func TestTakeProfitCoversShort(t *testing.T) {
	b := broker.New(1_000_000)
	if _, err := b.Sell("2603", 100, 1000, broker.OpenShort); err != nil {
		t.Fatalf("setup short: %v", err)
	}

	tr, _ := newTestTrader(Config{
		Targets:       []string{"2603"},
		TakeProfitPct: 10,
	}, b, stubQuotes{"2603": 89}, &stubBars{err: fmt.Errorf("no data")})

	tr.Step()

	if pos := b.Position("2603"); pos.Qty != 0 {
		t.Errorf("short position after take-profit = %+v, want flat", pos)
	}
}

func TestBuySignalOpensPosition(t *testing.T) {
	b := broker.New(1_000_000)

	tr, persisted := newTestTrader(Config{
		Targets: []string{"2330"},
		Default: strategy.MACross,
		BuyQty:  map[string]int64{"2330": 2000},
	}, b, stubQuotes{"2330": 110}, &stubBars{series: goldenCrossSeries()})

	tr.Step()

	pos := b.Position("2330")
	if pos.Qty != 2000 {
		t.Fatalf("position after buy signal = %+v, want 2000 shares", pos)
	}
	if *persisted != 1 {
		t.Errorf("persist calls = %d, want 1", *persisted)
	}

	// same bar day: the cached signal must not re-buy after a manual close
	if _, err := b.Sell("2330", 110, 2000, broker.CloseLong); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := b.Buy("2330", 110, 1000, broker.OpenLong); err != nil {
		t.Fatalf("re-open: %v", err)
	}
	tr.Step() // holding again, buy signal ignored
	if pos := b.Position("2330"); pos.Qty != 1000 {
		t.Errorf("position = %+v, want unchanged 1000", pos)
	}
}

func TestBuySignalRespectsCap(t *testing.T) {
	b := broker.New(1_000_000)

	tr, _ := newTestTrader(Config{
		Targets:      []string{"2330"},
		Default:      strategy.MACross,
		CapPerSymbol: 50_000, // 1000 shares at 110 exceeds this
	}, b, stubQuotes{"2330": 110}, &stubBars{series: goldenCrossSeries()})

	tr.Step()

	if pos := b.Position("2330"); pos.Qty != 0 {
		t.Errorf("position = %+v, want none under cap", pos)
	}
}

func TestSellSignalClosesLong(t *testing.T) {
	b := broker.New(1_000_000)
	if _, err := b.Buy("2330", 100, 1000, broker.OpenLong); err != nil {
		t.Fatalf("setup buy: %v", err)
	}

	tr, _ := newTestTrader(Config{
		Targets: []string{"2330"},
		Default: strategy.MACross,
	}, b, stubQuotes{"2330": 90}, &stubBars{series: deathCrossSeries()})

	tr.Step()

	if pos := b.Position("2330"); pos.Qty != 0 {
		t.Errorf("position after sell signal = %+v, want flat", pos)
	}
}

func TestMissingQuoteSkipsSymbol(t *testing.T) {
	b := broker.New(1_000_000)

	tr, persisted := newTestTrader(Config{
		Targets: []string{"2330"},
		Default: strategy.MACross,
	}, b, stubQuotes{}, &stubBars{series: goldenCrossSeries()})

	tr.Step()

	if len(b.Positions()) != 0 || *persisted != 0 {
		t.Errorf("traded without a quote: positions %v, persisted %d", b.Positions(), *persisted)
	}
}
