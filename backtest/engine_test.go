package backtest

import (
	"errors"
	"math"
	"testing"
	"time"

	"papertrade/model"
	"papertrade/strategy"
)

func flatSeries(n int, close float64) model.Series {
	s := make(model.Series, n)
	base := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range s {
		s[i] = model.Bar{Time: base.AddDate(0, 0, i), Open: close, High: close, Low: close, Close: close, Volume: 1000}
	}
	return s
}

func TestRunRejectsUnknownStrategy(t *testing.T) {
	e := NewEngine(1_000_000)
	_, _, err := e.Run(flatSeries(60, 100), "Momentum")
	if !errors.Is(err, strategy.ErrUnknownStrategy) {
		t.Fatalf("err = %v, want ErrUnknownStrategy", err)
	}
}

func TestRunShortSeriesYieldsNothing(t *testing.T) {
	e := NewEngine(1_000_000)
	for _, n := range []int{0, 10, 30} {
		equity, trades, err := e.Run(flatSeries(n, 100), strategy.MACross)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if len(equity) != 0 || len(trades) != 0 {
			t.Errorf("n=%d: got %d equity points, %d trades, want none", n, len(equity), len(trades))
		}
	}

	// KPIs of an empty run are the zero value
	kpi := ComputeKPIs(nil, nil)
	if kpi != (KPI{}) {
		t.Errorf("empty KPI = %+v, want zero", kpi)
	}
}

func TestRunOneEquityPointPerTradableBar(t *testing.T) {
	e := NewEngine(1_000_000)
	equity, _, err := e.Run(flatSeries(80, 100), strategy.MACross)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(equity) != 50 {
		t.Errorf("equity points = %d, want 50 (bars after warm-up)", len(equity))
	}
	for _, p := range equity {
		if p.Equity != 1_000_000 {
			t.Errorf("flat series moved equity to %.2f", p.Equity)
		}
	}
}

// crossSeries builds a series that stays flat long enough to warm up,
// dips so MA5 falls under MA20, rallies to force a golden cross (buy
// at 110), climbs further, then settles back to 120 to force a death
// cross above the entry price.
func crossSeries() model.Series {
	closes := make([]float64, 0, 80)
	for i := 0; i < 35; i++ {
		closes = append(closes, 100)
	}
	for i := 0; i < 5; i++ { // dip: MA5 sinks below MA20
		closes = append(closes, 90)
	}
	for i := 0; i < 12; i++ { // rally: golden cross at 110
		closes = append(closes, 110)
	}
	for i := 0; i < 10; i++ { // climb
		closes = append(closes, 150)
	}
	for i := 0; i < 12; i++ { // settle: death cross at 120, still a win
		closes = append(closes, 120)
	}

	s := make(model.Series, len(closes))
	base := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		s[i] = model.Bar{Time: base.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000}
	}
	return s
}

func TestRunTradesOnMACross(t *testing.T) {
	e := NewEngine(1_000_000)
	equity, trades, err := e.Run(crossSeries(), strategy.MACross)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(trades) != 2 {
		t.Fatalf("trades = %d (%+v), want buy then sell", len(trades), trades)
	}
	buy, sell := trades[0], trades[1]
	if buy.Action != TradeBuy || sell.Action != TradeSell {
		t.Fatalf("trade order = %v %v, want buy then sell", buy.Action, sell.Action)
	}
	if buy.Qty%1000 != 0 || buy.Qty <= 0 {
		t.Errorf("buy qty = %d, want positive whole lots", buy.Qty)
	}
	if sell.Qty != buy.Qty {
		t.Errorf("sell qty = %d, want full holding %d", sell.Qty, buy.Qty)
	}
	if sell.Tax <= 0 || buy.Tax != 0 {
		t.Errorf("tax: buy %.0f sell %.0f, want sell-side only", buy.Tax, sell.Tax)
	}
	if !sell.Time.After(buy.Time) {
		t.Errorf("sell time %v not after buy time %v", sell.Time, buy.Time)
	}

	// cash never negative along the way
	for _, tr := range trades {
		if tr.Cash < 0 {
			t.Errorf("trade left negative cash: %+v", tr)
		}
	}

	kpi := ComputeKPIs(equity, trades)
	if kpi.TotalTrades != 1 {
		t.Errorf("completed round-trips = %d, want 1", kpi.TotalTrades)
	}
	if kpi.WinRatePct != 100 {
		t.Errorf("win rate = %.1f, want 100 (bought at 110, sold at 120)", kpi.WinRatePct)
	}
	if kpi.MaxDrawdownPct > 0 {
		t.Errorf("max drawdown = %.2f, must be <= 0", kpi.MaxDrawdownPct)
	}
}

func TestMaxLotShares(t *testing.T) {
	cases := []struct {
		budget, price float64
		want          int64
	}{
		{1_000_000, 100, 10_000}, // 10 full lots
		{995_000, 100, 9000},     // partial lot rounds down
		{99_000, 100, 0},         // less than one lot
		{100_000, 100, 1000},     // exactly one lot
		{1_000_000, 0, 0},        // degenerate price
		{0, 100, 0},
	}
	for _, c := range cases {
		if got := maxLotShares(c.budget, c.price); got != c.want {
			t.Errorf("maxLotShares(%v, %v) = %d, want %d", c.budget, c.price, got, c.want)
		}
	}
}

func TestSharpeDegenerateCases(t *testing.T) {
	if got := sharpe(nil); got != 0 {
		t.Errorf("sharpe(nil) = %v, want 0", got)
	}
	two := []EquityPoint{{Equity: 100}, {Equity: 110}}
	if got := sharpe(two); got != 0 {
		t.Errorf("sharpe with 2 points = %v, want 0", got)
	}
	flat := []EquityPoint{{Equity: 100}, {Equity: 100}, {Equity: 100}, {Equity: 100}}
	if got := sharpe(flat); got != 0 {
		t.Errorf("sharpe of flat curve = %v, want 0 on zero deviation", got)
	}
}

func TestComputeKPIsDrawdown(t *testing.T) {
	eq := []EquityPoint{
		{Equity: 100}, {Equity: 120}, {Equity: 90}, {Equity: 110},
	}
	kpi := ComputeKPIs(eq, nil)
	if math.Abs(kpi.MaxDrawdownPct-(-25)) > 1e-9 {
		t.Errorf("max drawdown = %v, want -25", kpi.MaxDrawdownPct)
	}
	if math.Abs(kpi.TotalReturnPct-10) > 1e-9 {
		t.Errorf("total return = %v, want 10", kpi.TotalReturnPct)
	}
}
