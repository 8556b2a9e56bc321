package bot

import (
	"fmt"
	"log"
	"sync"
	"time"

	"papertrade/broker"
	"papertrade/indicator"
	"papertrade/model"
	"papertrade/strategy"
	"papertrade/trading"
)

type Logger interface {
	Printf(format string, v ...any)
}

// QuoteSource supplies the latest traded price for a symbol.
type QuoteSource interface {
	Price(symbol string) (float64, bool)
}

// BarSource supplies daily history for signal evaluation.
type BarSource interface {
	FetchDaily(symbol string, months int) (model.Series, error)
}

// Config drives the auto-trade loop.
type Config struct {
	Targets       []string          // 自動交易標的
	Strategies    map[string]string // symbol → 策略名稱；缺省用 Default
	Default       string            // 預設策略
	BuyQty        map[string]int64  // symbol → 每次買進股數；缺省 1000
	StopLossPct   float64           // 停損（%），0 表示停用
	TakeProfitPct float64           // 停利（%），0 表示停用
	CapPerSymbol  float64           // 單一標的持倉成本上限，0 表示不限
	Interval      time.Duration     // 檢查週期
}

// Trader runs strategy signals against a paper account during market
// hours, with stop-loss/take-profit checks before each signal pass.
type Trader struct {
	cfg     Config
	broker  *broker.PaperBroker
	quotes  QuoteSource
	bars    BarSource
	persist func() error
	logger  Logger

	// mu guards the broker, shared with the HTTP handlers.
	mu sync.Locker

	// per-symbol signal state, refreshed once per bar day
	lastBarDay map[string]string
	signals    map[string]strategy.Signal
}

func NewTrader(cfg Config, b *broker.PaperBroker, quotes QuoteSource, bars BarSource, mu sync.Locker, persist func() error, logger Logger) *Trader {
	if cfg.Default == "" {
		cfg.Default = strategy.MACross
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if logger == nil {
		logger = log.Default()
	}
	if persist == nil {
		persist = func() error { return nil }
	}
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &Trader{
		mu:         mu,
		cfg:        cfg,
		broker:     b,
		quotes:     quotes,
		bars:       bars,
		persist:    persist,
		logger:     logger,
		lastBarDay: make(map[string]string),
		signals:    make(map[string]strategy.Signal),
	}
}

// RunLoop ticks at cfg.Interval until stop closes. Each tick is skipped
// outside market hours.
func (t *Trader) RunLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	t.logger.Printf("[bot] started: %d targets, interval %s", len(t.cfg.Targets), t.cfg.Interval)
	for {
		select {
		case <-stop:
			t.logger.Printf("[bot] stop")
			return
		case <-ticker.C:
			if !trading.IsMarketOpen() {
				continue
			}
			t.Step()
		}
	}
}

// Step runs one pass over all targets: risk exits first, then signals.
func (t *Trader) Step() {
	traded := false
	for _, symbol := range t.cfg.Targets {
		price, ok := t.quotes.Price(symbol)
		if !ok {
			continue
		}
		if t.checkRiskExit(symbol, price) {
			traded = true
			continue // position just closed, re-enter next pass at earliest
		}
		if t.applySignal(symbol, price) {
			traded = true
		}
	}
	if traded {
		if err := t.persist(); err != nil {
			t.logger.Printf("[bot] persist failed: %v", err)
		}
	}
}

// checkRiskExit closes the position when unrealized P&L breaches the
// stop-loss or take-profit threshold. Returns true if a trade was made.
func (t *Trader) checkRiskExit(symbol string, price float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	pos := t.broker.Position(symbol)
	if pos.Qty == 0 || pos.AvgCost <= 0 {
		return false
	}

	var pnlPct float64
	if pos.Qty > 0 {
		pnlPct = (price - pos.AvgCost) / pos.AvgCost * 100
	} else {
		pnlPct = (pos.AvgCost - price) / pos.AvgCost * 100
	}

	stop := t.cfg.StopLossPct > 0 && pnlPct <= -t.cfg.StopLossPct
	take := t.cfg.TakeProfitPct > 0 && pnlPct >= t.cfg.TakeProfitPct
	if !stop && !take {
		return false
	}

	reason := "stop-loss"
	if take {
		reason = "take-profit"
	}

	var receipt *broker.Receipt
	var err error
	if pos.Qty > 0 {
		receipt, err = t.broker.Sell(symbol, price, pos.Qty, broker.CloseLong)
	} else {
		receipt, err = t.broker.Buy(symbol, price, -pos.Qty, broker.CloseShort)
	}
	if err != nil {
		t.logger.Printf("[bot] %s %s close failed: %v", symbol, reason, err)
		return false
	}
	t.logger.Printf("[bot] %s %s: closed %d @ %.2f, pnl %.0f (%.2f%%)",
		symbol, reason, receipt.Qty, price, receipt.RealizedPnL, pnlPct)
	return true
}

// applySignal evaluates the symbol's strategy on daily bars and trades
// at the current quote. Returns true if a trade was made.
func (t *Trader) applySignal(symbol string, price float64) bool {
	sig, err := t.signalFor(symbol)
	if err != nil {
		t.logger.Printf("[bot] %s signal failed: %v", symbol, err)
		return false
	}

	// History fetch above runs unlocked; only the trade itself holds mu.
	t.mu.Lock()
	defer t.mu.Unlock()

	pos := t.broker.Position(symbol)
	switch sig {
	case strategy.Buy:
		if pos.Qty != 0 {
			return false // already positioned, long or short
		}
		qty := t.buyQty(symbol)
		if t.cfg.CapPerSymbol > 0 && price*float64(qty) > t.cfg.CapPerSymbol {
			return false
		}
		receipt, err := t.broker.Buy(symbol, price, qty, broker.OpenLong)
		if err != nil {
			t.logger.Printf("[bot] %s buy failed: %v", symbol, err)
			return false
		}
		t.logger.Printf("[bot] %s buy: %d @ %.2f, fee %.0f", symbol, receipt.Qty, price, receipt.Fee)
		return true

	case strategy.Sell:
		if pos.Qty <= 0 {
			return false
		}
		receipt, err := t.broker.Sell(symbol, price, pos.Qty, broker.CloseLong)
		if err != nil {
			t.logger.Printf("[bot] %s sell failed: %v", symbol, err)
			return false
		}
		t.logger.Printf("[bot] %s sell: %d @ %.2f, pnl %.0f", symbol, receipt.Qty, price, receipt.RealizedPnL)
		return true
	}
	return false
}

// signalFor returns the current daily-bar signal for symbol, fetching
// and evaluating only when a new bar day appears.
func (t *Trader) signalFor(symbol string) (strategy.Signal, error) {
	name := t.cfg.Strategies[symbol]
	if name == "" {
		name = t.cfg.Default
	}

	today := time.Now().Format("2006-01-02")
	if t.lastBarDay[symbol] == today {
		return t.signals[symbol], nil
	}

	series, err := t.bars.FetchDaily(symbol, 6)
	if err != nil {
		return strategy.Hold, fmt.Errorf("fetch history: %w", err)
	}
	rows := indicator.Compute(series)
	if len(rows) < 2 {
		return strategy.Hold, fmt.Errorf("not enough history (%d bars)", len(rows))
	}

	sig, err := strategy.Evaluate(rows[len(rows)-1], rows[len(rows)-2], name)
	if err != nil {
		return strategy.Hold, err
	}
	t.lastBarDay[symbol] = today
	t.signals[symbol] = sig
	return sig, nil
}

func (t *Trader) buyQty(symbol string) int64 {
	if q, ok := t.cfg.BuyQty[symbol]; ok && q > 0 {
		return q
	}
	return 1000
}
