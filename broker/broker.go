// Package broker implements the paper-trading ledger: cash balance,
// netted per-symbol positions (long or short, never both), and the
// append-only transaction history.
//
// Every operation is a single atomic state transition: preconditions
// are checked first and a rejected trade leaves the ledger untouched.
// The broker itself is not goroutine-safe; the caller serializes
// access per account (paperd holds one mutex per ledger).
package broker

import (
	"fmt"
	"time"
)

// PaperBroker owns one account's ledger state.
type PaperBroker struct {
	balance   float64
	positions map[string]Position
	history   []Transaction

	now func() time.Time // stubbed in tests
}

// New creates a ledger with an initial cash balance.
func New(initialBalance float64) *PaperBroker {
	return &PaperBroker{
		balance:   initialBalance,
		positions: make(map[string]Position),
		now:       time.Now,
	}
}

// Buy executes a buy-side trade: opening/extending a long, or
// covering a short. Returns a tagged *TradeError on rejection.
func (b *PaperBroker) Buy(symbol string, price float64, qty int64, action Action) (*Receipt, error) {
	if price <= 0 || qty <= 0 {
		return nil, reject(InvalidInput, "price and quantity must be positive")
	}

	gross := price * float64(qty)
	fee := Fee(gross)
	outlay := gross + fee

	pos := b.positions[symbol]

	switch action {
	case OpenLong:
		if pos.Qty < 0 {
			return nil, reject(PositionPolicyViolation,
				"short position open on %s, cover before buying long (net-position policy)", symbol)
		}
		if b.balance < outlay {
			return nil, reject(InsufficientFunds,
				"need %.0f, balance %.0f", outlay, b.balance)
		}

		// Weighted-average cost with the buy fee folded into the basis.
		totalQty := pos.Qty + qty
		newAvg := (float64(pos.Qty)*pos.AvgCost + gross + fee) / float64(totalQty)

		b.balance -= outlay
		b.positions[symbol] = Position{Qty: totalQty, AvgCost: newAvg}
		tx := b.log(action, symbol, price, qty, fee, 0, 0)
		return &Receipt{
			Transaction: tx,
			Message:     fmt.Sprintf("bought %d %s @ %.2f, outlay %.0f", qty, symbol, price, outlay),
		}, nil

	case CloseShort:
		if pos.Qty >= 0 {
			return nil, reject(InsufficientPosition, "no short position on %s to cover", symbol)
		}
		if -pos.Qty < qty {
			return nil, reject(InsufficientPosition,
				"cover quantity %d exceeds short size %d", qty, -pos.Qty)
		}
		if b.balance < outlay {
			return nil, reject(InsufficientFunds,
				"need %.0f, balance %.0f", outlay, b.balance)
		}

		// The short-side tax was charged at open; covering pays only
		// this trade's outlay.
		pnl := (pos.AvgCost-price)*float64(qty) - fee

		b.balance -= outlay
		remaining := pos.Qty + qty
		if remaining == 0 {
			delete(b.positions, symbol)
		} else {
			b.positions[symbol] = Position{Qty: remaining, AvgCost: pos.AvgCost}
		}
		tx := b.log(action, symbol, price, qty, fee, 0, pnl)
		return &Receipt{
			Transaction: tx,
			Message:     fmt.Sprintf("covered %d %s @ %.2f, realized %+.0f", qty, symbol, price, pnl),
		}, nil

	default:
		return nil, reject(UnknownAction, "buy does not accept action %q", action)
	}
}

// Sell executes a sell-side trade: closing/reducing a long, or
// opening/extending a short. Tax is charged on both.
func (b *PaperBroker) Sell(symbol string, price float64, qty int64, action Action) (*Receipt, error) {
	if price <= 0 || qty <= 0 {
		return nil, reject(InvalidInput, "price and quantity must be positive")
	}

	gross := price * float64(qty)
	fee := Fee(gross)
	tax := Tax(gross)
	netProceeds := gross - fee - tax

	pos := b.positions[symbol]

	switch action {
	case CloseLong:
		if pos.Qty < qty {
			return nil, reject(InsufficientPosition,
				"holding %d %s, cannot sell %d", pos.Qty, symbol, qty)
		}

		// Cost basis already includes the buy fee, so P&L is simply
		// inflow minus that portion's outlay.
		pnl := netProceeds - pos.AvgCost*float64(qty)

		b.balance += netProceeds
		remaining := pos.Qty - qty
		if remaining == 0 {
			delete(b.positions, symbol)
		} else {
			b.positions[symbol] = Position{Qty: remaining, AvgCost: pos.AvgCost}
		}
		tx := b.log(action, symbol, price, qty, fee, tax, pnl)
		return &Receipt{
			Transaction: tx,
			Message:     fmt.Sprintf("sold %d %s @ %.2f, net %.0f, realized %+.0f", qty, symbol, price, netProceeds, pnl),
		}, nil

	case OpenShort:
		if pos.Qty > 0 {
			return nil, reject(PositionPolicyViolation,
				"long position open on %s, close it before shorting (net-position policy)", symbol)
		}

		// Shorting is modeled as an immediate cash inflow; no margin
		// lock-up. AvgCost holds the quantity-weighted entry price.
		oldAbs := -pos.Qty
		totalAbs := oldAbs + qty
		entry := price
		if oldAbs > 0 {
			entry = (float64(oldAbs)*pos.AvgCost + float64(qty)*price) / float64(totalAbs)
		}

		b.balance += netProceeds
		b.positions[symbol] = Position{Qty: -totalAbs, AvgCost: entry}
		tx := b.log(action, symbol, price, qty, fee, tax, 0)
		return &Receipt{
			Transaction: tx,
			Message:     fmt.Sprintf("shorted %d %s @ %.2f, net %.0f", qty, symbol, price, netProceeds),
		}, nil

	default:
		return nil, reject(UnknownAction, "sell does not accept action %q", action)
	}
}

// Summary values the account at the given prices. A held symbol with
// no current price falls back to its average cost, which values the
// position at zero unrealized P&L — an approximation, flagged here
// rather than silently wrong data.
func (b *PaperBroker) Summary(currentPrices map[string]float64) Summary {
	var marketValue, shortLiability, unrealized float64

	for symbol, pos := range b.positions {
		if pos.Qty == 0 {
			continue
		}
		price, ok := currentPrices[symbol]
		if !ok || price <= 0 {
			price = pos.AvgCost
		}
		if pos.Qty > 0 {
			mv := price * float64(pos.Qty)
			marketValue += mv
			unrealized += mv - pos.AvgCost*float64(pos.Qty)
		} else {
			abs := float64(-pos.Qty)
			shortLiability += price * abs
			unrealized += (pos.AvgCost - price) * abs
		}
	}

	var realized float64
	for _, tx := range b.history {
		realized += tx.RealizedPnL
	}

	return Summary{
		Balance:        b.balance,
		MarketValue:    marketValue,
		ShortLiability: shortLiability,
		Equity:         b.balance + marketValue - shortLiability,
		UnrealizedPnL:  unrealized,
		RealizedPnL:    realized,
	}
}

// Balance returns the current cash balance.
func (b *PaperBroker) Balance() float64 { return b.balance }

// SetBalance overwrites the cash balance (manual top-up).
func (b *PaperBroker) SetBalance(amount float64) { b.balance = amount }

// Position returns the netted position for a symbol; a symbol with no
// entry is the zero position.
func (b *PaperBroker) Position(symbol string) Position {
	return b.positions[symbol]
}

// Positions returns a copy of all non-flat positions.
func (b *PaperBroker) Positions() map[string]Position {
	out := make(map[string]Position, len(b.positions))
	for sym, pos := range b.positions {
		if pos.Qty != 0 {
			out[sym] = pos
		}
	}
	return out
}

// History returns a copy of the transaction history in append order.
func (b *PaperBroker) History() []Transaction {
	out := make([]Transaction, len(b.history))
	copy(out, b.history)
	return out
}

// RestoreState replaces the ledger state wholesale from a persisted
// snapshot. Positions violating the qty==0 ⇒ avg_cost==0 invariant
// are repaired rather than rejected; flat entries are dropped.
func (b *PaperBroker) RestoreState(balance float64, positions map[string]Position, history []Transaction) {
	b.balance = balance
	b.positions = make(map[string]Position, len(positions))
	for sym, pos := range positions {
		if pos.Qty == 0 {
			continue
		}
		b.positions[sym] = pos
	}
	b.history = make([]Transaction, len(history))
	copy(b.history, history)
}

func (b *PaperBroker) log(action Action, symbol string, price float64, qty int64, fee, tax, pnl float64) Transaction {
	tx := Transaction{
		Time:        b.now(),
		Action:      action,
		Symbol:      symbol,
		Price:       price,
		Qty:         qty,
		Fee:         fee,
		Tax:         tax,
		RealizedPnL: pnl,
	}
	b.history = append(b.history, tx)
	return tx
}
