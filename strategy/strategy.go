// Package strategy maps indicator rows to discrete trade signals.
package strategy

import (
	"fmt"
	"math"

	"papertrade/indicator"
)

// Signal is a discrete trade signal.
type Signal int

const (
	Sell Signal = -1
	Hold Signal = 0
	Buy  Signal = 1
)

func (s Signal) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "hold"
	}
}

// ErrUnknownStrategy reports a strategy name outside the closed set.
var ErrUnknownStrategy = fmt.Errorf("unknown strategy")

const (
	MACross   = "MA_Cross"
	RSIName   = "RSI_Strategy"
	MACDName  = "MACD_Strategy"
	Bollinger = "Bollinger_Strategy"
	KD        = "KD_Strategy"
)

// Names returns the closed strategy list, in display order.
func Names() []string {
	return []string{MACross, RSIName, MACDName, Bollinger, KD}
}

// Valid reports whether name is a known strategy.
func Valid(name string) bool {
	for _, n := range Names() {
		if n == name {
			return true
		}
	}
	return false
}

// Evaluate returns the signal for the current bar given the previous
// bar's row. Crossover strategies require a strict cross between prev
// and curr; Bollinger and RSI are threshold rules. Rows with NaN in
// the fields a strategy reads always yield Hold, never an error — an
// unknown strategy name is the only error case.
func Evaluate(curr, prev indicator.Row, name string) (Signal, error) {
	switch name {
	case MACross:
		if cross(prev.MA5, prev.MA20, curr.MA5, curr.MA20) {
			return Buy, nil
		}
		if cross(prev.MA20, prev.MA5, curr.MA20, curr.MA5) {
			return Sell, nil
		}

	case RSIName:
		if def(prev.RSI, curr.RSI) {
			if prev.RSI < 30 && curr.RSI >= 30 {
				return Buy, nil
			}
			if prev.RSI > 70 && curr.RSI <= 70 {
				return Sell, nil
			}
		}

	case MACDName:
		if cross(prev.DIF, prev.DEM, curr.DIF, curr.DEM) {
			return Buy, nil
		}
		if cross(prev.DEM, prev.DIF, curr.DEM, curr.DIF) {
			return Sell, nil
		}

	case Bollinger:
		if def(curr.BBLow, curr.BBUp) {
			if curr.Close <= curr.BBLow {
				return Buy, nil
			}
			if curr.Close >= curr.BBUp {
				return Sell, nil
			}
		}

	case KD:
		if def(prev.K, prev.D, curr.K, curr.D) {
			if prev.K < 20 && prev.K < prev.D && curr.K > curr.D {
				return Buy, nil
			}
			if prev.K > 80 && prev.K > prev.D && curr.K < curr.D {
				return Sell, nil
			}
		}

	default:
		return Hold, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return Hold, nil
}

// cross reports a strict upward cross of a over b between the previous
// and current bar. NaN on any side means no cross.
func cross(prevA, prevB, currA, currB float64) bool {
	return def(prevA, prevB, currA, currB) && prevA < prevB && currA > currB
}

func def(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}
