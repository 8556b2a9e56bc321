// Package indicator computes the technical indicator set used by the
// signal strategies: MA5/MA20, RSI(14), MACD(12,26,9), Bollinger(20,2)
// and the stochastic K/D(9) oscillator.
//
// All values are pure functions of the bars up to and including the
// current index — no lookahead. Fields inside an indicator's warm-up
// window are NaN; callers must treat NaN as "not yet available".
package indicator

import (
	"math"

	"papertrade/model"
)

// Row is a bar enriched with derived indicator fields. NaN marks a
// field whose lookback window is not yet populated.
type Row struct {
	model.Bar

	MA5     float64 `json:"ma5"`
	MA20    float64 `json:"ma20"`
	RSI     float64 `json:"rsi"`
	DIF     float64 `json:"dif"`      // EMA12 - EMA26
	DEM     float64 `json:"dem"`      // EMA9 of DIF (signal line)
	MACDBar float64 `json:"macd_bar"` // DIF - DEM
	BBMid   float64 `json:"bb_mid"`
	BBUp    float64 `json:"bb_up"`
	BBLow   float64 `json:"bb_low"`
	K       float64 `json:"k"`
	D       float64 `json:"d"`
}

// Compute enriches a series with all indicator columns. The input is
// never mutated. Running Compute twice on the same series yields
// identical rows: the K/D recursion is intentionally re-seeded at
// 50/50 from the first bar of the given series on every call, so K/D
// depend on how much history the caller feeds in.
func Compute(series model.Series) []Row {
	n := len(series)
	rows := make([]Row, n)
	for i, b := range series {
		rows[i] = Row{Bar: b}
	}
	if n == 0 {
		return rows
	}

	closes := series.Closes()

	ma5 := rollingMean(closes, 5)
	ma20 := rollingMean(closes, 20)
	rsi := rsi14(closes)
	dif, dem := macd(closes)
	bbStd := rollingStd(closes, 20)
	k, d := stochasticKD(series)

	for i := range rows {
		rows[i].MA5 = ma5[i]
		rows[i].MA20 = ma20[i]
		rows[i].RSI = rsi[i]
		rows[i].DIF = dif[i]
		rows[i].DEM = dem[i]
		rows[i].MACDBar = dif[i] - dem[i]
		rows[i].BBMid = ma20[i]
		rows[i].BBUp = ma20[i] + 2*bbStd[i]
		rows[i].BBLow = ma20[i] - 2*bbStd[i]
		rows[i].K = k[i]
		rows[i].D = d[i]
	}
	return rows
}

// rollingMean is a trailing simple moving average; NaN until the
// window is full.
func rollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// rollingStd is the trailing sample standard deviation (ddof=1),
// matching what Bollinger bands conventionally use.
func rollingStd(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		win := values[i-window+1 : i+1]
		var mean float64
		for _, v := range win {
			mean += v
		}
		mean /= float64(window)
		var ss float64
		for _, v := range win {
			diff := v - mean
			ss += diff * diff
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

// rsi14 computes RSI over trailing 14-bar simple averages of gains and
// losses. When the average loss over the window is zero, RSI is NaN
// and callers treat it as neutral.
func rsi14(closes []float64) []float64 {
	const window = 14
	n := len(closes)
	out := make([]float64, n)
	gains := make([]float64, n) // gains[i] for delta close[i]-close[i-1]
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}
	var gainSum, lossSum float64
	for i := 0; i < n; i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > window {
			gainSum -= gains[i-window]
			lossSum -= losses[i-window]
		}
		// The first delta exists at i=1, so the 14-delta window fills at i=14.
		if i < window {
			out[i] = math.NaN()
			continue
		}
		avgLoss := lossSum / window
		if avgLoss == 0 {
			out[i] = math.NaN()
			continue
		}
		rs := (gainSum / window) / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// macd returns the DIF line (EMA12-EMA26) and the DEM signal line
// (EMA9 of DIF). EMAs use the standard recursive form seeded from the
// first value, no bias correction.
func macd(closes []float64) (dif, dem []float64) {
	ema12 := ema(closes, 12)
	ema26 := ema(closes, 26)
	dif = make([]float64, len(closes))
	for i := range closes {
		dif[i] = ema12[i] - ema26[i]
	}
	dem = ema(dif, 9)
	return dif, dem
}

func ema(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// stochasticKD computes the 9-day stochastic oscillator with 1/3
// smoothing, recursively over the whole series:
//
//	K[t] = 2/3*K[t-1] + 1/3*RSV[t]
//	D[t] = 2/3*D[t-1] + 1/3*K[t]
//
// seeded at K=D=50. During the 9-bar warm-up both are emitted as 50
// without advancing the recursion; a zero high-low range yields RSV=50
// and does advance it.
func stochasticKD(series model.Series) (kOut, dOut []float64) {
	const window = 9
	n := len(series)
	kOut = make([]float64, n)
	dOut = make([]float64, n)

	k, d := 50.0, 50.0
	for i := 0; i < n; i++ {
		if i < window-1 {
			kOut[i] = 50
			dOut[i] = 50
			continue
		}
		low := series[i].Low
		high := series[i].High
		for j := i - window + 1; j < i; j++ {
			if series[j].Low < low {
				low = series[j].Low
			}
			if series[j].High > high {
				high = series[j].High
			}
		}
		rsv := 50.0
		if high > low {
			rsv = (series[i].Close - low) / (high - low) * 100
		}
		k = (2.0/3.0)*k + (1.0/3.0)*rsv
		d = (2.0/3.0)*d + (1.0/3.0)*k
		kOut[i] = k
		dOut[i] = d
	}
	return kOut, dOut
}
