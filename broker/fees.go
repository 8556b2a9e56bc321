package broker

import "math"

// Taiwan equity market schedule: 0.1425% brokerage fee per trade with
// a 20 NTD floor, 0.3% securities transaction tax on the sell side
// (closing a long or opening a short).
const (
	feeRate = 0.001425
	taxRate = 0.003
	minFee  = 20
)

// Fee returns the brokerage fee for a gross trade amount.
func Fee(amount float64) float64 {
	fee := math.Round(amount * feeRate)
	if fee < minFee {
		return minFee
	}
	return fee
}

// Tax returns the transaction tax for a gross sell-side amount.
func Tax(amount float64) float64 {
	return math.Round(amount * taxRate)
}
