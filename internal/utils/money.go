package utils

import "math"

// Round2 rounds a monetary amount to 2 decimal places. Every balance, fee
// and commission stored by the ledger goes through this.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}
