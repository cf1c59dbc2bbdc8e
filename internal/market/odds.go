package market

import (
	"math"
	"strconv"
)

// NotAvailable is rendered wherever a value cannot be computed.
const NotAvailable = "N/A"

// roundHalfUp rounds to the nearest integer, ties toward +Inf.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

func validProbability(p float64) bool {
	return p > 0 && p < 1 && !math.IsNaN(p)
}

// AmericanOdds converts an implied probability to American odds: negative
// for favourites (p > 0.5), "+" prefixed otherwise. Probabilities outside
// (0,1) give "N/A".
func AmericanOdds(p float64) string {
	if !validProbability(p) {
		return NotAvailable
	}
	if p > 0.5 {
		return strconv.FormatInt(int64(roundHalfUp(-100*p/(1-p))), 10)
	}
	return "+" + strconv.FormatInt(int64(roundHalfUp(100*(1-p)/p)), 10)
}

// EuropeanOdds converts a share price to decimal odds rounded to two places,
// e.g. 0.25 -> "4", 0.6 -> "1.67".
func EuropeanOdds(p float64) string {
	if p <= 0 || math.IsNaN(p) {
		return NotAvailable
	}
	v := roundHalfUp(100/p) / 100
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return NotAvailable
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
