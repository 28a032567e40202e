package units

import "github.com/shopspring/decimal"

const (
	// OuncesPerQuart converts fluid ounces to quarts.
	OuncesPerQuart = 32.0
	// MillilitersPerOunce converts fluid ounces to milliliters.
	MillilitersPerOunce = 29.5735
)

// Quarts converts a volume in fluid ounces to quarts.
func Quarts(ounces float64) float64 {
	return ounces / OuncesPerQuart
}

// Milliliters converts a volume in fluid ounces to milliliters.
func Milliliters(ounces float64) float64 {
	return ounces * MillilitersPerOunce
}

// Round2 rounds a value to two decimal places using half-away-from-zero
// semantics. Trailing-zero suppression is left to the display layer.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
