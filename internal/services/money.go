package services

import "github.com/shopspring/decimal"

var minorPerMajor = decimal.NewFromInt(100)

// MinorUnits converts a major-unit price to the payment provider's minor
// currency unit, truncating toward zero: 199.50 becomes 19950.
func MinorUnits(price decimal.Decimal) int64 {
	return price.Mul(minorPerMajor).Truncate(0).IntPart()
}

// MajorUnits converts a settled minor-unit total back to whole major units
// with integer division: 19950 becomes 199.
func MajorUnits(totalMinor int64) int64 {
	return totalMinor / 100
}
