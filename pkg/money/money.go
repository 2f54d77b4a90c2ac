package money

import (
	"github.com/shopspring/decimal"
)

// Places is the number of decimal places every stored amount is rounded to.
const Places = 2

var hundred = decimal.NewFromInt(100)

// Round rounds an amount to two decimal places, half away from zero.
// 0.125 becomes 0.13 and -0.125 becomes -0.13.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(Places)
}

// Percent returns amount * (percentage / 100), unrounded.
func Percent(amount, percentage decimal.Decimal) decimal.Decimal {
	return amount.Mul(percentage).Div(hundred)
}

// FixedPlusPercent computes fixed + amount * (percentage / 100), rounded.
// Both fee kinds share this formula.
func FixedPlusPercent(fixed, percentage, amount decimal.Decimal) decimal.Decimal {
	return Round(fixed.Add(Percent(amount, percentage)))
}

// ShareOf returns part as a percentage of whole, rounded. A zero whole yields zero.
func ShareOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return Round(part.Mul(hundred).Div(whole))
}
