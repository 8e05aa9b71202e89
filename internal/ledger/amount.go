package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a non-negative monetary value in the user's currency.
type Amount float64

var amountCleaner = strings.NewReplacer(
	",", "",
	"₹", "",
	"$", "",
	"Rs.", "",
	"Rs", "",
	"INR", "",
	" ", "",
	"\u00a0", "",
)

// ParseAmount parses a spreadsheet cell into an Amount. ok is false when the
// cell is blank or not numeric. Negative values parse but clamp to zero.
func ParseAmount(cell string) (amount Amount, ok bool) {
	s := amountCleaner.Replace(strings.TrimSpace(cell))
	if s == "" || s == "-" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	if d.IsNegative() {
		return 0, true
	}
	return Amount(d.InexactFloat64()), true
}

// CoerceAmount is ParseAmount with every failure mapped to zero.
func CoerceAmount(cell string) Amount {
	amount, _ := ParseAmount(cell)
	return amount
}

// Decimal converts the amount for exact arithmetic.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.NewFromFloat(float64(a))
}

// Normalize clamps negative or NaN values to zero.
func (a Amount) Normalize() Amount {
	if a > 0 {
		return a
	}
	return 0
}
