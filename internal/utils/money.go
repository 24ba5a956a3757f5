package utils

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatCurrency renders the absolute value of a monetary amount with
// thousand separators and exactly two decimal places. Callers supply the
// currency symbol and sign separately; display strings are never fed back
// into arithmetic.
func FormatCurrency(amount decimal.Decimal) string {
	v, _ := amount.Abs().Float64()
	return humanize.FormatFloat("#,###.##", v)
}
