// internal/layout/format.go
package layout

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount with exactly two decimals
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// FormatQty renders a quantity as a plain integer
func FormatQty(qty int) string {
	return strconv.Itoa(qty)
}

// LineAmount is qty × price, exact
func LineAmount(qty int, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(qty)))
}
