package cli

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatAmount renders amount in the currency's own notation, e.g. "¥3,280".
func FormatAmount(amount float64, code string) string {
	return FormatDecimal(decimal.NewFromFloat(amount), code)
}

// FormatDecimal renders an exact amount in the currency's own notation.
func FormatDecimal(amount decimal.Decimal, code string) string {
	// money.New never returns a nil currency, even for unknown codes.
	cur := *money.New(0, code).Currency()
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}
