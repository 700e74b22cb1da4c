package service

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var maxGrouped = decimal.NewFromInt(1 << 62)

// formatMoney форматирует сумму в батах с разделителями разрядов: 12,345.50.
// Целая часть печатается из десятичного значения без перевода в float64.
func formatMoney(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	if d.Abs().GreaterThanOrEqual(maxGrouped) {
		return d.StringFixed(2)
	}

	whole, frac, _ := strings.Cut(fixed, ".")
	sign := ""
	if d.Round(2).IsNegative() {
		sign = "-"
	}
	return sign + formatCount(decimal.RequireFromString(whole).IntPart()) + "." + frac
}

// formatCount форматирует целое число с разделителями разрядов.
func formatCount(n int64) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}
