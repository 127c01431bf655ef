package model

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCost renders a currency amount with grouped thousands, dropping
// the cents when the amount is whole: $2,000 or $1,234.50.
func FormatCost(v float64) string {
	if v == math.Trunc(v) {
		return printer.Sprintf("$%d", int64(v))
	}
	return printer.Sprintf("$%.2f", v)
}

// FormatPercent renders a [0,1] score as a percentage with one decimal.
func FormatPercent(score float64) string {
	return printer.Sprintf("%.1f%%", score*100)
}
