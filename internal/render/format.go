package render

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.BritishEnglish)

// FormatNumber renders one decimal place with thousands grouping
func FormatNumber(v float64) string {
	return printer.Sprintf("%.1f", v)
}

// FormatCount renders a rounded integer with thousands grouping
func FormatCount(v float64) string {
	return printer.Sprintf("%d", int64(math.Round(v)))
}

// FormatPercent renders a fraction as a percentage: 0.191 -> "19.1%"
func FormatPercent(fraction float64) string {
	return printer.Sprintf("%.1f%%", fraction*100)
}

// FormatRatio renders two decimal places
func FormatRatio(v float64) string {
	return printer.Sprintf("%.2f", v)
}

// FormatRate renders a metric value followed by its display unit
func FormatRate(v float64, unit string) string {
	if unit == "" {
		return FormatNumber(v)
	}
	return FormatNumber(v) + " " + unit
}

// FormatCurrency abbreviates money: £950, £25k, £1.2m, £3.4bn
func FormatCurrency(v float64, symbol string) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	// tiers are picked on the rounded value, so 999,600 reads £1.0m not £1,000k
	switch {
	case math.Round(v/1e5) >= 1e4:
		return printer.Sprintf("%s%s%.1fbn", sign, symbol, v/1e9)
	case math.Round(v/1e3) >= 1e3:
		return printer.Sprintf("%s%s%.1fm", sign, symbol, v/1e6)
	case math.Round(v) >= 1e3:
		return printer.Sprintf("%s%s%dk", sign, symbol, int64(math.Round(v/1e3)))
	default:
		return printer.Sprintf("%s%s%d", sign, symbol, int64(math.Round(v)))
	}
}
