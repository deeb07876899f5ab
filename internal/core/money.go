package core

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
)

// Currency is the unit every backend amount is expressed in.
const Currency = "CVE"

// Number formats per interface language, in humanize.FormatFloat notation.
var numberFormats = map[string]string{
	"pt": "#.###,##",
	"en": "#,###.##",
}

// FormatAmount renders v with the grouping and decimal separators of lang.
// Unknown languages use the Portuguese format.
//
//	FormatAmount(1234.5, "pt") -> "CVE 1.234,50"
//	FormatAmount(1234.5, "en") -> "CVE 1,234.50"
func FormatAmount(v float64, lang string) string {
	return Currency + " " + formatNumber(v, lang)
}

// FormatSigned renders a transaction amount with an explicit sign.
func FormatSigned(tx Transaction, lang string) string {
	sign := "-"
	if tx.IsInflow() {
		sign = "+"
	}
	return sign + formatNumber(math.Abs(tx.Amount), lang) + " " + Currency
}

// FormatPercent renders a goal progress like "42%".
func FormatPercent(p float64) string {
	return humanize.FtoaWithDigits(math.Round(p*10)/10, 1) + "%"
}

// Mask hides an amount for the stat cards' hidden-values mode, keeping the
// currency prefix when present.
func Mask(s string) string {
	if strings.HasPrefix(s, Currency) {
		return Currency + " •••••"
	}
	return "•••••"
}

func formatNumber(v float64, lang string) string {
	format, ok := numberFormats[strings.ToLower(lang)]
	if !ok {
		format = numberFormats["pt"]
	}
	return humanize.FormatFloat(format, v)
}
