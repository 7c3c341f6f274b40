// Package format renders numbers for human-readable reports.
package format

import (
	"fmt"
	"math"

	"github.com/iwvelando/decision-analysis/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	formatted := NumericCurrency(math.Abs(mathutil.Round(amount)))
	if amount < 0 && formatted != "0.00" {
		return "-$" + formatted
	}
	return "$" + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	formatted := printer.Sprintf("%.2f", amount)
	if formatted == "-0.00" {
		return "0.00"
	}
	return formatted
}

// Quantity returns a value with separators and the given number of decimals.
func Quantity(value float64, decimals int) string {
	formatted := printer.Sprintf(fmt.Sprintf("%%.%df", decimals), value)
	if math.Abs(value) < 0.5*math.Pow(10, -float64(decimals)) && formatted[0] == '-' {
		return formatted[1:]
	}
	return formatted
}

// Percent formats a fraction as a percentage with two decimals (0.125 -> "12.50%").
func Percent(fraction float64) string {
	return printer.Sprintf("%.2f%%", fraction*100)
}
