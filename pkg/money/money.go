// Package money formats decimal amounts for display.
//
// Amounts use two decimals, "," as the decimal separator and "." for
// thousands grouping: 1234.5 → "1.234,50".
package money

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// displayTag selects the separator convention. German groups every number
// of four or more digits, which matches the back-office display.
var displayTag = language.German

// maxPrinterDigits is the widest whole part the printer takes as an int64.
const maxPrinterDigits = 18

// Format renders d with two decimals. The digits come from the decimal
// itself, so large amounts keep their cents.
func Format(d decimal.Decimal) string {
	fixed := d.Round(2).StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, cents, _ := strings.Cut(fixed, ".")
	return sign + groupThousands(whole) + "," + cents
}

func groupThousands(digits string) string {
	if len(digits) <= maxPrinterDigits {
		if n, err := strconv.ParseInt(digits, 10, 64); err == nil {
			return message.NewPrinter(displayTag).Sprintf("%d", n)
		}
	}
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Parse reads a machine-formatted amount ("1234.50"), tolerating empty
// input as zero.
func Parse(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// String is the canonical storage/transport form: two fixed decimals,
// "." separator, no grouping.
func String(d decimal.Decimal) string {
	return d.StringFixed(2)
}
