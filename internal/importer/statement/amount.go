package statement

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseAmount parses a formatted amount. With decimalComma the input looks
// like "1.234,56" or "-588,74", otherwise like "1,234.56".
func parseAmount(s string, decimalComma bool) (decimal.Decimal, error) {
	clean := strings.ReplaceAll(s, " ", "")

	if decimalComma {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	} else {
		clean = strings.ReplaceAll(clean, ",", "")
	}

	return decimal.NewFromString(clean)
}
