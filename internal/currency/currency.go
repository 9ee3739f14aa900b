// Package currency holds the closed set of currency codes a project may be
// priced in and the display formatting for amounts in those currencies.
// Codes are display tags only; nothing here converts between currencies.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
	xcurrency "golang.org/x/text/currency"
)

type Code string

const (
	USD Code = "USD"
	EUR Code = "EUR"
	GBP Code = "GBP"
	JPY Code = "JPY"
	BTC Code = "BTC"
	ETH Code = "ETH"

	// Default is used when a project has no currency and as the dashboard
	// fallback for a company without projects.
	Default = USD
)

var codes = []Code{
	"USD", "EUR", "GBP", "INR", "CAD", "AUD", "JPY", "CNY", "AED", "SAR",
	"PKR", "BDT", "LKR", "NPR", "MYR", "SGD", "THB", "PHP", "IDR", "VND",
	"KRW", "HKD", "NZD", "ZAR", "BRL", "MXN", "CHF", "SEK", "NOK", "DKK",
	"PLN", "CZK", "HUF", "RON", "BGN", "HRK", "RUB", "TRY", "ILS", "EGP",
	"NGN", "KES", "GHS", "UGX", "TZS", "ETB", "MAD", "TND", "DZD", "SDG",
	"SSP", "ZWL", "XOF", "XAF", "XPF", "ANG", "AWG", "BBD", "BMD", "BZD",
	"BSD", "BWP", "BND", "KHR", "KYD", "FJD", "GYD", "HTG", "JMD", "KZT",
	"KWD", "KGS", "LAK", "LBP", "LRD", "LSL", "MOP", "MUR", "MVR", "MWK",
	"MZN", "NAD", "NIO", "OMR", "PAB", "PGK", "PYG", "QAR", "RWF", "SBD",
	"SCR", "SLL", "SOS", "SRD", "STN", "SYP", "SZL", "TJS", "TMT", "TOP",
	"TTD", "TWD", "UAH", "UYU", "UZS", "VUV", "WST", "XCD", "YER", "ZMW",
	"BTC", "ETH",
}

var known = func() map[Code]struct{} {
	m := make(map[Code]struct{}, len(codes))
	for _, c := range codes {
		m[c] = struct{}{}
	}

	return m
}()

// All returns the supported codes in their canonical order.
func All() []Code {
	out := make([]Code, len(codes))
	copy(out, codes)

	return out
}

func (c Code) Valid() bool {
	_, ok := known[c]
	return ok
}

// IsCrypto reports whether c is one of the crypto display tags.
func (c Code) IsCrypto() bool {
	return c == BTC || c == ETH
}

func (c Code) String() string { return string(c) }

// Parse normalizes s and checks it against the supported set. An empty
// string resolves to Default.
func Parse(s string) (Code, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Default, true
	}

	c := Code(s)

	return c, c.Valid()
}

// Scale is the number of fraction digits used when displaying c.
func (c Code) Scale() int {
	if c.IsCrypto() {
		return 2
	}

	unit, err := xcurrency.ParseISO(string(c))
	if err != nil {
		return 2
	}

	scale, _ := xcurrency.Standard.Rounding(unit)

	return scale
}

// Format renders amount as "<CODE> <grouped number>", e.g. "USD 4,000.00".
// Digits come from the decimal itself so large amounts keep full precision.
func Format(amount decimal.Decimal, c Code) string {
	digits := amount.StringFixed(int32(c.Scale()))

	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}

	whole, frac, hasFrac := strings.Cut(digits, ".")

	var b strings.Builder

	b.WriteString(string(c))
	b.WriteByte(' ')
	b.WriteString(sign)

	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}

		b.WriteRune(r)
	}

	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}

	return b.String()
}
