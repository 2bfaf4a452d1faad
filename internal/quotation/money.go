package quotation

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyFormat holds the separators used when printing amounts.
type MoneyFormat struct {
	Thousands string
	Decimal   string
}

// ColombianFormat groups thousands with "." and separates cents with ",".
var ColombianFormat = MoneyFormat{Thousands: ".", Decimal: ","}

// Money prints v as "<symbol> <amount>" with two decimals.
func (f MoneyFormat) Money(symbol string, v decimal.Decimal) string {
	return symbol + " " + f.Number(v)
}

// Number prints v with two decimals and grouped thousands.
func (f MoneyFormat) Number(v decimal.Decimal) string {
	s := v.StringFixed(2)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.Grow(len(s) + len(intPart)/3 + 1)
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(f.Thousands)
		}
		b.WriteRune(r)
	}
	b.WriteString(f.Decimal)
	b.WriteString(frac)
	return b.String()
}
