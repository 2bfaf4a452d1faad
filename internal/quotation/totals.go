package quotation

import "github.com/shopspring/decimal"

// Totals are derived from the item list and never stored.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Base     decimal.Decimal // Subtotal minus Discount, floored at zero
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums the line totals, applies the discount and the tax rate.
// The discount is reported as given; only the taxed base is floored.
func ComputeTotals(items []Item, discount, rate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
	}

	base := subtotal.Sub(discount)
	if base.IsNegative() {
		base = decimal.Zero
	}
	tax := base.Mul(rate)

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Base:     base,
		Tax:      tax,
		Total:    base.Add(tax),
	}
}
