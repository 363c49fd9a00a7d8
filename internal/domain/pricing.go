package domain

import "math"

// DefaultTaxRate is the IVA rate applied to service orders.
const DefaultTaxRate = 0.16

// TotalsOptions tunes how ComputeTotals interprets line-item prices.
type TotalsOptions struct {
	// TaxRate overrides the IVA rate when positive. Zero means DefaultTaxRate.
	TaxRate float64
	// PricesIncludeTax treats unit prices as IVA-inclusive amounts; the net
	// subtotal is derived by dividing the gross total by 1+rate.
	PricesIncludeTax bool
}

// ComputeTotals derives the monetary rollup for a set of line items and a
// discount percentage. The function is pure: no rounding is applied here,
// presentation layers round for display. Malformed numeric inputs (NaN, Inf)
// are coerced to zero, and the discount is bounded so no output goes negative.
func ComputeTotals(items []LineItem, discountPercent float64, opts TotalsOptions) Totals {
	taxRate := opts.TaxRate
	if taxRate <= 0 || !isFinite(taxRate) {
		taxRate = DefaultTaxRate
	}

	var gross float64
	for _, item := range items {
		quantity := float64(item.Quantity)
		if quantity < 0 || !isFinite(quantity) {
			quantity = 0
		}
		unitPrice := item.UnitPrice
		if unitPrice < 0 || !isFinite(unitPrice) {
			unitPrice = 0
		}
		gross += unitPrice * quantity
	}

	netSubtotal := gross
	if opts.PricesIncludeTax {
		netSubtotal = gross / (1 + taxRate)
	}

	pct := discountPercent
	switch {
	case !isFinite(pct), pct < 0:
		pct = 0
	case pct > 100:
		pct = 100
	}

	discountAmount := netSubtotal * pct / 100
	afterDiscount := netSubtotal - discountAmount
	taxAmount := afterDiscount * taxRate

	return Totals{
		Subtotal:       netSubtotal,
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		Total:          afterDiscount + taxAmount,
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
