package domain

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestComputeTotalsTaxInclusive(t *testing.T) {
	t.Parallel()

	items := []LineItem{
		{Name: "Cambio de Aceite", Quantity: 1, UnitPrice: 1200},
		{Name: "Rotación de Llantas", Quantity: 1, UnitPrice: 300},
	}

	totals := ComputeTotals(items, 10, TotalsOptions{PricesIncludeTax: true})

	wantSubtotal := 1500.0 / 1.16
	if !almostEqual(totals.Subtotal, wantSubtotal) {
		t.Fatalf("subtotal = %v, want %v", totals.Subtotal, wantSubtotal)
	}
	if !almostEqual(totals.DiscountAmount, wantSubtotal*0.10) {
		t.Fatalf("discount = %v, want %v", totals.DiscountAmount, wantSubtotal*0.10)
	}
	afterDiscount := wantSubtotal * 0.90
	if !almostEqual(totals.TaxAmount, afterDiscount*0.16) {
		t.Fatalf("tax = %v, want %v", totals.TaxAmount, afterDiscount*0.16)
	}
	if !almostEqual(totals.Total, 1350) {
		t.Fatalf("total = %v, want 1350", totals.Total)
	}
}

func TestComputeTotalsTaxExclusive(t *testing.T) {
	t.Parallel()

	items := []LineItem{
		{Name: "Cambio de Aceite", Quantity: 1, UnitPrice: 1200},
		{Name: "Rotación de Llantas", Quantity: 1, UnitPrice: 300},
	}

	totals := ComputeTotals(items, 0, TotalsOptions{})

	if totals.Subtotal != 1500 {
		t.Fatalf("subtotal = %v, want 1500", totals.Subtotal)
	}
	if !almostEqual(totals.TaxAmount, 240) {
		t.Fatalf("tax = %v, want 240", totals.TaxAmount)
	}
	if !almostEqual(totals.Total, 1740) {
		t.Fatalf("total = %v, want 1740", totals.Total)
	}
}

func TestComputeTotalsDefensiveInputs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		items    []LineItem
		discount float64
		want     Totals
	}{
		{
			name:     "negative discount clamps to zero effect",
			items:    []LineItem{{Name: "Servicio", Quantity: 1, UnitPrice: 100}},
			discount: -25,
			want:     Totals{Subtotal: 100, DiscountAmount: 0, TaxAmount: 16, Total: 116},
		},
		{
			name:     "discount over 100 clamps to full subtotal",
			items:    []LineItem{{Name: "Servicio", Quantity: 1, UnitPrice: 100}},
			discount: 150,
			want:     Totals{Subtotal: 100, DiscountAmount: 100, TaxAmount: 0, Total: 0},
		},
		{
			name:     "nan price coerced to zero",
			items:    []LineItem{{Name: "Servicio", Quantity: 1, UnitPrice: math.NaN()}},
			discount: 10,
			want:     Totals{},
		},
		{
			name:     "nan discount coerced to zero",
			items:    []LineItem{{Name: "Servicio", Quantity: 1, UnitPrice: 100}},
			discount: math.NaN(),
			want:     Totals{Subtotal: 100, DiscountAmount: 0, TaxAmount: 16, Total: 116},
		},
		{
			name:     "negative quantity coerced to zero",
			items:    []LineItem{{Name: "Servicio", Quantity: -3, UnitPrice: 100}},
			discount: 0,
			want:     Totals{},
		},
		{
			name: "empty items",
			want: Totals{},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := ComputeTotals(tc.items, tc.discount, TotalsOptions{})
			if !almostEqual(got.Subtotal, tc.want.Subtotal) ||
				!almostEqual(got.DiscountAmount, tc.want.DiscountAmount) ||
				!almostEqual(got.TaxAmount, tc.want.TaxAmount) ||
				!almostEqual(got.Total, tc.want.Total) {
				t.Fatalf("totals = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestComputeTotalsIdentities(t *testing.T) {
	t.Parallel()

	items := []LineItem{
		{Name: "Reemplazo de Balatas", Quantity: 2, UnitPrice: 2500},
		{Name: "Reemplazo de Bujías", Quantity: 4, UnitPrice: 900},
	}

	for _, discount := range []float64{0, 5, 33.3, 100} {
		totals := ComputeTotals(items, discount, TotalsOptions{})
		afterDiscount := totals.Subtotal - totals.DiscountAmount
		if math.Abs(totals.Total-(afterDiscount+totals.TaxAmount)) > epsilon {
			t.Fatalf("discount %v: total %v != afterDiscount+tax %v", discount, totals.Total, afterDiscount+totals.TaxAmount)
		}
		if totals.Total < afterDiscount {
			t.Fatalf("discount %v: total %v < afterDiscount %v", discount, totals.Total, afterDiscount)
		}
		if math.Abs(totals.TaxAmount-afterDiscount*0.16) > epsilon {
			t.Fatalf("discount %v: tax %v != afterDiscount*0.16", discount, totals.TaxAmount)
		}
	}
}

func TestComputeTotalsIdempotent(t *testing.T) {
	t.Parallel()

	items := []LineItem{{Name: "Reemplazo de Filtro de Aire", Quantity: 1, UnitPrice: 450}}
	first := ComputeTotals(items, 12.5, TotalsOptions{PricesIncludeTax: true})
	second := ComputeTotals(items, 12.5, TotalsOptions{PricesIncludeTax: true})
	if first != second {
		t.Fatalf("repeated call diverged: %+v vs %+v", first, second)
	}
}

func TestComputeTotalsInclusiveRoundTrip(t *testing.T) {
	t.Parallel()

	items := []LineItem{
		{Name: "Servicio A", Quantity: 3, UnitPrice: 433.33},
		{Name: "Servicio B", Quantity: 1, UnitPrice: 99.99},
	}
	gross := 3*433.33 + 99.99

	totals := ComputeTotals(items, 0, TotalsOptions{PricesIncludeTax: true})
	if math.Abs(totals.Total-gross) > 1e-9 {
		t.Fatalf("round trip total = %v, want %v", totals.Total, gross)
	}
}
