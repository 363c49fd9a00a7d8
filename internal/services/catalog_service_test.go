package services

import "testing"

func TestCatalogServiceEntries(t *testing.T) {
	t.Parallel()

	catalog := NewCatalogService()
	entries := catalog.Entries()
	if len(entries) != 5 {
		t.Fatalf("entries = %d, want 5", len(entries))
	}
	if entries[0].Name != "Cambio de Aceite" || entries[0].UnitPrice != 1200 {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}

	entries[0].UnitPrice = 0
	if catalog.Entries()[0].UnitPrice != 1200 {
		t.Fatalf("catalog mutated through returned slice")
	}
}

func TestCatalogServicePrefill(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want LineItem
	}{
		{
			name: "Reemplazo de Balatas",
			want: LineItem{Name: "Reemplazo de Balatas", Quantity: 1, UnitPrice: 2500, LaborHours: 1.5},
		},
		{
			name: "Reemplazo de Filtro de Aire",
			want: LineItem{Name: "Reemplazo de Filtro de Aire", Quantity: 1, UnitPrice: 450, LaborHours: 0.2},
		},
		{
			name: "Diagnóstico eléctrico",
			want: LineItem{Name: "Diagnóstico eléctrico", Quantity: 1},
		},
	}

	catalog := NewCatalogService()
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := catalog.Prefill(tc.name); got != tc.want {
				t.Fatalf("prefill = %+v, want %+v", got, tc.want)
			}
		})
	}
}
