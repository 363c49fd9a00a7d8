package services

import domain "github.com/fullservice-mx/api/internal/domain"

// serviceCatalog is the fixed read-only table of offerable services.
var serviceCatalog = []domain.CatalogEntry{
	{Name: "Cambio de Aceite", UnitPrice: 1200, LaborHours: 0.5},
	{Name: "Rotación de Llantas", UnitPrice: 300, LaborHours: 0.5},
	{Name: "Reemplazo de Balatas", UnitPrice: 2500, LaborHours: 1.5},
	{Name: "Reemplazo de Bujías", UnitPrice: 900, LaborHours: 1},
	{Name: "Reemplazo de Filtro de Aire", UnitPrice: 450, LaborHours: 0.2},
}

type catalogService struct {
	entries []domain.CatalogEntry
	byName  map[string]domain.CatalogEntry
}

// NewCatalogService constructs the catalog lookup service.
func NewCatalogService() CatalogService {
	byName := make(map[string]domain.CatalogEntry, len(serviceCatalog))
	for _, entry := range serviceCatalog {
		byName[entry.Name] = entry
	}
	return &catalogService{entries: serviceCatalog, byName: byName}
}

func (s *catalogService) Entries() []domain.CatalogEntry {
	out := make([]domain.CatalogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Prefill returns a quantity-1 line item for the named catalog entry. Names
// without an exact catalog match become free-text zero-priced items.
func (s *catalogService) Prefill(name string) LineItem {
	if entry, ok := s.byName[name]; ok {
		return LineItem{
			Name:       entry.Name,
			Quantity:   1,
			UnitPrice:  entry.UnitPrice,
			LaborHours: entry.LaborHours,
		}
	}
	return LineItem{Name: name, Quantity: 1}
}
