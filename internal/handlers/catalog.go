package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fullservice-mx/api/internal/platform/httpx"
	"github.com/fullservice-mx/api/internal/services"
)

const maxCatalogBodySize = 16 * 1024

// CatalogHandlers exposes the fixed service catalog.
type CatalogHandlers struct {
	catalog services.CatalogService
}

// NewCatalogHandlers constructs a new CatalogHandlers instance.
func NewCatalogHandlers(catalog services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// Routes registers the /catalog endpoints.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/services", h.listServices)
	r.Post("/services:prefill", h.prefillServices)
}

type catalogEntryPayload struct {
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unit_price"`
	LaborHours float64 `json:"labor_hours"`
}

type catalogResponse struct {
	Items []catalogEntryPayload `json:"items"`
}

type prefillRequest struct {
	Names []string `json:"names"`
}

type prefillResponse struct {
	Items []lineItemPayload `json:"items"`
}

func (h *CatalogHandlers) listServices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	entries := h.catalog.Entries()
	items := make([]catalogEntryPayload, 0, len(entries))
	for _, entry := range entries {
		items = append(items, catalogEntryPayload{
			Name:       entry.Name,
			UnitPrice:  entry.UnitPrice,
			LaborHours: entry.LaborHours,
		})
	}
	writeJSONResponse(w, http.StatusOK, catalogResponse{Items: items})
}

// prefillServices turns selected service names into estimate line items.
// Names without a catalog match come back as free-text zero-priced items.
func (h *CatalogHandlers) prefillServices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req prefillRequest
	if err := decodeJSONBody(r, maxCatalogBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	items := make([]lineItemPayload, 0, len(req.Names))
	for _, name := range req.Names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		item := h.catalog.Prefill(name)
		items = append(items, lineItemPayload{
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			LaborHours: item.LaborHours,
		})
	}
	writeJSONResponse(w, http.StatusOK, prefillResponse{Items: items})
}
