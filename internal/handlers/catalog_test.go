package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/fullservice-mx/api/internal/services"
)

func TestCatalogHandlersListServices(t *testing.T) {
	h := NewCatalogHandlers(services.NewCatalogService())
	r := chi.NewRouter()
	r.Route("/catalog", h.Routes)

	rr := doJSONRequest(t, r, http.MethodGet, "/catalog/services", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp catalogResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 5 {
		t.Fatalf("expected 5 catalog entries, got %d", len(resp.Items))
	}
	if resp.Items[0].Name != "Cambio de Aceite" {
		t.Fatalf("first entry = %q", resp.Items[0].Name)
	}
	if resp.Items[0].UnitPrice != 1200 {
		t.Fatalf("first entry price = %v", resp.Items[0].UnitPrice)
	}
}

func TestCatalogHandlersWithoutService(t *testing.T) {
	h := NewCatalogHandlers(nil)
	r := chi.NewRouter()
	r.Route("/catalog", h.Routes)

	rr := doJSONRequest(t, r, http.MethodGet, "/catalog/services", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestCatalogHandlersPrefillServices(t *testing.T) {
	h := NewCatalogHandlers(services.NewCatalogService())
	r := chi.NewRouter()
	r.Route("/catalog", h.Routes)

	body := map[string]any{
		"names": []string{"Cambio de Aceite", "  ", "Diagnóstico general"},
	}
	rr := doJSONRequest(t, r, http.MethodPost, "/catalog/services:prefill", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp prefillResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(resp.Items))
	}
	if resp.Items[0].Name != "Cambio de Aceite" || resp.Items[0].UnitPrice != 1200 || resp.Items[0].Quantity != 1 {
		t.Fatalf("catalog item = %+v", resp.Items[0])
	}
	if resp.Items[1].Name != "Diagnóstico general" || resp.Items[1].UnitPrice != 0 {
		t.Fatalf("free-text item = %+v", resp.Items[1])
	}
}

func TestCatalogHandlersPrefillRequiresBody(t *testing.T) {
	h := NewCatalogHandlers(services.NewCatalogService())
	r := chi.NewRouter()
	r.Route("/catalog", h.Routes)

	rr := doJSONRequest(t, r, http.MethodPost, "/catalog/services:prefill", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	assertErrorCode(t, rr.Body.Bytes(), "invalid_request")
}
