package handlers

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/fullservice-mx/api/internal/domain"
	"github.com/fullservice-mx/api/internal/platform/config"
	"github.com/fullservice-mx/api/internal/services"
)

type stubSuggester struct {
	suggestion services.EstimateSuggestion
	err        error
	lastReq    services.EstimateRequest
	calls      int
}

func (s *stubSuggester) Suggest(_ context.Context, req services.EstimateRequest) (services.EstimateSuggestion, error) {
	s.calls++
	s.lastReq = req
	return s.suggestion, s.err
}

type stubAnalyzer struct {
	analysis services.ServiceAnalysis
	err      error
}

func (s *stubAnalyzer) Analyze(context.Context, services.AnalysisRequest) (services.ServiceAnalysis, error) {
	return s.analysis, s.err
}

func newEstimateTestRouter(t *testing.T, suggester services.EstimateSuggester, analyzer services.ServiceAnalyzer, opts ...EstimateOption) http.Handler {
	t.Helper()
	validator, err := NewRequestValidator(config.ValidationConfig{VINLength: 17})
	if err != nil {
		t.Fatalf("NewRequestValidator: %v", err)
	}
	h := NewEstimateHandlers(suggester, analyzer, validator, opts...)
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func TestEstimateHandlersComputeTotals(t *testing.T) {
	router := newEstimateTestRouter(t, nil, nil)

	rr := doJSONRequest(t, router, http.MethodPost, "/estimates/totals", map[string]any{
		"line_items": []map[string]any{
			{"name": "Cambio de Aceite", "quantity": 1, "unit_price": 1200},
			{"name": "Rotación de Llantas", "quantity": 1, "unit_price": 300},
		},
		"discount_percent": 10,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var totals totalsPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &totals); err != nil {
		t.Fatalf("decode totals: %v", err)
	}
	wantSubtotal := 1500 / (1 + domain.DefaultTaxRate)
	if math.Abs(totals.Subtotal-wantSubtotal) > 1e-6 {
		t.Fatalf("subtotal = %v, want %v", totals.Subtotal, wantSubtotal)
	}
	if math.Abs(totals.Total-1350) > 1e-6 {
		t.Fatalf("total = %v", totals.Total)
	}
}

func TestEstimateHandlersComputeTotalsExclusive(t *testing.T) {
	router := newEstimateTestRouter(t, nil, nil)

	rr := doJSONRequest(t, router, http.MethodPost, "/estimates/totals", map[string]any{
		"line_items": []map[string]any{
			{"name": "Diagnóstico", "quantity": 1, "unit_price": 500},
		},
		"prices_include_tax": false,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var totals totalsPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &totals); err != nil {
		t.Fatalf("decode totals: %v", err)
	}
	if math.Abs(totals.Subtotal-500) > 1e-6 || math.Abs(totals.Total-580) > 1e-6 {
		t.Fatalf("totals = %+v", totals)
	}
}

func TestEstimateHandlersComputeTotalsRejectsEmptyItems(t *testing.T) {
	router := newEstimateTestRouter(t, nil, nil)

	rr := doJSONRequest(t, router, http.MethodPost, "/estimates/totals", map[string]any{
		"line_items": []map[string]any{},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestEstimateHandlersSuggestWithFigures(t *testing.T) {
	suggester := &stubSuggester{
		suggestion: services.EstimateSuggestion{
			LaborCost: 2000,
			PartsCost: 200,
			Subtotal:  2200,
			TaxAmount: 352,
			Total:     2552,
		},
	}
	router := newEstimateTestRouter(t, suggester, nil)

	rr := doJSONRequest(t, router, http.MethodPost, "/estimates:suggest", map[string]any{
		"figures": map[string]any{
			"labor_hours": 4,
			"hourly_rate": 500,
			"parts_cost":  200,
		},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if suggester.lastReq.Figures == nil {
		t.Fatal("expected figures to reach the suggester")
	}
	if suggester.lastReq.Figures.LaborHours != 4 {
		t.Fatalf("labor hours = %v", suggester.lastReq.Figures.LaborHours)
	}

	var payload estimateSuggestionPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode suggestion: %v", err)
	}
	if payload.Total != 2552 {
		t.Fatalf("total = %v", payload.Total)
	}
}

func TestEstimateHandlersSuggestMapsProviderErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "invalid input", err: services.ErrEstimateInvalidInput, wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "provider down", err: services.ErrEstimateUnavailable, wantStatus: http.StatusBadGateway, wantCode: "suggester_unavailable"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := newEstimateTestRouter(t, &stubSuggester{err: tc.err}, nil)

			rr := doJSONRequest(t, router, http.MethodPost, "/estimates:suggest", map[string]any{
				"vehicle_make": "Nissan",
			})
			if rr.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tc.wantStatus, rr.Code, rr.Body.String())
			}
			assertErrorCode(t, rr.Body.Bytes(), tc.wantCode)
		})
	}
}

func TestEstimateHandlersSuggestRateLimit(t *testing.T) {
	suggester := &stubSuggester{}
	router := newEstimateTestRouter(t, suggester, nil, WithSuggestRateLimit(1, time.Minute))

	body := map[string]any{"vehicle_make": "Nissan"}

	rr := doJSONRequest(t, router, http.MethodPost, "/estimates:suggest", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSONRequest(t, router, http.MethodPost, "/estimates:suggest", body)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if suggester.calls != 1 {
		t.Fatalf("suggester calls = %d", suggester.calls)
	}
}

func TestEstimateHandlersAnalyze(t *testing.T) {
	analyzer := &stubAnalyzer{
		analysis: services.ServiceAnalysis{
			Summary:     "Vehículo con kilometraje alto",
			Flags:       []string{"kilometraje_alto"},
			Suggestions: []string{"Cambio de Aceite"},
		},
	}
	router := newEstimateTestRouter(t, nil, analyzer)

	rr := doJSONRequest(t, router, http.MethodPost, "/estimates:analyze", map[string]any{
		"description": "ruido al frenar",
		"kilometers":  120000,
		"year":        2014,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var payload serviceAnalysisPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}
	if len(payload.Flags) != 1 || payload.Flags[0] != "kilometraje_alto" {
		t.Fatalf("flags = %v", payload.Flags)
	}
}

func TestEstimateHandlersAnalyzeWithoutAnalyzer(t *testing.T) {
	router := newEstimateTestRouter(t, nil, nil)

	rr := doJSONRequest(t, router, http.MethodPost, "/estimates:analyze", map[string]any{
		"description": "ruido",
	})
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
