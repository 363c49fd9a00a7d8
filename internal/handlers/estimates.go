package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/fullservice-mx/api/internal/domain"
	"github.com/fullservice-mx/api/internal/platform/httpx"
	"github.com/fullservice-mx/api/internal/services"
)

const maxEstimateBodySize = 64 * 1024

// EstimateHandlers exposes totals computation and the advisory estimate endpoints.
type EstimateHandlers struct {
	suggester services.EstimateSuggester
	analyzer  services.ServiceAnalyzer
	validator *RequestValidator
	limiter   rateLimiter
}

// EstimateOption customises estimate handler behaviour.
type EstimateOption func(*EstimateHandlers)

// WithSuggestRateLimit throttles the suggest endpoint per client, guarding the
// remote estimate provider from bursts.
func WithSuggestRateLimit(limit int, window time.Duration) EstimateOption {
	return func(h *EstimateHandlers) {
		h.limiter = newSimpleRateLimiter(limit, window, nil)
	}
}

// NewEstimateHandlers constructs a new EstimateHandlers instance.
func NewEstimateHandlers(suggester services.EstimateSuggester, analyzer services.ServiceAnalyzer, validator *RequestValidator, opts ...EstimateOption) *EstimateHandlers {
	h := &EstimateHandlers{
		suggester: suggester,
		analyzer:  analyzer,
		validator: validator,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the estimate endpoints at the API root. The action routes
// use the colon form so they do not collide with resource paths.
func (h *EstimateHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/estimates/totals", h.computeTotals)
	r.Post("/estimates:suggest", h.suggestEstimate)
	r.Post("/estimates:analyze", h.analyzeService)
}

type computeTotalsRequest struct {
	LineItems        []lineItemPayload `json:"line_items" validate:"required,min=1,dive"`
	DiscountPercent  float64           `json:"discount_percent" validate:"gte=0,lte=100"`
	PricesIncludeTax *bool             `json:"prices_include_tax"`
}

type suggestEstimateRequest struct {
	Figures *estimateFiguresPayload `json:"figures"`

	VehicleMake      string `json:"vehicle_make"`
	VehicleModel     string `json:"vehicle_model"`
	VehicleYear      int    `json:"vehicle_year"`
	SelectedServices string `json:"selected_services"`
	ChecklistNotes   string `json:"checklist_notes"`
}

type estimateFiguresPayload struct {
	LaborHours      float64 `json:"labor_hours" validate:"gte=0"`
	HourlyRate      float64 `json:"hourly_rate" validate:"gte=0"`
	PartsCost       float64 `json:"parts_cost" validate:"gte=0"`
	SuppliesCost    float64 `json:"supplies_cost" validate:"gte=0"`
	DiscountPercent float64 `json:"discount_percent" validate:"gte=0,lte=100"`
}

type estimateSuggestionPayload struct {
	LaborCost      float64 `json:"labor_cost"`
	PartsCost      float64 `json:"parts_cost"`
	SuppliesCost   float64 `json:"supplies_cost"`
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	TaxAmount      float64 `json:"tax_amount"`
	Total          float64 `json:"total"`
}

type analyzeServiceRequest struct {
	Description string `json:"description"`
	Kilometers  int    `json:"kilometers" validate:"gte=0"`
	Year        int    `json:"year"`
	VisitReason string `json:"visit_reason"`
}

type serviceAnalysisPayload struct {
	Summary     string   `json:"summary"`
	Flags       []string `json:"flags"`
	Suggestions []string `json:"suggestions"`
}

func (h *EstimateHandlers) computeTotals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req computeTotalsRequest
	if err := decodeJSONBody(r, maxEstimateBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	inclusive := true
	if req.PricesIncludeTax != nil {
		inclusive = *req.PricesIncludeTax
	}

	totals := domain.ComputeTotals(toLineItems(req.LineItems), req.DiscountPercent, domain.TotalsOptions{
		PricesIncludeTax: inclusive,
	})
	writeJSONResponse(w, http.StatusOK, totalsPayload{
		Subtotal:       totals.Subtotal,
		DiscountAmount: totals.DiscountAmount,
		TaxAmount:      totals.TaxAmount,
		Total:          totals.Total,
	})
}

func (h *EstimateHandlers) suggestEstimate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.suggester == nil {
		httpx.WriteError(ctx, w, httpx.NewError("suggester_unavailable", "estimate suggester unavailable", http.StatusServiceUnavailable))
		return
	}
	if h.limiter != nil && !h.limiter.Allow(r.RemoteAddr) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many estimate requests", http.StatusTooManyRequests))
		return
	}

	var req suggestEstimateRequest
	if err := decodeJSONBody(r, maxEstimateBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	request := services.EstimateRequest{
		VehicleMake:      req.VehicleMake,
		VehicleModel:     req.VehicleModel,
		VehicleYear:      req.VehicleYear,
		SelectedServices: req.SelectedServices,
		ChecklistNotes:   req.ChecklistNotes,
	}
	if req.Figures != nil {
		request.Figures = &services.EstimateFigures{
			LaborHours:      req.Figures.LaborHours,
			HourlyRate:      req.Figures.HourlyRate,
			PartsCost:       req.Figures.PartsCost,
			SuppliesCost:    req.Figures.SuppliesCost,
			DiscountPercent: req.Figures.DiscountPercent,
		}
	}

	suggestion, err := h.suggester.Suggest(ctx, request)
	if err != nil {
		writeEstimateError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, estimateSuggestionPayload{
		LaborCost:      suggestion.LaborCost,
		PartsCost:      suggestion.PartsCost,
		SuppliesCost:   suggestion.SuppliesCost,
		Subtotal:       suggestion.Subtotal,
		DiscountAmount: suggestion.DiscountAmount,
		TaxAmount:      suggestion.TaxAmount,
		Total:          suggestion.Total,
	})
}

func (h *EstimateHandlers) analyzeService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.analyzer == nil {
		httpx.WriteError(ctx, w, httpx.NewError("analyzer_unavailable", "service analyzer unavailable", http.StatusServiceUnavailable))
		return
	}

	var req analyzeServiceRequest
	if err := decodeJSONBody(r, maxEstimateBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	analysis, err := h.analyzer.Analyze(ctx, services.AnalysisRequest{
		Description: req.Description,
		Kilometers:  req.Kilometers,
		Year:        req.Year,
		VisitReason: req.VisitReason,
	})
	if err != nil {
		writeEstimateError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, serviceAnalysisPayload{
		Summary:     analysis.Summary,
		Flags:       analysis.Flags,
		Suggestions: analysis.Suggestions,
	})
}

func writeEstimateError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrEstimateInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrEstimateUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("suggester_unavailable", "estimate provider unavailable", http.StatusBadGateway))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("estimate_error", "failed to process estimate request", http.StatusInternalServerError))
	}
}
