package services

import (
	"context"

	domain "github.com/fullservice-mx/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	SortOrder          = domain.SortOrder
	OrderStatus        = domain.OrderStatus
	Customer           = domain.Customer
	Vehicle            = domain.Vehicle
	LineItem           = domain.LineItem
	Totals             = domain.Totals
	Checklist          = domain.Checklist
	ServiceOrder       = domain.ServiceOrder
	CatalogEntry       = domain.CatalogEntry
	EstimateSuggestion = domain.EstimateSuggestion
	ServiceAnalysis    = domain.ServiceAnalysis
)

// OrderService owns the service-order lifecycle from draft creation through
// the terminal persisted state.
type OrderService interface {
	CreateDraft(ctx context.Context) (ServiceOrder, error)
	ApplyVehicleInfo(order ServiceOrder, customer Customer, vehicle Vehicle) ServiceOrder
	ApplyChecklist(order ServiceOrder, checklist Checklist) ServiceOrder
	ApplyEstimate(order ServiceOrder, items []LineItem, discountPercent float64) ServiceOrder
	ApplySignature(order ServiceOrder, signature string) ServiceOrder
	Commit(ctx context.Context, order ServiceOrder) (ServiceOrder, error)
	GetOrder(ctx context.Context, orderID string) (ServiceOrder, error)
	ListOrders(ctx context.Context, filter OrderListFilter) ([]ServiceOrder, error)
}

// OrderListFilter controls ordering for order listings. Zero value lists
// newest first.
type OrderListFilter struct {
	Direction SortOrder
	Limit     int
}

// CatalogService exposes the fixed service catalog used to prefill line items.
type CatalogService interface {
	Entries() []CatalogEntry
	Prefill(name string) LineItem
}

// EstimateSuggester produces a suggested cost breakdown from either explicit
// cost figures or vehicle intake data, depending on the variant configured.
type EstimateSuggester interface {
	Suggest(ctx context.Context, req EstimateRequest) (EstimateSuggestion, error)
}

// ServiceAnalyzer derives advisory flags and follow-up suggestions from
// intake data.
type ServiceAnalyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest) (ServiceAnalysis, error)
}

// EstimateFigures is the numeric input shape for estimate suggestions.
type EstimateFigures struct {
	LaborHours      float64
	HourlyRate      float64
	PartsCost       float64
	SuppliesCost    float64
	DiscountPercent float64
}

// EstimateRequest carries either explicit figures or vehicle intake data.
// When Figures is set it takes precedence over the vehicle fields.
type EstimateRequest struct {
	Figures *EstimateFigures

	VehicleMake      string
	VehicleModel     string
	VehicleYear      int
	SelectedServices string
	ChecklistNotes   string
}

// AnalysisRequest carries the intake data inspected by the advisory analyzer.
type AnalysisRequest struct {
	Description string
	Kilometers  int
	Year        int
	VisitReason string
}
