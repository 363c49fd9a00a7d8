package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/fullservice-mx/api/internal/domain"
	"github.com/fullservice-mx/api/internal/export"
	"github.com/fullservice-mx/api/internal/platform/httpx"
	"github.com/fullservice-mx/api/internal/platform/textutil"
	"github.com/fullservice-mx/api/internal/services"
)

const (
	defaultOrderPageSize = 20
	maxOrderPageSize     = 100
	maxOrderBodySize     = 256 * 1024
)

// OrderHandlers exposes the service-order reception endpoints.
type OrderHandlers struct {
	orders    services.OrderService
	renderer  *export.PDFRenderer
	validator *RequestValidator
}

// NewOrderHandlers constructs a new OrderHandlers instance.
func NewOrderHandlers(orders services.OrderService, renderer *export.PDFRenderer, validator *RequestValidator) *OrderHandlers {
	if renderer == nil {
		renderer = export.NewPDFRenderer()
	}
	return &OrderHandlers{
		orders:    orders,
		renderer:  renderer,
		validator: validator,
	}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/draft", h.createDraft)
	r.Post("/", h.commitOrder)
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)
	r.Get("/{orderID}/pdf", h.exportPDF)
	r.Get("/{orderID}/share", h.shareOrder)
}

type customerPayload struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
}

type vehiclePayload struct {
	VIN               string `json:"vin" validate:"required,vinlen"`
	Make              string `json:"make" validate:"required"`
	Model             string `json:"model" validate:"required"`
	Year              int    `json:"year" validate:"required,gte=1900,lte=2100"`
	KnownIssues       string `json:"known_issues,omitempty"`
	RequestedServices string `json:"requested_services,omitempty"`
}

type checklistPayload struct {
	States map[string]string `json:"states"`
	Notes  string            `json:"notes,omitempty"`
}

type lineItemPayload struct {
	ID         string  `json:"id,omitempty"`
	Name       string  `json:"name" validate:"required"`
	Quantity   int     `json:"quantity" validate:"gte=1"`
	UnitPrice  float64 `json:"unit_price" validate:"gte=0"`
	LaborHours float64 `json:"labor_hours" validate:"gte=0"`
}

type totalsPayload struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	TaxAmount      float64 `json:"tax_amount"`
	Total          float64 `json:"total"`
}

type createDraftRequest struct {
	Customer *customerPayload `json:"customer"`
	Vehicle  *vehiclePayload  `json:"vehicle"`
}

type commitOrderRequest struct {
	Folio           string            `json:"folio" validate:"required"`
	OrderDate       string            `json:"order_date" validate:"required"`
	Customer        customerPayload   `json:"customer"`
	Vehicle         vehiclePayload    `json:"vehicle"`
	Checklist       checklistPayload  `json:"checklist"`
	LineItems       []lineItemPayload `json:"line_items" validate:"required,min=1,dive"`
	DiscountPercent float64           `json:"discount_percent" validate:"gte=0,lte=100"`
	Signature       string            `json:"signature" validate:"required"`
}

type orderResponse struct {
	Order orderPayload `json:"order"`
}

type orderListResponse struct {
	Items []orderPayload `json:"items"`
}

type orderPayload struct {
	ID              string            `json:"id,omitempty"`
	Folio           string            `json:"folio"`
	OrderDate       string            `json:"order_date"`
	Customer        customerPayload   `json:"customer"`
	Vehicle         vehiclePayload    `json:"vehicle"`
	Checklist       checklistPayload  `json:"checklist"`
	LineItems       []lineItemPayload `json:"line_items"`
	DiscountPercent float64           `json:"discount_percent"`
	Totals          totalsPayload     `json:"totals"`
	Signature       string            `json:"signature,omitempty"`
	Status          string            `json:"status"`
	CreatedAt       string            `json:"created_at,omitempty"`
}

type shareResponse struct {
	Message  string `json:"message"`
	Link     string `json:"link"`
	FileName string `json:"file_name"`
}

func (h *OrderHandlers) createDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req createDraftRequest
	if err := decodeJSONBody(r, maxOrderBodySize, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeBodyError(ctx, w, err)
		return
	}
	if req.Customer != nil || req.Vehicle != nil {
		if err := h.validator.Struct(req); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
			return
		}
	}

	order, err := h.orders.CreateDraft(ctx)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	if req.Customer != nil || req.Vehicle != nil {
		var customer customerPayload
		var vehicle vehiclePayload
		if req.Customer != nil {
			customer = *req.Customer
		}
		if req.Vehicle != nil {
			vehicle = *req.Vehicle
		}
		order = h.orders.ApplyVehicleInfo(order, toCustomer(customer), toVehicle(vehicle))
	}

	writeJSONResponse(w, http.StatusCreated, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) commitOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req commitOrderRequest
	if err := decodeJSONBody(r, maxOrderBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	checklist, err := buildChecklist(req.Checklist)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	order := services.ServiceOrder{
		Folio:     strings.TrimSpace(req.Folio),
		OrderDate: strings.TrimSpace(req.OrderDate),
		Status:    domain.OrderStatusDraft,
	}
	order = h.orders.ApplyVehicleInfo(order, toCustomer(req.Customer), toVehicle(req.Vehicle))
	order = h.orders.ApplyChecklist(order, checklist)
	order = h.orders.ApplyEstimate(order, toLineItems(req.LineItems), req.DiscountPercent)
	order = h.orders.ApplySignature(order, strings.TrimSpace(req.Signature))

	saved, err := h.orders.Commit(ctx, order)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, orderResponse{Order: buildOrderPayload(saved)})
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()

	direction := domain.SortDesc
	switch strings.ToLower(strings.TrimSpace(query.Get("direction"))) {
	case "", "desc":
	case "asc":
		direction = domain.SortAsc
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "direction must be asc or desc", http.StatusBadRequest))
		return
	}

	limit := defaultOrderPageSize
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be an integer", http.StatusBadRequest))
			return
		}
		switch {
		case parsed <= 0:
			limit = defaultOrderPageSize
		case parsed > maxOrderPageSize:
			limit = maxOrderPageSize
		default:
			limit = parsed
		}
	}

	orders, err := h.orders.ListOrders(ctx, services.OrderListFilter{Direction: direction, Limit: limit})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	items := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		items = append(items, buildOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, orderListResponse{Items: items})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	order, ok := h.loadOrder(ctx, w, r)
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) exportPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	order, ok := h.loadOrder(ctx, w, r)
	if !ok {
		return
	}

	document, err := h.renderer.Render(order)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("pdf_render_failed", "unable to render order document", http.StatusInternalServerError))
		return
	}

	fileName := export.PDFFileName(order.Folio)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(document)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(document)
}

func (h *OrderHandlers) shareOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	order, ok := h.loadOrder(ctx, w, r)
	if !ok {
		return
	}

	message := export.BuildShareMessage(order)
	writeJSONResponse(w, http.StatusOK, shareResponse{
		Message:  message,
		Link:     export.ShareLink(order.Customer.Phone, message),
		FileName: export.PDFFileName(order.Folio),
	})
}

func (h *OrderHandlers) loadOrder(ctx context.Context, w http.ResponseWriter, r *http.Request) (services.ServiceOrder, bool) {
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return services.ServiceOrder{}, false
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return services.ServiceOrder{}, false
	}

	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return services.ServiceOrder{}, false
	}
	return order, true
}

func buildChecklist(payload checklistPayload) (domain.Checklist, error) {
	checklist := domain.NewChecklist()
	for category, state := range textutil.NormalizeStringMap(payload.States) {
		next, err := checklist.SetState(domain.ChecklistCategory(category), domain.ChecklistState(state))
		if err != nil {
			return domain.Checklist{}, err
		}
		checklist = next
	}
	if payload.Notes != "" {
		checklist = checklist.SetNotes(payload.Notes)
	}
	return checklist, nil
}

func toCustomer(payload customerPayload) domain.Customer {
	return domain.Customer{
		Name:  strings.TrimSpace(payload.Name),
		Phone: strings.TrimSpace(payload.Phone),
		Email: strings.TrimSpace(payload.Email),
	}
}

func toVehicle(payload vehiclePayload) domain.Vehicle {
	return domain.Vehicle{
		VIN:               strings.ToUpper(strings.TrimSpace(payload.VIN)),
		Make:              strings.TrimSpace(payload.Make),
		Model:             strings.TrimSpace(payload.Model),
		Year:              payload.Year,
		KnownIssues:       strings.TrimSpace(payload.KnownIssues),
		RequestedServices: strings.TrimSpace(payload.RequestedServices),
	}
}

func toLineItems(payloads []lineItemPayload) []domain.LineItem {
	items := make([]domain.LineItem, 0, len(payloads))
	for _, payload := range payloads {
		items = append(items, domain.LineItem{
			ID:         strings.TrimSpace(payload.ID),
			Name:       strings.TrimSpace(payload.Name),
			Quantity:   payload.Quantity,
			UnitPrice:  payload.UnitPrice,
			LaborHours: payload.LaborHours,
		})
	}
	return items
}

func buildOrderPayload(order services.ServiceOrder) orderPayload {
	states := make(map[string]string, len(domain.ChecklistCategories))
	for _, category := range domain.ChecklistCategories {
		states[string(category)] = string(order.Checklist.State(category))
	}

	items := make([]lineItemPayload, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		items = append(items, lineItemPayload{
			ID:         item.ID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			LaborHours: item.LaborHours,
		})
	}

	payload := orderPayload{
		ID:        order.ID,
		Folio:     order.Folio,
		OrderDate: order.OrderDate,
		Customer: customerPayload{
			Name:  order.Customer.Name,
			Phone: order.Customer.Phone,
			Email: order.Customer.Email,
		},
		Vehicle: vehiclePayload{
			VIN:               order.Vehicle.VIN,
			Make:              order.Vehicle.Make,
			Model:             order.Vehicle.Model,
			Year:              order.Vehicle.Year,
			KnownIssues:       order.Vehicle.KnownIssues,
			RequestedServices: order.Vehicle.RequestedServices,
		},
		Checklist: checklistPayload{
			States: states,
			Notes:  order.Checklist.Notes,
		},
		LineItems:       items,
		DiscountPercent: order.DiscountPercent,
		Totals: totalsPayload{
			Subtotal:       order.Totals.Subtotal,
			DiscountAmount: order.Totals.DiscountAmount,
			TaxAmount:      order.Totals.TaxAmount,
			Total:          order.Totals.Total,
		},
		Signature: order.Signature,
		Status:    string(order.Status),
	}
	if !order.CreatedAt.IsZero() {
		payload.CreatedAt = order.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return payload
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	case errors.Is(err, errEmptyBody):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrMissingSignature):
		httpx.WriteError(ctx, w, httpx.NewError("missing_signature", "customer signature is required", http.StatusBadRequest))
	case errors.Is(err, services.ErrMissingIdentity):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "folio and order date are required", http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderAlreadySaved):
		httpx.WriteError(ctx, w, httpx.NewError("order_already_saved", "order was already saved", http.StatusConflict))
	case errors.Is(err, services.ErrOrderSaveInFlight):
		httpx.WriteError(ctx, w, httpx.NewError("order_save_in_progress", "a save for this order is already in progress", http.StatusConflict))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("order_store_unavailable", "order store unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to process order request", http.StatusInternalServerError))
	}
}
