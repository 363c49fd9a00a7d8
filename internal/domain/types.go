package domain

import (
	"time"
)

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// OrderStatus enumerates the lifecycle states of a service order.
type OrderStatus string

const (
	// OrderStatusDraft indicates the order is still being assembled by the wizard and has not been persisted.
	OrderStatusDraft OrderStatus = "draft"
	// OrderStatusReceived indicates the order has been signed and persisted to the store. Terminal.
	OrderStatusReceived OrderStatus = "recibido"
)

// Customer captures the contact details collected at reception.
type Customer struct {
	Name  string
	Phone string
	Email string
}

// Vehicle stores the vehicle identification and intake description.
type Vehicle struct {
	VIN               string
	Make              string
	Model             string
	Year              int
	KnownIssues       string
	RequestedServices string
}

// LineItem is a single priced service or part entry. Immutable once added;
// replaced wholesale when the estimate step recommits.
type LineItem struct {
	ID         string
	Name       string
	Quantity   int
	UnitPrice  float64
	LaborHours float64
}

// Totals holds the derived monetary rollup for an order. Never mutated
// directly; recomputed whenever line items or the discount change.
type Totals struct {
	Subtotal       float64
	DiscountAmount float64
	TaxAmount      float64
	Total          float64
}

// ServiceOrder is the aggregate carried across the reception wizard and
// persisted as a single document once signed.
type ServiceOrder struct {
	// ID is the storage-assigned document id, empty until the order is committed.
	ID        string
	Folio     string
	OrderDate string
	Customer  Customer
	Vehicle   Vehicle
	Checklist Checklist
	LineItems []LineItem
	// DiscountPercent is the percentage entered in the estimate step, in [0, 100].
	DiscountPercent float64
	Totals          Totals
	// Signature holds the customer signature as a data URL image payload.
	Signature string
	Status    OrderStatus
	CreatedAt time.Time
}

// IsSaved reports whether the order reached its terminal persisted state.
func (o ServiceOrder) IsSaved() bool {
	return o.Status == OrderStatusReceived
}

// EstimateSuggestion is the normalized output of an estimate suggester,
// independent of which provider produced it.
type EstimateSuggestion struct {
	LaborCost      float64
	PartsCost      float64
	SuppliesCost   float64
	Subtotal       float64
	DiscountAmount float64
	TaxAmount      float64
	Total          float64
}

// ServiceAnalysis summarizes intake data with advisory flags and suggestions.
type ServiceAnalysis struct {
	Summary     string
	Flags       []string
	Suggestions []string
}

// CatalogEntry describes a prefillable service in the fixed catalog.
type CatalogEntry struct {
	Name       string
	UnitPrice  float64
	LaborHours float64
}

const (
	// HealthStatusOK indicates all dependencies are healthy.
	HealthStatusOK = "ok"
	// HealthStatusError indicates the service or a critical dependency is unavailable.
	HealthStatusError = "error"
)
