package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/fullservice-mx/api/internal/domain"
	pfirestore "github.com/fullservice-mx/api/internal/platform/firestore"
	"github.com/fullservice-mx/api/internal/repositories"
)

const ordersCollection = "serviceOrders"

type customerDocument struct {
	Name  string `firestore:"name"`
	Phone string `firestore:"phone"`
	Email string `firestore:"email,omitempty"`
}

type vehicleDocument struct {
	VIN               string `firestore:"vin"`
	Make              string `firestore:"make"`
	Model             string `firestore:"model"`
	Year              int    `firestore:"year"`
	KnownIssues       string `firestore:"knownIssues,omitempty"`
	RequestedServices string `firestore:"requestedServices,omitempty"`
}

type checklistDocument struct {
	States map[string]string `firestore:"states"`
	Notes  string            `firestore:"notes,omitempty"`
}

type lineItemDocument struct {
	ID         string  `firestore:"id"`
	Name       string  `firestore:"name"`
	Quantity   int     `firestore:"quantity"`
	UnitPrice  float64 `firestore:"unitPrice"`
	LaborHours float64 `firestore:"laborHours"`
}

type totalsDocument struct {
	Subtotal       float64 `firestore:"subtotal"`
	DiscountAmount float64 `firestore:"discountAmount"`
	TaxAmount      float64 `firestore:"taxAmount"`
	Total          float64 `firestore:"total"`
}

type orderDocument struct {
	Folio           string             `firestore:"folio"`
	OrderDate       string             `firestore:"orderDate"`
	Customer        customerDocument   `firestore:"customer"`
	Vehicle         vehicleDocument    `firestore:"vehicle"`
	Checklist       checklistDocument  `firestore:"checklist"`
	LineItems       []lineItemDocument `firestore:"lineItems"`
	DiscountPercent float64            `firestore:"discountPercent"`
	Totals          totalsDocument     `firestore:"totals"`
	Signature       string             `firestore:"signature"`
	Status          string             `firestore:"status"`
	CreatedAt       time.Time          `firestore:"createdAt,serverTimestamp"`
}

// OrderRepository implements repositories.OrderRepository on the serviceOrders collection.
type OrderRepository struct {
	orders *pfirestore.BaseRepository[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection, nil, nil)
	return &OrderRepository{orders: base}, nil
}

// Insert stores the order as a new document and returns the generated id.
// The creation timestamp is assigned server-side.
func (r *OrderRepository) Insert(ctx context.Context, order domain.ServiceOrder) (string, error) {
	if r == nil || r.orders == nil {
		return "", errors.New("order repository not initialised")
	}
	return r.orders.Add(ctx, encodeOrder(order))
}

// FindByID fetches a single order document.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.ServiceOrder, error) {
	if r == nil || r.orders == nil {
		return domain.ServiceOrder{}, errors.New("order repository not initialised")
	}
	doc, err := r.orders.Get(ctx, orderID)
	if err != nil {
		return domain.ServiceOrder{}, err
	}
	return decodeOrder(doc), nil
}

// List returns orders sorted by the requested field and direction.
func (r *OrderRepository) List(ctx context.Context, query repositories.OrderListQuery) ([]domain.ServiceOrder, error) {
	if r == nil || r.orders == nil {
		return nil, errors.New("order repository not initialised")
	}

	orderBy := query.OrderBy
	if orderBy == "" {
		orderBy = "createdAt"
	}
	direction := firestore.Desc
	if query.Direction == domain.SortAsc {
		direction = firestore.Asc
	}

	docs, err := r.orders.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.OrderBy(orderBy, direction)
		if query.Limit > 0 {
			q = q.Limit(query.Limit)
		}
		return q
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.ServiceOrder, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, decodeOrder(doc))
	}
	return orders, nil
}

func encodeOrder(order domain.ServiceOrder) orderDocument {
	states := make(map[string]string, len(order.Checklist.States))
	for category, state := range order.Checklist.States {
		states[string(category)] = string(state)
	}

	items := make([]lineItemDocument, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		items = append(items, lineItemDocument{
			ID:         item.ID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			LaborHours: item.LaborHours,
		})
	}

	return orderDocument{
		Folio:     order.Folio,
		OrderDate: order.OrderDate,
		Customer: customerDocument{
			Name:  order.Customer.Name,
			Phone: order.Customer.Phone,
			Email: order.Customer.Email,
		},
		Vehicle: vehicleDocument{
			VIN:               order.Vehicle.VIN,
			Make:              order.Vehicle.Make,
			Model:             order.Vehicle.Model,
			Year:              order.Vehicle.Year,
			KnownIssues:       order.Vehicle.KnownIssues,
			RequestedServices: order.Vehicle.RequestedServices,
		},
		Checklist: checklistDocument{
			States: states,
			Notes:  order.Checklist.Notes,
		},
		LineItems:       items,
		DiscountPercent: order.DiscountPercent,
		Totals: totalsDocument{
			Subtotal:       order.Totals.Subtotal,
			DiscountAmount: order.Totals.DiscountAmount,
			TaxAmount:      order.Totals.TaxAmount,
			Total:          order.Totals.Total,
		},
		Signature: order.Signature,
		Status:    string(order.Status),
	}
}

func decodeOrder(doc pfirestore.Document[orderDocument]) domain.ServiceOrder {
	data := doc.Data

	states := make(map[domain.ChecklistCategory]domain.ChecklistState, len(data.Checklist.States))
	for category, state := range data.Checklist.States {
		states[domain.ChecklistCategory(category)] = domain.ChecklistState(state)
	}

	items := make([]domain.LineItem, 0, len(data.LineItems))
	for _, item := range data.LineItems {
		items = append(items, domain.LineItem{
			ID:         item.ID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			LaborHours: item.LaborHours,
		})
	}

	createdAt := data.CreatedAt
	if createdAt.IsZero() {
		createdAt = doc.CreateTime
	}

	return domain.ServiceOrder{
		ID:        doc.ID,
		Folio:     data.Folio,
		OrderDate: data.OrderDate,
		Customer: domain.Customer{
			Name:  data.Customer.Name,
			Phone: data.Customer.Phone,
			Email: data.Customer.Email,
		},
		Vehicle: domain.Vehicle{
			VIN:               data.Vehicle.VIN,
			Make:              data.Vehicle.Make,
			Model:             data.Vehicle.Model,
			Year:              data.Vehicle.Year,
			KnownIssues:       data.Vehicle.KnownIssues,
			RequestedServices: data.Vehicle.RequestedServices,
		},
		Checklist: domain.Checklist{
			States: states,
			Notes:  data.Checklist.Notes,
		},
		LineItems:       items,
		DiscountPercent: data.DiscountPercent,
		Totals: domain.Totals{
			Subtotal:       data.Totals.Subtotal,
			DiscountAmount: data.Totals.DiscountAmount,
			TaxAmount:      data.Totals.TaxAmount,
			Total:          data.Totals.Total,
		},
		Signature: data.Signature,
		Status:    domain.OrderStatus(data.Status),
		CreatedAt: createdAt,
	}
}
