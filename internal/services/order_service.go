package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	domain "github.com/fullservice-mx/api/internal/domain"
	"github.com/fullservice-mx/api/internal/repositories"
)

var (
	// ErrOrderInvalidInput indicates the caller supplied invalid order parameters.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrMissingSignature blocks commit when no customer signature was captured.
	ErrMissingSignature = errors.New("order: missing signature")
	// ErrMissingIdentity blocks commit when folio or order date are unset.
	ErrMissingIdentity = errors.New("order: missing identity")
	// ErrOrderAlreadySaved indicates the aggregate already reached its terminal state.
	ErrOrderAlreadySaved = errors.New("order: already saved")
	// ErrOrderSaveInFlight indicates a commit for the same aggregate is outstanding.
	ErrOrderSaveInFlight = errors.New("order: save in progress")
	// ErrOrderNotFound indicates the requested order does not exist.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderUnavailable indicates the order store could not be reached.
	ErrOrderUnavailable = errors.New("order: store unavailable")
)

const folioCounterID = "serviceOrders:folio"

// OrderServiceDeps bundles collaborators required to construct an order service instance.
type OrderServiceDeps struct {
	Orders   repositories.OrderRepository
	Counters repositories.CounterRepository
	Items    *LineItemRegistry
	Clock    func() time.Time
	Logger   *zap.Logger
}

type orderService struct {
	orders   repositories.OrderRepository
	counters repositories.CounterRepository
	items    *LineItemRegistry
	clock    func() time.Time
	logger   *zap.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewOrderService constructs the service-order lifecycle service.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service: counter repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	items := deps.Items
	if items == nil {
		items = NewLineItemRegistry(LineItemRegistryDeps{Clock: clock})
	}
	return &orderService{
		orders:   deps.Orders,
		counters: deps.Counters,
		items:    items,
		clock:    clock,
		logger:   logger,
		inFlight: make(map[string]struct{}),
	}, nil
}

// CreateDraft allocates a folio from the atomic counter and captures the
// order date once. Both are immutable for the rest of the lifecycle.
func (s *orderService) CreateDraft(ctx context.Context) (ServiceOrder, error) {
	seq, err := s.counters.Next(ctx, folioCounterID, 1)
	if err != nil {
		return ServiceOrder{}, s.mapRepositoryError(err)
	}
	now := s.clock()
	order := ServiceOrder{
		Folio:     fmt.Sprintf("FS-%06d", seq),
		OrderDate: formatLongDate(now),
		Checklist: domain.NewChecklist(),
		Status:    domain.OrderStatusDraft,
		CreatedAt: now,
	}
	s.logger.Debug("order draft created", zap.String("folio", order.Folio))
	return order, nil
}

func (s *orderService) ApplyVehicleInfo(order ServiceOrder, customer Customer, vehicle Vehicle) ServiceOrder {
	order.Customer = customer
	order.Vehicle = vehicle
	return order
}

func (s *orderService) ApplyChecklist(order ServiceOrder, checklist Checklist) ServiceOrder {
	order.Checklist = checklist
	return order
}

// ApplyEstimate replaces the line items and discount wholesale and recomputes
// the totals. Catalog prices are IVA-inclusive.
func (s *orderService) ApplyEstimate(order ServiceOrder, items []LineItem, discountPercent float64) ServiceOrder {
	order.LineItems = cloneLineItems(items)
	order.DiscountPercent = discountPercent
	order.Totals = domain.ComputeTotals(order.LineItems, discountPercent, domain.TotalsOptions{PricesIncludeTax: true})
	return order
}

func (s *orderService) ApplySignature(order ServiceOrder, signature string) ServiceOrder {
	order.Signature = signature
	return order
}

// Commit persists the aggregate exactly once. A second commit for the same
// folio fails while the first is outstanding or after it succeeded.
func (s *orderService) Commit(ctx context.Context, order ServiceOrder) (ServiceOrder, error) {
	if strings.TrimSpace(order.Signature) == "" {
		return ServiceOrder{}, ErrMissingSignature
	}
	if strings.TrimSpace(order.Folio) == "" || strings.TrimSpace(order.OrderDate) == "" {
		return ServiceOrder{}, ErrMissingIdentity
	}
	if order.IsSaved() {
		return ServiceOrder{}, fmt.Errorf("%w: folio %s", ErrOrderAlreadySaved, order.Folio)
	}
	if !order.Checklist.Complete() {
		return ServiceOrder{}, fmt.Errorf("%w: checklist is incomplete", ErrOrderInvalidInput)
	}

	// Every persisted line item carries a unique id; blank ids from the
	// intake payload are assigned here, duplicates never reach the store.
	items, err := s.items.Normalize(order.LineItems)
	if err != nil {
		return ServiceOrder{}, fmt.Errorf("%w: %v", ErrOrderInvalidInput, err)
	}
	order.LineItems = items

	if err := s.acquireCommitLatch(order.Folio); err != nil {
		return ServiceOrder{}, err
	}
	defer s.releaseCommitLatch(order.Folio)

	order.Status = domain.OrderStatusReceived
	id, err := s.orders.Insert(ctx, order)
	if err != nil {
		s.logger.Warn("order commit failed", zap.String("folio", order.Folio), zap.Error(err))
		return ServiceOrder{}, s.mapRepositoryError(err)
	}
	order.ID = id
	s.logger.Info("order committed", zap.String("folio", order.Folio), zap.String("order_id", id))
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (ServiceOrder, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return ServiceOrder{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return ServiceOrder{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) ([]ServiceOrder, error) {
	direction := filter.Direction
	if direction == "" {
		direction = domain.SortDesc
	}
	orders, err := s.orders.List(ctx, repositories.OrderListQuery{
		OrderBy:   "createdAt",
		Direction: direction,
		Limit:     filter.Limit,
	})
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return orders, nil
}

func (s *orderService) acquireCommitLatch(folio string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[folio]; busy {
		return fmt.Errorf("%w: folio %s", ErrOrderSaveInFlight, folio)
	}
	s.inFlight[folio] = struct{}{}
	return nil
}

func (s *orderService) releaseCommitLatch(folio string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, folio)
}

func (s *orderService) mapRepositoryError(err error) error {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %s", ErrOrderNotFound, repoErr.Error())
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %s", ErrOrderUnavailable, repoErr.Error())
		}
	}
	return err
}

func cloneLineItems(items []LineItem) []LineItem {
	if len(items) == 0 {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// formatLongDate renders the es-MX long date form, e.g. "1 de septiembre de 2026".
func formatLongDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
}
