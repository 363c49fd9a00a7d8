package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domain "github.com/fullservice-mx/api/internal/domain"
	"github.com/fullservice-mx/api/internal/repositories"
)

type stubRepoError struct {
	notFound    bool
	unavailable bool
}

func (e *stubRepoError) Error() string       { return "stub repository error" }
func (e *stubRepoError) IsNotFound() bool    { return e.notFound }
func (e *stubRepoError) IsConflict() bool    { return false }
func (e *stubRepoError) IsUnavailable() bool { return e.unavailable }

type stubOrderRepository struct {
	mu        sync.Mutex
	insertID  string
	insertErr error
	inserted  []domain.ServiceOrder
	byID      map[string]domain.ServiceOrder
	findErr   error
	listOut   []domain.ServiceOrder
	listErr   error
	lastQuery repositories.OrderListQuery

	insertEntered chan struct{}
	insertRelease chan struct{}
}

func (r *stubOrderRepository) Insert(ctx context.Context, order domain.ServiceOrder) (string, error) {
	if r.insertEntered != nil {
		close(r.insertEntered)
		r.insertEntered = nil
	}
	if r.insertRelease != nil {
		<-r.insertRelease
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return "", r.insertErr
	}
	r.inserted = append(r.inserted, order)
	if r.insertID == "" {
		return "doc-1", nil
	}
	return r.insertID, nil
}

func (r *stubOrderRepository) FindByID(ctx context.Context, orderID string) (domain.ServiceOrder, error) {
	if r.findErr != nil {
		return domain.ServiceOrder{}, r.findErr
	}
	order, ok := r.byID[orderID]
	if !ok {
		return domain.ServiceOrder{}, &stubRepoError{notFound: true}
	}
	return order, nil
}

func (r *stubOrderRepository) List(ctx context.Context, query repositories.OrderListQuery) ([]domain.ServiceOrder, error) {
	r.lastQuery = query
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.listOut, nil
}

type stubCounterRepository struct {
	next    int64
	nextErr error
}

func (r *stubCounterRepository) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	if r.nextErr != nil {
		return 0, r.nextErr
	}
	r.next++
	return r.next, nil
}

func (r *stubCounterRepository) Configure(ctx context.Context, counterID string, cfg repositories.CounterConfig) error {
	return nil
}

func newTestOrderService(t *testing.T, orders *stubOrderRepository, counters *stubCounterRepository) OrderService {
	t.Helper()
	if orders.byID == nil {
		orders.byID = make(map[string]domain.ServiceOrder)
	}
	svc, err := NewOrderService(OrderServiceDeps{
		Orders:   orders,
		Counters: counters,
		Clock:    func() time.Time { return time.Date(2026, time.September, 1, 10, 30, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}
	return svc
}

func signedDraft(t *testing.T, svc OrderService) ServiceOrder {
	t.Helper()
	order, err := svc.CreateDraft(context.Background())
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	order = svc.ApplyVehicleInfo(order, Customer{Name: "Ana Torres", Phone: "5512345678"}, Vehicle{VIN: "1HGBH41JXMN109186", Make: "Nissan", Model: "Versa", Year: 2021})
	order = svc.ApplyEstimate(order, []LineItem{{ID: "li-1", Name: "Cambio de Aceite", Quantity: 1, UnitPrice: 1200}}, 0)
	return svc.ApplySignature(order, "data:image/png;base64,iVBOR")
}

func TestCreateDraftGeneratesFolioAndDate(t *testing.T) {
	t.Parallel()

	svc := newTestOrderService(t, &stubOrderRepository{}, &stubCounterRepository{next: 41})
	order, err := svc.CreateDraft(context.Background())
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	if order.Folio != "FS-000042" {
		t.Fatalf("folio = %q, want FS-000042", order.Folio)
	}
	if order.OrderDate != "1 de septiembre de 2026" {
		t.Fatalf("order date = %q", order.OrderDate)
	}
	if order.Status != domain.OrderStatusDraft {
		t.Fatalf("status = %q, want draft", order.Status)
	}
	if !order.Checklist.Complete() {
		t.Fatalf("checklist not defaulted")
	}
	if order.DiscountPercent != 0 {
		t.Fatalf("discount = %v, want 0", order.DiscountPercent)
	}
}

func TestApplyEstimateRecomputesTotals(t *testing.T) {
	t.Parallel()

	svc := newTestOrderService(t, &stubOrderRepository{}, &stubCounterRepository{})
	order, err := svc.CreateDraft(context.Background())
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	items := []LineItem{
		{ID: "li-1", Name: "Cambio de Aceite", Quantity: 1, UnitPrice: 1200},
		{ID: "li-2", Name: "Rotación de Llantas", Quantity: 1, UnitPrice: 300},
	}
	order = svc.ApplyEstimate(order, items, 10)

	want := domain.ComputeTotals(items, 10, domain.TotalsOptions{PricesIncludeTax: true})
	if order.Totals != want {
		t.Fatalf("totals = %+v, want %+v", order.Totals, want)
	}

	items[0].UnitPrice = 9999
	if order.LineItems[0].UnitPrice != 1200 {
		t.Fatalf("line items aliased to caller slice")
	}
}

func TestCommitValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(ServiceOrder) ServiceOrder
		wantErr error
	}{
		{
			name:    "missing signature",
			mutate:  func(o ServiceOrder) ServiceOrder { o.Signature = " "; return o },
			wantErr: ErrMissingSignature,
		},
		{
			name:    "missing folio",
			mutate:  func(o ServiceOrder) ServiceOrder { o.Folio = ""; return o },
			wantErr: ErrMissingIdentity,
		},
		{
			name:    "missing order date",
			mutate:  func(o ServiceOrder) ServiceOrder { o.OrderDate = ""; return o },
			wantErr: ErrMissingIdentity,
		},
		{
			name:    "already saved",
			mutate:  func(o ServiceOrder) ServiceOrder { o.Status = domain.OrderStatusReceived; return o },
			wantErr: ErrOrderAlreadySaved,
		},
		{
			name:    "incomplete checklist",
			mutate:  func(o ServiceOrder) ServiceOrder { o.Checklist = Checklist{}; return o },
			wantErr: ErrOrderInvalidInput,
		},
		{
			name: "duplicate line item ids",
			mutate: func(o ServiceOrder) ServiceOrder {
				o.LineItems = []LineItem{
					{ID: "li-1", Name: "Cambio de Aceite", Quantity: 1, UnitPrice: 1200},
					{ID: "li-1", Name: "Rotación de Llantas", Quantity: 1, UnitPrice: 300},
				}
				return o
			},
			wantErr: ErrOrderInvalidInput,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := &stubOrderRepository{}
			svc := newTestOrderService(t, repo, &stubCounterRepository{})
			order := tc.mutate(signedDraft(t, svc))
			_, err := svc.Commit(context.Background(), order)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if len(repo.inserted) != 0 {
				t.Fatalf("repository received an insert despite validation failure")
			}
		})
	}
}

func TestCommitPersistsAndTagsOrder(t *testing.T) {
	t.Parallel()

	repo := &stubOrderRepository{insertID: "doc-abc"}
	svc := newTestOrderService(t, repo, &stubCounterRepository{})
	order := signedDraft(t, svc)

	saved, err := svc.Commit(context.Background(), order)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if saved.ID != "doc-abc" {
		t.Fatalf("id = %q, want doc-abc", saved.ID)
	}
	if !saved.IsSaved() {
		t.Fatalf("status = %q, want recibido", saved.Status)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("inserted %d documents, want 1", len(repo.inserted))
	}
	if repo.inserted[0].Status != domain.OrderStatusReceived {
		t.Fatalf("persisted status = %q", repo.inserted[0].Status)
	}
}

func TestCommitAssignsLineItemIDs(t *testing.T) {
	t.Parallel()

	repo := &stubOrderRepository{}
	svc := newTestOrderService(t, repo, &stubCounterRepository{})
	order := signedDraft(t, svc)
	order.LineItems = []LineItem{
		{Name: "Cambio de Aceite", Quantity: 1, UnitPrice: 1200},
		{Name: "Rotación de Llantas", Quantity: 1, UnitPrice: 300},
	}

	saved, err := svc.Commit(context.Background(), order)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if len(repo.inserted) != 1 {
		t.Fatalf("inserted %d documents, want 1", len(repo.inserted))
	}
	persisted := repo.inserted[0].LineItems
	seen := make(map[string]struct{}, len(persisted))
	for i, item := range persisted {
		if item.ID == "" {
			t.Fatalf("persisted item %d has no id", i)
		}
		if _, dup := seen[item.ID]; dup {
			t.Fatalf("persisted item %d reuses id %q", i, item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	if saved.LineItems[0].ID == "" || saved.LineItems[1].ID == "" {
		t.Fatalf("returned order missing assigned ids: %+v", saved.LineItems)
	}
}

func TestCommitAtMostOnceWhileInFlight(t *testing.T) {
	t.Parallel()

	repo := &stubOrderRepository{
		insertEntered: make(chan struct{}),
		insertRelease: make(chan struct{}),
	}
	entered := repo.insertEntered
	svc := newTestOrderService(t, repo, &stubCounterRepository{})
	order := signedDraft(t, svc)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Commit(context.Background(), order)
		done <- err
	}()

	<-entered
	_, err := svc.Commit(context.Background(), order)
	if !errors.Is(err, ErrOrderSaveInFlight) {
		t.Fatalf("second commit err = %v, want ErrOrderSaveInFlight", err)
	}

	close(repo.insertRelease)
	if err := <-done; err != nil {
		t.Fatalf("first commit err = %v", err)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("inserted %d documents, want 1", len(repo.inserted))
	}
}

func TestCommitMapsUnavailableError(t *testing.T) {
	t.Parallel()

	repo := &stubOrderRepository{insertErr: &stubRepoError{unavailable: true}}
	svc := newTestOrderService(t, repo, &stubCounterRepository{})
	order := signedDraft(t, svc)

	_, err := svc.Commit(context.Background(), order)
	if !errors.Is(err, ErrOrderUnavailable) {
		t.Fatalf("err = %v, want ErrOrderUnavailable", err)
	}
}

func TestGetOrder(t *testing.T) {
	t.Parallel()

	repo := &stubOrderRepository{byID: map[string]domain.ServiceOrder{
		"doc-1": {ID: "doc-1", Folio: "FS-000001", Status: domain.OrderStatusReceived},
	}}
	svc := newTestOrderService(t, repo, &stubCounterRepository{})

	order, err := svc.GetOrder(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if order.Folio != "FS-000001" {
		t.Fatalf("folio = %q", order.Folio)
	}

	if _, err := svc.GetOrder(context.Background(), "missing"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("missing id err = %v, want ErrOrderNotFound", err)
	}
	if _, err := svc.GetOrder(context.Background(), "  "); !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("blank id err = %v, want ErrOrderInvalidInput", err)
	}
}

func TestListOrdersDefaultsToNewestFirst(t *testing.T) {
	t.Parallel()

	repo := &stubOrderRepository{listOut: []domain.ServiceOrder{{Folio: "FS-000002"}, {Folio: "FS-000001"}}}
	svc := newTestOrderService(t, repo, &stubCounterRepository{})

	orders, err := svc.ListOrders(context.Background(), OrderListFilter{})
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("orders = %d, want 2", len(orders))
	}
	if repo.lastQuery.OrderBy != "createdAt" || repo.lastQuery.Direction != domain.SortDesc {
		t.Fatalf("query = %+v", repo.lastQuery)
	}
}
