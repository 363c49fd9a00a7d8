package repositories

import (
	"context"

	domain "github.com/fullservice-mx/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OrderRepository persists committed service orders as schemaless documents.
type OrderRepository interface {
	// Insert stores the order and returns the storage-assigned document id.
	Insert(ctx context.Context, order domain.ServiceOrder) (string, error)
	FindByID(ctx context.Context, orderID string) (domain.ServiceOrder, error)
	List(ctx context.Context, query OrderListQuery) ([]domain.ServiceOrder, error)
}

// OrderListQuery controls ordering for order listings.
type OrderListQuery struct {
	OrderBy   string
	Direction domain.SortOrder
	Limit     int
}

// CounterRepository provides atomic monotonically increasing sequences,
// used for folio generation.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
	Configure(ctx context.Context, counterID string, cfg CounterConfig) error
}

// CounterConfig customises a counter's increment behaviour.
type CounterConfig struct {
	Step         int64
	MaxValue     *int64
	InitialValue *int64
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Ping(ctx context.Context) error
}
