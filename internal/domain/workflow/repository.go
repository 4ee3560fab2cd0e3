package workflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByOrderNumber finds an order by order number
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)

	// FindAll finds all orders with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)

	// FindByClient finds orders for a client
	FindByClient(ctx context.Context, clientID uuid.UUID, filter shared.Filter) ([]Order, error)

	// FindByStage finds orders in a given workflow stage
	FindByStage(ctx context.Context, stage Stage, filter shared.Filter) ([]Order, error)

	// Save creates or updates an order
	Save(ctx context.Context, order *Order) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, order *Order) error

	// Count counts orders with optional filters
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByOrderNumber checks if an order number exists
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)

	// GenerateOrderNumber generates a unique order number
	GenerateOrderNumber(ctx context.Context) (string, error)
}

// WorkflowEventRepository defines the interface for the append-only
// transition audit log. Events are inserted once, never updated or deleted.
type WorkflowEventRepository interface {
	// Append inserts a workflow event
	Append(ctx context.Context, event *WorkflowEvent) error

	// FindByOrder returns all events for an order, oldest first
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]WorkflowEvent, error)

	// CountByOrder counts events for an order
	CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
}

// OrderReturnRepository defines the interface for order return persistence
type OrderReturnRepository interface {
	// FindByID finds a return by ID
	FindByID(ctx context.Context, id uuid.UUID) (*OrderReturn, error)

	// FindByOrder finds all returns recorded against an order
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderReturn, error)

	// FindByClient finds returns for a client
	FindByClient(ctx context.Context, clientID uuid.UUID, filter shared.Filter) ([]OrderReturn, error)

	// Save persists a return; returns are immutable once recorded
	Save(ctx context.Context, ret *OrderReturn) error

	// GetReturnedQuantitiesByOrder returns the total quantity already
	// returned per product for an order. Used to validate that cumulative
	// returns never exceed delivered quantities.
	GetReturnedQuantitiesByOrder(ctx context.Context, orderID uuid.UUID) (map[string]decimal.Decimal, error)

	// GenerateReturnNumber generates a unique return number
	GenerateReturnNumber(ctx context.Context) (string, error)
}
