package workflow

import (
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeOrder       = "Order"
	AggregateTypeOrderReturn = "OrderReturn"
)

// Event type constants
const (
	EventTypeOrderCreated      = "OrderCreated"
	EventTypeOrderStageChanged = "OrderStageChanged"
	EventTypeReturnRecorded    = "ReturnRecorded"
)

// OrderCreatedEvent is raised when a new order is placed
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	ClientID    uuid.UUID `json:"client_id"`
	ClientName  string    `json:"client_name"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(order *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		ClientID:        order.ClientID,
		ClientName:      order.ClientName,
	}
}

// EventType returns the event type name
func (e *OrderCreatedEvent) EventType() string {
	return EventTypeOrderCreated
}

// OrderStageChangedEvent is raised on every workflow stage transition.
// Downstream handlers key off FromStage/ToStage: entering DELIVERED creates
// the order's payment record, entering READY_FOR_DELIVERY dispatches a
// production task.
type OrderStageChangedEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID              `json:"order_id"`
	OrderNumber    string                 `json:"order_number"`
	ClientID       uuid.UUID              `json:"client_id"`
	ClientName     string                 `json:"client_name"`
	FromStage      Stage                  `json:"from_stage"`
	ToStage        Stage                  `json:"to_stage"`
	ActorID        uuid.UUID              `json:"actor_id"`
	ActorRole      string                 `json:"actor_role"`
	Note           string                 `json:"note,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	TotalAmount    decimal.Decimal        `json:"total_amount"`
	OrderCreatedAt time.Time              `json:"order_created_at"`
}

// NewOrderStageChangedEvent creates a new OrderStageChangedEvent
func NewOrderStageChangedEvent(order *Order, from, to Stage, actor Actor, note string, metadata map[string]interface{}) *OrderStageChangedEvent {
	return &OrderStageChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStageChanged, AggregateTypeOrder, order.ID),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		ClientID:        order.ClientID,
		ClientName:      order.ClientName,
		FromStage:       from,
		ToStage:         to,
		ActorID:         actor.ID,
		ActorRole:       actor.Role,
		Note:            note,
		Metadata:        metadata,
		TotalAmount:     order.TotalAmount,
		OrderCreatedAt:  order.CreatedAt,
	}
}

// EventType returns the event type name
func (e *OrderStageChangedEvent) EventType() string {
	return EventTypeOrderStageChanged
}

// ReturnRecordedEvent is raised when a return is recorded against an order
type ReturnRecordedEvent struct {
	shared.BaseDomainEvent
	ReturnID     uuid.UUID       `json:"return_id"`
	ReturnNumber string          `json:"return_number"`
	OrderID      uuid.UUID       `json:"order_id"`
	ClientID     uuid.UUID       `json:"client_id"`
	ReturnType   ReturnType      `json:"return_type"`
	TotalCredit  decimal.Decimal `json:"total_credit"`
}

// NewReturnRecordedEvent creates a new ReturnRecordedEvent
func NewReturnRecordedEvent(ret *OrderReturn) *ReturnRecordedEvent {
	return &ReturnRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnRecorded, AggregateTypeOrderReturn, ret.ID),
		ReturnID:        ret.ID,
		ReturnNumber:    ret.ReturnNumber,
		OrderID:         ret.OrderID,
		ClientID:        ret.ClientID,
		ReturnType:      ret.ReturnType,
		TotalCredit:     ret.TotalCredit,
	}
}

// EventType returns the event type name
func (e *ReturnRecordedEvent) EventType() string {
	return EventTypeReturnRecorded
}
