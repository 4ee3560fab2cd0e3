package settlement

import (
	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypePaymentRecord     = "OrderPaymentRecord"
	AggregateTypeSettlementSession = "SettlementSession"
)

// Event type constants
const (
	EventTypePaymentApplied      = "PaymentApplied"
	EventTypeSettlementCompleted = "SettlementCompleted"
)

// PaymentAppliedEvent is raised when money is applied against an order
type PaymentAppliedEvent struct {
	shared.BaseDomainEvent
	RecordID        uuid.UUID       `json:"record_id"`
	OrderID         uuid.UUID       `json:"order_id"`
	OrderNumber     string          `json:"order_number"`
	ClientID        uuid.UUID       `json:"client_id"`
	Amount          decimal.Decimal `json:"amount"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	AmountRemaining decimal.Decimal `json:"amount_remaining"`
	Status          PaymentStatus   `json:"status"`
}

// NewPaymentAppliedEvent creates a new PaymentAppliedEvent
func NewPaymentAppliedEvent(record *OrderPaymentRecord, amount decimal.Decimal) *PaymentAppliedEvent {
	return &PaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentApplied, AggregateTypePaymentRecord, record.ID),
		RecordID:        record.ID,
		OrderID:         record.OrderID,
		OrderNumber:     record.OrderNumber,
		ClientID:        record.ClientID,
		Amount:          amount,
		AmountPaid:      record.AmountPaid,
		AmountRemaining: record.AmountRemaining(),
		Status:          record.Status,
	}
}

// EventType returns the event type name
func (e *PaymentAppliedEvent) EventType() string {
	return EventTypePaymentApplied
}

// SettlementCompletedEvent is raised when a settlement session is finalized
type SettlementCompletedEvent struct {
	shared.BaseDomainEvent
	SessionID        uuid.UUID       `json:"session_id"`
	ClientID         uuid.UUID       `json:"client_id"`
	Status           SessionStatus   `json:"status"`
	TotalCollectible decimal.Decimal `json:"total_collectible"`
	AmountCollected  decimal.Decimal `json:"amount_collected"`
	OrderCount       int             `json:"order_count"`
}

// NewSettlementCompletedEvent creates a new SettlementCompletedEvent
func NewSettlementCompletedEvent(session *SettlementSession) *SettlementCompletedEvent {
	return &SettlementCompletedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeSettlementCompleted, AggregateTypeSettlementSession, session.ID),
		SessionID:        session.ID,
		ClientID:         session.ClientID,
		Status:           session.Status,
		TotalCollectible: session.TotalCollectible,
		AmountCollected:  session.AmountCollected,
		OrderCount:       len(session.ConsideredOrderIDs),
	}
}

// EventType returns the event type name
func (e *SettlementCompletedEvent) EventType() string {
	return EventTypeSettlementCompleted
}
