package event

import (
	"github.com/orderflow/backend/internal/domain/settlement"
	"github.com/orderflow/backend/internal/domain/workflow"
)

// RegisterAllEvents registers all domain event types with the serializer
// This is required for the OutboxProcessor to deserialize events from the outbox table
func RegisterAllEvents(serializer Serializer) {
	// Workflow domain events
	serializer.Register(workflow.EventTypeOrderCreated, &workflow.OrderCreatedEvent{})
	serializer.Register(workflow.EventTypeOrderStageChanged, &workflow.OrderStageChangedEvent{})
	serializer.Register(workflow.EventTypeReturnRecorded, &workflow.ReturnRecordedEvent{})

	// Settlement domain events
	serializer.Register(settlement.EventTypePaymentApplied, &settlement.PaymentAppliedEvent{})
	serializer.Register(settlement.EventTypeSettlementCompleted, &settlement.SettlementCompletedEvent{})
}
