package workflow

import (
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
)

// WorkflowEvent is the immutable audit record written once per stage
// transition. Rows are never updated or deleted.
type WorkflowEvent struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	FromStage  Stage
	ToStage    Stage
	ActorID    uuid.UUID
	ActorRole  string
	Note       string
	Metadata   map[string]interface{}
	OccurredAt time.Time
}

// NewWorkflowEvent creates a new workflow event for a stage transition
func NewWorkflowEvent(orderID uuid.UUID, from, to Stage, actor Actor, note string, metadata map[string]interface{}) (*WorkflowEvent, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if !to.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSITION", "Unknown target stage")
	}

	return &WorkflowEvent{
		ID:         uuid.New(),
		OrderID:    orderID,
		FromStage:  from,
		ToStage:    to,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Note:       note,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}, nil
}
