package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/workflow"
	"github.com/orderflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormWorkflowEventRepository implements WorkflowEventRepository using GORM.
// The workflow_events table is append-only; this repository only ever inserts.
type GormWorkflowEventRepository struct {
	db *gorm.DB
}

// NewGormWorkflowEventRepository creates a new GormWorkflowEventRepository
func NewGormWorkflowEventRepository(db *gorm.DB) *GormWorkflowEventRepository {
	return &GormWorkflowEventRepository{db: db}
}

// Append inserts a workflow event
func (r *GormWorkflowEventRepository) Append(ctx context.Context, event *workflow.WorkflowEvent) error {
	model := models.WorkflowEventModelFromDomain(event)
	return dbFromContext(ctx, r.db).WithContext(ctx).Create(model).Error
}

// FindByOrder returns all events for an order, oldest first
func (r *GormWorkflowEventRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]workflow.WorkflowEvent, error) {
	var eventModels []models.WorkflowEventModel
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("occurred_at ASC").
		Find(&eventModels).Error; err != nil {
		return nil, err
	}

	events := make([]workflow.WorkflowEvent, len(eventModels))
	for i := range eventModels {
		events[i] = *eventModels[i].ToDomain()
	}
	return events, nil
}

// CountByOrder counts events for an order
func (r *GormWorkflowEventRepository) CountByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&models.WorkflowEventModel{}).
		Where("order_id = ?", orderID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormWorkflowEventRepository implements WorkflowEventRepository
var _ workflow.WorkflowEventRepository = (*GormWorkflowEventRepository)(nil)
