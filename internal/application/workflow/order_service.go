package workflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/domain/shared/valueobject"
	"github.com/orderflow/backend/internal/domain/workflow"
	"github.com/orderflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ProductionTaskDispatcher notifies the external production task system
// about orders entering production or becoming ready for delivery.
// Dispatch is best effort: failures are logged and never roll back the
// stage transition.
type ProductionTaskDispatcher interface {
	DispatchProductionTask(ctx context.Context, order *workflow.Order) error
}

// OrderService handles order workflow operations
type OrderService struct {
	orderRepo      workflow.OrderRepository
	eventRepo      workflow.WorkflowEventRepository
	txManager      shared.TransactionManager
	taskDispatcher ProductionTaskDispatcher
	eventPublisher shared.EventPublisher
	metrics        *telemetry.BusinessMetrics
	logger         *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo workflow.OrderRepository,
	eventRepo workflow.WorkflowEventRepository,
	txManager shared.TransactionManager,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		eventRepo: eventRepo,
		txManager: txManager,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetTaskDispatcher sets the production task dispatcher
func (s *OrderService) SetTaskDispatcher(dispatcher ProductionTaskDispatcher) {
	s.taskDispatcher = dispatcher
}

// SetBusinessMetrics sets the business metrics collector
func (s *OrderService) SetBusinessMetrics(metrics *telemetry.BusinessMetrics) {
	s.metrics = metrics
}

// Create places a new order in the ORDER_PLACED stage
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "create")
	defer span.End()

	orderNumber, err := s.orderRepo.GenerateOrderNumber(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	order, err := workflow.NewOrder(orderNumber, req.ClientID, req.ClientName)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	for _, item := range req.Items {
		unitPrice := valueobject.NewMoneyUSD(item.UnitPrice)
		if _, err := order.AddItem(item.ProductName, item.Quantity, unitPrice); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if req.ProductionNotes != "" || req.DeliveryNotes != "" {
		if err := order.UpdateNotes(req.ProductionNotes, req.DeliveryNotes); err != nil {
			return nil, err
		}
	}

	if err := s.orderRepo.Save(ctx, order); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, order.ID.String(),
		telemetry.SpanAttrOrderNumber, order.OrderNumber,
		telemetry.SpanAttrClientID, order.ClientID.String(),
	)

	s.publishEvents(ctx, order)

	if s.metrics != nil {
		s.metrics.RecordOrderWithAmount(ctx, order.ClientID, order.TotalAmount)
	}

	response := ToOrderResponse(order)
	return &response, nil
}

// GetByID retrieves an order by ID
func (s *OrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// GetByOrderNumber retrieves an order by its order number
func (s *OrderService) GetByOrderNumber(ctx context.Context, orderNumber string) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// List retrieves orders with filtering and pagination
func (s *OrderService) List(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}

	if filter.ClientID != nil {
		domainFilter.Filters["client_id"] = *filter.ClientID
	}
	if filter.Stage != nil {
		domainFilter.Filters["stage"] = filter.Stage.String()
	}
	if filter.DriverID != nil {
		domainFilter.Filters["assigned_driver_id"] = *filter.DriverID
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}

	orders, err := s.orderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.orderRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToOrderResponses(orders), total, nil
}

// ListByStage retrieves orders in a given workflow stage
func (s *OrderService) ListByStage(ctx context.Context, stage workflow.Stage, filter OrderListFilter) ([]OrderResponse, int64, error) {
	filter.Stage = &stage
	return s.List(ctx, filter)
}

// Transition moves an order to the target stage. The order and the audit
// event are persisted in one transaction; a concurrent modification of the
// same order fails with STORAGE_CONFLICT and can be retried by the caller.
func (s *OrderService) Transition(ctx context.Context, orderID uuid.UUID, req TransitionRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "transition")
	defer span.End()

	target := workflow.Stage(req.TargetStage)

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	from := order.Stage
	actor := workflow.Actor{ID: req.ActorID, Role: req.ActorRole}
	if err := order.TransitionTo(target, actor, req.Note, req.Metadata); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	auditEvent, err := workflow.NewWorkflowEvent(order.ID, from, target, actor, req.Note, req.Metadata)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
			return err
		}
		return s.eventRepo.Append(ctx, auditEvent)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, order.ID.String(),
		telemetry.SpanAttrOrderStage, order.Stage.String(),
		"from_stage", from.String(),
	)

	if target == workflow.StageInProduction || target == workflow.StageReadyForDelivery {
		s.dispatchProductionTask(ctx, order)
	}

	s.publishEvents(ctx, order)

	response := ToOrderResponse(order)
	return &response, nil
}

// AssignDriver assigns a delivery driver to an order
func (s *OrderService) AssignDriver(ctx context.Context, orderID, driverID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.AssignDriver(driverID); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	response := ToOrderResponse(order)
	return &response, nil
}

// UpdateNotes updates the production and delivery notes on an order
func (s *OrderService) UpdateNotes(ctx context.Context, orderID uuid.UUID, productionNotes, deliveryNotes string) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.UpdateNotes(productionNotes, deliveryNotes); err != nil {
		return nil, err
	}

	if err := s.orderRepo.SaveWithLock(ctx, order); err != nil {
		return nil, err
	}

	response := ToOrderResponse(order)
	return &response, nil
}

// ListEvents returns the transition audit log for an order, oldest first
func (s *OrderService) ListEvents(ctx context.Context, orderID uuid.UUID) ([]WorkflowEventResponse, error) {
	if _, err := s.orderRepo.FindByID(ctx, orderID); err != nil {
		return nil, err
	}

	events, err := s.eventRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return ToWorkflowEventResponses(events), nil
}

// dispatchProductionTask notifies the task system about a stage change it
// cares about. Failures are logged only; the transition already committed.
func (s *OrderService) dispatchProductionTask(ctx context.Context, order *workflow.Order) {
	if s.taskDispatcher == nil {
		return
	}

	if err := s.taskDispatcher.DispatchProductionTask(ctx, order); err != nil {
		s.logger.Warn("production task dispatch failed",
			zap.String("order_id", order.ID.String()),
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
	}
}

// publishEvents publishes pending domain events and clears them.
// Event handling is asynchronous; publish failures are logged only.
func (s *OrderService) publishEvents(ctx context.Context, order *workflow.Order) {
	if s.eventPublisher == nil {
		return
	}

	for _, event := range order.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
		}
	}
	order.ClearDomainEvents()
}
