package workflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/domain/shared/valueobject"
	"github.com/orderflow/backend/internal/domain/workflow"
	"github.com/orderflow/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReturnService handles recording returns against delivered orders
type ReturnService struct {
	orderRepo      workflow.OrderRepository
	returnRepo     workflow.OrderReturnRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewReturnService creates a new ReturnService
func NewReturnService(
	orderRepo workflow.OrderRepository,
	returnRepo workflow.OrderReturnRepository,
	logger *zap.Logger,
) *ReturnService {
	return &ReturnService{
		orderRepo:  orderRepo,
		returnRepo: returnRepo,
		logger:     logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ReturnService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Record records a return against an order. Each line is validated against
// the quantity still returnable for that product: delivered quantity minus
// everything already returned across prior returns. Exceeding it fails the
// whole return with OVER_RETURN and nothing is persisted.
func (s *ReturnService) Record(ctx context.Context, req RecordReturnRequest) (*ReturnResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "return", "record")
	defer span.End()

	order, err := s.orderRepo.FindByID(ctx, req.OrderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if !order.IsDelivered() {
		err := shared.NewDomainError("INVALID_STATE", "Returns can only be recorded against delivered orders")
		telemetry.RecordError(span, err)
		return nil, err
	}

	alreadyReturned, err := s.returnRepo.GetReturnedQuantitiesByOrder(ctx, order.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	returnNumber, err := s.returnRepo.GenerateReturnNumber(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	ret, err := workflow.NewOrderReturn(returnNumber, order.ID, order.ClientID, workflow.ReturnType(req.ReturnType), req.Note)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	for _, item := range req.Items {
		unitPrice, err := s.unitPriceFor(order, item.ProductName)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}

		returnable := order.DeliveredQuantity(item.ProductName).Sub(alreadyReturned[item.ProductName])
		if _, err := ret.AddItem(item.ProductName, item.ReturnQuantity, returnable, unitPrice, item.Condition, item.Restockable); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	if err := ret.Record(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.returnRepo.Save(ctx, ret); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, order.ID.String(),
		"return_number", ret.ReturnNumber,
		"total_credit", ret.TotalCredit.String(),
	)

	s.publishEvents(ctx, ret)

	response := ToReturnResponse(ret)
	return &response, nil
}

// GetByID retrieves a return by ID
func (s *ReturnService) GetByID(ctx context.Context, returnID uuid.UUID) (*ReturnResponse, error) {
	ret, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return nil, err
	}
	response := ToReturnResponse(ret)
	return &response, nil
}

// ListByOrder retrieves all returns recorded against an order
func (s *ReturnService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]ReturnResponse, error) {
	returns, err := s.returnRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToReturnResponses(returns), nil
}

// ListByClient retrieves returns for a client
func (s *ReturnService) ListByClient(ctx context.Context, clientID uuid.UUID, filter shared.Filter) ([]ReturnResponse, error) {
	returns, err := s.returnRepo.FindByClient(ctx, clientID, filter)
	if err != nil {
		return nil, err
	}
	return ToReturnResponses(returns), nil
}

// AdjustedOrderTotal returns the order total minus all recorded return
// credits, floored at zero
func (s *ReturnService) AdjustedOrderTotal(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}

	returns, err := s.returnRepo.FindByOrder(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}

	return workflow.AdjustedOrderTotal(order.TotalAmount, returns), nil
}

// unitPriceFor resolves the original sale price of a product on the order.
// Credit is always computed at the original sale price.
func (s *ReturnService) unitPriceFor(order *workflow.Order, productName string) (valueobject.Money, error) {
	for _, item := range order.Items {
		if item.ProductName == productName {
			return valueobject.NewMoneyUSD(item.UnitPrice), nil
		}
	}
	return valueobject.ZeroUSD(), shared.NewDomainError("PRODUCT_NOT_ON_ORDER", "Product was not delivered on this order")
}

func (s *ReturnService) publishEvents(ctx context.Context, ret *workflow.OrderReturn) {
	if s.eventPublisher == nil {
		return
	}

	for _, event := range ret.GetDomainEvents() {
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Error("failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.String("return_id", ret.ID.String()),
				zap.Error(err),
			)
		}
	}
	ret.ClearDomainEvents()
}
