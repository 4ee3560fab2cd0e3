package settlement

import (
	"context"
	"fmt"

	"github.com/orderflow/backend/internal/domain/settlement"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/domain/shared/valueobject"
	"github.com/orderflow/backend/internal/domain/workflow"
	"go.uber.org/zap"
)

// OrderDeliveredHandler opens a payment record when an order reaches
// DELIVERED. From that point the order is collectible and participates in
// settlement sessions.
type OrderDeliveredHandler struct {
	recordRepo  settlement.PaymentRecordRepository
	balanceRepo settlement.ClientBalanceRepository
	logger      *zap.Logger
}

// NewOrderDeliveredHandler creates a new handler for order stage changes
func NewOrderDeliveredHandler(
	recordRepo settlement.PaymentRecordRepository,
	balanceRepo settlement.ClientBalanceRepository,
	logger *zap.Logger,
) *OrderDeliveredHandler {
	return &OrderDeliveredHandler{
		recordRepo:  recordRepo,
		balanceRepo: balanceRepo,
		logger:      logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderDeliveredHandler) EventTypes() []string {
	return []string{workflow.EventTypeOrderStageChanged}
}

// Handle processes a stage change and opens the payment record on delivery
func (h *OrderDeliveredHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	stageEvent, ok := event.(*workflow.OrderStageChangedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", workflow.EventTypeOrderStageChanged),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			workflow.EventTypeOrderStageChanged, event.EventType())
	}

	if stageEvent.ToStage != workflow.StageDelivered {
		return nil
	}

	exists, err := h.recordRepo.ExistsByOrder(ctx, stageEvent.OrderID)
	if err != nil {
		return fmt.Errorf("failed to check payment record: %w", err)
	}
	if exists {
		// Redelivery after a failed attempt; the record is already open
		h.logger.Debug("payment record already exists, skipping",
			zap.String("order_id", stageEvent.OrderID.String()),
		)
		return nil
	}

	record, err := settlement.NewOrderPaymentRecord(
		stageEvent.OrderID,
		stageEvent.OrderNumber,
		stageEvent.ClientID,
		stageEvent.OrderCreatedAt,
		valueobject.NewMoneyUSD(stageEvent.TotalAmount),
	)
	if err != nil {
		return fmt.Errorf("failed to create payment record: %w", err)
	}

	if err := h.recordRepo.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to save payment record: %w", err)
	}

	balance, err := h.balanceRepo.FindOrCreate(ctx, stageEvent.ClientID)
	if err != nil {
		return fmt.Errorf("failed to load client balance: %w", err)
	}
	balance.RecordOrderDate(stageEvent.OrderCreatedAt)
	if err := h.balanceRepo.Save(ctx, balance); err != nil {
		return fmt.Errorf("failed to save client balance: %w", err)
	}

	h.logger.Info("payment record opened for delivered order",
		zap.String("order_id", stageEvent.OrderID.String()),
		zap.String("order_number", stageEvent.OrderNumber),
		zap.String("client_id", stageEvent.ClientID.String()),
		zap.String("order_total", stageEvent.TotalAmount.String()),
	)

	return nil
}

// Ensure OrderDeliveredHandler implements shared.EventHandler
var _ shared.EventHandler = (*OrderDeliveredHandler)(nil)
