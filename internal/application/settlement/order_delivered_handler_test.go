package settlement

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared/valueobject"
	"github.com/orderflow/backend/internal/domain/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func deliveredStageEvent(t *testing.T, toStage workflow.Stage) *workflow.OrderStageChangedEvent {
	t.Helper()
	order, err := workflow.NewOrder("ORD-20260301-0001", testClientID, "Bakery Delgado")
	require.NoError(t, err)
	_, err = order.AddItem("Sourdough Loaf", decimal.NewFromInt(10), valueobject.NewMoneyUSDFromFloat(5))
	require.NoError(t, err)

	actor := workflow.Actor{ID: uuid.New(), Role: "driver"}
	return workflow.NewOrderStageChangedEvent(order, workflow.StageOutForDelivery, toStage, actor, "", nil)
}

func TestOrderDeliveredHandler(t *testing.T) {
	t.Run("opens payment record on delivery", func(t *testing.T) {
		recordRepo := new(MockPaymentRecordRepository)
		balanceRepo := new(MockClientBalanceRepository)
		handler := NewOrderDeliveredHandler(recordRepo, balanceRepo, zap.NewNop())

		event := deliveredStageEvent(t, workflow.StageDelivered)
		balance := newBalance(t)

		recordRepo.On("ExistsByOrder", mock.Anything, event.OrderID).Return(false, nil)
		recordRepo.On("Save", mock.Anything, mock.AnythingOfType("*settlement.OrderPaymentRecord")).Return(nil)
		balanceRepo.On("FindOrCreate", mock.Anything, testClientID).Return(balance, nil)
		balanceRepo.On("Save", mock.Anything, balance).Return(nil)

		err := handler.Handle(context.Background(), event)

		require.NoError(t, err)
		recordRepo.AssertExpectations(t)
		require.NotNil(t, balance.LastOrderDate)
	})

	t.Run("skips redelivery when record already exists", func(t *testing.T) {
		recordRepo := new(MockPaymentRecordRepository)
		balanceRepo := new(MockClientBalanceRepository)
		handler := NewOrderDeliveredHandler(recordRepo, balanceRepo, zap.NewNop())

		event := deliveredStageEvent(t, workflow.StageDelivered)
		recordRepo.On("ExistsByOrder", mock.Anything, event.OrderID).Return(true, nil)

		err := handler.Handle(context.Background(), event)

		require.NoError(t, err)
		recordRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("ignores transitions to other stages", func(t *testing.T) {
		recordRepo := new(MockPaymentRecordRepository)
		balanceRepo := new(MockClientBalanceRepository)
		handler := NewOrderDeliveredHandler(recordRepo, balanceRepo, zap.NewNop())

		event := deliveredStageEvent(t, workflow.StageReadyForDelivery)

		err := handler.Handle(context.Background(), event)

		require.NoError(t, err)
		recordRepo.AssertNotCalled(t, "ExistsByOrder", mock.Anything, mock.Anything)
	})

	t.Run("handles only stage change events", func(t *testing.T) {
		recordRepo := new(MockPaymentRecordRepository)
		balanceRepo := new(MockClientBalanceRepository)
		handler := NewOrderDeliveredHandler(recordRepo, balanceRepo, zap.NewNop())

		assert.Equal(t, []string{workflow.EventTypeOrderStageChanged}, handler.EventTypes())
	})
}
