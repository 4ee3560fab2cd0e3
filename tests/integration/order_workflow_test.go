package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	settlementapp "github.com/orderflow/backend/internal/application/settlement"
	workflowapp "github.com/orderflow/backend/internal/application/workflow"
	"github.com/orderflow/backend/internal/domain/settlement"
	"github.com/orderflow/backend/internal/domain/workflow"
	"github.com/orderflow/backend/internal/infrastructure/event"
	"github.com/orderflow/backend/internal/infrastructure/persistence"
)

// workflowFixture wires the workflow services against a real database the
// same way the server does, with the settlement projection subscribed on
// the in-memory bus.
type workflowFixture struct {
	orderService  *workflowapp.OrderService
	returnService *workflowapp.ReturnService
	recordRepo    settlement.PaymentRecordRepository
	bus           *event.InMemoryEventBus
}

func newWorkflowFixture(t *testing.T, tdb *TestDB) *workflowFixture {
	t.Helper()

	logger := zap.NewNop()

	orderRepo := persistence.NewGormOrderRepository(tdb.DB)
	eventRepo := persistence.NewGormWorkflowEventRepository(tdb.DB)
	returnRepo := persistence.NewGormOrderReturnRepository(tdb.DB)
	recordRepo := persistence.NewGormPaymentRecordRepository(tdb.DB)
	balanceRepo := persistence.NewGormClientBalanceRepository(tdb.DB)
	txManager := persistence.NewGormTransactionManager(tdb.DB)

	bus := event.NewInMemoryEventBus(logger)
	deliveredHandler := settlementapp.NewOrderDeliveredHandler(recordRepo, balanceRepo, logger)
	bus.Subscribe(deliveredHandler, deliveredHandler.EventTypes()...)
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() {
		_ = bus.Stop(context.Background())
	})

	orderService := workflowapp.NewOrderService(orderRepo, eventRepo, txManager, logger)
	orderService.SetEventPublisher(bus)

	returnService := workflowapp.NewReturnService(orderRepo, returnRepo, logger)
	returnService.SetEventPublisher(bus)

	return &workflowFixture{
		orderService:  orderService,
		returnService: returnService,
		recordRepo:    recordRepo,
		bus:           bus,
	}
}

func (f *workflowFixture) createOrder(t *testing.T, clientID uuid.UUID) *workflowapp.OrderResponse {
	t.Helper()

	order, err := f.orderService.Create(context.Background(), workflowapp.CreateOrderRequest{
		ClientID:   clientID,
		ClientName: "Acme Bakery",
		Items: []workflowapp.OrderItemRequest{
			{ProductName: "Sourdough Loaf", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(5)},
			{ProductName: "Baguette", Quantity: decimal.NewFromInt(20), UnitPrice: decimal.NewFromFloat(2.5)},
		},
	})
	require.NoError(t, err)
	return order
}

func (f *workflowFixture) transition(t *testing.T, orderID uuid.UUID, target workflow.Stage) *workflowapp.OrderResponse {
	t.Helper()

	order, err := f.orderService.Transition(context.Background(), orderID, workflowapp.TransitionRequest{
		TargetStage: target.String(),
		ActorID:     uuid.New(),
		ActorRole:   "operator",
	})
	require.NoError(t, err)
	return order
}

func (f *workflowFixture) advanceToDelivered(t *testing.T, orderID uuid.UUID) {
	t.Helper()

	for _, stage := range []workflow.Stage{
		workflow.StageProductionQueue,
		workflow.StageInProduction,
		workflow.StageQualityCheck,
		workflow.StageReadyForDelivery,
		workflow.StageOutForDelivery,
		workflow.StageDelivered,
	} {
		f.transition(t, orderID, stage)
	}
}

func TestOrderLifecycle_PlacedToDelivered(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	fixture := newWorkflowFixture(t, tdb)
	ctx := context.Background()

	clientID := uuid.New()
	order := fixture.createOrder(t, clientID)

	assert.Equal(t, workflow.StageOrderPlaced.String(), order.Stage)
	assert.NotEmpty(t, order.OrderNumber)
	assert.True(t, decimal.NewFromInt(100).Equal(order.TotalAmount),
		"10x5 + 20x2.5 should total 100, got %s", order.TotalAmount)

	fixture.advanceToDelivered(t, order.ID)

	reloaded, err := fixture.orderService.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StageDelivered.String(), reloaded.Stage)
	assert.NotNil(t, reloaded.ProductionStartedAt)
	assert.NotNil(t, reloaded.ProductionCompletedAt)
	assert.NotNil(t, reloaded.DeliveryStartedAt)
	assert.NotNil(t, reloaded.DeliveryCompletedAt)

	// The delivery event opens the payment record via the bus subscription
	record, err := fixture.recordRepo.FindByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, clientID, record.ClientID)
	assert.Equal(t, order.OrderNumber, record.OrderNumber)
	assert.Equal(t, settlement.PaymentStatusUnpaid, record.Status)
	assert.True(t, record.OrderTotal.Equal(order.TotalAmount))

	// Every transition is on the audit log, in order
	events, err := fixture.orderService.ListEvents(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 6)
	assert.Equal(t, workflow.StageOrderPlaced.String(), events[0].FromStage)
	assert.Equal(t, workflow.StageDelivered.String(), events[5].ToStage)
}

func TestOrderWorkflow_ReworkBackEdges(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	fixture := newWorkflowFixture(t, tdb)

	order := fixture.createOrder(t, uuid.New())

	fixture.transition(t, order.ID, workflow.StageProductionQueue)
	fixture.transition(t, order.ID, workflow.StageInProduction)
	fixture.transition(t, order.ID, workflow.StageQualityCheck)

	// Quality rejection sends the order back to production
	rejected := fixture.transition(t, order.ID, workflow.StageInProduction)
	assert.Equal(t, workflow.StageInProduction.String(), rejected.Stage)

	fixture.transition(t, order.ID, workflow.StageQualityCheck)
	fixture.transition(t, order.ID, workflow.StageReadyForDelivery)
	fixture.transition(t, order.ID, workflow.StageOutForDelivery)

	// A failed delivery attempt returns the order to the depot
	failed := fixture.transition(t, order.ID, workflow.StageReadyForDelivery)
	assert.Equal(t, workflow.StageReadyForDelivery.String(), failed.Stage)

	fixture.transition(t, order.ID, workflow.StageOutForDelivery)
	delivered := fixture.transition(t, order.ID, workflow.StageDelivered)
	assert.Equal(t, workflow.StageDelivered.String(), delivered.Stage)
}

func TestOrderWorkflow_RejectsInvalidTransition(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	fixture := newWorkflowFixture(t, tdb)

	order := fixture.createOrder(t, uuid.New())

	_, err := fixture.orderService.Transition(context.Background(), order.ID, workflowapp.TransitionRequest{
		TargetStage: workflow.StageDelivered.String(),
		ActorID:     uuid.New(),
		ActorRole:   "operator",
	})
	require.Error(t, err)

	// The stage must be unchanged after a rejected transition
	reloaded, err := fixture.orderService.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StageOrderPlaced.String(), reloaded.Stage)
}

func TestOrderReturn_RecordedAgainstDeliveredOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	fixture := newWorkflowFixture(t, tdb)
	ctx := context.Background()

	order := fixture.createOrder(t, uuid.New())

	// Returns are rejected before delivery
	_, err := fixture.returnService.Record(ctx, workflowapp.RecordReturnRequest{
		OrderID:    order.ID,
		ReturnType: "DAMAGED",
		Items: []workflowapp.ReturnItemRequest{
			{ProductName: "Sourdough Loaf", ReturnQuantity: decimal.NewFromInt(2), Restockable: true},
		},
	})
	require.Error(t, err)

	fixture.advanceToDelivered(t, order.ID)

	ret, err := fixture.returnService.Record(ctx, workflowapp.RecordReturnRequest{
		OrderID:    order.ID,
		ReturnType: "DAMAGED",
		Note:       "two loaves damaged in transit",
		Items: []workflowapp.ReturnItemRequest{
			{ProductName: "Sourdough Loaf", ReturnQuantity: decimal.NewFromInt(2), Condition: "damaged", Restockable: false},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, ret.ReturnNumber)
	assert.True(t, decimal.NewFromInt(10).Equal(ret.TotalCredit),
		"2 loaves at 5 each should credit 10, got %s", ret.TotalCredit)

	// Returning more than was delivered fails the whole return
	_, err = fixture.returnService.Record(ctx, workflowapp.RecordReturnRequest{
		OrderID:    order.ID,
		ReturnType: "DAMAGED",
		Items: []workflowapp.ReturnItemRequest{
			{ProductName: "Sourdough Loaf", ReturnQuantity: decimal.NewFromInt(9), Restockable: true},
		},
	})
	require.Error(t, err)
}
