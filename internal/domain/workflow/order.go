package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Stage represents the workflow stage of an order
type Stage string

const (
	StageOrderPlaced      Stage = "ORDER_PLACED"
	StageProductionQueue  Stage = "PRODUCTION_QUEUE"
	StageInProduction     Stage = "IN_PRODUCTION"
	StageQualityCheck     Stage = "QUALITY_CHECK"
	StageReadyForDelivery Stage = "READY_FOR_DELIVERY"
	StageOutForDelivery   Stage = "OUT_FOR_DELIVERY"
	StageDelivered        Stage = "DELIVERED"
	StageSettlement       Stage = "SETTLEMENT"
	StageCompleted        Stage = "COMPLETED"
)

// IsValid checks if the stage is a valid Stage
func (s Stage) IsValid() bool {
	switch s {
	case StageOrderPlaced, StageProductionQueue, StageInProduction, StageQualityCheck,
		StageReadyForDelivery, StageOutForDelivery, StageDelivered, StageSettlement, StageCompleted:
		return true
	}
	return false
}

// String returns the string representation of Stage
func (s Stage) String() string {
	return string(s)
}

// CanTransitionTo checks if the stage can transition to the target stage.
// Forward edges follow the production/delivery chain; two backward edges
// exist for quality rework and failed delivery attempts. COMPLETED is terminal.
func (s Stage) CanTransitionTo(target Stage) bool {
	switch s {
	case StageOrderPlaced:
		return target == StageProductionQueue
	case StageProductionQueue:
		return target == StageInProduction
	case StageInProduction:
		return target == StageQualityCheck
	case StageQualityCheck:
		return target == StageReadyForDelivery || target == StageInProduction
	case StageReadyForDelivery:
		return target == StageOutForDelivery
	case StageOutForDelivery:
		return target == StageDelivered || target == StageReadyForDelivery
	case StageDelivered:
		return target == StageSettlement
	case StageSettlement:
		return target == StageCompleted
	case StageCompleted:
		return false
	}
	return false
}

// IsTerminal returns true if the stage has no outgoing edges
func (s Stage) IsTerminal() bool {
	return s == StageCompleted
}

// Actor identifies who requested a workflow operation
type Actor struct {
	ID   uuid.UUID
	Role string
}

// OrderItem represents a line item on an order
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal // Quantity * UnitPrice
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewOrderItem creates a new order line item
func NewOrderItem(orderID uuid.UUID, productName string, quantity decimal.Decimal, unitPrice valueobject.Money) (*OrderItem, error) {
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if unitPrice.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	return &OrderItem{
		ID:          uuid.New(),
		OrderID:     orderID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		Amount:      quantity.Mul(unitPrice.Amount()),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Order represents a unit of client work moving through the workflow.
// The stage is mutated only through TransitionTo; an order in a terminal
// stage is immutable.
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber           string
	ClientID              uuid.UUID
	ClientName            string
	Items                 []OrderItem
	TotalAmount           decimal.Decimal
	Stage                 Stage
	AssignedDriverID      *uuid.UUID
	ProductionNotes       string
	DeliveryNotes         string
	ProductionStartedAt   *time.Time
	ProductionCompletedAt *time.Time
	DeliveryStartedAt     *time.Time
	DeliveryCompletedAt   *time.Time
}

// NewOrder creates a new order in the ORDER_PLACED stage
func NewOrder(orderNumber string, clientID uuid.UUID, clientName string) (*Order, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(orderNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if clientName == "" {
		return nil, shared.NewDomainError("INVALID_CLIENT_NAME", "Client name cannot be empty")
	}

	order := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		ClientID:          clientID,
		ClientName:        clientName,
		Items:             make([]OrderItem, 0),
		TotalAmount:       decimal.Zero,
		Stage:             StageOrderPlaced,
	}

	order.AddDomainEvent(NewOrderCreatedEvent(order))

	return order, nil
}

// AddItem adds a new line item to the order
// Only allowed while the order is still in ORDER_PLACED
func (o *Order) AddItem(productName string, quantity decimal.Decimal, unitPrice valueobject.Money) (*OrderItem, error) {
	if o.Stage != StageOrderPlaced {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items after production has been scheduled")
	}

	item, err := NewOrderItem(o.ID, productName, quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotal()
	o.UpdatedAt = time.Now()

	return item, nil
}

// RemoveItem removes a line item from the order
// Only allowed while the order is still in ORDER_PLACED
func (o *Order) RemoveItem(itemID uuid.UUID) error {
	if o.Stage != StageOrderPlaced {
		return shared.NewDomainError("INVALID_STATE", "Cannot remove items after production has been scheduled")
	}

	for idx, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			o.recalculateTotal()
			o.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("ITEM_NOT_FOUND", "Order item not found")
}

// TransitionTo moves the order to the target stage.
// Stage-specific timestamps are stamped on entry; a stage change event is
// raised for the audit log. The caller persists the order and the workflow
// event in one transaction.
func (o *Order) TransitionTo(target Stage, actor Actor, note string, metadata map[string]interface{}) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Unknown stage %s", target))
	}
	if !o.Stage.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot transition from %s to %s", o.Stage, target))
	}

	from := o.Stage
	now := time.Now()

	switch target {
	case StageInProduction:
		// Rework re-enters production without resetting the original start
		if o.ProductionStartedAt == nil {
			o.ProductionStartedAt = &now
		}
	case StageReadyForDelivery:
		if o.ProductionCompletedAt == nil {
			o.ProductionCompletedAt = &now
		}
	case StageOutForDelivery:
		o.DeliveryStartedAt = &now
	case StageDelivered:
		o.DeliveryCompletedAt = &now
	}

	o.Stage = target
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderStageChangedEvent(o, from, target, actor, note, metadata))

	return nil
}

// AssignDriver assigns a delivery driver to the order
func (o *Order) AssignDriver(driverID uuid.UUID) error {
	if o.Stage.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot assign driver to a completed order")
	}
	if driverID == uuid.Nil {
		return shared.NewDomainError("INVALID_DRIVER", "Driver ID cannot be empty")
	}

	o.AssignedDriverID = &driverID
	o.UpdatedAt = time.Now()

	return nil
}

// UpdateNotes updates the production and delivery notes
func (o *Order) UpdateNotes(productionNotes, deliveryNotes string) error {
	if o.Stage.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot update notes on a completed order")
	}

	o.ProductionNotes = productionNotes
	o.DeliveryNotes = deliveryNotes
	o.UpdatedAt = time.Now()

	return nil
}

// recalculateTotal recalculates the order total from its items
func (o *Order) recalculateTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Amount)
	}
	o.TotalAmount = total
}

// GetTotalAmountMoney returns the order total as Money
func (o *Order) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(o.TotalAmount)
}

// DeliveredQuantity returns the quantity of the named product on this order.
// Used to validate returns against what was actually delivered.
func (o *Order) DeliveredQuantity(productName string) decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		if item.ProductName == productName {
			total = total.Add(item.Quantity)
		}
	}
	return total
}

// IsDelivered returns true if the order has reached DELIVERED or beyond
func (o *Order) IsDelivered() bool {
	return o.DeliveryCompletedAt != nil
}

// IsTerminal returns true if the order is in a terminal stage
func (o *Order) IsTerminal() bool {
	return o.Stage.IsTerminal()
}
