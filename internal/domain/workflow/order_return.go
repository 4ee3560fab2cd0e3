package workflow

import (
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ReturnType classifies why goods came back
type ReturnType string

const (
	ReturnTypeUnsold          ReturnType = "UNSOLD"
	ReturnTypeQuality         ReturnType = "QUALITY"
	ReturnTypeWrongItem       ReturnType = "WRONG_ITEM"
	ReturnTypeCustomerRequest ReturnType = "CUSTOMER_REQUEST"
	ReturnTypeDamaged         ReturnType = "DAMAGED"
)

// IsValid checks if the return type is valid
func (t ReturnType) IsValid() bool {
	switch t {
	case ReturnTypeUnsold, ReturnTypeQuality, ReturnTypeWrongItem, ReturnTypeCustomerRequest, ReturnTypeDamaged:
		return true
	}
	return false
}

// String returns the string representation of ReturnType
func (t ReturnType) String() string {
	return string(t)
}

// ReturnLineItem represents a returned product line.
// Credit is always ReturnQuantity * UnitPrice at the original sale price.
type ReturnLineItem struct {
	ID             uuid.UUID
	ReturnID       uuid.UUID
	ProductName    string
	ReturnQuantity decimal.Decimal
	UnitPrice      decimal.Decimal
	Condition      string
	Restockable    bool
	CreditAmount   decimal.Decimal
	CreatedAt      time.Time
}

// NewReturnLineItem creates a new return line item
func NewReturnLineItem(returnID uuid.UUID, productName string, returnQuantity decimal.Decimal, unitPrice valueobject.Money, condition string, restockable bool) (*ReturnLineItem, error) {
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if returnQuantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Return quantity must be positive")
	}
	if unitPrice.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	return &ReturnLineItem{
		ID:             uuid.New(),
		ReturnID:       returnID,
		ProductName:    productName,
		ReturnQuantity: returnQuantity,
		UnitPrice:      unitPrice.Amount(),
		Condition:      condition,
		Restockable:    restockable,
		CreditAmount:   returnQuantity.Mul(unitPrice.Amount()),
		CreatedAt:      time.Now(),
	}, nil
}

// OrderReturn records goods coming back against an order.
// Immutable once recorded; a mistaken return is corrected by recording a
// new return with adjusted quantities and a note, never by editing history.
type OrderReturn struct {
	shared.BaseAggregateRoot
	ReturnNumber string
	OrderID      uuid.UUID
	ClientID     uuid.UUID
	ReturnType   ReturnType
	Items        []ReturnLineItem
	TotalCredit  decimal.Decimal
	Note         string
}

// NewOrderReturn creates a new return against an order
func NewOrderReturn(returnNumber string, orderID, clientID uuid.UUID, returnType ReturnType, note string) (*OrderReturn, error) {
	if returnNumber == "" {
		return nil, shared.NewDomainError("INVALID_RETURN_NUMBER", "Return number cannot be empty")
	}
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if !returnType.IsValid() {
		return nil, shared.NewDomainError("INVALID_RETURN_TYPE", "Unknown return type")
	}

	return &OrderReturn{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReturnNumber:      returnNumber,
		OrderID:           orderID,
		ClientID:          clientID,
		ReturnType:        returnType,
		Items:             make([]ReturnLineItem, 0),
		TotalCredit:       decimal.Zero,
		Note:              note,
	}, nil
}

// AddItem adds a returned product line and validates it against the
// quantity still returnable for that product (delivered minus previously
// returned). Exceeding it fails with OVER_RETURN.
func (r *OrderReturn) AddItem(productName string, returnQuantity, returnableQuantity decimal.Decimal, unitPrice valueobject.Money, condition string, restockable bool) (*ReturnLineItem, error) {
	pending := r.returnedQuantity(productName)
	if returnQuantity.Add(pending).GreaterThan(returnableQuantity) {
		return nil, shared.ErrOverReturn
	}

	item, err := NewReturnLineItem(r.ID, productName, returnQuantity, unitPrice, condition, restockable)
	if err != nil {
		return nil, err
	}

	r.Items = append(r.Items, *item)
	r.TotalCredit = ComputeCredit(r.Items)
	r.UpdatedAt = time.Now()

	return item, nil
}

// Record finalizes the return and raises the recorded event
func (r *OrderReturn) Record() error {
	if len(r.Items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Return must contain at least one item")
	}

	r.AddDomainEvent(NewReturnRecordedEvent(r))

	return nil
}

// returnedQuantity sums quantities already on this return for a product
func (r *OrderReturn) returnedQuantity(productName string) decimal.Decimal {
	total := decimal.Zero
	for _, item := range r.Items {
		if item.ProductName == productName {
			total = total.Add(item.ReturnQuantity)
		}
	}
	return total
}

// GetTotalCreditMoney returns the total credit as Money
func (r *OrderReturn) GetTotalCreditMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(r.TotalCredit)
}

// ComputeCredit sums the credit of the given line items.
// The result is never negative: each line's credit is quantity times unit
// price and both are validated non-negative on construction.
func ComputeCredit(items []ReturnLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.CreditAmount)
	}
	return total
}

// AdjustedOrderTotal returns the order total minus the credits of the given
// returns, floored at zero.
func AdjustedOrderTotal(orderTotal decimal.Decimal, returns []OrderReturn) decimal.Decimal {
	adjusted := orderTotal
	for _, ret := range returns {
		adjusted = adjusted.Sub(ret.TotalCredit)
	}
	if adjusted.IsNegative() {
		return decimal.Zero
	}
	return adjusted
}
