package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the derived payment status of an order
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "UNPAID"
	PaymentStatusPartial  PaymentStatus = "PARTIAL"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusOverpaid PaymentStatus = "OVERPAID"
	PaymentStatusWaived   PaymentStatus = "WAIVED"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPartial, PaymentStatusPaid, PaymentStatusOverpaid, PaymentStatusWaived:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsOutstanding returns true if the order still has money owed against it
func (s PaymentStatus) IsOutstanding() bool {
	return s == PaymentStatusUnpaid || s == PaymentStatusPartial
}

// OrderPaymentRecord tracks what has been paid against a single order.
// AmountPaid is monotonically non-decreasing; corrections are expressed as
// adjustment transactions, never as negative payments. The status is always
// derived from AmountPaid versus OrderTotal.
type OrderPaymentRecord struct {
	shared.BaseAggregateRoot
	OrderID       uuid.UUID
	OrderNumber   string
	ClientID      uuid.UUID
	OrderDate     time.Time // Order creation date, drives FIFO eligibility ordering
	OrderTotal    decimal.Decimal
	AmountPaid    decimal.Decimal
	CreditApplied decimal.Decimal // Cumulative return credit already consumed
	Status        PaymentStatus
	DueDate       *time.Time
	Method        string
	Reference     string
}

// NewOrderPaymentRecord creates a payment record for an order
func NewOrderPaymentRecord(orderID uuid.UUID, orderNumber string, clientID uuid.UUID, orderDate time.Time, orderTotal valueobject.Money) (*OrderPaymentRecord, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order ID cannot be empty")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if orderTotal.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Order total cannot be negative")
	}

	record := &OrderPaymentRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           orderID,
		OrderNumber:       orderNumber,
		ClientID:          clientID,
		OrderDate:         orderDate,
		OrderTotal:        orderTotal.Amount(),
		AmountPaid:        decimal.Zero,
		CreditApplied:     decimal.Zero,
		Status:            PaymentStatusUnpaid,
	}
	record.recomputeStatus()

	return record, nil
}

// AmountRemaining returns max(0, OrderTotal - AmountPaid)
func (r *OrderPaymentRecord) AmountRemaining() decimal.Decimal {
	remaining := r.OrderTotal.Sub(r.AmountPaid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// CanApplyPayment returns true if the record accepts payments
func (r *OrderPaymentRecord) CanApplyPayment() bool {
	return r.Status != PaymentStatusWaived
}

// ApplyPayment adds the amount to AmountPaid and recomputes the status.
// A negative amount fails with INVALID_AMOUNT before any mutation.
func (r *OrderPaymentRecord) ApplyPayment(amount valueobject.Money, method, reference string) error {
	if amount.IsNegative() {
		return shared.ErrInvalidAmount
	}
	if !r.CanApplyPayment() {
		return shared.NewDomainError("INVALID_STATE", "Cannot apply payment to a waived record")
	}

	r.AmountPaid = r.AmountPaid.Add(amount.Amount())
	if method != "" {
		r.Method = method
	}
	if reference != "" {
		r.Reference = reference
	}
	r.recomputeStatus()
	r.UpdatedAt = time.Now()

	return nil
}

// ApplyCredit consumes return credit against the record by lowering the
// order total, floored at zero. The consumed credit accumulates in
// CreditApplied so pending credit stays derivable.
func (r *OrderPaymentRecord) ApplyCredit(credit valueobject.Money) error {
	if credit.IsNegative() {
		return shared.ErrInvalidAmount
	}
	if !r.CanApplyPayment() {
		return shared.NewDomainError("INVALID_STATE", "Cannot apply credit to a waived record")
	}

	newTotal := r.OrderTotal.Sub(credit.Amount())
	if newTotal.IsNegative() {
		newTotal = decimal.Zero
	}
	r.CreditApplied = r.CreditApplied.Add(credit.Amount())
	r.OrderTotal = newTotal
	r.recomputeStatus()
	r.UpdatedAt = time.Now()

	return nil
}

// Waive forgives the remaining amount on the record. The remaining figure
// is frozen by setting the status to WAIVED; the caller records the
// corresponding debt-forgiven transaction.
func (r *OrderPaymentRecord) Waive() (decimal.Decimal, error) {
	if r.Status == PaymentStatusWaived {
		return decimal.Zero, shared.NewDomainError("INVALID_STATE", "Record is already waived")
	}
	remaining := r.AmountRemaining()
	if remaining.IsZero() {
		return decimal.Zero, shared.NewDomainError("INVALID_STATE", "Nothing outstanding to waive")
	}

	r.Status = PaymentStatusWaived
	r.UpdatedAt = time.Now()

	return remaining, nil
}

// SetDueDate sets an optional due date on the record
func (r *OrderPaymentRecord) SetDueDate(dueDate time.Time) {
	r.DueDate = &dueDate
	r.UpdatedAt = time.Now()
}

// recomputeStatus derives the status from paid versus total
func (r *OrderPaymentRecord) recomputeStatus() {
	switch {
	case r.AmountPaid.GreaterThan(r.OrderTotal):
		r.Status = PaymentStatusOverpaid
	case r.AmountPaid.Equal(r.OrderTotal) && r.OrderTotal.IsPositive():
		r.Status = PaymentStatusPaid
	case r.OrderTotal.IsZero() && r.CreditApplied.IsPositive():
		// Fully covered by return credit
		r.Status = PaymentStatusPaid
	case r.AmountPaid.IsPositive():
		r.Status = PaymentStatusPartial
	default:
		r.Status = PaymentStatusUnpaid
	}
}

// GetAmountRemainingMoney returns the remaining amount as Money
func (r *OrderPaymentRecord) GetAmountRemainingMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(r.AmountRemaining())
}
