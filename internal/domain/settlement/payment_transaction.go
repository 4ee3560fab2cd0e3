package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionType represents the type of a payment transaction
type TransactionType string

const (
	// TransactionTypePaymentReceived represents money collected from the client (balance increase)
	TransactionTypePaymentReceived TransactionType = "PAYMENT_RECEIVED"
	// TransactionTypeDebtCreated represents deferred payment recorded as debt (balance decrease)
	TransactionTypeDebtCreated TransactionType = "DEBT_CREATED"
	// TransactionTypeDebtForgiven represents waived debt (balance increase)
	TransactionTypeDebtForgiven TransactionType = "DEBT_FORGIVEN"
	// TransactionTypeCreditApplied represents return credit or settlement remainder (balance increase)
	TransactionTypeCreditApplied TransactionType = "CREDIT_APPLIED"
	// TransactionTypeAdjustment represents a manual correction carrying its own sign
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypePaymentReceived,
		TransactionTypeDebtCreated,
		TransactionTypeDebtForgiven,
		TransactionTypeCreditApplied,
		TransactionTypeAdjustment:
		return true
	}
	return false
}

// IsIncrease returns true if this transaction type increases the client balance
func (t TransactionType) IsIncrease() bool {
	switch t {
	case TransactionTypePaymentReceived, TransactionTypeDebtForgiven, TransactionTypeCreditApplied:
		return true
	}
	return false
}

// IsDecrease returns true if this transaction type decreases the client balance
func (t TransactionType) IsDecrease() bool {
	return t == TransactionTypeDebtCreated
}

// PaymentTransaction is an immutable append-only ledger row. Once created,
// transactions are never updated or deleted; corrections are recorded as
// new adjustment rows.
type PaymentTransaction struct {
	shared.BaseEntity
	ClientID        uuid.UUID
	TransactionType TransactionType
	Amount          decimal.Decimal // Positive magnitude; adjustments carry their own sign
	OrderID         *uuid.UUID
	SettlementID    *uuid.UUID
	ReturnID        *uuid.UUID
	Description     string
	TransactionDate time.Time
}

// NewPaymentTransaction creates a new payment transaction
func NewPaymentTransaction(clientID uuid.UUID, txType TransactionType, amount decimal.Decimal) (*PaymentTransaction, error) {
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid payment transaction type")
	}
	if txType != TransactionTypeAdjustment && amount.IsNegative() {
		return nil, shared.ErrNegativeAmount
	}

	return &PaymentTransaction{
		BaseEntity:      shared.NewBaseEntity(),
		ClientID:        clientID,
		TransactionType: txType,
		Amount:          amount,
		TransactionDate: time.Now(),
	}, nil
}

// WithOrder links the transaction to an order
func (t *PaymentTransaction) WithOrder(orderID uuid.UUID) *PaymentTransaction {
	t.OrderID = &orderID
	return t
}

// WithSettlement links the transaction to a settlement session
func (t *PaymentTransaction) WithSettlement(settlementID uuid.UUID) *PaymentTransaction {
	t.SettlementID = &settlementID
	return t
}

// WithReturn links the transaction to an order return
func (t *PaymentTransaction) WithReturn(returnID uuid.UUID) *PaymentTransaction {
	t.ReturnID = &returnID
	return t
}

// WithDescription sets the human-readable description
func (t *PaymentTransaction) WithDescription(description string) *PaymentTransaction {
	t.Description = description
	return t
}

// SignedContribution returns the transaction's contribution to the client
// balance: payment_received, credit_applied and debt_forgiven are positive,
// debt_created is negative, adjustment carries its own sign.
func (t *PaymentTransaction) SignedContribution() decimal.Decimal {
	if t.TransactionType.IsDecrease() {
		return t.Amount.Neg()
	}
	return t.Amount
}

// CreatePaymentReceivedTransaction records money collected from a client
func CreatePaymentReceivedTransaction(clientID uuid.UUID, amount decimal.Decimal) (*PaymentTransaction, error) {
	if amount.IsNegative() {
		return nil, shared.ErrInvalidAmount
	}
	return NewPaymentTransaction(clientID, TransactionTypePaymentReceived, amount)
}

// CreateDebtTransaction records deferred payment as debt against the client
func CreateDebtTransaction(clientID uuid.UUID, amount decimal.Decimal) (*PaymentTransaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidAmount
	}
	return NewPaymentTransaction(clientID, TransactionTypeDebtCreated, amount)
}

// CreateDebtForgivenTransaction records waived debt
func CreateDebtForgivenTransaction(clientID uuid.UUID, amount decimal.Decimal) (*PaymentTransaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidAmount
	}
	return NewPaymentTransaction(clientID, TransactionTypeDebtForgiven, amount)
}

// CreateCreditAppliedTransaction records return credit or a settlement remainder
func CreateCreditAppliedTransaction(clientID uuid.UUID, amount decimal.Decimal) (*PaymentTransaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidAmount
	}
	return NewPaymentTransaction(clientID, TransactionTypeCreditApplied, amount)
}

// CreateAdjustmentTransaction records a manual correction; the amount is
// signed and contributes as-is to the balance
func CreateAdjustmentTransaction(clientID uuid.UUID, signedAmount decimal.Decimal, description string) (*PaymentTransaction, error) {
	if signedAmount.IsZero() {
		return nil, shared.ErrInvalidAmount
	}
	tx, err := NewPaymentTransaction(clientID, TransactionTypeAdjustment, signedAmount)
	if err != nil {
		return nil, err
	}
	return tx.WithDescription(description), nil
}
