package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ClientBalance is the per-client materialized summary of the transaction
// log. CurrentBalance is a cache: it must always equal the signed sum of
// the client's payment transactions, and can be repaired at any time with
// RecomputeFrom.
type ClientBalance struct {
	shared.BaseAggregateRoot
	ClientID        uuid.UUID
	CurrentBalance  decimal.Decimal // Signed; negative means the client owes money
	TotalDebt       decimal.Decimal // Historical sum of debt_created amounts
	TotalCredit     decimal.Decimal // Historical sum of credit_applied amounts
	LastPaymentDate *time.Time
	LastOrderDate   *time.Time
}

// NewClientBalance creates a zero balance for a client
func NewClientBalance(clientID uuid.UUID) (*ClientBalance, error) {
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client ID cannot be empty")
	}

	return &ClientBalance{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ClientID:          clientID,
		CurrentBalance:    decimal.Zero,
		TotalDebt:         decimal.Zero,
		TotalCredit:       decimal.Zero,
	}, nil
}

// ApplyTransaction incrementally folds one transaction into the cached
// balance. Used after every ledger insert for low-latency reads.
func (b *ClientBalance) ApplyTransaction(tx *PaymentTransaction) error {
	if tx == nil {
		return shared.NewDomainError("INVALID_TRANSACTION", "Transaction cannot be nil")
	}
	if tx.ClientID != b.ClientID {
		return shared.NewDomainError("INVALID_CLIENT", "Transaction belongs to a different client")
	}

	b.CurrentBalance = b.CurrentBalance.Add(tx.SignedContribution())
	b.fold(tx)
	b.UpdatedAt = time.Now()

	return nil
}

// RecomputeFrom rebuilds the cached balance from the full transaction
// history. Idempotent; safe to run at any time as a repair operation.
func (b *ClientBalance) RecomputeFrom(txs []PaymentTransaction) {
	b.CurrentBalance = decimal.Zero
	b.TotalDebt = decimal.Zero
	b.TotalCredit = decimal.Zero
	b.LastPaymentDate = nil

	for i := range txs {
		tx := &txs[i]
		b.CurrentBalance = b.CurrentBalance.Add(tx.SignedContribution())
		b.fold(tx)
	}
	b.UpdatedAt = time.Now()
}

// RecordOrderDate stamps the most recent order placement for the client
func (b *ClientBalance) RecordOrderDate(orderDate time.Time) {
	b.LastOrderDate = &orderDate
	b.UpdatedAt = time.Now()
}

// HasDebt returns true if the client owes money
func (b *ClientBalance) HasDebt() bool {
	return b.CurrentBalance.IsNegative()
}

// StandingCredit returns the positive portion of the balance
func (b *ClientBalance) StandingCredit() decimal.Decimal {
	if b.CurrentBalance.IsPositive() {
		return b.CurrentBalance
	}
	return decimal.Zero
}

// fold updates the historical totals and last-payment stamp for one transaction
func (b *ClientBalance) fold(tx *PaymentTransaction) {
	switch tx.TransactionType {
	case TransactionTypeDebtCreated:
		b.TotalDebt = b.TotalDebt.Add(tx.Amount)
	case TransactionTypeCreditApplied:
		b.TotalCredit = b.TotalCredit.Add(tx.Amount)
	case TransactionTypePaymentReceived:
		date := tx.TransactionDate
		if b.LastPaymentDate == nil || date.After(*b.LastPaymentDate) {
			b.LastPaymentDate = &date
		}
	}
}
