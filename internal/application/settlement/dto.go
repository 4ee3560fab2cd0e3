package settlement

import (
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/settlement"
	"github.com/shopspring/decimal"
)

// ApplyPaymentRequest is the request to apply money against a single order
type ApplyPaymentRequest struct {
	OrderID          uuid.UUID
	Amount           decimal.Decimal
	Method           string
	Reference        string
	IdempotencyToken string
}

// SettleRequest is the request to run a settlement session for a client
type SettleRequest struct {
	ClientID         uuid.UUID
	AmountCollected  decimal.Decimal
	Method           string
	Reference        string
	Notes            string
	OrderIDs         []uuid.UUID // Optional explicit subset; empty means all outstanding orders
	OriginOrderID    *uuid.UUID
	DriverID         *uuid.UUID
	DeferPayment     bool // Record the outstanding amounts as debt instead of collecting
	IdempotencyToken string
}

// AdjustmentRequest is the request to record a manual balance correction
type AdjustmentRequest struct {
	ClientID    uuid.UUID
	Amount      decimal.Decimal // Signed; contributes as-is to the balance
	Description string
}

// PaymentRecordResponse is the payment state of a single order
type PaymentRecordResponse struct {
	ID              uuid.UUID       `json:"id"`
	OrderID         uuid.UUID       `json:"order_id"`
	OrderNumber     string          `json:"order_number"`
	ClientID        uuid.UUID       `json:"client_id"`
	OrderDate       time.Time       `json:"order_date"`
	OrderTotal      decimal.Decimal `json:"order_total"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	AmountRemaining decimal.Decimal `json:"amount_remaining"`
	CreditApplied   decimal.Decimal `json:"credit_applied"`
	Status          string          `json:"status"`
	DueDate         *time.Time      `json:"due_date,omitempty"`
	Method          string          `json:"method,omitempty"`
	Reference       string          `json:"reference,omitempty"`
}

// SessionResponse is the settlement session representation
type SessionResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ClientID           uuid.UUID       `json:"client_id"`
	OriginOrderID      *uuid.UUID      `json:"origin_order_id,omitempty"`
	DriverID           *uuid.UUID      `json:"driver_id,omitempty"`
	ConsideredOrderIDs []uuid.UUID     `json:"considered_order_ids"`
	TotalCollectible   decimal.Decimal `json:"total_collectible"`
	AmountCollected    decimal.Decimal `json:"amount_collected"`
	Method             string          `json:"method,omitempty"`
	Reference          string          `json:"reference,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	Status             string          `json:"status"`
	SettledAt          time.Time       `json:"settled_at"`
}

// SettleResult is the complete outcome of a settlement session
type SettleResult struct {
	Session             SessionResponse `json:"session"`
	OrdersFullyPaid     []uuid.UUID     `json:"orders_fully_paid"`
	OrdersPartiallyPaid []uuid.UUID     `json:"orders_partially_paid"`
	CreditConsumed      decimal.Decimal `json:"credit_consumed"`
	StandingCreditAdded decimal.Decimal `json:"standing_credit_added"`
	DebtCreated         decimal.Decimal `json:"debt_created"`
	NewBalance          decimal.Decimal `json:"new_balance"`
}

// TransactionResponse is one row of the payment transaction ledger
type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	ClientID        uuid.UUID       `json:"client_id"`
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	SignedAmount    decimal.Decimal `json:"signed_amount"`
	OrderID         *uuid.UUID      `json:"order_id,omitempty"`
	SettlementID    *uuid.UUID      `json:"settlement_id,omitempty"`
	ReturnID        *uuid.UUID      `json:"return_id,omitempty"`
	Description     string          `json:"description,omitempty"`
	TransactionDate time.Time       `json:"transaction_date"`
}

// BalanceResponse is the cached per-client balance view
type BalanceResponse struct {
	ClientID        uuid.UUID       `json:"client_id"`
	CurrentBalance  decimal.Decimal `json:"current_balance"`
	StandingCredit  decimal.Decimal `json:"standing_credit"`
	HasDebt         bool            `json:"has_debt"`
	TotalDebt       decimal.Decimal `json:"total_debt"`
	TotalCredit     decimal.Decimal `json:"total_credit"`
	LastPaymentDate *time.Time      `json:"last_payment_date,omitempty"`
	LastOrderDate   *time.Time      `json:"last_order_date,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ToPaymentRecordResponse converts a payment record to its response representation
func ToPaymentRecordResponse(record *settlement.OrderPaymentRecord) PaymentRecordResponse {
	return PaymentRecordResponse{
		ID:              record.ID,
		OrderID:         record.OrderID,
		OrderNumber:     record.OrderNumber,
		ClientID:        record.ClientID,
		OrderDate:       record.OrderDate,
		OrderTotal:      record.OrderTotal,
		AmountPaid:      record.AmountPaid,
		AmountRemaining: record.AmountRemaining(),
		CreditApplied:   record.CreditApplied,
		Status:          record.Status.String(),
		DueDate:         record.DueDate,
		Method:          record.Method,
		Reference:       record.Reference,
	}
}

// ToPaymentRecordResponses converts a slice of payment records
func ToPaymentRecordResponses(records []settlement.OrderPaymentRecord) []PaymentRecordResponse {
	responses := make([]PaymentRecordResponse, 0, len(records))
	for i := range records {
		responses = append(responses, ToPaymentRecordResponse(&records[i]))
	}
	return responses
}

// ToSessionResponse converts a settlement session to its response representation
func ToSessionResponse(session *settlement.SettlementSession) SessionResponse {
	return SessionResponse{
		ID:                 session.ID,
		ClientID:           session.ClientID,
		OriginOrderID:      session.OriginOrderID,
		DriverID:           session.DriverID,
		ConsideredOrderIDs: session.ConsideredOrderIDs,
		TotalCollectible:   session.TotalCollectible,
		AmountCollected:    session.AmountCollected,
		Method:             session.Method,
		Reference:          session.Reference,
		Notes:              session.Notes,
		Status:             session.Status.String(),
		SettledAt:          session.SettledAt,
	}
}

// ToSessionResponses converts a slice of settlement sessions
func ToSessionResponses(sessions []settlement.SettlementSession) []SessionResponse {
	responses := make([]SessionResponse, 0, len(sessions))
	for i := range sessions {
		responses = append(responses, ToSessionResponse(&sessions[i]))
	}
	return responses
}

// ToTransactionResponse converts a ledger row to its response representation
func ToTransactionResponse(tx *settlement.PaymentTransaction) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID,
		ClientID:        tx.ClientID,
		TransactionType: tx.TransactionType.String(),
		Amount:          tx.Amount,
		SignedAmount:    tx.SignedContribution(),
		OrderID:         tx.OrderID,
		SettlementID:    tx.SettlementID,
		ReturnID:        tx.ReturnID,
		Description:     tx.Description,
		TransactionDate: tx.TransactionDate,
	}
}

// ToTransactionResponses converts a slice of ledger rows
func ToTransactionResponses(txs []settlement.PaymentTransaction) []TransactionResponse {
	responses := make([]TransactionResponse, 0, len(txs))
	for i := range txs {
		responses = append(responses, ToTransactionResponse(&txs[i]))
	}
	return responses
}

// ToBalanceResponse converts a client balance to its response representation
func ToBalanceResponse(balance *settlement.ClientBalance) BalanceResponse {
	return BalanceResponse{
		ClientID:        balance.ClientID,
		CurrentBalance:  balance.CurrentBalance,
		StandingCredit:  balance.StandingCredit(),
		HasDebt:         balance.HasDebt(),
		TotalDebt:       balance.TotalDebt,
		TotalCredit:     balance.TotalCredit,
		LastPaymentDate: balance.LastPaymentDate,
		LastOrderDate:   balance.LastOrderDate,
		UpdatedAt:       balance.UpdatedAt,
	}
}
