package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/settlement"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentRecordModel is the persistence model for the OrderPaymentRecord
// aggregate root. Exactly one row exists per delivered order.
type PaymentRecordModel struct {
	AggregateModel
	OrderID       uuid.UUID                `gorm:"type:uuid;not null;uniqueIndex"`
	OrderNumber   string                   `gorm:"type:varchar(50);not null"`
	ClientID      uuid.UUID                `gorm:"type:uuid;not null;index:idx_payment_records_client_status"`
	OrderDate     time.Time                `gorm:"not null;index"`
	OrderTotal    decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	AmountPaid    decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	CreditApplied decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	Status        settlement.PaymentStatus `gorm:"type:varchar(20);not null;default:'UNPAID';index:idx_payment_records_client_status"`
	DueDate       *time.Time
	Method        string `gorm:"type:varchar(50)"`
	Reference     string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (PaymentRecordModel) TableName() string {
	return "order_payment_records"
}

// ToDomain converts the persistence model to a domain OrderPaymentRecord entity.
func (m *PaymentRecordModel) ToDomain() *settlement.OrderPaymentRecord {
	return &settlement.OrderPaymentRecord{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		OrderID:       m.OrderID,
		OrderNumber:   m.OrderNumber,
		ClientID:      m.ClientID,
		OrderDate:     m.OrderDate,
		OrderTotal:    m.OrderTotal,
		AmountPaid:    m.AmountPaid,
		CreditApplied: m.CreditApplied,
		Status:        m.Status,
		DueDate:       m.DueDate,
		Method:        m.Method,
		Reference:     m.Reference,
	}
}

// FromDomain populates the persistence model from a domain OrderPaymentRecord entity.
func (m *PaymentRecordModel) FromDomain(r *settlement.OrderPaymentRecord) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.OrderID = r.OrderID
	m.OrderNumber = r.OrderNumber
	m.ClientID = r.ClientID
	m.OrderDate = r.OrderDate
	m.OrderTotal = r.OrderTotal
	m.AmountPaid = r.AmountPaid
	m.CreditApplied = r.CreditApplied
	m.Status = r.Status
	m.DueDate = r.DueDate
	m.Method = r.Method
	m.Reference = r.Reference
}

// PaymentRecordModelFromDomain creates a new persistence model from a domain OrderPaymentRecord entity.
func PaymentRecordModelFromDomain(r *settlement.OrderPaymentRecord) *PaymentRecordModel {
	m := &PaymentRecordModel{}
	m.FromDomain(r)
	return m
}

// PaymentTransactionModel is the persistence model for the append-only
// payment transaction ledger. Rows are inserted once, never updated or deleted.
type PaymentTransactionModel struct {
	ID              uuid.UUID                  `gorm:"type:uuid;primary_key"`
	ClientID        uuid.UUID                  `gorm:"type:uuid;not null;index"`
	TransactionType settlement.TransactionType `gorm:"type:varchar(30);not null"`
	Amount          decimal.Decimal            `gorm:"type:decimal(18,4);not null"`
	OrderID         *uuid.UUID                 `gorm:"type:uuid;index"`
	SettlementID    *uuid.UUID                 `gorm:"type:uuid;index"`
	ReturnID        *uuid.UUID                 `gorm:"type:uuid"`
	Description     string                     `gorm:"type:varchar(500)"`
	TransactionDate time.Time                  `gorm:"not null;index"`
	CreatedAt       time.Time                  `gorm:"not null"`
	UpdatedAt       time.Time                  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentTransactionModel) TableName() string {
	return "payment_transactions"
}

// ToDomain converts the persistence model to a domain PaymentTransaction entity.
func (m *PaymentTransactionModel) ToDomain() *settlement.PaymentTransaction {
	return &settlement.PaymentTransaction{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ClientID:        m.ClientID,
		TransactionType: m.TransactionType,
		Amount:          m.Amount,
		OrderID:         m.OrderID,
		SettlementID:    m.SettlementID,
		ReturnID:        m.ReturnID,
		Description:     m.Description,
		TransactionDate: m.TransactionDate,
	}
}

// FromDomain populates the persistence model from a domain PaymentTransaction entity.
func (m *PaymentTransactionModel) FromDomain(t *settlement.PaymentTransaction) {
	m.ID = t.ID
	m.ClientID = t.ClientID
	m.TransactionType = t.TransactionType
	m.Amount = t.Amount
	m.OrderID = t.OrderID
	m.SettlementID = t.SettlementID
	m.ReturnID = t.ReturnID
	m.Description = t.Description
	m.TransactionDate = t.TransactionDate
	m.CreatedAt = t.CreatedAt
	m.UpdatedAt = t.UpdatedAt
}

// PaymentTransactionModelFromDomain creates a new persistence model from a domain PaymentTransaction entity.
func PaymentTransactionModelFromDomain(t *settlement.PaymentTransaction) *PaymentTransactionModel {
	m := &PaymentTransactionModel{}
	m.FromDomain(t)
	return m
}

// ClientBalanceModel is the persistence model for the ClientBalance aggregate
// root. One row per client; current_balance caches the signed ledger sum.
type ClientBalanceModel struct {
	AggregateModel
	ClientID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	CurrentBalance  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0;index"`
	TotalDebt       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalCredit     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	LastPaymentDate *time.Time
	LastOrderDate   *time.Time
}

// TableName returns the table name for GORM
func (ClientBalanceModel) TableName() string {
	return "client_balances"
}

// ToDomain converts the persistence model to a domain ClientBalance entity.
func (m *ClientBalanceModel) ToDomain() *settlement.ClientBalance {
	return &settlement.ClientBalance{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		ClientID:        m.ClientID,
		CurrentBalance:  m.CurrentBalance,
		TotalDebt:       m.TotalDebt,
		TotalCredit:     m.TotalCredit,
		LastPaymentDate: m.LastPaymentDate,
		LastOrderDate:   m.LastOrderDate,
	}
}

// FromDomain populates the persistence model from a domain ClientBalance entity.
func (m *ClientBalanceModel) FromDomain(b *settlement.ClientBalance) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.ClientID = b.ClientID
	m.CurrentBalance = b.CurrentBalance
	m.TotalDebt = b.TotalDebt
	m.TotalCredit = b.TotalCredit
	m.LastPaymentDate = b.LastPaymentDate
	m.LastOrderDate = b.LastOrderDate
}

// ClientBalanceModelFromDomain creates a new persistence model from a domain ClientBalance entity.
func ClientBalanceModelFromDomain(b *settlement.ClientBalance) *ClientBalanceModel {
	m := &ClientBalanceModel{}
	m.FromDomain(b)
	return m
}

// SettlementSessionModel is the persistence model for the SettlementSession
// aggregate root. The considered order set is stored as a JSONB array so the
// session stays a faithful snapshot even after records change.
type SettlementSessionModel struct {
	AggregateModel
	ClientID           uuid.UUID                `gorm:"type:uuid;not null;index"`
	OriginOrderID      *uuid.UUID               `gorm:"type:uuid;index"`
	DriverID           *uuid.UUID               `gorm:"type:uuid;index"`
	ConsideredOrderIDs []byte                   `gorm:"type:jsonb"`
	TotalCollectible   decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	AmountCollected    decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	Method             string                   `gorm:"type:varchar(50)"`
	Reference          string                   `gorm:"type:varchar(100)"`
	Notes              string                   `gorm:"type:text"`
	Status             settlement.SessionStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	SettledAt          time.Time                `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (SettlementSessionModel) TableName() string {
	return "settlement_sessions"
}

// ToDomain converts the persistence model to a domain SettlementSession entity.
func (m *SettlementSessionModel) ToDomain() *settlement.SettlementSession {
	session := &settlement.SettlementSession{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		ClientID:         m.ClientID,
		OriginOrderID:    m.OriginOrderID,
		DriverID:         m.DriverID,
		TotalCollectible: m.TotalCollectible,
		AmountCollected:  m.AmountCollected,
		Method:           m.Method,
		Reference:        m.Reference,
		Notes:            m.Notes,
		Status:           m.Status,
		SettledAt:        m.SettledAt,
	}
	if len(m.ConsideredOrderIDs) > 0 {
		var ids []uuid.UUID
		if err := json.Unmarshal(m.ConsideredOrderIDs, &ids); err == nil {
			session.ConsideredOrderIDs = ids
		}
	}
	return session
}

// FromDomain populates the persistence model from a domain SettlementSession entity.
func (m *SettlementSessionModel) FromDomain(s *settlement.SettlementSession) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.ClientID = s.ClientID
	m.OriginOrderID = s.OriginOrderID
	m.DriverID = s.DriverID
	m.TotalCollectible = s.TotalCollectible
	m.AmountCollected = s.AmountCollected
	m.Method = s.Method
	m.Reference = s.Reference
	m.Notes = s.Notes
	m.Status = s.Status
	m.SettledAt = s.SettledAt
	m.ConsideredOrderIDs = nil
	if len(s.ConsideredOrderIDs) > 0 {
		if payload, err := json.Marshal(s.ConsideredOrderIDs); err == nil {
			m.ConsideredOrderIDs = payload
		}
	}
}

// SettlementSessionModelFromDomain creates a new persistence model from a domain SettlementSession entity.
func SettlementSessionModelFromDomain(s *settlement.SettlementSession) *SettlementSessionModel {
	m := &SettlementSessionModel{}
	m.FromDomain(s)
	return m
}
