package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/domain/workflow"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate root.
type OrderModel struct {
	AggregateModel
	OrderNumber           string           `gorm:"type:varchar(50);not null;uniqueIndex"`
	ClientID              uuid.UUID        `gorm:"type:uuid;not null;index"`
	ClientName            string           `gorm:"type:varchar(200);not null"`
	Items                 []OrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
	TotalAmount           decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	Stage                 workflow.Stage   `gorm:"type:varchar(30);not null;default:'ORDER_PLACED';index"`
	AssignedDriverID      *uuid.UUID       `gorm:"type:uuid;index"`
	ProductionNotes       string           `gorm:"type:text"`
	DeliveryNotes         string           `gorm:"type:text"`
	ProductionStartedAt   *time.Time
	ProductionCompletedAt *time.Time
	DeliveryStartedAt     *time.Time
	DeliveryCompletedAt   *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *workflow.Order {
	order := &workflow.Order{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		OrderNumber:           m.OrderNumber,
		ClientID:              m.ClientID,
		ClientName:            m.ClientName,
		TotalAmount:           m.TotalAmount,
		Stage:                 m.Stage,
		AssignedDriverID:      m.AssignedDriverID,
		ProductionNotes:       m.ProductionNotes,
		DeliveryNotes:         m.DeliveryNotes,
		ProductionStartedAt:   m.ProductionStartedAt,
		ProductionCompletedAt: m.ProductionCompletedAt,
		DeliveryStartedAt:     m.DeliveryStartedAt,
		DeliveryCompletedAt:   m.DeliveryCompletedAt,
		Items:                 make([]workflow.OrderItem, len(m.Items)),
	}
	for i, item := range m.Items {
		order.Items[i] = *item.ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *OrderModel) FromDomain(o *workflow.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.OrderNumber = o.OrderNumber
	m.ClientID = o.ClientID
	m.ClientName = o.ClientName
	m.TotalAmount = o.TotalAmount
	m.Stage = o.Stage
	m.AssignedDriverID = o.AssignedDriverID
	m.ProductionNotes = o.ProductionNotes
	m.DeliveryNotes = o.DeliveryNotes
	m.ProductionStartedAt = o.ProductionStartedAt
	m.ProductionCompletedAt = o.ProductionCompletedAt
	m.DeliveryStartedAt = o.DeliveryStartedAt
	m.DeliveryCompletedAt = o.DeliveryCompletedAt
	m.Items = make([]OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		m.Items[i] = *OrderItemModelFromDomain(&item)
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order entity.
func OrderModelFromDomain(o *workflow.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderItemModel is the persistence model for the OrderItem entity.
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem entity.
func (m *OrderItemModel) ToDomain() *workflow.OrderItem {
	return &workflow.OrderItem{
		ID:          m.ID,
		OrderID:     m.OrderID,
		ProductName: m.ProductName,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		Amount:      m.Amount,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain OrderItem entity.
func (m *OrderItemModel) FromDomain(i *workflow.OrderItem) {
	m.ID = i.ID
	m.OrderID = i.OrderID
	m.ProductName = i.ProductName
	m.Quantity = i.Quantity
	m.UnitPrice = i.UnitPrice
	m.Amount = i.Amount
	m.CreatedAt = i.CreatedAt
	m.UpdatedAt = i.UpdatedAt
}

// OrderItemModelFromDomain creates a new persistence model from a domain OrderItem entity.
func OrderItemModelFromDomain(i *workflow.OrderItem) *OrderItemModel {
	m := &OrderItemModel{}
	m.FromDomain(i)
	return m
}

// WorkflowEventModel is the persistence model for the append-only stage
// transition audit log. Rows are inserted once, never updated or deleted.
type WorkflowEventModel struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key"`
	OrderID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	FromStage  workflow.Stage `gorm:"type:varchar(30);not null"`
	ToStage    workflow.Stage `gorm:"type:varchar(30);not null"`
	ActorID    uuid.UUID      `gorm:"type:uuid;not null"`
	ActorRole  string         `gorm:"type:varchar(50)"`
	Note       string         `gorm:"type:text"`
	Metadata   []byte         `gorm:"type:jsonb"`
	OccurredAt time.Time      `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (WorkflowEventModel) TableName() string {
	return "workflow_events"
}

// ToDomain converts the persistence model to a domain WorkflowEvent entity.
func (m *WorkflowEventModel) ToDomain() *workflow.WorkflowEvent {
	event := &workflow.WorkflowEvent{
		ID:         m.ID,
		OrderID:    m.OrderID,
		FromStage:  m.FromStage,
		ToStage:    m.ToStage,
		ActorID:    m.ActorID,
		ActorRole:  m.ActorRole,
		Note:       m.Note,
		OccurredAt: m.OccurredAt,
	}
	if len(m.Metadata) > 0 {
		var metadata map[string]interface{}
		if err := json.Unmarshal(m.Metadata, &metadata); err == nil {
			event.Metadata = metadata
		}
	}
	return event
}

// FromDomain populates the persistence model from a domain WorkflowEvent entity.
func (m *WorkflowEventModel) FromDomain(e *workflow.WorkflowEvent) {
	m.ID = e.ID
	m.OrderID = e.OrderID
	m.FromStage = e.FromStage
	m.ToStage = e.ToStage
	m.ActorID = e.ActorID
	m.ActorRole = e.ActorRole
	m.Note = e.Note
	m.OccurredAt = e.OccurredAt
	m.Metadata = nil
	if len(e.Metadata) > 0 {
		if payload, err := json.Marshal(e.Metadata); err == nil {
			m.Metadata = payload
		}
	}
}

// WorkflowEventModelFromDomain creates a new persistence model from a domain WorkflowEvent entity.
func WorkflowEventModelFromDomain(e *workflow.WorkflowEvent) *WorkflowEventModel {
	m := &WorkflowEventModel{}
	m.FromDomain(e)
	return m
}

// OrderReturnModel is the persistence model for the OrderReturn aggregate root.
type OrderReturnModel struct {
	AggregateModel
	ReturnNumber string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	OrderID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	ClientID     uuid.UUID             `gorm:"type:uuid;not null;index"`
	ReturnType   workflow.ReturnType   `gorm:"type:varchar(30);not null"`
	Items        []ReturnLineItemModel `gorm:"foreignKey:ReturnID;references:ID"`
	TotalCredit  decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Note         string                `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (OrderReturnModel) TableName() string {
	return "order_returns"
}

// ToDomain converts the persistence model to a domain OrderReturn entity.
func (m *OrderReturnModel) ToDomain() *workflow.OrderReturn {
	ret := &workflow.OrderReturn{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		ReturnNumber: m.ReturnNumber,
		OrderID:      m.OrderID,
		ClientID:     m.ClientID,
		ReturnType:   m.ReturnType,
		TotalCredit:  m.TotalCredit,
		Note:         m.Note,
		Items:        make([]workflow.ReturnLineItem, len(m.Items)),
	}
	for i, item := range m.Items {
		ret.Items[i] = *item.ToDomain()
	}
	return ret
}

// FromDomain populates the persistence model from a domain OrderReturn entity.
func (m *OrderReturnModel) FromDomain(r *workflow.OrderReturn) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.ReturnNumber = r.ReturnNumber
	m.OrderID = r.OrderID
	m.ClientID = r.ClientID
	m.ReturnType = r.ReturnType
	m.TotalCredit = r.TotalCredit
	m.Note = r.Note
	m.Items = make([]ReturnLineItemModel, len(r.Items))
	for i, item := range r.Items {
		m.Items[i] = *ReturnLineItemModelFromDomain(&item)
	}
}

// OrderReturnModelFromDomain creates a new persistence model from a domain OrderReturn entity.
func OrderReturnModelFromDomain(r *workflow.OrderReturn) *OrderReturnModel {
	m := &OrderReturnModel{}
	m.FromDomain(r)
	return m
}

// ReturnLineItemModel is the persistence model for the ReturnLineItem entity.
type ReturnLineItemModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	ReturnID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName    string          `gorm:"type:varchar(200);not null"`
	ReturnQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Condition      string          `gorm:"type:varchar(50)"`
	Restockable    bool            `gorm:"not null;default:false"`
	CreditAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CreatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReturnLineItemModel) TableName() string {
	return "return_line_items"
}

// ToDomain converts the persistence model to a domain ReturnLineItem entity.
func (m *ReturnLineItemModel) ToDomain() *workflow.ReturnLineItem {
	return &workflow.ReturnLineItem{
		ID:             m.ID,
		ReturnID:       m.ReturnID,
		ProductName:    m.ProductName,
		ReturnQuantity: m.ReturnQuantity,
		UnitPrice:      m.UnitPrice,
		Condition:      m.Condition,
		Restockable:    m.Restockable,
		CreditAmount:   m.CreditAmount,
		CreatedAt:      m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain ReturnLineItem entity.
func (m *ReturnLineItemModel) FromDomain(i *workflow.ReturnLineItem) {
	m.ID = i.ID
	m.ReturnID = i.ReturnID
	m.ProductName = i.ProductName
	m.ReturnQuantity = i.ReturnQuantity
	m.UnitPrice = i.UnitPrice
	m.Condition = i.Condition
	m.Restockable = i.Restockable
	m.CreditAmount = i.CreditAmount
	m.CreatedAt = i.CreatedAt
}

// ReturnLineItemModelFromDomain creates a new persistence model from a domain ReturnLineItem entity.
func ReturnLineItemModelFromDomain(i *workflow.ReturnLineItem) *ReturnLineItemModel {
	m := &ReturnLineItemModel{}
	m.FromDomain(i)
	return m
}
