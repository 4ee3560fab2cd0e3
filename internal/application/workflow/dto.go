package workflow

import (
	"time"

	"github.com/google/uuid"
	"github.com/orderflow/backend/internal/domain/workflow"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest is the request to place a new order
type CreateOrderRequest struct {
	ClientID        uuid.UUID
	ClientName      string
	Items           []OrderItemRequest
	ProductionNotes string
	DeliveryNotes   string
}

// OrderItemRequest is a line item on an order creation request
type OrderItemRequest struct {
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// TransitionRequest is the request to move an order to another stage
type TransitionRequest struct {
	TargetStage string
	ActorID     uuid.UUID
	ActorRole   string
	Note        string
	Metadata    map[string]interface{}
}

// OrderListFilter holds filtering and pagination options for order listings
type OrderListFilter struct {
	Page      int
	PageSize  int
	OrderBy   string
	OrderDir  string
	Search    string
	ClientID  *uuid.UUID
	Stage     *workflow.Stage
	DriverID  *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
}

// RecordReturnRequest is the request to record a return against an order
type RecordReturnRequest struct {
	OrderID    uuid.UUID
	ReturnType string
	Note       string
	Items      []ReturnItemRequest
}

// ReturnItemRequest is a returned product line
type ReturnItemRequest struct {
	ProductName    string
	ReturnQuantity decimal.Decimal
	Condition      string
	Restockable    bool
}

// OrderItemResponse is a line item in an order response
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// OrderResponse is the full order representation
type OrderResponse struct {
	ID                    uuid.UUID           `json:"id"`
	OrderNumber           string              `json:"order_number"`
	ClientID              uuid.UUID           `json:"client_id"`
	ClientName            string              `json:"client_name"`
	Stage                 string              `json:"stage"`
	Items                 []OrderItemResponse `json:"items"`
	TotalAmount           decimal.Decimal     `json:"total_amount"`
	AssignedDriverID      *uuid.UUID          `json:"assigned_driver_id,omitempty"`
	ProductionNotes       string              `json:"production_notes,omitempty"`
	DeliveryNotes         string              `json:"delivery_notes,omitempty"`
	ProductionStartedAt   *time.Time          `json:"production_started_at,omitempty"`
	ProductionCompletedAt *time.Time          `json:"production_completed_at,omitempty"`
	DeliveryStartedAt     *time.Time          `json:"delivery_started_at,omitempty"`
	DeliveryCompletedAt   *time.Time          `json:"delivery_completed_at,omitempty"`
	Version               int                 `json:"version"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

// WorkflowEventResponse is one entry of the transition audit log
type WorkflowEventResponse struct {
	ID         uuid.UUID              `json:"id"`
	OrderID    uuid.UUID              `json:"order_id"`
	FromStage  string                 `json:"from_stage"`
	ToStage    string                 `json:"to_stage"`
	ActorID    uuid.UUID              `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Note       string                 `json:"note,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// ReturnItemResponse is a returned product line in a return response
type ReturnItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	ProductName    string          `json:"product_name"`
	ReturnQuantity decimal.Decimal `json:"return_quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Condition      string          `json:"condition,omitempty"`
	Restockable    bool            `json:"restockable"`
	CreditAmount   decimal.Decimal `json:"credit_amount"`
}

// ReturnResponse is the full return representation
type ReturnResponse struct {
	ID           uuid.UUID            `json:"id"`
	ReturnNumber string               `json:"return_number"`
	OrderID      uuid.UUID            `json:"order_id"`
	ClientID     uuid.UUID            `json:"client_id"`
	ReturnType   string               `json:"return_type"`
	Items        []ReturnItemResponse `json:"items"`
	TotalCredit  decimal.Decimal      `json:"total_credit"`
	Note         string               `json:"note,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

// ToOrderResponse converts an order aggregate to its response representation
func ToOrderResponse(order *workflow.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemResponse{
			ID:          item.ID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		})
	}

	return OrderResponse{
		ID:                    order.ID,
		OrderNumber:           order.OrderNumber,
		ClientID:              order.ClientID,
		ClientName:            order.ClientName,
		Stage:                 order.Stage.String(),
		Items:                 items,
		TotalAmount:           order.TotalAmount,
		AssignedDriverID:      order.AssignedDriverID,
		ProductionNotes:       order.ProductionNotes,
		DeliveryNotes:         order.DeliveryNotes,
		ProductionStartedAt:   order.ProductionStartedAt,
		ProductionCompletedAt: order.ProductionCompletedAt,
		DeliveryStartedAt:     order.DeliveryStartedAt,
		DeliveryCompletedAt:   order.DeliveryCompletedAt,
		Version:               order.Version,
		CreatedAt:             order.CreatedAt,
		UpdatedAt:             order.UpdatedAt,
	}
}

// ToOrderResponses converts a slice of orders
func ToOrderResponses(orders []workflow.Order) []OrderResponse {
	responses := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, ToOrderResponse(&orders[i]))
	}
	return responses
}

// ToWorkflowEventResponse converts a workflow event to its response representation
func ToWorkflowEventResponse(event *workflow.WorkflowEvent) WorkflowEventResponse {
	return WorkflowEventResponse{
		ID:         event.ID,
		OrderID:    event.OrderID,
		FromStage:  event.FromStage.String(),
		ToStage:    event.ToStage.String(),
		ActorID:    event.ActorID,
		ActorRole:  event.ActorRole,
		Note:       event.Note,
		Metadata:   event.Metadata,
		OccurredAt: event.OccurredAt,
	}
}

// ToWorkflowEventResponses converts a slice of workflow events
func ToWorkflowEventResponses(events []workflow.WorkflowEvent) []WorkflowEventResponse {
	responses := make([]WorkflowEventResponse, 0, len(events))
	for i := range events {
		responses = append(responses, ToWorkflowEventResponse(&events[i]))
	}
	return responses
}

// ToReturnResponse converts a return aggregate to its response representation
func ToReturnResponse(ret *workflow.OrderReturn) ReturnResponse {
	items := make([]ReturnItemResponse, 0, len(ret.Items))
	for _, item := range ret.Items {
		items = append(items, ReturnItemResponse{
			ID:             item.ID,
			ProductName:    item.ProductName,
			ReturnQuantity: item.ReturnQuantity,
			UnitPrice:      item.UnitPrice,
			Condition:      item.Condition,
			Restockable:    item.Restockable,
			CreditAmount:   item.CreditAmount,
		})
	}

	return ReturnResponse{
		ID:           ret.ID,
		ReturnNumber: ret.ReturnNumber,
		OrderID:      ret.OrderID,
		ClientID:     ret.ClientID,
		ReturnType:   ret.ReturnType.String(),
		Items:        items,
		TotalCredit:  ret.TotalCredit,
		Note:         ret.Note,
		CreatedAt:    ret.CreatedAt,
	}
}

// ToReturnResponses converts a slice of returns
func ToReturnResponses(returns []workflow.OrderReturn) []ReturnResponse {
	responses := make([]ReturnResponse, 0, len(returns))
	for i := range returns {
		responses = append(responses, ToReturnResponse(&returns[i]))
	}
	return responses
}
