package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	workflowapp "github.com/orderflow/backend/internal/application/workflow"
	"github.com/orderflow/backend/internal/domain/workflow"
	"github.com/orderflow/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// OrderHandler handles order workflow API endpoints
type OrderHandler struct {
	BaseHandler
	orderService *workflowapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *workflowapp.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// CreateOrderRequest represents a request to place a new order
// @Description Request body for placing a new order
type CreateOrderRequest struct {
	ClientID        string                 `json:"client_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	ClientName      string                 `json:"client_name" binding:"required,min=1,max=200" example:"Acme Bakery"`
	Items           []CreateOrderItemInput `json:"items" binding:"required,min=1,dive"`
	ProductionNotes string                 `json:"production_notes" example:"no nuts"`
	DeliveryNotes   string                 `json:"delivery_notes" example:"leave at back door"`
}

// CreateOrderItemInput represents a line item in the create order request
// @Description Order line item for creation
type CreateOrderItemInput struct {
	ProductName string  `json:"product_name" binding:"required,min=1,max=200" example:"Sourdough"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0" example:"10"`
	UnitPrice   float64 `json:"unit_price" binding:"required,gt=0" example:"4.50"`
}

// TransitionOrderRequest represents a request to move an order to another stage
// @Description Request body for a workflow stage transition
type TransitionOrderRequest struct {
	TargetStage string                 `json:"target_stage" binding:"required" example:"PRODUCTION_QUEUE"`
	ActorRole   string                 `json:"actor_role" binding:"required,min=1,max=50" example:"manager"`
	Note        string                 `json:"note" example:"approved for production"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// AssignDriverRequest represents a request to assign a delivery driver
// @Description Request body for assigning a driver to an order
type AssignDriverRequest struct {
	DriverID string `json:"driver_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440003"`
}

// UpdateOrderNotesRequest represents a request to update order notes
// @Description Request body for updating production and delivery notes
type UpdateOrderNotesRequest struct {
	ProductionNotes string `json:"production_notes" example:"use batch 42 flour"`
	DeliveryNotes   string `json:"delivery_notes" example:"call on arrival"`
}

// orderListQuery holds the order list query parameters
type orderListQuery struct {
	dto.ListRequest
	ClientID  string `form:"client_id" binding:"omitempty,uuid"`
	Stage     string `form:"stage"`
	DriverID  string `form:"driver_id" binding:"omitempty,uuid"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// Create godoc
// @Summary      Place a new order
// @Description  Place a new order in the ORDER_PLACED stage
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body CreateOrderRequest true "Order creation request"
// @Success      201 {object} dto.Response{data=workflowapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		h.BadRequest(c, "Invalid client ID format")
		return
	}

	items := make([]workflowapp.OrderItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = workflowapp.OrderItemRequest{
			ProductName: item.ProductName,
			Quantity:    decimal.NewFromFloat(item.Quantity),
			UnitPrice:   decimal.NewFromFloat(item.UnitPrice),
		}
	}

	resp, err := h.orderService.Create(c.Request.Context(), workflowapp.CreateOrderRequest{
		ClientID:        clientID,
		ClientName:      req.ClientName,
		Items:           items,
		ProductionNotes: req.ProductionNotes,
		DeliveryNotes:   req.DeliveryNotes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Get godoc
// @Summary      Get an order
// @Description  Get an order by ID
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=workflowapp.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	resp, err := h.orderService.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// GetByNumber godoc
// @Summary      Get an order by number
// @Description  Get an order by its order number
// @Tags         orders
// @Produce      json
// @Param        number path string true "Order number"
// @Success      200 {object} dto.Response{data=workflowapp.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/number/{number} [get]
func (h *OrderHandler) GetByNumber(c *gin.Context) {
	orderNumber := c.Param("number")
	if orderNumber == "" {
		h.BadRequest(c, "Order number is required")
		return
	}

	resp, err := h.orderService.GetByOrderNumber(c.Request.Context(), orderNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List godoc
// @Summary      List orders
// @Description  List orders with filtering and pagination
// @Tags         orders
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        client_id query string false "Filter by client"
// @Param        stage query string false "Filter by workflow stage"
// @Success      200 {object} dto.Response{data=[]workflowapp.OrderResponse,meta=dto.Meta}
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	query := orderListQuery{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter, err := h.buildListFilter(query)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	orders, total, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// Transition godoc
// @Summary      Transition an order
// @Description  Move an order to another workflow stage
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        X-Actor-ID header string true "Acting user ID"
// @Param        request body TransitionOrderRequest true "Transition request"
// @Success      200 {object} dto.Response{data=workflowapp.OrderResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/transition [post]
func (h *OrderHandler) Transition(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	actorID, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid actor ID")
		return
	}

	var req TransitionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.orderService.Transition(c.Request.Context(), orderID, workflowapp.TransitionRequest{
		TargetStage: req.TargetStage,
		ActorID:     actorID,
		ActorRole:   req.ActorRole,
		Note:        req.Note,
		Metadata:    req.Metadata,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// AssignDriver godoc
// @Summary      Assign a driver
// @Description  Assign a delivery driver to an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body AssignDriverRequest true "Driver assignment request"
// @Success      200 {object} dto.Response{data=workflowapp.OrderResponse}
// @Router       /orders/{id}/driver [put]
func (h *OrderHandler) AssignDriver(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req AssignDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		h.BadRequest(c, "Invalid driver ID format")
		return
	}

	resp, err := h.orderService.AssignDriver(c.Request.Context(), orderID, driverID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// UpdateNotes godoc
// @Summary      Update order notes
// @Description  Update the production and delivery notes on an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body UpdateOrderNotesRequest true "Notes update request"
// @Success      200 {object} dto.Response{data=workflowapp.OrderResponse}
// @Router       /orders/{id}/notes [put]
func (h *OrderHandler) UpdateNotes(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req UpdateOrderNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.orderService.UpdateNotes(c.Request.Context(), orderID, req.ProductionNotes, req.DeliveryNotes)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListEvents godoc
// @Summary      List order events
// @Description  List the stage transition audit log for an order, oldest first
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=[]workflowapp.WorkflowEventResponse}
// @Router       /orders/{id}/events [get]
func (h *OrderHandler) ListEvents(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	events, err := h.orderService.ListEvents(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, events)
}

// buildListFilter converts the query parameters into an application filter
func (h *OrderHandler) buildListFilter(query orderListQuery) (workflowapp.OrderListFilter, error) {
	filter := workflowapp.OrderListFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
		OrderBy:  query.OrderBy,
		OrderDir: query.OrderDir,
		Search:   query.Search,
	}

	if query.ClientID != "" {
		clientID, err := uuid.Parse(query.ClientID)
		if err != nil {
			return filter, err
		}
		filter.ClientID = &clientID
	}
	if query.Stage != "" {
		stage := workflow.Stage(query.Stage)
		if !stage.IsValid() {
			return filter, fmt.Errorf("unknown stage %q", query.Stage)
		}
		filter.Stage = &stage
	}
	if query.DriverID != "" {
		driverID, err := uuid.Parse(query.DriverID)
		if err != nil {
			return filter, err
		}
		filter.DriverID = &driverID
	}
	if query.StartDate != "" {
		start, err := time.Parse(time.RFC3339, query.StartDate)
		if err != nil {
			return filter, err
		}
		filter.StartDate = &start
	}
	if query.EndDate != "" {
		end, err := time.Parse(time.RFC3339, query.EndDate)
		if err != nil {
			return filter, err
		}
		filter.EndDate = &end
	}

	return filter, nil
}
