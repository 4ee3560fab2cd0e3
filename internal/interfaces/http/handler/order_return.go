package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	workflowapp "github.com/orderflow/backend/internal/application/workflow"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// OrderReturnHandler handles order return API endpoints
type OrderReturnHandler struct {
	BaseHandler
	returnService *workflowapp.ReturnService
}

// NewOrderReturnHandler creates a new OrderReturnHandler
func NewOrderReturnHandler(returnService *workflowapp.ReturnService) *OrderReturnHandler {
	return &OrderReturnHandler{
		returnService: returnService,
	}
}

// RecordReturnRequest represents a request to record a return against an order
// @Description Request body for recording an order return
type RecordReturnRequest struct {
	OrderID    string            `json:"order_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440010"`
	ReturnType string            `json:"return_type" binding:"required" example:"DAMAGED"`
	Note       string            `json:"note" example:"crushed in transit"`
	Items      []ReturnItemInput `json:"items" binding:"required,min=1,dive"`
}

// ReturnItemInput represents a returned product line
// @Description Returned product line
type ReturnItemInput struct {
	ProductName    string  `json:"product_name" binding:"required,min=1,max=200" example:"Sourdough"`
	ReturnQuantity float64 `json:"return_quantity" binding:"required,gt=0" example:"2"`
	Condition      string  `json:"condition" example:"damaged"`
	Restockable    bool    `json:"restockable" example:"false"`
}

// Record godoc
// @Summary      Record a return
// @Description  Record a return against a delivered order and issue credit
// @Tags         returns
// @Accept       json
// @Produce      json
// @Param        request body RecordReturnRequest true "Return request"
// @Success      201 {object} dto.Response{data=workflowapp.ReturnResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /returns [post]
func (h *OrderReturnHandler) Record(c *gin.Context) {
	var req RecordReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	items := make([]workflowapp.ReturnItemRequest, len(req.Items))
	for i, item := range req.Items {
		items[i] = workflowapp.ReturnItemRequest{
			ProductName:    item.ProductName,
			ReturnQuantity: decimal.NewFromFloat(item.ReturnQuantity),
			Condition:      item.Condition,
			Restockable:    item.Restockable,
		}
	}

	resp, err := h.returnService.Record(c.Request.Context(), workflowapp.RecordReturnRequest{
		OrderID:    orderID,
		ReturnType: req.ReturnType,
		Note:       req.Note,
		Items:      items,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Get godoc
// @Summary      Get a return
// @Description  Get a return by ID
// @Tags         returns
// @Produce      json
// @Param        id path string true "Return ID"
// @Success      200 {object} dto.Response{data=workflowapp.ReturnResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /returns/{id} [get]
func (h *OrderReturnHandler) Get(c *gin.Context) {
	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	resp, err := h.returnService.GetByID(c.Request.Context(), returnID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListByOrder godoc
// @Summary      List returns for an order
// @Description  List all returns recorded against an order
// @Tags         returns
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=[]workflowapp.ReturnResponse}
// @Router       /orders/{id}/returns [get]
func (h *OrderReturnHandler) ListByOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	returns, err := h.returnService.ListByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, returns)
}

// ListByClient godoc
// @Summary      List returns for a client
// @Description  List returns recorded for a client, newest first
// @Tags         returns
// @Produce      json
// @Param        id path string true "Client ID"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]workflowapp.ReturnResponse}
// @Router       /clients/{id}/returns [get]
func (h *OrderReturnHandler) ListByClient(c *gin.Context) {
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid client ID format")
		return
	}

	query := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.Filter{
		Page:     query.Page,
		PageSize: query.PageSize,
		OrderBy:  query.OrderBy,
		OrderDir: query.OrderDir,
	}

	returns, err := h.returnService.ListByClient(c.Request.Context(), clientID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, returns)
}

// AdjustedTotal godoc
// @Summary      Get the adjusted order total
// @Description  Get the order total net of all recorded return credits, floored at zero
// @Tags         returns
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=AdjustedTotalResponse}
// @Router       /orders/{id}/adjusted-total [get]
func (h *OrderReturnHandler) AdjustedTotal(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	total, err := h.returnService.AdjustedOrderTotal(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, AdjustedTotalResponse{
		OrderID:       orderID,
		AdjustedTotal: total,
	})
}

// AdjustedTotalResponse represents the adjusted order total
// @Description Order total net of return credits
type AdjustedTotalResponse struct {
	OrderID       uuid.UUID       `json:"order_id"`
	AdjustedTotal decimal.Decimal `json:"adjusted_total"`
}
