package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	settlementapp "github.com/orderflow/backend/internal/application/settlement"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/infrastructure/logger"
	"github.com/orderflow/backend/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// SettlementHandler handles settlement API endpoints
type SettlementHandler struct {
	BaseHandler
	settlementService *settlementapp.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settlementService *settlementapp.SettlementService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
	}
}

// ApplyPaymentRequest represents a request to pay against a single order
// @Description Request body for applying a payment to one order
type ApplyPaymentRequest struct {
	OrderID          string  `json:"order_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440010"`
	Amount           float64 `json:"amount" binding:"required,gt=0" example:"150.00"`
	Method           string  `json:"method" binding:"required,min=1,max=50" example:"cash"`
	Reference        string  `json:"reference" example:"receipt-0042"`
	IdempotencyToken string  `json:"idempotency_token" example:"b2c3d4e5"`
}

// SettleRequest represents a request to run a settlement session
// @Description Request body for running a settlement session for a client
type SettleRequest struct {
	ClientID         string   `json:"client_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	AmountCollected  float64  `json:"amount_collected" binding:"min=0" example:"300.00"`
	Method           string   `json:"method" example:"cash"`
	Reference        string   `json:"reference" example:"receipt-0043"`
	Notes            string   `json:"notes" example:"collected at delivery"`
	OrderIDs         []string `json:"order_ids" binding:"omitempty,dive,uuid"`
	OriginOrderID    *string  `json:"origin_order_id" binding:"omitempty,uuid"`
	DriverID         *string  `json:"driver_id" binding:"omitempty,uuid"`
	DeferPayment     bool     `json:"defer_payment" example:"false"`
	IdempotencyToken string   `json:"idempotency_token" example:"c3d4e5f6"`
}

// ForgiveDebtRequest represents a request to waive an order's remaining debt
// @Description Request body for forgiving the remaining debt on an order
type ForgiveDebtRequest struct {
	Description string `json:"description" binding:"required,min=1,max=500" example:"goodwill after late delivery"`
}

// AdjustmentRequest represents a manual balance correction
// @Description Request body for recording a signed manual balance adjustment
type AdjustmentRequest struct {
	ClientID    string  `json:"client_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Amount      float64 `json:"amount" binding:"required" example:"-25.00"`
	Description string  `json:"description" binding:"required,min=1,max=500" example:"billing correction"`
}

// ApplyPayment godoc
// @Summary      Apply a payment
// @Description  Apply money against a single order's payment record
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        request body ApplyPaymentRequest true "Payment request"
// @Success      200 {object} dto.Response{data=settlementapp.PaymentRecordResponse}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /settlements/payments [post]
func (h *SettlementHandler) ApplyPayment(c *gin.Context) {
	var req ApplyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	resp, err := h.settlementService.ApplyPayment(c.Request.Context(), settlementapp.ApplyPaymentRequest{
		OrderID:          orderID,
		Amount:           decimal.NewFromFloat(req.Amount),
		Method:           req.Method,
		Reference:        req.Reference,
		IdempotencyToken: req.IdempotencyToken,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Settle godoc
// @Summary      Run a settlement session
// @Description  Allocate collected money across the client's outstanding orders, oldest first
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        request body SettleRequest true "Settlement request"
// @Success      200 {object} dto.Response{data=settlementapp.SettleResult}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /settlements [post]
func (h *SettlementHandler) Settle(c *gin.Context) {
	var req SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq, err := h.buildSettleRequest(req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	// Tag everything logged below this point with the client being settled
	ctx, _ := logger.WithClientID(c.Request.Context(), logger.FromContext(c.Request.Context()), appReq.ClientID.String())

	result, err := h.settlementService.Settle(ctx, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ForgiveDebt godoc
// @Summary      Forgive an order's debt
// @Description  Waive the remaining unpaid amount on an order
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body ForgiveDebtRequest true "Forgiveness request"
// @Success      200 {object} dto.Response{data=settlementapp.PaymentRecordResponse}
// @Router       /settlements/orders/{id}/forgive [post]
func (h *SettlementHandler) ForgiveDebt(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req ForgiveDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.settlementService.ForgiveDebt(c.Request.Context(), orderID, req.Description)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RecordAdjustment godoc
// @Summary      Record a balance adjustment
// @Description  Record a signed manual correction on a client's balance
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        request body AdjustmentRequest true "Adjustment request"
// @Success      200 {object} dto.Response{data=settlementapp.TransactionResponse}
// @Router       /settlements/adjustments [post]
func (h *SettlementHandler) RecordAdjustment(c *gin.Context) {
	var req AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		h.BadRequest(c, "Invalid client ID format")
		return
	}

	resp, err := h.settlementService.RecordAdjustment(c.Request.Context(), settlementapp.AdjustmentRequest{
		ClientID:    clientID,
		Amount:      decimal.NewFromFloat(req.Amount),
		Description: req.Description,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// GetRecordByOrder godoc
// @Summary      Get an order's payment record
// @Description  Get the payment state of a single order
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=settlementapp.PaymentRecordResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /settlements/orders/{id} [get]
func (h *SettlementHandler) GetRecordByOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	resp, err := h.settlementService.GetRecordByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListOutstanding godoc
// @Summary      List a client's outstanding orders
// @Description  List the client's unpaid and partially paid orders, oldest first
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Client ID"
// @Success      200 {object} dto.Response{data=[]settlementapp.PaymentRecordResponse}
// @Router       /clients/{id}/outstanding [get]
func (h *SettlementHandler) ListOutstanding(c *gin.Context) {
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid client ID format")
		return
	}

	records, err := h.settlementService.ListOutstanding(c.Request.Context(), clientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, records)
}

// GetSession godoc
// @Summary      Get a settlement session
// @Description  Get a settlement session by ID
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200 {object} dto.Response{data=settlementapp.SessionResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /settlements/sessions/{id} [get]
func (h *SettlementHandler) GetSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid session ID format")
		return
	}

	resp, err := h.settlementService.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListSessions godoc
// @Summary      List settlement sessions
// @Description  List a client's settlement sessions, most recent first
// @Tags         settlements
// @Produce      json
// @Param        id path string true "Client ID"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]settlementapp.SessionResponse}
// @Router       /clients/{id}/settlements [get]
func (h *SettlementHandler) ListSessions(c *gin.Context) {
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
	}

	sessions, err := h.settlementService.ListSessions(c.Request.Context(), clientID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sessions)
}

// buildSettleRequest converts the HTTP request into an application request
func (h *SettlementHandler) buildSettleRequest(req SettleRequest) (settlementapp.SettleRequest, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return settlementapp.SettleRequest{}, err
	}

	appReq := settlementapp.SettleRequest{
		ClientID:         clientID,
		AmountCollected:  decimal.NewFromFloat(req.AmountCollected),
		Method:           req.Method,
		Reference:        req.Reference,
		Notes:            req.Notes,
		DeferPayment:     req.DeferPayment,
		IdempotencyToken: req.IdempotencyToken,
	}

	for _, idStr := range req.OrderIDs {
		orderID, err := uuid.Parse(idStr)
		if err != nil {
			return settlementapp.SettleRequest{}, err
		}
		appReq.OrderIDs = append(appReq.OrderIDs, orderID)
	}
	if req.OriginOrderID != nil {
		originID, err := uuid.Parse(*req.OriginOrderID)
		if err != nil {
			return settlementapp.SettleRequest{}, err
		}
		appReq.OriginOrderID = &originID
	}
	if req.DriverID != nil {
		driverID, err := uuid.Parse(*req.DriverID)
		if err != nil {
			return settlementapp.SettleRequest{}, err
		}
		appReq.DriverID = &driverID
	}

	return appReq, nil
}
