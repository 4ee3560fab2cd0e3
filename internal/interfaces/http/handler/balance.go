package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	settlementapp "github.com/orderflow/backend/internal/application/settlement"
	"github.com/orderflow/backend/internal/domain/shared"
	"github.com/orderflow/backend/internal/interfaces/http/dto"
)

// BalanceHandler handles client balance API endpoints
type BalanceHandler struct {
	BaseHandler
	balanceService *settlementapp.BalanceService
}

// NewBalanceHandler creates a new BalanceHandler
func NewBalanceHandler(balanceService *settlementapp.BalanceService) *BalanceHandler {
	return &BalanceHandler{
		balanceService: balanceService,
	}
}

// Get godoc
// @Summary      Get a client's balance
// @Description  Get the cached balance view for a client
// @Tags         balances
// @Produce      json
// @Param        id path string true "Client ID"
// @Success      200 {object} dto.Response{data=settlementapp.BalanceResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /clients/{id}/balance [get]
func (h *BalanceHandler) Get(c *gin.Context) {
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid client ID format")
		return
	}

	resp, err := h.balanceService.Get(c.Request.Context(), clientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Recompute godoc
// @Summary      Recompute a client's balance
// @Description  Rebuild the cached balance from the full transaction ledger
// @Tags         balances
// @Produce      json
// @Param        id path string true "Client ID"
// @Success      200 {object} dto.Response{data=settlementapp.BalanceResponse}
// @Router       /clients/{id}/balance/recompute [post]
func (h *BalanceHandler) Recompute(c *gin.Context) {
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid client ID format")
		return
	}

	resp, err := h.balanceService.Recompute(c.Request.Context(), clientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// ListTransactions godoc
// @Summary      List a client's transactions
// @Description  List a client's payment transaction ledger, newest first
// @Tags         balances
// @Produce      json
// @Param        id path string true "Client ID"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]settlementapp.TransactionResponse,meta=dto.Meta}
// @Router       /clients/{id}/transactions [get]
func (h *BalanceHandler) ListTransactions(c *gin.Context) {
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
	if txType := c.Query("transaction_type"); txType != "" {
		filter.Filters = map[string]interface{}{"transaction_type": txType}
	}

	transactions, total, err := h.balanceService.ListTransactions(c.Request.Context(), clientID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, transactions, total, filter.Page, filter.PageSize)
}

// ListDebtors godoc
// @Summary      List debtors
// @Description  List clients with negative balances, most indebted first
// @Tags         balances
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]settlementapp.BalanceResponse}
// @Router       /balances/debtors [get]
func (h *BalanceHandler) ListDebtors(c *gin.Context) {
	query := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := shared.Filter{
		Page:     query.Page,
		PageSize: query.PageSize,
	}

	debtors, err := h.balanceService.ListDebtors(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, debtors)
}
