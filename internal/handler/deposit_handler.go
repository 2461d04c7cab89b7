package handler

import (
	"net/http"
	"strconv"

	"bullex/internal/middleware"
	"bullex/internal/service"

	"github.com/gin-gonic/gin"
)

type DepositHandler struct {
	deposits *service.DepositService
}

func NewDepositHandler(deposits *service.DepositService) *DepositHandler {
	return &DepositHandler{deposits: deposits}
}

type createDepositRequest struct {
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	Method   string  `json:"method" binding:"required"`
	BankCode string  `json:"bank_code"`
}

func (h *DepositHandler) Create(c *gin.Context) {
	var req createDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
		return
	}
	order, err := h.deposits.Create(c.Request.Context(), middleware.GetUserID(c), service.CreateDepositInput{
		Amount:   req.Amount,
		Method:   req.Method,
		BankCode: req.BankCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order, "payment_url": order.PaymentURL})
}

func (h *DepositHandler) Status(c *gin.Context) {
	view, err := h.deposits.QueryStatus(c.Request.Context(), middleware.GetUserID(c), c.Param("orderID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": view.Order, "stale": view.Stale})
}

func (h *DepositHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	orders, err := h.deposits.ListByUser(middleware.GetUserID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
