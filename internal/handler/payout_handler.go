package handler

import (
	"net/http"
	"strconv"

	"bullex/internal/domain"
	"bullex/internal/middleware"
	"bullex/internal/service"
	"bullex/pkg/payment"

	"github.com/gin-gonic/gin"
)

type PayoutHandler struct {
	payouts *service.PayoutService
}

func NewPayoutHandler(payouts *service.PayoutService) *PayoutHandler {
	return &PayoutHandler{payouts: payouts}
}

type createPayoutRequest struct {
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	AccountName   string  `json:"account_name" binding:"required"`
	AccountNumber string  `json:"account_number" binding:"required"`
	BankCode      string  `json:"bank_code"`
	IFSCCode      string  `json:"ifsc_code"`
	Mobile        string  `json:"mobile"`
	Email         string  `json:"email"`
}

func (h *PayoutHandler) Create(c *gin.Context) {
	var req createPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "VALIDATION_ERROR"})
		return
	}
	order, err := h.payouts.Create(c.Request.Context(), middleware.GetUserID(c), service.CreatePayoutInput{
		Amount:        req.Amount,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		BankCode:      req.BankCode,
		IFSCCode:      req.IFSCCode,
		Mobile:        req.Mobile,
		Email:         req.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	balance, err := h.payouts.WalletBalance(order.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order, "new_balance": balance})
}

func (h *PayoutHandler) Status(c *gin.Context) {
	view, err := h.payouts.QueryStatus(c.Request.Context(), middleware.GetUserID(c), c.Param("orderID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": view.Order, "stale": view.Stale})
}

func (h *PayoutHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	orders, err := h.payouts.ListByUser(middleware.GetUserID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Balance reports the merchant balance held at the processor. Admin only.
func (h *PayoutHandler) Balance(c *gin.Context) {
	if role, _ := c.Get("role"); role != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin only", "code": "FORBIDDEN"})
		return
	}
	bal, err := h.payouts.SettlementBalance(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"available": payment.FormatAmount(bal.Available),
		"frozen":    payment.FormatAmount(bal.Frozen),
		"currency":  bal.Currency,
	})
}
