package handler

import (
	"net/http"

	"bullex/internal/middleware"
	"bullex/internal/repository"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	users *repository.UserRepository
}

func NewWalletHandler(users *repository.UserRepository) *WalletHandler {
	return &WalletHandler{users: users}
}

func (h *WalletHandler) Me(c *gin.Context) {
	user, err := h.users.GetByID(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"balance":        user.Balance,
		"total_deposits": user.TotalDeposits,
		"total_payouts":  user.TotalPayouts,
		"currency":       user.Currency,
	})
}
