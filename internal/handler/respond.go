package handler

import (
	"errors"
	"net/http"

	"bullex/internal/domain"
	"bullex/internal/service"
	"bullex/pkg/payment"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error to a stable HTTP status and machine code.
// Unknown errors collapse to a 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	var reject *payment.RejectError
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount", "code": "VALIDATION_ERROR"})
	case errors.Is(err, payment.ErrUnsupportedMethod):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported payment method", "code": "UNSUPPORTED_METHOD"})
	case errors.Is(err, domain.ErrInsufficientBalance):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "insufficient balance", "code": "INSUFFICIENT_BALANCE"})
	case errors.Is(err, domain.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found", "code": "ORDER_NOT_FOUND"})
	case errors.Is(err, domain.ErrDuplicateOrder):
		c.JSON(http.StatusConflict, gin.H{"error": "duplicate order", "code": "DUPLICATE_ORDER"})
	case errors.Is(err, payment.ErrUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway unavailable, please retry", "code": "GATEWAY_UNAVAILABLE"})
	case errors.As(err, &reject):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": reject.Message, "code": "GATEWAY_REJECTED"})
	case errors.Is(err, service.ErrEmailExists):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered", "code": "EMAIL_EXISTS"})
	case errors.Is(err, service.ErrInvalidCreds):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password", "code": "INVALID_CREDENTIALS"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "code": "INTERNAL"})
	}
}
