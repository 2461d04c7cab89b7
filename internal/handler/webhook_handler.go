package handler

import (
	"context"
	"errors"
	"net/http"

	"bullex/internal/domain"
	"bullex/internal/models"
	"bullex/internal/repository"
	"bullex/internal/service"
	"bullex/pkg/logger"
	"bullex/pkg/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookHandler terminates the processor's server-to-server callbacks. A
// callback only reaches the reconciliation engine after its signature
// verifies; the ack body is the literal string the processor's retry logic
// matches on, so anything else counts as delivery failure upstream.
type WebhookHandler struct {
	gateway payment.Gateway
	engine  *service.Reconciler
	audit   *repository.AuditLogRepository
}

func NewWebhookHandler(gateway payment.Gateway, engine *service.Reconciler, audit *repository.AuditLogRepository) *WebhookHandler {
	return &WebhookHandler{gateway: gateway, engine: engine, audit: audit}
}

func (h *WebhookHandler) Deposit(c *gin.Context) {
	h.handle(c, h.gateway.VerifyDepositWebhook, h.engine.ApplyDepositStatus)
}

func (h *WebhookHandler) Payout(c *gin.Context) {
	h.handle(c, h.gateway.VerifyPayoutWebhook, h.engine.ApplyPayoutStatus)
}

type applyFunc func(ctx context.Context, orderID string, obs service.StatusObservation) (*service.ReconcileResult, error)

func (h *WebhookHandler) handle(c *gin.Context, verify func(map[string]string) bool, apply applyFunc) {
	params, err := formParams(c)
	if err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}

	if !verify(params) {
		h.record(c, "webhook_bad_signature", params["mchOrderNo"])
		logger.Log.Warn("webhook signature rejected",
			zap.String("ip", c.ClientIP()),
			zap.String("order_id", params["mchOrderNo"]))
		c.String(http.StatusBadRequest, "invalid signature")
		return
	}

	event, err := h.gateway.ParseWebhook(params)
	if err != nil {
		h.record(c, "webhook_malformed", params["mchOrderNo"])
		logger.Log.Warn("webhook payload rejected", zap.Error(err))
		c.String(http.StatusBadRequest, "invalid payload")
		return
	}

	result, err := apply(c.Request.Context(), event.OrderID, service.StatusObservation{
		Status:               event.Status,
		GatewayTransactionID: event.GatewayTransactionID,
		Amount:               amountOf(event),
		PaidAt:               event.PaidAt,
		Raw:                  event.Raw,
	})
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			// authenticated callback for an order we never issued: ack it so
			// the processor stops retrying, but leave a forensic trail
			h.record(c, "webhook_unknown_order", event.OrderID)
			logger.Log.Warn("webhook for unknown order",
				zap.String("order_id", event.OrderID),
				zap.String("ip", c.ClientIP()))
			c.String(http.StatusOK, h.gateway.AckBody())
			return
		}
		logger.Log.Error("webhook apply failed",
			zap.String("order_id", event.OrderID), zap.Error(err))
		c.String(http.StatusInternalServerError, "error")
		return
	}

	logger.Log.Info("webhook applied",
		zap.String("order_id", result.OrderID),
		zap.String("status", result.Status),
		zap.Bool("changed", result.Changed),
		zap.Bool("settled", result.Settled))
	c.String(http.StatusOK, h.gateway.AckBody())
}

func (h *WebhookHandler) record(c *gin.Context, action, orderID string) {
	_ = h.audit.Create(&models.AuditLog{
		Action:     action,
		Resource:   "webhook",
		ResourceID: orderID,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
}

func formParams(c *gin.Context) (map[string]string, error) {
	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	params := make(map[string]string, len(c.Request.PostForm))
	for k, vs := range c.Request.PostForm {
		if len(vs) > 0 {
			params[k] = vs[0]
		}
	}
	return params, nil
}

func amountOf(e *payment.WebhookEvent) float64 {
	f, _ := e.Amount.Float64()
	return f
}
