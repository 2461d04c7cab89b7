package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bullex/internal/domain"
	"bullex/internal/models"
	"bullex/internal/repository"
	"bullex/pkg/logger"
	"bullex/pkg/payment"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MinDepositAmount and MaxDepositAmount bound a single deposit, in INR.
const (
	MinDepositAmount = 100.0
	MaxDepositAmount = 1000000.0
)

type CreateDepositInput struct {
	Amount   float64
	Method   string
	BankCode string // netbanking only
}

// DepositStatusView is the authoritative answer to a status query, with the
// provenance of the status made explicit.
type DepositStatusView struct {
	Order *models.DepositOrder
	// Stale is true when the gateway could not be reached and the status
	// shown is the last locally known one.
	Stale bool
}

type DepositService struct {
	orders  *repository.OrderRepository
	gateway payment.Gateway
	engine  *Reconciler
	notify  string // public callback base URL
	ret     string
}

func NewDepositService(orders *repository.OrderRepository, gateway payment.Gateway, engine *Reconciler, notifyBase, returnURL string) *DepositService {
	return &DepositService{orders: orders, gateway: gateway, engine: engine, notify: notifyBase, ret: returnURL}
}

// Create opens a deposit order with the processor. The local row exists
// before the gateway call, so a crash between the two leaves a PENDING order
// the reconciliation paths can still resolve.
func (s *DepositService) Create(ctx context.Context, userID uint, in CreateDepositInput) (*models.DepositOrder, error) {
	if in.Amount < MinDepositAmount || in.Amount > MaxDepositAmount {
		return nil, domain.ErrInvalidAmount
	}
	if !s.gateway.SupportsMethod(in.Method) {
		return nil, payment.ErrUnsupportedMethod
	}

	order := &models.DepositOrder{
		OrderID:       newOrderID("DP"),
		UserID:        userID,
		Gateway:       s.gateway.Name(),
		Amount:        in.Amount,
		Currency:      domain.DefaultCurrency,
		PaymentMethod: in.Method,
		Status:        domain.OrderStatusPending,
	}
	if err := s.orders.CreateDeposit(order); err != nil {
		return nil, err
	}

	res, err := s.gateway.CreateDeposit(ctx, payment.DepositRequest{
		OrderID:   order.OrderID,
		Amount:    decimal.NewFromFloat(in.Amount),
		Currency:  order.Currency,
		Method:    in.Method,
		BankCode:  in.BankCode,
		Subject:   fmt.Sprintf("deposit %s", order.OrderID),
		NotifyURL: s.notify + "/api/v1/webhooks/winpay/deposit",
		ReturnURL: s.ret,
	})
	if err != nil {
		var reject *payment.RejectError
		if errors.As(err, &reject) {
			// the processor refused the order outright; close it now
			if _, applyErr := s.engine.ApplyDepositStatus(ctx, order.OrderID, StatusObservation{
				Status: domain.OrderStatusFailed,
				Raw:    reject.Error(),
			}); applyErr != nil {
				logger.Log.Error("failed to close rejected deposit",
					zap.String("order_id", order.OrderID), zap.Error(applyErr))
			}
			return nil, err
		}
		// gateway unreachable: the order stays PENDING for reconciliation
		logger.Log.Warn("deposit create left pending, gateway unavailable",
			zap.String("order_id", order.OrderID), zap.Error(err))
		return nil, err
	}

	var expiresAt *time.Time
	if !res.ExpiresAt.IsZero() {
		expiresAt = &res.ExpiresAt
	}
	if err := s.orders.SetDepositGatewayRef(order.OrderID, res.GatewayTransactionID, res.PaymentURL, expiresAt); err != nil {
		logger.Log.Error("failed to persist gateway reference",
			zap.String("order_id", order.OrderID), zap.Error(err))
	}
	order.GatewayTransactionID = res.GatewayTransactionID
	order.PaymentURL = res.PaymentURL
	order.ExpiresAt = expiresAt

	logger.Log.Info("deposit created",
		zap.String("order_id", order.OrderID),
		zap.Uint("user_id", userID),
		zap.Float64("amount", in.Amount),
		zap.String("method", in.Method))
	return order, nil
}

// QueryStatus is the poll path. Terminal orders answer locally; live orders
// are refreshed from the gateway, and if the gateway is down the last known
// local status is served flagged stale rather than failing the request.
func (s *DepositService) QueryStatus(ctx context.Context, userID uint, orderID string) (*DepositStatusView, error) {
	order, err := s.orders.GetDeposit(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	if domain.IsTerminalStatus(order.Status) {
		return &DepositStatusView{Order: order}, nil
	}

	res, err := s.gateway.QueryDeposit(ctx, orderID)
	if err != nil {
		logger.Log.Warn("status query falling back to local state",
			zap.String("order_id", orderID), zap.Error(err))
		return &DepositStatusView{Order: order, Stale: true}, nil
	}

	if _, err := s.engine.ApplyDepositStatus(ctx, orderID, StatusObservation{
		Status:               res.Status,
		GatewayTransactionID: res.GatewayTransactionID,
		Amount:               amountOrZero(res.Amount),
		PaidAt:               res.PaidAt,
		Raw:                  res.Raw,
	}); err != nil {
		return nil, err
	}

	fresh, err := s.orders.GetDeposit(orderID)
	if err != nil {
		return nil, err
	}
	return &DepositStatusView{Order: fresh}, nil
}

func (s *DepositService) ListByUser(userID uint, limit int) ([]models.DepositOrder, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.orders.ListDepositsByUser(userID, limit)
}

func amountOrZero(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
