package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"bullex/internal/domain"
	"bullex/internal/models"
	"bullex/internal/repository"
	"bullex/pkg/logger"
	"bullex/pkg/payment"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// MinPayoutAmount and MaxPayoutAmount bound a single payout, in INR.
const (
	MinPayoutAmount = 500.0
	MaxPayoutAmount = 500000.0
)

// settlementBalanceTTL bounds how often the processor balance endpoint is
// hit; the number moves slowly and the endpoint is rate limited upstream.
const settlementBalanceTTL = 30 * time.Second

type CreatePayoutInput struct {
	Amount        float64
	AccountName   string
	AccountNumber string
	BankCode      string
	IFSCCode      string
	Mobile        string
	Email         string
}

type PayoutStatusView struct {
	Order *models.PayoutOrder
	Stale bool
}

type PayoutService struct {
	orders  *repository.OrderRepository
	users   *repository.UserRepository
	settle  *repository.SettlementRepository
	gateway payment.Gateway
	engine  *Reconciler
	notify  string

	balanceGroup singleflight.Group
	balanceMu    sync.Mutex
	balanceAt    time.Time
	balance      *payment.BalanceResult
}

func NewPayoutService(orders *repository.OrderRepository, users *repository.UserRepository, settle *repository.SettlementRepository, gateway payment.Gateway, engine *Reconciler, notifyBase string) *PayoutService {
	return &PayoutService{orders: orders, users: users, settle: settle, gateway: gateway, engine: engine, notify: notifyBase}
}

// Create debits the trader's balance up front, then submits the payout to the
// processor. A processor rejection closes the order FAILED, which refunds the
// debit through the settlement table. An unreachable processor leaves the
// order PENDING with the funds held, for the reconciliation paths to resolve.
func (s *PayoutService) Create(ctx context.Context, userID uint, in CreatePayoutInput) (*models.PayoutOrder, error) {
	if in.Amount < MinPayoutAmount || in.Amount > MaxPayoutAmount {
		return nil, domain.ErrInvalidAmount
	}
	if in.AccountName == "" || in.AccountNumber == "" {
		return nil, domain.ErrInvalidAmount
	}

	orderID := newOrderID("PO")

	// debit first: the hold must exist before anything leaves the system
	if err := s.settle.DebitForPayout(ctx, userID, in.Amount); err != nil {
		return nil, err
	}

	order := &models.PayoutOrder{
		OrderID:       orderID,
		UserID:        userID,
		Gateway:       s.gateway.Name(),
		Amount:        in.Amount,
		Currency:      domain.DefaultCurrency,
		Status:        domain.OrderStatusPending,
		AccountName:   in.AccountName,
		AccountNumber: in.AccountNumber,
		BankCode:      in.BankCode,
		IFSCCode:      in.IFSCCode,
		Mobile:        in.Mobile,
		Email:         in.Email,
	}
	if err := s.orders.CreatePayout(order); err != nil {
		// the debit went through but the order row did not; put the money back
		if _, refundErr := s.settle.RefundOnce(ctx, orderID, userID, in.Amount); refundErr != nil {
			logger.Log.Error("failed to refund orphaned payout debit",
				zap.String("order_id", orderID), zap.Uint("user_id", userID), zap.Error(refundErr))
		}
		return nil, err
	}

	res, err := s.gateway.CreatePayout(ctx, payment.PayoutRequest{
		OrderID:       orderID,
		Amount:        decimal.NewFromFloat(in.Amount),
		Currency:      order.Currency,
		AccountName:   in.AccountName,
		AccountNumber: in.AccountNumber,
		BankCode:      in.BankCode,
		IFSCCode:      in.IFSCCode,
		Mobile:        in.Mobile,
		Email:         in.Email,
		NotifyURL:     s.notify + "/api/v1/webhooks/winpay/payout",
	})
	if err != nil {
		var reject *payment.RejectError
		if errors.As(err, &reject) {
			// closing the order FAILED triggers the compensating refund
			if _, applyErr := s.engine.ApplyPayoutStatus(ctx, orderID, StatusObservation{
				Status: domain.OrderStatusFailed,
				Raw:    reject.Error(),
			}); applyErr != nil {
				logger.Log.Error("failed to close rejected payout",
					zap.String("order_id", orderID), zap.Error(applyErr))
			}
			return nil, err
		}
		logger.Log.Warn("payout create left pending, gateway unavailable",
			zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	var estimated *time.Time
	if !res.EstimatedSettlement.IsZero() {
		estimated = &res.EstimatedSettlement
	}
	if err := s.orders.SetPayoutGatewayRef(orderID, res.GatewayTransactionID, estimated); err != nil {
		logger.Log.Error("failed to persist gateway reference",
			zap.String("order_id", orderID), zap.Error(err))
	}
	order.GatewayTransactionID = res.GatewayTransactionID
	order.EstimatedSettlement = estimated

	logger.Log.Info("payout created",
		zap.String("order_id", orderID),
		zap.Uint("user_id", userID),
		zap.Float64("amount", in.Amount),
		zap.String("account", logger.MaskAccount(in.AccountNumber)))
	return order, nil
}

// WalletBalance reads the trader's balance after a payout moved it.
func (s *PayoutService) WalletBalance(userID uint) (float64, error) {
	u, err := s.users.GetByID(userID)
	if err != nil {
		return 0, err
	}
	return u.Balance, nil
}

// QueryStatus mirrors the deposit poll path for payouts.
func (s *PayoutService) QueryStatus(ctx context.Context, userID uint, orderID string) (*PayoutStatusView, error) {
	order, err := s.orders.GetPayout(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrOrderNotFound
	}
	if domain.IsTerminalStatus(order.Status) {
		return &PayoutStatusView{Order: order}, nil
	}

	res, err := s.gateway.QueryPayout(ctx, orderID)
	if err != nil {
		logger.Log.Warn("status query falling back to local state",
			zap.String("order_id", orderID), zap.Error(err))
		return &PayoutStatusView{Order: order, Stale: true}, nil
	}

	if _, err := s.engine.ApplyPayoutStatus(ctx, orderID, StatusObservation{
		Status:               res.Status,
		GatewayTransactionID: res.GatewayTransactionID,
		Amount:               amountOrZero(res.Amount),
		PaidAt:               res.PaidAt,
		Raw:                  res.Raw,
	}); err != nil {
		return nil, err
	}

	fresh, err := s.orders.GetPayout(orderID)
	if err != nil {
		return nil, err
	}
	return &PayoutStatusView{Order: fresh}, nil
}

func (s *PayoutService) ListByUser(userID uint, limit int) ([]models.PayoutOrder, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.orders.ListPayoutsByUser(userID, limit)
}

// SettlementBalance reports the merchant's balance at the processor. Calls
// collapse through singleflight and the answer is cached briefly.
func (s *PayoutService) SettlementBalance(ctx context.Context) (*payment.BalanceResult, error) {
	s.balanceMu.Lock()
	if s.balance != nil && time.Since(s.balanceAt) < settlementBalanceTTL {
		cached := s.balance
		s.balanceMu.Unlock()
		return cached, nil
	}
	s.balanceMu.Unlock()

	v, err, _ := s.balanceGroup.Do("winpay", func() (interface{}, error) {
		res, err := s.gateway.QueryBalance(ctx)
		if err != nil {
			return nil, err
		}
		s.balanceMu.Lock()
		s.balance = res
		s.balanceAt = time.Now()
		s.balanceMu.Unlock()
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*payment.BalanceResult), nil
}
