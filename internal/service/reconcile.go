package service

import (
	"context"
	"fmt"
	"time"

	"bullex/internal/domain"
	"bullex/internal/models"
	"bullex/internal/repository"
	"bullex/pkg/logger"

	"go.uber.org/zap"
)

// StatusObservation is a status report from either the poll path (gateway
// query) or the webhook path, already normalized and authenticated by the
// caller.
type StatusObservation struct {
	Status               string
	GatewayTransactionID string
	Amount               float64
	PaidAt               *time.Time
	Raw                  string
}

// ReconcileResult describes what applying an observation did.
type ReconcileResult struct {
	OrderID string
	Status  string // authoritative status after applying
	Changed bool   // this observation performed the transition
	Settled bool   // this observation fired the balance effect
}

// Reconciler merges status observations into the authoritative order records.
// Both delivery paths funnel through the same two methods; correctness under
// concurrent and out-of-order delivery rests on two rules:
//
//  1. previousStatus is snapshotted before any write, and the settlement
//     decision keys off that snapshot, never off post-write state.
//  2. the status write is a compare-and-set restricted to non-terminal
//     predecessors, so the first terminal observation wins and every loser
//     degrades to a no-op duplicate.
type Reconciler struct {
	orders *repository.OrderRepository
	settle *repository.SettlementRepository
	audit  *repository.AuditLogRepository
}

func NewReconciler(orders *repository.OrderRepository, settle *repository.SettlementRepository, audit *repository.AuditLogRepository) *Reconciler {
	return &Reconciler{orders: orders, settle: settle, audit: audit}
}

// ApplyDepositStatus applies one deposit observation. A fresh transition into
// COMPLETED credits the user exactly once.
func (r *Reconciler) ApplyDepositStatus(ctx context.Context, orderID string, obs StatusObservation) (*ReconcileResult, error) {
	order, err := r.orders.GetDeposit(orderID)
	if err != nil {
		return nil, err
	}
	previousStatus := order.Status // snapshot before any write

	if domain.IsTerminalStatus(previousStatus) {
		// re-delivery after the order settled; keep the payload for audit
		if obs.Raw != "" {
			_ = r.orders.AppendDepositPayload(orderID, obs.Raw)
		}
		return &ReconcileResult{OrderID: orderID, Status: previousStatus}, nil
	}
	if !domain.IsValidStatus(obs.Status) {
		// never guess a state from a malformed observation; leave the order
		// as-is for later reconciliation
		if obs.Raw != "" {
			_ = r.orders.AppendDepositPayload(orderID, obs.Raw)
		}
		logger.Log.Warn("ignoring observation with unknown status",
			zap.String("order_id", orderID), zap.String("status", obs.Status))
		return &ReconcileResult{OrderID: orderID, Status: previousStatus}, nil
	}

	committed, err := r.orders.TransitionDeposit(orderID, repository.Transition{
		Status:               obs.Status,
		GatewayTransactionID: obs.GatewayTransactionID,
		PaidAt:               obs.PaidAt,
		RawPayload:           obs.Raw,
	})
	if err != nil {
		return nil, err
	}
	if !committed {
		// another observation won the race; re-read and report its outcome
		current, err := r.orders.GetDeposit(orderID)
		if err != nil {
			return nil, err
		}
		if obs.Raw != "" {
			_ = r.orders.AppendDepositPayload(orderID, obs.Raw)
		}
		return &ReconcileResult{OrderID: orderID, Status: current.Status}, nil
	}

	result := &ReconcileResult{OrderID: orderID, Status: obs.Status, Changed: true}
	if obs.Status == domain.OrderStatusCompleted && previousStatus != domain.OrderStatusCompleted {
		if obs.Amount > 0 && obs.Amount != order.Amount {
			r.recordAnomaly(order.UserID, "deposit_amount_mismatch", orderID,
				fmt.Sprintf(`{"local":%.2f,"observed":%.2f}`, order.Amount, obs.Amount))
		}
		// the local record is authoritative for the credited amount
		applied, err := r.settle.CreditOnce(ctx, orderID, order.UserID, order.Amount)
		if err != nil {
			return result, err
		}
		result.Settled = applied
		logger.Log.Info("deposit completed",
			zap.String("order_id", orderID),
			zap.Uint("user_id", order.UserID),
			zap.Float64("amount", order.Amount),
			zap.Bool("credited", applied))
	}
	return result, nil
}

// ApplyPayoutStatus applies one payout observation. The debit happened at
// creation, so COMPLETED is a pure status transition; FAILED or CANCELLED
// triggers the compensating refund exactly once.
func (r *Reconciler) ApplyPayoutStatus(ctx context.Context, orderID string, obs StatusObservation) (*ReconcileResult, error) {
	order, err := r.orders.GetPayout(orderID)
	if err != nil {
		return nil, err
	}
	previousStatus := order.Status

	if domain.IsTerminalStatus(previousStatus) {
		if obs.Raw != "" {
			_ = r.orders.AppendPayoutPayload(orderID, obs.Raw)
		}
		return &ReconcileResult{OrderID: orderID, Status: previousStatus}, nil
	}
	if !domain.IsValidStatus(obs.Status) {
		if obs.Raw != "" {
			_ = r.orders.AppendPayoutPayload(orderID, obs.Raw)
		}
		logger.Log.Warn("ignoring observation with unknown status",
			zap.String("order_id", orderID), zap.String("status", obs.Status))
		return &ReconcileResult{OrderID: orderID, Status: previousStatus}, nil
	}

	committed, err := r.orders.TransitionPayout(orderID, repository.Transition{
		Status:               obs.Status,
		GatewayTransactionID: obs.GatewayTransactionID,
		PaidAt:               obs.PaidAt,
		RawPayload:           obs.Raw,
	})
	if err != nil {
		return nil, err
	}
	if !committed {
		current, err := r.orders.GetPayout(orderID)
		if err != nil {
			return nil, err
		}
		if obs.Raw != "" {
			_ = r.orders.AppendPayoutPayload(orderID, obs.Raw)
		}
		return &ReconcileResult{OrderID: orderID, Status: current.Status}, nil
	}

	result := &ReconcileResult{OrderID: orderID, Status: obs.Status, Changed: true}
	switch obs.Status {
	case domain.OrderStatusFailed, domain.OrderStatusCancelled:
		applied, err := r.settle.RefundOnce(ctx, orderID, order.UserID, order.Amount)
		if err != nil {
			return result, err
		}
		result.Settled = applied
		logger.Log.Info("payout reversed",
			zap.String("order_id", orderID),
			zap.Uint("user_id", order.UserID),
			zap.Float64("amount", order.Amount),
			zap.String("status", obs.Status),
			zap.Bool("refunded", applied))
	case domain.OrderStatusCompleted:
		logger.Log.Info("payout completed",
			zap.String("order_id", orderID),
			zap.Uint("user_id", order.UserID),
			zap.Float64("amount", order.Amount))
	}
	return result, nil
}

func (r *Reconciler) recordAnomaly(userID uint, action, orderID, metadata string) {
	uid := userID
	_ = r.audit.Create(&models.AuditLog{
		UserID:     &uid,
		Action:     action,
		Resource:   "order",
		ResourceID: orderID,
		Metadata:   metadata,
	})
}
