package repository

import (
	"context"
	"errors"
	"time"

	"bullex/internal/domain"
	"bullex/internal/models"

	"gorm.io/gorm"
)

// SettlementRepository is the only writer of user balances. Each balance
// effect is guarded by a settlement-marker insert (unique order_id) in the
// same transaction as the balance mutation, so the effect fires at most once
// no matter how many times an order's completion is observed.
type SettlementRepository struct {
	db *gorm.DB
}

func NewSettlementRepository(db *gorm.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

// CreditOnce applies the deposit credit for orderID. Returns (false, nil)
// when the credit has already been applied.
func (r *SettlementRepository) CreditOnce(ctx context.Context, orderID string, userID uint, amount float64) (bool, error) {
	return r.applyOnce(ctx, orderID, userID, amount, domain.SettlementCredit, map[string]interface{}{
		"balance":        gorm.Expr("balance + ?", amount),
		"total_deposits": gorm.Expr("total_deposits + ?", amount),
	})
}

// RefundOnce compensates the creation-time debit of a failed or cancelled
// payout. Keyed by the payout's orderID, so a payout is refunded at most once.
func (r *SettlementRepository) RefundOnce(ctx context.Context, orderID string, userID uint, amount float64) (bool, error) {
	return r.applyOnce(ctx, orderID, userID, amount, domain.SettlementRefund, map[string]interface{}{
		"balance":       gorm.Expr("balance + ?", amount),
		"total_payouts": gorm.Expr("total_payouts - ?", amount),
	})
}

func (r *SettlementRepository) applyOnce(ctx context.Context, orderID string, userID uint, amount float64, direction string, updates map[string]interface{}) (bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := models.SettlementRecord{
			OrderID:   orderID,
			UserID:    userID,
			Direction: direction,
			Amount:    amount,
			AppliedAt: time.Now(),
		}
		if err := tx.Create(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrAlreadySettled
			}
			return err
		}
		res := tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, domain.ErrAlreadySettled) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DebitForPayout deducts the payout amount at creation time. The balance
// check and the deduction are one conditional UPDATE, so a concurrent credit
// or debit can never interleave between check and write.
func (r *SettlementRepository) DebitForPayout(ctx context.Context, userID uint, amount float64) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND balance >= ?", userID, amount).
		Updates(map[string]interface{}{
			"balance":       gorm.Expr("balance - ?", amount),
			"total_payouts": gorm.Expr("total_payouts + ?", amount),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInsufficientBalance
	}
	return nil
}
