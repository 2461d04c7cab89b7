package repository

import (
	"errors"
	"time"

	"bullex/internal/domain"
	"bullex/internal/models"

	"gorm.io/gorm"
)

// OrderRepository owns DepositOrder and PayoutOrder rows and is the only
// writer of their status fields. Status transitions go through a
// compare-and-set restricted to non-terminal predecessors; that CAS is the
// only ordering primitive between the poll path and the webhook path.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Transition carries the fields a status observation may update. Status is
// required; the rest are written only when set.
type Transition struct {
	Status               string
	GatewayTransactionID string
	PaidAt               *time.Time
	RawPayload           string
}

func (r *OrderRepository) CreateDeposit(o *models.DepositOrder) error {
	err := r.db.Create(o).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateOrder
	}
	return err
}

func (r *OrderRepository) GetDeposit(orderID string) (*models.DepositOrder, error) {
	var o models.DepositOrder
	err := r.db.Where("order_id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// TransitionDeposit applies a status observation iff the order is still
// non-terminal. Returns false when another observation already won the race;
// the caller must treat that as a duplicate, not an error.
func (r *OrderRepository) TransitionDeposit(orderID string, tr Transition) (bool, error) {
	res := r.db.Model(&models.DepositOrder{}).
		Where("order_id = ? AND status IN ?", orderID, domain.NonTerminalStatuses).
		Updates(r.transitionUpdates(tr))
	return res.RowsAffected > 0, res.Error
}

// AppendDepositPayload records a raw observation without touching status,
// used for re-deliveries against already-terminal orders.
func (r *OrderRepository) AppendDepositPayload(orderID, raw string) error {
	return r.db.Model(&models.DepositOrder{}).
		Where("order_id = ?", orderID).
		Update("raw_gateway_payload", raw).Error
}

// SetDepositGatewayRef stores the processor's identifiers after a successful
// create call. Never touches status.
func (r *OrderRepository) SetDepositGatewayRef(orderID, txID, paymentURL string, expiresAt *time.Time) error {
	updates := map[string]interface{}{}
	if txID != "" {
		updates["gateway_transaction_id"] = txID
	}
	if paymentURL != "" {
		updates["payment_url"] = paymentURL
	}
	if expiresAt != nil {
		updates["expires_at"] = expiresAt
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.DepositOrder{}).Where("order_id = ?", orderID).Updates(updates).Error
}

func (r *OrderRepository) ListDepositsByUser(userID uint, limit int) ([]models.DepositOrder, error) {
	var orders []models.DepositOrder
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Limit(limit).Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) CreatePayout(o *models.PayoutOrder) error {
	err := r.db.Create(o).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicateOrder
	}
	return err
}

func (r *OrderRepository) GetPayout(orderID string) (*models.PayoutOrder, error) {
	var o models.PayoutOrder
	err := r.db.Where("order_id = ?", orderID).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) TransitionPayout(orderID string, tr Transition) (bool, error) {
	res := r.db.Model(&models.PayoutOrder{}).
		Where("order_id = ? AND status IN ?", orderID, domain.NonTerminalStatuses).
		Updates(r.transitionUpdates(tr))
	return res.RowsAffected > 0, res.Error
}

func (r *OrderRepository) AppendPayoutPayload(orderID, raw string) error {
	return r.db.Model(&models.PayoutOrder{}).
		Where("order_id = ?", orderID).
		Update("raw_gateway_payload", raw).Error
}

func (r *OrderRepository) SetPayoutGatewayRef(orderID, txID string, estimated *time.Time) error {
	updates := map[string]interface{}{}
	if txID != "" {
		updates["gateway_transaction_id"] = txID
	}
	if estimated != nil {
		updates["estimated_settlement"] = estimated
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.PayoutOrder{}).Where("order_id = ?", orderID).Updates(updates).Error
}

func (r *OrderRepository) ListPayoutsByUser(userID uint, limit int) ([]models.PayoutOrder, error) {
	var orders []models.PayoutOrder
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Limit(limit).Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) transitionUpdates(tr Transition) map[string]interface{} {
	updates := map[string]interface{}{
		"status":     tr.Status,
		"updated_at": time.Now(),
	}
	if tr.GatewayTransactionID != "" {
		updates["gateway_transaction_id"] = tr.GatewayTransactionID
	}
	if tr.PaidAt != nil {
		updates["paid_at"] = tr.PaidAt
	}
	if tr.RawPayload != "" {
		updates["raw_gateway_payload"] = tr.RawPayload
	}
	return updates
}
