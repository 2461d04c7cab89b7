package models

import "time"

// DepositOrder is one deposit attempt. Rows are append-only: status moves
// PENDING/PROCESSING -> {COMPLETED,FAILED,CANCELLED,EXPIRED} and never again,
// and no row is ever deleted.
type DepositOrder struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	OrderID              string     `gorm:"size:64;uniqueIndex;not null" json:"order_id"`
	UserID               uint       `gorm:"not null;index" json:"user_id"`
	Gateway              string     `gorm:"size:20;not null" json:"gateway"`
	Amount               float64    `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency             string     `gorm:"size:3;default:'INR'" json:"currency"`
	PaymentMethod        string     `gorm:"size:20;not null" json:"payment_method"`
	Status               string     `gorm:"size:20;not null;index;default:'PENDING'" json:"status"`
	GatewayTransactionID string     `gorm:"size:128;index" json:"gateway_transaction_id"`
	PaymentURL           string     `gorm:"size:512" json:"payment_url"`
	PaidAt               *time.Time `json:"paid_at"`
	// RawGatewayPayload keeps the last raw observation for forensic replay.
	RawGatewayPayload string     `gorm:"type:text" json:"-"`
	ExpiresAt         *time.Time `json:"expires_at"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (DepositOrder) TableName() string {
	return "deposit_orders"
}
