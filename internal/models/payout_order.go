package models

import "time"

// PayoutOrder mirrors DepositOrder for the debit direction. The balance debit
// happens at creation; a failed or cancelled payout gets a compensating
// refund through the settlement table.
type PayoutOrder struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	OrderID              string     `gorm:"size:64;uniqueIndex;not null" json:"order_id"`
	UserID               uint       `gorm:"not null;index" json:"user_id"`
	Gateway              string     `gorm:"size:20;not null" json:"gateway"`
	Amount               float64    `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency             string     `gorm:"size:3;default:'INR'" json:"currency"`
	Status               string     `gorm:"size:20;not null;index;default:'PENDING'" json:"status"`
	AccountName          string     `gorm:"size:128;not null" json:"account_name"`
	AccountNumber        string     `gorm:"size:32;not null" json:"-"`
	BankCode             string     `gorm:"size:20" json:"bank_code"`
	IFSCCode             string     `gorm:"size:16" json:"-"`
	Mobile               string     `gorm:"size:20" json:"-"`
	Email                string     `gorm:"size:255" json:"-"`
	GatewayTransactionID string     `gorm:"size:128;index" json:"gateway_transaction_id"`
	EstimatedSettlement  *time.Time `json:"estimated_settlement"`
	PaidAt               *time.Time `json:"paid_at"`
	RawGatewayPayload    string     `gorm:"type:text" json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (PayoutOrder) TableName() string {
	return "payout_orders"
}
