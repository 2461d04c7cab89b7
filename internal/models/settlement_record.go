package models

import "time"

// SettlementRecord marks that the balance effect for an order has fired.
// The unique index on order_id is the exactly-once gate: whoever inserts the
// row applies the balance change, everyone else gets a duplicate-key error
// and backs off. The order's own status describes the gateway's view; this
// row describes whether our side-effect ran.
type SettlementRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   string    `gorm:"size:64;uniqueIndex;not null" json:"order_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Direction string    `gorm:"size:10;not null" json:"direction"` // CREDIT | REFUND
	Amount    float64   `gorm:"type:decimal(15,2);not null" json:"amount"`
	AppliedAt time.Time `json:"applied_at"`
}

func (SettlementRecord) TableName() string {
	return "settlement_records"
}
