package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	Role         string         `gorm:"size:20;not null;index;default:'TRADER'" json:"role"`
	// Balance is the one piece of truly shared mutable state. It is written
	// only through SettlementRepository's atomic increments, never via
	// read-modify-write in Go.
	Balance       float64        `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`
	TotalDeposits float64        `gorm:"type:decimal(15,2);not null;default:0" json:"total_deposits"`
	TotalPayouts  float64        `gorm:"type:decimal(15,2);not null;default:0" json:"total_payouts"`
	Currency      string         `gorm:"size:3;default:'INR'" json:"currency"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}
