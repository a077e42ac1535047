package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashCollection is the admin's intake of one verified delivery.
type CashCollection struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Number         string          `gorm:"size:40;not null;uniqueIndex" json:"collection_number"`
	DeliveryID     uint            `gorm:"not null;uniqueIndex" json:"delivery_id"`
	Delivery       *CashDelivery   `json:"delivery,omitempty"`
	BranchID       uint            `gorm:"not null;index" json:"branch_id"`
	Branch         *Branch         `json:"branch,omitempty"`
	UserID         uint            `gorm:"not null;index" json:"user_id"` // cashier who delivered
	CollectedBy    uint            `gorm:"not null" json:"collected_by"`
	CollectionDate string          `gorm:"size:10;not null;index" json:"collection_date"`
	TotalCollected decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_collected"`
	Notes          string          `gorm:"size:500" json:"notes"`
	IsVerified     bool            `gorm:"not null;default:false" json:"is_verified"`
	VerifiedBy     *uint           `json:"verified_by"`
	VerifiedAt     *time.Time      `json:"verified_at"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
