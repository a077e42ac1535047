package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DeliveryStatus string

const (
	DeliveryClosed    DeliveryStatus = "closed"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryVerified  DeliveryStatus = "verified"
	DeliveryCollected DeliveryStatus = "collected"
)

type CashDelivery struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	Number             string          `gorm:"size:40;not null;uniqueIndex" json:"delivery_number"`
	BranchID           uint            `gorm:"not null;uniqueIndex:idx_delivery_day" json:"branch_id"`
	Branch             *Branch         `json:"branch,omitempty"`
	UserID             uint            `gorm:"not null;uniqueIndex:idx_delivery_day" json:"user_id"`
	User               *User           `json:"user,omitempty"`
	Date               string          `gorm:"size:10;not null;uniqueIndex:idx_delivery_day" json:"date"`
	CashMatchingID     uint            `gorm:"not null;index" json:"cash_matching_id"`
	TotalReceipts      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_receipts"`
	TotalDisbursements decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_disbursements"`
	DeliveredAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"delivered_amount"`
	IsClosedOnly       bool            `gorm:"not null;default:false" json:"is_closed_only"`
	IsVerified         bool            `gorm:"not null;default:false" json:"is_verified"`
	VerifiedBy         *uint           `json:"verified_by"`
	VerifiedAt         *time.Time      `json:"verified_at"`
	IsCollected        bool            `gorm:"not null;default:false" json:"is_collected"`
	ClosedAt           *time.Time      `json:"closed_at"`
	DeliveredAt        *time.Time      `json:"delivered_at"`
	Notes              string          `gorm:"size:500" json:"notes"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (d *CashDelivery) Status() DeliveryStatus {
	switch {
	case d.IsClosedOnly:
		return DeliveryClosed
	case d.IsCollected:
		return DeliveryCollected
	case d.IsVerified:
		return DeliveryVerified
	default:
		return DeliveryDelivered
	}
}
