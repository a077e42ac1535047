package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransfer records that a branch/day balance went to the bank. One per (branch, date).
type BankTransfer struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	BranchID           uint            `gorm:"not null;uniqueIndex:idx_transfer_branch_date" json:"branch_id"`
	Branch             *Branch         `json:"branch,omitempty"`
	Date               string          `gorm:"size:10;not null;uniqueIndex:idx_transfer_branch_date" json:"date"`
	TotalReceipts      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_receipts"`
	TotalDisbursements decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_disbursements"`
	FinalBalance       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"final_balance"`
	TransferredBy      uint            `gorm:"not null" json:"transferred_by"`
	TransferredAt      time.Time       `gorm:"not null" json:"transferred_at"`
	Notes              string          `gorm:"size:500" json:"notes"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
