package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashMatching reconciles a day's drawer: what should be there against what was counted.
type CashMatching struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	BranchID           uint            `gorm:"not null;uniqueIndex:idx_matching_day" json:"branch_id"`
	Branch             *Branch         `json:"branch,omitempty"`
	UserID             uint            `gorm:"not null;uniqueIndex:idx_matching_day" json:"user_id"`
	User               *User           `json:"user,omitempty"`
	Date               string          `gorm:"size:10;not null;uniqueIndex:idx_matching_day" json:"date"`
	OpeningBalance     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"opening_balance"`
	TotalReceipts      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_receipts"`
	TotalDisbursements decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_disbursements"`
	ExpectedTotal      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"expected_total"`
	ActualTotal        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"actual_total"`
	Difference         decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"difference"` // actual - expected
	Notes              string          `gorm:"size:500" json:"notes"`
	IsBranchWide       bool            `gorm:"not null;default:false" json:"is_branch_wide"`
	IsResolved         bool            `gorm:"not null;default:false" json:"is_resolved"`
	ResolvedBy         *uint           `json:"resolved_by"`
	ResolvedAt         *time.Time      `json:"resolved_at"`
	ResolutionNotes    string          `gorm:"size:500" json:"resolution_notes"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
