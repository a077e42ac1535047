package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OpeningBalance is the cash a branch starts a business day with.
// At most one live row per (branch, date); soft-deleted rows do not count.
type OpeningBalance struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	BranchID         uint            `gorm:"not null;uniqueIndex:idx_opening_branch_date,where:deleted_at IS NULL" json:"branch_id"`
	Branch           *Branch         `json:"branch,omitempty"`
	UserID           uint            `gorm:"not null;index" json:"user_id"`
	User             *User           `json:"user,omitempty"`
	Date             string          `gorm:"size:10;not null;uniqueIndex:idx_opening_branch_date,where:deleted_at IS NULL" json:"date"` // YYYY-MM-DD
	Amount           decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Notes            string          `gorm:"size:500" json:"notes"`
	IsPreviousClosed bool            `gorm:"not null;default:true" json:"is_previous_closed"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
}
