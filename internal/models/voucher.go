package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Receipt struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Number        string          `gorm:"size:30;not null;uniqueIndex" json:"receipt_number"`
	BranchID      uint            `gorm:"not null;index:idx_receipt_branch_date" json:"branch_id"`
	Branch        *Branch         `json:"branch,omitempty"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	User          *User           `json:"user,omitempty"`
	Date          string          `gorm:"size:10;not null;index:idx_receipt_branch_date" json:"date"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	PaymentMethod PaymentMethod   `gorm:"size:20;not null" json:"payment_method"`
	ReceivedFrom  string          `gorm:"size:150" json:"received_from"`
	Notes         string          `gorm:"size:500" json:"notes"`
	AttachmentKey string          `gorm:"size:255" json:"-"`
	AttachmentURL string          `gorm:"size:500" json:"attachment_url,omitempty"`
	IsApproved    bool            `gorm:"not null;default:false" json:"is_approved"`
	ApprovedBy    *uint           `json:"approved_by"`
	ApprovedAt    *time.Time      `json:"approved_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

type Disbursement struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Number        string          `gorm:"size:30;not null;uniqueIndex" json:"disbursement_number"`
	BranchID      uint            `gorm:"not null;index:idx_disbursement_branch_date" json:"branch_id"`
	Branch        *Branch         `json:"branch,omitempty"`
	UserID        uint            `gorm:"not null;index" json:"user_id"`
	User          *User           `json:"user,omitempty"`
	Date          string          `gorm:"size:10;not null;index:idx_disbursement_branch_date" json:"date"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	PaymentMethod PaymentMethod   `gorm:"size:20;not null" json:"payment_method"`
	PaidTo        string          `gorm:"size:150" json:"paid_to"`
	Notes         string          `gorm:"size:500" json:"notes"`
	AttachmentKey string          `gorm:"size:255" json:"-"`
	AttachmentURL string          `gorm:"size:500" json:"attachment_url,omitempty"`
	IsApproved    bool            `gorm:"not null;default:false" json:"is_approved"`
	ApprovedBy    *uint           `json:"approved_by"`
	ApprovedAt    *time.Time      `json:"approved_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// VoucherMeta is the part of a receipt or disbursement the workflow rules look at.
type VoucherMeta struct {
	ID         uint
	BranchID   uint
	UserID     uint
	Date       string
	Amount     decimal.Decimal
	IsApproved bool
}

func (r *Receipt) Meta() VoucherMeta {
	return VoucherMeta{ID: r.ID, BranchID: r.BranchID, UserID: r.UserID, Date: r.Date, Amount: r.Amount, IsApproved: r.IsApproved}
}

func (d *Disbursement) Meta() VoucherMeta {
	return VoucherMeta{ID: d.ID, BranchID: d.BranchID, UserID: d.UserID, Date: d.Date, Amount: d.Amount, IsApproved: d.IsApproved}
}
