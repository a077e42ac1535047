package cashbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sunduqi-backend/internal/apperr"
	"sunduqi-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DateLayout = "2006-01-02"

// Scope selects the rows of one business day. UserID narrows to one cashier.
type Scope struct {
	BranchID uint
	UserID   *uint
	Date     string
}

type DayTotals struct {
	BranchID           uint            `json:"branch_id"`
	UserID             *uint           `json:"user_id,omitempty"`
	Date               string          `json:"date"`
	OpeningBalance     decimal.Decimal `json:"opening_balance"`
	TotalReceipts      decimal.Decimal `json:"total_receipts"`
	TotalDisbursements decimal.Decimal `json:"total_disbursements"`
	ExpectedTotal      decimal.Decimal `json:"expected_total"`
}

// ParseDate validates a YYYY-MM-DD business date; empty means today.
func (s *Service) ParseDate(raw string) (string, error) {
	if raw == "" {
		return s.Today(), nil
	}
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return "", apperr.Invalid(msgInvalidDate)
	}
	return d.Format(DateLayout), nil
}

// ExpectedTotals computes opening + receipts - disbursements for the scope.
func (s *Service) ExpectedTotals(ctx context.Context, scope Scope) (DayTotals, error) {
	date, err := s.ParseDate(scope.Date)
	if err != nil {
		return DayTotals{}, err
	}
	scope.Date = date
	return dayTotals(s.db.WithContext(ctx), scope)
}

func dayTotals(db *gorm.DB, scope Scope) (DayTotals, error) {
	t := DayTotals{BranchID: scope.BranchID, UserID: scope.UserID, Date: scope.Date}

	var err error
	t.OpeningBalance, err = sumAmount(db.Model(&models.OpeningBalance{}).
		Where("branch_id = ? AND date = ?", scope.BranchID, scope.Date))
	if err != nil {
		return t, fmt.Errorf("sum opening balance: %w", err)
	}

	t.TotalReceipts, err = sumAmount(scoped(db.Model(&models.Receipt{}), scope))
	if err != nil {
		return t, fmt.Errorf("sum receipts: %w", err)
	}

	t.TotalDisbursements, err = sumAmount(scoped(db.Model(&models.Disbursement{}), scope))
	if err != nil {
		return t, fmt.Errorf("sum disbursements: %w", err)
	}

	t.ExpectedTotal = t.OpeningBalance.Add(t.TotalReceipts).Sub(t.TotalDisbursements)
	return t, nil
}

func scoped(q *gorm.DB, scope Scope) *gorm.DB {
	q = q.Where("branch_id = ? AND date = ?", scope.BranchID, scope.Date)
	if scope.UserID != nil {
		q = q.Where("user_id = ?", *scope.UserID)
	}
	return q
}

func sumAmount(q *gorm.DB) (decimal.Decimal, error) {
	return sumColumn(q, "amount")
}

func sumColumn(q *gorm.DB, column string) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := q.Select("COALESCE(SUM(" + column + "), 0)").Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total.Round(2), nil
}

func findBranch(db *gorm.DB, id uint) (*models.Branch, error) {
	var b models.Branch
	err := db.First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(msgBranchNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// activeBranch loads the branch and rejects unknown or inactive ones.
func activeBranch(db *gorm.DB, id uint) (*models.Branch, error) {
	b, err := findBranch(db, id)
	if err != nil {
		return nil, err
	}
	if !b.IsActive {
		return nil, apperr.Invalid(msgBranchInactive)
	}
	return b, nil
}

func hasOpeningBalance(db *gorm.DB, branchID uint, date string) (bool, error) {
	return exists(db.Model(&models.OpeningBalance{}).Where("branch_id = ? AND date = ?", branchID, date))
}

func isTransferred(db *gorm.DB, branchID uint, date string) (bool, error) {
	return exists(db.Model(&models.BankTransfer{}).Where("branch_id = ? AND date = ?", branchID, date))
}

func exists(q *gorm.DB) (bool, error) {
	var n int64
	if err := q.Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// DateRange filters list queries on the business date column.
type DateRange struct {
	From string
	To   string
}

func (r DateRange) apply(q *gorm.DB, column string) *gorm.DB {
	if r.From != "" {
		q = q.Where(column+" >= ?", r.From)
	}
	if r.To != "" {
		q = q.Where(column+" <= ?", r.To)
	}
	return q
}

func page(q *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	return q
}

// ActiveBranch loads a branch that accepts new cash documents.
func (s *Service) ActiveBranch(ctx context.Context, id uint) (*models.Branch, error) {
	return activeBranch(s.db.WithContext(ctx), id)
}

// Branch loads a branch whether or not it is active.
func (s *Service) Branch(ctx context.Context, id uint) (*models.Branch, error) {
	return findBranch(s.db.WithContext(ctx), id)
}
