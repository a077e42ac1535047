package cashbox

import (
	"context"
	"errors"
	"fmt"

	"sunduqi-backend/internal/apperr"
	"sunduqi-backend/internal/audit"
	"sunduqi-backend/internal/models"
	"sunduqi-backend/internal/notification"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const entityMatching = "cash_matching"

type MatchingInput struct {
	BranchID    uint
	Date        string
	ActualTotal decimal.Decimal
	Notes       string
}

type MatchingFilter struct {
	BranchID   *uint
	UserID     *uint
	IsResolved *bool
	DateRange
	Limit  int
	Offset int
}

// matchingScope narrows the totals to the owner's own vouchers unless the
// matching covers the whole branch.
func matchingScope(m *models.CashMatching) Scope {
	scope := Scope{BranchID: m.BranchID, Date: m.Date}
	if !m.IsBranchWide {
		uid := m.UserID
		scope.UserID = &uid
	}
	return scope
}

// CreateMatching snapshots the day's expected total next to the counted cash.
// One matching per branch, user and day; recounts go through RecountMatching.
func (s *Service) CreateMatching(ctx context.Context, actor Actor, in MatchingInput) (*models.CashMatching, error) {
	if in.ActualTotal.IsNegative() {
		return nil, apperr.Invalid(msgActualNegative)
	}
	date, err := s.ParseDate(in.Date)
	if err != nil {
		return nil, err
	}

	var m models.CashMatching
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := activeBranch(tx, in.BranchID); err != nil {
			return err
		}
		m = models.CashMatching{
			BranchID:     in.BranchID,
			UserID:       actor.UserID,
			Date:         date,
			IsBranchWide: actor.Admin,
			Notes:        in.Notes,
		}
		totals, err := dayTotals(tx, matchingScope(&m))
		if err != nil {
			return err
		}
		m.OpeningBalance = totals.OpeningBalance
		m.TotalReceipts = totals.TotalReceipts
		m.TotalDisbursements = totals.TotalDisbursements
		m.ExpectedTotal = totals.ExpectedTotal
		m.ActualTotal = in.ActualTotal.Round(2)
		m.Difference = m.ActualTotal.Sub(totals.ExpectedTotal)
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
		if res.Error != nil {
			return fmt.Errorf("create matching: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Duplicate(msgMatchingDuplicate)
		}

		return s.audit.Write(ctx, tx, audit.LogOptions{
			BranchID:    &m.BranchID,
			UserID:      actor.UserID,
			UserName:    actor.UserName,
			EntityType:  entityMatching,
			EntityID:    m.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("مطابقة صندوق %s: متوقع %s فعلي %s", m.Date, m.ExpectedTotal.StringFixed(2), m.ActualTotal.StringFixed(2)),
			After:       m,
		})
	})
	if err != nil {
		return nil, err
	}

	if !m.Difference.IsZero() {
		s.notify(s.notifier.NotifyAdmins(ctx, nil, notification.Message{
			Title:    "فرق في مطابقة الصندوق",
			Body:     fmt.Sprintf("مطابقة %s بتاريخ %s بفرق %s", actor.UserName, m.Date, m.Difference.StringFixed(2)),
			Priority: models.PriorityHigh,
			Link:     fmt.Sprintf("/cash-matching/%d", m.ID),
		}), "matching_difference")
	}

	return s.GetMatching(ctx, m.ID, nil)
}

// RecountMatching replaces the counted cash of an unresolved, undelivered
// matching and refreshes the expected total.
func (s *Service) RecountMatching(ctx context.Context, actor Actor, id uint, actual decimal.Decimal, notes string) (*models.CashMatching, error) {
	if actual.IsNegative() {
		return nil, apperr.Invalid(msgActualNegative)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.CashMatching
		err := tx.First(&m, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(msgMatchingNotFound)
		}
		if err != nil {
			return err
		}
		if !actor.Admin && m.UserID != actor.UserID {
			return errForbiddenRecord
		}

		delivered, err := exists(tx.Model(&models.CashDelivery{}).Where("cash_matching_id = ?", m.ID))
		if err != nil {
			return err
		}
		if delivered {
			return apperr.Conflict(msgMatchingDelivered)
		}

		totals, err := dayTotals(tx, matchingScope(&m))
		if err != nil {
			return err
		}

		before := m
		actual = actual.Round(2)
		res := tx.Model(&models.CashMatching{}).
			Where("id = ? AND is_resolved = ?", m.ID, false).
			Updates(map[string]any{
				"opening_balance":     totals.OpeningBalance,
				"total_receipts":      totals.TotalReceipts,
				"total_disbursements": totals.TotalDisbursements,
				"expected_total":      totals.ExpectedTotal,
				"actual_total":        actual,
				"difference":          actual.Sub(totals.ExpectedTotal),
				"notes":               notes,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict(msgMatchingResolved)
		}

		return s.audit.Write(ctx, tx, audit.LogOptions{
			BranchID:    &m.BranchID,
			UserID:      actor.UserID,
			UserName:    actor.UserName,
			EntityType:  entityMatching,
			EntityID:    m.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("إعادة عد الصندوق %s: فعلي %s", m.Date, actual.StringFixed(2)),
			Before:      before,
			After:       map[string]any{"actual_total": actual, "expected_total": totals.ExpectedTotal},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetMatching(ctx, id, nil)
}

// ResolveMatching closes a matching difference. Resolving twice is a conflict.
func (s *Service) ResolveMatching(ctx context.Context, actor Actor, id uint, notes string) (*models.CashMatching, error) {
	var m models.CashMatching
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&m, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(msgMatchingNotFound)
		}
		if err != nil {
			return err
		}

		res := tx.Model(&models.CashMatching{}).
			Where("id = ? AND is_resolved = ?", id, false).
			Updates(map[string]any{
				"is_resolved":      true,
				"resolved_by":      actor.UserID,
				"resolved_at":      s.now(),
				"resolution_notes": notes,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict(msgMatchingResolved)
		}

		return s.audit.Write(ctx, tx, audit.LogOptions{
			BranchID:    &m.BranchID,
			UserID:      actor.UserID,
			UserName:    actor.UserName,
			EntityType:  entityMatching,
			EntityID:    m.ID,
			Action:      models.AuditActionUpdate,
			Description: "تسوية مطابقة الصندوق",
			Before:      map[string]any{"is_resolved": false},
			After:       map[string]any{"is_resolved": true, "resolution_notes": notes},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notify(s.notifier.NotifyUser(ctx, nil, m.UserID, notification.Message{
		Title: "تمت تسوية المطابقة",
		Body:  fmt.Sprintf("تمت تسوية مطابقة الصندوق بتاريخ %s", m.Date),
		Link:  fmt.Sprintf("/cash-matching/%d", m.ID),
	}), "matching_resolved")

	return s.GetMatching(ctx, id, nil)
}

func (s *Service) GetMatching(ctx context.Context, id uint, branchScope *uint) (*models.CashMatching, error) {
	var m models.CashMatching
	err := s.db.WithContext(ctx).Preload("Branch").Preload("User").First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(msgMatchingNotFound)
	}
	if err != nil {
		return nil, err
	}
	if branchScope != nil && m.BranchID != *branchScope {
		return nil, apperr.NotFound(msgMatchingNotFound)
	}
	return &m, nil
}

func (s *Service) ListMatchings(ctx context.Context, f MatchingFilter) ([]models.CashMatching, error) {
	q := s.db.WithContext(ctx).Model(&models.CashMatching{}).Preload("Branch").Preload("User")
	if f.BranchID != nil {
		q = q.Where("branch_id = ?", *f.BranchID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.IsResolved != nil {
		q = q.Where("is_resolved = ?", *f.IsResolved)
	}
	q = f.DateRange.apply(q, "date")

	var items []models.CashMatching
	if err := page(q, f.Limit, f.Offset).Order("date DESC, id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
