package cashbox

import (
	"context"
	"errors"
	"fmt"

	"sunduqi-backend/internal/apperr"
	"sunduqi-backend/internal/audit"
	"sunduqi-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const entityOpeningBalance = "opening_balance"

type OpeningBalanceInput struct {
	BranchID uint
	Date     string
	Amount   decimal.Decimal
	Notes    string
}

// CreateOpeningBalance records the day's opening cash. A second live row for
// the same branch and date is rejected by the unique index.
func (s *Service) CreateOpeningBalance(ctx context.Context, actor Actor, in OpeningBalanceInput) (*models.OpeningBalance, error) {
	if !in.Amount.IsPositive() {
		return nil, apperr.Invalid(msgAmountPositive)
	}
	date, err := s.ParseDate(in.Date)
	if err != nil {
		return nil, err
	}

	ob := models.OpeningBalance{
		BranchID:         in.BranchID,
		UserID:           actor.UserID,
		Date:             date,
		Amount:           in.Amount.Round(2),
		Notes:            in.Notes,
		IsPreviousClosed: true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := activeBranch(tx, in.BranchID); err != nil {
			return err
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ob)
		if res.Error != nil {
			return fmt.Errorf("create opening balance: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Duplicate(msgOpeningDuplicate)
		}

		return s.audit.Write(ctx, tx, audit.LogOptions{
			BranchID:    &ob.BranchID,
			UserID:      actor.UserID,
			UserName:    actor.UserName,
			EntityType:  entityOpeningBalance,
			EntityID:    ob.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("رصيد افتتاحي %s بتاريخ %s", ob.Amount.StringFixed(2), ob.Date),
			After:       ob,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.loadOpeningBalance(ctx, ob.ID)
}

func (s *Service) loadOpeningBalance(ctx context.Context, id uint) (*models.OpeningBalance, error) {
	var ob models.OpeningBalance
	err := s.db.WithContext(ctx).Preload("Branch").Preload("User").First(&ob, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(msgOpeningNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &ob, nil
}

// OpeningBalanceFor returns the live opening balance of a branch/day.
func (s *Service) OpeningBalanceFor(ctx context.Context, branchID uint, date string) (*models.OpeningBalance, error) {
	date, err := s.ParseDate(date)
	if err != nil {
		return nil, err
	}
	var ob models.OpeningBalance
	err = s.db.WithContext(ctx).Preload("Branch").Preload("User").
		Where("branch_id = ? AND date = ?", branchID, date).First(&ob).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(msgOpeningNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &ob, nil
}

type OpeningBalanceFilter struct {
	BranchID *uint
	DateRange
	Limit  int
	Offset int
}

func (s *Service) ListOpeningBalances(ctx context.Context, f OpeningBalanceFilter) ([]models.OpeningBalance, error) {
	q := s.db.WithContext(ctx).Model(&models.OpeningBalance{}).Preload("Branch").Preload("User")
	if f.BranchID != nil {
		q = q.Where("branch_id = ?", *f.BranchID)
	}
	q = f.DateRange.apply(q, "date")

	var items []models.OpeningBalance
	if err := page(q, f.Limit, f.Offset).Order("date DESC, id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteOpeningBalance soft-deletes the row as long as the day has not been matched.
func (s *Service) DeleteOpeningBalance(ctx context.Context, actor Actor, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ob models.OpeningBalance
		err := tx.First(&ob, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(msgOpeningNotFound)
		}
		if err != nil {
			return err
		}

		if err := deleteOpeningBalanceTx(tx, &ob); err != nil {
			return err
		}

		return s.audit.Write(ctx, tx, audit.LogOptions{
			BranchID:    &ob.BranchID,
			UserID:      actor.UserID,
			UserName:    actor.UserName,
			EntityType:  entityOpeningBalance,
			EntityID:    ob.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("حذف رصيد افتتاحي بتاريخ %s", ob.Date),
			Before:      ob,
		})
	})
}

func deleteOpeningBalanceTx(tx *gorm.DB, ob *models.OpeningBalance) error {
	matched, err := exists(tx.Model(&models.CashMatching{}).
		Where("branch_id = ? AND date = ?", ob.BranchID, ob.Date))
	if err != nil {
		return err
	}
	if matched {
		return apperr.Conflict(msgOpeningMatched)
	}
	return tx.Delete(ob).Error
}

// restoreOpeningBalanceTx brings a soft-deleted row back unless another live
// row took its day in the meantime.
func restoreOpeningBalanceTx(tx *gorm.DB, id uint) error {
	var ob models.OpeningBalance
	err := tx.Unscoped().First(&ob, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(msgOpeningNotFound)
	}
	if err != nil {
		return err
	}
	if !ob.DeletedAt.Valid {
		return nil
	}

	taken, err := hasOpeningBalance(tx, ob.BranchID, ob.Date)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Duplicate(msgOpeningDuplicate)
	}
	return tx.Unscoped().Model(&ob).Update("deleted_at", nil).Error
}
