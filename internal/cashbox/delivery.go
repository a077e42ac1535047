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

const entityDelivery = "cash_delivery"

type DeliveryMode string

const (
	ModeDeliver             DeliveryMode = "deliver"
	ModeCloseOnly           DeliveryMode = "close_only"
	ModeDeliverAfterClosure DeliveryMode = "deliver_after_closure"
)

func (m DeliveryMode) Valid() bool {
	switch m {
	case ModeDeliver, ModeCloseOnly, ModeDeliverAfterClosure:
		return true
	}
	return false
}

type DeliveryInput struct {
	BranchID uint
	Date     string
	Mode     DeliveryMode
	Notes    string
}

type DeliveryFilter struct {
	BranchID *uint
	UserID   *uint
	Status   models.DeliveryStatus
	DateRange
	Limit  int
	Offset int
}

// Deliver moves the actor's matched cashbox for the day forward. deliver and
// close_only create the day's delivery row; deliver_after_closure turns an
// existing close-only row into a delivery of the matched amount.
func (s *Service) Deliver(ctx context.Context, actor Actor, in DeliveryInput) (*models.CashDelivery, error) {
	if in.Mode == "" {
		in.Mode = ModeDeliver
	}
	if !in.Mode.Valid() {
		return nil, apperr.Invalid(msgInvalidMode)
	}
	date, err := s.ParseDate(in.Date)
	if err != nil {
		return nil, err
	}

	var d models.CashDelivery
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.CashMatching
		err := tx.Where("branch_id = ? AND user_id = ? AND date = ?", in.BranchID, actor.UserID, date).First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Invalid(msgMatchingRequired)
		}
		if err != nil {
			return err
		}

		now := s.now()
		if in.Mode == ModeDeliverAfterClosure {
			res := tx.Model(&models.CashDelivery{}).
				Where("branch_id = ? AND user_id = ? AND date = ?", in.BranchID, actor.UserID, date).
				Where("is_closed_only = ? AND is_verified = ?", true, false).
				Updates(map[string]any{
					"is_closed_only":   false,
					"delivered_amount": m.ActualTotal,
					"cash_matching_id": m.ID,
					"delivered_at":     now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				found, err := exists(tx.Model(&models.CashDelivery{}).
					Where("branch_id = ? AND user_id = ? AND date = ?", in.BranchID, actor.UserID, date))
				if err != nil {
					return err
				}
				if found {
					return apperr.Conflict(msgNotClosed)
				}
				return apperr.NotFound(msgNoClosedCashbox)
			}
			if err := tx.Where("branch_id = ? AND user_id = ? AND date = ?", in.BranchID, actor.UserID, date).First(&d).Error; err != nil {
				return err
			}
			return s.audit.Write(ctx, tx, audit.LogOptions{
				BranchID:    &d.BranchID,
				UserID:      actor.UserID,
				UserName:    actor.UserName,
				EntityType:  entityDelivery,
				EntityID:    d.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("تسليم صندوق مغلق %s بمبلغ %s", d.Number, d.DeliveredAmount.StringFixed(2)),
				Before:      map[string]any{"is_closed_only": true},
				After:       map[string]any{"is_closed_only": false, "delivered_amount": d.DeliveredAmount},
			})
		}

		number, err := s.numbers.Delivery(tx, now)
		if err != nil {
			return err
		}
		d = models.CashDelivery{
			Number:             number,
			BranchID:           in.BranchID,
			UserID:             actor.UserID,
			Date:               date,
			CashMatchingID:     m.ID,
			TotalReceipts:      m.TotalReceipts,
			TotalDisbursements: m.TotalDisbursements,
			DeliveredAmount:    m.ActualTotal,
			Notes:              in.Notes,
		}
		if in.Mode == ModeCloseOnly {
			d.DeliveredAmount = decimal.Zero
			d.IsClosedOnly = true
			d.ClosedAt = &now
		} else {
			d.DeliveredAt = &now
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&d)
		if res.Error != nil {
			return fmt.Errorf("create delivery: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Duplicate(msgDeliveryDuplicate)
		}

		desc := fmt.Sprintf("تسليم صندوق %s بمبلغ %s", d.Number, d.DeliveredAmount.StringFixed(2))
		if d.IsClosedOnly {
			desc = fmt.Sprintf("إغلاق صندوق %s بدون تسليم", d.Number)
		}
		return s.audit.Write(ctx, tx, audit.LogOptions{
			BranchID:    &d.BranchID,
			UserID:      actor.UserID,
			UserName:    actor.UserName,
			EntityType:  entityDelivery,
			EntityID:    d.ID,
			Action:      models.AuditActionCreate,
			Description: desc,
			After:       d,
		})
	})
	if err != nil {
		return nil, err
	}

	title := "تسليم صندوق جديد"
	if d.IsClosedOnly {
		title = "إغلاق صندوق بدون تسليم"
	}
	s.notify(s.notifier.NotifyAdmins(ctx, nil, notification.Message{
		Title: title,
		Body:  fmt.Sprintf("%s: %s بتاريخ %s بمبلغ %s", actor.UserName, d.Number, d.Date, d.DeliveredAmount.StringFixed(2)),
		Link:  fmt.Sprintf("/cash-deliveries/%d", d.ID),
	}), "delivery_"+string(in.Mode))

	return s.GetDelivery(ctx, d.ID, nil)
}

// VerifyDelivery confirms the delivered cash arrived. Close-only rows cannot be verified.
func (s *Service) VerifyDelivery(ctx context.Context, actor Actor, id uint) (*models.CashDelivery, error) {
	var d models.CashDelivery
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&d, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(msgDeliveryNotFound)
		}
		if err != nil {
			return err
		}
		if d.IsClosedOnly {
			return apperr.Conflict(msgVerifyClosed)
		}

		res := tx.Model(&models.CashDelivery{}).
			Where("id = ? AND is_closed_only = ? AND is_verified = ?", id, false, false).
			Updates(map[string]any{
				"is_verified": true,
				"verified_by": actor.UserID,
				"verified_at": s.now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict(msgAlreadyVerified)
		}

		return s.audit.Write(ctx, tx, audit.LogOptions{
			BranchID:    &d.BranchID,
			UserID:      actor.UserID,
			UserName:    actor.UserName,
			EntityType:  entityDelivery,
			EntityID:    d.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("التحقق من التسليم %s", d.Number),
			Before:      map[string]any{"is_verified": false},
			After:       map[string]any{"is_verified": true},
		})
	})
	if err != nil {
		return nil, err
	}

	s.notify(s.notifier.NotifyUser(ctx, nil, d.UserID, notification.Message{
		Title: "تم التحقق من التسليم",
		Body:  fmt.Sprintf("تم التحقق من تسليم الصندوق %s بمبلغ %s", d.Number, d.DeliveredAmount.StringFixed(2)),
		Link:  fmt.Sprintf("/cash-deliveries/%d", d.ID),
	}), "delivery_verified")

	return s.GetDelivery(ctx, id, nil)
}

func (s *Service) GetDelivery(ctx context.Context, id uint, branchScope *uint) (*models.CashDelivery, error) {
	var d models.CashDelivery
	err := s.db.WithContext(ctx).Preload("Branch").Preload("User").First(&d, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(msgDeliveryNotFound)
	}
	if err != nil {
		return nil, err
	}
	if branchScope != nil && d.BranchID != *branchScope {
		return nil, apperr.NotFound(msgDeliveryNotFound)
	}
	return &d, nil
}

func (s *Service) ListDeliveries(ctx context.Context, f DeliveryFilter) ([]models.CashDelivery, error) {
	q := s.db.WithContext(ctx).Model(&models.CashDelivery{}).Preload("Branch").Preload("User")
	if f.BranchID != nil {
		q = q.Where("branch_id = ?", *f.BranchID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	switch f.Status {
	case models.DeliveryClosed:
		q = q.Where("is_closed_only = ?", true)
	case models.DeliveryDelivered:
		q = q.Where("is_closed_only = ? AND is_verified = ?", false, false)
	case models.DeliveryVerified:
		q = q.Where("is_verified = ? AND is_collected = ?", true, false)
	case models.DeliveryCollected:
		q = q.Where("is_collected = ?", true)
	}
	q = f.DateRange.apply(q, "date")

	var items []models.CashDelivery
	if err := page(q, f.Limit, f.Offset).Order("date DESC, id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// MatchedConfirmedTotal sums the delivered amount of verified deliveries.
func (s *Service) MatchedConfirmedTotal(ctx context.Context, branchID *uint, r DateRange) (decimal.Decimal, error) {
	q := s.db.WithContext(ctx).Model(&models.CashDelivery{}).Where("is_verified = ?", true)
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	q = r.apply(q, "date")
	return sumColumn(q, "delivered_amount")
}
