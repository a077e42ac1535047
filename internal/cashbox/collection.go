package cashbox

import (
	"context"
	"errors"
	"fmt"

	"sunduqi-backend/internal/apperr"
	"sunduqi-backend/internal/audit"
	"sunduqi-backend/internal/models"
	"sunduqi-backend/internal/notification"

	"gorm.io/gorm"
)

const entityCollection = "cash_collection"

type CollectionInput struct {
	DeliveryID uint
	Notes      string
}

type CollectionFilter struct {
	BranchID *uint
	UserID   *uint
	Verified *bool
	DateRange
	Limit  int
	Offset int
}

// Collect takes in a verified delivery. The delivery is flagged and the
// collection row written in the same transaction.
func (s *Service) Collect(ctx context.Context, actor Actor, in CollectionInput) (*models.CashCollection, error) {
	var c models.CashCollection
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d models.CashDelivery
		err := tx.First(&d, in.DeliveryID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(msgDeliveryNotFound)
		}
		if err != nil {
			return err
		}

		res := tx.Model(&models.CashDelivery{}).
			Where("id = ? AND is_verified = ? AND is_collected = ?", d.ID, true, false).
			Update("is_collected", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if d.IsCollected {
				return apperr.Conflict(msgAlreadyCollected)
			}
			return apperr.Conflict(msgCollectUnverified)
		}

		now := s.now()
		number, err := s.numbers.Collection(tx, now)
		if err != nil {
			return err
		}
		c = models.CashCollection{
			Number:         number,
			DeliveryID:     d.ID,
			BranchID:       d.BranchID,
			UserID:         d.UserID,
			CollectedBy:    actor.UserID,
			CollectionDate: now.Format(DateLayout),
			TotalCollected: d.DeliveredAmount,
			Notes:          in.Notes,
		}
		if err := tx.Create(&c).Error; err != nil {
			return fmt.Errorf("create collection: %w", err)
		}

		return s.audit.Write(ctx, tx, audit.LogOptions{
			BranchID:    &c.BranchID,
			UserID:      actor.UserID,
			UserName:    actor.UserName,
			EntityType:  entityCollection,
			EntityID:    c.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("استلام نقدية %s من التسليم %s بمبلغ %s", c.Number, d.Number, c.TotalCollected.StringFixed(2)),
			After:       c,
		})
	})
	if err != nil {
		return nil, err
	}

	s.notify(s.notifier.NotifyUser(ctx, nil, c.UserID, notification.Message{
		Title: "تم استلام النقدية",
		Body:  fmt.Sprintf("تم استلام نقدية التسليم بمبلغ %s", c.TotalCollected.StringFixed(2)),
		Link:  fmt.Sprintf("/cash-collections/%d", c.ID),
	}), "delivery_collected")

	return s.GetCollection(ctx, c.ID)
}

func (s *Service) VerifyCollection(ctx context.Context, actor Actor, id uint) (*models.CashCollection, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.CashCollection
		err := tx.First(&c, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(msgCollectionNotFound)
		}
		if err != nil {
			return err
		}

		res := tx.Model(&models.CashCollection{}).
			Where("id = ? AND is_verified = ?", id, false).
			Updates(map[string]any{
				"is_verified": true,
				"verified_by": actor.UserID,
				"verified_at": s.now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict(msgCollectionVerified)
		}

		return s.audit.Write(ctx, tx, audit.LogOptions{
			BranchID:    &c.BranchID,
			UserID:      actor.UserID,
			UserName:    actor.UserName,
			EntityType:  entityCollection,
			EntityID:    c.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("التحقق من الاستلام %s", c.Number),
			Before:      map[string]any{"is_verified": false},
			After:       map[string]any{"is_verified": true},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetCollection(ctx, id)
}

func (s *Service) GetCollection(ctx context.Context, id uint) (*models.CashCollection, error) {
	var c models.CashCollection
	err := s.db.WithContext(ctx).Preload("Branch").Preload("Delivery").First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(msgCollectionNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) ListCollections(ctx context.Context, f CollectionFilter) ([]models.CashCollection, error) {
	q := s.db.WithContext(ctx).Model(&models.CashCollection{}).Preload("Branch").Preload("Delivery")
	if f.BranchID != nil {
		q = q.Where("branch_id = ?", *f.BranchID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Verified != nil {
		q = q.Where("is_verified = ?", *f.Verified)
	}
	q = f.DateRange.apply(q, "collection_date")

	var items []models.CashCollection
	if err := page(q, f.Limit, f.Offset).Order("id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
