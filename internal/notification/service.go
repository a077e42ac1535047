// Package notification stores per-user messages and emits them on workflow events.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sunduqi-backend/internal/apperr"
	"sunduqi-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Message struct {
	Title    string
	Body     string
	Priority models.NotificationPriority
	Link     string
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log.Named("notification")}
}

func (s *Service) session(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db.WithContext(ctx)
}

// NotifyUser sends msg to one user. tx may be nil.
func (s *Service) NotifyUser(ctx context.Context, tx *gorm.DB, userID uint, msg Message) error {
	return s.create(s.session(ctx, tx), []uint{userID}, msg)
}

// NotifyAdmins sends msg to every active admin.
func (s *Service) NotifyAdmins(ctx context.Context, tx *gorm.DB, msg Message) error {
	db := s.session(ctx, tx)
	var ids []uint
	if err := db.Model(&models.User{}).
		Where("role = ? AND is_active = ?", models.RoleAdmin, true).
		Pluck("id", &ids).Error; err != nil {
		return fmt.Errorf("load admins: %w", err)
	}
	return s.create(db, ids, msg)
}

// Broadcast sends msg to the active users of a branch, or to everyone when branchID is nil.
// It returns the number of recipients.
func (s *Service) Broadcast(ctx context.Context, branchID *uint, msg Message) (int, error) {
	db := s.db.WithContext(ctx)
	q := db.Model(&models.User{}).Where("is_active = ?", true)
	if branchID != nil {
		q = q.Where("branch_id = ?", *branchID)
	}
	var ids []uint
	if err := q.Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("load recipients: %w", err)
	}
	if err := s.create(db, ids, msg); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (s *Service) create(db *gorm.DB, userIDs []uint, msg Message) error {
	if len(userIDs) == 0 {
		return nil
	}
	priority := msg.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	rows := make([]models.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		rows = append(rows, models.Notification{
			UserID:   id,
			Title:    msg.Title,
			Message:  msg.Body,
			Priority: priority,
			Link:     msg.Link,
		})
	}
	if err := db.Create(&rows).Error; err != nil {
		return fmt.Errorf("create notifications: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]models.Notification, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var items []models.Notification
	if err := q.Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).Count(&n).Error
	return n, err
}

func (s *Service) MarkRead(ctx context.Context, userID, id uint) (*models.Notification, error) {
	var n models.Notification
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("الإشعار غير موجود")
	}
	if err != nil {
		return nil, err
	}
	if n.IsRead {
		return &n, nil
	}
	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&n).Updates(map[string]any{"is_read": true, "read_at": now}).Error; err != nil {
		return nil, err
	}
	n.IsRead = true
	n.ReadAt = &now
	return &n, nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": time.Now()})
	return res.RowsAffected, res.Error
}

func (s *Service) Delete(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("الإشعار غير موجود")
	}
	return nil
}
