package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sunduqi-backend/internal/apperr"
	"sunduqi-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type LogOptions struct {
	BranchID    *uint
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// UndoFunc reverts the effect of entry inside tx. It must apply the same
// rules as the regular endpoints of that entity.
type UndoFunc func(ctx context.Context, tx *gorm.DB, entry *models.AuditLog) error

type Writer struct {
	db   *gorm.DB
	log  *zap.Logger
	undo map[string]UndoFunc
}

func NewWriter(db *gorm.DB, log *zap.Logger) *Writer {
	return &Writer{db: db, log: log.Named("audit"), undo: map[string]UndoFunc{}}
}

// RegisterUndo installs the revert function for an entity type. Call at startup only.
func (w *Writer) RegisterUndo(entityType string, fn UndoFunc) {
	w.undo[entityType] = fn
}

// Write stores one entry. Pass the caller's transaction so the entry commits
// or rolls back with the change it describes; nil uses a fresh session.
func (w *Writer) Write(ctx context.Context, tx *gorm.DB, opts LogOptions) error {
	if tx == nil {
		tx = w.db.WithContext(ctx)
	}

	entry := models.AuditLog{
		BranchID:    opts.BranchID,
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  marshal(opts.Before),
		AfterData:   marshal(opts.After),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

func marshal(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

type ListFilter struct {
	BranchID   *uint
	UserID     *uint
	EntityType string
	EntityID   *uint
	Limit      int
	Offset     int
}

func (w *Writer) List(ctx context.Context, f ListFilter) ([]models.AuditLog, error) {
	q := w.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.BranchID != nil {
		q = q.Where("branch_id = ?", *f.BranchID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID != nil {
		q = q.Where("entity_id = ?", *f.EntityID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	var logs []models.AuditLog
	if err := q.Order("created_at DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// Undo reverts entry logID through the registered UndoFunc, marks it undone
// and records an "undo" entry, all in one transaction.
func (w *Writer) Undo(ctx context.Context, logID, userID uint, userName string) error {
	return w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.AuditLog
		err := tx.First(&entry, logID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("السجل غير موجود")
		}
		if err != nil {
			return err
		}

		if entry.IsUndone {
			return apperr.Conflict("تم التراجع عن هذه العملية مسبقاً")
		}
		if entry.Action == models.AuditActionUndo {
			return apperr.Invalid("لا يمكن التراجع عن عملية تراجع")
		}
		fn, ok := w.undo[entry.EntityType]
		if !ok {
			return apperr.Invalid("لا يمكن التراجع عن هذا النوع من العمليات")
		}

		if err := fn(ctx, tx, &entry); err != nil {
			return err
		}

		now := time.Now()
		res := tx.Model(&models.AuditLog{}).
			Where("id = ? AND is_undone = ?", entry.ID, false).
			Updates(map[string]any{"is_undone": true, "undone_by": userID, "undone_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("تم التراجع عن هذه العملية مسبقاً")
		}

		w.log.Info("audit entry undone", zap.Uint("log_id", entry.ID), zap.String("entity", entry.EntityType), zap.Uint("by", userID))

		return tx.Create(&models.AuditLog{
			BranchID:    entry.BranchID,
			UserID:      userID,
			UserName:    userName,
			EntityType:  entry.EntityType,
			EntityID:    entry.EntityID,
			Action:      models.AuditActionUndo,
			Description: "تراجع: " + entry.Description,
			BeforeData:  entry.AfterData,
			AfterData:   entry.BeforeData,
		}).Error
	})
}
