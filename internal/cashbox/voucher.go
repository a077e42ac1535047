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
)

const (
	entityReceipt      = "receipt"
	entityDisbursement = "disbursement"
)

// Attachment is an uploaded file already written to storage.
type Attachment struct {
	Key string
	URL string
}

type VoucherInput struct {
	BranchID      uint
	Date          string
	Amount        decimal.Decimal
	PaymentMethod models.PaymentMethod
	Counterpart   string // received_from for receipts, paid_to for disbursements
	Notes         string
	Attachment    *Attachment
}

type VoucherFilter struct {
	BranchID      *uint
	UserID        *uint
	PaymentMethod models.PaymentMethod
	Approved      *bool
	DateRange
	Limit  int
	Offset int
}

// voucher is satisfied by *models.Receipt and *models.Disbursement.
type voucher[T any] interface {
	*T
	Meta() models.VoucherMeta
}

func (s *Service) checkVoucherInput(in *VoucherInput) error {
	if !in.Amount.IsPositive() {
		return apperr.Invalid(msgAmountPositive)
	}
	if !in.PaymentMethod.Valid() {
		return apperr.Invalid(msgInvalidMethod)
	}
	if in.PaymentMethod == models.PaymentVisa && (in.Attachment == nil || in.Attachment.Key == "") {
		return apperr.Invalid(msgVisaAttachment)
	}
	date, err := s.ParseDate(in.Date)
	if err != nil {
		return err
	}
	in.Date = date
	in.Amount = in.Amount.Round(2)
	return nil
}

// checkVoucherDay requires an open, not yet transferred day on an active branch.
func checkVoucherDay(tx *gorm.DB, branchID uint, date string) error {
	if _, err := activeBranch(tx, branchID); err != nil {
		return err
	}
	opened, err := hasOpeningBalance(tx, branchID, date)
	if err != nil {
		return err
	}
	if !opened {
		return apperr.Invalid(msgOpeningMissing)
	}
	transferred, err := isTransferred(tx, branchID, date)
	if err != nil {
		return err
	}
	if transferred {
		return apperr.Conflict(msgDayTransferred)
	}
	return nil
}

func (s *Service) CreateReceipt(ctx context.Context, actor Actor, in VoucherInput) (*models.Receipt, error) {
	if err := s.checkVoucherInput(&in); err != nil {
		return nil, err
	}

	r := models.Receipt{
		BranchID:      in.BranchID,
		UserID:        actor.UserID,
		Date:          in.Date,
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
		ReceivedFrom:  in.Counterpart,
		Notes:         in.Notes,
	}
	if in.Attachment != nil {
		r.AttachmentKey, r.AttachmentURL = in.Attachment.Key, in.Attachment.URL
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkVoucherDay(tx, in.BranchID, in.Date); err != nil {
			return err
		}
		number, err := s.numbers.Receipt(tx, in.Date)
		if err != nil {
			return err
		}
		r.Number = number
		if err := tx.Create(&r).Error; err != nil {
			return fmt.Errorf("create receipt: %w", err)
		}
		return s.audit.Write(ctx, tx, audit.LogOptions{
			BranchID:    &r.BranchID,
			UserID:      actor.UserID,
			UserName:    actor.UserName,
			EntityType:  entityReceipt,
			EntityID:    r.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("سند قبض %s بمبلغ %s", r.Number, r.Amount.StringFixed(2)),
			After:       r,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetReceipt(ctx, r.ID, nil)
}

func (s *Service) CreateDisbursement(ctx context.Context, actor Actor, in VoucherInput) (*models.Disbursement, error) {
	if err := s.checkVoucherInput(&in); err != nil {
		return nil, err
	}

	d := models.Disbursement{
		BranchID:      in.BranchID,
		UserID:        actor.UserID,
		Date:          in.Date,
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
		PaidTo:        in.Counterpart,
		Notes:         in.Notes,
	}
	if in.Attachment != nil {
		d.AttachmentKey, d.AttachmentURL = in.Attachment.Key, in.Attachment.URL
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkVoucherDay(tx, in.BranchID, in.Date); err != nil {
			return err
		}
		number, err := s.numbers.Disbursement(tx, in.Date)
		if err != nil {
			return err
		}
		d.Number = number
		if err := tx.Create(&d).Error; err != nil {
			return fmt.Errorf("create disbursement: %w", err)
		}
		return s.audit.Write(ctx, tx, audit.LogOptions{
			BranchID:    &d.BranchID,
			UserID:      actor.UserID,
			UserName:    actor.UserName,
			EntityType:  entityDisbursement,
			EntityID:    d.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("سند صرف %s بمبلغ %s", d.Number, d.Amount.StringFixed(2)),
			After:       d,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.GetDisbursement(ctx, d.ID, nil)
}

// GetReceipt loads a receipt; branchScope, when set, hides other branches' rows.
func (s *Service) GetReceipt(ctx context.Context, id uint, branchScope *uint) (*models.Receipt, error) {
	return getVoucher[models.Receipt](s.db.WithContext(ctx), id, branchScope)
}

func (s *Service) GetDisbursement(ctx context.Context, id uint, branchScope *uint) (*models.Disbursement, error) {
	return getVoucher[models.Disbursement](s.db.WithContext(ctx), id, branchScope)
}

func getVoucher[T any, PT voucher[T]](db *gorm.DB, id uint, branchScope *uint) (*T, error) {
	v := new(T)
	err := db.Preload("Branch").Preload("User").First(v, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(msgVoucherNotFound)
	}
	if err != nil {
		return nil, err
	}
	if branchScope != nil && PT(v).Meta().BranchID != *branchScope {
		return nil, apperr.NotFound(msgVoucherNotFound)
	}
	return v, nil
}

func (s *Service) ListReceipts(ctx context.Context, f VoucherFilter) ([]models.Receipt, error) {
	var items []models.Receipt
	err := voucherQuery(s.db.WithContext(ctx).Model(&models.Receipt{}), f).Find(&items).Error
	return items, err
}

func (s *Service) ListDisbursements(ctx context.Context, f VoucherFilter) ([]models.Disbursement, error) {
	var items []models.Disbursement
	err := voucherQuery(s.db.WithContext(ctx).Model(&models.Disbursement{}), f).Find(&items).Error
	return items, err
}

func voucherQuery(q *gorm.DB, f VoucherFilter) *gorm.DB {
	q = q.Preload("Branch").Preload("User")
	if f.BranchID != nil {
		q = q.Where("branch_id = ?", *f.BranchID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.PaymentMethod != "" {
		q = q.Where("payment_method = ?", f.PaymentMethod)
	}
	if f.Approved != nil {
		q = q.Where("is_approved = ?", *f.Approved)
	}
	q = f.DateRange.apply(q, "date")
	return page(q, f.Limit, f.Offset).Order("created_at DESC, id DESC")
}

func (s *Service) ApproveReceipt(ctx context.Context, actor Actor, id uint) (*models.Receipt, error) {
	if err := approveVoucher[models.Receipt](ctx, s, actor, entityReceipt, id); err != nil {
		return nil, err
	}
	return s.GetReceipt(ctx, id, nil)
}

func (s *Service) ApproveDisbursement(ctx context.Context, actor Actor, id uint) (*models.Disbursement, error) {
	if err := approveVoucher[models.Disbursement](ctx, s, actor, entityDisbursement, id); err != nil {
		return nil, err
	}
	return s.GetDisbursement(ctx, id, nil)
}

func approveVoucher[T any, PT voucher[T]](ctx context.Context, s *Service, actor Actor, entity string, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v := new(T)
		err := tx.First(v, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(msgVoucherNotFound)
		}
		if err != nil {
			return err
		}

		res := tx.Model(v).Where("is_approved = ?", false).Updates(map[string]any{
			"is_approved": true,
			"approved_by": actor.UserID,
			"approved_at": s.now(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict(msgVoucherApproved)
		}

		meta := PT(v).Meta()
		return s.audit.Write(ctx, tx, audit.LogOptions{
			BranchID:    &meta.BranchID,
			UserID:      actor.UserID,
			UserName:    actor.UserName,
			EntityType:  entity,
			EntityID:    meta.ID,
			Action:      models.AuditActionUpdate,
			Description: "اعتماد السند",
			Before:      map[string]any{"is_approved": false},
			After:       map[string]any{"is_approved": true},
		})
	})
}

func (s *Service) DeleteReceipt(ctx context.Context, actor Actor, id uint, branchScope *uint) error {
	return deleteVoucher[models.Receipt](ctx, s, actor, entityReceipt, id, branchScope)
}

func (s *Service) DeleteDisbursement(ctx context.Context, actor Actor, id uint, branchScope *uint) error {
	return deleteVoucher[models.Disbursement](ctx, s, actor, entityDisbursement, id, branchScope)
}

func deleteVoucher[T any, PT voucher[T]](ctx context.Context, s *Service, actor Actor, entity string, id uint, branchScope *uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := getVoucher[T, PT](tx, id, branchScope)
		if err != nil {
			return err
		}
		if err := deleteVoucherTx[T, PT](tx, v); err != nil {
			return err
		}

		meta := PT(v).Meta()
		return s.audit.Write(ctx, tx, audit.LogOptions{
			BranchID:    &meta.BranchID,
			UserID:      actor.UserID,
			UserName:    actor.UserName,
			EntityType:  entity,
			EntityID:    meta.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("حذف سند بمبلغ %s بتاريخ %s", meta.Amount.StringFixed(2), meta.Date),
			Before:      v,
		})
	})
}

// deleteVoucherTx soft-deletes v. Approved vouchers and vouchers of a matched
// or transferred day stay untouched.
func deleteVoucherTx[T any, PT voucher[T]](tx *gorm.DB, v *T) error {
	meta := PT(v).Meta()
	if meta.IsApproved {
		return apperr.Conflict(msgVoucherImmutable)
	}
	transferred, err := isTransferred(tx, meta.BranchID, meta.Date)
	if err != nil {
		return err
	}
	if transferred {
		return apperr.Conflict(msgDayTransferred)
	}
	matched, err := dayMatched(tx, meta)
	if err != nil {
		return err
	}
	if matched {
		return apperr.Conflict(msgVoucherMatched)
	}
	return tx.Delete(v).Error
}

// dayMatched reports whether the voucher's day is covered by its author's
// matching or by a branch-wide one.
func dayMatched(tx *gorm.DB, meta models.VoucherMeta) (bool, error) {
	return exists(tx.Model(&models.CashMatching{}).
		Where("branch_id = ? AND date = ? AND (user_id = ? OR is_branch_wide = ?)", meta.BranchID, meta.Date, meta.UserID, true))
}

// restoreVoucherTx undoes a soft delete while the day is still open.
func restoreVoucherTx[T any, PT voucher[T]](tx *gorm.DB, id uint) error {
	v := new(T)
	err := tx.Unscoped().First(v, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(msgVoucherNotFound)
	}
	if err != nil {
		return err
	}
	meta := PT(v).Meta()
	if err := checkVoucherDay(tx, meta.BranchID, meta.Date); err != nil {
		return err
	}
	matched, err := dayMatched(tx, meta)
	if err != nil {
		return err
	}
	if matched {
		return apperr.Conflict(msgVoucherMatched)
	}
	return tx.Unscoped().Model(v).Update("deleted_at", nil).Error
}
