package cashbox

import (
	"context"
	"errors"

	"sunduqi-backend/internal/apperr"
	"sunduqi-backend/internal/audit"
	"sunduqi-backend/internal/models"

	"gorm.io/gorm"
)

const msgUndoUnsupported = "لا يمكن التراجع عن هذه العملية"

// RegisterUndo installs the revert functions for the entities whose delete
// endpoints have an inverse: a create is undone by deleting, a delete by restoring.
func (s *Service) RegisterUndo(w *audit.Writer) {
	w.RegisterUndo(entityReceipt, undoVoucher[models.Receipt])
	w.RegisterUndo(entityDisbursement, undoVoucher[models.Disbursement])
	w.RegisterUndo(entityOpeningBalance, undoOpeningBalance)
}

func undoVoucher[T any, PT voucher[T]](_ context.Context, tx *gorm.DB, entry *models.AuditLog) error {
	switch entry.Action {
	case models.AuditActionCreate:
		v := new(T)
		err := tx.First(v, entry.EntityID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(msgVoucherNotFound)
		}
		if err != nil {
			return err
		}
		return deleteVoucherTx[T, PT](tx, v)
	case models.AuditActionDelete:
		return restoreVoucherTx[T, PT](tx, entry.EntityID)
	}
	return apperr.Invalid(msgUndoUnsupported)
}

func undoOpeningBalance(_ context.Context, tx *gorm.DB, entry *models.AuditLog) error {
	switch entry.Action {
	case models.AuditActionCreate:
		var ob models.OpeningBalance
		err := tx.First(&ob, entry.EntityID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound(msgOpeningNotFound)
		}
		if err != nil {
			return err
		}
		return deleteOpeningBalanceTx(tx, &ob)
	case models.AuditActionDelete:
		return restoreOpeningBalanceTx(tx, entry.EntityID)
	}
	return apperr.Invalid(msgUndoUnsupported)
}
