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

const entityBankTransfer = "bank_transfer"

// TransferInput carries the totals the client saw; nil totals are not compared.
type TransferInput struct {
	BranchID           uint
	Date               string
	TotalReceipts      *decimal.Decimal
	TotalDisbursements *decimal.Decimal
	FinalBalance       *decimal.Decimal
	Notes              string
}

type TransferPreview struct {
	BranchID           uint            `json:"branch_id"`
	Date               string          `json:"date"`
	TotalReceipts      decimal.Decimal `json:"total_receipts"`
	TotalDisbursements decimal.Decimal `json:"total_disbursements"`
	FinalBalance       decimal.Decimal `json:"final_balance"`
	IsTransferred      bool            `json:"is_transferred"`
}

type TransferFilter struct {
	BranchID *uint
	DateRange
	Limit  int
	Offset int
}

type BranchTransferSummary struct {
	BranchID           uint            `json:"branch_id"`
	BranchName         string          `json:"branch_name"`
	TotalReceipts      decimal.Decimal `json:"total_receipts"`
	TotalDisbursements decimal.Decimal `json:"total_disbursements"`
	NetBalance         decimal.Decimal `json:"net_balance"`
	Transferred        decimal.Decimal `json:"transferred"`
	Remaining          decimal.Decimal `json:"remaining"`
}

type TransferSummary struct {
	Branches           []BranchTransferSummary `json:"branches"`
	TotalReceipts      decimal.Decimal         `json:"total_receipts"`
	TotalDisbursements decimal.Decimal         `json:"total_disbursements"`
	NetBalance         decimal.Decimal         `json:"net_balance"`
	Transferred        decimal.Decimal         `json:"transferred"`
	Remaining          decimal.Decimal         `json:"remaining"`
}

func (s *Service) transferDate(raw string) (string, error) {
	date, err := s.ParseDate(raw)
	if err != nil {
		return "", err
	}
	if date > s.Today() {
		return "", apperr.Invalid(msgFutureDate)
	}
	return date, nil
}

func transferTotals(db *gorm.DB, branchID uint, date string) (TransferPreview, error) {
	t, err := dayTotals(db, Scope{BranchID: branchID, Date: date})
	if err != nil {
		return TransferPreview{}, err
	}
	return TransferPreview{
		BranchID:           branchID,
		Date:               date,
		TotalReceipts:      t.TotalReceipts,
		TotalDisbursements: t.TotalDisbursements,
		FinalBalance:       t.TotalReceipts.Sub(t.TotalDisbursements),
	}, nil
}

// PreviewTransfer shows what ConfirmTransfer would record for the branch and day.
func (s *Service) PreviewTransfer(ctx context.Context, branchID uint, rawDate string) (*TransferPreview, error) {
	date, err := s.transferDate(rawDate)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if err := branchExists(db, branchID); err != nil {
		return nil, err
	}
	p, err := transferTotals(db, branchID, date)
	if err != nil {
		return nil, err
	}
	if p.IsTransferred, err = isTransferred(db, branchID, date); err != nil {
		return nil, err
	}
	return &p, nil
}

// ConfirmTransfer records the branch/day balance as sent to the bank. Totals
// are recomputed server side; client totals that no longer match are rejected.
func (s *Service) ConfirmTransfer(ctx context.Context, actor Actor, in TransferInput) (*models.BankTransfer, error) {
	date, err := s.transferDate(in.Date)
	if err != nil {
		return nil, err
	}

	var bt models.BankTransfer
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := branchExists(tx, in.BranchID); err != nil {
			return err
		}
		p, err := transferTotals(tx, in.BranchID, date)
		if err != nil {
			return err
		}
		if stale(in.TotalReceipts, p.TotalReceipts) ||
			stale(in.TotalDisbursements, p.TotalDisbursements) ||
			stale(in.FinalBalance, p.FinalBalance) {
			return apperr.Invalid(msgStaleTotals)
		}

		bt = models.BankTransfer{
			BranchID:           in.BranchID,
			Date:               date,
			TotalReceipts:      p.TotalReceipts,
			TotalDisbursements: p.TotalDisbursements,
			FinalBalance:       p.FinalBalance,
			TransferredBy:      actor.UserID,
			TransferredAt:      s.now(),
			Notes:              in.Notes,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&bt)
		if res.Error != nil {
			return fmt.Errorf("create bank transfer: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Duplicate(msgTransferDuplicate)
		}

		return s.audit.Write(ctx, tx, audit.LogOptions{
			BranchID:    &bt.BranchID,
			UserID:      actor.UserID,
			UserName:    actor.UserName,
			EntityType:  entityBankTransfer,
			EntityID:    bt.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("ترحيل %s إلى البنك بتاريخ %s", bt.FinalBalance.StringFixed(2), bt.Date),
			After:       bt,
		})
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Preload("Branch").First(&bt, bt.ID).Error; err != nil {
		return nil, err
	}
	return &bt, nil
}

func stale(client *decimal.Decimal, server decimal.Decimal) bool {
	return client != nil && !client.Round(2).Equal(server)
}

func branchExists(db *gorm.DB, id uint) error {
	var b models.Branch
	err := db.Select("id").First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(msgBranchNotFound)
	}
	return err
}

func (s *Service) IsTransferred(ctx context.Context, branchID uint, rawDate string) (bool, error) {
	date, err := s.ParseDate(rawDate)
	if err != nil {
		return false, err
	}
	return isTransferred(s.db.WithContext(ctx), branchID, date)
}

func (s *Service) ListTransfers(ctx context.Context, f TransferFilter) ([]models.BankTransfer, error) {
	q := s.db.WithContext(ctx).Model(&models.BankTransfer{}).Preload("Branch")
	if f.BranchID != nil {
		q = q.Where("branch_id = ?", *f.BranchID)
	}
	q = f.DateRange.apply(q, "date")

	var items []models.BankTransfer
	if err := page(q, f.Limit, f.Offset).Order("date DESC, id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// TransferSummary aggregates every active branch: what it took in, what it
// paid out and how much of the net already reached the bank.
func (s *Service) TransferSummary(ctx context.Context, r DateRange) (*TransferSummary, error) {
	db := s.db.WithContext(ctx)

	var branches []models.Branch
	if err := db.Where("is_active = ?", true).Order("name").Find(&branches).Error; err != nil {
		return nil, err
	}

	out := &TransferSummary{Branches: make([]BranchTransferSummary, 0, len(branches))}
	for _, b := range branches {
		row := BranchTransferSummary{BranchID: b.ID, BranchName: b.Name}

		var err error
		row.TotalReceipts, err = sumAmount(r.apply(db.Model(&models.Receipt{}).Where("branch_id = ?", b.ID), "date"))
		if err != nil {
			return nil, err
		}
		row.TotalDisbursements, err = sumAmount(r.apply(db.Model(&models.Disbursement{}).Where("branch_id = ?", b.ID), "date"))
		if err != nil {
			return nil, err
		}
		row.Transferred, err = sumColumn(r.apply(db.Model(&models.BankTransfer{}).Where("branch_id = ?", b.ID), "date"), "final_balance")
		if err != nil {
			return nil, err
		}
		row.NetBalance = row.TotalReceipts.Sub(row.TotalDisbursements)
		row.Remaining = row.NetBalance.Sub(row.Transferred)

		out.TotalReceipts = out.TotalReceipts.Add(row.TotalReceipts)
		out.TotalDisbursements = out.TotalDisbursements.Add(row.TotalDisbursements)
		out.NetBalance = out.NetBalance.Add(row.NetBalance)
		out.Transferred = out.Transferred.Add(row.Transferred)
		out.Remaining = out.Remaining.Add(row.Remaining)
		out.Branches = append(out.Branches, row)
	}
	return out, nil
}
