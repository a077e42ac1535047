// Package banking serves the bank transfer endpoints.
package banking

import (
	"sunduqi-backend/internal/auth"
	"sunduqi-backend/internal/cashbox"
	"sunduqi-backend/internal/httpx"
	"sunduqi-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ConfirmTransferRequest struct {
	BranchID           uint             `json:"branch_id" validate:"required"`
	Date               string           `json:"date" validate:"omitempty,datetime=2006-01-02"`
	TotalReceipts      *decimal.Decimal `json:"total_receipts"`
	TotalDisbursements *decimal.Decimal `json:"total_disbursements"`
	FinalBalance       *decimal.Decimal `json:"final_balance"`
	Notes              string           `json:"notes" validate:"max=500"`
}

// -------------------------------------------------
// POST /api/bank-transfers/confirm (admin)
// -------------------------------------------------
func ConfirmTransferHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.CurrentIdentity(c)
		if err != nil {
			return err
		}
		var body ConfirmTransferRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		if err := validation.Struct(body); err != nil {
			return err
		}

		bt, err := svc.ConfirmTransfer(c.UserContext(),
			cashbox.Actor{UserID: id.UserID, UserName: id.Username, Admin: id.IsAdmin()},
			cashbox.TransferInput{
				BranchID:           body.BranchID,
				Date:               body.Date,
				TotalReceipts:      body.TotalReceipts,
				TotalDisbursements: body.TotalDisbursements,
				FinalBalance:       body.FinalBalance,
				Notes:              body.Notes,
			})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":  "تم ترحيل اليوم إلى البنك بنجاح",
			"transfer": bt,
		})
	}
}

// -------------------------------------------------
// GET /api/bank-transfers/check?branch_id=1&date=2025-06-10
// -------------------------------------------------
func CheckTransferHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.CurrentIdentity(c)
		if err != nil {
			return err
		}
		requested, err := httpx.QueryUint(c, "branch_id")
		if err != nil {
			return err
		}
		branchID, err := id.ResolveBranchID(requested)
		if err != nil {
			return err
		}

		done, err := svc.IsTransferred(c.UserContext(), branchID, c.Query("date"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"isTransferred": done})
	}
}

// -------------------------------------------------
// GET /api/bank-transfers/preview?branch_id=1&date=2025-06-10 (admin)
// -------------------------------------------------
func PreviewTransferHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := httpx.QueryUint(c, "branch_id")
		if err != nil {
			return err
		}
		if branchID == nil {
			return fiber.NewError(fiber.StatusBadRequest, "الحقل branch_id مطلوب")
		}

		p, err := svc.PreviewTransfer(c.UserContext(), *branchID, c.Query("date"))
		if err != nil {
			return err
		}
		return c.JSON(p)
	}
}

// -------------------------------------------------
// GET /api/bank-transfers?branch_id=&from=&to= (admin)
// -------------------------------------------------
func ListTransfersHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := httpx.QueryUint(c, "branch_id")
		if err != nil {
			return err
		}
		from, to, err := httpx.DateRange(c)
		if err != nil {
			return err
		}
		limit, offset := httpx.Page(c)

		items, err := svc.ListTransfers(c.UserContext(), cashbox.TransferFilter{
			BranchID:  branchID,
			DateRange: cashbox.DateRange{From: from, To: to},
			Limit:     limit,
			Offset:    offset,
		})
		if err != nil {
			return err
		}
		return c.JSON(items)
	}
}

// -------------------------------------------------
// GET /api/bank-transfers/summary?from=&to= (admin)
// -------------------------------------------------
func TransferSummaryHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := httpx.DateRange(c)
		if err != nil {
			return err
		}
		summary, err := svc.TransferSummary(c.UserContext(), cashbox.DateRange{From: from, To: to})
		if err != nil {
			return err
		}
		return c.JSON(summary)
	}
}
