package cashflow

import (
	"sunduqi-backend/internal/cashbox"
	"sunduqi-backend/internal/httpx"
	"sunduqi-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateOpeningBalanceRequest struct {
	BranchID *uint           `json:"branch_id"`
	Date     string          `json:"date" validate:"omitempty,datetime=2006-01-02"` // empty means today
	Amount   decimal.Decimal `json:"amount" validate:"gt=0"`
	Notes    string          `json:"notes" validate:"max=500"`
}

// -------------------------------------------------
// POST /api/opening-balances
// -------------------------------------------------
func CreateOpeningBalanceHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, actor, err := caller(c)
		if err != nil {
			return err
		}

		var body CreateOpeningBalanceRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		if err := validation.Struct(body); err != nil {
			return err
		}
		branchID, err := id.ResolveBranchID(body.BranchID)
		if err != nil {
			return err
		}

		ob, err := svc.CreateOpeningBalance(c.UserContext(), actor, cashbox.OpeningBalanceInput{
			BranchID: branchID,
			Date:     body.Date,
			Amount:   body.Amount,
			Notes:    body.Notes,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(ob)
	}
}

// -------------------------------------------------
// GET /api/opening-balances?branch_id=1&from=2025-06-01&to=2025-06-30
// -------------------------------------------------
func ListOpeningBalancesHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _, err := caller(c)
		if err != nil {
			return err
		}
		branchID, err := httpx.QueryUint(c, "branch_id")
		if err != nil {
			return err
		}
		r, err := dateRange(c)
		if err != nil {
			return err
		}
		limit, offset := httpx.Page(c)

		items, err := svc.ListOpeningBalances(c.UserContext(), cashbox.OpeningBalanceFilter{
			BranchID:  id.ScopeBranchID(branchID),
			DateRange: r,
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
// GET /api/opening-balances/day?branch_id=1&date=2025-06-10
// -------------------------------------------------
func GetOpeningBalanceForDayHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _, err := caller(c)
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

		ob, err := svc.OpeningBalanceFor(c.UserContext(), branchID, c.Query("date"))
		if err != nil {
			return err
		}
		return c.JSON(ob)
	}
}

// -------------------------------------------------
// DELETE /api/opening-balances/:id (admin)
// -------------------------------------------------
func DeleteOpeningBalanceHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, actor, err := caller(c)
		if err != nil {
			return err
		}
		obID, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := svc.DeleteOpeningBalance(c.UserContext(), actor, obID); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "تم حذف الرصيد الافتتاحي"})
	}
}
