package delivery

import (
	"sunduqi-backend/internal/cashbox"
	"sunduqi-backend/internal/httpx"
	"sunduqi-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CreateMatchingRequest struct {
	BranchID    *uint            `json:"branch_id"`
	Date        string           `json:"date" validate:"omitempty,datetime=2006-01-02"`
	ActualTotal *decimal.Decimal `json:"actual_total" validate:"required"`
	Notes       string           `json:"notes" validate:"max=500"`
}

type RecountMatchingRequest struct {
	ActualTotal *decimal.Decimal `json:"actual_total" validate:"required"`
	Notes       string           `json:"notes" validate:"max=500"`
}

type ResolveMatchingRequest struct {
	Notes string `json:"notes" validate:"max=500"`
}

// -------------------------------------------------
// GET /api/cash-matching/expected?branch_id=1&date=2025-06-10
// cashiers get their own share of the day
// -------------------------------------------------
func ExpectedTotalsHandler(svc *cashbox.Service) fiber.Handler {
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

		totals, err := svc.ExpectedTotals(c.UserContext(), cashbox.Scope{
			BranchID: branchID,
			UserID:   id.ScopeUserID(),
			Date:     c.Query("date"),
		})
		if err != nil {
			return err
		}
		return c.JSON(totals)
	}
}

// -------------------------------------------------
// POST /api/cash-matching
// -------------------------------------------------
func CreateMatchingHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, actor, err := caller(c)
		if err != nil {
			return err
		}
		var body CreateMatchingRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		if err := validation.Struct(body); err != nil {
			return err
		}
		actual, err := countedTotal(body.ActualTotal)
		if err != nil {
			return err
		}
		branchID, err := id.ResolveBranchID(body.BranchID)
		if err != nil {
			return err
		}

		m, err := svc.CreateMatching(c.UserContext(), actor, cashbox.MatchingInput{
			BranchID:    branchID,
			Date:        body.Date,
			ActualTotal: actual,
			Notes:       body.Notes,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(m)
	}
}

// -------------------------------------------------
// GET /api/cash-matching?branch_id=&user_id=&resolved=&from=&to=
// -------------------------------------------------
func ListMatchingsHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _, err := caller(c)
		if err != nil {
			return err
		}
		branchID, err := httpx.QueryUint(c, "branch_id")
		if err != nil {
			return err
		}
		userID, err := httpx.QueryUint(c, "user_id")
		if err != nil {
			return err
		}
		resolved, err := httpx.QueryBool(c, "resolved")
		if err != nil {
			return err
		}
		r, err := dateRange(c)
		if err != nil {
			return err
		}
		limit, offset := httpx.Page(c)

		items, err := svc.ListMatchings(c.UserContext(), cashbox.MatchingFilter{
			BranchID:   id.ScopeBranchID(branchID),
			UserID:     userID,
			IsResolved: resolved,
			DateRange:  r,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			return err
		}
		return c.JSON(items)
	}
}

// -------------------------------------------------
// GET /api/cash-matching/:id
// -------------------------------------------------
func GetMatchingHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _, err := caller(c)
		if err != nil {
			return err
		}
		mid, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		m, err := svc.GetMatching(c.UserContext(), mid, id.ScopeBranchID(nil))
		if err != nil {
			return err
		}
		return c.JSON(m)
	}
}

// -------------------------------------------------
// PUT /api/cash-matching/:id
// recount of an unresolved matching
// -------------------------------------------------
func RecountMatchingHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, actor, err := caller(c)
		if err != nil {
			return err
		}
		mid, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body RecountMatchingRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		if err := validation.Struct(body); err != nil {
			return err
		}
		actual, err := countedTotal(body.ActualTotal)
		if err != nil {
			return err
		}

		m, err := svc.RecountMatching(c.UserContext(), actor, mid, actual, body.Notes)
		if err != nil {
			return err
		}
		return c.JSON(m)
	}
}

// -------------------------------------------------
// POST /api/cash-matching/:id/resolve (admin)
// -------------------------------------------------
func ResolveMatchingHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, actor, err := caller(c)
		if err != nil {
			return err
		}
		mid, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body ResolveMatchingRequest
		if len(c.Body()) > 0 {
			if err := httpx.Bind(c, &body); err != nil {
				return err
			}
		}
		if err := validation.Struct(body); err != nil {
			return err
		}

		m, err := svc.ResolveMatching(c.UserContext(), actor, mid, body.Notes)
		if err != nil {
			return err
		}
		return c.JSON(m)
	}
}
