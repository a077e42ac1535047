package delivery

import (
	"sunduqi-backend/internal/apperr"
	"sunduqi-backend/internal/cashbox"
	"sunduqi-backend/internal/httpx"
	"sunduqi-backend/internal/models"
	"sunduqi-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type DeliverRequest struct {
	BranchID *uint                `json:"branch_id"`
	Date     string               `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Mode     cashbox.DeliveryMode `json:"mode" validate:"omitempty,oneof=deliver close_only deliver_after_closure"`
	Notes    string               `json:"notes" validate:"max=500"`
}

type CollectRequest struct {
	DeliveryID uint   `json:"delivery_id" validate:"required"`
	Notes      string `json:"notes" validate:"max=500"`
}

// -------------------------------------------------
// POST /api/cash-deliveries
// mode: deliver (default) | close_only | deliver_after_closure
// -------------------------------------------------
func DeliverHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, actor, err := caller(c)
		if err != nil {
			return err
		}
		var body DeliverRequest
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

		d, err := svc.Deliver(c.UserContext(), actor, cashbox.DeliveryInput{
			BranchID: branchID,
			Date:     body.Date,
			Mode:     body.Mode,
			Notes:    body.Notes,
		})
		if err != nil {
			return err
		}
		status := fiber.StatusCreated
		if body.Mode == cashbox.ModeDeliverAfterClosure {
			status = fiber.StatusOK
		}
		return c.Status(status).JSON(d)
	}
}

// -------------------------------------------------
// GET /api/cash-deliveries?branch_id=&user_id=&status=&from=&to=
// -------------------------------------------------
func ListDeliveriesHandler(svc *cashbox.Service) fiber.Handler {
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
		status := models.DeliveryStatus(c.Query("status"))
		switch status {
		case "", models.DeliveryClosed, models.DeliveryDelivered, models.DeliveryVerified, models.DeliveryCollected:
		default:
			return apperr.Invalid("قيمة status غير صالحة (closed|delivered|verified|collected)")
		}
		r, err := dateRange(c)
		if err != nil {
			return err
		}
		limit, offset := httpx.Page(c)

		items, err := svc.ListDeliveries(c.UserContext(), cashbox.DeliveryFilter{
			BranchID:  id.ScopeBranchID(branchID),
			UserID:    userID,
			Status:    status,
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
// GET /api/cash-deliveries/:id
// -------------------------------------------------
func GetDeliveryHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _, err := caller(c)
		if err != nil {
			return err
		}
		did, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		d, err := svc.GetDelivery(c.UserContext(), did, id.ScopeBranchID(nil))
		if err != nil {
			return err
		}
		return c.JSON(d)
	}
}

// -------------------------------------------------
// GET /api/cash-deliveries/matched-confirmed-total?branch_id=&date=
// -------------------------------------------------
func MatchedConfirmedTotalHandler(svc *cashbox.Service) fiber.Handler {
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
		date, err := httpx.QueryDate(c, "date")
		if err != nil {
			return err
		}
		if date != "" {
			r = cashbox.DateRange{From: date, To: date}
		}

		total, err := svc.MatchedConfirmedTotal(c.UserContext(), id.ScopeBranchID(branchID), r)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"total": total})
	}
}

// -------------------------------------------------
// POST /api/cash-deliveries/:id/verify (admin)
// -------------------------------------------------
func VerifyDeliveryHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, actor, err := caller(c)
		if err != nil {
			return err
		}
		did, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		d, err := svc.VerifyDelivery(c.UserContext(), actor, did)
		if err != nil {
			return err
		}
		return c.JSON(d)
	}
}

// -------------------------------------------------
// POST /api/cash-collections (admin)
// -------------------------------------------------
func CollectHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, actor, err := caller(c)
		if err != nil {
			return err
		}
		var body CollectRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		if err := validation.Struct(body); err != nil {
			return err
		}

		col, err := svc.Collect(c.UserContext(), actor, cashbox.CollectionInput{
			DeliveryID: body.DeliveryID,
			Notes:      body.Notes,
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(col)
	}
}

// -------------------------------------------------
// GET /api/cash-collections?branch_id=&user_id=&verified=&from=&to= (admin)
// -------------------------------------------------
func ListCollectionsHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := httpx.QueryUint(c, "branch_id")
		if err != nil {
			return err
		}
		userID, err := httpx.QueryUint(c, "user_id")
		if err != nil {
			return err
		}
		verified, err := httpx.QueryBool(c, "verified")
		if err != nil {
			return err
		}
		r, err := dateRange(c)
		if err != nil {
			return err
		}
		limit, offset := httpx.Page(c)

		items, err := svc.ListCollections(c.UserContext(), cashbox.CollectionFilter{
			BranchID:  branchID,
			UserID:    userID,
			Verified:  verified,
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
// POST /api/cash-collections/:id/verify (admin)
// -------------------------------------------------
func VerifyCollectionHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, actor, err := caller(c)
		if err != nil {
			return err
		}
		cid, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		col, err := svc.VerifyCollection(c.UserContext(), actor, cid)
		if err != nil {
			return err
		}
		return c.JSON(col)
	}
}
