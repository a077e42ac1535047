package dashboard

import (
	"sunduqi-backend/internal/auth"
	"sunduqi-backend/internal/httpx"

	"github.com/gofiber/fiber/v2"
)

// GET /api/dashboard/stats?branch_id=1
// cashiers always get their own branch
func StatsHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.CurrentIdentity(c)
		if err != nil {
			return err
		}
		branchID, err := httpx.QueryUint(c, "branch_id")
		if err != nil {
			return err
		}

		stats, err := s.Stats(c.UserContext(), id.ScopeBranchID(branchID), id.UserID)
		if err != nil {
			return err
		}
		return c.JSON(stats)
	}
}

// GET /api/dashboard/cash-chart?period=daily&count=7&branch_id=1
func CashChartHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.CurrentIdentity(c)
		if err != nil {
			return err
		}
		branchID, err := httpx.QueryUint(c, "branch_id")
		if err != nil {
			return err
		}

		chart, err := s.CashChart(c.UserContext(), id.ScopeBranchID(branchID), c.Query("period", "daily"), c.QueryInt("count", 0))
		if err != nil {
			return err
		}
		return c.JSON(chart)
	}
}

// InvalidateOnWrite drops cached stats after every successful write request
// of the routes it is mounted on.
func InvalidateOnWrite(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err != nil || c.Method() == fiber.MethodGet {
			return err
		}
		if c.Response().StatusCode() < fiber.StatusBadRequest {
			s.Invalidate(c.UserContext())
		}
		return nil
	}
}
