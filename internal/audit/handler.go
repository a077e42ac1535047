package audit

import (
	"sunduqi-backend/internal/auth"
	"sunduqi-backend/internal/httpx"

	"github.com/gofiber/fiber/v2"
)

// GET /api/audit-logs?entity_type=receipt&entity_id=1&branch_id=1&user_id=2
func ListAuditLogsHandler(w *Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := httpx.QueryUint(c, "branch_id")
		if err != nil {
			return err
		}
		userID, err := httpx.QueryUint(c, "user_id")
		if err != nil {
			return err
		}
		entityID, err := httpx.QueryUint(c, "entity_id")
		if err != nil {
			return err
		}
		limit, offset := httpx.Page(c)

		logs, err := w.List(c.UserContext(), ListFilter{
			BranchID:   branchID,
			UserID:     userID,
			EntityType: c.Query("entity_type"),
			EntityID:   entityID,
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			return err
		}
		return c.JSON(logs)
	}
}

// POST /api/audit-logs/:id/undo
func UndoAuditLogHandler(w *Writer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		logID, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		id, err := auth.CurrentIdentity(c)
		if err != nil {
			return err
		}

		if err := w.Undo(c.UserContext(), logID, id.UserID, id.Username); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "تم التراجع عن العملية بنجاح"})
	}
}
