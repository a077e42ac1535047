package notification

import (
	"sunduqi-backend/internal/auth"
	"sunduqi-backend/internal/httpx"
	"sunduqi-backend/internal/models"
	"sunduqi-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type CreateNotificationRequest struct {
	Title    string                      `json:"title" validate:"required,max=150"`
	Message  string                      `json:"message" validate:"required,max=1000"`
	Priority models.NotificationPriority `json:"priority" validate:"omitempty,oneof=low normal high"`
	Link     string                      `json:"link" validate:"max=255"`
	UserID   *uint                       `json:"user_id"`
	BranchID *uint                       `json:"branch_id"`
}

// GET /api/notifications?unread=true
func ListHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.CurrentIdentity(c)
		if err != nil {
			return err
		}
		unread, err := httpx.QueryBool(c, "unread")
		if err != nil {
			return err
		}
		limit, _ := httpx.Page(c)
		items, err := s.List(c.UserContext(), id.UserID, unread != nil && *unread, limit)
		if err != nil {
			return err
		}
		return c.JSON(items)
	}
}

// GET /api/notifications/unread-count
func UnreadCountHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.CurrentIdentity(c)
		if err != nil {
			return err
		}
		n, err := s.UnreadCount(c.UserContext(), id.UserID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"count": n})
	}
}

// PUT /api/notifications/:id/read
func MarkReadHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.CurrentIdentity(c)
		if err != nil {
			return err
		}
		nid, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		n, err := s.MarkRead(c.UserContext(), id.UserID, nid)
		if err != nil {
			return err
		}
		return c.JSON(n)
	}
}

// PUT /api/notifications/read-all
func MarkAllReadHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.CurrentIdentity(c)
		if err != nil {
			return err
		}
		n, err := s.MarkAllRead(c.UserContext(), id.UserID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"updated": n})
	}
}

// DELETE /api/notifications/:id
func DeleteHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.CurrentIdentity(c)
		if err != nil {
			return err
		}
		nid, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := s.Delete(c.UserContext(), id.UserID, nid); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/notifications (admin)
// user_id targets one user, branch_id a branch, neither everyone.
func CreateHandler(s *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateNotificationRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		if err := validation.Struct(body); err != nil {
			return err
		}

		msg := Message{Title: body.Title, Body: body.Message, Priority: body.Priority, Link: body.Link}
		if body.UserID != nil {
			if err := s.NotifyUser(c.UserContext(), nil, *body.UserID, msg); err != nil {
				return err
			}
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{"recipients": 1})
		}

		n, err := s.Broadcast(c.UserContext(), body.BranchID, msg)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"recipients": n})
	}
}
