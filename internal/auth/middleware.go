package auth

import (
	"errors"
	"strings"

	"sunduqi-backend/internal/apperr"
	"sunduqi-backend/internal/config"
	"sunduqi-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUsernameKey = "username"
	CtxUserRoleKey = "user_role"
	CtxBranchIDKey = "branch_id"
)

func JWTMiddleware(cfg config.JWTConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "ترويسة التفويض مفقودة")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "صيغة التفويض يجب أن تكون 'Bearer <token>'")
		}

		claims, err := ParseToken(cfg.Secret, parts[1])
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "الرمز غير صالح أو منتهي الصلاحية")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUsernameKey, claims.Username)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxBranchIDKey, claims.BranchID)

		return c.Next()
	}
}

// ActiveUser reloads the caller behind the token on every request. Deleted or
// deactivated accounts are turned away and role and branch come from the
// stored user, so a moved cashier acts on the new branch right away.
func ActiveUser(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(CtxUserIDKey).(uint)
		if !ok || userID == 0 {
			return fiber.NewError(fiber.StatusUnauthorized, "تعذر تحديد المستخدم")
		}

		var user models.User
		err := db.WithContext(c.UserContext()).
			Select("id", "username", "role", "branch_id", "is_active").
			First(&user, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "المستخدم غير موجود")
		}
		if err != nil {
			return err
		}
		if !user.IsActive {
			return apperr.Forbidden("الحساب معطل")
		}

		c.Locals(CtxUsernameKey, user.Username)
		c.Locals(CtxUserRoleKey, user.Role)
		c.Locals(CtxBranchIDKey, user.BranchID)
		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "تعذر تحديد صلاحية المستخدم")
		}
		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "ليس لديك صلاحية لهذا الإجراء")
	}
}
