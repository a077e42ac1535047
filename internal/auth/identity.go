package auth

import (
	"sunduqi-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Identity is the authenticated caller as carried by the JWT.
type Identity struct {
	UserID   uint
	Username string
	Role     models.UserRole
	BranchID *uint
}

func (i Identity) IsAdmin() bool { return i.Role == models.RoleAdmin }

// CurrentIdentity reads the caller placed in locals by JWTMiddleware.
func CurrentIdentity(c *fiber.Ctx) (Identity, error) {
	userID, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok || userID == 0 {
		return Identity{}, fiber.NewError(fiber.StatusUnauthorized, "تعذر تحديد المستخدم")
	}
	role, ok := c.Locals(CtxUserRoleKey).(models.UserRole)
	if !ok {
		return Identity{}, fiber.NewError(fiber.StatusForbidden, "تعذر تحديد صلاحية المستخدم")
	}
	username, _ := c.Locals(CtxUsernameKey).(string)
	branchID, _ := c.Locals(CtxBranchIDKey).(*uint)
	return Identity{UserID: userID, Username: username, Role: role, BranchID: branchID}, nil
}

// ResolveBranchID picks the branch a write applies to: cashiers always act on
// their own branch, admins must name one.
func (i Identity) ResolveBranchID(requested *uint) (uint, error) {
	if !i.IsAdmin() {
		if i.BranchID == nil {
			return 0, fiber.NewError(fiber.StatusForbidden, "المستخدم غير مرتبط بفرع")
		}
		return *i.BranchID, nil
	}
	if requested == nil || *requested == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "الحقل branch_id مطلوب")
	}
	return *requested, nil
}

// ScopeBranchID narrows a read: cashiers see their branch, admins see the
// requested branch or all branches when nil.
func (i Identity) ScopeBranchID(requested *uint) *uint {
	if !i.IsAdmin() {
		if i.BranchID == nil {
			// no branch means nothing to see
			zero := uint(0)
			return &zero
		}
		return i.BranchID
	}
	if requested != nil && *requested == 0 {
		return nil
	}
	return requested
}

// ScopeUserID limits cashier requests to their own rows.
func (i Identity) ScopeUserID() *uint {
	if i.IsAdmin() {
		return nil
	}
	id := i.UserID
	return &id
}
