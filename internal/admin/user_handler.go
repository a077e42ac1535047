package admin

import (
	"errors"
	"strings"

	"sunduqi-backend/internal/apperr"
	"sunduqi-backend/internal/auth"
	"sunduqi-backend/internal/httpx"
	"sunduqi-backend/internal/models"
	"sunduqi-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	msgUserNotFound     = "المستخدم غير موجود"
	msgUsernameTaken    = "اسم المستخدم مستخدم بالفعل"
	msgInvalidRole      = "الدور غير صالح"
	msgCashierBranch    = "يجب تحديد فرع نشط لأمين الصندوق"
	msgSelfChange       = "لا يمكنك تعطيل حسابك أو تغيير دورك أو حذفه"
	msgUserHasDocuments = "لا يمكن حذف مستخدم لديه مستندات، قم بتعطيله بدلاً من ذلك"
)

type CreateUserRequest struct {
	Name     string          `json:"name" validate:"required,max=100"`
	Username string          `json:"username" validate:"required,min=3,max=100"`
	Password string          `json:"password" validate:"required,min=8"`
	Role     models.UserRole `json:"role" validate:"required"`
	BranchID *uint           `json:"branch_id"`
}

type UpdateUserRequest struct {
	Name     *string          `json:"name" validate:"omitempty,max=100"`
	Role     *models.UserRole `json:"role"`
	BranchID *uint            `json:"branch_id"`
	IsActive *bool            `json:"is_active"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

func loadUser(db *gorm.DB, id uint) (*models.User, error) {
	var u models.User
	err := db.Preload("Branch").First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// checkAssignment enforces that cashiers belong to an active branch.
func checkAssignment(db *gorm.DB, role models.UserRole, branchID *uint) error {
	if !role.Valid() {
		return apperr.Invalid(msgInvalidRole)
	}
	if branchID == nil {
		if role == models.RoleCasher {
			return apperr.Invalid(msgCashierBranch)
		}
		return nil
	}
	var n int64
	if err := db.Model(&models.Branch{}).
		Where("id = ? AND is_active = ?", *branchID, true).
		Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.Invalid(msgCashierBranch)
	}
	return nil
}

// ----------------------------------------
// POST /api/admin/users
// ----------------------------------------
func CreateUserHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		body.Username = strings.TrimSpace(strings.ToLower(body.Username))
		body.Name = strings.TrimSpace(body.Name)
		if err := validation.Struct(body); err != nil {
			return err
		}

		tx := db.WithContext(c.UserContext())
		if err := checkAssignment(tx, body.Role, body.BranchID); err != nil {
			return err
		}

		var n int64
		if err := tx.Model(&models.User{}).Where("username = ?", body.Username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.Duplicate(msgUsernameTaken)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		user := models.User{
			Name:         body.Name,
			Username:     body.Username,
			PasswordHash: string(hash),
			Role:         body.Role,
			BranchID:     body.BranchID,
			IsActive:     true,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		created, err := loadUser(tx, user.ID)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(created)
	}
}

// ----------------------------------------
// GET /api/admin/users?branch_id=&role=&active=
// ----------------------------------------
func ListUsersHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		branchID, err := httpx.QueryUint(c, "branch_id")
		if err != nil {
			return err
		}
		active, err := httpx.QueryBool(c, "active")
		if err != nil {
			return err
		}

		q := db.WithContext(c.UserContext()).Preload("Branch").Order("name")
		if branchID != nil {
			q = q.Where("branch_id = ?", *branchID)
		}
		if role := models.UserRole(c.Query("role")); role != "" {
			if !role.Valid() {
				return apperr.Invalid(msgInvalidRole)
			}
			q = q.Where("role = ?", role)
		}
		if active != nil {
			q = q.Where("is_active = ?", *active)
		}

		var users []models.User
		if err := q.Find(&users).Error; err != nil {
			return err
		}
		return c.JSON(users)
	}
}

// ----------------------------------------
// GET /api/admin/users/:id
// ----------------------------------------
func GetUserHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		user, err := loadUser(db.WithContext(c.UserContext()), id)
		if err != nil {
			return err
		}
		return c.JSON(user)
	}
}

// ----------------------------------------
// PUT /api/admin/users/:id
// ----------------------------------------
func UpdateUserHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		me, err := auth.CurrentIdentity(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateUserRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		if err := validation.Struct(body); err != nil {
			return err
		}

		tx := db.WithContext(c.UserContext())
		user, err := loadUser(tx, id)
		if err != nil {
			return err
		}

		if id == me.UserID {
			if (body.IsActive != nil && !*body.IsActive) || (body.Role != nil && *body.Role != user.Role) {
				return apperr.Forbidden(msgSelfChange)
			}
		}

		role, branchID := user.Role, user.BranchID
		if body.Role != nil {
			role = *body.Role
		}
		if body.BranchID != nil {
			branchID = body.BranchID
		}
		if body.Role != nil || body.BranchID != nil {
			if err := checkAssignment(tx, role, branchID); err != nil {
				return err
			}
		}

		updates := map[string]any{}
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return apperr.Invalid("الاسم لا يمكن أن يكون فارغاً")
			}
			updates["name"] = name
		}
		if body.Role != nil {
			updates["role"] = role
		}
		if body.BranchID != nil {
			updates["branch_id"] = *branchID
		}
		if body.IsActive != nil {
			updates["is_active"] = *body.IsActive
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		user, err = loadUser(tx, id)
		if err != nil {
			return err
		}
		return c.JSON(user)
	}
}

// ----------------------------------------
// PUT /api/admin/users/:id/password
// ----------------------------------------
func ResetPasswordHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body ResetPasswordRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		if err := validation.Struct(body); err != nil {
			return err
		}

		tx := db.WithContext(c.UserContext())
		if _, err := loadUser(tx, id); err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", id).
			Update("password_hash", string(hash)).Error; err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "تم تغيير كلمة المرور"})
	}
}

// ----------------------------------------
// DELETE /api/admin/users/:id
// ----------------------------------------
func DeleteUserHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		me, err := auth.CurrentIdentity(c)
		if err != nil {
			return err
		}
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		if id == me.UserID {
			return apperr.Forbidden(msgSelfChange)
		}

		return db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if _, err := loadUser(tx, id); err != nil {
				return err
			}

			for _, m := range []any{&models.OpeningBalance{}, &models.Receipt{}, &models.Disbursement{}, &models.CashMatching{}, &models.CashDelivery{}} {
				var n int64
				if err := tx.Unscoped().Model(m).Where("user_id = ?", id).Count(&n).Error; err != nil {
					return err
				}
				if n > 0 {
					return apperr.Conflict(msgUserHasDocuments)
				}
			}

			if err := tx.Where("user_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.User{}, id).Error; err != nil {
				return err
			}
			return c.SendStatus(fiber.StatusNoContent)
		})
	}
}
