package auth

import (
	"errors"
	"strings"

	"sunduqi-backend/internal/apperr"
	"sunduqi-backend/internal/config"
	"sunduqi-backend/internal/httpx"
	"sunduqi-backend/internal/models"
	"sunduqi-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterAdminRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Username string          `json:"username"`
	Role     models.UserRole `json:"role"`
	BranchID *uint           `json:"branch_id"`
	Branch   *models.Branch  `json:"branch,omitempty"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Role:     u.Role,
		BranchID: u.BranchID,
		Branch:   u.Branch,
	}
}

// -------------------------------------------------
// POST /api/auth/register-admin
// only while no admin exists
// -------------------------------------------------
func RegisterAdminHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RegisterAdminRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		body.Username = strings.TrimSpace(strings.ToLower(body.Username))
		if err := validation.Struct(body); err != nil {
			return err
		}

		var count int64
		if err := db.WithContext(c.UserContext()).Model(&models.User{}).
			Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.Forbidden("يوجد مدير للنظام بالفعل")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		user := models.User{
			Name:         body.Name,
			Username:     body.Username,
			PasswordHash: string(hash),
			Role:         models.RoleAdmin,
			IsActive:     true,
		}
		if err := db.WithContext(c.UserContext()).Create(&user).Error; err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(toUserResponse(&user))
	}
}

// -------------------------------------------------
// POST /api/auth/login
// -------------------------------------------------
func LoginHandler(db *gorm.DB, cfg config.JWTConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		body.Username = strings.TrimSpace(strings.ToLower(body.Username))
		if err := validation.Struct(body); err != nil {
			return err
		}

		var user models.User
		err := db.WithContext(c.UserContext()).Preload("Branch").
			Where("username = ?", body.Username).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "اسم المستخدم أو كلمة المرور غير صحيحة")
		}
		if err != nil {
			return err
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "اسم المستخدم أو كلمة المرور غير صحيحة")
		}
		if !user.IsActive {
			return apperr.Forbidden("الحساب معطل")
		}

		token, err := GenerateToken(cfg.Secret, cfg.Expiration, &user)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  toUserResponse(&user),
		})
	}
}

// -------------------------------------------------
// GET /api/auth/me
// -------------------------------------------------
func MeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := CurrentIdentity(c)
		if err != nil {
			return err
		}

		var user models.User
		err = db.WithContext(c.UserContext()).Preload("Branch").First(&user, id.UserID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("المستخدم غير موجود")
		}
		if err != nil {
			return err
		}
		return c.JSON(toUserResponse(&user))
	}
}
