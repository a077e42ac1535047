// Package admin serves branch and user management for administrators.
package admin

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"sunduqi-backend/internal/apperr"
	"sunduqi-backend/internal/httpx"
	"sunduqi-backend/internal/models"
	"sunduqi-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

const (
	msgBranchNotFound = "الفرع غير موجود"
	msgBranchExists   = "يوجد فرع بنفس الاسم أو الرمز"
	msgBranchInUse    = "لا يمكن حذف فرع لديه مستخدمون أو مستندات، قم بتعطيله بدلاً من ذلك"
)

type CreateBranchRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Code     string `json:"code" validate:"max=100"`
	Address  string `json:"address" validate:"max=255"`
	Phone    string `json:"phone" validate:"max=50"`
	IsActive *bool  `json:"is_active"`
}

type UpdateBranchRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Address  *string `json:"address" validate:"omitempty,max=255"`
	Phone    *string `json:"phone" validate:"omitempty,max=50"`
	IsActive *bool   `json:"is_active"`
}

// branchCode derives the URL and storage safe code of a branch.
func branchCode(name, code string) string {
	if c := slug.Make(code); c != "" {
		return c
	}
	if c := slug.Make(name); c != "" {
		return c
	}
	return fmt.Sprintf("branch-%d", time.Now().UnixNano())
}

func loadBranch(db *gorm.DB, id uint) (*models.Branch, error) {
	var b models.Branch
	err := db.First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(msgBranchNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func branchTaken(db *gorm.DB, name, code string, exceptID uint) (bool, error) {
	var n int64
	err := db.Model(&models.Branch{}).
		Where("(name = ? OR code = ?) AND id <> ?", name, code, exceptID).
		Count(&n).Error
	return n > 0, err
}

// ----------------------------------------
// POST /api/admin/branches
// ----------------------------------------
func CreateBranchHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateBranchRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		body.Name = strings.TrimSpace(body.Name)
		if err := validation.Struct(body); err != nil {
			return err
		}

		tx := db.WithContext(c.UserContext())
		branch := models.Branch{
			Name:     body.Name,
			Code:     branchCode(body.Name, body.Code),
			Address:  strings.TrimSpace(body.Address),
			Phone:    strings.TrimSpace(body.Phone),
			IsActive: true,
		}
		taken, err := branchTaken(tx, branch.Name, branch.Code, 0)
		if err != nil {
			return err
		}
		if taken {
			return apperr.Duplicate(msgBranchExists)
		}

		if err := tx.Create(&branch).Error; err != nil {
			return fmt.Errorf("create branch: %w", err)
		}
		// is_active has a database default, a false value must be written explicitly
		if body.IsActive != nil && !*body.IsActive {
			if err := tx.Model(&branch).Update("is_active", false).Error; err != nil {
				return err
			}
		}

		return c.Status(fiber.StatusCreated).JSON(branch)
	}
}

// ----------------------------------------
// GET /api/admin/branches?active=true
// ----------------------------------------
func ListBranchesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		active, err := httpx.QueryBool(c, "active")
		if err != nil {
			return err
		}

		q := db.WithContext(c.UserContext()).Order("name")
		if active != nil {
			q = q.Where("is_active = ?", *active)
		}
		var branches []models.Branch
		if err := q.Find(&branches).Error; err != nil {
			return err
		}
		return c.JSON(branches)
	}
}

// ----------------------------------------
// GET /api/admin/branches/:id
// ----------------------------------------
func GetBranchHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		branch, err := loadBranch(db.WithContext(c.UserContext()), id)
		if err != nil {
			return err
		}
		return c.JSON(branch)
	}
}

// ----------------------------------------
// PUT /api/admin/branches/:id
// ----------------------------------------
func UpdateBranchHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		var body UpdateBranchRequest
		if err := httpx.Bind(c, &body); err != nil {
			return err
		}
		if err := validation.Struct(body); err != nil {
			return err
		}

		tx := db.WithContext(c.UserContext())
		branch, err := loadBranch(tx, id)
		if err != nil {
			return err
		}

		updates := map[string]any{}
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return apperr.Invalid("اسم الفرع لا يمكن أن يكون فارغاً")
			}
			taken, err := branchTaken(tx, name, branch.Code, branch.ID)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Duplicate(msgBranchExists)
			}
			updates["name"] = name
		}
		if body.Address != nil {
			updates["address"] = strings.TrimSpace(*body.Address)
		}
		if body.Phone != nil {
			updates["phone"] = strings.TrimSpace(*body.Phone)
		}
		if body.IsActive != nil {
			updates["is_active"] = *body.IsActive
		}

		if len(updates) > 0 {
			if err := tx.Model(branch).Updates(updates).Error; err != nil {
				return err
			}
		}
		branch, err = loadBranch(tx, id)
		if err != nil {
			return err
		}
		return c.JSON(branch)
	}
}

// ----------------------------------------
// DELETE /api/admin/branches/:id
// only branches nothing refers to
// ----------------------------------------
func DeleteBranchHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}

		return db.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
			if _, err := loadBranch(tx, id); err != nil {
				return err
			}

			for _, m := range []any{&models.User{}, &models.OpeningBalance{}, &models.Receipt{}, &models.Disbursement{}} {
				var n int64
				if err := tx.Unscoped().Model(m).Where("branch_id = ?", id).Count(&n).Error; err != nil {
					return err
				}
				if n > 0 {
					return apperr.Conflict(msgBranchInUse)
				}
			}

			if err := tx.Delete(&models.Branch{}, id).Error; err != nil {
				return err
			}
			return c.SendStatus(fiber.StatusNoContent)
		})
	}
}
