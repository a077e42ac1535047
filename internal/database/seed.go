package database

import (
	"context"
	"fmt"

	"sunduqi-backend/internal/config"
	"sunduqi-backend/internal/models"

	"github.com/bxcodec/faker/v3"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seed creates the first admin and a few demo branches with one cashier each.
// Running it twice is harmless: existing usernames and branch names are skipped.
func (s *Store) Seed(ctx context.Context, cfg config.SeedConfig, log *zap.Logger) error {
	if cfg.AdminPassword == "" {
		log.Warn("seed skipped: admin password is empty")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		admin := models.User{
			Name:         "مدير النظام",
			Username:     cfg.AdminUsername,
			PasswordHash: string(hash),
			Role:         models.RoleAdmin,
			IsActive:     true,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&admin).Error; err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}

		for i := 0; i < cfg.DemoBranches; i++ {
			name := fmt.Sprintf("%s %d", faker.LastName(), i+1)
			branch := models.Branch{
				Name:     name,
				Code:     slug.Make(name),
				Address:  faker.Sentence(),
				Phone:    faker.Phonenumber(),
				IsActive: true,
			}
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&branch)
			if res.Error != nil {
				return fmt.Errorf("seed branch: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				continue
			}

			casher := models.User{
				BranchID:     &branch.ID,
				Name:         faker.Name(),
				Username:     branch.Code + "-casher",
				PasswordHash: string(hash),
				Role:         models.RoleCasher,
				IsActive:     true,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&casher).Error; err != nil {
				return fmt.Errorf("seed casher: %w", err)
			}
			log.Info("seeded branch", zap.String("branch", branch.Name), zap.String("casher", casher.Username))
		}
		return nil
	})
}
