package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sunduqi-backend/internal/config"
	"sunduqi-backend/internal/database/dbtest"
	"sunduqi-backend/internal/models"
)

func TestSeed_Idempotent(t *testing.T) {
	store := New(dbtest.New(t))
	cfg := config.SeedConfig{AdminUsername: "admin", AdminPassword: "changeme123", DemoBranches: 2}

	require.NoError(t, store.Seed(context.Background(), cfg, zap.NewNop()))

	var admins, cashers, branches int64
	store.DB.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins)
	store.DB.Model(&models.User{}).Where("role = ?", models.RoleCasher).Count(&cashers)
	store.DB.Model(&models.Branch{}).Count(&branches)
	assert.EqualValues(t, 1, admins)
	assert.EqualValues(t, 2, branches)
	assert.EqualValues(t, 2, cashers)

	require.NoError(t, store.Seed(context.Background(), config.SeedConfig{
		AdminUsername: "admin", AdminPassword: "changeme123",
	}, zap.NewNop()))
	store.DB.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&admins)
	assert.EqualValues(t, 1, admins)
}

func TestSeed_NoPassword(t *testing.T) {
	store := New(dbtest.New(t))
	require.NoError(t, store.Seed(context.Background(), config.SeedConfig{AdminUsername: "admin"}, zap.NewNop()))

	var users int64
	store.DB.Model(&models.User{}).Count(&users)
	assert.Zero(t, users)
}
