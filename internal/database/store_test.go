package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"sunduqi-backend/internal/config"
)

func TestStore_PingAndClose(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	store := New(gormDB)

	mock.ExpectPing()
	require.NoError(t, store.Ping(context.Background()))

	mock.ExpectClose()
	require.NoError(t, store.Close())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mysql"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestOpen_SQLiteAndMigrate(t *testing.T) {
	store, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate())
	for _, table := range []string{"branches", "users", "opening_balances", "receipts", "disbursements",
		"cash_matchings", "cash_deliveries", "cash_collections", "bank_transfers", "notifications",
		"audit_logs", "document_counters"} {
		assert.True(t, store.DB.Migrator().HasTable(table), table)
	}
}
