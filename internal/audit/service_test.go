package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sunduqi-backend/internal/apperr"
	"sunduqi-backend/internal/database/dbtest"
	"sunduqi-backend/internal/models"
)

func TestWriter_WriteAndList(t *testing.T) {
	db := dbtest.New(t)
	w := NewWriter(db, zap.NewNop())
	ctx := context.Background()
	branchID := uint(3)

	require.NoError(t, w.Write(ctx, nil, LogOptions{
		BranchID: &branchID, UserID: 1, UserName: "ali", EntityType: "receipt", EntityID: 7,
		Action: models.AuditActionCreate, After: map[string]any{"amount": "200"},
	}))
	require.NoError(t, w.Write(ctx, nil, LogOptions{
		UserID: 1, UserName: "ali", EntityType: "disbursement", EntityID: 8, Action: models.AuditActionCreate,
	}))

	all, err := w.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	receipts, err := w.List(ctx, ListFilter{BranchID: &branchID, EntityType: "receipt"})
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, "null", receipts[0].BeforeData)
	assert.JSONEq(t, `{"amount":"200"}`, receipts[0].AfterData)
}

func TestWriter_Undo(t *testing.T) {
	db := dbtest.New(t)
	w := NewWriter(db, zap.NewNop())
	ctx := context.Background()

	var reverted []uint
	w.RegisterUndo("receipt", func(_ context.Context, _ *gorm.DB, entry *models.AuditLog) error {
		reverted = append(reverted, entry.EntityID)
		return nil
	})

	require.NoError(t, w.Write(ctx, nil, LogOptions{UserID: 1, EntityType: "receipt", EntityID: 7, Action: models.AuditActionCreate}))
	require.NoError(t, w.Write(ctx, nil, LogOptions{UserID: 1, EntityType: "branch", EntityID: 1, Action: models.AuditActionCreate}))

	logs, err := w.List(ctx, ListFilter{EntityType: "receipt"})
	require.NoError(t, err)
	require.Len(t, logs, 1)

	require.NoError(t, w.Undo(ctx, logs[0].ID, 2, "admin"))
	assert.Equal(t, []uint{7}, reverted)

	err = w.Undo(ctx, logs[0].ID, 2, "admin")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	entries, err := w.List(ctx, ListFilter{EntityType: "receipt"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditActionUndo, entries[0].Action)

	err = w.Undo(ctx, entries[0].ID, 2, "admin")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	branchLogs, err := w.List(ctx, ListFilter{EntityType: "branch"})
	require.NoError(t, err)
	err = w.Undo(ctx, branchLogs[0].ID, 2, "admin")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	err = w.Undo(ctx, 9999, 2, "admin")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
