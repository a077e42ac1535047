package dashboard

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sunduqi-backend/internal/cache"
	"sunduqi-backend/internal/database/dbtest"
	"sunduqi-backend/internal/models"
)

// memCache is an in-process cache.Cache for tests.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string, dst any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(raw, dst)
}

func (m *memCache) Set(_ context.Context, key string, v any, _ time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = raw
	m.sets++
	return nil
}

func (m *memCache) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *memCache) Close() error { return nil }

func addReceipt(t *testing.T, db *gorm.DB, number string, branchID, userID uint, date, amount string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Receipt{
		Number: number, BranchID: branchID, UserID: userID, Date: date,
		Amount: decimal.RequireFromString(amount), PaymentMethod: models.PaymentCash,
	}).Error)
}

func addDisbursement(t *testing.T, db *gorm.DB, number string, branchID, userID uint, date, amount string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Disbursement{
		Number: number, BranchID: branchID, UserID: userID, Date: date,
		Amount: decimal.RequireFromString(amount), PaymentMethod: models.PaymentCash,
	}).Error)
}

func seedTwoBranches(t *testing.T) (*gorm.DB, *models.Branch, *models.Branch, *models.User) {
	t.Helper()
	db := dbtest.New(t)
	north := dbtest.Branch(t, db, "north")
	south := dbtest.Branch(t, db, "south")
	admin := dbtest.User(t, db, "admin", models.RoleAdmin, nil)
	cashier := dbtest.User(t, db, "casher", models.RoleCasher, &north.ID)

	addReceipt(t, db, "R1", north.ID, cashier.ID, "2025-06-09", "200")
	addReceipt(t, db, "R2", north.ID, cashier.ID, "2025-06-10", "100")
	addDisbursement(t, db, "D1", north.ID, cashier.ID, "2025-06-10", "50")
	addReceipt(t, db, "R3", south.ID, admin.ID, "2025-06-02", "1000")
	addDisbursement(t, db, "D2", south.ID, admin.ID, "2025-05-20", "400")
	return db, north, south, admin
}

func TestStats_Scoping(t *testing.T) {
	db, north, _, admin := seedTwoBranches(t)
	svc := NewService(db, nil, 0, zap.NewNop())
	ctx := context.Background()

	all, err := svc.Stats(ctx, nil, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "1300.00", all.TotalReceipts.StringFixed(2))
	assert.Equal(t, "450.00", all.TotalDisbursements.StringFixed(2))
	assert.Equal(t, "850.00", all.CurrentBalance.StringFixed(2))
	assert.EqualValues(t, 2, all.TotalBranches)
	assert.EqualValues(t, 2, all.TotalUsers)
	assert.Len(t, all.RecentTransactions, 5)

	branch, err := svc.Stats(ctx, &north.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "250.00", branch.CurrentBalance.StringFixed(2))
	assert.EqualValues(t, 1, branch.TotalBranches)
	assert.EqualValues(t, 1, branch.TotalUsers)
	assert.Len(t, branch.RecentTransactions, 3)
	for _, tx := range branch.RecentTransactions {
		assert.Equal(t, north.ID, tx.BranchID)
	}
}

func TestStats_CachedUntilInvalidated(t *testing.T) {
	db, north, _, admin := seedTwoBranches(t)
	mc := newMemCache()
	svc := NewService(db, mc, time.Minute, zap.NewNop())
	ctx := context.Background()

	first, err := svc.Stats(ctx, &north.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, mc.sets)

	addReceipt(t, db, "R9", north.ID, admin.ID, "2025-06-10", "10")

	cached, err := svc.Stats(ctx, &north.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, first.TotalReceipts.StringFixed(2), cached.TotalReceipts.StringFixed(2))
	assert.Equal(t, 1, mc.sets)

	svc.Invalidate(ctx)
	fresh, err := svc.Stats(ctx, &north.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "310.00", fresh.TotalReceipts.StringFixed(2))
}

func TestStats_CallerNotifications(t *testing.T) {
	db, north, _, admin := seedTwoBranches(t)
	for i := 0; i < 7; i++ {
		require.NoError(t, db.Create(&models.Notification{UserID: admin.ID, Title: "t", Message: "m"}).Error)
	}
	svc := NewService(db, nil, 0, zap.NewNop())

	stats, err := svc.Stats(context.Background(), &north.ID, admin.ID)
	require.NoError(t, err)
	assert.Len(t, stats.Notifications, 5)
}

func TestCashChart_Buckets(t *testing.T) {
	db, north, _, _ := seedTwoBranches(t)
	svc := NewService(db, nil, 0, zap.NewNop())
	// Tuesday
	svc.now = func() time.Time { return time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	daily, err := svc.CashChart(ctx, &north.ID, "daily", 7)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-04", daily.From)
	assert.Equal(t, "2025-06-10", daily.To)
	require.Len(t, daily.Points, 2)
	assert.Equal(t, "2025-06-09", daily.Points[0].Label)
	assert.Equal(t, "200.00", daily.Points[0].Receipts.StringFixed(2))
	assert.Equal(t, "50.00", daily.Points[1].Net.StringFixed(2))
	assert.Equal(t, "250.00", daily.GrandTotals.Net.StringFixed(2))

	weekly, err := svc.CashChart(ctx, nil, "weekly", 2)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-02", weekly.From)
	require.Len(t, weekly.Points, 2)
	assert.Equal(t, "2025-06-02", weekly.Points[0].Label)
	assert.Equal(t, "1000.00", weekly.Points[0].Receipts.StringFixed(2))
	assert.Equal(t, "2025-06-09", weekly.Points[1].Label)
	assert.Equal(t, "300.00", weekly.Points[1].Receipts.StringFixed(2))

	monthly, err := svc.CashChart(ctx, nil, "monthly", 0)
	require.NoError(t, err)
	assert.Equal(t, "2024-07-01", monthly.From)
	require.Len(t, monthly.Points, 2)
	assert.Equal(t, "2025-05-01", monthly.Points[0].Label)
	assert.Equal(t, "400.00", monthly.Points[0].Disbursements.StringFixed(2))
	assert.Equal(t, "2025-06-01", monthly.Points[1].Label)
	assert.Equal(t, "1250.00", monthly.Points[1].Net.StringFixed(2))
	assert.Equal(t, "850.00", monthly.GrandTotals.Net.StringFixed(2))

	_, err = svc.CashChart(ctx, nil, "hourly", 3)
	assert.Error(t, err)
}
