// Package dashboard aggregates the cash figures shown on the home screen.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"sunduqi-backend/internal/cache"
	"sunduqi-backend/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const cachePrefix = "dashboard:"

const recentLimit = 5

type Service struct {
	db    *gorm.DB
	cache cache.Cache
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time
}

func NewService(db *gorm.DB, c cache.Cache, ttl time.Duration, log *zap.Logger) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{db: db, cache: c, ttl: ttl, log: log.Named("dashboard"), now: time.Now}
}

// Totals is the cacheable part of Stats.
type Totals struct {
	TotalReceipts       decimal.Decimal `json:"total_receipts"`
	TotalDisbursements  decimal.Decimal `json:"total_disbursements"`
	CurrentBalance      decimal.Decimal `json:"current_balance"`
	TotalBranches       int64           `json:"total_branches"`
	ActiveBranches      int64           `json:"active_branches"`
	TotalUsers          int64           `json:"total_users"`
	PendingDeliveries   int64           `json:"pending_deliveries"`
	UnresolvedMatchings int64           `json:"unresolved_matchings"`
}

type RecentTransaction struct {
	Type          string               `json:"type"` // receipt | disbursement
	ID            uint                 `json:"id"`
	Number        string               `json:"number"`
	BranchID      uint                 `json:"branch_id"`
	Date          string               `json:"date"`
	Amount        decimal.Decimal      `json:"amount"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Counterpart   string               `json:"counterpart"`
	CreatedAt     time.Time            `json:"created_at"`
}

type Stats struct {
	Totals
	RecentTransactions []RecentTransaction    `json:"recent_transactions"`
	Notifications      []models.Notification `json:"notifications"`
}

// Stats returns the dashboard for one branch or, with a nil branchID, all of them.
// Notifications are always the caller's own.
func (s *Service) Stats(ctx context.Context, branchID *uint, userID uint) (*Stats, error) {
	totals, err := s.totals(ctx, branchID)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	recent, err := recentTransactions(db, branchID)
	if err != nil {
		return nil, err
	}

	var notes []models.Notification
	if err := db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").
		Limit(recentLimit).Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("load notifications: %w", err)
	}

	return &Stats{Totals: *totals, RecentTransactions: recent, Notifications: notes}, nil
}

// Invalidate drops every cached dashboard value.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, cachePrefix); err != nil {
		s.log.Warn("cache invalidation failed", zap.Error(err))
	}
}

func totalsKey(branchID *uint) string {
	if branchID == nil {
		return cachePrefix + "totals:all"
	}
	return fmt.Sprintf("%stotals:%d", cachePrefix, *branchID)
}

func (s *Service) totals(ctx context.Context, branchID *uint) (*Totals, error) {
	key := totalsKey(branchID)

	var cached Totals
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	t, err := computeTotals(s.db.WithContext(ctx), branchID)
	if err != nil {
		return nil, err
	}
	if s.ttl > 0 {
		if err := s.cache.Set(ctx, key, t, s.ttl); err != nil {
			s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return t, nil
}

func byBranch(q *gorm.DB, column string, branchID *uint) *gorm.DB {
	if branchID != nil {
		q = q.Where(column+" = ?", *branchID)
	}
	return q
}

func sum(q *gorm.DB) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := q.Select("COALESCE(SUM(amount), 0)").Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total.Round(2), nil
}

func computeTotals(db *gorm.DB, branchID *uint) (*Totals, error) {
	t := &Totals{}
	var err error

	if t.TotalReceipts, err = sum(byBranch(db.Model(&models.Receipt{}), "branch_id", branchID)); err != nil {
		return nil, fmt.Errorf("sum receipts: %w", err)
	}
	if t.TotalDisbursements, err = sum(byBranch(db.Model(&models.Disbursement{}), "branch_id", branchID)); err != nil {
		return nil, fmt.Errorf("sum disbursements: %w", err)
	}
	t.CurrentBalance = t.TotalReceipts.Sub(t.TotalDisbursements)

	if err := byBranch(db.Model(&models.Branch{}), "id", branchID).Count(&t.TotalBranches).Error; err != nil {
		return nil, err
	}
	if err := byBranch(db.Model(&models.Branch{}), "id", branchID).
		Where("is_active = ?", true).Count(&t.ActiveBranches).Error; err != nil {
		return nil, err
	}
	if err := byBranch(db.Model(&models.User{}), "branch_id", branchID).Count(&t.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := byBranch(db.Model(&models.CashDelivery{}), "branch_id", branchID).
		Where("is_closed_only = ? AND is_verified = ?", false, false).Count(&t.PendingDeliveries).Error; err != nil {
		return nil, err
	}
	if err := byBranch(db.Model(&models.CashMatching{}), "branch_id", branchID).
		Where("is_resolved = ? AND difference <> 0", false).Count(&t.UnresolvedMatchings).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// recentTransactions merges the latest receipts and disbursements, newest first.
func recentTransactions(db *gorm.DB, branchID *uint) ([]RecentTransaction, error) {
	var receipts []models.Receipt
	if err := byBranch(db, "branch_id", branchID).Order("created_at DESC, id DESC").
		Limit(recentLimit).Find(&receipts).Error; err != nil {
		return nil, fmt.Errorf("load recent receipts: %w", err)
	}
	var disbursements []models.Disbursement
	if err := byBranch(db, "branch_id", branchID).Order("created_at DESC, id DESC").
		Limit(recentLimit).Find(&disbursements).Error; err != nil {
		return nil, fmt.Errorf("load recent disbursements: %w", err)
	}

	out := make([]RecentTransaction, 0, len(receipts)+len(disbursements))
	for _, r := range receipts {
		out = append(out, RecentTransaction{
			Type: "receipt", ID: r.ID, Number: r.Number, BranchID: r.BranchID, Date: r.Date,
			Amount: r.Amount, PaymentMethod: r.PaymentMethod, Counterpart: r.ReceivedFrom, CreatedAt: r.CreatedAt,
		})
	}
	for _, d := range disbursements {
		out = append(out, RecentTransaction{
			Type: "disbursement", ID: d.ID, Number: d.Number, BranchID: d.BranchID, Date: d.Date,
			Amount: d.Amount, PaymentMethod: d.PaymentMethod, Counterpart: d.PaidTo, CreatedAt: d.CreatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
