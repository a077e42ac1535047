package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"sunduqi-backend/internal/apperr"
	"sunduqi-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type CashChartPoint struct {
	Label         string          `json:"label"` // day, week start or month start
	Receipts      decimal.Decimal `json:"receipts"`
	Disbursements decimal.Decimal `json:"disbursements"`
	Net           decimal.Decimal `json:"net"`
}

type CashChartGrandTotals struct {
	Receipts      decimal.Decimal `json:"receipts"`
	Disbursements decimal.Decimal `json:"disbursements"`
	Net           decimal.Decimal `json:"net"`
}

type CashChartResponse struct {
	BranchID    *uint                `json:"branch_id"`
	Period      string               `json:"period"` // daily | weekly | monthly
	From        string               `json:"from"`
	To          string               `json:"to"`
	Points      []CashChartPoint     `json:"points"`
	GrandTotals CashChartGrandTotals `json:"grand_totals"`
}

// chartWindow returns the first and last day covered by count buckets ending today.
func chartWindow(now time.Time, period string, count int) (string, time.Time, time.Time, error) {
	if count <= 0 {
		switch period {
		case "weekly":
			count = 8
		case "monthly":
			count = 12
		default:
			count = 7
		}
	}
	if count > 366 {
		return "", time.Time{}, time.Time{}, apperr.Invalid("قيمة count كبيرة جداً")
	}

	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var start time.Time
	switch period {
	case "weekly":
		start = weekStart(end).AddDate(0, 0, -7*(count-1))
	case "monthly":
		start = time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(count - 1), 0)
	case "", "daily":
		period = "daily"
		start = end.AddDate(0, 0, -(count - 1))
	default:
		return "", time.Time{}, time.Time{}, apperr.Invalid("قيمة period غير صالحة (daily|weekly|monthly)")
	}
	return period, start, end, nil
}

// weekStart is the Monday on or before d.
func weekStart(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func bucketOf(period string, d time.Time) time.Time {
	switch period {
	case "weekly":
		return weekStart(d)
	case "monthly":
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return d
	}
}

type dailySum struct {
	Date  string
	Total decimal.Decimal
}

func dailySums(q *gorm.DB, from, to string) ([]dailySum, error) {
	var rows []dailySum
	err := q.Select("date, COALESCE(SUM(amount), 0) AS total").
		Where("date >= ? AND date <= ?", from, to).
		Group("date").
		Scan(&rows).Error
	return rows, err
}

// CashChart buckets receipts and disbursements by day, week or month. The
// database only sums per day; weeks and months are folded in Go.
func (s *Service) CashChart(ctx context.Context, branchID *uint, period string, count int) (*CashChartResponse, error) {
	period, start, end, err := chartWindow(s.now(), period, count)
	if err != nil {
		return nil, err
	}
	from, to := start.Format(dateLayout), end.Format(dateLayout)

	db := s.db.WithContext(ctx)
	receipts, err := dailySums(byBranch(db.Model(&models.Receipt{}), "branch_id", branchID), from, to)
	if err != nil {
		return nil, fmt.Errorf("chart receipts: %w", err)
	}
	disbursements, err := dailySums(byBranch(db.Model(&models.Disbursement{}), "branch_id", branchID), from, to)
	if err != nil {
		return nil, fmt.Errorf("chart disbursements: %w", err)
	}

	buckets := make(map[time.Time]*CashChartPoint)
	add := func(rows []dailySum, receipt bool) {
		for _, r := range rows {
			d, err := time.Parse(dateLayout, r.Date)
			if err != nil {
				continue
			}
			key := bucketOf(period, d)
			p, ok := buckets[key]
			if !ok {
				p = &CashChartPoint{Label: key.Format(dateLayout)}
				buckets[key] = p
			}
			if receipt {
				p.Receipts = p.Receipts.Add(r.Total)
			} else {
				p.Disbursements = p.Disbursements.Add(r.Total)
			}
		}
	}
	add(receipts, true)
	add(disbursements, false)

	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	resp := &CashChartResponse{
		BranchID: branchID,
		Period:   period,
		From:     from,
		To:       to,
		Points:   make([]CashChartPoint, 0, len(keys)),
	}
	for _, k := range keys {
		p := buckets[k]
		p.Receipts = p.Receipts.Round(2)
		p.Disbursements = p.Disbursements.Round(2)
		p.Net = p.Receipts.Sub(p.Disbursements)
		resp.Points = append(resp.Points, *p)

		resp.GrandTotals.Receipts = resp.GrandTotals.Receipts.Add(p.Receipts)
		resp.GrandTotals.Disbursements = resp.GrandTotals.Disbursements.Add(p.Disbursements)
		resp.GrandTotals.Net = resp.GrandTotals.Net.Add(p.Net)
	}
	return resp, nil
}
