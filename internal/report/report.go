// Package report renders cash workbooks for download.
package report

import (
	"context"
	"fmt"

	"sunduqi-backend/internal/cashbox"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	SheetSummary       = "Summary"
	SheetReceipts      = "Receipts"
	SheetDisbursements = "Disbursements"
	SheetTransfers     = "Transfers"
)

// Builder reads through the cashbox service so reports see exactly what the API sees.
type Builder struct {
	svc *cashbox.Service
}

func NewBuilder(svc *cashbox.Service) *Builder {
	return &Builder{svc: svc}
}

// DailyQuery selects one branch day. UserID narrows the report to one cashier.
type DailyQuery struct {
	BranchID uint
	UserID   *uint
	Date     string
}

// Daily builds the summary, receipts and disbursements of one branch day.
func (b *Builder) Daily(ctx context.Context, q DailyQuery) (*excelize.File, string, error) {
	date, err := b.svc.ParseDate(q.Date)
	if err != nil {
		return nil, "", err
	}
	branch, err := b.svc.Branch(ctx, q.BranchID)
	if err != nil {
		return nil, "", err
	}
	totals, err := b.svc.ExpectedTotals(ctx, cashbox.Scope{BranchID: branch.ID, UserID: q.UserID, Date: date})
	if err != nil {
		return nil, "", err
	}
	filter := cashbox.VoucherFilter{
		BranchID:  &branch.ID,
		UserID:    q.UserID,
		DateRange: cashbox.DateRange{From: date, To: date},
	}
	receipts, err := b.svc.ListReceipts(ctx, filter)
	if err != nil {
		return nil, "", err
	}
	disbursements, err := b.svc.ListDisbursements(ctx, filter)
	if err != nil {
		return nil, "", err
	}
	transferred, err := b.svc.IsTransferred(ctx, branch.ID, date)
	if err != nil {
		return nil, "", err
	}

	w, err := newWorkbook(SheetSummary)
	if err != nil {
		return nil, "", err
	}

	status := "لم يرحل"
	if transferred {
		status = "مرحل إلى البنك"
	}
	summary := [][]any{
		{"الفرع", branch.Name},
		{"التاريخ", date},
		{"الرصيد الافتتاحي", money(totals.OpeningBalance)},
		{"إجمالي المقبوضات", money(totals.TotalReceipts)},
		{"إجمالي المصروفات", money(totals.TotalDisbursements)},
		{"الرصيد المتوقع", money(totals.ExpectedTotal)},
		{"حالة الترحيل", status},
	}
	if err := w.rows(SheetSummary, nil, summary); err != nil {
		return nil, "", err
	}

	rows := make([][]any, 0, len(receipts))
	for _, r := range receipts {
		rows = append(rows, []any{r.Number, r.Date, money(r.Amount), string(r.PaymentMethod), r.ReceivedFrom, userName(r.User), approved(r.IsApproved), r.Notes})
	}
	if err := w.sheet(SheetReceipts, []string{"رقم السند", "التاريخ", "المبلغ", "طريقة الدفع", "مستلم من", "أمين الصندوق", "معتمد", "ملاحظات"}, rows); err != nil {
		return nil, "", err
	}

	rows = make([][]any, 0, len(disbursements))
	for _, d := range disbursements {
		rows = append(rows, []any{d.Number, d.Date, money(d.Amount), string(d.PaymentMethod), d.PaidTo, userName(d.User), approved(d.IsApproved), d.Notes})
	}
	if err := w.sheet(SheetDisbursements, []string{"رقم السند", "التاريخ", "المبلغ", "طريقة الدفع", "مدفوع إلى", "أمين الصندوق", "معتمد", "ملاحظات"}, rows); err != nil {
		return nil, "", err
	}

	return w.f, fmt.Sprintf("daily-%s-%s.xlsx", branch.Code, date), nil
}

// BankTransfers builds the per-branch transfer summary over a date range.
func (b *Builder) BankTransfers(ctx context.Context, r cashbox.DateRange) (*excelize.File, string, error) {
	sum, err := b.svc.TransferSummary(ctx, r)
	if err != nil {
		return nil, "", err
	}

	w, err := newWorkbook(SheetTransfers)
	if err != nil {
		return nil, "", err
	}

	rows := make([][]any, 0, len(sum.Branches)+1)
	for _, br := range sum.Branches {
		rows = append(rows, []any{br.BranchName, money(br.TotalReceipts), money(br.TotalDisbursements), money(br.NetBalance), money(br.Transferred), money(br.Remaining)})
	}
	rows = append(rows, []any{"الإجمالي", money(sum.TotalReceipts), money(sum.TotalDisbursements), money(sum.NetBalance), money(sum.Transferred), money(sum.Remaining)})
	if err := w.sheet(SheetTransfers, []string{"الفرع", "المقبوضات", "المصروفات", "الصافي", "المرحل", "المتبقي"}, rows); err != nil {
		return nil, "", err
	}

	name := "bank-transfers.xlsx"
	if r.From != "" || r.To != "" {
		name = fmt.Sprintf("bank-transfers-%s-%s.xlsx", r.From, r.To)
	}
	return w.f, name, nil
}

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func approved(ok bool) string {
	if ok {
		return "نعم"
	}
	return "لا"
}
