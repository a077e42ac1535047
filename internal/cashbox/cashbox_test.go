package cashbox

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sunduqi-backend/internal/apperr"
	"sunduqi-backend/internal/audit"
	"sunduqi-backend/internal/database/dbtest"
	"sunduqi-backend/internal/docnum"
	"sunduqi-backend/internal/models"
	"sunduqi-backend/internal/notification"
)

const today = "2025-06-10"

var testNow = time.Date(2025, 6, 10, 12, 30, 0, 0, time.UTC)

type fixture struct {
	db      *gorm.DB
	svc     *Service
	audit   *audit.Writer
	notify  *notification.Service
	branch  *models.Branch
	admin   Actor
	cashier Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	branch := dbtest.Branch(t, db, "main")
	admin := dbtest.User(t, db, "admin", models.RoleAdmin, nil)
	cashier := dbtest.User(t, db, "casher", models.RoleCasher, &branch.ID)

	w := audit.NewWriter(db, zap.NewNop())
	n := notification.NewService(db, zap.NewNop())
	svc := NewService(db, docnum.New(),
		WithAuditor(w),
		WithNotifier(n),
		WithClock(func() time.Time { return testNow }),
	)
	svc.RegisterUndo(w)

	return &fixture{
		db:      db,
		svc:     svc,
		audit:   w,
		notify:  n,
		branch:  branch,
		admin:   Actor{UserID: admin.ID, UserName: admin.Name, Admin: true},
		cashier: Actor{UserID: cashier.ID, UserName: cashier.Name},
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) open(t *testing.T, amount string) *models.OpeningBalance {
	t.Helper()
	ob, err := f.svc.CreateOpeningBalance(context.Background(), f.cashier, OpeningBalanceInput{
		BranchID: f.branch.ID, Date: today, Amount: dec(amount),
	})
	require.NoError(t, err)
	return ob
}

func (f *fixture) receipt(t *testing.T, amount string) *models.Receipt {
	t.Helper()
	r, err := f.svc.CreateReceipt(context.Background(), f.cashier, VoucherInput{
		BranchID: f.branch.ID, Date: today, Amount: dec(amount), PaymentMethod: models.PaymentCash, Counterpart: "customer",
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) disbursement(t *testing.T, amount string) *models.Disbursement {
	t.Helper()
	d, err := f.svc.CreateDisbursement(context.Background(), f.cashier, VoucherInput{
		BranchID: f.branch.ID, Date: today, Amount: dec(amount), PaymentMethod: models.PaymentCash, Counterpart: "supplier",
	})
	require.NoError(t, err)
	return d
}

func (f *fixture) match(t *testing.T, actual string) *models.CashMatching {
	t.Helper()
	m, err := f.svc.CreateMatching(context.Background(), f.cashier, MatchingInput{
		BranchID: f.branch.ID, Date: today, ActualTotal: dec(actual),
	})
	require.NoError(t, err)
	return m
}

func TestDayScenario_MatchAndResolve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.open(t, "500")
	f.receipt(t, "200")
	f.disbursement(t, "50")

	totals, err := f.svc.ExpectedTotals(ctx, Scope{BranchID: f.branch.ID, Date: today})
	require.NoError(t, err)
	assert.Equal(t, "650.00", totals.ExpectedTotal.StringFixed(2))
	assert.Equal(t, "200.00", totals.TotalReceipts.StringFixed(2))
	assert.Equal(t, "50.00", totals.TotalDisbursements.StringFixed(2))

	m := f.match(t, "650")
	assert.Equal(t, "650.00", m.ExpectedTotal.StringFixed(2))
	assert.True(t, m.Difference.IsZero())
	assert.False(t, m.IsResolved)

	_, err = f.svc.CreateMatching(ctx, f.cashier, MatchingInput{BranchID: f.branch.ID, Date: today, ActualTotal: dec("650")})
	assert.True(t, apperr.Is(err, apperr.KindDuplicate))

	resolved, err := f.svc.ResolveMatching(ctx, f.admin, m.ID, "ok")
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, f.admin.UserID, *resolved.ResolvedBy)

	_, err = f.svc.ResolveMatching(ctx, f.admin, m.ID, "again")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.svc.RecountMatching(ctx, f.cashier, m.ID, dec("640"), "")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	unread, err := f.notify.UnreadCount(ctx, f.cashier.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)
}

func TestMatching_DifferenceNotifiesAdminsAndRecount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.open(t, "100")
	f.receipt(t, "40")

	m := f.match(t, "130")
	assert.Equal(t, "-10.00", m.Difference.StringFixed(2))

	adminNotes, err := f.notify.List(ctx, f.admin.UserID, true, 10)
	require.NoError(t, err)
	require.Len(t, adminNotes, 1)
	assert.Equal(t, models.PriorityHigh, adminNotes[0].Priority)

	f.receipt(t, "10")
	_, err = f.svc.RecountMatching(ctx, f.cashier, m.ID, dec("150"), "found it")
	// the day is matched, new vouchers are still accepted but recount sees them
	require.NoError(t, err)
	recounted, err := f.svc.GetMatching(ctx, m.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "150.00", recounted.ExpectedTotal.StringFixed(2))
	assert.True(t, recounted.Difference.IsZero())

	other := dbtest.User(t, f.db, "other", models.RoleCasher, &f.branch.ID)
	_, err = f.svc.RecountMatching(ctx, Actor{UserID: other.ID}, m.ID, dec("1"), "")
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = f.svc.CreateMatching(ctx, f.cashier, MatchingInput{BranchID: f.branch.ID, Date: "2025-06-09", ActualTotal: dec("-1")})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestMatching_CashierScopeExcludesOtherCashiers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.open(t, "100")
	f.receipt(t, "50")

	other := dbtest.User(t, f.db, "other", models.RoleCasher, &f.branch.ID)
	_, err := f.svc.CreateReceipt(ctx, Actor{UserID: other.ID}, VoucherInput{
		BranchID: f.branch.ID, Date: today, Amount: dec("70"), PaymentMethod: models.PaymentTransfer,
	})
	require.NoError(t, err)

	m := f.match(t, "150")
	assert.Equal(t, "150.00", m.ExpectedTotal.StringFixed(2))

	branchWide, err := f.svc.ExpectedTotals(ctx, Scope{BranchID: f.branch.ID, Date: today})
	require.NoError(t, err)
	assert.Equal(t, "220.00", branchWide.ExpectedTotal.StringFixed(2))
}

func TestOpeningBalance_DuplicateDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.open(t, "500")
	_, err := f.svc.CreateOpeningBalance(ctx, f.admin, OpeningBalanceInput{BranchID: f.branch.ID, Date: today, Amount: dec("300")})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindDuplicate))
	assert.Equal(t, msgOpeningDuplicate, err.Error())

	var count int64
	require.NoError(t, f.db.Model(&models.OpeningBalance{}).Where("branch_id = ? AND date = ?", f.branch.ID, today).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	_, err = f.svc.CreateOpeningBalance(ctx, f.admin, OpeningBalanceInput{BranchID: f.branch.ID, Date: today, Amount: decimal.Zero})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.CreateOpeningBalance(ctx, f.admin, OpeningBalanceInput{BranchID: 999, Date: today, Amount: dec("1")})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestOpeningBalance_DeleteAndRecreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ob := f.open(t, "500")
	require.NoError(t, f.svc.DeleteOpeningBalance(ctx, f.admin, ob.ID))

	_, err := f.svc.OpeningBalanceFor(ctx, f.branch.ID, today)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	again := f.open(t, "450")
	assert.NotEqual(t, ob.ID, again.ID)

	f.match(t, "450")
	err = f.svc.DeleteOpeningBalance(ctx, f.admin, again.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestVouchers_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateReceipt(ctx, f.cashier, VoucherInput{
		BranchID: f.branch.ID, Date: today, Amount: dec("10"), PaymentMethod: models.PaymentCash,
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "no opening balance yet")

	f.open(t, "100")

	_, err = f.svc.CreateReceipt(ctx, f.cashier, VoucherInput{
		BranchID: f.branch.ID, Date: today, Amount: dec("10"), PaymentMethod: models.PaymentVisa,
	})
	require.Error(t, err)
	assert.Equal(t, msgVisaAttachment, err.Error())

	visa, err := f.svc.CreateReceipt(ctx, f.cashier, VoucherInput{
		BranchID: f.branch.ID, Date: today, Amount: dec("10"), PaymentMethod: models.PaymentVisa,
		Attachment: &Attachment{Key: "main/abc.jpg", URL: "/uploads/main/abc.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/main/abc.jpg", visa.AttachmentURL)

	_, err = f.svc.CreateDisbursement(ctx, f.cashier, VoucherInput{
		BranchID: f.branch.ID, Date: today, Amount: dec("10"), PaymentMethod: "cheque",
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.CreateDisbursement(ctx, f.cashier, VoucherInput{
		BranchID: f.branch.ID, Date: "10/06/2025", Amount: dec("10"), PaymentMethod: models.PaymentCash,
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestVouchers_SequentialNumbers(t *testing.T) {
	f := newFixture(t)
	f.open(t, "100")

	r1 := f.receipt(t, "1")
	r2 := f.receipt(t, "2")
	d1 := f.disbursement(t, "1")

	assert.Equal(t, "RCPT-20250610-0001", r1.Number)
	assert.Equal(t, "RCPT-20250610-0002", r2.Number)
	assert.Equal(t, "D-2025-0001", d1.Number)
}

func TestVouchers_ApproveAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.open(t, "100")

	r := f.receipt(t, "25")
	approved, err := f.svc.ApproveReceipt(ctx, f.admin, r.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)

	_, err = f.svc.ApproveReceipt(ctx, f.admin, r.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.True(t, apperr.Is(f.svc.DeleteReceipt(ctx, f.admin, r.ID, nil), apperr.KindConflict))

	d := f.disbursement(t, "5")
	otherBranch := uint(999)
	assert.True(t, apperr.Is(f.svc.DeleteDisbursement(ctx, f.cashier, d.ID, &otherBranch), apperr.KindNotFound))
	require.NoError(t, f.svc.DeleteDisbursement(ctx, f.cashier, d.ID, &f.branch.ID))

	_, err = f.svc.GetDisbursement(ctx, d.ID, nil)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	list, err := f.svc.ListReceipts(ctx, VoucherFilter{BranchID: &f.branch.ID, DateRange: DateRange{From: today, To: today}})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	f.match(t, "125")
	r2 := f.receipt(t, "3")
	assert.True(t, apperr.Is(f.svc.DeleteReceipt(ctx, f.admin, r2.ID, nil), apperr.KindConflict))
}

func TestBankTransfer_OncePerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.open(t, "500")
	f.receipt(t, "200")
	f.disbursement(t, "50")

	preview, err := f.svc.PreviewTransfer(ctx, f.branch.ID, today)
	require.NoError(t, err)
	assert.Equal(t, "150.00", preview.FinalBalance.StringFixed(2))
	assert.False(t, preview.IsTransferred)

	staleTotal := dec("100")
	_, err = f.svc.ConfirmTransfer(ctx, f.admin, TransferInput{BranchID: f.branch.ID, Date: today, TotalReceipts: &staleTotal})
	require.Error(t, err)
	assert.Equal(t, msgStaleTotals, err.Error())

	receipts := dec("200")
	bt, err := f.svc.ConfirmTransfer(ctx, f.admin, TransferInput{BranchID: f.branch.ID, Date: today, TotalReceipts: &receipts})
	require.NoError(t, err)
	assert.Equal(t, "150.00", bt.FinalBalance.StringFixed(2))
	assert.Equal(t, f.admin.UserID, bt.TransferredBy)

	_, err = f.svc.ConfirmTransfer(ctx, f.admin, TransferInput{BranchID: f.branch.ID, Date: today})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindDuplicate))
	assert.Equal(t, msgTransferDuplicate, err.Error())

	var count int64
	require.NoError(t, f.db.Model(&models.BankTransfer{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	transferred, err := f.svc.IsTransferred(ctx, f.branch.ID, today)
	require.NoError(t, err)
	assert.True(t, transferred)
	transferred, err = f.svc.IsTransferred(ctx, f.branch.ID, "2025-06-09")
	require.NoError(t, err)
	assert.False(t, transferred)

	_, err = f.svc.CreateReceipt(ctx, f.cashier, VoucherInput{
		BranchID: f.branch.ID, Date: today, Amount: dec("1"), PaymentMethod: models.PaymentCash,
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.svc.ConfirmTransfer(ctx, f.admin, TransferInput{BranchID: f.branch.ID, Date: "2025-06-11"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestTransferSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.open(t, "500")
	f.receipt(t, "200")
	f.disbursement(t, "50")
	dbtest.Branch(t, f.db, "idle")

	_, err := f.svc.ConfirmTransfer(ctx, f.admin, TransferInput{BranchID: f.branch.ID, Date: today})
	require.NoError(t, err)

	yesterday := "2025-06-09"
	_, err = f.svc.CreateOpeningBalance(ctx, f.cashier, OpeningBalanceInput{BranchID: f.branch.ID, Date: yesterday, Amount: dec("10")})
	require.NoError(t, err)
	_, err = f.svc.CreateReceipt(ctx, f.cashier, VoucherInput{
		BranchID: f.branch.ID, Date: yesterday, Amount: dec("30"), PaymentMethod: models.PaymentCash,
	})
	require.NoError(t, err)

	summary, err := f.svc.TransferSummary(ctx, DateRange{})
	require.NoError(t, err)
	require.Len(t, summary.Branches, 2)

	var main BranchTransferSummary
	for _, b := range summary.Branches {
		if b.BranchID == f.branch.ID {
			main = b
		}
	}
	assert.Equal(t, "230.00", main.TotalReceipts.StringFixed(2))
	assert.Equal(t, "180.00", main.NetBalance.StringFixed(2))
	assert.Equal(t, "150.00", main.Transferred.StringFixed(2))
	assert.Equal(t, "30.00", main.Remaining.StringFixed(2))
	assert.Equal(t, "30.00", summary.Remaining.StringFixed(2))

	onlyToday, err := f.svc.TransferSummary(ctx, DateRange{From: today, To: today})
	require.NoError(t, err)
	assert.True(t, onlyToday.Remaining.IsZero())

	list, err := f.svc.ListTransfers(ctx, TransferFilter{BranchID: &f.branch.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDelivery_CloseOnlyThenDeliverVerifyCollect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.open(t, "500")
	f.receipt(t, "200")

	_, err := f.svc.Deliver(ctx, f.cashier, DeliveryInput{BranchID: f.branch.ID, Date: today, Mode: ModeCloseOnly})
	require.Error(t, err)
	assert.Equal(t, msgMatchingRequired, err.Error())

	f.match(t, "700")

	closed, err := f.svc.Deliver(ctx, f.cashier, DeliveryInput{BranchID: f.branch.ID, Date: today, Mode: ModeCloseOnly})
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryClosed, closed.Status())
	assert.True(t, closed.DeliveredAmount.IsZero())
	assert.Equal(t, "DEL-20250610123000-0001", closed.Number)

	_, err = f.svc.VerifyDelivery(ctx, f.admin, closed.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	_, err = f.svc.Collect(ctx, f.admin, CollectionInput{DeliveryID: closed.ID})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.svc.Deliver(ctx, f.cashier, DeliveryInput{BranchID: f.branch.ID, Date: today, Mode: ModeDeliver})
	assert.True(t, apperr.Is(err, apperr.KindDuplicate))

	delivered, err := f.svc.Deliver(ctx, f.cashier, DeliveryInput{BranchID: f.branch.ID, Date: today, Mode: ModeDeliverAfterClosure})
	require.NoError(t, err)
	assert.Equal(t, closed.ID, delivered.ID)
	assert.Equal(t, models.DeliveryDelivered, delivered.Status())
	assert.Equal(t, "700.00", delivered.DeliveredAmount.StringFixed(2))

	_, err = f.svc.Deliver(ctx, f.cashier, DeliveryInput{BranchID: f.branch.ID, Date: today, Mode: ModeDeliverAfterClosure})
	require.Error(t, err)
	assert.Equal(t, msgNotClosed, err.Error())

	_, err = f.svc.Collect(ctx, f.admin, CollectionInput{DeliveryID: delivered.ID})
	require.Error(t, err)
	assert.Equal(t, msgCollectUnverified, err.Error())

	verified, err := f.svc.VerifyDelivery(ctx, f.admin, delivered.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryVerified, verified.Status())
	_, err = f.svc.VerifyDelivery(ctx, f.admin, delivered.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	total, err := f.svc.MatchedConfirmedTotal(ctx, &f.branch.ID, DateRange{})
	require.NoError(t, err)
	assert.Equal(t, "700.00", total.StringFixed(2))

	c, err := f.svc.Collect(ctx, f.admin, CollectionInput{DeliveryID: delivered.ID, Notes: "safe"})
	require.NoError(t, err)
	assert.Equal(t, "700.00", c.TotalCollected.StringFixed(2))
	assert.Equal(t, f.cashier.UserID, c.UserID)
	assert.Equal(t, f.admin.UserID, c.CollectedBy)
	assert.Equal(t, today, c.CollectionDate)
	assert.Equal(t, "COLL-20250610123000-0001", c.Number)

	_, err = f.svc.Collect(ctx, f.admin, CollectionInput{DeliveryID: delivered.ID})
	require.Error(t, err)
	assert.Equal(t, msgAlreadyCollected, err.Error())

	after, err := f.svc.GetDelivery(ctx, delivered.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryCollected, after.Status())

	vc, err := f.svc.VerifyCollection(ctx, f.admin, c.ID)
	require.NoError(t, err)
	assert.True(t, vc.IsVerified)
	_, err = f.svc.VerifyCollection(ctx, f.admin, c.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	collected, err := f.svc.ListDeliveries(ctx, DeliveryFilter{Status: models.DeliveryCollected})
	require.NoError(t, err)
	assert.Len(t, collected, 1)

	_, err = f.svc.RecountMatching(ctx, f.cashier, delivered.CashMatchingID, dec("1"), "")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestDelivery_Modes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.open(t, "80")
	f.match(t, "80")

	_, err := f.svc.Deliver(ctx, f.cashier, DeliveryInput{BranchID: f.branch.ID, Date: today, Mode: "teleport"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.Deliver(ctx, f.cashier, DeliveryInput{BranchID: f.branch.ID, Date: today, Mode: ModeDeliverAfterClosure})
	require.Error(t, err)
	assert.Equal(t, msgNoClosedCashbox, err.Error())

	d, err := f.svc.Deliver(ctx, f.cashier, DeliveryInput{BranchID: f.branch.ID, Date: today})
	require.NoError(t, err)
	assert.Equal(t, "80.00", d.DeliveredAmount.StringFixed(2))
	require.NotNil(t, d.DeliveredAt)

	adminNotes, err := f.notify.List(ctx, f.admin.UserID, true, 10)
	require.NoError(t, err)
	assert.Len(t, adminNotes, 1)

	pending, err := f.svc.ListDeliveries(ctx, DeliveryFilter{Status: models.DeliveryDelivered, BranchID: &f.branch.ID})
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	total, err := f.svc.MatchedConfirmedTotal(ctx, nil, DateRange{})
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestUndo_VoucherCreateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.open(t, "100")

	r := f.receipt(t, "20")
	entries, err := f.audit.List(ctx, audit.ListFilter{EntityType: entityReceipt, EntityID: &r.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, f.audit.Undo(ctx, entries[0].ID, f.admin.UserID, f.admin.UserName))
	_, err = f.svc.GetReceipt(ctx, r.ID, nil)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	d := f.disbursement(t, "5")
	require.NoError(t, f.svc.DeleteDisbursement(ctx, f.admin, d.ID, nil))

	entries, err = f.audit.List(ctx, audit.ListFilter{EntityType: entityDisbursement, EntityID: &d.ID})
	require.NoError(t, err)
	var deleteEntry *models.AuditLog
	for i := range entries {
		if entries[i].Action == models.AuditActionDelete {
			deleteEntry = &entries[i]
		}
	}
	require.NotNil(t, deleteEntry)

	require.NoError(t, f.audit.Undo(ctx, deleteEntry.ID, f.admin.UserID, f.admin.UserName))
	restored, err := f.svc.GetDisbursement(ctx, d.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "5.00", restored.Amount.StringFixed(2))

	err = f.audit.Undo(ctx, deleteEntry.ID, f.admin.UserID, f.admin.UserName)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestUndo_OpeningBalanceHonoursMatching(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ob := f.open(t, "100")
	f.match(t, "100")

	entries, err := f.audit.List(ctx, audit.ListFilter{EntityType: entityOpeningBalance, EntityID: &ob.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	err = f.audit.Undo(ctx, entries[0].ID, f.admin.UserID, f.admin.UserName)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	still, err := f.svc.OpeningBalanceFor(ctx, f.branch.ID, today)
	require.NoError(t, err)
	assert.Equal(t, ob.ID, still.ID)
}

func TestMatching_RecountKeepsBranchWideScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.open(t, "500")
	f.receipt(t, "200")

	m, err := f.svc.CreateMatching(ctx, f.admin, MatchingInput{BranchID: f.branch.ID, Date: today, ActualTotal: dec("700")})
	require.NoError(t, err)
	assert.True(t, m.IsBranchWide)
	assert.Equal(t, "700.00", m.ExpectedTotal.StringFixed(2))

	second := dbtest.User(t, f.db, "admin2", models.RoleAdmin, nil)
	recounted, err := f.svc.RecountMatching(ctx, Actor{UserID: second.ID, UserName: second.Name, Admin: true}, m.ID, dec("700"), "")
	require.NoError(t, err)
	assert.True(t, recounted.IsBranchWide)
	assert.Equal(t, "700.00", recounted.ExpectedTotal.StringFixed(2))
	assert.True(t, recounted.Difference.IsZero())

	// an admin recounting a cashier's matching keeps the cashier's scope
	own := dbtest.User(t, f.db, "cash2", models.RoleCasher, &f.branch.ID)
	cm, err := f.svc.CreateMatching(ctx, Actor{UserID: own.ID}, MatchingInput{BranchID: f.branch.ID, Date: today})
	require.NoError(t, err)
	assert.False(t, cm.IsBranchWide)
	assert.Equal(t, "500.00", cm.ExpectedTotal.StringFixed(2))
	recounted, err = f.svc.RecountMatching(ctx, f.admin, cm.ID, dec("500"), "")
	require.NoError(t, err)
	assert.False(t, recounted.IsBranchWide)
	assert.Equal(t, "500.00", recounted.ExpectedTotal.StringFixed(2))
}

func TestVouchers_BranchWideMatchingLocksCashierDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.open(t, "500")
	r := f.receipt(t, "200")
	d := f.disbursement(t, "40")
	require.NoError(t, f.svc.DeleteDisbursement(ctx, f.cashier, d.ID, nil))

	_, err := f.svc.CreateMatching(ctx, f.admin, MatchingInput{BranchID: f.branch.ID, Date: today, ActualTotal: dec("700")})
	require.NoError(t, err)

	err = f.svc.DeleteReceipt(ctx, f.cashier, r.ID, nil)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	_, err = f.svc.GetReceipt(ctx, r.ID, nil)
	require.NoError(t, err)

	entries, err := f.audit.List(ctx, audit.ListFilter{EntityType: entityDisbursement, EntityID: &d.ID})
	require.NoError(t, err)
	var deleteEntry *models.AuditLog
	for i := range entries {
		if entries[i].Action == models.AuditActionDelete {
			deleteEntry = &entries[i]
		}
	}
	require.NotNil(t, deleteEntry)
	err = f.audit.Undo(ctx, deleteEntry.ID, f.admin.UserID, f.admin.UserName)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}
