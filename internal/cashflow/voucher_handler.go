package cashflow

import (
	"context"
	"mime/multipart"
	"strconv"
	"strings"

	"sunduqi-backend/internal/apperr"
	"sunduqi-backend/internal/auth"
	"sunduqi-backend/internal/cashbox"
	"sunduqi-backend/internal/httpx"
	"sunduqi-backend/internal/models"
	"sunduqi-backend/internal/storage"
	"sunduqi-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// VoucherRequest is accepted as JSON or as multipart/form-data with an
// "attachment" file.
type VoucherRequest struct {
	BranchID      *uint                `json:"branch_id"`
	Date          string               `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Amount        decimal.Decimal      `json:"amount" validate:"gt=0"`
	PaymentMethod models.PaymentMethod `json:"payment_method" validate:"required,oneof=cash visa transfer"`
	ReceivedFrom  string               `json:"received_from" validate:"max=150"`
	PaidTo        string               `json:"paid_to" validate:"max=150"`
	Notes         string               `json:"notes" validate:"max=500"`
}

type voucherKind struct {
	entity string
	folder string
	create func(ctx context.Context, actor cashbox.Actor, in cashbox.VoucherInput) (any, error)
}

func receiptKind(svc *cashbox.Service) voucherKind {
	return voucherKind{
		entity: "receipt",
		folder: "receipts",
		create: func(ctx context.Context, actor cashbox.Actor, in cashbox.VoucherInput) (any, error) {
			return svc.CreateReceipt(ctx, actor, in)
		},
	}
}

func disbursementKind(svc *cashbox.Service) voucherKind {
	return voucherKind{
		entity: "disbursement",
		folder: "disbursements",
		create: func(ctx context.Context, actor cashbox.Actor, in cashbox.VoucherInput) (any, error) {
			return svc.CreateDisbursement(ctx, actor, in)
		},
	}
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm)
}

// bindVoucher fills body from JSON or form fields and returns the uploaded
// attachment header, if any.
func bindVoucher(c *fiber.Ctx, body *VoucherRequest) (*multipart.FileHeader, error) {
	if !isMultipart(c) {
		return nil, httpx.Bind(c, body)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperr.Invalid("صيغة الطلب غير صالحة")
	}
	if raw := c.FormValue("branch_id"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, apperr.Invalid("قيمة branch_id غير صالحة")
		}
		id := uint(v)
		body.BranchID = &id
	}
	if raw := c.FormValue("amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, apperr.Invalid("قيمة amount غير صالحة")
		}
		body.Amount = amount
	}
	body.Date = c.FormValue("date")
	body.PaymentMethod = models.PaymentMethod(c.FormValue("payment_method"))
	body.ReceivedFrom = c.FormValue("received_from")
	body.PaidTo = c.FormValue("paid_to")
	body.Notes = c.FormValue("notes")

	if files := form.File["attachment"]; len(files) > 0 {
		return files[0], nil
	}
	return nil, nil
}

func upload(ctx context.Context, store storage.Storage, prefix string, fh *multipart.FileHeader) (*cashbox.Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, apperr.Invalid("تعذر قراءة الملف المرفق")
	}
	defer f.Close()

	obj, err := store.Put(ctx, prefix, fh.Filename, fh.Header.Get(fiber.HeaderContentType), f, fh.Size)
	if err != nil {
		return nil, err
	}
	return &cashbox.Attachment{Key: obj.Key, URL: obj.URL}, nil
}

// createVoucherHandler stores the attachment first and removes it again when
// the voucher is rejected.
func createVoucherHandler(svc *cashbox.Service, store storage.Storage, log *zap.Logger, kind voucherKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, actor, err := caller(c)
		if err != nil {
			return err
		}

		var body VoucherRequest
		fh, err := bindVoucher(c, &body)
		if err != nil {
			return err
		}
		if err := validation.Struct(body); err != nil {
			return err
		}
		branchID, err := id.ResolveBranchID(body.BranchID)
		if err != nil {
			return err
		}

		in := cashbox.VoucherInput{
			BranchID:      branchID,
			Date:          body.Date,
			Amount:        body.Amount,
			PaymentMethod: body.PaymentMethod,
			Counterpart:   body.ReceivedFrom,
			Notes:         body.Notes,
		}
		if kind.entity == "disbursement" {
			in.Counterpart = body.PaidTo
		}

		if fh != nil {
			branch, err := svc.ActiveBranch(c.UserContext(), branchID)
			if err != nil {
				return err
			}
			in.Attachment, err = upload(c.UserContext(), store, branch.Code+"/"+kind.folder, fh)
			if err != nil {
				return err
			}
		}

		v, err := kind.create(c.UserContext(), actor, in)
		if err != nil {
			if in.Attachment != nil {
				if delErr := store.Delete(c.UserContext(), in.Attachment.Key); delErr != nil {
					log.Warn("orphaned attachment", zap.String("key", in.Attachment.Key), zap.Error(delErr))
				}
			}
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(v)
	}
}

func voucherFilter(c *fiber.Ctx, id auth.Identity) (cashbox.VoucherFilter, error) {
	var f cashbox.VoucherFilter
	branchID, err := httpx.QueryUint(c, "branch_id")
	if err != nil {
		return f, err
	}
	userID, err := httpx.QueryUint(c, "user_id")
	if err != nil {
		return f, err
	}
	approved, err := httpx.QueryBool(c, "approved")
	if err != nil {
		return f, err
	}
	method := models.PaymentMethod(c.Query("payment_method"))
	if method != "" && !method.Valid() {
		return f, apperr.Invalid("طريقة الدفع غير صالحة (cash|visa|transfer)")
	}
	r, err := dateRange(c)
	if err != nil {
		return f, err
	}

	f.BranchID = id.ScopeBranchID(branchID)
	f.UserID = userID
	f.PaymentMethod = method
	f.Approved = approved
	f.DateRange = r
	f.Limit, f.Offset = httpx.Page(c)
	return f, nil
}

// -------------------------------------------------
// POST /api/receipts (JSON or multipart with "attachment")
// -------------------------------------------------
func CreateReceiptHandler(svc *cashbox.Service, store storage.Storage, log *zap.Logger) fiber.Handler {
	return createVoucherHandler(svc, store, log, receiptKind(svc))
}

// -------------------------------------------------
// GET /api/receipts?branch_id=&user_id=&payment_method=&approved=&from=&to=
// -------------------------------------------------
func ListReceiptsHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _, err := caller(c)
		if err != nil {
			return err
		}
		f, err := voucherFilter(c, id)
		if err != nil {
			return err
		}
		items, err := svc.ListReceipts(c.UserContext(), f)
		if err != nil {
			return err
		}
		return c.JSON(items)
	}
}

// -------------------------------------------------
// GET /api/receipts/:id
// -------------------------------------------------
func GetReceiptHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _, err := caller(c)
		if err != nil {
			return err
		}
		rid, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		r, err := svc.GetReceipt(c.UserContext(), rid, id.ScopeBranchID(nil))
		if err != nil {
			return err
		}
		return c.JSON(r)
	}
}

// -------------------------------------------------
// POST /api/receipts/:id/approve (admin)
// -------------------------------------------------
func ApproveReceiptHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, actor, err := caller(c)
		if err != nil {
			return err
		}
		rid, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		r, err := svc.ApproveReceipt(c.UserContext(), actor, rid)
		if err != nil {
			return err
		}
		return c.JSON(r)
	}
}

// -------------------------------------------------
// DELETE /api/receipts/:id
// -------------------------------------------------
func DeleteReceiptHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, actor, err := caller(c)
		if err != nil {
			return err
		}
		rid, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := svc.DeleteReceipt(c.UserContext(), actor, rid, id.ScopeBranchID(nil)); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "تم حذف سند القبض"})
	}
}

// -------------------------------------------------
// POST /api/disbursements (JSON or multipart with "attachment")
// -------------------------------------------------
func CreateDisbursementHandler(svc *cashbox.Service, store storage.Storage, log *zap.Logger) fiber.Handler {
	return createVoucherHandler(svc, store, log, disbursementKind(svc))
}

// -------------------------------------------------
// GET /api/disbursements
// -------------------------------------------------
func ListDisbursementsHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _, err := caller(c)
		if err != nil {
			return err
		}
		f, err := voucherFilter(c, id)
		if err != nil {
			return err
		}
		items, err := svc.ListDisbursements(c.UserContext(), f)
		if err != nil {
			return err
		}
		return c.JSON(items)
	}
}

// -------------------------------------------------
// GET /api/disbursements/:id
// -------------------------------------------------
func GetDisbursementHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _, err := caller(c)
		if err != nil {
			return err
		}
		did, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		d, err := svc.GetDisbursement(c.UserContext(), did, id.ScopeBranchID(nil))
		if err != nil {
			return err
		}
		return c.JSON(d)
	}
}

// -------------------------------------------------
// POST /api/disbursements/:id/approve (admin)
// -------------------------------------------------
func ApproveDisbursementHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, actor, err := caller(c)
		if err != nil {
			return err
		}
		did, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		d, err := svc.ApproveDisbursement(c.UserContext(), actor, did)
		if err != nil {
			return err
		}
		return c.JSON(d)
	}
}

// -------------------------------------------------
// DELETE /api/disbursements/:id
// -------------------------------------------------
func DeleteDisbursementHandler(svc *cashbox.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, actor, err := caller(c)
		if err != nil {
			return err
		}
		did, err := httpx.ParamID(c, "id")
		if err != nil {
			return err
		}
		if err := svc.DeleteDisbursement(c.UserContext(), actor, did, id.ScopeBranchID(nil)); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"message": "تم حذف سند الصرف"})
	}
}
