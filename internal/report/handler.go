package report

import (
	"fmt"

	"sunduqi-backend/internal/auth"
	"sunduqi-backend/internal/cashbox"
	"sunduqi-backend/internal/httpx"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func send(c *fiber.Ctx, log *zap.Logger, f *excelize.File, name string) error {
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn("close workbook", zap.Error(err))
		}
	}()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Send(buf.Bytes())
}

// ----------------------------------------
// GET /api/reports/daily.xlsx?branch_id=&date=
// cashiers get their own documents only
// ----------------------------------------
func DailyHandler(b *Builder, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := auth.CurrentIdentity(c)
		if err != nil {
			return err
		}
		requested, err := httpx.QueryUint(c, "branch_id")
		if err != nil {
			return err
		}
		branchID, err := id.ResolveBranchID(requested)
		if err != nil {
			return err
		}

		f, name, err := b.Daily(c.UserContext(), DailyQuery{
			BranchID: branchID,
			UserID:   id.ScopeUserID(),
			Date:     c.Query("date"),
		})
		if err != nil {
			return err
		}
		return send(c, log, f, name)
	}
}

// ----------------------------------------
// GET /api/reports/bank-transfers.xlsx?from=&to=
// ----------------------------------------
func BankTransfersHandler(b *Builder, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := httpx.DateRange(c)
		if err != nil {
			return err
		}
		f, name, err := b.BankTransfers(c.UserContext(), cashbox.DateRange{From: from, To: to})
		if err != nil {
			return err
		}
		return send(c, log, f, name)
	}
}
