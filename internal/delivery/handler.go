// Package delivery serves the end-of-day chain: cash matching, delivery of
// the drawer and its collection by an admin.
package delivery

import (
	"sunduqi-backend/internal/apperr"
	"sunduqi-backend/internal/auth"
	"sunduqi-backend/internal/cashbox"
	"sunduqi-backend/internal/httpx"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func caller(c *fiber.Ctx) (auth.Identity, cashbox.Actor, error) {
	id, err := auth.CurrentIdentity(c)
	if err != nil {
		return id, cashbox.Actor{}, err
	}
	return id, cashbox.Actor{UserID: id.UserID, UserName: id.Username, Admin: id.IsAdmin()}, nil
}

func dateRange(c *fiber.Ctx) (cashbox.DateRange, error) {
	from, to, err := httpx.DateRange(c)
	return cashbox.DateRange{From: from, To: to}, err
}

// countedTotal unwraps the counted cash. A missing count is rejected, zero is not.
func countedTotal(v *decimal.Decimal) (decimal.Decimal, error) {
	if v == nil {
		return decimal.Zero, apperr.Invalid("الحقل actual_total مطلوب")
	}
	if v.IsNegative() {
		return decimal.Zero, apperr.Invalid("يجب أن تكون قيمة actual_total أكبر من أو تساوي 0")
	}
	return *v, nil
}
