// Package cashflow serves the daily documents of a branch: opening balances,
// receipts and disbursements.
package cashflow

import (
	"sunduqi-backend/internal/auth"
	"sunduqi-backend/internal/cashbox"
	"sunduqi-backend/internal/httpx"

	"github.com/gofiber/fiber/v2"
)

// caller reads the authenticated user and the matching service actor.
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
