// Package server assembles the fiber application and its routes.
package server

import (
	"strings"

	"sunduqi-backend/internal/admin"
	"sunduqi-backend/internal/audit"
	"sunduqi-backend/internal/auth"
	"sunduqi-backend/internal/banking"
	"sunduqi-backend/internal/cashflow"
	"sunduqi-backend/internal/dashboard"
	"sunduqi-backend/internal/delivery"
	"sunduqi-backend/internal/httpx"
	"sunduqi-backend/internal/logger"
	"sunduqi-backend/internal/models"
	"sunduqi-backend/internal/notification"
	"sunduqi-backend/internal/report"
	"sunduqi-backend/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
)

func New(d *Deps) *fiber.App {
	cfg := d.Config
	bodyLimit := cfg.HTTP.BodyLimitMB
	if bodyLimit <= 0 {
		bodyLimit = 10
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    bodyLimit * 1024 * 1024,
		ErrorHandler: httpx.ErrorHandler(d.Log),
	})

	app.Use(logger.RequestLogger(d.Log), logger.Recover(d.Log))

	origins := strings.Split(cfg.HTTP.CORSOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	if local, ok := d.Storage.(*storage.Local); ok {
		app.Static(cfg.Storage.PublicPath, local.Dir())
	}

	api := app.Group("/api")
	api.Get("/health", healthHandler(d))

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(d.DB))
	api.Post("/auth/login", auth.LoginHandler(d.DB, cfg.JWT))

	// Protected
	protected := api.Group("", auth.JWTMiddleware(cfg.JWT), auth.ActiveUser(d.DB), dashboard.InvalidateOnWrite(d.Dashboard))
	adminOnly := auth.RequireRole(models.RoleAdmin)

	protected.Get("/auth/me", auth.MeHandler(d.DB))

	// Opening balances
	protected.Post("/opening-balances", cashflow.CreateOpeningBalanceHandler(d.Cashbox))
	protected.Get("/opening-balances", cashflow.ListOpeningBalancesHandler(d.Cashbox))
	protected.Get("/opening-balances/day", cashflow.GetOpeningBalanceForDayHandler(d.Cashbox))
	protected.Delete("/opening-balances/:id", adminOnly, cashflow.DeleteOpeningBalanceHandler(d.Cashbox))

	// Receipts & disbursements
	protected.Post("/receipts", cashflow.CreateReceiptHandler(d.Cashbox, d.Storage, d.Log))
	protected.Get("/receipts", cashflow.ListReceiptsHandler(d.Cashbox))
	protected.Get("/receipts/:id", cashflow.GetReceiptHandler(d.Cashbox))
	protected.Post("/receipts/:id/approve", adminOnly, cashflow.ApproveReceiptHandler(d.Cashbox))
	protected.Delete("/receipts/:id", cashflow.DeleteReceiptHandler(d.Cashbox))

	protected.Post("/disbursements", cashflow.CreateDisbursementHandler(d.Cashbox, d.Storage, d.Log))
	protected.Get("/disbursements", cashflow.ListDisbursementsHandler(d.Cashbox))
	protected.Get("/disbursements/:id", cashflow.GetDisbursementHandler(d.Cashbox))
	protected.Post("/disbursements/:id/approve", adminOnly, cashflow.ApproveDisbursementHandler(d.Cashbox))
	protected.Delete("/disbursements/:id", cashflow.DeleteDisbursementHandler(d.Cashbox))

	// Matching
	protected.Get("/cash-matching/expected", delivery.ExpectedTotalsHandler(d.Cashbox))
	protected.Post("/cash-matching", delivery.CreateMatchingHandler(d.Cashbox))
	protected.Get("/cash-matching", delivery.ListMatchingsHandler(d.Cashbox))
	protected.Get("/cash-matching/:id", delivery.GetMatchingHandler(d.Cashbox))
	protected.Put("/cash-matching/:id", delivery.RecountMatchingHandler(d.Cashbox))
	protected.Post("/cash-matching/:id/resolve", adminOnly, delivery.ResolveMatchingHandler(d.Cashbox))

	// Deliveries & collections
	protected.Post("/cash-deliveries", delivery.DeliverHandler(d.Cashbox))
	protected.Get("/cash-deliveries", delivery.ListDeliveriesHandler(d.Cashbox))
	protected.Get("/cash-deliveries/matched-confirmed-total", delivery.MatchedConfirmedTotalHandler(d.Cashbox))
	protected.Get("/cash-deliveries/:id", delivery.GetDeliveryHandler(d.Cashbox))
	protected.Post("/cash-deliveries/:id/verify", adminOnly, delivery.VerifyDeliveryHandler(d.Cashbox))

	protected.Post("/cash-collections", adminOnly, delivery.CollectHandler(d.Cashbox))
	protected.Get("/cash-collections", adminOnly, delivery.ListCollectionsHandler(d.Cashbox))
	protected.Post("/cash-collections/:id/verify", adminOnly, delivery.VerifyCollectionHandler(d.Cashbox))

	// Bank transfers
	protected.Get("/bank-transfers/check", banking.CheckTransferHandler(d.Cashbox))
	protected.Get("/bank-transfers/preview", adminOnly, banking.PreviewTransferHandler(d.Cashbox))
	protected.Get("/bank-transfers/summary", adminOnly, banking.TransferSummaryHandler(d.Cashbox))
	protected.Get("/bank-transfers", adminOnly, banking.ListTransfersHandler(d.Cashbox))
	protected.Post("/bank-transfers/confirm", adminOnly, banking.ConfirmTransferHandler(d.Cashbox))

	// Dashboard
	protected.Get("/dashboard/stats", dashboard.StatsHandler(d.Dashboard))
	protected.Get("/dashboard/cash-chart", dashboard.CashChartHandler(d.Dashboard))

	// Notifications
	protected.Get("/notifications", notification.ListHandler(d.Notify))
	protected.Get("/notifications/unread-count", notification.UnreadCountHandler(d.Notify))
	protected.Put("/notifications/read-all", notification.MarkAllReadHandler(d.Notify))
	protected.Put("/notifications/:id/read", notification.MarkReadHandler(d.Notify))
	protected.Delete("/notifications/:id", notification.DeleteHandler(d.Notify))
	protected.Post("/notifications", adminOnly, notification.CreateHandler(d.Notify))

	// Reports
	protected.Get("/reports/daily.xlsx", report.DailyHandler(d.Reports, d.Log))
	protected.Get("/reports/bank-transfers.xlsx", adminOnly, report.BankTransfersHandler(d.Reports, d.Log))

	// Admin
	adminRoutes := protected.Group("/admin", adminOnly)
	adminRoutes.Post("/branches", admin.CreateBranchHandler(d.DB))
	adminRoutes.Get("/branches", admin.ListBranchesHandler(d.DB))
	adminRoutes.Get("/branches/:id", admin.GetBranchHandler(d.DB))
	adminRoutes.Put("/branches/:id", admin.UpdateBranchHandler(d.DB))
	adminRoutes.Delete("/branches/:id", admin.DeleteBranchHandler(d.DB))

	adminRoutes.Post("/users", admin.CreateUserHandler(d.DB))
	adminRoutes.Get("/users", admin.ListUsersHandler(d.DB))
	adminRoutes.Get("/users/:id", admin.GetUserHandler(d.DB))
	adminRoutes.Put("/users/:id", admin.UpdateUserHandler(d.DB))
	adminRoutes.Put("/users/:id/password", admin.ResetPasswordHandler(d.DB))
	adminRoutes.Delete("/users/:id", admin.DeleteUserHandler(d.DB))

	// Audit
	protected.Get("/audit-logs", adminOnly, audit.ListAuditLogsHandler(d.Audit))
	protected.Post("/audit-logs/:id/undo", adminOnly, audit.UndoAuditLogHandler(d.Audit))

	return app
}

// GET /api/health
func healthHandler(d *Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.UserContext())
		}
		if err != nil {
			d.Log.Warn("health check failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
