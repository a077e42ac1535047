package server

import (
	"sunduqi-backend/internal/audit"
	"sunduqi-backend/internal/cache"
	"sunduqi-backend/internal/cashbox"
	"sunduqi-backend/internal/config"
	"sunduqi-backend/internal/dashboard"
	"sunduqi-backend/internal/docnum"
	"sunduqi-backend/internal/notification"
	"sunduqi-backend/internal/report"
	"sunduqi-backend/internal/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps is everything the routes need. Build it with Wire.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Log       *zap.Logger
	Storage   storage.Storage
	Audit     *audit.Writer
	Notify    *notification.Service
	Cashbox   *cashbox.Service
	Dashboard *dashboard.Service
	Reports   *report.Builder
}

// Wire builds the services on top of the infrastructure and registers the
// undo handlers of the cashbox documents.
func Wire(cfg *config.Config, db *gorm.DB, log *zap.Logger, store storage.Storage, c cache.Cache, opts ...cashbox.Option) *Deps {
	w := audit.NewWriter(db, log)
	n := notification.NewService(db, log)

	opts = append([]cashbox.Option{
		cashbox.WithAuditor(w),
		cashbox.WithNotifier(n),
		cashbox.WithLogger(log),
	}, opts...)
	svc := cashbox.NewService(db, docnum.New(), opts...)
	svc.RegisterUndo(w)

	return &Deps{
		Config:    cfg,
		DB:        db,
		Log:       log,
		Storage:   store,
		Audit:     w,
		Notify:    n,
		Cashbox:   svc,
		Dashboard: dashboard.NewService(db, c, cfg.Redis.StatsTTL, log),
		Reports:   report.NewBuilder(svc),
	}
}
