// Package cashbox implements the daily cash cycle of a branch: opening
// balance, vouchers, matching, delivery, collection and bank transfer.
package cashbox

import (
	"context"
	"time"

	"sunduqi-backend/internal/audit"
	"sunduqi-backend/internal/docnum"
	"sunduqi-backend/internal/notification"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Auditor records workflow changes in the caller's transaction.
type Auditor interface {
	Write(ctx context.Context, tx *gorm.DB, opts audit.LogOptions) error
}

// Notifier delivers workflow notifications. Services call it after commit with a nil tx.
type Notifier interface {
	NotifyUser(ctx context.Context, tx *gorm.DB, userID uint, msg notification.Message) error
	NotifyAdmins(ctx context.Context, tx *gorm.DB, msg notification.Message) error
}

// Actor is the authenticated user a service call acts for.
type Actor struct {
	UserID   uint
	UserName string
	Admin    bool
}

type Service struct {
	db       *gorm.DB
	numbers  *docnum.Generator
	audit    Auditor
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

type Option func(*Service)

func WithAuditor(a Auditor) Option { return func(s *Service) { s.audit = a } }

func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = l.Named("cashbox") } }

// WithClock overrides time.Now, used for business dates and timestamps.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(db *gorm.DB, numbers *docnum.Generator, opts ...Option) *Service {
	s := &Service{
		db:       db,
		numbers:  numbers,
		audit:    nopAuditor{},
		notifier: nopNotifier{},
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current business date.
func (s *Service) Today() string {
	return s.now().Format(DateLayout)
}

// notify only logs failures; the change it reports is already committed.
func (s *Service) notify(err error, event string) {
	if err != nil {
		s.log.Warn("notification failed", zap.String("event", event), zap.Error(err))
	}
}

type nopAuditor struct{}

func (nopAuditor) Write(context.Context, *gorm.DB, audit.LogOptions) error { return nil }

type nopNotifier struct{}

func (nopNotifier) NotifyUser(context.Context, *gorm.DB, uint, notification.Message) error {
	return nil
}

func (nopNotifier) NotifyAdmins(context.Context, *gorm.DB, notification.Message) error { return nil }
