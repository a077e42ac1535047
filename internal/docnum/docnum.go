// Package docnum issues human-readable document numbers from per-scope
// counters stored in the database.
package docnum

import (
	"fmt"
	"strings"
	"time"

	"sunduqi-backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	PrefixReceipt      = "RCPT"
	PrefixDisbursement = "D"
	PrefixDelivery     = "DEL"
	PrefixCollection   = "COLL"
)

// Generator must be called with the transaction that inserts the document,
// so a rolled back insert also rolls back its number.
type Generator struct{}

func New() *Generator { return &Generator{} }

// Next increments the counter for scope and returns the new value.
func (g *Generator) Next(tx *gorm.DB, scope string) (int64, error) {
	counter := models.DocumentCounter{Scope: scope, Seq: 1, UpdatedAt: time.Now()}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "scope"}},
		DoUpdates: clause.Assignments(map[string]any{
			"seq":        gorm.Expr("document_counters.seq + 1"),
			"updated_at": time.Now(),
		}),
	}).Create(&counter).Error
	if err != nil {
		return 0, fmt.Errorf("increment counter %s: %w", scope, err)
	}

	if err := tx.First(&counter, "scope = ?", scope).Error; err != nil {
		return 0, fmt.Errorf("read counter %s: %w", scope, err)
	}
	return counter.Seq, nil
}

// Receipt numbers restart every business day: RCPT-20250610-0001.
func (g *Generator) Receipt(tx *gorm.DB, date string) (string, error) {
	prefix := PrefixReceipt + "-" + strings.ReplaceAll(date, "-", "")
	return g.format(tx, prefix, prefix)
}

// Disbursement numbers restart every year: D-2025-0001.
func (g *Generator) Disbursement(tx *gorm.DB, date string) (string, error) {
	if len(date) < 4 {
		return "", fmt.Errorf("invalid business date %q", date)
	}
	prefix := PrefixDisbursement + "-" + date[:4]
	return g.format(tx, prefix, prefix)
}

// Delivery numbers keep the wall-clock stamp and add a daily sequence:
// DEL-20250610153000-0001.
func (g *Generator) Delivery(tx *gorm.DB, at time.Time) (string, error) {
	return g.format(tx, PrefixDelivery+"-"+at.Format("20060102"), PrefixDelivery+"-"+at.Format("20060102150405"))
}

// Collection numbers follow the delivery scheme: COLL-20250610153000-0001.
func (g *Generator) Collection(tx *gorm.DB, at time.Time) (string, error) {
	return g.format(tx, PrefixCollection+"-"+at.Format("20060102"), PrefixCollection+"-"+at.Format("20060102150405"))
}

func (g *Generator) format(tx *gorm.DB, scope, prefix string) (string, error) {
	seq, err := g.Next(tx, scope)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%04d", prefix, seq), nil
}
