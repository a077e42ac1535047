package models

import "time"

// DocumentCounter holds the last issued sequence per numbering scope,
// e.g. "RCPT-20250610" or "D-2025".
type DocumentCounter struct {
	Scope     string `gorm:"primaryKey;size:40"`
	Seq       int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}
