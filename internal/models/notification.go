package models

import "time"

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)

type Notification struct {
	ID        uint                 `gorm:"primaryKey" json:"id"`
	UserID    uint                 `gorm:"not null;index" json:"user_id"`
	Title     string               `gorm:"size:150;not null" json:"title"`
	Message   string               `gorm:"size:1000;not null" json:"message"`
	Priority  NotificationPriority `gorm:"size:10;not null;default:'normal'" json:"priority"`
	Link      string               `gorm:"size:255" json:"link,omitempty"`
	IsRead    bool                 `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt    *time.Time           `json:"read_at"`
	CreatedAt time.Time            `json:"created_at"`
}
