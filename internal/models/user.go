package models

import "time"

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleCasher UserRole = "casher"
)

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleCasher
}

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	BranchID     *uint     `gorm:"index" json:"branch_id"` // nil for admins without a home branch
	Branch       *Branch   `json:"branch,omitempty"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Username     string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         UserRole  `gorm:"size:20;not null" json:"role"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
