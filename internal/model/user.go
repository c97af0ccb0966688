package model

import "time"

// Plans a user account can be on.
const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// User represents a registered account that can own padarias.
type User struct {
	ID           int64  `gorm:"primaryKey"`
	Name         string `gorm:"size:128;not null"`
	Email        string `gorm:"uniqueIndex;size:256;not null"`
	PasswordHash string `gorm:"not null" json:"-"`
	Plan         string `gorm:"size:32;not null;default:free"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
