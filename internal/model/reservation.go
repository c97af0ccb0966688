package model

import "time"

// Reservation is a customer's claim on a padaria's fornada.
// EventID is empty when the reservation is not tied to a specific event.
type Reservation struct {
	ID          int64     `gorm:"primaryKey"`
	PadariaID   int64     `gorm:"index;not null"`
	EventID     string    `gorm:"size:36"`
	UserID      *int64    `gorm:"index"`
	ContactName string    `gorm:"size:256"`
	CreatedAt   time.Time `gorm:"not null"`

	// Associations
	Padaria Padaria `gorm:"constraint:OnDelete:CASCADE"`
}
