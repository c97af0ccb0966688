package model

import "time"

// Padaria represents an establishment in the directory.
type Padaria struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"size:256;not null"`
	Description string `gorm:"size:1024"`
	Address     string `gorm:"size:512"`
	Latitude    float64
	Longitude   float64
	Icon        string `gorm:"size:512"`
	OwnerID     *int64 `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Associations
	Owner  *User          `gorm:"foreignKey:OwnerID"`
	Events []FornadaEvent `gorm:"foreignKey:PadariaID;constraint:OnDelete:CASCADE"`
}

// FornadaEvent is a daily fresh-batch event at a wall-clock time.
// Time is an "HH:MM" string in the configured civil timezone, not an instant.
type FornadaEvent struct {
	EventID     string `gorm:"primaryKey;size:36"`
	PadariaID   int64  `gorm:"index;not null"`
	Time        string `gorm:"size:8;not null"`
	Description string `gorm:"size:512"`
	CreatedAt   time.Time
}
