package model

// NotificationMessage is one canned filler string from the message pool.
// The sweep picks one at random when an event carries no explicit message.
type NotificationMessage struct {
	ID   int64  `gorm:"primaryKey"`
	Body string `gorm:"size:512;not null"`
}
