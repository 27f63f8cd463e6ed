package models

import "time"

// Notification is the asynchronous fallback created when a message could not
// be delivered into the live conversation. Only the Seen flag ever changes
// after creation; rows are never deleted by the relay.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	MessageID *uint     `gorm:"index" json:"message_id,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Seen      bool      `gorm:"not null;default:false" json:"seen"`
	CreatedAt time.Time `json:"created_at"`
}
