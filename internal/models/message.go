package models

import "time"

// Message is a persisted direct message between two users. It is immutable
// once created; ID and CreatedAt are assigned by the database on insert and
// together form the ordering key of a conversation.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	SenderID   uint      `gorm:"not null;index:idx_conversation" json:"sender_id"`
	ReceiverID uint      `gorm:"not null;index:idx_conversation" json:"receiver_id"`
	CreatedAt  time.Time `json:"created_at"`
}
