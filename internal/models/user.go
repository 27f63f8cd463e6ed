package models

import (
	"time"

	"github.com/lib/pq" // required for pq.Int64Array
)

// User represents an account in the system. The numeric ID doubles as the
// principal identifier carried inside issued tokens.
type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Username string `gorm:"not null" json:"username"`
	// Password holds the bcrypt hash, never the plain text. Excluded from JSON.
	Password string `gorm:"not null" json:"-"`

	// TelegramChatID is set once the user links a Telegram chat for
	// offline notification pushes. May be nil.
	TelegramChatID *int64 `gorm:"index" json:"-"`

	// MutedUserIDs lists principals whose messages never produce a
	// fallback notification for this user.
	MutedUserIDs pq.Int64Array `gorm:"type:bigint[]" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// HasMuted reports whether the given principal is on the user's mute list.
func (u *User) HasMuted(id uint) bool {
	for _, muted := range u.MutedUserIDs {
		if muted == int64(id) {
			return true
		}
	}
	return false
}
