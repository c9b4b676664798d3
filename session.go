package analyst

import (
	"time"

	"github.com/google/uuid"
)

// Session represents a conversation session as stored by a MessageLog.
type Session struct {
	ID        string
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionStats summarizes a stored session without loading its messages.
type SessionStats struct {
	ID           string
	MessageCount int
	FirstAt      time.Time
	LastAt       time.Time
}

// NewSessionID returns a fresh opaque session identifier.
func NewSessionID() string {
	return uuid.NewString()
}
