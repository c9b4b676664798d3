package analyst

import (
	"fmt"
	"maps"
	"time"
)

// Message is one conversation turn fragment. Messages are immutable once
// appended to a MessageLog; insertion order is conversation order.
type Message struct {
	Role      Role
	Content   string
	Timestamp time.Time
	Metadata  map[string]any
}

// UserMessage returns a user message stamped with at.
func UserMessage(content string, at time.Time) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: at}
}

// AssistantMessage returns an assistant message stamped with at.
func AssistantMessage(content string, at time.Time, metadata map[string]any) Message {
	return Message{Role: RoleAssistant, Content: content, Timestamp: at, Metadata: metadata}
}

// Validate checks that the message can be appended to a log.
func (m Message) Validate() error {
	if !m.Role.Valid() {
		return fmt.Errorf("unknown role %q: %w", m.Role, ErrValidation)
	}
	if m.Timestamp.IsZero() {
		return fmt.Errorf("message timestamp is zero: %w", ErrValidation)
	}
	return nil
}

// Clone returns a copy of m whose metadata map is not shared with m.
func (m Message) Clone() Message {
	if m.Metadata != nil {
		m.Metadata = maps.Clone(m.Metadata)
	}
	return m
}
