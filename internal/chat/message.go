package chat

import (
	"time"

	"github.com/google/uuid"

	"finagent/internal/normalize"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation log. It is never modified after it
// is appended.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time
}

// Display returns the content as it should be rendered. History entries are
// stored as the backend sent them, so cleaning happens here.
func (m Message) Display() string {
	return normalize.Clean(m.Content)
}

// IsUser reports whether the user wrote the message.
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

func newMessage(role Role, content string, ts time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: ts,
	}
}

func parseRole(s string) Role {
	if Role(s) == RoleUser {
		return RoleUser
	}
	return RoleAssistant
}
