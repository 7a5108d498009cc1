package conversation

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Role tags one entry of the conversation log.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"

	// RolePending marks the placeholder for the in-flight request. At most
	// one pending entry exists, and it is always the last while present.
	RolePending Role = "pending"
)

// Message is one immutable entry of the conversation log.
type Message struct {
	ID        string
	Text      string
	Role      Role
	Timestamp time.Time
}

func newMessage(role Role, text string, now time.Time) Message {
	return Message{
		ID:        ulid.Make().String(),
		Text:      text,
		Role:      role,
		Timestamp: now,
	}
}
