package domain

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleUser marks a turn written by the person asking questions.
	RoleUser Role = "user"

	// RoleAssistant marks a turn produced by the answer pipeline.
	RoleAssistant Role = "assistant"
)

// Turn is a single message within a conversation thread.
type Turn struct {
	// Role is who authored the turn.
	Role Role

	// Text is the message content.
	Text string

	// Timestamp is when the turn was recorded.
	Timestamp time.Time
}
