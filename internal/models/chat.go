package models

import (
	"time"
)

// Message is one entry of a conversation transcript. Messages are immutable once appended, except the
// assistant message currently being streamed, whose Content is overwritten with the growing accumulator.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time

	// IsWelcome marks the greeting shown before the first turn. It is never sent upstream.
	IsWelcome bool
	// StreamingState is presentation-only and tracks the lifecycle of an assistant reply.
	StreamingState StreamingState
}

// Turn is the wire form of a Message: only the role and the text travel to the relay and upstream.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body accepted by the streaming relay.
type ChatRequest struct {
	Messages []Turn `json:"messages"`
	Language string `json:"language,omitempty"`
}

// Frame is the JSON payload of a single SSE data line emitted by the relay. Exactly one of the fields is
// set: Content for a fragment, Done or Error for the terminal frame.
type Frame struct {
	Content string `json:"content,omitempty"`
	Done    bool   `json:"done,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Role represents the role of a message participant.
type Role string

// StreamingState describes where an assistant message is in its streaming lifecycle.
type StreamingState string

const (
	// RoleUser represents a message typed by the visitor.
	RoleUser Role = "user"
	// RoleAssistant represents a message produced by the model.
	RoleAssistant Role = "assistant"

	StreamingStateLoading   StreamingState = "loading"
	StreamingStateStreaming StreamingState = "streaming"
	StreamingStateEnded     StreamingState = "ended"
)

// Valid reports whether r is one of the roles accepted by the relay.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turns converts a transcript into the upstream conversation, dropping the welcome message, assistant
// messages without content, and every presentation-only field. Order is preserved.
func Turns(messages []Message) []Turn {
	turns := make([]Turn, 0, len(messages))
	for _, msg := range messages {
		if msg.IsWelcome {
			continue
		}
		// Upstream APIs reject empty text content; a reply that never received a fragment has none.
		if msg.Role == RoleAssistant && msg.Content == "" {
			continue
		}
		turns = append(turns, Turn{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return turns
}
