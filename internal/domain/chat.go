package domain

import (
	"time"
)

// MessageRole represents the sender of a chat message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// ChatMessage is a single entry in a conversation thread. Messages are
// immutable once created except for the fields a MessagePatch can touch.
type ChatMessage struct {
	ID        string          `json:"id"`
	Role      MessageRole     `json:"role"`
	Content   string          `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
	Payload   *MessagePayload `json:"payload,omitempty"`
	Pending   bool            `json:"is_pending,omitempty"`
	ErrorText string          `json:"error_text,omitempty"`
}

// MessagePatch applies partial updates to a message by id. Nil fields are
// left untouched.
type MessagePatch struct {
	Content   *string
	Pending   *bool
	ErrorText *string
	Payload   *MessagePayload
}

// ChatSession is one independent, titled conversation thread with its own
// message history. Title and UpdatedAt are recomputed when messages arrive.
type ChatSession struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Messages  []ChatMessage `json:"messages"`
}

// SessionSummary is the session list view exposed to consumers
type SessionSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}
