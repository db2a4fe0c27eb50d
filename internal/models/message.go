package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message represents a single entry of a chat thread, either inside a
// project or in the general thread.
// Messages are append-only; IsPinned is the only field that changes after creation.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`   // Free text, paragraphs separated by '\n'
	Timestamp time.Time `json:"timestamp"` // Set by the store on append
	IsPinned  bool      `json:"is_pinned"`
}

// Paragraphs splits the content on newlines the way the chat views render it.
func (m Message) Paragraphs() []string {
	return strings.Split(m.Content, "\n")
}

// GeneralThreadID is the thread id of the cross-project general thread.
// Project threads are addressed by the project id.
const GeneralThreadID = "general"
