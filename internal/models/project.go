package models

import (
	"time"

	"github.com/google/uuid"
)

// Project represents a user-defined study topic and its chat thread.
type Project struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Instructions string    `json:"instructions"` // Guidance for the assistant
	Files        []string  `json:"files"`        // Reference file names, no content; duplicates allowed
	Messages     []Message `json:"messages"`     // Insertion order is chat order
	CreatedAt    time.Time `json:"created_at"`
}

// PinnedMessage returns the project's active study schedule, if any.
func (p *Project) PinnedMessage() (Message, bool) {
	for _, m := range p.Messages {
		if m.IsPinned {
			return m, true
		}
	}
	return Message{}, false
}

// HasPinnedSchedule reports whether any message of the project is pinned.
func (p *Project) HasPinnedSchedule() bool {
	_, ok := p.PinnedMessage()
	return ok
}

// Clone returns a deep copy that shares no slices with p.
func (p Project) Clone() Project {
	c := p
	c.Files = append([]string(nil), p.Files...)
	c.Messages = append([]Message(nil), p.Messages...)
	if c.Files == nil {
		c.Files = []string{}
	}
	if c.Messages == nil {
		c.Messages = []Message{}
	}
	return c
}
