package models

import (
	"time"

	"github.com/google/uuid"
)

// --- Response Structs ---

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// --- Project DTOs ---

// CreateProjectRequest defines the body for creating a study project.
type CreateProjectRequest struct {
	Name         string   `json:"name"` // Required, must not be blank
	Description  string   `json:"description"`
	Instructions string   `json:"instructions"`
	Files        []string `json:"files"`
}

// UpdateProjectRequest defines the payload for editing a project.
// Only fields present in the request will be updated.
type UpdateProjectRequest struct {
	Name         *string   `json:"name"`
	Description  *string   `json:"description"`
	Instructions *string   `json:"instructions"`
	Files        *[]string `json:"files"`
}

// Empty reports whether the request carries no field at all.
func (r UpdateProjectRequest) Empty() bool {
	return r.Name == nil && r.Description == nil && r.Instructions == nil && r.Files == nil
}

// ProjectSummary is the listing representation of a project, as shown on
// the dashboard cards.
type ProjectSummary struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	FileCount         int       `json:"file_count"`
	MessageCount      int       `json:"message_count"`
	HasPinnedSchedule bool      `json:"has_pinned_schedule"`
	CreatedAt         time.Time `json:"created_at"`
}

// ListProjectsResponse defines the response structure for listing projects.
type ListProjectsResponse struct {
	Projects []ProjectSummary `json:"projects"`
}

// --- Message DTOs ---

// SendMessageRequest defines the payload for posting a user message to a thread.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// SendMessageResponse is returned after a user message has been appended.
// The assistant reply arrives later and is delivered over the thread stream.
type SendMessageResponse struct {
	Message      Message `json:"message"`
	ReplyPending bool    `json:"reply_pending"`
}

// ListMessagesResponse defines the response structure for a thread's messages.
type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
}

// ScheduleResponse carries the pinned study schedule of a project.
type ScheduleResponse struct {
	ProjectID uuid.UUID `json:"project_id"`
	Schedule  *Message  `json:"schedule"` // nil when nothing is pinned
}
