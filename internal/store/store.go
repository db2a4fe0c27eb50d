package store

import (
	"context"
	"errors"
	"studyplanner-backend/internal/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a specific record is not found.
// Mutations that hit a missing record leave the store untouched.
var ErrNotFound = errors.New("record not found")

// ErrInvalidMessage is returned when a message is appended with an unknown role.
var ErrInvalidMessage = errors.New("invalid message")

// CreateProjectParams contains parameters for creating a project.
// The store assigns ID, CreatedAt and an empty message list.
type CreateProjectParams struct {
	Name         string
	Description  string
	Instructions string
	Files        []string
}

// UpdateProjectParams contains parameters for updating a project.
type UpdateProjectParams struct {
	ID           uuid.UUID
	Name         *string // Pointers allow partial updates
	Description  *string
	Instructions *string
	Files        *[]string
}

// AddMessageParams contains parameters for appending a message to a thread.
// The store assigns ID and Timestamp.
type AddMessageParams struct {
	Role    models.Role
	Content string
}

// Store defines the interface for state operations.
// The store performs no input validation; callers check names, roles and
// content before calling it.
type Store interface {
	// Project operations
	CreateProject(ctx context.Context, arg CreateProjectParams) (*models.Project, error)
	GetProjectByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	CountProjects(ctx context.Context) (int, error)
	UpdateProject(ctx context.Context, arg UpdateProjectParams) (*models.Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID) error

	// Project thread operations
	AddMessage(ctx context.Context, projectID uuid.UUID, arg AddMessageParams) (*models.Message, error)
	// PinMessage toggles the pin on messageID and clears every other pin of
	// the project. It returns the project's messages after the toggle.
	PinMessage(ctx context.Context, projectID, messageID uuid.UUID) ([]models.Message, error)

	// General thread operations
	AddGeneralMessage(ctx context.Context, arg AddMessageParams) (*models.Message, error)
	ListGeneralMessages(ctx context.Context) ([]models.Message, error)

	// Revision increases with every successful mutation.
	Revision() uint64
}
