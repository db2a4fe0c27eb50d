package services

import (
	"context"
	"fmt"
	"strings"
	"studyplanner-backend/internal/events"
	"studyplanner-backend/internal/metrics"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/internal/responder"
	"studyplanner-backend/internal/store"
	"studyplanner-backend/pkg/log"

	"github.com/google/uuid"
)

// ProjectService handles business logic related to study projects.
type ProjectService struct {
	store     store.Store
	responder *responder.Responder
	hub       *events.Hub
	metrics   *metrics.Metrics
}

// NewProjectService creates a new ProjectService.
func NewProjectService(s store.Store, r *responder.Responder, hub *events.Hub, m *metrics.Metrics) *ProjectService {
	return &ProjectService{
		store:     s,
		responder: r,
		hub:       hub,
		metrics:   m,
	}
}

// mapProjectToSummary converts a project to its dashboard card representation.
func mapProjectToSummary(p models.Project) models.ProjectSummary {
	return models.ProjectSummary{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		FileCount:         len(p.Files),
		MessageCount:      len(p.Messages),
		HasPinnedSchedule: p.HasPinnedSchedule(),
		CreatedAt:         p.CreatedAt,
	}
}

// normalizeFiles trims every file name and drops blank entries. Duplicates
// are kept.
func normalizeFiles(files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// CreateProject validates input and creates a new project.
func (s *ProjectService) CreateProject(ctx context.Context, req models.CreateProjectRequest) (*models.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrValidation)
	}

	p, err := s.store.CreateProject(ctx, store.CreateProjectParams{
		Name:         name,
		Description:  req.Description,
		Instructions: req.Instructions,
		Files:        normalizeFiles(req.Files),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create project in store: %w", err)
	}

	s.metrics.ProjectsCreated.Inc()
	log.Infow("[ProjectService] Project created", "project_id", p.ID, "name", p.Name)
	return p, nil
}

// GetProject retrieves a project with its full thread.
func (s *ProjectService) GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	p, err := s.store.GetProjectByID(ctx, id)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, err // Propagate not found error
		}
		return nil, fmt.Errorf("failed to get project from store: %w", err)
	}
	return p, nil
}

// ListProjects retrieves all projects in creation order.
func (s *ProjectService) ListProjects(ctx context.Context) (*models.ListProjectsResponse, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects from store: %w", err)
	}

	summaries := make([]models.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		summaries = append(summaries, mapProjectToSummary(p))
	}
	return &models.ListProjectsResponse{Projects: summaries}, nil
}

// CountProjects returns the number of projects.
func (s *ProjectService) CountProjects(ctx context.Context) (int, error) {
	return s.store.CountProjects(ctx)
}

// UpdateProject applies a partial edit. Name, when present, must not be blank.
func (s *ProjectService) UpdateProject(ctx context.Context, id uuid.UUID, req models.UpdateProjectRequest) (*models.Project, error) {
	if req.Empty() {
		return nil, fmt.Errorf("%w: no update fields provided", ErrValidation)
	}

	params := store.UpdateProjectParams{
		ID:           id,
		Description:  req.Description,
		Instructions: req.Instructions,
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: project name is required", ErrValidation)
		}
		params.Name = &name
	}
	if req.Files != nil {
		files := normalizeFiles(*req.Files)
		params.Files = &files
	}

	p, err := s.store.UpdateProject(ctx, params)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update project in store: %w", err)
	}
	return p, nil
}

// DeleteProject removes a project after explicit confirmation. Pending
// assistant replies for the project are cancelled.
func (s *ProjectService) DeleteProject(ctx context.Context, id uuid.UUID, confirmed bool) error {
	if !confirmed {
		return fmt.Errorf("%w: deleting a project cannot be undone", ErrConfirmationRequired)
	}

	if err := s.store.DeleteProject(ctx, id); err != nil {
		if err == store.ErrNotFound {
			return err
		}
		return fmt.Errorf("failed to delete project from store: %w", err)
	}

	threadID := id.String()
	if n := s.responder.Cancel(threadID); n > 0 {
		s.metrics.RepliesCanceled.Add(float64(n))
		log.Infof("[ProjectService] Cancelled %d pending replies for deleted project %s", n, id)
	}
	s.metrics.ProjectsDeleted.Inc()
	s.hub.Publish(events.Event{Type: events.EventProjectDeleted, ThreadID: threadID})
	log.Infow("[ProjectService] Project deleted", "project_id", id)
	return nil
}

// PinnedSchedule returns the pinned message of the project, or nil.
func (s *ProjectService) PinnedSchedule(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if m, ok := p.PinnedMessage(); ok {
		return &m, nil
	}
	return nil, nil
}

// Revision returns the store revision, which changes on every mutation.
func (s *ProjectService) Revision() uint64 {
	return s.store.Revision()
}
