package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/pkg/httputil"
	"studyplanner-backend/pkg/log"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ProjectService defines the interface expected from the project service.
type ProjectService interface {
	CreateProject(ctx context.Context, req models.CreateProjectRequest) (*models.Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (*models.Project, error)
	ListProjects(ctx context.Context) (*models.ListProjectsResponse, error)
	CountProjects(ctx context.Context) (int, error)
	UpdateProject(ctx context.Context, id uuid.UUID, req models.UpdateProjectRequest) (*models.Project, error)
	DeleteProject(ctx context.Context, id uuid.UUID, confirmed bool) error
	PinnedSchedule(ctx context.Context, id uuid.UUID) (*models.Message, error)
	Revision() uint64
}

type ProjectHandler struct {
	projectService ProjectService
}

func NewProjectHandler(projectSvc ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectSvc,
	}
}

// projectIDParam parses the {projectID} URL parameter, writing a 400 on failure.
func projectIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid project ID format")
		return uuid.Nil, false
	}
	return id, true
}

func revisionETag(rev uint64) string {
	return fmt.Sprintf(`W/"%d"`, rev)
}

// HandleListProjects handles GET /api/v1/projects
func (h *ProjectHandler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	etag := revisionETag(h.projectService.Revision())
	if r.Header.Get("If-None-Match") == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	resp, err := h.projectService.ListProjects(r.Context())
	if err != nil {
		respondServiceError(w, "ProjectHandler", "HandleListProjects", err, "Failed to list projects")
		return
	}

	w.Header().Set("ETag", etag)
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleCreateProject handles POST /api/v1/projects
func (h *ProjectHandler) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProjectRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	p, err := h.projectService.CreateProject(r.Context(), req)
	if err != nil {
		respondServiceError(w, "ProjectHandler", "HandleCreateProject", err, "Failed to create project")
		return
	}

	w.Header().Set("Location", "/api/v1/projects/"+p.ID.String())
	httputil.RespondJSON(w, http.StatusCreated, p)
}

// HandleGetProject handles GET /api/v1/projects/{projectID}
func (h *ProjectHandler) HandleGetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := projectIDParam(w, r)
	if !ok {
		return
	}

	p, err := h.projectService.GetProject(r.Context(), id)
	if err != nil {
		respondServiceError(w, "ProjectHandler", "HandleGetProject "+id.String(), err, "Failed to get project")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, p)
}

// HandleUpdateProject handles PUT /api/v1/projects/{projectID}
// Only the fields present in the body are changed.
func (h *ProjectHandler) HandleUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := projectIDParam(w, r)
	if !ok {
		return
	}

	var req models.UpdateProjectRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	defer r.Body.Close()

	p, err := h.projectService.UpdateProject(r.Context(), id, req)
	if err != nil {
		respondServiceError(w, "ProjectHandler", "HandleUpdateProject "+id.String(), err, "Failed to update project")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, p)
}

// HandleDeleteProject handles DELETE /api/v1/projects/{projectID}?confirm=true
func (h *ProjectHandler) HandleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := projectIDParam(w, r)
	if !ok {
		return
	}

	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if err := h.projectService.DeleteProject(r.Context(), id, confirmed); err != nil {
		respondServiceError(w, "ProjectHandler", "HandleDeleteProject "+id.String(), err, "Failed to delete project")
		return
	}

	log.Infof("[ProjectHandler] Deleted project %s", id)
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetSchedule handles GET /api/v1/projects/{projectID}/schedule
func (h *ProjectHandler) HandleGetSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := projectIDParam(w, r)
	if !ok {
		return
	}

	schedule, err := h.projectService.PinnedSchedule(r.Context(), id)
	if err != nil {
		respondServiceError(w, "ProjectHandler", "HandleGetSchedule "+id.String(), err, "Failed to get schedule")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, models.ScheduleResponse{ProjectID: id, Schedule: schedule})
}
