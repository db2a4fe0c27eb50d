package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/internal/services"
	"studyplanner-backend/internal/store"
	"studyplanner-backend/internal/views"
	"studyplanner-backend/pkg/log"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PageHandler serves the server-rendered pages and their form actions.
// Successful form posts redirect (303) so a reload never resubmits.
type PageHandler struct {
	projectService ProjectService
	chatService    ChatService
	renderer       *views.Renderer
}

func NewPageHandler(projectSvc ProjectService, chatSvc ChatService, renderer *views.Renderer) *PageHandler {
	return &PageHandler{
		projectService: projectSvc,
		chatService:    chatSvc,
		renderer:       renderer,
	}
}

// page builds the data shared by every page, including the sidebar.
func (h *PageHandler) page(r *http.Request, title string) views.PageData {
	data := views.PageData{Title: title}
	list, err := h.projectService.ListProjects(r.Context())
	if err != nil {
		log.Warnf("[PageHandler] Failed to load sidebar projects: %v", err)
		return data
	}
	data.Nav = list.Projects
	return data
}

func errorNotice(err error) *views.Notice {
	return &views.Notice{Kind: "error", Message: err.Error()}
}

func formFromProject(p *models.Project) views.ProjectForm {
	return views.ProjectForm{
		Name:         p.Name,
		Description:  p.Description,
		Instructions: p.Instructions,
		Files:        strings.Join(p.Files, "\n"),
	}
}

func formFromRequest(r *http.Request) views.ProjectForm {
	return views.ProjectForm{
		Name:         r.PostFormValue("name"),
		Description:  r.PostFormValue("description"),
		Instructions: r.PostFormValue("instructions"),
		Files:        r.PostFormValue("files"),
	}
}

// splitFiles turns the one-per-line textarea into file names. Blank lines
// are dropped by the service.
func splitFiles(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}

// renderError renders the not-found page for missing resources and a bare
// 500 otherwise.
func (h *PageHandler) renderError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		h.NotFound(w, r)
		return
	}
	log.Errorf("[PageHandler] %s: %v", op, err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// loadProject resolves the {projectID} parameter. It renders the not-found
// page itself and reports false when the project cannot be shown.
func (h *PageHandler) loadProject(w http.ResponseWriter, r *http.Request) (*models.Project, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "projectID"))
	if err != nil {
		h.NotFound(w, r)
		return nil, false
	}
	p, err := h.projectService.GetProject(r.Context(), id)
	if err != nil {
		h.renderError(w, r, "loadProject "+id.String(), err)
		return nil, false
	}
	return p, true
}

// NotFound renders the not-found page. It is also the router's fallback.
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusNotFound, views.PageNotFound, h.page(r, "Not found"))
}

// Dashboard handles GET /
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	data := h.page(r, "My Study Projects")
	data.Projects = data.Nav
	h.renderer.Render(w, http.StatusOK, views.PageDashboard, data)
}

// NewProjectForm handles GET /project/new
func (h *PageHandler) NewProjectForm(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, views.PageForm, h.page(r, "New Project"))
}

// CreateProject handles POST /project/new
func (h *PageHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	form := formFromRequest(r)
	_, err := h.projectService.CreateProject(r.Context(), models.CreateProjectRequest{
		Name:         form.Name,
		Description:  form.Description,
		Instructions: form.Instructions,
		Files:        splitFiles(form.Files),
	})
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			data := h.page(r, "New Project")
			data.Form = form
			data.Notice = errorNotice(err)
			h.renderer.Render(w, http.StatusBadRequest, views.PageForm, data)
			return
		}
		h.renderError(w, r, "CreateProject", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// EditProjectForm handles GET /project/{projectID}/edit
func (h *PageHandler) EditProjectForm(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	data := h.page(r, "Edit "+p.Name)
	data.Project = p
	data.Editing = true
	data.Form = formFromProject(p)
	h.renderer.Render(w, http.StatusOK, views.PageForm, data)
}

// UpdateProject handles POST /project/{projectID}/edit. The form always
// submits every field, so the edit replaces all four.
func (h *PageHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	form := formFromRequest(r)
	files := splitFiles(form.Files)
	_, err := h.projectService.UpdateProject(r.Context(), p.ID, models.UpdateProjectRequest{
		Name:         &form.Name,
		Description:  &form.Description,
		Instructions: &form.Instructions,
		Files:        &files,
	})
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			data := h.page(r, "Edit "+p.Name)
			data.Project = p
			data.Editing = true
			data.Form = form
			data.Notice = errorNotice(err)
			h.renderer.Render(w, http.StatusBadRequest, views.PageForm, data)
			return
		}
		h.renderError(w, r, "UpdateProject "+p.ID.String(), err)
		return
	}
	http.Redirect(w, r, "/project/"+p.ID.String(), http.StatusSeeOther)
}

func (h *PageHandler) renderChat(w http.ResponseWriter, r *http.Request, status int, p *models.Project, notice *views.Notice, draft string) {
	data := h.page(r, p.Name)
	data.Project = p
	data.Messages = p.Messages
	data.ThreadID = p.ID.String()
	data.Notice = notice
	data.Draft = draft
	h.renderer.Render(w, status, views.PageChat, data)
}

// ProjectChat handles GET /project/{projectID}
func (h *PageHandler) ProjectChat(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	h.renderChat(w, r, http.StatusOK, p, nil, "")
}

// SendProjectMessage handles POST /project/{projectID}
func (h *PageHandler) SendProjectMessage(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	content := r.PostFormValue("content")
	if _, err := h.chatService.SendProjectMessage(r.Context(), p.ID, content); err != nil {
		if errors.Is(err, services.ErrValidation) {
			h.renderChat(w, r, http.StatusBadRequest, p, errorNotice(err), content)
			return
		}
		h.renderError(w, r, "SendProjectMessage "+p.ID.String(), err)
		return
	}
	http.Redirect(w, r, "/project/"+p.ID.String(), http.StatusSeeOther)
}

// TogglePin handles POST /project/{projectID}/messages/{messageID}/pin
func (h *PageHandler) TogglePin(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	messageID, err := uuid.Parse(chi.URLParam(r, "messageID"))
	if err != nil {
		h.NotFound(w, r)
		return
	}

	if _, err := h.chatService.TogglePin(r.Context(), p.ID, messageID); err != nil {
		if errors.Is(err, services.ErrValidation) {
			h.renderChat(w, r, http.StatusBadRequest, p, errorNotice(err), "")
			return
		}
		h.renderError(w, r, "TogglePin "+messageID.String(), err)
		return
	}
	http.Redirect(w, r, "/project/"+p.ID.String(), http.StatusSeeOther)
}

func (h *PageHandler) renderSettings(w http.ResponseWriter, r *http.Request, status int, p *models.Project, notice *views.Notice) {
	data := h.page(r, p.Name+" settings")
	data.Project = p
	data.Notice = notice
	if m, ok := p.PinnedMessage(); ok {
		data.Pinned = &m
	}
	h.renderer.Render(w, status, views.PageSettings, data)
}

// ProjectSettings handles GET /project/{projectID}/settings
func (h *PageHandler) ProjectSettings(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}
	h.renderSettings(w, r, http.StatusOK, p, nil)
}

// DeleteProject handles POST /project/{projectID}/delete. The confirm
// checkbox must be ticked.
func (h *PageHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProject(w, r)
	if !ok {
		return
	}

	confirmed, _ := strconv.ParseBool(r.PostFormValue("confirm"))
	if err := h.projectService.DeleteProject(r.Context(), p.ID, confirmed); err != nil {
		if errors.Is(err, services.ErrConfirmationRequired) {
			h.renderSettings(w, r, http.StatusBadRequest, p,
				&views.Notice{Kind: "error", Message: "Tick the confirmation box to delete this project. This cannot be undone."})
			return
		}
		h.renderError(w, r, "DeleteProject "+p.ID.String(), err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *PageHandler) renderGeneral(w http.ResponseWriter, r *http.Request, status int, notice *views.Notice, draft string) {
	msgs, err := h.chatService.GeneralMessages(r.Context())
	if err != nil {
		h.renderError(w, r, "GeneralAssistant", err)
		return
	}
	count, err := h.projectService.CountProjects(r.Context())
	if err != nil {
		h.renderError(w, r, "GeneralAssistant", err)
		return
	}
	data := h.page(r, "General Assistant")
	data.Messages = msgs
	data.ProjectCount = count
	data.ThreadID = models.GeneralThreadID
	data.Notice = notice
	data.Draft = draft
	h.renderer.Render(w, status, views.PageGeneral, data)
}

// GeneralAssistant handles GET /general-assistant
func (h *PageHandler) GeneralAssistant(w http.ResponseWriter, r *http.Request) {
	h.renderGeneral(w, r, http.StatusOK, nil, "")
}

// SendGeneralMessage handles POST /general-assistant
func (h *PageHandler) SendGeneralMessage(w http.ResponseWriter, r *http.Request) {
	content := r.PostFormValue("content")
	if _, err := h.chatService.SendGeneralMessage(r.Context(), content); err != nil {
		if errors.Is(err, services.ErrValidation) {
			h.renderGeneral(w, r, http.StatusBadRequest, errorNotice(err), content)
			return
		}
		h.renderError(w, r, "SendGeneralMessage", err)
		return
	}
	http.Redirect(w, r, "/general-assistant", http.StatusSeeOther)
}
