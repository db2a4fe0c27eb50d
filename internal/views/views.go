// Package views renders the server-side HTML pages from embedded templates.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"studyplanner-backend/internal/models"
	"studyplanner-backend/pkg/log"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page template names.
const (
	PageDashboard = "dashboard"
	PageForm      = "form"
	PageChat      = "chat"
	PageSettings  = "settings"
	PageGeneral   = "general"
	PageNotFound  = "notfound"
)

var pages = []string{PageDashboard, PageForm, PageChat, PageSettings, PageGeneral, PageNotFound}

// Notice is an inline message shown above the page content.
type Notice struct {
	Kind    string // "error" or "info"
	Message string
}

// ProjectForm holds the values of the create/edit form.
type ProjectForm struct {
	Name         string
	Description  string
	Instructions string
	Files        string // one file name per line
}

// PageData is passed to every page template.
type PageData struct {
	Title    string
	Notice   *Notice
	Nav      []models.ProjectSummary
	Projects []models.ProjectSummary
	Project  *models.Project
	Messages []models.Message
	Pinned   *models.Message
	Form     ProjectForm
	Editing  bool
	ThreadID string
	Draft    string
	// ProjectCount is shown on the general assistant page.
	ProjectCount int
}

// Renderer executes the page templates. Each page is parsed together with
// the shared layout.
type Renderer struct {
	templates map[string]*template.Template
}

var funcs = template.FuncMap{
	"formatTime": func(t time.Time) string { return t.Format("Jan 2, 2006 15:04") },
	"formatDate": func(t time.Time) string { return t.Format("Jan 2, 2006") },
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// Render writes page with the given status. The page is rendered to a
// buffer first so a template error never produces a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data PageData) {
	t, ok := r.templates[page]
	if !ok {
		log.Errorf("[Renderer] Unknown page template %q", page)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		log.Errorf("[Renderer] Failed to render %s: %v", page, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
