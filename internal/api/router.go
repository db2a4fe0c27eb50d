package api

import (
	"net/http"
	"studyplanner-backend/internal/config"
	"studyplanner-backend/internal/handlers"
	"studyplanner-backend/internal/metrics"
	"studyplanner-backend/pkg/log"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	PageHandler    *handlers.PageHandler
	ProjectHandler *handlers.ProjectHandler
	ChatHandler    *handlers.ChatHandler
	StreamHandler  *handlers.StreamHandler
	Metrics        *metrics.Metrics
	Config         *config.Config
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID) // Inject request ID into context
	r.Use(middleware.RealIP)    // Use X-Forwarded-For or X-Real-IP
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer) // Recover from panics, return 500
	if deps.Metrics != nil {
		r.Use(CountRequests(deps.Metrics))
	}

	// --- CORS Configuration ---
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "If-None-Match", "X-Requested-With"},
		ExposedHeaders:   []string{"ETag", "Location"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	limitMessages := RateLimitMessages(deps.Config.MessageRPS, deps.Config.MessageBurst)

	// --- Operational Routes ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	// --- Websocket Stream ---
	// Mounted outside the timeout group: streams stay open indefinitely.
	if deps.StreamHandler != nil {
		r.Get("/api/v1/threads/{threadID}/ws", deps.StreamHandler.HandleThreadStream)
	} else {
		log.Warnf("StreamHandler dependency is nil, skipping /api/v1/threads routes.")
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second)) // Set a request timeout

		// --- JSON API ---
		r.Route("/api/v1", func(r chi.Router) {
			if deps.ProjectHandler != nil {
				r.Route("/projects", func(r chi.Router) {
					r.Get("/", deps.ProjectHandler.HandleListProjects)
					r.Post("/", deps.ProjectHandler.HandleCreateProject)
					r.Get("/{projectID}", deps.ProjectHandler.HandleGetProject)
					r.Put("/{projectID}", deps.ProjectHandler.HandleUpdateProject)
					r.Delete("/{projectID}", deps.ProjectHandler.HandleDeleteProject)
					r.Get("/{projectID}/schedule", deps.ProjectHandler.HandleGetSchedule)

					if deps.ChatHandler != nil {
						r.Get("/{projectID}/messages", deps.ChatHandler.HandleListProjectMessages)
						r.With(limitMessages).Post("/{projectID}/messages", deps.ChatHandler.HandleSendProjectMessage)
						r.Post("/{projectID}/messages/{messageID}/pin", deps.ChatHandler.HandleTogglePin)
					}
				})
			} else {
				log.Warnf("ProjectHandler dependency is nil, skipping /api/v1/projects routes.")
			}

			if deps.ChatHandler != nil {
				r.Route("/general/messages", func(r chi.Router) {
					r.Get("/", deps.ChatHandler.HandleListGeneralMessages)
					r.With(limitMessages).Post("/", deps.ChatHandler.HandleSendGeneralMessage)
				})
			} else {
				log.Warnf("ChatHandler dependency is nil, skipping /api/v1/general routes.")
			}
		})

		// --- HTML Pages ---
		if deps.PageHandler == nil {
			log.Warnf("PageHandler dependency is nil, skipping page routes.")
			return
		}
		pages := deps.PageHandler
		r.Get("/", pages.Dashboard)
		r.Get("/project/new", pages.NewProjectForm)
		r.Post("/project/new", pages.CreateProject)
		r.Route("/project/{projectID}", func(r chi.Router) {
			r.Get("/", pages.ProjectChat)
			r.With(limitMessages).Post("/", pages.SendProjectMessage)
			r.Get("/edit", pages.EditProjectForm)
			r.Post("/edit", pages.UpdateProject)
			r.Get("/settings", pages.ProjectSettings)
			r.Post("/delete", pages.DeleteProject)
			r.Post("/messages/{messageID}/pin", pages.TogglePin)
		})
		r.Get("/general-assistant", pages.GeneralAssistant)
		r.With(limitMessages).Post("/general-assistant", pages.SendGeneralMessage)
	})

	if deps.PageHandler != nil {
		r.NotFound(deps.PageHandler.NotFound)
	}

	return r
}
