package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"studyplanner-backend/internal/api"
	"studyplanner-backend/internal/config"
	"studyplanner-backend/internal/events"
	"studyplanner-backend/internal/handlers"
	"studyplanner-backend/internal/metrics"
	"studyplanner-backend/internal/responder"
	"studyplanner-backend/internal/services"
	"studyplanner-backend/internal/store/memory"
	"studyplanner-backend/internal/views"
	"studyplanner-backend/pkg/log"
	"syscall"
	"time"
)

func main() {
	// Bootstrap logger so configuration loading is visible; replaced below.
	log.Init("info", "console", "")
	log.Info("Starting Study Planner Backend...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Init(cfg.LogLevel, cfg.LogFormat, cfg.LogOutputPath)
	defer log.Sync()
	log.Info("Configuration loaded successfully.")

	// 2. Initialize Store
	store := memory.NewMemoryStore()
	if cfg.SeedData {
		store.Seed()
		log.Info("Memory store initialized with sample projects.")
	} else {
		log.Info("Memory store initialized empty.")
	}

	// 3. Initialize Dependencies (Events, Metrics, Responder, Services, Handlers)
	hub := events.NewHub()
	m := metrics.New()

	replyResponder := responder.New(store, responder.NewDefaultRegistry(),
		responder.WithDelay(cfg.ResponderDelay),
		responder.WithOnReply(services.NewReplyHook(hub, m)),
	)
	log.Infof("Responder initialized with %s delay.", cfg.ResponderDelay)

	projectService := services.NewProjectService(store, replyResponder, hub, m)
	chatService := services.NewChatService(store, replyResponder, hub, m)

	renderer, err := views.NewRenderer()
	if err != nil {
		log.Fatal("Failed to parse page templates", err)
	}

	routerDeps := api.RouterDependencies{
		PageHandler:    handlers.NewPageHandler(projectService, chatService, renderer),
		ProjectHandler: handlers.NewProjectHandler(projectService),
		ChatHandler:    handlers.NewChatHandler(chatService),
		StreamHandler:  handlers.NewStreamHandler(chatService, hub, cfg.AllowedOrigins),
		Metrics:        m,
		Config:         cfg,
	}

	// 4. Setup Router & Inject Dependencies
	router := api.NewRouter(routerDeps)
	log.Info("HTTP router configured.")

	// 5. Configure and Start HTTP Server
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 70 * time.Second, // above the 60s request timeout
		IdleTimeout:  120 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Infof("Server starting and listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Could not listen on %s: %v", cfg.HTTPPort, err)
		}
		log.Info("Server listener routine stopped.")
	}()

	<-stopChan
	log.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("Server graceful shutdown failed: %v", err)
	}
	// Pending replies are dropped, never delivered after the server stops.
	if err := replyResponder.Shutdown(shutdownCtx); err != nil {
		log.Warnf("Responder shutdown failed: %v", err)
	}

	log.Info("Server shutdown complete.")
}
