// Package server exposes the mashup pipeline over HTTP. Runs are tracked
// as jobs that can be polled, cancelled and downloaded once complete.
package server

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/jrauso/mashup-maker/config"
	"github.com/jrauso/mashup-maker/internal/audio"
	"github.com/jrauso/mashup-maker/internal/domain"
	"github.com/jrauso/mashup-maker/internal/downloader"
	"github.com/jrauso/mashup-maker/internal/job"
	"github.com/jrauso/mashup-maker/internal/mashup"
	"github.com/jrauso/mashup-maker/internal/progress"
	"github.com/jrauso/mashup-maker/internal/search"
	"github.com/jrauso/mashup-maker/internal/storage"
)

// mashupRunner runs a single mashup request. Satisfied by
// mashup.Orchestrator; swapped out in tests.
type mashupRunner interface {
	Run(ctx context.Context, req mashup.Request) (*domain.MashupResult, error)
	Tracker() *progress.Tracker
}

// Server handles HTTP requests for the mashup maker
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	jobs   *job.Manager
	store  storage.Storage

	// newRunner builds a fresh pipeline for each job so concurrent jobs
	// never share progress state.
	newRunner func() mashupRunner
}

// New creates a new HTTP server instance
func New(cfg *config.Config) (*Server, error) {
	store, err := storage.NewStorage(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise storage: %w", err)
	}

	server := &Server{
		cfg:    cfg,
		router: gin.Default(),
		jobs:   job.NewManager(),
		store:  store,
	}
	server.newRunner = func() mashupRunner {
		orch := mashup.New(cfg, search.NewResolver(), downloader.NewFetcher(cfg), audio.NewFFMPEGEngine(), store)
		orch.Quiet = true
		return orch
	}

	server.setupRoutes()
	return server, nil
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	// Add CORS middleware
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.router.GET("/health", s.health)

	api := s.router.Group("/api/v1")
	{
		api.POST("/mashups", s.createMashup)
		api.GET("/jobs", s.listJobs)
		api.GET("/jobs/:id", s.getJobStatus)
		api.DELETE("/jobs/:id", s.cancelJob)
		api.GET("/jobs/:id/download", s.downloadMashup)
	}
}

// Start starts the HTTP server
func (s *Server) Start(port string) error {
	return s.router.Run(":" + port)
}
