// Package api exposes reports and pipeline controls over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/quantbrief/oracle/internal/pipeline"
	"github.com/quantbrief/oracle/internal/scheduler"
	"github.com/quantbrief/oracle/internal/storage"
)

// Server represents the API server.
type Server struct {
	router    *chi.Mux
	handlers  *Handlers
	oracle    *pipeline.Oracle
	scheduler *scheduler.Scheduler
	addr      string
	server    *http.Server
}

// NewServer creates a new API server.
func NewServer(store *storage.Store, oracle *pipeline.Oracle, sched *scheduler.Scheduler, addr string) *Server {
	handlers := NewHandlers(store)

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	srv := &Server{
		router:    r,
		handlers:  handlers,
		oracle:    oracle,
		scheduler: sched,
		addr:      addr,
	}

	// Read routes
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/health", handlers.HealthCheck)
		r.Get("/stats", handlers.GetStats)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/recent", handlers.GetRecentReports)
			r.Get("/{type}", handlers.GetReportsByType)
			r.Get("/{type}/{date}", handlers.GetReport)
		})
	})

	// Pipeline routes. Research runs inline and can take minutes, so
	// these carry their own timeout instead of the 30s read budget.
	r.Route("/api/run", func(r chi.Router) {
		r.Use(middleware.Timeout(5 * time.Minute))

		r.Post("/daily", srv.RunDaily)
		r.Post("/research", srv.RunResearch)
	})

	// Admin routes (no auth for development)
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/jobs", srv.AdminGetJobs)
		r.Post("/jobs/{name}/run", srv.AdminRunJob)
	})

	return srv
}

// Start starts the API server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("addr", s.addr).Msg("Starting API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// ============================================================================
// PIPELINE HANDLERS
// ============================================================================

// RunDaily triggers a daily brief in the background.
func (s *Server) RunDaily(w http.ResponseWriter, r *http.Request) {
	if s.oracle == nil {
		respondError(w, http.StatusServiceUnavailable, "Pipeline not available")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := s.oracle.RunDailyBrief(ctx); err != nil {
			log.Error().Err(err).Msg("Triggered daily brief failed")
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status":  "ok",
		"message": "Daily brief generation started",
	})
}

type researchRequest struct {
	Query string `json:"query"`
}

// RunResearch runs an ad-hoc research query inline and returns the
// synthesis plus rendered markdown.
func (s *Server) RunResearch(w http.ResponseWriter, r *http.Request) {
	if s.oracle == nil {
		respondError(w, http.StatusServiceUnavailable, "Pipeline not available")
		return
	}

	var req researchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		respondError(w, http.StatusBadRequest, "Request body must include a query")
		return
	}

	state, err := s.oracle.RunResearch(r.Context(), req.Query)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Research run failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":     req.Query,
		"synthesis": state.Synthesis,
		"markdown":  state.MarkdownReport,
		"sources":   state.Sources,
		"errors":    state.FetchErrors,
	})
}

// ============================================================================
// ADMIN HANDLERS
// ============================================================================

// AdminGetJobs returns the status of all scheduled jobs.
func (s *Server) AdminGetJobs(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		respondError(w, http.StatusServiceUnavailable, "Scheduler not available")
		return
	}

	jobs := s.scheduler.GetJobStatus()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// AdminRunJob runs a specific job by name.
func (s *Server) AdminRunJob(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		respondError(w, http.StatusServiceUnavailable, "Scheduler not available")
		return
	}

	name := chi.URLParam(r, "name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "Job name is required")
		return
	}

	if err := s.scheduler.RunJobNow(name); err != nil {
		respondError(w, http.StatusNotFound, "Job not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Job triggered: " + name,
	})
}
