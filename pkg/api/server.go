package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cuemby/branchd/pkg/controller"
	"github.com/cuemby/branchd/pkg/telemetry"
)

// Server is the HTTP front end over a Controller.
type Server struct {
	ctrl      *controller.Controller
	router    chi.Router
	startedAt time.Time
	http      *http.Server
}

// NewServer builds a Server with all routes registered.
func NewServer(ctrl *controller.Controller) *Server {
	s := &Server{
		ctrl:      ctrl,
		startedAt: time.Now(),
	}
	s.router = s.routes()
	return s
}

// Handler returns the http.Handler for embedding or testing.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server on addr until it is Stopped or fails.
// ErrServerClosed from a clean Stop is swallowed, matching net/http's own
// convention for distinguishing a requested shutdown from a real failure.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts the HTTP server down, waiting up to the context
// deadline for in-flight requests to finish.
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", telemetry.Handler())

	r.Post("/webhook/git/push", s.handleWebhookPush)
	r.Post("/webhook/git", s.handleWebhookGeneric)

	r.Route("/api", func(r chi.Router) {
		r.Get("/agents", s.handleListAgents)
		r.Get("/agents/{id}", s.handleGetAgent)
		r.Post("/agents/{id}/restart", s.handleRestartAgent)
		r.Post("/agents/branch/{branch_hash}/restart", s.handleRestartByBranchHash)
		r.Post("/agents/restart-all", s.handleRestartAll)
		r.Post("/agents/manual-trigger", s.handleManualTrigger)
		r.Post("/agents/check-recovery", s.handleCheckRecovery)
		r.Get("/agents/check-recovery", s.handleCheckRecovery)

		r.Post("/secrets", s.handlePutSecret)
		r.Get("/secrets/check/{branch_hash}", s.handleCheckSecrets)

		r.Post("/metrics", s.handleIngestMetric)
		r.Get("/metrics/{branch_hash}", s.handleRecentMetrics)
		r.Get("/stats/{branch_hash}", s.handleStats)
		r.Get("/trades/{branch_hash}", s.handleTrades)
		r.Get("/logs/{branch_hash}", s.handleLogs)
	})

	return r
}
