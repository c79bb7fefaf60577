package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ignite/campaign-runner/internal/config"
	"github.com/ignite/campaign-runner/internal/mailer"
	"github.com/ignite/campaign-runner/internal/service/campaign"
	"github.com/ignite/campaign-runner/internal/service/history"
	"github.com/ignite/campaign-runner/internal/service/sender"
	"github.com/ignite/campaign-runner/internal/supervisor"
)

// Server represents the API server
type Server struct {
	config   config.ServerConfig
	handler  http.Handler
	handlers *Handlers
	server   *http.Server
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	campaigns *campaign.Service,
	senders *sender.Service,
	histories *history.Service,
	sup *supervisor.Supervisor,
	audit mailer.AuditLog,
) *Server {
	handlers := NewHandlers(campaigns, senders, histories, sup, audit)
	router := SetupRoutes(handlers)

	return &Server{
		config:   cfg,
		handler:  router,
		handlers: handlers,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.handler,
		// Timeouts are generous enough for large lead file uploads.
		ReadTimeout:       2 * time.Minute,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}
