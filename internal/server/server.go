package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bobmcallan/rulecheck/internal/common"
	"github.com/bobmcallan/rulecheck/internal/pool"
)

// Server wraps the HTTP server and the matcher pool it fronts.
type Server struct {
	pool   *pool.MatcherPool
	server *http.Server
	logger *common.Logger
}

// NewServer creates a new HTTP API server in front of p.
func NewServer(p *pool.MatcherPool, cfg *common.Config, logger *common.Logger) *Server {
	s := &Server{
		pool:   p,
		logger: logger,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := applyMiddleware(mux, logger)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("starting check API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
