// Package httpserver wraps the standard library HTTP server with the
// timeouts and lifecycle hooks the runtime expects.
package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/config"
	"github.com/learngermanghana/sedifexbiz-sub004/pkg/logger"
)

// Server owns the listening socket. Websocket connections survive the
// write timeout because gorilla/websocket hijacks the connection and
// clears its deadlines.
type Server struct {
	srv *http.Server
	log *logger.Logger
}

// New builds a server for the given handler. The handler is expected to
// be the fully assembled API router.
func New(cfg config.ServerConfig, log *logger.Logger, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		log: log,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Start blocks serving requests until Shutdown is called. It returns
// http.ErrServerClosed after a graceful shutdown.
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
